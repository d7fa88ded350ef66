// Package notify decides whether an observed status transition warrants a
// user-facing notification, and carries the descriptor to an injected sink.
// It never renders UI.
package notify

import "github.com/rs/zerolog"

// Severity classifies a notification for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is the descriptor handed to the sink. RelatedID is the job or
// project identifier the transition belongs to.
type Notification struct {
	Severity  Severity
	Title     string
	Message   string
	RelatedID string
}

// Sink receives notification descriptors. It is invoked from the
// coordinator's apply path, so implementations must return quickly and must
// not call back into the coordinator.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

// LogSink writes notifications to a zerolog logger, for headless use.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink constructs a sink that logs each notification.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(n Notification) {
	evt := s.logger.Info()
	if n.Severity == SeverityError {
		evt = s.logger.Error()
	}
	evt.Str("severity", string(n.Severity)).
		Str("related_id", n.RelatedID).
		Str("title", n.Title).
		Msg(n.Message)
}
