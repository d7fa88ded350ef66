package reconcile

import (
	"encoding/json"
	"fmt"

	"clipstudio/internal/domain"
)

const (
	kindJob     = "job"
	kindProject = "project"
)

const (
	sourcePush = "push"
	sourcePoll = "poll"
)

// envelope is the tagged union every inbound push frame decodes into before
// the payload is trusted.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// handleFrame validates one inbound message and routes it into the apply
// path. Malformed messages are logged and dropped; they never stop the
// coordinator.
func (c *Coordinator) handleFrame(data []byte, source string) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.drop(source, fmt.Errorf("decode envelope: %w", err))
		return
	}
	switch env.Kind {
	case kindJob:
		var u domain.JobUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			c.drop(source, fmt.Errorf("decode job payload: %w", err))
			return
		}
		if err := u.Validate(); err != nil {
			c.drop(source, err)
			return
		}
		c.applyJob(u, source)
	case kindProject:
		var u domain.ProjectUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			c.drop(source, fmt.Errorf("decode project payload: %w", err))
			return
		}
		if err := u.Validate(); err != nil {
			c.drop(source, err)
			return
		}
		c.applyProject(u, source)
	default:
		c.drop(source, fmt.Errorf("%w: %q", domain.ErrUnknownEventKind, env.Kind))
	}
}

func (c *Coordinator) drop(source string, err error) {
	c.metrics.FrameDropped()
	c.logger.Warn().Err(err).Str("source", source).Msg("sync: dropping malformed message")
}
