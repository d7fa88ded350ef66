package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingID          = errors.New("missing record identifier")
	ErrMissingStatus      = errors.New("missing status")
	ErrUnknownStatus      = errors.New("unknown job status")
	ErrUnknownJobType     = errors.New("unknown job type")
	ErrUnknownEventKind   = errors.New("unknown event kind")
	ErrProgressOutOfRange = errors.New("progress out of range")
)
