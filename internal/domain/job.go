package domain

import "time"

// JobType enumerates the engine's background job categories.
type JobType string

const (
	JobTypeIngest           JobType = "ingest"
	JobTypeAnalyze          JobType = "analyze"
	JobTypeRenderProxy      JobType = "render-proxy"
	JobTypeRenderFinal      JobType = "render-final"
	JobTypeGenerateVariants JobType = "generate-variants"
	JobTypeExport           JobType = "export"
)

// Valid reports whether the type is one the engine is known to emit.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeIngest, JobTypeAnalyze, JobTypeRenderProxy, JobTypeRenderFinal, JobTypeGenerateVariants, JobTypeExport:
		return true
	}
	return false
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid reports whether the status is a known lifecycle state.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the locally observed state of one engine job. Progress is 0-100 and
// nominally non-decreasing while running, but the engine does not enforce
// that, so consumers must tolerate regressions. Local marks an optimistic
// placeholder inserted by the UI before the engine's first update arrives.
type Job struct {
	ID        string
	Type      JobType
	ProjectID string
	Status    JobStatus
	Progress  float64
	Stage     string
	Message   string
	Error     string
	Local     bool
	UpdatedAt time.Time
}
