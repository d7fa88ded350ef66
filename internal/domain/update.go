package domain

import "fmt"

// JobUpdate is the wire form of a job record as the engine sends it, over
// either the event link or the poll endpoint. Optional fields are pointers so
// that an absent field is preserved on merge rather than cleared.
type JobUpdate struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type,omitempty"`
	ProjectID *string   `json:"project_id,omitempty"`
	Status    JobStatus `json:"status"`
	Progress  *float64  `json:"progress,omitempty"`
	Stage     *string   `json:"stage,omitempty"`
	Message   *string   `json:"message,omitempty"`
	Error     *string   `json:"error,omitempty"`
}

// Validate rejects updates the reconciliation path must not apply.
func (u JobUpdate) Validate() error {
	if u.ID == "" {
		return ErrMissingID
	}
	if !u.Status.Valid() {
		return fmt.Errorf("job %s: %w: %q", u.ID, ErrUnknownStatus, u.Status)
	}
	if u.Type != "" && !u.Type.Valid() {
		return fmt.Errorf("job %s: %w: %q", u.ID, ErrUnknownJobType, u.Type)
	}
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("job %s: %w: %v", u.ID, ErrProgressOutOfRange, *u.Progress)
	}
	return nil
}

// ProjectUpdate is the wire form of a project record.
type ProjectUpdate struct {
	ID       string         `json:"id"`
	Name     *string        `json:"name,omitempty"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate rejects updates the reconciliation path must not apply. Project
// statuses are engine-defined, so any non-empty status passes.
func (u ProjectUpdate) Validate() error {
	if u.ID == "" {
		return ErrMissingID
	}
	if u.Status == "" {
		return fmt.Errorf("project %s: %w", u.ID, ErrMissingStatus)
	}
	return nil
}
