// Package store holds the in-memory tables of job and project records the
// reconciliation coordinator keeps synchronized with the engine. The
// coordinator is the sole writer; UI layers read snapshot copies.
package store

import (
	"maps"
	"sync"
	"time"

	"clipstudio/internal/domain"
)

// Store is the keyed record table for jobs and projects. All reads return
// copies, so callers can never mutate store internals.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	jobs     map[string]*domain.Job
	projects map[string]*domain.Project
}

// New constructs an empty store. A nil clock falls back to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		jobs:     make(map[string]*domain.Job),
		projects: make(map[string]*domain.Project),
	}
}

// UpsertJob inserts the record if absent, otherwise shallow-merges present
// fields onto the existing record; nil fields in the update are preserved.
// An optimistic local placeholder is replaced wholesale by the first
// authoritative update instead of merged. Returns the merged record and
// whether it was newly created.
func (s *Store) UpsertJob(u domain.JobUpdate) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[u.ID]
	created := !ok
	var job domain.Job
	if ok && !existing.Local {
		job = *existing
	} else {
		job = domain.Job{ID: u.ID}
	}

	job.Status = u.Status
	if u.Type != "" {
		job.Type = u.Type
	}
	if u.ProjectID != nil {
		job.ProjectID = *u.ProjectID
	}
	if u.Progress != nil {
		job.Progress = *u.Progress
	}
	if u.Stage != nil {
		job.Stage = *u.Stage
	}
	if u.Message != nil {
		job.Message = *u.Message
	}
	if u.Error != nil {
		job.Error = *u.Error
	}
	// An error description only makes sense on a failed job; a retried job
	// that went back to running must not carry the old failure text.
	if job.Status != domain.JobStatusFailed && u.Error == nil {
		job.Error = ""
	}
	job.Local = false
	job.UpdatedAt = s.now()

	s.jobs[u.ID] = &job
	return job, created
}

// SubmitLocalJob records an optimistic running placeholder for a job the UI
// just submitted, before the engine's first update for it arrives. A no-op if
// the identifier is already known.
func (s *Store) SubmitLocalJob(id string, jobType domain.JobType, projectID string) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[id]; ok {
		return *existing
	}
	job := domain.Job{
		ID:        id,
		Type:      jobType,
		ProjectID: projectID,
		Status:    domain.JobStatusRunning,
		Local:     true,
		UpdatedAt: s.now(),
	}
	s.jobs[id] = &job
	return job
}

// Job returns a copy of the record for id, if present.
func (s *Store) Job(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// Jobs returns copies of all job records matching pred. A nil predicate
// matches everything. Order is unspecified.
func (s *Store) Jobs(pred func(domain.Job) bool) []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if pred == nil || pred(*job) {
			out = append(out, *job)
		}
	}
	return out
}

// RemoveJob drops a record from the visible table. This is a UI-local
// removal; the coordinator's observed-status ledger is untouched, so a
// removed identifier that reappears is still treated as previously seen.
func (s *Store) RemoveJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// ExpireJobs drops terminal jobs last updated before the retention horizon
// and returns how many were removed. Bounds memory on long sessions.
func (s *Store) ExpireJobs(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// UpsertProject inserts or shallow-merges a project record, mirroring
// UpsertJob. Metadata is replaced as a whole when present.
func (s *Store) UpsertProject(u domain.ProjectUpdate) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[u.ID]
	created := !ok
	var project domain.Project
	if ok {
		project = *existing
	} else {
		project = domain.Project{ID: u.ID}
	}

	project.Status = u.Status
	if u.Name != nil {
		project.Name = *u.Name
	}
	if u.Metadata != nil {
		project.Metadata = maps.Clone(u.Metadata)
	}
	project.UpdatedAt = s.now()

	s.projects[u.ID] = &project
	return copyProject(project), created
}

// Project returns a copy of the record for id, if present.
func (s *Store) Project(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return domain.Project{}, false
	}
	return copyProject(*project), true
}

// Projects returns copies of all project records matching pred. A nil
// predicate matches everything.
func (s *Store) Projects(pred func(domain.Project) bool) []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, project := range s.projects {
		if pred == nil || pred(*project) {
			out = append(out, copyProject(*project))
		}
	}
	return out
}

// copyProject detaches the snapshot from store internals: a struct copy
// still aliases the metadata map, so readers mutating their snapshot would
// otherwise write through into the table.
func copyProject(p domain.Project) domain.Project {
	p.Metadata = maps.Clone(p.Metadata)
	return p
}
