package store

import (
	"testing"
	"time"

	"clipstudio/internal/domain"
)

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func TestUpsertJobMergesPresentFields(t *testing.T) {
	s := New(nil)

	first := domain.JobUpdate{
		ID:       "j1",
		Type:     domain.JobTypeRenderFinal,
		Status:   domain.JobStatusRunning,
		Progress: f64Ptr(40),
		Stage:    strPtr("encoding"),
	}
	job, created := s.UpsertJob(first)
	if !created {
		t.Fatalf("first upsert should create the record")
	}
	if job.Progress != 40 || job.Stage != "encoding" {
		t.Fatalf("unexpected merged record: %+v", job)
	}

	// Progress-only update: absent fields must be preserved, not cleared.
	job, created = s.UpsertJob(domain.JobUpdate{
		ID:       "j1",
		Status:   domain.JobStatusRunning,
		Progress: f64Ptr(70),
	})
	if created {
		t.Fatalf("second upsert should merge, not create")
	}
	if job.Type != domain.JobTypeRenderFinal {
		t.Fatalf("type was cleared by merge: %+v", job)
	}
	if job.Stage != "encoding" {
		t.Fatalf("stage was cleared by merge: %+v", job)
	}
	if job.Progress != 70 {
		t.Fatalf("progress = %v, want 70", job.Progress)
	}
}

func TestUpsertJobIdempotent(t *testing.T) {
	s := New(nil)
	u := domain.JobUpdate{
		ID:       "j1",
		Type:     domain.JobTypeExport,
		Status:   domain.JobStatusCompleted,
		Progress: f64Ptr(100),
	}

	first, _ := s.UpsertJob(u)
	second, created := s.UpsertJob(u)
	if created {
		t.Fatalf("reapplying the same record must not create")
	}
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	if first != second {
		t.Fatalf("reapplying the same record changed state:\n%+v\n%+v", first, second)
	}
}

func TestUpsertJobClearsStaleError(t *testing.T) {
	s := New(nil)
	s.UpsertJob(domain.JobUpdate{
		ID:     "j1",
		Status: domain.JobStatusFailed,
		Error:  strPtr("no space left on device"),
	})

	job, _ := s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusRunning})
	if job.Error != "" {
		t.Fatalf("error text survived a retry back to running: %+v", job)
	}
}

func TestSubmitLocalJobOverwrittenByAuthoritativeUpdate(t *testing.T) {
	s := New(nil)

	placeholder := s.SubmitLocalJob("j1", domain.JobTypeExport, "p1")
	if !placeholder.Local || placeholder.Status != domain.JobStatusRunning {
		t.Fatalf("unexpected placeholder: %+v", placeholder)
	}

	// The first engine update replaces the placeholder wholesale: fields the
	// update does not carry must not leak through from the guess.
	job, created := s.UpsertJob(domain.JobUpdate{
		ID:     "j1",
		Type:   domain.JobTypeExport,
		Status: domain.JobStatusPending,
	})
	if created {
		t.Fatalf("placeholder id should not count as newly created")
	}
	if job.Local {
		t.Fatalf("record still flagged local after authoritative update")
	}
	if job.ProjectID != "" {
		t.Fatalf("placeholder field survived the overwrite: %+v", job)
	}
}

func TestSubmitLocalJobKnownIDIsNoop(t *testing.T) {
	s := New(nil)
	s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusCompleted})

	job := s.SubmitLocalJob("j1", domain.JobTypeExport, "")
	if job.Status != domain.JobStatusCompleted || job.Local {
		t.Fatalf("placeholder replaced an authoritative record: %+v", job)
	}
}

func TestJobsPredicate(t *testing.T) {
	s := New(nil)
	s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusRunning})
	s.UpsertJob(domain.JobUpdate{ID: "j2", Status: domain.JobStatusCompleted})
	s.UpsertJob(domain.JobUpdate{ID: "j3", Status: domain.JobStatusRunning})

	running := s.Jobs(func(j domain.Job) bool { return j.Status == domain.JobStatusRunning })
	if len(running) != 2 {
		t.Fatalf("running jobs = %d, want 2", len(running))
	}
	if all := s.Jobs(nil); len(all) != 3 {
		t.Fatalf("all jobs = %d, want 3", len(all))
	}
}

func TestRemoveJob(t *testing.T) {
	s := New(nil)
	s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusRunning})
	s.RemoveJob("j1")
	if _, ok := s.Job("j1"); ok {
		t.Fatalf("job still present after removal")
	}
}

func TestExpireJobsKeepsActiveAndRecent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := New(clock)

	s.UpsertJob(domain.JobUpdate{ID: "old-done", Status: domain.JobStatusCompleted})
	s.UpsertJob(domain.JobUpdate{ID: "old-running", Status: domain.JobStatusRunning})
	now = now.Add(2 * time.Hour)
	s.UpsertJob(domain.JobUpdate{ID: "fresh-done", Status: domain.JobStatusFailed})

	removed := s.ExpireJobs(time.Hour)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := s.Job("old-done"); ok {
		t.Fatalf("expired job still present")
	}
	if _, ok := s.Job("old-running"); !ok {
		t.Fatalf("running job was expired")
	}
	if _, ok := s.Job("fresh-done"); !ok {
		t.Fatalf("recent terminal job was expired")
	}
}

func TestUpsertJobToleratesProgressRegression(t *testing.T) {
	s := New(nil)
	s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusRunning, Progress: f64Ptr(80)})

	// The engine does not guarantee monotonic progress; a stale value must
	// simply be applied, not rejected.
	job, created := s.UpsertJob(domain.JobUpdate{ID: "j1", Status: domain.JobStatusRunning, Progress: f64Ptr(40)})
	if created {
		t.Fatalf("regression update should merge, not create")
	}
	if job.Progress != 40 {
		t.Fatalf("progress = %v, want 40", job.Progress)
	}
}

func TestProjectSnapshotsDoNotAliasMetadata(t *testing.T) {
	s := New(nil)
	merged, _ := s.UpsertProject(domain.ProjectUpdate{
		ID:       "p1",
		Status:   domain.ProjectStatusReady,
		Metadata: map[string]any{"fps": 30},
	})

	// Mutating any snapshot must not write through into the table.
	merged.Metadata["fps"] = 999
	snapshot, _ := s.Project("p1")
	snapshot.Metadata["fps"] = 999
	listed := s.Projects(nil)
	listed[0].Metadata["fps"] = 999

	fresh, _ := s.Project("p1")
	if fresh.Metadata["fps"] != 30 {
		t.Fatalf("reader mutation leaked into store internals: %v", fresh.Metadata)
	}
}

func TestUpsertProjectDetachesCallerMetadata(t *testing.T) {
	s := New(nil)
	meta := map[string]any{"fps": 30}
	s.UpsertProject(domain.ProjectUpdate{ID: "p1", Status: domain.ProjectStatusReady, Metadata: meta})

	meta["fps"] = 999
	fresh, _ := s.Project("p1")
	if fresh.Metadata["fps"] != 30 {
		t.Fatalf("caller mutation leaked into store internals: %v", fresh.Metadata)
	}
}

func TestUpsertProjectMerge(t *testing.T) {
	s := New(nil)

	project, created := s.UpsertProject(domain.ProjectUpdate{
		ID:     "p1",
		Name:   strPtr("Summer cut"),
		Status: domain.ProjectStatusIngesting,
	})
	if !created || project.Name != "Summer cut" {
		t.Fatalf("unexpected project: %+v (created=%v)", project, created)
	}

	project, created = s.UpsertProject(domain.ProjectUpdate{
		ID:     "p1",
		Status: domain.ProjectStatusReady,
	})
	if created {
		t.Fatalf("second upsert should merge, not create")
	}
	if project.Name != "Summer cut" {
		t.Fatalf("name was cleared by merge: %+v", project)
	}
	if project.Status != domain.ProjectStatusReady {
		t.Fatalf("status = %q, want ready", project.Status)
	}
}
