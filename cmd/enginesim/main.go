// Command enginesim stands up the fake engine and feeds it a scripted job
// lifecycle, so the monitor (or a GUI build) can be exercised without the
// real processing engine.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/domain"
	"clipstudio/internal/enginetest"
	"clipstudio/internal/infra"
)

const stepInterval = 2 * time.Second

func main() {
	logger := infra.NewLogger("development", "")

	server := enginetest.NewServer()
	defer server.Close()
	logger.Info().
		Str("base_url", server.URL()).
		Str("events_url", server.EventsURL()).
		Msg("enginesim: fake engine up")

	go runScript(server, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("enginesim: stopped")
}

// runScript loops a plausible project lifecycle: ingest, analyze, then a
// final render that alternates between completing and failing.
func runScript(server *enginetest.Server, logger infra.Logger) {
	iteration := 0
	for {
		projectID := uuid.New().String()
		name := "Clip session"
		server.PushProject(domain.ProjectUpdate{ID: projectID, Name: &name, Status: domain.ProjectStatusCreated})

		runJob(server, projectID, domain.JobTypeIngest, false)
		server.PushProject(domain.ProjectUpdate{ID: projectID, Status: domain.ProjectStatusIngested})

		runJob(server, projectID, domain.JobTypeAnalyze, false)
		server.PushProject(domain.ProjectUpdate{ID: projectID, Status: domain.ProjectStatusReady})

		fail := iteration%2 == 1
		runJob(server, projectID, domain.JobTypeRenderFinal, fail)
		if fail {
			server.PushProject(domain.ProjectUpdate{ID: projectID, Status: domain.ProjectStatusError})
		}

		logger.Info().Str("project_id", projectID).Bool("failed", fail).Msg("enginesim: lifecycle done")
		iteration++
		time.Sleep(stepInterval)
	}
}

func runJob(server *enginetest.Server, projectID string, jobType domain.JobType, fail bool) {
	id := uuid.New().String()
	progress := func(p float64) *float64 { return &p }

	update := domain.JobUpdate{
		ID:        id,
		Type:      jobType,
		ProjectID: &projectID,
		Status:    domain.JobStatusPending,
		Progress:  progress(0),
	}
	server.SetActive(update)
	server.PushJob(update)
	time.Sleep(stepInterval)

	for _, p := range []float64{20, 60, 90} {
		update.Status = domain.JobStatusRunning
		update.Progress = progress(p)
		server.SetActive(update)
		server.PushJob(update)
		time.Sleep(stepInterval)
	}

	server.SetActive()
	if fail {
		update.Status = domain.JobStatusFailed
		errMsg := "render pipeline exited with code 1"
		update.Error = &errMsg
	} else {
		update.Status = domain.JobStatusCompleted
		update.Progress = progress(100)
	}
	server.PushJob(update)
}
