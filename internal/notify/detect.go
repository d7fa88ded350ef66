package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipstudio/internal/domain"
)

var titleCaser = cases.Title(language.English)

// DetectJob compares the previously observed status (nil when the identifier
// has never been seen) with the job's new status and returns a notification
// descriptor, or nil when the transition is not user-facing.
//
// A job first observed directly in a terminal state still counts as a
// transition into that state: very fast jobs may never be seen running.
func DetectJob(prev *domain.JobStatus, job domain.Job) *Notification {
	if prev != nil && *prev == job.Status {
		return nil
	}
	if prev != nil && *prev != domain.JobStatusPending && *prev != domain.JobStatusRunning {
		return nil
	}

	switch job.Status {
	case domain.JobStatusCompleted:
		msg := job.Message
		if msg == "" {
			msg = "Job finished successfully."
		}
		return &Notification{
			Severity:  SeveritySuccess,
			Title:     jobTitle(job.Type) + " complete",
			Message:   msg,
			RelatedID: job.ID,
		}
	case domain.JobStatusFailed:
		msg := job.Error
		if msg == "" {
			msg = "The engine reported a failure without details."
		}
		return &Notification{
			Severity:  SeverityError,
			Title:     jobTitle(job.Type) + " failed",
			Message:   msg,
			RelatedID: job.ID,
		}
	}
	return nil
}

// projectStatusNotices maps engine project statuses to curated notification
// templates. Statuses without an entry are internal or transient and are
// silently absorbed; notifying on every engine state would be spam.
var projectStatusNotices = map[string]struct {
	severity Severity
	message  string
}{
	domain.ProjectStatusIngested: {SeverityInfo, "Media ingested and ready for analysis."},
	domain.ProjectStatusAnalyzed: {SeverityInfo, "Analysis complete."},
	domain.ProjectStatusReady:    {SeveritySuccess, "Project is ready to edit."},
}

// DetectProject is the project counterpart of DetectJob. Transitions into the
// engine's error status always notify; everything else only when a curated
// message exists for the new status.
func DetectProject(prev *string, project domain.Project) *Notification {
	if prev != nil && *prev == project.Status {
		return nil
	}

	if project.Status == domain.ProjectStatusError {
		return &Notification{
			Severity:  SeverityError,
			Title:     "Project error",
			Message:   fmt.Sprintf("Something went wrong with %s.", projectLabel(project)),
			RelatedID: project.ID,
		}
	}

	notice, ok := projectStatusNotices[project.Status]
	if !ok {
		return nil
	}
	return &Notification{
		Severity:  notice.severity,
		Title:     projectLabel(project),
		Message:   notice.message,
		RelatedID: project.ID,
	}
}

func jobTitle(t domain.JobType) string {
	if t == "" {
		return "Job"
	}
	return titleCaser.String(strings.ReplaceAll(string(t), "-", " "))
}

func projectLabel(p domain.Project) string {
	if p.Name != "" {
		return p.Name
	}
	return "project " + p.ID
}
