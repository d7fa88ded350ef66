package domain

import "time"

// Project statuses are engine-defined strings rather than a closed enum; the
// engine adds internal states without a client release. The constants below
// cover the states the client reacts to.
const (
	ProjectStatusCreated   = "created"
	ProjectStatusIngesting = "ingesting"
	ProjectStatusIngested  = "ingested"
	ProjectStatusAnalyzing = "analyzing"
	ProjectStatusAnalyzed  = "analyzed"
	ProjectStatusReady     = "ready"
	ProjectStatusError     = "error"
)

// Project is the locally observed state of one engine project.
type Project struct {
	ID        string
	Name      string
	Status    string
	Metadata  map[string]any
	UpdatedAt time.Time
}
