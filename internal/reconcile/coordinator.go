// Package reconcile keeps the local view of engine jobs and projects
// synchronized with the remote processing engine. Updates arrive over a
// persistent event link (push) and a periodic poll of active jobs (pull);
// both feed one serialized apply path that upserts records and derives
// one-time notifications from status transitions.
package reconcile

import (
	"context"
	"sync"
	"time"

	"clipstudio/internal/domain"
	"clipstudio/internal/infra"
	"clipstudio/internal/notify"
	"clipstudio/internal/store"
)

// State is the event link connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosing      State = "closing"
)

// FetchActive fetches the engine's currently active (pending/running) jobs.
// It is the pull-channel half of the consistency strategy.
type FetchActive func(ctx context.Context) ([]domain.JobUpdate, error)

// Options carries the injected collaborators of a Coordinator. Dialer,
// FetchActive and Sink stand in for the live engine so retry and transition
// logic stay testable without a network.
type Options struct {
	Dialer      Dialer
	FetchActive FetchActive
	Sink        notify.Sink
	Logger      infra.Logger
	Metrics     *infra.Metrics
	Now         func() time.Time

	PollInterval   time.Duration
	ReconnectDelay time.Duration
	// RetentionHorizon bounds store memory by expiring terminal jobs older
	// than this. Zero keeps everything for the session.
	RetentionHorizon time.Duration
}

const (
	defaultPollInterval   = 3 * time.Second
	defaultReconnectDelay = 2 * time.Second
)

// Coordinator owns the connection lifecycle and is the sole writer to the
// record store. The mutex serializes the apply path together with the
// observed-status ledgers, so no two updates for the same identifier are
// ever evaluated concurrently.
type Coordinator struct {
	dialer      Dialer
	fetchActive FetchActive
	sink        notify.Sink
	logger      infra.Logger
	metrics     *infra.Metrics
	records     *store.Store

	pollInterval   time.Duration
	reconnectDelay time.Duration
	retention      time.Duration

	mu            sync.Mutex
	state         State
	conn          Conn
	cancel        context.CancelFunc
	pollerRunning bool
	jobLedger     map[string]domain.JobStatus
	projectLedger map[string]string

	wg sync.WaitGroup
}

// New constructs a stopped Coordinator. Call Start to bring the channels up.
func New(opts Options) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &Coordinator{
		dialer:         opts.Dialer,
		fetchActive:    opts.FetchActive,
		sink:           opts.Sink,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		records:        store.New(opts.Now),
		pollInterval:   opts.PollInterval,
		reconnectDelay: opts.ReconnectDelay,
		retention:      opts.RetentionHorizon,
		state:          StateDisconnected,
		jobLedger:      make(map[string]domain.JobStatus),
		projectLedger:  make(map[string]string),
	}
}

// Store exposes the record tables for UI reads.
func (c *Coordinator) Store() *store.Store { return c.records }

// State returns the current connection state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start brings up the event link and, once it first connects, the poller.
// Starting an already started coordinator is a no-op.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateConnecting
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx)
}

// Shutdown closes the event link without triggering a reconnect, stops the
// poller, and cancels any pending reconnect delay. Idempotent; the
// coordinator can be started again afterwards without leaking timers or
// sockets.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	if c.state == StateDisconnected && c.cancel == nil {
		c.mu.Unlock()
		return
	}
	c.state = StateClosing
	conn := c.conn
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.conn = nil
	c.pollerRunning = false
	c.state = StateDisconnected
	c.mu.Unlock()

	c.metrics.SetConnected(false)
	c.logger.Info().Msg("sync: coordinator stopped")
}

// Seed applies an initial snapshot fetched by the surrounding application
// before the event link is up. Seeded statuses populate the ledgers without
// notifying: startup must not replay transitions that happened before the
// client was watching. Later duplicate records for seeded identifiers are
// ordinary upserts with the seeded value as previous status.
func (c *Coordinator) Seed(jobs []domain.JobUpdate, projects []domain.ProjectUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range jobs {
		if err := u.Validate(); err != nil {
			c.logger.Warn().Err(err).Msg("sync: skipping invalid seed job")
			continue
		}
		job, _ := c.records.UpsertJob(u)
		c.jobLedger[job.ID] = job.Status
	}
	for _, u := range projects {
		if err := u.Validate(); err != nil {
			c.logger.Warn().Err(err).Msg("sync: skipping invalid seed project")
			continue
		}
		project, _ := c.records.UpsertProject(u)
		c.projectLedger[project.ID] = project.Status
	}
}

// SubmitLocalJob records an optimistic running placeholder for a job the UI
// just kicked off. The first authoritative engine update overwrites the
// placeholder wholesale, and the ledger already counts the job as seen in
// running, so a fast completion still notifies exactly once.
func (c *Coordinator) SubmitLocalJob(id string, jobType domain.JobType, projectID string) domain.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	job := c.records.SubmitLocalJob(id, jobType, projectID)
	if _, seen := c.jobLedger[id]; !seen {
		c.jobLedger[id] = job.Status
	}
	return job
}

// RemoveJob removes a job from the visible list. Ledger state is kept, so a
// reappearing identifier cannot re-arm its notification.
func (c *Coordinator) RemoveJob(id string) {
	c.records.RemoveJob(id)
}

// applyJob is the single serialized application path for job updates from
// either channel. Ledger read, upsert, transition decision and dispatch
// happen under one critical section so the same transition can never be
// evaluated twice.
func (c *Coordinator) applyJob(u domain.JobUpdate, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.jobLedger[u.ID]
	if source == sourcePoll && seen && prev.Terminal() {
		// The poll endpoint scopes to active jobs; a terminal identifier
		// showing up there is a stale snapshot racing a fresher push update.
		return
	}

	job, _ := c.records.UpsertJob(u)
	var prevPtr *domain.JobStatus
	if seen {
		prevPtr = &prev
	}
	n := notify.DetectJob(prevPtr, job)
	c.jobLedger[u.ID] = job.Status
	c.metrics.EventApplied(source, kindJob)
	if n != nil {
		c.dispatch(*n)
	}
}

// applyProject mirrors applyJob against the project table and ledger.
func (c *Coordinator) applyProject(u domain.ProjectUpdate, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.projectLedger[u.ID]
	project, _ := c.records.UpsertProject(u)
	var prevPtr *string
	if seen {
		prevPtr = &prev
	}
	n := notify.DetectProject(prevPtr, project)
	c.projectLedger[u.ID] = project.Status
	c.metrics.EventApplied(source, kindProject)
	if n != nil {
		c.dispatch(*n)
	}
}

func (c *Coordinator) dispatch(n notify.Notification) {
	c.metrics.NotificationSent(string(n.Severity))
	if c.sink != nil {
		c.sink.Notify(n)
	}
}
