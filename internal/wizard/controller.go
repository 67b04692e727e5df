package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stinstaller/internal/backend"
	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultLogLines = 200
)

// Backend is everything the controller needs from the install backend.
// Execution commands and status queries are separate so a dispatch can
// never gate a poll.
type Backend interface {
	backend.Dispatcher
	backend.Querier
	Pause(ctx context.Context) (*backend.PauseResponse, error)
	LoadConfig(ctx context.Context) (*backend.ConfigResponse, error)
	SaveConfig(ctx context.Context, cfg map[string]string) (*backend.SaveConfigResponse, error)
	CheckTemp(ctx context.Context) (*backend.TempFilesResponse, error)
	CleanTemp(ctx context.Context) error
}

type Options struct {
	Registry *steps.Registry
	Backend  Backend
	Logger   logging.Logger
	Journal  Journal
	// Interval drives both the status poller and the log tailer.
	Interval time.Duration
	LogLines int
	// InitialConfig seeds the cached configuration, e.g. from the journal.
	InitialConfig map[string]string
	SessionID     string
	// OnChange and OnLog may be called concurrently from several goroutines.
	OnChange func(Snapshot)
	OnLog    func(LogEvent)
	Now      func() time.Time
}

// Controller owns the current phase, every phase and step status, and the
// single poller/tailer pair. It is the only component that dispatches
// execution commands.
type Controller struct {
	registry  *steps.Registry
	backend   Backend
	logger    logging.Logger
	journal   Journal
	interval  time.Duration
	tailer    *LogTailer
	logSource LogSource
	sessionID string
	onChange  func(Snapshot)
	onLog     func(LogEvent)
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	version     uint64
	logSeq      uint64
	current     steps.Phase
	phaseStatus map[steps.Phase]PhaseStatus
	stepStatus  map[steps.StepID]StepStatus
	waiting     map[steps.StepID]bool
	nextEnabled map[steps.Phase]bool
	// revision counts state changes per phase so a one-shot refresh can
	// tell whether it was overtaken.
	revision map[steps.Phase]uint64
	config   map[string]string
	summary     *Summary
	polling     *pollSession
	generation  uint64
}

func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = steps.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sessionID := strings.TrimSpace(opts.SessionID)
	if sessionID == "" {
		sessionID = logging.NewRequestID()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		registry:    registry,
		backend:     opts.Backend,
		logger:      logger.With(logging.F("session", sessionID)),
		journal:     opts.Journal,
		interval:    interval,
		tailer:      NewLogTailer(opts.LogLines),
		logSource:   LogFrom(opts.Backend),
		sessionID:   sessionID,
		onChange:    opts.OnChange,
		onLog:       opts.OnLog,
		now:         now,
		ctx:         ctx,
		cancel:      cancel,
		current:     steps.PhaseConfig,
		phaseStatus: map[steps.Phase]PhaseStatus{},
		stepStatus:  map[steps.StepID]StepStatus{},
		waiting:     map[steps.StepID]bool{},
		nextEnabled: map[steps.Phase]bool{},
		revision:    map[steps.Phase]uint64{},
		config:      cloneConfig(opts.InitialConfig),
	}
	for _, phase := range registry.Phases() {
		for _, id := range registry.Steps(phase) {
			c.stepStatus[id] = StepUnknown
		}
	}
	return c, nil
}

func (c *Controller) SessionID() string {
	return c.sessionID
}

// Close stops polling and cancels every in-flight call, then waits for
// background work to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopPollingLocked()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// GoToPhase makes phase current. Entering the summary stops polling and
// builds the summary from the cached configuration. Entering an
// orchestrated phase refreshes its statuses once.
func (c *Controller) GoToPhase(phase steps.Phase) error {
	if phase < steps.PhaseConfig || phase > steps.PhaseSummary {
		return fmt.Errorf("%w: %d", ErrUnknownPhase, phase)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.current = phase
	if phase == steps.PhaseSummary {
		c.stopPollingLocked()
		summary := BuildSummary(c.config)
		c.summary = &summary
	}
	rev := c.revision[phase]
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)

	if c.registry.IsOrchestrated(phase) {
		c.spawn(func() { c.refresh(phase, rev) })
	}
	return nil
}

// StartPhase resets every step of phase to pending, marks the phase running,
// starts polling it and dispatches its whole range.
func (c *Controller) StartPhase(phase steps.Phase) error {
	return c.startPhase(phase, false)
}

// RetryPhase flags the phase's rows as waiting and starts it again.
func (c *Controller) RetryPhase(phase steps.Phase) error {
	return c.startPhase(phase, true)
}

func (c *Controller) startPhase(phase steps.Phase, retry bool) error {
	first, last, ok := c.registry.Range(phase)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotOrchestrated, phase)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for _, id := range c.registry.Steps(phase) {
		c.stepStatus[id] = StepPending
		c.waiting[id] = retry
	}
	c.touchLocked(phase)
	c.phaseStatus[phase] = PhaseRunning
	c.nextEnabled[phase] = false
	c.startPollingLocked(phase)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.logger.Info("phase started", logging.F("phase", int(phase)), logging.F("retry", retry))
	c.record(phase, PhaseRunning)
	c.dispatch(backend.RunRange(first, last))
	return nil
}

// RunSingleStep optimistically marks step running and dispatches it alone.
func (c *Controller) RunSingleStep(step steps.StepID) error {
	phase, ok := c.registry.PhaseOf(step)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stepStatus[step] = StepRunning
	c.waiting[step] = false
	c.touchLocked(phase)
	c.phaseStatus[phase] = PhaseRunning
	c.nextEnabled[phase] = false
	c.startPollingLocked(phase)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.dispatch(backend.RunStep(step))
	return nil
}

// ContinueFromStep runs step through the end of its phase. Steps before it
// keep their status.
func (c *Controller) ContinueFromStep(step steps.StepID) error {
	phase, ok := c.registry.PhaseOf(step)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	_, last, _ := c.registry.Range(phase)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for id := step; id <= last; id++ {
		c.stepStatus[id] = StepPending
		c.waiting[id] = false
	}
	c.stepStatus[step] = StepRunning
	c.touchLocked(phase)
	c.phaseStatus[phase] = PhaseRunning
	c.nextEnabled[phase] = false
	c.startPollingLocked(phase)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)

	c.dispatch(backend.RunRange(step, last))
	return nil
}

// PauseExecution asks the backend to pause without blocking the caller. An
// acknowledged pause flips every running step to paused at once; the phase
// status follows on the next poll.
func (c *Controller) PauseExecution() error {
	started := c.spawn(func() {
		resp, err := c.backend.Pause(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warn("pause request failed", logging.F("action", "pause"), logging.Err(err))
			}
			return
		}
		if !resp.OK() {
			c.logger.Warn("pause not acknowledged", logging.F("action", "pause"), logging.F("status", resp.Status))
			return
		}
		c.mu.Lock()
		changed := false
		for id, status := range c.stepStatus {
			if status == StepRunning {
				c.stepStatus[id] = StepPaused
				if phase, ok := c.registry.PhaseOf(id); ok {
					c.touchLocked(phase)
				}
				changed = true
			}
		}
		if !changed {
			c.mu.Unlock()
			return
		}
		snap := c.changedLocked()
		c.mu.Unlock()
		c.emit(snap)
	})
	if !started {
		return ErrClosed
	}
	return nil
}

// Next advances from a completed phase: the next orchestrated phase is
// started, the last one leads to the summary.
func (c *Controller) Next(phase steps.Phase) error {
	if !c.registry.IsOrchestrated(phase) {
		return fmt.Errorf("%w: %d", ErrNotOrchestrated, phase)
	}
	c.mu.Lock()
	enabled := c.nextEnabled[phase]
	c.mu.Unlock()
	if !enabled {
		return fmt.Errorf("%w: %d", ErrNextDisabled, phase)
	}
	next, ok := steps.Next(phase)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPhase, phase+1)
	}
	if err := c.GoToPhase(next); err != nil {
		return err
	}
	if c.registry.IsOrchestrated(next) {
		return c.StartPhase(next)
	}
	return nil
}

// LoadConfig reads the backend configuration and caches it.
func (c *Controller) LoadConfig(ctx context.Context) (map[string]string, error) {
	resp, err := c.backend.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("config_load returned status %q", resp.Status)
	}
	cfg := cloneConfig(resp.Config)
	c.mu.Lock()
	c.config = cloneConfig(cfg)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)
	return cfg, nil
}

// SaveConfigAndStart saves the configuration form and, once the backend
// accepts it, completes phase 1 and starts phase 2. Empty values are dropped
// and BASE_DIR is required.
func (c *Controller) SaveConfigAndStart(ctx context.Context, form map[string]string) error {
	cfg := make(map[string]string, len(form))
	for key, value := range form {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		cfg[key] = value
	}
	if cfg[ConfigBaseDir] == "" {
		return &ValidationError{Field: ConfigBaseDir, Message: "install directory is required"}
	}
	resp, err := c.backend.SaveConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if !resp.OK() {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: %s", ErrConfigRejected, msg)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.config = cloneConfig(cfg)
	c.phaseStatus[steps.PhaseConfig] = PhaseCompleted
	c.nextEnabled[steps.PhaseConfig] = true
	snap := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap)

	if c.journal != nil {
		c.spawn(func() {
			if err := c.journal.SaveConfig(c.ctx, cfg); err != nil {
				c.logger.Warn("journal config save failed", logging.Err(err))
			}
		})
	}
	c.record(steps.PhaseConfig, PhaseCompleted)
	if err := c.GoToPhase(steps.PhaseEnvCheck); err != nil {
		return err
	}
	return c.StartPhase(steps.PhaseEnvCheck)
}

// CheckTemp reports leftover files from a previous run.
func (c *Controller) CheckTemp(ctx context.Context) (*backend.TempFilesResponse, error) {
	resp, err := c.backend.CheckTemp(ctx)
	if err != nil {
		c.logger.Warn("temp file check failed", logging.F("action", "check_temp"), logging.Err(err))
		return nil, err
	}
	return resp, nil
}

func (c *Controller) CleanTemp(ctx context.Context) error {
	if err := c.backend.CleanTemp(ctx); err != nil {
		c.logger.Warn("temp file cleanup failed", logging.F("action", "clean_temp"), logging.Err(err))
		return err
	}
	c.logger.Info("temp files cleaned")
	return nil
}

func (c *Controller) dispatch(cmd backend.Command) {
	c.spawn(func() {
		if err := c.backend.Dispatch(c.ctx, cmd); err != nil && c.ctx.Err() == nil {
			c.logger.Warn("dispatch failed",
				logging.F("action", cmd.Action()),
				logging.F("command", cmd.String()),
				logging.Err(err),
			)
		}
	})
}

func (c *Controller) record(phase steps.Phase, status PhaseStatus) {
	if c.journal == nil {
		return
	}
	rec := PhaseRecord{SessionID: c.sessionID, Phase: phase, Status: status, At: c.now().UTC()}
	c.spawn(func() {
		if err := c.journal.RecordPhase(c.ctx, rec); err != nil && c.ctx.Err() == nil {
			c.logger.Warn("journal write failed", logging.F("phase", int(phase)), logging.Err(err))
		}
	})
}

// spawn runs fn on a goroutine tracked by Close. It reports false, and
// runs nothing, once the controller is closed. It must not be called with
// mu held.
func (c *Controller) spawn(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		fn()
	}()
	return true
}

func (c *Controller) touchLocked(phase steps.Phase) {
	c.revision[phase]++
}

func (c *Controller) emit(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func (c *Controller) emitLog(update LogUpdate) {
	c.mu.Lock()
	c.logSeq++
	event := LogEvent{Seq: c.logSeq, Update: update}
	c.mu.Unlock()
	if c.onLog != nil {
		c.onLog(event)
	}
}

// changedLocked bumps the version and returns the new snapshot.
func (c *Controller) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version: c.version,
		Current: c.current,
		Config:  cloneConfig(c.config),
	}
	if c.polling != nil {
		snap.Polling = c.polling.phase
	}
	if c.summary != nil {
		summary := *c.summary
		snap.Summary = &summary
	}
	phases := append([]steps.Phase{steps.PhaseConfig}, c.registry.Phases()...)
	phases = append(phases, steps.PhaseSummary)
	for _, phase := range phases {
		state := PhaseState{
			Phase:       phase,
			Name:        c.registry.Name(phase),
			Status:      c.phaseStatusLocked(phase),
			NextEnabled: c.nextEnabled[phase],
		}
		for _, id := range c.registry.Steps(phase) {
			status := c.stepStatus[id]
			state.Steps = append(state.Steps, StepState{
				ID:      id,
				Label:   c.registry.Label(id),
				Status:  status,
				Waiting: c.waiting[id],
				View:    ViewStep(status),
			})
		}
		snap.Phases = append(snap.Phases, state)
	}
	return snap
}

func (c *Controller) phaseStatusLocked(phase steps.Phase) PhaseStatus {
	if status, ok := c.phaseStatus[phase]; ok {
		return status
	}
	return PhaseNotStarted
}

func cloneConfig(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
