package wizard

import (
	"context"
	"sync/atomic"
	"time"

	"stinstaller/internal/backend"
	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
)

// pollSession is one poller/tailer pair. Cancelling ctx stops both loops
// and every call they issued.
type pollSession struct {
	generation uint64
	phase      steps.Phase
	ctx        context.Context
	cancel     context.CancelFunc

	statusSeq atomic.Uint64
	logSeq    atomic.Uint64
	// Guarded by Controller.mu.
	statusApplied uint64
	logApplied    uint64
}

// startPollingLocked replaces any running pair with a new one for phase.
func (c *Controller) startPollingLocked(phase steps.Phase) {
	c.stopPollingLocked()
	c.generation++
	ctx, cancel := context.WithCancel(c.ctx)
	session := &pollSession{
		generation: c.generation,
		phase:      phase,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.polling = session
	c.wg.Add(2)
	go c.tick(session, c.pollStatus)
	go c.tick(session, c.pollLog)
}

func (c *Controller) stopPollingLocked() {
	if c.polling == nil {
		return
	}
	c.polling.cancel()
	c.polling = nil
}

// tick fires fn immediately and then on every interval until the session
// ends. Each call runs on its own goroutine so a hung request never delays
// the next tick.
func (c *Controller) tick(s *pollSession, fn func(*pollSession)) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if s.ctx.Err() != nil {
			return
		}
		c.spawn(func() { fn(s) })
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) pollStatus(s *pollSession) {
	seq := s.statusSeq.Add(1)
	resp, err := c.backend.Status(s.ctx)
	if err != nil {
		if s.ctx.Err() == nil {
			c.logger.Warn("status poll failed", logging.F("phase", int(s.phase)), logging.Err(err))
		}
		return
	}
	c.applyPoll(s, seq, resp)
}

func (c *Controller) pollLog(s *pollSession) {
	seq := s.logSeq.Add(1)
	text, err := c.logSource.Log(s.ctx, c.tailer.Lines())
	if s.ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	if c.polling != s || seq <= s.logApplied {
		c.mu.Unlock()
		return
	}
	s.logApplied = seq
	var (
		update  LogUpdate
		changed = true
	)
	if err != nil {
		update = c.tailer.Fail(err)
	} else {
		update, changed = c.tailer.Apply(text)
	}
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("log fetch failed", logging.F("phase", int(s.phase)), logging.Err(err))
	}
	if changed {
		c.emitLog(update)
	}
}

// applyPoll reconciles a poll response unless it belongs to a superseded
// session or is older than one already applied.
func (c *Controller) applyPoll(s *pollSession, seq uint64, resp *backend.StatusResponse) {
	c.mu.Lock()
	if c.polling != s || seq <= s.statusApplied {
		c.mu.Unlock()
		return
	}
	s.statusApplied = seq
	c.touchLocked(s.phase)
	before := c.phaseStatusLocked(s.phase)
	unknown := c.overwriteLocked(s.phase, resp)
	outcome := Evaluate(c.statusesLocked(s.phase))
	c.phaseStatus[s.phase] = outcome.Status
	c.nextEnabled[s.phase] = outcome.Status == PhaseCompleted
	if outcome.StopPolling {
		c.stopPollingLocked()
	}
	snap := c.changedLocked()
	c.mu.Unlock()

	c.logUnknown(s.phase, unknown)
	c.emit(snap)
	c.afterReconcile(s.phase, before, outcome)
}

// refresh reconciles phase once, outside of any polling session. rev is
// the phase revision when the refresh was requested; the response is
// dropped if a poll or a local transition changed the phase since.
func (c *Controller) refresh(phase steps.Phase, rev uint64) {
	resp, err := c.backend.Status(c.ctx)
	if err != nil {
		if c.ctx.Err() == nil {
			c.logger.Warn("status refresh failed", logging.F("phase", int(phase)), logging.Err(err))
		}
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.revision[phase] != rev {
		c.mu.Unlock()
		c.logger.Debug("stale status refresh dropped", logging.F("phase", int(phase)))
		return
	}
	c.touchLocked(phase)
	before := c.phaseStatusLocked(phase)
	unknown := c.overwriteLocked(phase, resp)
	statuses := c.statusesLocked(phase)
	outcome := Evaluate(statuses)
	stopped := false
	switch {
	case outcome.Matched:
		c.phaseStatus[phase] = outcome.Status
		c.nextEnabled[phase] = outcome.Status == PhaseCompleted
		if outcome.StopPolling && c.polling != nil && c.polling.phase == phase {
			c.stopPollingLocked()
			stopped = true
		}
	case anyIs(StepRunning)(statuses):
		c.phaseStatus[phase] = PhaseRunning
		c.nextEnabled[phase] = false
	}
	snap := c.changedLocked()
	c.mu.Unlock()

	c.logUnknown(phase, unknown)
	c.emit(snap)
	outcome.StopPolling = stopped
	c.afterReconcile(phase, before, outcome)
}

// overwriteLocked copies every reported status of phase over local state.
// It returns the raw values it did not understand.
func (c *Controller) overwriteLocked(phase steps.Phase, resp *backend.StatusResponse) map[steps.StepID]string {
	reported := resp.StepStatuses()
	var unknown map[steps.StepID]string
	for _, id := range c.registry.Steps(phase) {
		raw, ok := reported[id]
		if !ok {
			continue
		}
		status, known := ParseStepStatus(raw)
		if !known {
			if unknown == nil {
				unknown = map[steps.StepID]string{}
			}
			unknown[id] = raw
			continue
		}
		c.stepStatus[id] = status
		c.waiting[id] = false
	}
	return unknown
}

func (c *Controller) statusesLocked(phase steps.Phase) []StepStatus {
	ids := c.registry.Steps(phase)
	out := make([]StepStatus, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.stepStatus[id])
	}
	return out
}

func (c *Controller) logUnknown(phase steps.Phase, unknown map[steps.StepID]string) {
	for id, raw := range unknown {
		c.logger.Warn("ignoring unknown step status",
			logging.F("phase", int(phase)),
			logging.F("step", int(id)),
			logging.F("status", raw),
		)
	}
}

// afterReconcile journals terminal transitions and flushes the log tail one
// last time once polling has stopped.
func (c *Controller) afterReconcile(phase steps.Phase, before PhaseStatus, outcome Outcome) {
	if outcome.Status != before && outcome.Status.Terminal() {
		c.logger.Info("phase finished",
			logging.F("phase", int(phase)),
			logging.F("status", string(outcome.Status)),
			logging.F("rule", outcome.Rule),
		)
		c.record(phase, outcome.Status)
	}
	if outcome.StopPolling {
		c.spawn(c.flushLog)
	}
}

func (c *Controller) flushLog() {
	text, err := c.logSource.Log(c.ctx, c.tailer.Lines())
	if c.ctx.Err() != nil {
		return
	}
	if err != nil {
		c.logger.Warn("final log fetch failed", logging.Err(err))
		c.emitLog(c.tailer.Fail(err))
		return
	}
	if update, changed := c.tailer.Apply(text); changed {
		c.emitLog(update)
	}
}
