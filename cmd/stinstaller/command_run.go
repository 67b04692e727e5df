package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"stinstaller/internal/backend"
	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
	"stinstaller/internal/wizard"
)

// runTarget is what a run command executes and what it waits on.
type runTarget struct {
	phase   steps.Phase
	step    steps.StepID
	single  bool
	command backend.Command
}

func newRunCommand(w commandWiring) *cobra.Command {
	var (
		phase   int
		step    int
		from    int
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a phase, a single step, or a phase from a given step",
		Example: `  stinstaller run --phase 2 --wait
  stinstaller run --step 9
  stinstaller run --from 10 --wait --timeout 30m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := resolveRunTarget(w.registry, cmd, phase, step, from)
			if err != nil {
				return err
			}
			s, err := w.session()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if !wait {
				dctx, dcancel := context.WithTimeout(ctx, requestTimeout)
				defer dcancel()
				if err := s.backend.Dispatch(dctx, target.command); err != nil {
					return err
				}
				fmt.Fprintf(w.stdout, "dispatched %s\n", target.command)
				return nil
			}
			return waitForRun(ctx, w, s, target)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&phase, "phase", 0, "run every step of phase 2, 3 or 4")
	flags.IntVar(&step, "step", 0, "run a single step")
	flags.IntVar(&from, "from", 0, "run from this step to the end of its phase")
	flags.BoolVar(&wait, "wait", false, "follow status and log until the run settles")
	flags.DurationVar(&timeout, "timeout", 0, "give up waiting after this long")
	cmd.MarkFlagsMutuallyExclusive("phase", "step", "from")
	cmd.MarkFlagsOneRequired("phase", "step", "from")
	return cmd
}

func resolveRunTarget(registry *steps.Registry, cmd *cobra.Command, phase, step, from int) (runTarget, error) {
	flags := cmd.Flags()
	switch {
	case flags.Changed("phase"):
		p := steps.Phase(phase)
		first, last, ok := registry.Range(p)
		if !ok {
			return runTarget{}, fmt.Errorf("%w: %d", wizard.ErrNotOrchestrated, phase)
		}
		return runTarget{phase: p, command: backend.RunRange(first, last)}, nil
	case flags.Changed("step"):
		id := steps.StepID(step)
		p, ok := registry.PhaseOf(id)
		if !ok {
			return runTarget{}, fmt.Errorf("%w: %d", wizard.ErrUnknownStep, step)
		}
		return runTarget{phase: p, step: id, single: true, command: backend.RunStep(id)}, nil
	case flags.Changed("from"):
		id := steps.StepID(from)
		p, ok := registry.PhaseOf(id)
		if !ok {
			return runTarget{}, fmt.Errorf("%w: %d", wizard.ErrUnknownStep, from)
		}
		_, last, _ := registry.Range(p)
		return runTarget{phase: p, step: id, command: backend.RunRange(id, last)}, nil
	}
	return runTarget{}, errors.New("one of --phase, --step or --from is required")
}

// start issues the target through the controller.
func (t runTarget) start(c *wizard.Controller) error {
	switch {
	case t.single:
		return c.RunSingleStep(t.step)
	case t.step != 0:
		return c.ContinueFromStep(t.step)
	default:
		return c.StartPhase(t.phase)
	}
}

// settled reports whether the run is over and how it ended.
func (t runTarget) settled(snap wizard.Snapshot) (bool, error) {
	var status wizard.PhaseStatus
	if t.single {
		step, ok := snap.Step(t.step)
		if !ok {
			return true, fmt.Errorf("%w: %d", wizard.ErrUnknownStep, t.step)
		}
		switch step.Status {
		case wizard.StepCompleted:
			status = wizard.PhaseCompleted
		case wizard.StepFailed:
			status = wizard.PhaseFailed
		case wizard.StepPaused:
			status = wizard.PhasePaused
		}
	} else if phase, ok := snap.Phase(t.phase); ok {
		status = phase.Status
	}
	switch status {
	case wizard.PhaseCompleted:
		return true, nil
	case wizard.PhaseFailed:
		return true, fmt.Errorf("%s failed", t.command)
	case wizard.PhasePaused:
		return true, fmt.Errorf("%s paused", t.command)
	}
	return false, nil
}

func waitForRun(ctx context.Context, w commandWiring, s *session, target runTarget) error {
	notify := make(chan struct{}, 1)
	out := &lockedWriter{w: w.stdout}
	progress := newStepPrinter(out, target.phase)
	logs := newLogPrinter(out)
	controller, err := wizard.New(wizard.Options{
		Registry: w.registry,
		Backend:  s.backend,
		Logger:   s.logger,
		Interval: s.cfg.PollInterval(),
		LogLines: s.cfg.LogLines(),
		OnChange: func(wizard.Snapshot) {
			select {
			case notify <- struct{}{}:
			default:
			}
		},
		OnLog: logs.OnLog,
	})
	if err != nil {
		return err
	}
	defer controller.Close()

	if err := target.start(controller); err != nil {
		return err
	}
	s.logger.Info("run dispatched", logging.F("command", target.command.String()))
	for {
		snap := controller.Snapshot()
		progress.Print(snap)
		if done, runErr := target.settled(snap); done {
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
			logs.Flush(fctx, s.backend, s.cfg.LogLines())
			cancel()
			return runErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}

// stepPrinter writes a line whenever a step of phase changes status.
type stepPrinter struct {
	out   io.Writer
	phase steps.Phase
	seen  map[steps.StepID]wizard.StepStatus
}

func newStepPrinter(out io.Writer, phase steps.Phase) *stepPrinter {
	return &stepPrinter{out: out, phase: phase, seen: map[steps.StepID]wizard.StepStatus{}}
}

func (p *stepPrinter) Print(snap wizard.Snapshot) {
	state, ok := snap.Phase(p.phase)
	if !ok {
		return
	}
	for _, step := range state.Steps {
		if step.Status == wizard.StepPending || step.Status == wizard.StepUnknown || p.seen[step.ID] == step.Status {
			continue
		}
		p.seen[step.ID] = step.Status
		fmt.Fprintf(p.out, "%s %2d %s\n", stepMarker(step.Status), step.ID, step.Label)
	}
}

func stepMarker(status wizard.StepStatus) string {
	switch status {
	case wizard.StepRunning:
		return "[->]"
	case wizard.StepCompleted:
		return "[ok]"
	case wizard.StepFailed:
		return "[x] "
	case wizard.StepPaused:
		return "[||]"
	default:
		return "[..]"
	}
}

// logPrinter writes only the log lines not printed yet. Events may arrive
// out of order; older ones are dropped.
type logPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	seq   uint64
	lines []string
}

func newLogPrinter(out io.Writer) *logPrinter {
	return &logPrinter{out: out}
}

func (p *logPrinter) OnLog(ev wizard.LogEvent) {
	if ev.Update.Err != nil || len(ev.Update.Lines) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Seq != 0 && ev.Seq <= p.seq {
		return
	}
	p.seq = ev.Seq
	p.write(ev.Update)
}

// Flush fetches the tail once more so output that landed after the last
// poll is not lost.
func (p *logPrinter) Flush(ctx context.Context, src backend.Querier, lines int) {
	update, _ := wizard.NewLogTailer(lines).Fetch(ctx, wizard.LogFrom(src))
	if update.Err != nil || len(update.Lines) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(update)
}

func (p *logPrinter) write(update wizard.LogUpdate) {
	next := make([]string, 0, len(update.Lines))
	for _, line := range update.Lines {
		next = append(next, line.Text)
	}
	fresh := newLines(p.lines, next)
	p.lines = next
	if len(fresh) > 0 {
		fmt.Fprintln(p.out, strings.Join(fresh, "\n"))
	}
}
