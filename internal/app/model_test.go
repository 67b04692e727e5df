package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stinstaller/internal/backend"
	"stinstaller/internal/steps"
	"stinstaller/internal/wizard"
)

type fakeWizard struct {
	mu       sync.Mutex
	snapshot wizard.Snapshot
	calls    []string
	nextErr  error
	saveErr  error
	temp     *backend.TempFilesResponse
	tempErr  error
	saved    map[string]string
	cleaned  int
}

func (f *fakeWizard) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeWizard) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeWizard) Snapshot() wizard.Snapshot { return f.snapshot }

func (f *fakeWizard) GoToPhase(phase steps.Phase) error {
	f.record("goto:" + string(rune('0'+phase)))
	return nil
}

func (f *fakeWizard) StartPhase(phase steps.Phase) error {
	f.record("start:" + string(rune('0'+phase)))
	return nil
}

func (f *fakeWizard) RetryPhase(phase steps.Phase) error {
	f.record("retry:" + string(rune('0'+phase)))
	return nil
}

func (f *fakeWizard) RunSingleStep(step steps.StepID) error {
	f.record("run_single")
	return nil
}

func (f *fakeWizard) ContinueFromStep(step steps.StepID) error {
	f.record("continue")
	return nil
}

func (f *fakeWizard) PauseExecution() error {
	f.record("pause")
	return nil
}

func (f *fakeWizard) Next(phase steps.Phase) error {
	f.record("next")
	return f.nextErr
}

func (f *fakeWizard) LoadConfig(context.Context) (map[string]string, error) {
	return map[string]string{wizard.ConfigBaseDir: "/opt/st"}, nil
}

func (f *fakeWizard) SaveConfigAndStart(_ context.Context, form map[string]string) error {
	f.mu.Lock()
	f.saved = form
	f.mu.Unlock()
	if form[wizard.ConfigBaseDir] == "" {
		return &wizard.ValidationError{Field: wizard.ConfigBaseDir, Message: "is required"}
	}
	return f.saveErr
}

func (f *fakeWizard) CheckTemp(context.Context) (*backend.TempFilesResponse, error) {
	return f.temp, f.tempErr
}

func (f *fakeWizard) CleanTemp(context.Context) error {
	f.mu.Lock()
	f.cleaned++
	f.mu.Unlock()
	return nil
}

func testSnapshot(version uint64, current steps.Phase) wizard.Snapshot {
	registry := steps.Default()
	snap := wizard.Snapshot{Version: version, Current: current}
	snap.Phases = append(snap.Phases, wizard.PhaseState{Phase: steps.PhaseConfig, Name: registry.Name(steps.PhaseConfig)})
	for _, phase := range registry.Phases() {
		state := wizard.PhaseState{Phase: phase, Name: registry.Name(phase)}
		for _, id := range registry.Steps(phase) {
			state.Steps = append(state.Steps, wizard.StepState{
				ID:     id,
				Label:  registry.Label(id),
				Status: wizard.StepPending,
				View:   wizard.ViewStep(wizard.StepPending),
			})
		}
		snap.Phases = append(snap.Phases, state)
	}
	snap.Phases = append(snap.Phases, wizard.PhaseState{Phase: steps.PhaseSummary, Name: registry.Name(steps.PhaseSummary)})
	return snap
}

func newTestModel(w *fakeWizard) *Model {
	m := NewModel(w, Options{})
	m.resize(100, 40)
	return &m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelDropsOlderSnapshots(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(5, steps.PhaseEnvCheck)}
	m := newTestModel(w)

	m.Update(snapshotMsg{snapshot: testSnapshot(3, steps.PhaseInstall)})
	if m.snapshot.Current != steps.PhaseEnvCheck {
		t.Fatalf("expected older snapshot to be dropped, current=%d", m.snapshot.Current)
	}
	m.Update(snapshotMsg{snapshot: testSnapshot(6, steps.PhaseInstall)})
	if m.snapshot.Current != steps.PhaseInstall {
		t.Fatalf("expected newer snapshot to apply, current=%d", m.snapshot.Current)
	}
}

func TestModelRunKeyRunsSelectedStep(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseEnvCheck)}
	m := newTestModel(w)

	m.Update(runeKey("j"))
	m.Update(runeKey("r"))
	calls := w.Calls()
	if len(calls) != 1 || calls[0] != "run_single" {
		t.Fatalf("expected run_single, got %v", calls)
	}
	if m.status != "running step 2" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelPauseKeyNeedsRunningStep(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseEnvCheck)}
	m := newTestModel(w)

	m.Update(runeKey("p"))
	if len(w.Calls()) != 0 {
		t.Fatalf("expected no pause on a pending step, got %v", w.Calls())
	}
	if !m.statusErr {
		t.Fatalf("expected an error status")
	}

	snap := testSnapshot(2, steps.PhaseEnvCheck)
	snap.Phases[1].Status = wizard.PhaseRunning
	snap.Phases[1].Steps[0].Status = wizard.StepRunning
	snap.Phases[1].Steps[0].View = wizard.ViewStep(wizard.StepRunning)
	m.Update(snapshotMsg{snapshot: snap})
	m.Update(runeKey("p"))
	if calls := w.Calls(); len(calls) != 1 || calls[0] != "pause" {
		t.Fatalf("expected pause, got %v", calls)
	}
}

func TestModelNextDisabledShowsHint(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseEnvCheck), nextErr: wizard.ErrNextDisabled}
	m := newTestModel(w)

	m.Update(runeKey("n"))
	if !m.statusErr || !strings.Contains(m.status, "finish this phase") {
		t.Fatalf("unexpected status %q (err=%v)", m.status, m.statusErr)
	}
}

func TestModelNumberKeysNavigate(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseEnvCheck)}
	m := newTestModel(w)

	m.Update(runeKey("5"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	calls := w.Calls()
	if len(calls) != 2 || calls[0] != "goto:5" || calls[1] != "goto:3" {
		t.Fatalf("unexpected navigation calls %v", calls)
	}
}

func TestModelEmptyBaseDirRaisesAlert(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseConfig)}
	m := newTestModel(w)
	if !m.form.Focused() {
		t.Fatalf("expected config form to start focused")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	msg := cmd()
	if _, ok := msg.(configSavedMsg); !ok {
		t.Fatalf("expected configSavedMsg without a temp check, got %T", msg)
	}
	m.Update(msg)
	if m.alert == nil || m.alert.title != "Missing configuration" {
		t.Fatalf("expected missing configuration alert, got %#v", m.alert)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.alert != nil {
		t.Fatalf("expected enter to dismiss the alert")
	}
}

func TestModelTempFilesPromptCleansBeforeSave(t *testing.T) {
	w := &fakeWizard{
		snapshot: testSnapshot(1, steps.PhaseConfig),
		temp:     &backend.TempFilesResponse{Status: "found", Files: json.RawMessage(`["/tmp/a"]`)},
	}
	m := newTestModel(w)
	m.form.SetValues(map[string]string{wizard.ConfigBaseDir: "/opt/st"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()
	if _, ok := msg.(tempCheckedMsg); !ok {
		t.Fatalf("expected temp check first, got %T", msg)
	}
	m.Update(msg)
	if !m.confirm.IsOpen() {
		t.Fatalf("expected cleanup prompt")
	}
	if !strings.Contains(m.View(), "/tmp/a") {
		t.Fatalf("expected prompt to list leftover files")
	}

	_, cmd = m.Update(runeKey("y"))
	msg = cmd()
	if _, ok := msg.(tempCleanedMsg); !ok {
		t.Fatalf("expected cleanup, got %T", msg)
	}
	_, cmd = m.Update(msg)
	m.Update(cmd())
	if w.cleaned != 1 {
		t.Fatalf("expected one cleanup, got %d", w.cleaned)
	}
	if w.saved[wizard.ConfigBaseDir] != "/opt/st" {
		t.Fatalf("expected config to be saved, got %v", w.saved)
	}
	if m.saving || m.alert != nil {
		t.Fatalf("expected save to finish cleanly")
	}
}

func TestModelTempCheckFailureStillSaves(t *testing.T) {
	w := &fakeWizard{
		snapshot: testSnapshot(1, steps.PhaseConfig),
		tempErr:  errors.New("boom"),
	}
	m := newTestModel(w)
	m.form.SetValues(map[string]string{wizard.ConfigBaseDir: "/opt/st"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = m.Update(cmd())
	if cmd == nil {
		t.Fatalf("expected save after failed temp check")
	}
	if _, ok := cmd().(configSavedMsg); !ok {
		t.Fatalf("expected configSavedMsg")
	}
}

func TestModelLogMessagesReachPane(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseEnvCheck)}
	m := newTestModel(w)

	m.Update(logMsg{event: wizard.LogEvent{Seq: 1, Update: wizard.LogUpdate{Lines: wizard.ParseLog("[SUCCESS] java ok")}}})
	if !strings.Contains(m.logs.PlainText(), "java ok") {
		t.Fatalf("expected log text in pane, got %q", m.logs.PlainText())
	}
	if !strings.Contains(m.View(), "java ok") {
		t.Fatalf("expected log text in view")
	}
}

func TestModelCtrlCQuits(t *testing.T) {
	w := &fakeWizard{snapshot: testSnapshot(1, steps.PhaseConfig)}
	m := newTestModel(w)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestCyclePhaseWraps(t *testing.T) {
	if got := cyclePhase(steps.PhaseSummary, 1); got != steps.PhaseConfig {
		t.Fatalf("expected wrap to config, got %d", got)
	}
	if got := cyclePhase(steps.PhaseConfig, -1); got != steps.PhaseSummary {
		t.Fatalf("expected wrap to summary, got %d", got)
	}
}
