package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"stinstaller/internal/app"
	"stinstaller/internal/backend"
	"stinstaller/internal/config"
	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
	"stinstaller/internal/store"
	"stinstaller/internal/wizard"
)

type fakeBackend struct {
	mu          sync.Mutex
	statuses    map[string]string
	log         string
	config      map[string]string
	saveStatus  string
	saved       map[string]string
	pauseStatus string
	dispatched  []backend.Command
	onDispatch  func(f *fakeBackend, cmd backend.Command)
}

func (f *fakeBackend) Dispatch(_ context.Context, cmd backend.Command) error {
	f.mu.Lock()
	f.dispatched = append(f.dispatched, cmd)
	hook := f.onDispatch
	f.mu.Unlock()
	if hook != nil {
		hook(f, cmd)
	}
	return nil
}

func (f *fakeBackend) setStatuses(statuses map[string]string, log string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = statuses
	f.log = log
}

func (f *fakeBackend) Status(context.Context) (*backend.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.statuses))
	for key, value := range f.statuses {
		out[key] = value
	}
	return &backend.StatusResponse{Steps: out}, nil
}

func (f *fakeBackend) Log(context.Context, int) (*backend.LogResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &backend.LogResponse{Log: f.log}, nil
}

func (f *fakeBackend) Pause(context.Context) (*backend.PauseResponse, error) {
	status := f.pauseStatus
	if status == "" {
		status = backend.StatusOK
	}
	return &backend.PauseResponse{Status: status}, nil
}

func (f *fakeBackend) LoadConfig(context.Context) (*backend.ConfigResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &backend.ConfigResponse{Status: backend.StatusOK, Config: f.config}, nil
}

func (f *fakeBackend) SaveConfig(_ context.Context, cfg map[string]string) (*backend.SaveConfigResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = cfg
	status := f.saveStatus
	if status == "" {
		status = backend.StatusOK
	}
	return &backend.SaveConfigResponse{Status: status}, nil
}

func (f *fakeBackend) CheckTemp(context.Context) (*backend.TempFilesResponse, error) {
	return &backend.TempFilesResponse{Status: "clean"}, nil
}

func (f *fakeBackend) CleanTemp(context.Context) error { return nil }

func (f *fakeBackend) Dispatched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.dispatched))
	for _, cmd := range f.dispatched {
		out = append(out, cmd.String())
	}
	return out
}

func testWiring(t *testing.T, fake *fakeBackend) (commandWiring, *bytes.Buffer) {
	t.Helper()
	t.Setenv("STINSTALLER_HOME", t.TempDir())
	stdout := &bytes.Buffer{}
	cfg := config.Default()
	cfg.Polling.Interval = "10ms"
	cfg.Logging.Level = "error"
	journalPath := filepath.Join(t.TempDir(), "journal.db")
	return commandWiring{
		stdout:   stdout,
		stderr:   &bytes.Buffer{},
		registry: steps.Default(),
		loadConfig: func() (config.Config, error) {
			return cfg, nil
		},
		newBackend: func(config.Config, logging.Logger) wizard.Backend {
			return fake
		},
		openJournal: func() (store.Repository, error) {
			return store.NewBboltRepository(journalPath)
		},
		openUILog: func(logging.Level) (logging.Logger, io.Closer, error) {
			return logging.Nop(), io.NopCloser(strings.NewReader("")), nil
		},
		runUI: func(app.Wizard, *app.Bridge, app.Options) error {
			return nil
		},
		version: "v-test",
	}, stdout
}

func execute(w commandWiring, args ...string) error {
	root := newRootCommand(w)
	root.SetArgs(args)
	return root.Execute()
}

func TestRunCommandDispatchesPhaseRange(t *testing.T) {
	fake := &fakeBackend{}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "run", "--phase", "3"); err != nil {
		t.Fatalf("expected run to succeed, got err=%v", err)
	}
	if got := fake.Dispatched(); len(got) != 1 || got[0] != "run_range(8,12)" {
		t.Fatalf("unexpected dispatches: %v", got)
	}
	if got := stdout.String(); got != "dispatched run_range(8,12)\n" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestRunCommandFromStepRunsToPhaseEnd(t *testing.T) {
	fake := &fakeBackend{}
	w, _ := testWiring(t, fake)

	if err := execute(w, "run", "--from", "14"); err != nil {
		t.Fatalf("expected run to succeed, got err=%v", err)
	}
	if got := fake.Dispatched(); len(got) != 1 || got[0] != "run_range(14,16)" {
		t.Fatalf("unexpected dispatches: %v", got)
	}
}

func TestRunCommandRejectsBadTargets(t *testing.T) {
	fake := &fakeBackend{}
	w, _ := testWiring(t, fake)

	cases := [][]string{
		{"run"},
		{"run", "--phase", "2", "--step", "3"},
		{"run", "--phase", "1"},
		{"run", "--step", "99"},
	}
	for _, args := range cases {
		if err := execute(w, args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
	if got := fake.Dispatched(); len(got) != 0 {
		t.Fatalf("expected no dispatch, got %v", got)
	}
}

func TestRunCommandWaitsForSingleStep(t *testing.T) {
	fake := &fakeBackend{
		onDispatch: func(f *fakeBackend, cmd backend.Command) {
			f.setStatuses(map[string]string{"9": "completed"}, "[INFO] fetching\n[SUCCESS] package fetched")
		},
	}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "run", "--step", "9", "--wait", "--timeout", "5s"); err != nil {
		t.Fatalf("expected run to succeed, got err=%v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "[ok]  9 Fetch and unpack SeaTunnel package") {
		t.Fatalf("expected completed step line, got %q", out)
	}
	if strings.Count(out, "[SUCCESS] package fetched") != 1 {
		t.Fatalf("expected log line printed once, got %q", out)
	}
	if got := fake.Dispatched(); len(got) != 1 || got[0] != "run_step(9)" {
		t.Fatalf("unexpected dispatches: %v", got)
	}
}

func TestRunCommandWaitReportsFailure(t *testing.T) {
	fake := &fakeBackend{
		onDispatch: func(f *fakeBackend, cmd backend.Command) {
			f.setStatuses(map[string]string{"1": "completed", "2": "failed"}, "[ERROR] java not found")
		},
	}
	w, stdout := testWiring(t, fake)

	err := execute(w, "run", "--phase", "2", "--wait", "--timeout", "5s")
	if err == nil || !strings.Contains(err.Error(), "run_range(1,7) failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	if !strings.Contains(stdout.String(), "[x]   2 Check Java runtime") {
		t.Fatalf("expected failed step line, got %q", stdout.String())
	}
}

func TestRunCommandWaitTimesOut(t *testing.T) {
	fake := &fakeBackend{}
	w, _ := testWiring(t, fake)

	start := time.Now()
	err := execute(w, "run", "--phase", "4", "--wait", "--timeout", "50ms")
	if err == nil || !strings.Contains(err.Error(), "deadline exceeded") {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("expected prompt timeout")
	}
}

func TestStatusCommandPrintsPhases(t *testing.T) {
	fake := &fakeBackend{statuses: map[string]string{
		"1": "completed", "2": "completed", "3": "completed", "4": "completed",
		"5": "completed", "6": "completed", "7": "completed",
		"8": "running", "9": "warming",
	}}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "status"); err != nil {
		t.Fatalf("expected status to succeed, got err=%v", err)
	}
	out := stdout.String()
	for _, want := range []string{"PHASE 2", "Environment check", "Check Java runtime", "warming", "not-started"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestStatusCommandJSONForOnePhase(t *testing.T) {
	fake := &fakeBackend{statuses: map[string]string{"8": "running", "9": "warming"}}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "status", "--phase", "3", "--format", "json"); err != nil {
		t.Fatalf("expected status to succeed, got err=%v", err)
	}
	var reports []phaseReport
	if err := json.Unmarshal(stdout.Bytes(), &reports); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(reports) != 1 || reports[0].Phase != 3 || reports[0].Status != "running" {
		t.Fatalf("unexpected reports: %#v", reports)
	}
	if reports[0].Steps[1].Status != "warming" || reports[0].Steps[2].Status != "pending" {
		t.Fatalf("unexpected steps: %#v", reports[0].Steps)
	}
}

func TestTailCommandHTML(t *testing.T) {
	fake := &fakeBackend{log: "[ERROR] <disk> full\\nplain"}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "tail", "--format", "html"); err != nil {
		t.Fatalf("expected tail to succeed, got err=%v", err)
	}
	want := "<span class=\"log-error\">[ERROR] &lt;disk&gt; full</span>\nplain\n"
	if got := stdout.String(); got != want {
		t.Fatalf("unexpected html: %q", got)
	}
}

func TestTailCommandRejectsHTMLFollow(t *testing.T) {
	w, _ := testWiring(t, &fakeBackend{})
	if err := execute(w, "tail", "--format", "html", "--follow"); err == nil {
		t.Fatalf("expected html follow to be rejected")
	}
}

func TestPauseCommandRequiresAck(t *testing.T) {
	fake := &fakeBackend{pauseStatus: "busy"}
	w, _ := testWiring(t, fake)

	err := execute(w, "pause")
	if err == nil || !strings.Contains(err.Error(), "not acknowledged") {
		t.Fatalf("expected unacknowledged pause error, got %v", err)
	}

	fake.pauseStatus = ""
	w, stdout := testWiring(t, fake)
	if err := execute(w, "pause"); err != nil {
		t.Fatalf("expected pause to succeed, got err=%v", err)
	}
	if stdout.String() != "pause acknowledged\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestConfigCommandYAML(t *testing.T) {
	w, stdout := testWiring(t, &fakeBackend{})

	if err := execute(w, "config", "--format", "yaml"); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	out := stdout.String()
	for _, want := range []string{"cgi-bin/run.sh", "interval: 10ms", "log_lines: 200", "follow_threshold: 3", "config_path:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestConfigCommandTOMLDefaults(t *testing.T) {
	w, stdout := testWiring(t, &fakeBackend{})

	if err := execute(w, "config", "--default", "--format", "toml"); err != nil {
		t.Fatalf("expected config to succeed, got err=%v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "[polling]") || !strings.Contains(out, "interval = ") || !strings.Contains(out, "2s") {
		t.Fatalf("expected default interval, got %q", out)
	}
}

func TestBackendConfigCommandMergesAndSaves(t *testing.T) {
	fake := &fakeBackend{config: map[string]string{"SEATUNNEL_VERSION": "2.3.12"}}
	w, stdout := testWiring(t, fake)

	if err := execute(w, "backend-config", "--set", "BASE_DIR=/opt/st"); err != nil {
		t.Fatalf("expected backend-config to succeed, got err=%v", err)
	}
	if fake.saved["BASE_DIR"] != "/opt/st" || fake.saved["SEATUNNEL_VERSION"] != "2.3.12" {
		t.Fatalf("unexpected saved config: %v", fake.saved)
	}
	if got := stdout.String(); got != "BASE_DIR=/opt/st\nSEATUNNEL_VERSION=2.3.12\n" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestBackendConfigCommandRejectsBadAssignment(t *testing.T) {
	fake := &fakeBackend{}
	w, _ := testWiring(t, fake)
	if err := execute(w, "backend-config", "--set", "novalue"); err == nil {
		t.Fatalf("expected invalid assignment error")
	}

	fake.saveStatus = "error"
	if err := execute(w, "backend-config", "--set", "BASE_DIR=/x"); err == nil {
		t.Fatalf("expected rejected save error")
	}
}

func TestHistoryCommandListsJournal(t *testing.T) {
	w, stdout := testWiring(t, &fakeBackend{})
	repo, err := w.openJournal()
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	_, err = repo.PhaseEvents().Append(context.Background(), &store.PhaseEvent{
		SessionID: "s-1",
		Phase:     2,
		Status:    "completed",
		At:        time.Now(),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	repo.Close()

	if err := execute(w, "history"); err != nil {
		t.Fatalf("expected history to succeed, got err=%v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "2 Environment check") || !strings.Contains(out, "completed") || !strings.Contains(out, "s-1") {
		t.Fatalf("unexpected history output %q", out)
	}
}

func TestUICommandSeedsControllerFromJournal(t *testing.T) {
	w, _ := testWiring(t, &fakeBackend{})
	repo, err := w.openJournal()
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if err := store.NewJournal(repo).SaveConfig(context.Background(), map[string]string{"BASE_DIR": "/opt/saved"}); err != nil {
		t.Fatalf("save config: %v", err)
	}
	repo.Close()

	var (
		called bool
		seen   wizard.Snapshot
		opts   app.Options
	)
	w.runUI = func(wz app.Wizard, bridge *app.Bridge, o app.Options) error {
		called = true
		seen = wz.Snapshot()
		opts = o
		if bridge == nil {
			t.Fatalf("expected a bridge")
		}
		return nil
	}
	if err := execute(w); err != nil {
		t.Fatalf("expected ui to succeed, got err=%v", err)
	}
	if !called {
		t.Fatalf("expected ui to run")
	}
	if seen.Current != steps.PhaseConfig || seen.Config["BASE_DIR"] != "/opt/saved" {
		t.Fatalf("unexpected initial snapshot: %#v", seen)
	}
	if opts.FollowThreshold != config.DefaultFollowThreshold {
		t.Fatalf("unexpected follow threshold %d", opts.FollowThreshold)
	}
}

func TestVersionCommand(t *testing.T) {
	w, stdout := testWiring(t, &fakeBackend{})
	if err := execute(w, "version"); err != nil {
		t.Fatalf("expected version to succeed, got err=%v", err)
	}
	if stdout.String() != "v-test\n" {
		t.Fatalf("unexpected version output %q", stdout.String())
	}
}

func TestNewLinesFindsOverlap(t *testing.T) {
	prev := []string{"a", "b", "c"}
	if got := newLines(prev, []string{"b", "c", "d", "e"}); strings.Join(got, ",") != "d,e" {
		t.Fatalf("unexpected new lines %v", got)
	}
	if got := newLines(prev, []string{"x", "y"}); strings.Join(got, ",") != "x,y" {
		t.Fatalf("expected unrelated tail to print in full, got %v", got)
	}
	if got := newLines(prev, prev); len(got) != 0 {
		t.Fatalf("expected nothing new, got %v", got)
	}
}
