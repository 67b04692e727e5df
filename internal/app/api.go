package app

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"stinstaller/internal/backend"
	"stinstaller/internal/steps"
	"stinstaller/internal/wizard"
)

// Wizard is the phase controller as the UI drives it.
type Wizard interface {
	Snapshot() wizard.Snapshot
	GoToPhase(phase steps.Phase) error
	StartPhase(phase steps.Phase) error
	RetryPhase(phase steps.Phase) error
	RunSingleStep(step steps.StepID) error
	ContinueFromStep(step steps.StepID) error
	PauseExecution() error
	Next(phase steps.Phase) error
	LoadConfig(ctx context.Context) (map[string]string, error)
	SaveConfigAndStart(ctx context.Context, form map[string]string) error
	CheckTemp(ctx context.Context) (*backend.TempFilesResponse, error)
	CleanTemp(ctx context.Context) error
}

// Bridge forwards controller events into a running program. Events that
// arrive before the program is attached are dropped; the model starts from
// the controller's current snapshot.
//
// Controller methods emit on the caller's goroutine, which for key handlers
// is the event loop itself, so every Send happens on its own goroutine.
// Snapshot versions and log sequence numbers let the model drop events that
// arrive out of order.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

func (b *Bridge) OnChange(snapshot wizard.Snapshot) {
	b.send(snapshotMsg{snapshot: snapshot})
}

func (b *Bridge) OnLog(event wizard.LogEvent) {
	b.send(logMsg{event: event})
}
