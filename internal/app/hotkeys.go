package app

import "stinstaller/internal/steps"

type HotkeyContext int

const (
	HotkeyGlobal HotkeyContext = iota
	HotkeyConfigForm
	HotkeySteps
	HotkeyDialog
)

type Hotkey struct {
	Key      string
	Label    string
	Context  HotkeyContext
	Priority int
}

type HotkeyResolver interface {
	ActiveContexts(*Model) []HotkeyContext
}

func DefaultHotkeys() []Hotkey {
	return []Hotkey{
		{Key: "tab/1-5", Label: "phase", Context: HotkeyGlobal, Priority: 10},
		{Key: "q", Label: "quit", Context: HotkeyGlobal, Priority: 90},
		{Key: "enter", Label: "save & start", Context: HotkeyConfigForm, Priority: 10},
		{Key: "↑/↓", Label: "field", Context: HotkeyConfigForm, Priority: 11},
		{Key: "esc", Label: "leave form", Context: HotkeyConfigForm, Priority: 12},
		{Key: "ctrl+c", Label: "quit", Context: HotkeyConfigForm, Priority: 90},
		{Key: "j/k/↑/↓", Label: "step", Context: HotkeySteps, Priority: 20},
		{Key: "r", Label: "run/retry", Context: HotkeySteps, Priority: 21},
		{Key: "c", Label: "continue", Context: HotkeySteps, Priority: 22},
		{Key: "p", Label: "pause", Context: HotkeySteps, Priority: 23},
		{Key: "R", Label: "retry phase", Context: HotkeySteps, Priority: 24},
		{Key: "n", Label: "next", Context: HotkeySteps, Priority: 25},
		{Key: "pgup/pgdn", Label: "scroll log", Context: HotkeySteps, Priority: 30},
		{Key: "y", Label: "copy log", Context: HotkeySteps, Priority: 31},
		{Key: "y/n", Label: "answer", Context: HotkeyDialog, Priority: 10},
		{Key: "enter", Label: "choose", Context: HotkeyDialog, Priority: 11},
		{Key: "esc", Label: "cancel", Context: HotkeyDialog, Priority: 12},
	}
}

type DefaultHotkeyResolver struct{}

func (r DefaultHotkeyResolver) ActiveContexts(m *Model) []HotkeyContext {
	if m == nil {
		return []HotkeyContext{HotkeyGlobal}
	}
	if m.confirm.IsOpen() || m.alert != nil {
		return []HotkeyContext{HotkeyDialog}
	}
	phase := m.snapshot.Current
	if phase == steps.PhaseConfig && m.form.Focused() {
		return []HotkeyContext{HotkeyConfigForm}
	}
	contexts := []HotkeyContext{HotkeyGlobal}
	if m.registry.IsOrchestrated(phase) {
		contexts = append(contexts, HotkeySteps)
	}
	return contexts
}
