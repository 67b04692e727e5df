package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
	"stinstaller/internal/wizard"
)

const (
	minWidth        = 40
	minLogHeight    = 3
	defaultWidth    = 100
	defaultHeight   = 32
	chromeLines     = 8
	stepLabelMargin = 2
)

type Options struct {
	Registry        *steps.Registry
	FollowThreshold int
	Logger          logging.Logger
}

type Model struct {
	wizard   Wizard
	registry *steps.Registry
	logger   logging.Logger

	snapshot wizard.Snapshot
	cursor   map[steps.Phase]int
	maxSteps int

	form    *configForm
	logs    *logPane
	confirm *ConfirmController
	alert   *alertDialog
	loader  spinner.Model
	hotkeys *HotkeyRenderer

	width  int
	height int

	status    string
	statusErr bool
	saving    bool
	pending   map[string]string
}

func NewModel(w Wizard, opts Options) Model {
	registry := opts.Registry
	if registry == nil {
		registry = steps.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	maxSteps := 0
	for _, phase := range registry.Phases() {
		maxSteps = max(maxSteps, len(registry.Steps(phase)))
	}
	loader := spinner.New()
	loader.Spinner = spinner.Line
	loader.Style = lipgloss.NewStyle()

	m := Model{
		wizard:   w,
		registry: registry,
		logger:   logger,
		snapshot: w.Snapshot(),
		cursor:   map[steps.Phase]int{},
		maxSteps: maxSteps,
		form:     newConfigForm(defaultWidth),
		confirm:  NewConfirmController(),
		loader:   loader,
		hotkeys:  NewHotkeyRenderer(DefaultHotkeys(), DefaultHotkeyResolver{}),
	}
	m.logs = newLogPane(defaultWidth, m.logHeight(defaultHeight), opts.FollowThreshold)
	if len(m.snapshot.Config) > 0 {
		m.form.SetValues(m.snapshot.Config)
	}
	if m.snapshot.Current != steps.PhaseConfig {
		m.form.Blur()
	}
	return m
}

// Run drives the UI until the user quits. Controller events reach the
// program through bridge.
func Run(w Wizard, bridge *Bridge, opts Options) error {
	model := NewModel(w, opts)
	_, err := runProgram(tea.NewProgram(&model, tea.WithAltScreen()), bridge)
	return err
}

func runProgram(p *tea.Program, bridge *Bridge) (tea.Model, error) {
	if bridge != nil {
		bridge.attach(p)
		defer bridge.attach(nil)
	}
	return p.Run()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(loadConfigCmd(m.wizard), m.loader.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case snapshotMsg:
		m.applySnapshot(msg.snapshot)
		return m, nil
	case logMsg:
		m.logs.Apply(msg.event)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	case configLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("config load failed", logging.Err(msg.err))
			m.setStatusError("could not load backend config: " + msg.err.Error())
			return m, nil
		}
		m.form.SetValues(msg.config)
		m.setStatus("backend configuration loaded")
		return m, nil
	case tempCheckedMsg:
		return m, m.onTempChecked(msg)
	case tempCleanedMsg:
		if msg.err != nil {
			m.setStatusError("cleanup failed: " + msg.err.Error())
		} else {
			m.setStatus("temporary files removed")
		}
		return m, saveConfigCmd(m.wizard, m.pending)
	case configSavedMsg:
		m.onConfigSaved(msg.err)
		return m, nil
	case logCopiedMsg:
		if msg.err != nil {
			m.setStatusError("copy failed: " + msg.err.Error())
			return m, nil
		}
		m.setStatus("log copied (" + msg.method.String() + " clipboard)")
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySnapshot(snapshot wizard.Snapshot) {
	if snapshot.Version < m.snapshot.Version {
		return
	}
	m.snapshot = snapshot
	if phase, ok := snapshot.Phase(snapshot.Current); ok {
		m.cursor[phase.Phase] = clampCursor(m.cursor[phase.Phase], len(phase.Steps))
	}
	if snapshot.Current != steps.PhaseConfig && m.form.Focused() {
		m.form.Blur()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if m.alert != nil {
		if key == "enter" || key == "esc" {
			m.alert = nil
		}
		return nil
	}
	if m.confirm.IsOpen() {
		handled, choice := m.confirm.HandleKey(msg)
		if !handled {
			return nil
		}
		switch choice {
		case confirmChoiceConfirm:
			m.confirm.Close()
			m.setStatus("removing temporary files…")
			return cleanTempCmd(m.wizard)
		case confirmChoiceCancel:
			m.confirm.Close()
			return saveConfigCmd(m.wizard, m.pending)
		}
		return nil
	}

	current := m.snapshot.Current
	if current == steps.PhaseConfig && m.form.Focused() {
		switch key {
		case "enter":
			return m.submitConfig()
		case "esc":
			m.form.Blur()
		case "up", "shift+tab":
			m.form.Move(-1)
		case "down", "tab":
			m.form.Move(1)
		default:
			return m.form.Update(msg)
		}
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "tab":
		m.goTo(cyclePhase(current, 1))
		return nil
	case "shift+tab":
		m.goTo(cyclePhase(current, -1))
		return nil
	case "1", "2", "3", "4", "5":
		m.goTo(steps.Phase(key[0] - '0'))
		return nil
	}

	if current == steps.PhaseConfig {
		if key == "enter" || key == "e" {
			m.form.Focus()
		}
		return nil
	}
	if !m.registry.IsOrchestrated(current) {
		return nil
	}
	return m.handleStepKey(key, current)
}

func (m *Model) handleStepKey(key string, phase steps.Phase) tea.Cmd {
	state, _ := m.snapshot.Phase(phase)
	switch key {
	case "up", "k":
		m.cursor[phase] = clampCursor(m.cursor[phase]-1, len(state.Steps))
	case "down", "j":
		m.cursor[phase] = clampCursor(m.cursor[phase]+1, len(state.Steps))
	case "pgup":
		m.logs.PageUp()
	case "pgdown":
		m.logs.PageDown()
	case "ctrl+u":
		m.logs.ScrollUp(3)
	case "ctrl+d":
		m.logs.ScrollDown(3)
	case "y":
		return copyLogCmd(m.logs.PlainText())
	case "R":
		m.report(m.wizard.RetryPhase(phase), "retrying "+m.registry.Name(phase))
	case "n":
		err := m.wizard.Next(phase)
		if errors.Is(err, wizard.ErrNextDisabled) {
			m.setStatusError("finish this phase before moving on")
			return nil
		}
		m.report(err, "")
	case "r", "c", "p":
		m.stepAction(key, state)
	}
	return nil
}

// stepAction runs the selected step's action bound to key.
func (m *Model) stepAction(key string, state wizard.PhaseState) {
	if len(state.Steps) == 0 {
		return
	}
	step := state.Steps[clampCursor(m.cursor[state.Phase], len(state.Steps))]
	for _, action := range step.View.Actions {
		if actionKeys[action] != key {
			continue
		}
		switch action {
		case wizard.ActionRun, wizard.ActionRerun, wizard.ActionRetry:
			m.report(m.wizard.RunSingleStep(step.ID), fmt.Sprintf("running step %d", step.ID))
		case wizard.ActionContinue, wizard.ActionResume:
			m.report(m.wizard.ContinueFromStep(step.ID), fmt.Sprintf("continuing from step %d", step.ID))
		case wizard.ActionPause:
			m.report(m.wizard.PauseExecution(), "pause requested")
		}
		return
	}
	if key == "p" && state.Status == wizard.PhaseRunning {
		m.report(m.wizard.PauseExecution(), "pause requested")
		return
	}
	m.setStatusError(fmt.Sprintf("step %d is %s", step.ID, step.Status))
}

func (m *Model) submitConfig() tea.Cmd {
	if m.saving {
		return nil
	}
	m.pending = m.form.Values()
	m.saving = true
	if strings.TrimSpace(m.pending[wizard.ConfigBaseDir]) == "" {
		return saveConfigCmd(m.wizard, m.pending)
	}
	m.setStatus("checking for leftover files…")
	return checkTempCmd(m.wizard)
}

func (m *Model) onTempChecked(msg tempCheckedMsg) tea.Cmd {
	if msg.err != nil {
		m.setStatusError("temp file check failed: " + msg.err.Error())
		return saveConfigCmd(m.wizard, m.pending)
	}
	if msg.resp != nil && msg.resp.Found() {
		files := msg.resp.FilesText()
		message := "Temporary files from a previous run were found."
		if files != "" {
			message += "\n\n" + files
		}
		m.confirm.Open("Clean up before installing?", message+"\n\nRemove them before starting?", "Remove", "Keep")
		return nil
	}
	m.setStatus("saving configuration…")
	return saveConfigCmd(m.wizard, m.pending)
}

func (m *Model) onConfigSaved(err error) {
	m.saving = false
	if err == nil {
		m.form.Blur()
		m.setStatus("configuration saved, environment check started")
		return
	}
	m.logger.Warn("config save failed", logging.Err(err))
	title := "Cannot start installation"
	if verr := wizard.AsValidationError(err); verr != nil {
		title = "Missing configuration"
	}
	m.alert = &alertDialog{title: title, message: err.Error()}
	m.setStatusError(err.Error())
}

func (m *Model) goTo(phase steps.Phase) {
	if err := m.wizard.GoToPhase(phase); err != nil {
		m.setStatusError(err.Error())
		return
	}
	m.status = ""
}

func (m *Model) report(err error, success string) {
	if err != nil {
		m.logger.Warn("action failed", logging.Err(err))
		m.setStatusError(err.Error())
		return
	}
	if success != "" {
		m.setStatus(success)
	}
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
}

func (m *Model) setStatusError(status string) {
	m.status = status
	m.statusErr = true
}

func (m *Model) resize(width, height int) {
	m.width = max(minWidth, width)
	m.height = height
	m.form.Resize(m.width)
	m.logs.Resize(m.width, m.logHeight(height))
}

func (m *Model) logHeight(height int) int {
	return max(minLogHeight, height-chromeLines-m.maxSteps)
}

func (m *Model) View() string {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}
	header := headerStyle.Render("SeaTunnel installer") + "  " + m.renderNav()
	var body string
	switch {
	case m.alert != nil:
		body = lipgloss.Place(width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.alert.View(width))
	case m.confirm.IsOpen():
		body = lipgloss.Place(width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.confirm.View(width))
	case m.snapshot.Current == steps.PhaseConfig:
		body = m.renderConfigPhase()
	case m.snapshot.Current == steps.PhaseSummary:
		body = m.renderSummary(width)
	default:
		body = m.renderStepPhase(width)
	}
	status := statusStyle.Render(m.status)
	if m.statusErr {
		status = statusErrorStyle.Render(m.status)
	}
	help := helpStyle.Render(m.hotkeys.Render(m, width))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, status, help)
}

func (m *Model) bodyHeight() int {
	if m.height == 0 {
		return defaultHeight - 4
	}
	return max(1, m.height-4)
}

func (m *Model) renderNav() string {
	parts := make([]string, 0, len(m.snapshot.Phases))
	for _, phase := range m.snapshot.Phases {
		label := fmt.Sprintf("%d %s", phase.Phase, phase.Name)
		if icon := wizard.NavIcon(phase.Status); icon != "" {
			label += " " + icon
		}
		if phase.Phase == m.snapshot.Current {
			parts = append(parts, navActiveStyle.Render(" "+label+" "))
			continue
		}
		parts = append(parts, navStyle.Render(" "+label+" "))
	}
	return strings.Join(parts, dividerStyle.Render("│"))
}

func (m *Model) renderConfigPhase() string {
	lines := []string{headerStyle.Render("Configuration")}
	if phase, ok := m.snapshot.Phase(steps.PhaseConfig); ok && phase.Status == wizard.PhaseCompleted {
		lines = append(lines, stepCompletedStyle.Render("Saved. Installation is under way."))
	}
	lines = append(lines, "", m.form.View())
	if !m.form.Focused() {
		lines = append(lines, helpStyle.Render("press enter to edit"))
	}
	if m.saving {
		lines = append(lines, m.loader.View()+" working…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderStepPhase(width int) string {
	state, ok := m.snapshot.Phase(m.snapshot.Current)
	if !ok {
		return ""
	}
	title := headerStyle.Render(state.Name)
	if style, ok := badgeStyle(state.Status); ok {
		badge := state.Badge()
		if state.Status == wizard.PhaseRunning {
			badge = m.loader.View() + " " + badge
		}
		title += " " + style.Render(badge)
	}
	if state.NextEnabled {
		title += "  " + actionHintStyle.Render("[n]") + " next"
	}
	cursor := clampCursor(m.cursor[state.Phase], len(state.Steps))
	hints := ""
	if len(state.Steps) > 0 {
		hints = renderActionHints(state.Steps[cursor].View)
	}
	list := renderStepList(state, cursor, width-stepLabelMargin)
	// Pad so the log pane does not jump between phases of different sizes.
	if pad := m.maxSteps - len(state.Steps); pad > 0 {
		list += strings.Repeat("\n", pad)
	}
	divider := dividerStyle.Render(strings.Repeat("─", max(1, width)))
	return lipgloss.JoinVertical(lipgloss.Left, title, list, hints, divider, m.logs.View())
}

func (m *Model) renderSummary(width int) string {
	summary := m.snapshot.Summary
	if summary == nil {
		built := wizard.BuildSummary(m.snapshot.Config)
		summary = &built
	}
	return renderMarkdown(summary.Markdown(), width)
}

func cyclePhase(current steps.Phase, delta int) steps.Phase {
	count := int(steps.PhaseSummary)
	next := (int(current)-1+delta+count)%count + 1
	return steps.Phase(next)
}

func clampCursor(cursor, count int) int {
	if count <= 0 || cursor < 0 {
		return 0
	}
	if cursor >= count {
		return count - 1
	}
	return cursor
}
