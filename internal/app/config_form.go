package app

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stinstaller/internal/app/sanitizer"
	"stinstaller/internal/wizard"
)

var configPlaceholders = map[string]string{
	wizard.ConfigBaseDir:     "/home/seatunnel/seatunnel-package",
	wizard.ConfigVersion:     "2.3.12",
	wizard.ConfigDeployMode:  "hybrid | separated",
	wizard.ConfigNodeIPs:     "10.0.0.1,10.0.0.2",
	wizard.ConfigInstallMode: "online | offline",
}

type formField struct {
	key   string
	input textinput.Model
}

// configForm edits the backend configuration before the install starts.
type configForm struct {
	fields  []formField
	focus   int
	focused bool
	width   int
}

func newConfigForm(width int) *configForm {
	f := &configForm{width: width}
	for _, key := range wizard.ConfigKeys {
		f.addField(key, "")
	}
	f.Focus()
	return f
}

func (f *configForm) addField(key, value string) {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = configPlaceholders[key]
	input.CharLimit = 512
	input.Width = max(10, f.width-24)
	input.SetValue(value)
	f.fields = append(f.fields, formField{key: key, input: input})
}

// SetValues fills the form from a loaded configuration. Keys the form does
// not know yet are appended in sorted order.
func (f *configForm) SetValues(cfg map[string]string) {
	known := map[string]int{}
	for i, field := range f.fields {
		known[field.key] = i
	}
	extra := make([]string, 0)
	for key := range cfg {
		if _, ok := known[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for key, i := range known {
		if value, ok := cfg[key]; ok {
			f.fields[i].input.SetValue(value)
		}
	}
	for _, key := range extra {
		f.addField(key, cfg[key])
	}
	f.applyFocus()
}

func (f *configForm) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.key] = sanitizer.Field(field.input.Value())
	}
	return out
}

func (f *configForm) Focused() bool {
	return f.focused
}

func (f *configForm) Focus() {
	f.focused = true
	f.applyFocus()
}

func (f *configForm) Blur() {
	f.focused = false
	f.applyFocus()
}

func (f *configForm) Move(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.applyFocus()
}

func (f *configForm) applyFocus() {
	for i := range f.fields {
		if f.focused && i == f.focus {
			f.fields[i].input.Focus()
			continue
		}
		f.fields[i].input.Blur()
	}
}

func (f *configForm) Resize(width int) {
	f.width = width
	for i := range f.fields {
		f.fields[i].input.Width = max(10, width-24)
	}
}

// Update routes text editing keys to the focused input.
func (f *configForm) Update(msg tea.Msg) tea.Cmd {
	if !f.focused || len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *configForm) View() string {
	lines := make([]string, 0, len(f.fields)+2)
	for i, field := range f.fields {
		label := formLabelStyle.Render(padRight(field.key, 20))
		marker := "  "
		if f.focused && i == f.focus {
			marker = actionHintStyle.Render("> ")
		}
		lines = append(lines, marker+label+field.input.View())
	}
	lines = append(lines, "", helpStyle.Render("enter save & start  ↑/↓ field  esc leave form"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func padRight(text string, width int) string {
	if len(text) >= width {
		return text + " "
	}
	return text + strings.Repeat(" ", width-len(text))
}
