package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type confirmChoice int

const (
	confirmChoiceNone confirmChoice = iota
	confirmChoiceConfirm
	confirmChoiceCancel
)

const confirmMaxWidth = 60

// ConfirmController is a modal yes/no prompt.
type ConfirmController struct {
	active       bool
	title        string
	message      string
	confirmLabel string
	cancelLabel  string
	selected     int
}

func NewConfirmController() *ConfirmController {
	return &ConfirmController{}
}

func (c *ConfirmController) IsOpen() bool {
	return c != nil && c.active
}

func (c *ConfirmController) Open(title, message, confirmLabel, cancelLabel string) {
	if c == nil {
		return
	}
	if confirmLabel == "" {
		confirmLabel = "Confirm"
	}
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}
	*c = ConfirmController{
		active:       true,
		title:        strings.TrimSpace(title),
		message:      strings.TrimSpace(message),
		confirmLabel: confirmLabel,
		cancelLabel:  cancelLabel,
	}
}

func (c *ConfirmController) Close() {
	if c == nil {
		return
	}
	*c = ConfirmController{}
}

func (c *ConfirmController) HandleKey(msg tea.KeyMsg) (bool, confirmChoice) {
	if !c.IsOpen() {
		return false, confirmChoiceNone
	}
	switch msg.String() {
	case "esc", "n":
		return true, confirmChoiceCancel
	case "y":
		return true, confirmChoiceConfirm
	case "left", "h":
		c.selected = 0
	case "right", "l":
		c.selected = 1
	case "tab":
		c.selected = 1 - c.selected
	case "enter":
		if c.selected == 0 {
			return true, confirmChoiceConfirm
		}
		return true, confirmChoiceCancel
	default:
		return false, confirmChoiceNone
	}
	return true, confirmChoiceNone
}

func (c *ConfirmController) View(maxWidth int) string {
	if !c.IsOpen() {
		return ""
	}
	width := min(confirmMaxWidth, max(20, maxWidth-4))
	lines := []string{headerStyle.Render(c.title), ""}
	if c.message != "" {
		lines = append(lines, xansi.Wordwrap(c.message, width-4, " "), "")
	}
	confirm := "[ " + c.confirmLabel + " ]"
	cancel := "[ " + c.cancelLabel + " ]"
	if c.selected == 0 {
		confirm = selectedStyle.Render(confirm)
	} else {
		cancel = selectedStyle.Render(cancel)
	}
	lines = append(lines, confirm+"  "+cancel)
	return confirmDialogBorderStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// alertDialog is a blocking notice dismissed with enter or esc.
type alertDialog struct {
	title   string
	message string
}

func (a *alertDialog) View(maxWidth int) string {
	width := min(confirmMaxWidth, max(20, maxWidth-4))
	body := lipgloss.JoinVertical(lipgloss.Left,
		statusErrorStyle.Bold(true).Render(a.title),
		"",
		xansi.Wordwrap(a.message, width-4, " "),
		"",
		helpStyle.Render("enter/esc dismiss"),
	)
	return alertDialogBorderStyle.Width(width).Render(body)
}
