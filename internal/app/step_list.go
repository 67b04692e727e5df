package app

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"stinstaller/internal/wizard"
)

const stepRowPrefixWidth = 10

// actionKeys maps step actions to the key that triggers them.
var actionKeys = map[wizard.Action]string{
	wizard.ActionRun:      "r",
	wizard.ActionRerun:    "r",
	wizard.ActionRetry:    "r",
	wizard.ActionContinue: "c",
	wizard.ActionResume:   "c",
	wizard.ActionPause:    "p",
}

func renderStepList(phase wizard.PhaseState, cursor, width int) string {
	if len(phase.Steps) == 0 {
		return helpStyle.Render("No steps.")
	}
	labelWidth := max(8, width-stepRowPrefixWidth-14)
	rows := make([]string, 0, len(phase.Steps))
	for i, step := range phase.Steps {
		icon := step.View.Icon
		if step.Waiting {
			icon = "⏳"
		}
		label := runewidth.Truncate(step.Label, labelWidth, "…")
		label = runewidth.FillRight(label, labelWidth)
		row := fmt.Sprintf("%s %3d  %s  %s", icon, step.ID, label, stepStyle(step.Status).Render(string(step.Status)))
		if i == cursor {
			row = selectedStyle.Render("› " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func renderActionHints(view wizard.StepView) string {
	if len(view.Actions) == 0 {
		return ""
	}
	hints := make([]string, 0, len(view.Actions))
	for _, action := range view.Actions {
		key, ok := actionKeys[action]
		if !ok {
			continue
		}
		hints = append(hints, actionHintStyle.Render("["+key+"]")+" "+action.Label())
	}
	return strings.Join(hints, "  ")
}
