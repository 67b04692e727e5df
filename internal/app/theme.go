package app

import (
	"github.com/charmbracelet/lipgloss"

	"stinstaller/internal/wizard"
)

var (
	headerStyle              = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle                = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle              = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusErrorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	navStyle                 = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	navActiveStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236")).Bold(true)
	selectedStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	dividerStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	actionHintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	formLabelStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	confirmDialogBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("208")).Padding(0, 1)
	alertDialogBorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("160")).Padding(0, 1)

	badgeRunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("25")).Bold(true).Padding(0, 1)
	badgeCompletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true).Padding(0, 1)
	badgeFailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true).Padding(0, 1)
	badgePausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true).Padding(0, 1)

	stepPendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stepRunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	stepCompletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	stepFailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	stepPausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))

	logErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	logWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	logSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	logDebugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
)

func badgeStyle(status wizard.PhaseStatus) (lipgloss.Style, bool) {
	switch status {
	case wizard.PhaseRunning:
		return badgeRunningStyle, true
	case wizard.PhaseCompleted:
		return badgeCompletedStyle, true
	case wizard.PhaseFailed:
		return badgeFailedStyle, true
	case wizard.PhasePaused:
		return badgePausedStyle, true
	}
	return lipgloss.Style{}, false
}

func stepStyle(status wizard.StepStatus) lipgloss.Style {
	switch status {
	case wizard.StepRunning:
		return stepRunningStyle
	case wizard.StepCompleted:
		return stepCompletedStyle
	case wizard.StepFailed:
		return stepFailedStyle
	case wizard.StepPaused:
		return stepPausedStyle
	default:
		return stepPendingStyle
	}
}

func logStyle(severity wizard.Severity) (lipgloss.Style, bool) {
	switch severity {
	case wizard.SeverityError:
		return logErrorStyle, true
	case wizard.SeverityWarn:
		return logWarnStyle, true
	case wizard.SeveritySuccess:
		return logSuccessStyle, true
	case wizard.SeverityDebug:
		return logDebugStyle, true
	}
	return lipgloss.Style{}, false
}
