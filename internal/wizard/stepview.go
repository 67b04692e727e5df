package wizard

// Action is a user affordance offered on a step row.
type Action string

const (
	ActionRun      Action = "run"
	ActionContinue Action = "continue"
	ActionPause    Action = "pause"
	ActionRerun    Action = "rerun"
	ActionRetry    Action = "retry"
	ActionResume   Action = "resume"
)

func (a Action) Label() string {
	switch a {
	case ActionRun:
		return "Run"
	case ActionContinue:
		return "Continue from here"
	case ActionPause:
		return "Pause"
	case ActionRerun:
		return "Re-run"
	case ActionRetry:
		return "Retry"
	case ActionResume:
		return "Resume"
	default:
		return string(a)
	}
}

// StepView is everything a renderer needs for one step row. It is derived
// entirely from the status and holds no state of its own.
type StepView struct {
	Status   StepStatus
	Icon     string
	RowClass string
	Actions  []Action
}

// ViewStep renders a status into icon, row class and contextual actions.
func ViewStep(status StepStatus) StepView {
	view := StepView{Status: status, RowClass: "status-" + string(status)}
	switch status {
	case StepPending:
		view.Icon = "⏳"
		view.Actions = []Action{ActionRun, ActionContinue}
	case StepRunning:
		view.Icon = "🔄"
		view.Actions = []Action{ActionPause}
	case StepCompleted:
		view.Icon = "✅"
		view.Actions = []Action{ActionRerun}
	case StepFailed:
		view.Icon = "❌"
		view.Actions = []Action{ActionRetry, ActionContinue}
	case StepPaused:
		view.Icon = "⏸"
		view.Actions = []Action{ActionResume}
	default:
		view.Icon = "⏳"
		view.RowClass = "status-" + string(StepUnknown)
	}
	return view
}

// Offers reports whether the view exposes action.
func (v StepView) Offers(action Action) bool {
	for _, a := range v.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// NavIcon is the navigation marker for a phase.
func NavIcon(status PhaseStatus) string {
	switch status {
	case PhaseRunning:
		return "🔄"
	case PhaseCompleted:
		return "✅"
	case PhaseFailed:
		return "❌"
	case PhasePaused:
		return "⏸"
	default:
		return ""
	}
}

// BadgeText is the phase badge label.
func BadgeText(status PhaseStatus) string {
	switch status {
	case PhaseRunning:
		return "Running"
	case PhaseCompleted:
		return "Completed"
	case PhaseFailed:
		return "Failed"
	case PhasePaused:
		return "Paused"
	default:
		return ""
	}
}
