package wizard

import "stinstaller/internal/steps"

// StepState is one step row as the controller currently sees it.
type StepState struct {
	ID     steps.StepID
	Label  string
	Status StepStatus
	// Waiting marks a row reset by a phase retry and not yet reported on.
	Waiting bool
	View    StepView
}

type PhaseState struct {
	Phase       steps.Phase
	Name        string
	Status      PhaseStatus
	NextEnabled bool
	Steps       []StepState
}

func (p PhaseState) Badge() string {
	return BadgeText(p.Status)
}

// Snapshot is an immutable copy of controller state. Version increases with
// every change so consumers can drop snapshots that arrive out of order.
type Snapshot struct {
	Version uint64
	Current steps.Phase
	// Polling is the phase being polled, or 0.
	Polling steps.Phase
	Phases  []PhaseState
	Config  map[string]string
	Summary *Summary
}

func (s Snapshot) Phase(phase steps.Phase) (PhaseState, bool) {
	for _, p := range s.Phases {
		if p.Phase == phase {
			return p, true
		}
	}
	return PhaseState{}, false
}

func (s Snapshot) Step(id steps.StepID) (StepState, bool) {
	for _, p := range s.Phases {
		for _, step := range p.Steps {
			if step.ID == id {
				return step, true
			}
		}
	}
	return StepState{}, false
}

// LogEvent carries a log update with its delivery order.
type LogEvent struct {
	Seq    uint64
	Update LogUpdate
}
