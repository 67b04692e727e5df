package wizard

import "strings"

// StepStatus is the backend-reported state of one step.
type StepStatus string

const (
	StepUnknown   StepStatus = "unknown"
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepPaused    StepStatus = "paused"
)

// ParseStepStatus maps a backend string onto a StepStatus. ok is false for
// values the console does not understand; those never overwrite local state.
func ParseStepStatus(raw string) (StepStatus, bool) {
	switch StepStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StepPending:
		return StepPending, true
	case StepRunning:
		return StepRunning, true
	case StepCompleted:
		return StepCompleted, true
	case StepFailed:
		return StepFailed, true
	case StepPaused:
		return StepPaused, true
	default:
		return StepUnknown, false
	}
}

// PhaseStatus is the aggregate state of a phase.
type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "not-started"
	PhaseRunning    PhaseStatus = "running"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseFailed     PhaseStatus = "failed"
	PhasePaused     PhaseStatus = "paused"
)

func (s PhaseStatus) Terminal() bool {
	switch s {
	case PhaseCompleted, PhaseFailed, PhasePaused:
		return true
	}
	return false
}

// phaseRule is one row of the reconciliation table. Rows are evaluated in
// order and the first match decides the phase status.
type phaseRule struct {
	name        string
	match       func(statuses []StepStatus) bool
	result      PhaseStatus
	stopPolling bool
}

// reconcileRules orders completion before failure before pause, so a phase
// whose last step completed is never flagged failed by a stale earlier step.
var reconcileRules = [...]phaseRule{
	{name: "last step completed", match: lastIs(StepCompleted), result: PhaseCompleted},
	{name: "any step failed", match: anyIs(StepFailed), result: PhaseFailed, stopPolling: true},
	{name: "any step paused", match: anyIs(StepPaused), result: PhasePaused, stopPolling: true},
}

// Outcome is the result of evaluating a phase's step statuses.
type Outcome struct {
	Status      PhaseStatus
	StopPolling bool
	Rule        string
	Matched     bool
}

// Evaluate applies the reconciliation table to the ordered statuses of one
// phase. With no matching row the phase is still running.
func Evaluate(statuses []StepStatus) Outcome {
	for _, rule := range reconcileRules {
		if rule.match(statuses) {
			return Outcome{Status: rule.result, StopPolling: rule.stopPolling, Rule: rule.name, Matched: true}
		}
	}
	return Outcome{Status: PhaseRunning, Rule: "in progress"}
}

// Aggregate is the phase status of a one-off report, without any local
// history: a matched rule wins, untouched phases are not started and
// anything else is in progress.
func Aggregate(statuses []StepStatus) PhaseStatus {
	if outcome := Evaluate(statuses); outcome.Matched {
		return outcome.Status
	}
	for _, status := range statuses {
		if status != StepPending && status != StepUnknown {
			return PhaseRunning
		}
	}
	return PhaseNotStarted
}

func lastIs(want StepStatus) func([]StepStatus) bool {
	return func(statuses []StepStatus) bool {
		return len(statuses) > 0 && statuses[len(statuses)-1] == want
	}
}

func anyIs(want StepStatus) func([]StepStatus) bool {
	return func(statuses []StepStatus) bool {
		for _, status := range statuses {
			if status == want {
				return true
			}
		}
		return false
	}
}
