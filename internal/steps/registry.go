package steps

import (
	"fmt"
	"sort"
)

// Phase identifies one wizard stage. Phases 1 and 5 carry no steps.
type Phase int

const (
	PhaseConfig     Phase = 1
	PhaseEnvCheck   Phase = 2
	PhaseInstall    Phase = 3
	PhaseDistribute Phase = 4
	PhaseSummary    Phase = 5
)

// StepID is the backend's identifier for a unit of work.
type StepID int

type StepDef struct {
	ID    StepID
	Label string
}

type PhaseDef struct {
	Phase Phase
	Name  string
	Steps []StepDef
}

// Registry is the immutable phase -> ordered steps mapping.
type Registry struct {
	phases  []PhaseDef
	byPhase map[Phase]int
	owner   map[StepID]Phase
	labels  map[StepID]string
}

func NewRegistry(defs []PhaseDef) (*Registry, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}
	r := &Registry{
		phases:  make([]PhaseDef, 0, len(defs)),
		byPhase: make(map[Phase]int, len(defs)),
		owner:   map[StepID]Phase{},
		labels:  map[StepID]string{},
	}
	for _, def := range defs {
		copied := PhaseDef{Phase: def.Phase, Name: def.Name, Steps: append([]StepDef(nil), def.Steps...)}
		r.byPhase[def.Phase] = len(r.phases)
		r.phases = append(r.phases, copied)
		for _, step := range def.Steps {
			r.owner[step.ID] = def.Phase
			r.labels[step.ID] = step.Label
		}
	}
	return r, nil
}

// MustRegistry panics on invalid definitions. Intended for static tables.
func MustRegistry(defs []PhaseDef) *Registry {
	r, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return r
}

func Validate(defs []PhaseDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("empty phase definitions")
	}
	seenPhases := map[Phase]struct{}{}
	seenSteps := map[StepID]Phase{}
	ordered := make([]PhaseDef, len(defs))
	copy(ordered, defs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Phase < ordered[j].Phase })

	var prevLast StepID
	for i, def := range ordered {
		if _, ok := seenPhases[def.Phase]; ok {
			return fmt.Errorf("duplicate phase: %d", def.Phase)
		}
		seenPhases[def.Phase] = struct{}{}
		if len(def.Steps) == 0 {
			return fmt.Errorf("phase %d has no steps", def.Phase)
		}
		for j, step := range def.Steps {
			if step.ID <= 0 {
				return fmt.Errorf("phase %d step %d has invalid id %d", def.Phase, j, step.ID)
			}
			if step.Label == "" {
				return fmt.Errorf("step %d has empty label", step.ID)
			}
			if owner, ok := seenSteps[step.ID]; ok {
				return fmt.Errorf("step %d registered in phases %d and %d", step.ID, owner, def.Phase)
			}
			seenSteps[step.ID] = def.Phase
			if j > 0 && step.ID != def.Steps[j-1].ID+1 {
				return fmt.Errorf("phase %d steps are not contiguous at step %d", def.Phase, step.ID)
			}
		}
		first := def.Steps[0].ID
		if i > 0 && first <= prevLast {
			return fmt.Errorf("phase %d overlaps the previous phase at step %d", def.Phase, first)
		}
		prevLast = def.Steps[len(def.Steps)-1].ID
	}
	return nil
}

func (r *Registry) Phases() []Phase {
	out := make([]Phase, 0, len(r.phases))
	for _, def := range r.phases {
		out = append(out, def.Phase)
	}
	return out
}

// IsOrchestrated reports whether the phase has a step range.
func (r *Registry) IsOrchestrated(phase Phase) bool {
	_, ok := r.byPhase[phase]
	return ok
}

func (r *Registry) Steps(phase Phase) []StepID {
	idx, ok := r.byPhase[phase]
	if !ok {
		return nil
	}
	def := r.phases[idx]
	out := make([]StepID, 0, len(def.Steps))
	for _, step := range def.Steps {
		out = append(out, step.ID)
	}
	return out
}

func (r *Registry) Range(phase Phase) (first, last StepID, ok bool) {
	idx, ok := r.byPhase[phase]
	if !ok {
		return 0, 0, false
	}
	def := r.phases[idx]
	return def.Steps[0].ID, def.Steps[len(def.Steps)-1].ID, true
}

func (r *Registry) PhaseOf(step StepID) (Phase, bool) {
	phase, ok := r.owner[step]
	return phase, ok
}

func (r *Registry) Label(step StepID) string {
	if label, ok := r.labels[step]; ok {
		return label
	}
	return fmt.Sprintf("Step %d", step)
}

func (r *Registry) Name(phase Phase) string {
	switch phase {
	case PhaseConfig:
		return "Configuration"
	case PhaseSummary:
		return "Finished"
	}
	if idx, ok := r.byPhase[phase]; ok {
		return r.phases[idx].Name
	}
	return fmt.Sprintf("Phase %d", phase)
}
