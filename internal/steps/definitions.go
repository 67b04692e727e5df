package steps

func InstallPhaseDefinitions() []PhaseDef {
	return []PhaseDef{
		{
			Phase: PhaseEnvCheck,
			Name:  "Environment check",
			Steps: []StepDef{
				{ID: 1, Label: "Check operating system and architecture"},
				{ID: 2, Label: "Check Java runtime"},
				{ID: 3, Label: "Check SSH connectivity to nodes"},
				{ID: 4, Label: "Check disk space"},
				{ID: 5, Label: "Check memory"},
				{ID: 6, Label: "Check port availability"},
				{ID: 7, Label: "Check firewall rules"},
			},
		},
		{
			Phase: PhaseInstall,
			Name:  "Install & deploy",
			Steps: []StepDef{
				{ID: 8, Label: "Prepare installation directory"},
				{ID: 9, Label: "Fetch and unpack SeaTunnel package"},
				{ID: 10, Label: "Install connector plugins"},
				{ID: 11, Label: "Generate cluster configuration"},
				{ID: 12, Label: "Configure checkpoint storage"},
			},
		},
		{
			Phase: PhaseDistribute,
			Name:  "Distribute & start",
			Steps: []StepDef{
				{ID: 13, Label: "Distribute package to nodes"},
				{ID: 14, Label: "Install systemd services"},
				{ID: 15, Label: "Start cluster services"},
				{ID: 16, Label: "Verify cluster health"},
			},
		},
	}
}

// Default is the registry of the SeaTunnel install flow.
func Default() *Registry {
	return MustRegistry(InstallPhaseDefinitions())
}

// Next returns the phase the wizard moves to after phase, if any.
func Next(phase Phase) (Phase, bool) {
	if phase < PhaseConfig || phase >= PhaseSummary {
		return 0, false
	}
	return phase + 1, true
}
