package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stinstaller/internal/backend"
	"stinstaller/internal/steps"
	"stinstaller/internal/wizard"
)

type phaseReport struct {
	Phase  int          `json:"phase" yaml:"phase"`
	Name   string       `json:"name" yaml:"name"`
	Status string       `json:"status" yaml:"status"`
	Steps  []stepReport `json:"steps" yaml:"steps"`
}

type stepReport struct {
	ID     int    `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Status string `json:"status" yaml:"status"`
}

func newStatusCommand(w commandWiring) *cobra.Command {
	var (
		phase  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend-reported step statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveFormat(format, formatText, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			phases := w.registry.Phases()
			if cmd.Flags().Changed("phase") {
				if !w.registry.IsOrchestrated(steps.Phase(phase)) {
					return fmt.Errorf("%w: %d", wizard.ErrNotOrchestrated, phase)
				}
				phases = []steps.Phase{steps.Phase(phase)}
			}
			s, err := w.session()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			resp, err := s.backend.Status(ctx)
			if err != nil {
				return err
			}
			reports := buildReports(w.registry, phases, resp)
			if resolved == formatText {
				printReports(w.stdout, reports)
				return nil
			}
			return writeStructured(w.stdout, resolved, reports)
		},
	}
	cmd.Flags().IntVar(&phase, "phase", 0, "only show this phase")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|json|yaml")
	return cmd
}

// buildReports lays the reported statuses over the registry. Steps the
// backend did not report, or reported in a form the console does not
// understand, count as pending for the phase status.
func buildReports(registry *steps.Registry, phases []steps.Phase, resp *backend.StatusResponse) []phaseReport {
	reported := resp.StepStatuses()
	out := make([]phaseReport, 0, len(phases))
	for _, phase := range phases {
		report := phaseReport{Phase: int(phase), Name: registry.Name(phase)}
		ids := registry.Steps(phase)
		statuses := make([]wizard.StepStatus, 0, len(ids))
		for _, id := range ids {
			raw, ok := reported[id]
			status, known := wizard.ParseStepStatus(raw)
			label := string(status)
			switch {
			case !ok:
				status, label = wizard.StepPending, string(wizard.StepPending)
			case !known:
				status, label = wizard.StepPending, raw
			}
			statuses = append(statuses, status)
			report.Steps = append(report.Steps, stepReport{ID: int(id), Label: registry.Label(id), Status: label})
		}
		report.Status = string(wizard.Aggregate(statuses))
		out = append(out, report)
	}
	return out
}

func printReports(out io.Writer, reports []phaseReport) {
	writer := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(writer)
		}
		fmt.Fprintf(writer, "PHASE %d\t%s\t%s\n", report.Phase, report.Name, report.Status)
		for _, step := range report.Steps {
			fmt.Fprintf(writer, "  %d\t%s\t%s\n", step.ID, step.Label, step.Status)
		}
	}
	_ = writer.Flush()
}

func newPauseCommand(w commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Ask the backend to pause the running step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := w.session()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			resp, err := s.backend.Pause(ctx)
			if err != nil {
				return err
			}
			if !resp.OK() {
				return fmt.Errorf("pause not acknowledged (status %q)", resp.Status)
			}
			fmt.Fprintln(w.stdout, "pause acknowledged")
			return nil
		},
	}
}
