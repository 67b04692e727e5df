package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stinstaller/internal/steps"
)

func newHistoryCommand(w commandWiring) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded phase transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveFormat(format, formatText, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			repo, err := w.openJournal()
			if err != nil {
				return err
			}
			defer repo.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			events, err := repo.PhaseEvents().List(ctx, limit)
			if err != nil {
				return err
			}
			if resolved != formatText {
				return writeStructured(w.stdout, resolved, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(w.stdout, "no recorded phases")
				return nil
			}
			writer := tabwriter.NewWriter(w.stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(writer, "AT\tSESSION\tPHASE\tSTATUS")
			for _, event := range events {
				fmt.Fprintf(writer, "%s\t%s\t%d %s\t%s\n",
					event.At.Local().Format(time.DateTime),
					event.SessionID,
					event.Phase,
					w.registry.Name(steps.Phase(event.Phase)),
					event.Status,
				)
			}
			return writer.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many recent entries (0 for all)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|json|yaml")
	return cmd
}

func newVersionCommand(w commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(w.stdout, w.version)
		},
	}
}
