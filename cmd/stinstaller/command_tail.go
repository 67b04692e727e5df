package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stinstaller/internal/logging"
	"stinstaller/internal/wizard"
)

func newTailCommand(w commandWiring) *cobra.Command {
	var (
		lines  int
		format string
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the backend log tail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveFormat(format, formatText, formatHTML)
			if err != nil {
				return err
			}
			if follow && resolved != formatText {
				return errors.New("--follow only supports text output")
			}
			s, err := w.session()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lines") {
				lines = s.cfg.LogLines()
			}
			tailer := wizard.NewLogTailer(lines)
			src := wizard.LogFrom(s.backend)
			if follow {
				ctx, cancel := signalContext(cmd.Context())
				defer cancel()
				return followLog(ctx, w, s, tailer, src)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			update, _ := tailer.Fetch(ctx, src)
			if update.Err != nil {
				return update.Err
			}
			if resolved == formatHTML {
				fmt.Fprintln(w.stdout, wizard.RenderHTML(update))
				return nil
			}
			fmt.Fprintln(w.stdout, update.PlainText())
			return nil
		},
	}
	cmd.Flags().IntVar(&lines, "lines", wizard.DefaultLogLines, "number of lines to fetch")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|html")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new lines until interrupted")
	return cmd
}

// followLog polls the tail on the configured interval and prints what is
// new. Fetch errors are logged and polling goes on.
func followLog(ctx context.Context, w commandWiring, s *session, tailer *wizard.LogTailer, src wizard.LogSource) error {
	printer := newLogPrinter(w.stdout)
	ticker := time.NewTicker(s.cfg.PollInterval())
	defer ticker.Stop()
	var seq uint64
	for {
		fctx, cancel := context.WithTimeout(ctx, requestTimeout)
		update, changed := tailer.Fetch(fctx, src)
		cancel()
		switch {
		case ctx.Err() != nil:
			return nil
		case update.Err != nil:
			s.logger.Warn("log fetch failed", logging.Err(update.Err))
		case changed:
			seq++
			printer.OnLog(wizard.LogEvent{Seq: seq, Update: update})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
