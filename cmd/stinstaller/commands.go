package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"stinstaller/internal/app"
	"stinstaller/internal/backend"
	"stinstaller/internal/config"
	"stinstaller/internal/logging"
	"stinstaller/internal/steps"
	"stinstaller/internal/store"
	"stinstaller/internal/tracing"
	"stinstaller/internal/wizard"
)

type backendFactory func(cfg config.Config, logger logging.Logger) wizard.Backend

type commandWiring struct {
	stdout      io.Writer
	stderr      io.Writer
	registry    *steps.Registry
	loadConfig  func() (config.Config, error)
	newBackend  backendFactory
	openJournal func() (store.Repository, error)
	openUILog   func(level logging.Level) (logging.Logger, io.Closer, error)
	runUI       func(w app.Wizard, bridge *app.Bridge, opts app.Options) error
	version     string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:      stdout,
		stderr:      stderr,
		registry:    steps.Default(),
		loadConfig:  config.Load,
		newBackend:  newBackendClient,
		openJournal: openJournal,
		openUILog:   openUILog,
		runUI:       app.Run,
		version:     buildVersion(),
	}
}

func newRootCommand(wiring commandWiring) *cobra.Command {
	root := &cobra.Command{
		Use:   "stinstaller",
		Short: "Drive the SeaTunnel install backend",
		Long: `stinstaller walks a SeaTunnel cluster install through its phases:
configuration, environment check, install, distribution and a final summary.
Run without a command to open the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(wiring.stdout)
	root.SetErr(wiring.stderr)
	ui := newUICommand(wiring)
	root.RunE = ui.RunE
	root.AddCommand(
		ui,
		newRunCommand(wiring),
		newPauseCommand(wiring),
		newStatusCommand(wiring),
		newTailCommand(wiring),
		newConfigCommand(wiring),
		newBackendConfigCommand(wiring),
		newHistoryCommand(wiring),
		newVersionCommand(wiring),
	)
	return root
}

// newBackendClient builds the HTTP client. Calls are traced into the log
// when debug logging is on.
func newBackendClient(cfg config.Config, logger logging.Logger) wizard.Backend {
	var opts []backend.Option
	if logger != nil && logger.Enabled(logging.Debug) {
		opts = append(opts, backend.WithTracerProvider(tracing.NewProvider(logger).TracerProvider()))
	}
	return backend.New(cfg.BackendURL(), opts...)
}

func openJournal() (store.Repository, error) {
	path, err := config.JournalPath()
	if err != nil {
		return nil, err
	}
	return store.NewBboltRepository(path)
}

func openUILog(level logging.Level) (logging.Logger, io.Closer, error) {
	path, err := config.UILogPath()
	if err != nil {
		return nil, nil, err
	}
	return logging.OpenFile(path, level)
}

// session loads configuration and builds a stderr logger and a backend for
// one command.
type session struct {
	cfg     config.Config
	logger  logging.Logger
	backend wizard.Backend
}

func (w commandWiring) session() (*session, error) {
	cfg, err := w.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(w.stderr, logging.ParseLevel(cfg.LogLevel()))
	return &session{cfg: cfg, logger: logger, backend: w.newBackend(cfg, logger)}, nil
}
