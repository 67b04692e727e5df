package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"stinstaller/internal/app"
	"stinstaller/internal/logging"
	"stinstaller/internal/store"
	"stinstaller/internal/wizard"
)

func newUICommand(w commandWiring) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the install wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(w)
		},
	}
}

func runUI(w commandWiring) error {
	cfg, err := w.loadConfig()
	if err != nil {
		return err
	}
	level := logging.ParseLevel(cfg.LogLevel())
	logger, closer, err := w.openUILog(level)
	if err != nil {
		// The UI owns the terminal, so a missing log file only costs the log.
		logger = logging.Nop()
	} else {
		defer closer.Close()
	}

	var (
		journal       wizard.Journal
		initialConfig map[string]string
	)
	if repo, err := w.openJournal(); err != nil {
		logger.Warn("journal unavailable", logging.Err(err))
	} else {
		defer repo.Close()
		j := store.NewJournal(repo)
		journal = j
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		initialConfig, err = j.LastConfig(ctx)
		cancel()
		if err != nil {
			logger.Warn("journal config unreadable", logging.Err(err))
		}
	}

	bridge := app.NewBridge()
	controller, err := wizard.New(wizard.Options{
		Registry:      w.registry,
		Backend:       w.newBackend(cfg, logger),
		Logger:        logger,
		Journal:       journal,
		Interval:      cfg.PollInterval(),
		LogLines:      cfg.LogLines(),
		InitialConfig: initialConfig,
		OnChange:      bridge.OnChange,
		OnLog:         bridge.OnLog,
	})
	if err != nil {
		return err
	}
	defer controller.Close()
	logger.Info("ui started", logging.F("session", controller.SessionID()), logging.F("backend", cfg.BackendURL()))

	err = w.runUI(controller, bridge, app.Options{
		Registry:        w.registry,
		FollowThreshold: cfg.FollowThreshold(),
		Logger:          logger,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
