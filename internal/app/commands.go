package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 10 * time.Second

func loadConfigCmd(w Wizard) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cfg, err := w.LoadConfig(ctx)
		return configLoadedMsg{config: cfg, err: err}
	}
}

func checkTempCmd(w Wizard) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := w.CheckTemp(ctx)
		return tempCheckedMsg{resp: resp, err: err}
	}
}

func cleanTempCmd(w Wizard) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return tempCleanedMsg{err: w.CleanTemp(ctx)}
	}
}

func saveConfigCmd(w Wizard, values map[string]string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return configSavedMsg{err: w.SaveConfigAndStart(ctx, values)}
	}
}
