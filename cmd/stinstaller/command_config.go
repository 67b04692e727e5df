package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"stinstaller/internal/config"
)

type configOutput struct {
	ConfigPath string        `json:"config_path,omitempty" toml:"config_path,omitempty" yaml:"config_path,omitempty"`
	Backend    backendOutput `json:"backend" toml:"backend" yaml:"backend"`
	Polling    pollingOutput `json:"polling" toml:"polling" yaml:"polling"`
	LogView    logViewOutput `json:"log_view" toml:"log_view" yaml:"log_view"`
	Logging    loggingOutput `json:"logging" toml:"logging" yaml:"logging"`
}

type backendOutput struct {
	URL string `json:"url" toml:"url" yaml:"url"`
}

type pollingOutput struct {
	Interval string `json:"interval" toml:"interval" yaml:"interval"`
	LogLines int    `json:"log_lines" toml:"log_lines" yaml:"log_lines"`
}

type logViewOutput struct {
	FollowThreshold int `json:"follow_threshold" toml:"follow_threshold" yaml:"follow_threshold"`
}

type loggingOutput struct {
	Level string `json:"level" toml:"level" yaml:"level"`
}

func newConfigCommand(w commandWiring) *cobra.Command {
	var (
		defaults bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective console configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveFormat(format, formatJSON, formatTOML, formatYAML)
			if err != nil {
				return err
			}
			cfg := config.Default()
			if !defaults {
				if cfg, err = w.loadConfig(); err != nil {
					return err
				}
			}
			out := effectiveConfig(cfg)
			if path, err := config.ConfigPath(); err == nil {
				out.ConfigPath = path
			}
			return writeStructured(w.stdout, resolved, out)
		},
	}
	cmd.Flags().BoolVar(&defaults, "default", false, "print default values instead of the loaded ones")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json|toml|yaml")
	return cmd
}

func effectiveConfig(cfg config.Config) configOutput {
	return configOutput{
		Backend: backendOutput{URL: cfg.BackendURL()},
		Polling: pollingOutput{
			Interval: cfg.PollInterval().String(),
			LogLines: cfg.LogLines(),
		},
		LogView: logViewOutput{FollowThreshold: cfg.FollowThreshold()},
		Logging: loggingOutput{Level: cfg.LogLevel()},
	}
}

func newBackendConfigCommand(w commandWiring) *cobra.Command {
	var (
		sets   []string
		format string
	)
	cmd := &cobra.Command{
		Use:   "backend-config",
		Short: "Show or update the install configuration held by the backend",
		Example: `  stinstaller backend-config
  stinstaller backend-config --set BASE_DIR=/opt/seatunnel --set NODE_IPS=10.0.0.1,10.0.0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := resolveFormat(format, formatText, formatJSON, formatYAML)
			if err != nil {
				return err
			}
			updates, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			s, err := w.session()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			resp, err := s.backend.LoadConfig(ctx)
			if err != nil {
				return err
			}
			if !resp.OK() {
				return fmt.Errorf("config_load returned status %q", resp.Status)
			}
			values := make(map[string]string, len(resp.Config)+len(updates))
			for key, value := range resp.Config {
				values[key] = value
			}
			if len(updates) > 0 {
				for key, value := range updates {
					values[key] = value
				}
				saved, err := s.backend.SaveConfig(ctx, values)
				if err != nil {
					return err
				}
				if !saved.OK() {
					msg := strings.TrimSpace(saved.Message)
					if msg == "" {
						msg = saved.Status
					}
					return fmt.Errorf("config_save rejected: %s", msg)
				}
			}
			if resolved == formatText {
				for _, key := range sortedKeys(values) {
					fmt.Fprintf(w.stdout, "%s=%s\n", key, values[key])
				}
				return nil
			}
			return writeStructured(w.stdout, resolved, values)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "KEY=VALUE to save (repeatable)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text|json|yaml")
	return cmd
}

func parseAssignments(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want KEY=VALUE", item)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
