package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	version        = "dev"
	requestTimeout = 15 * time.Second

	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
	formatYAML = "yaml"
	formatHTML = "html"
)

func resolveFormat(raw string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if format == candidate {
			return format, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: must be %s", raw, strings.Join(allowed, ", "))
}

func writeStructured(out io.Writer, format string, payload any) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case formatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		return writeWithNewline(out, data)
	case formatYAML:
		data, err := yaml.Marshal(payload)
		if err != nil {
			return err
		}
		return writeWithNewline(out, data)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeWithNewline(out io.Writer, data []byte) error {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err := out.Write(data)
	return err
}

// lockedWriter serializes writes from several goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// newLines returns the lines of next that follow its overlap with the end of
// prev. Log tails slide, so the overlap is the longest suffix of prev that is
// a prefix of next.
func newLines(prev, next []string) []string {
	for k := min(len(prev), len(next)); k > 0; k-- {
		if equalLines(prev[len(prev)-k:], next[:k]) {
			return next[k:]
		}
	}
	return next
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
