package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".stinstaller"
	homeEnvVar = "STINSTALLER_HOME"
)

// DataDir returns the base data directory. STINSTALLER_HOME overrides
// ~/.stinstaller.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(homeEnvVar)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// JournalPath returns the path to the local bbolt journal.
func JournalPath() (string, error) {
	return dataPath("journal.db")
}

// UILogPath returns the log file used while the terminal UI owns the screen.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
