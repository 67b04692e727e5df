package app

import (
	"stinstaller/internal/backend"
	"stinstaller/internal/wizard"
)

type snapshotMsg struct {
	snapshot wizard.Snapshot
}

type logMsg struct {
	event wizard.LogEvent
}

type configLoadedMsg struct {
	config map[string]string
	err    error
}

type tempCheckedMsg struct {
	resp *backend.TempFilesResponse
	err  error
}

type tempCleanedMsg struct {
	err error
}

type configSavedMsg struct {
	err error
}

type logCopiedMsg struct {
	method clipboardMethod
	err    error
}
