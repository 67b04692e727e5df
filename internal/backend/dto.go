package backend

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"stinstaller/internal/steps"
)

const StatusOK = "ok"

type ConfigResponse struct {
	Status string            `json:"status"`
	Config map[string]string `json:"config"`
}

func (r *ConfigResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

type SaveConfigResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r *SaveConfigResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

type PauseResponse struct {
	Status string `json:"status"`
}

func (r *PauseResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

// StatusResponse is the backend's per-step status report. Keys are step
// ids rendered as strings.
type StatusResponse struct {
	Steps map[string]string `json:"steps"`
}

// StepStatuses returns the reported statuses keyed by step id. Keys that are
// not integers are dropped.
func (r *StatusResponse) StepStatuses() map[steps.StepID]string {
	if r == nil || len(r.Steps) == 0 {
		return nil
	}
	out := make(map[steps.StepID]string, len(r.Steps))
	for key, value := range r.Steps {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		out[steps.StepID(id)] = strings.TrimSpace(value)
	}
	return out
}

type LogResponse struct {
	Log string `json:"log"`
}

type TempFilesResponse struct {
	Status string          `json:"status"`
	Files  json.RawMessage `json:"files,omitempty"`
}

func (r *TempFilesResponse) Found() bool {
	return r != nil && r.Status == "found"
}

// FilesText renders the files field, which the backend reports either as a
// string or as a list.
func (r *TempFilesResponse) FilesText() string {
	if r == nil || len(r.Files) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(r.Files, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var list []string
	if err := json.Unmarshal(r.Files, &list); err == nil {
		sort.Strings(list)
		return strings.Join(list, ", ")
	}
	return strings.TrimSpace(string(r.Files))
}

type statusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
