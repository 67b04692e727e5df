package app

import (
	"sort"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

type HotkeyRenderer struct {
	hotkeys  []Hotkey
	resolver HotkeyResolver
}

func NewHotkeyRenderer(hotkeys []Hotkey, resolver HotkeyResolver) *HotkeyRenderer {
	return &HotkeyRenderer{hotkeys: hotkeys, resolver: resolver}
}

// Render lists the hotkeys of m's active contexts, cut to width.
func (r *HotkeyRenderer) Render(m *Model, width int) string {
	if r == nil || r.resolver == nil {
		return ""
	}
	visible := FilterHotkeys(r.hotkeys, r.resolver.ActiveContexts(m))
	parts := make([]string, 0, len(visible))
	for _, hk := range visible {
		parts = append(parts, hk.Key+" "+hk.Label)
	}
	line := strings.Join(parts, " • ")
	if width > 0 {
		line = xansi.Truncate(line, width, "…")
	}
	return line
}

// FilterHotkeys keeps hotkeys of the given contexts ordered by priority.
func FilterHotkeys(hotkeys []Hotkey, contexts []HotkeyContext) []Hotkey {
	allowed := make(map[HotkeyContext]bool, len(contexts))
	for _, ctx := range contexts {
		allowed[ctx] = true
	}
	var out []Hotkey
	for _, hk := range hotkeys {
		if allowed[hk.Context] {
			out = append(out, hk)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority == out[j].Priority {
			return out[i].Key < out[j].Key
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}
