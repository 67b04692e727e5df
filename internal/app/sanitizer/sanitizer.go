// Package sanitizer cleans text typed or pasted into the config form before
// it is sent to the backend.
package sanitizer

import (
	"regexp"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Mouse reports whose ESC prefix was consumed by the terminal reader.
var orphanedMouse = regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`)

type Options struct {
	// NewlineAs replaces line breaks. Empty drops them.
	NewlineAs string
	MaxLength int
}

// Field cleans a single-line form value.
func Field(input string) string {
	return strings.TrimSpace(Clean(input, Options{NewlineAs: " "}))
}

// Clean removes escape sequences and control characters from input.
func Clean(input string, opts Options) string {
	if input == "" {
		return input
	}
	input = xansi.Strip(input)
	input = orphanedMouse.ReplaceAllString(input, "")
	input = strings.ReplaceAll(input, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString(opts.NewlineAs)
		case r == '\t':
			b.WriteByte(' ')
		case r < 32 || r == 127:
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if opts.MaxLength > 0 {
		if runes := []rune(out); len(runes) > opts.MaxLength {
			out = string(runes[:opts.MaxLength])
		}
	}
	return out
}
