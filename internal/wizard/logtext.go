package wizard

import (
	"regexp"
	"strings"
	"unicode/utf8"

	xansi "github.com/charmbracelet/x/ansi"
)

const fingerprintTail = 100

const (
	noLogText        = "No log output yet"
	logLoadErrorText = "Failed to load log"
)

// LogFingerprint identifies rendered log text cheaply: its length and its
// trailing characters.
type LogFingerprint struct {
	Length int
	Tail   string
}

func Fingerprint(text string) LogFingerprint {
	end := len(text)
	start := end
	for n := 0; n < fingerprintTail && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	return LogFingerprint{Length: len(text), Tail: text[start:end]}
}

type Severity int

const (
	SeverityPlain Severity = iota
	SeverityError
	SeverityWarn
	SeveritySuccess
	SeverityDebug
)

func (s Severity) Class() string {
	switch s {
	case SeverityError:
		return "log-error"
	case SeverityWarn:
		return "log-warn"
	case SeveritySuccess:
		return "log-success"
	case SeverityDebug:
		return "log-debug"
	default:
		return ""
	}
}

// Checked in this order; the first marker found wins.
var severityMarkers = [...]struct {
	marker   string
	severity Severity
}{
	{"[ERROR]", SeverityError},
	{"[WARN]", SeverityWarn},
	{"[SUCCESS]", SeveritySuccess},
	{"[DEBUG]", SeverityDebug},
}

func ClassifyLine(line string) Severity {
	for _, m := range severityMarkers {
		if strings.Contains(line, m.marker) {
			return m.severity
		}
	}
	return SeverityPlain
}

type LogLine struct {
	Text     string
	Severity Severity
}

// Bare colour codes left behind when the shell backend drops the ESC byte.
var bareColorCode = regexp.MustCompile(`\[[01];[0-9]+m|\[0m`)

// CleanLog unescapes literal "\n" sequences and removes colour codes.
func CleanLog(raw string) string {
	text := strings.ReplaceAll(raw, `\n`, "\n")
	text = xansi.Strip(text)
	return bareColorCode.ReplaceAllString(text, "")
}

func ParseLog(raw string) []LogLine {
	text := CleanLog(raw)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	lines := make([]LogLine, 0, len(parts))
	for _, part := range parts {
		lines = append(lines, LogLine{Text: part, Severity: ClassifyLine(part)})
	}
	return lines
}

// LogUpdate is emitted when the rendered log must change.
type LogUpdate struct {
	Lines []LogLine
	Err   error
}

func (u LogUpdate) Empty() bool {
	return u.Err == nil && len(u.Lines) == 0
}

func (u LogUpdate) PlainText() string {
	switch {
	case u.Err != nil:
		return logLoadErrorText
	case len(u.Lines) == 0:
		return noLogText
	}
	var b strings.Builder
	for i, line := range u.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text)
	}
	return b.String()
}

// RenderHTML wraps classified lines in highlight spans. Only '<' and '>' are
// escaped.
func RenderHTML(u LogUpdate) string {
	if u.Err != nil {
		return `<span class="log-error">` + logLoadErrorText + `</span>`
	}
	if len(u.Lines) == 0 {
		return noLogText
	}
	var b strings.Builder
	for i, line := range u.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		escaped := strings.ReplaceAll(line.Text, "<", "&lt;")
		escaped = strings.ReplaceAll(escaped, ">", "&gt;")
		if class := line.Severity.Class(); class != "" {
			b.WriteString(`<span class="` + class + `">` + escaped + `</span>`)
			continue
		}
		b.WriteString(escaped)
	}
	return b.String()
}
