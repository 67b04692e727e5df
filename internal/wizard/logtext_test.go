package wizard

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanLogStripsColourCodes(t *testing.T) {
	raw := "\x1b[0;31m[ERROR] boom\x1b[0m\\n[0;32m[SUCCESS] ok[0m\\n[1;33m[WARN] hm"
	got := CleanLog(raw)
	want := "[ERROR] boom\n[SUCCESS] ok\n[WARN] hm"
	if got != want {
		t.Fatalf("CleanLog:\n got %q\nwant %q", got, want)
	}
}

func TestClassifyLineFirstMarkerWins(t *testing.T) {
	cases := map[string]Severity{
		"[ERROR] failed after [WARN]": SeverityError,
		"[SUCCESS] and [WARN]":        SeverityWarn,
		"[DEBUG] details":             SeverityDebug,
		"[SUCCESS] done":              SeveritySuccess,
		"plain text":                  SeverityPlain,
	}
	for line, want := range cases {
		if got := ClassifyLine(line); got != want {
			t.Fatalf("ClassifyLine(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestRenderHTMLEscapesAngleBracketsOnly(t *testing.T) {
	u := LogUpdate{Lines: ParseLog("[ERROR] <bad> & worse\\nplain <tag>")}
	got := RenderHTML(u)
	want := `<span class="log-error">[ERROR] &lt;bad&gt; & worse</span>` + "\n" + `plain &lt;tag&gt;`
	if got != want {
		t.Fatalf("RenderHTML:\n got %q\nwant %q", got, want)
	}
}

func TestRenderHTMLErrorAndEmpty(t *testing.T) {
	if got := RenderHTML(LogUpdate{Err: errors.New("x")}); !strings.Contains(got, "log-error") {
		t.Fatalf("expected inline error indicator, got %q", got)
	}
	if got := RenderHTML(LogUpdate{}); got != noLogText {
		t.Fatalf("expected empty placeholder, got %q", got)
	}
}

func TestFingerprintUsesLengthAndTail(t *testing.T) {
	long := strings.Repeat("a", 150) + strings.Repeat("b", 100)
	fp := Fingerprint(long)
	if fp.Length != 250 || fp.Tail != strings.Repeat("b", 100) {
		t.Fatalf("unexpected fingerprint: len=%d tail=%q", fp.Length, fp.Tail)
	}
	if Fingerprint("short") != (LogFingerprint{Length: 5, Tail: "short"}) {
		t.Fatalf("short text should fingerprint to itself")
	}
	if Fingerprint("ab") == Fingerprint("abc") {
		t.Fatalf("different lengths must differ")
	}
}

func TestFingerprintKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("日", 120)
	fp := Fingerprint(text)
	if fp.Tail != strings.Repeat("日", 100) {
		t.Fatalf("expected 100 whole runes in tail")
	}
}
