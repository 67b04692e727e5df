package sanitizer

import "testing"

func TestFieldStripsTerminalNoise(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "/opt/seatunnel", want: "/opt/seatunnel"},
		{name: "csi colour", input: "\x1b[31m/opt/st\x1b[0m", want: "/opt/st"},
		{name: "osc title", input: "\x1b]0;title\x07 2.3.12", want: "2.3.12"},
		{name: "orphaned mouse", input: "[<0;12;4M10.0.0.1", want: "10.0.0.1"},
		{name: "pasted lines", input: "10.0.0.1\n10.0.0.2\r\n10.0.0.3", want: "10.0.0.1 10.0.0.2 10.0.0.3"},
		{name: "control chars", input: "a\x00b\x7fc\td", want: "abc d"},
		{name: "surrounding space", input: "  cluster \n", want: "cluster"},
	}
	for _, tc := range cases {
		if got := Field(tc.input); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestCleanMaxLengthCountsRunes(t *testing.T) {
	got := Clean("héllo wörld", Options{MaxLength: 5})
	if got != "héllo" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func TestCleanDropsNewlinesByDefault(t *testing.T) {
	if got := Clean("a\nb", Options{}); got != "ab" {
		t.Fatalf("expected newline removed, got %q", got)
	}
}
