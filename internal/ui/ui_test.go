package ui

import (
	"bytes"
	"testing"
)

func TestNormalizeColorMode(t *testing.T) {
	cases := map[string]ColorMode{
		"":        ColorAuto,
		"auto":    ColorAuto,
		" NEVER ": ColorNever,
		"always":  ColorAlways,
		"rainbow": ColorAuto,
	}
	for input, want := range cases {
		if got := NormalizeColorMode(input); got != want {
			t.Fatalf("NormalizeColorMode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEnvColorMode(t *testing.T) {
	t.Setenv(EnvColor, "never")
	if got := EnvColorMode(); got != ColorNever {
		t.Fatalf("EnvColorMode() = %q, want never", got)
	}
}

func TestReplyPlain(t *testing.T) {
	var out bytes.Buffer
	u := New(&out, &out, ColorNever, false)
	u.Reply("**Engineer** — Acme (Austin)\nhttps://example.com/1\n")

	want := "**Engineer** — Acme (Austin)\nhttps://example.com/1\n"
	if out.String() != want {
		t.Fatalf("Reply() = %q, want %q", out.String(), want)
	}
}

func TestColorDisabled(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(&out, &errOut, ColorAlways, true)
	if u.ColorEnabled {
		t.Fatalf("expected color disabled")
	}
	u.Warnf("careful %d\n", 1)
	if errOut.String() != "careful 1\n" {
		t.Fatalf("Warnf() = %q", errOut.String())
	}
}
