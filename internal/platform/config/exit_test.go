package config

import (
	"bytes"
	"testing"
)

func TestExitfWritesMessageAndExitsWithCode1(t *testing.T) {
	var code int
	previous := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = previous })

	var buf bytes.Buffer
	exitf(&buf, "healthcheck: %s", "not serving")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got, want := buf.String(), "healthcheck: not serving\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}
