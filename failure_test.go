package acquirekit_test

import (
	"bytes"
	"strings"
	"testing"

	acquirekit "github.com/acquirekit/sdk-go"
)

func TestFailf(t *testing.T) {
	err := acquirekit.Failf(acquirekit.KindTimeout, "timeout at %dms", 20000)
	if err.Kind != acquirekit.KindTimeout {
		t.Fatalf("kind %v, expected timeout", err.Kind)
	}
	if err.File != "failure_test.go" || err.Line == 0 {
		t.Fatalf("source location %s:%d, expected this test file", err.File, err.Line)
	}
	msg := err.Error()
	if !strings.Contains(msg, "timeout at 20000ms") || !strings.Contains(msg, "failure_test.go") {
		t.Fatalf("unexpected failure message %q", msg)
	}
}

func TestConsoleReporter(t *testing.T) {
	var out, errw bytes.Buffer
	rep := &acquirekit.ConsoleReporter{Out: &out, Err: &errw}

	acquirekit.Logf(rep, "stream %d nframes %d", 0, 7)
	acquirekit.Errorf(rep, "boom")

	if !strings.Contains(out.String(), "stream 0 nframes 7") || !strings.Contains(out.String(), "failure_test.go(") {
		t.Fatalf("unexpected info output %q", out.String())
	}
	if !strings.HasPrefix(errw.String(), "ERROR ") || !strings.Contains(errw.String(), "boom") {
		t.Fatalf("unexpected error output %q", errw.String())
	}

	// Nil reporters drop messages instead of panicking.
	acquirekit.Logf(nil, "dropped")
}
