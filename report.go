package acquirekit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Reporter receives log and error output from the runtime and the
// acquisition loop. A reporter is installed once at process start and used
// for the process's lifetime; implementations must be safe for concurrent
// use.
type Reporter interface {
	Report(isError bool, file string, line int, msg string)
}

// ConsoleReporter writes reports as "file(line) - msg" lines, info to Out
// and errors to Err with an ERROR prefix.
type ConsoleReporter struct {
	Out io.Writer
	Err io.Writer
}

// NewConsoleReporter returns a reporter writing to stdout and stderr.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{Out: os.Stdout, Err: os.Stderr}
}

// Report writes one report line.
func (r *ConsoleReporter) Report(isError bool, file string, line int, msg string) {
	w, prefix := r.Out, ""
	if isError {
		w, prefix = r.Err, "ERROR "
	}
	fmt.Fprintf(w, "%s%s(%d) - %s\n", prefix, file, line, msg)
}

// Discard is a reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(bool, string, int, string) {}

// Logf reports an info message on r, tagged with the caller's source
// location. A nil reporter drops the message.
func Logf(r Reporter, format string, args ...interface{}) {
	report(r, false, format, args...)
}

// Errorf reports an error message on r, tagged with the caller's source
// location. A nil reporter drops the message.
func Errorf(r Reporter, format string, args ...interface{}) {
	report(r, true, format, args...)
}

func report(r Reporter, isError bool, format string, args ...interface{}) {
	if r == nil {
		return
	}
	file, line := caller(3)
	r.Report(isError, file, line, fmt.Sprintf(format, args...))
}

func caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}
