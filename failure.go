package acquirekit

import "fmt"

// Kind classifies a fatal acquisition failure.
type Kind int

const (
	// KindPrecondition is a failure before streaming: an invalid handle
	// or argument, a device not found, a rejected configuration.
	KindPrecondition Kind = iota

	// KindContract is a contract violation while streaming: a frame shape
	// mismatch, a malformed frame record, a final frame-count mismatch.
	KindContract

	// KindTimeout means the deadline passed while frames were still
	// expected.
	KindTimeout

	// KindRuntime is a runtime call that returned a non-success status.
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindContract:
		return "contract"
	case KindTimeout:
		return "timeout"
	case KindRuntime:
		return "runtime"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Failure is a fatal acquisition failure tagged with the source location
// that raised it. No failure is retried internally; each one aborts the
// current run and propagates to the driver, which maps it to a non-zero
// exit status.
type Failure struct {
	Kind Kind
	File string
	Line int
	Msg  string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s (%s:%d)", f.Kind, f.Msg, f.File, f.Line)
}

// Failf returns a Failure of the given kind tagged with the caller's source
// location.
func Failf(kind Kind, format string, args ...interface{}) *Failure {
	file, line := caller(2)
	return &Failure{Kind: kind, File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
