package erp

import "fmt"

// ErrorKind classifies failures so the calling agent can decide whether a
// retry, a parameter fix, or a different operation is the right follow-up.
type ErrorKind string

const (
	// KindInput marks defects in the caller-supplied parameters; nothing was
	// sent to the backend.
	KindInput ErrorKind = "input"
	// KindTransport marks timeouts and connection failures.
	KindTransport ErrorKind = "transport"
	// KindBackend marks application-level errors reported by the backend.
	KindBackend ErrorKind = "backend"
	// KindEmpty marks a listing that returned an empty structural container
	// under an HTTP success code. The backend has been observed to answer
	// `{}` on real failures, so this is surfaced as an error instead of an
	// empty result set.
	KindEmpty ErrorKind = "empty"
	// KindUnsupported marks operations the backend never implemented for a
	// resource; rejected locally before any call.
	KindUnsupported ErrorKind = "unsupported"
)

// Error is the structured failure shape shared by every layer of the ERP
// pipeline. It never escapes the tool boundary as a Go error; callers render
// it back to the model as data.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
