package probe

import (
	"errors"
	"fmt"
)

// ErrProbeFailed is wrapped by every error returned from a Prober. A
// probe failure only ever affects the single file being probed.
var ErrProbeFailed = errors.New("probe failed")

type Kind int

const (
	// ToolMissing indicates the ffprobe binary could not be found or executed.
	ToolMissing Kind = iota
	// ExitStatus indicates ffprobe ran, but exited with a non-zero status.
	ExitStatus
	// Timeout indicates ffprobe did not complete within the configured deadline.
	Timeout
	// Cancelled indicates the callers context was cancelled mid-probe.
	Cancelled
	// EmptyOutput indicates ffprobe succeeded but printed nothing.
	EmptyOutput
	// InvalidOutput indicates the output was not a well-formed JSON object.
	InvalidOutput
)

func (k Kind) String() string {
	switch k {
	case ToolMissing:
		return "TOOL_MISSING"
	case ExitStatus:
		return "EXIT_STATUS"
	case Timeout:
		return "TIMEOUT"
	case Cancelled:
		return "CANCELLED"
	case EmptyOutput:
		return "EMPTY_OUTPUT"
	case InvalidOutput:
		return "INVALID_OUTPUT"
	default:
		return fmt.Sprintf("UNKNOWN[%d]", k)
	}
}

// Error describes why probing a single file failed. It wraps both
// ErrProbeFailed and the underlying cause (if any).
type Error struct {
	Path string
	Kind Kind
	Err  error

	// Stderr holds any diagnostic output captured from the tool.
	Stderr string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("probe %q failed (%s)", e.Path, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}

	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProbeFailed}
	}

	return []error{ErrProbeFailed, e.Err}
}

func newError(path string, kind Kind, err error) *Error {
	return &Error{Path: path, Kind: kind, Err: err}
}
