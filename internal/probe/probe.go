// Package probe is responsible for identifying candidate video files,
// and extracting the container and stream metadata from them using an
// external ffprobe process.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hbomb79/vidprobe/pkg/logger"
)

var log = logger.Get("Probe")

const DefaultBinary = "ffprobe"

type (
	// Prober extracts the metadata Document for a single file. On failure
	// the returned Document is always nil, and the error wraps ErrProbeFailed.
	Prober interface {
		Probe(ctx context.Context, path string) (Document, error)
	}

	Config struct {
		// BinaryPath is the ffprobe executable to run. Bare names are
		// resolved using the PATH.
		BinaryPath string `yaml:"binary" env:"VIDPROBE_FFPROBE_BIN" env-default:"ffprobe"`

		// Timeout bounds each individual ffprobe invocation. Zero disables
		// the timeout entirely.
		Timeout time.Duration `yaml:"timeout" env:"VIDPROBE_PROBE_TIMEOUT" env-default:"60s" validate:"min=0"`
	}
)

// New constructs the Prober described by the configuration provided.
func New(config Config) (Prober, error) {
	if config.Timeout < 0 {
		return nil, fmt.Errorf("probe timeout must not be negative, got %s", config.Timeout)
	}

	return NewExecProber(config.BinaryPath, config.Timeout), nil
}

// ffprobeArgs returns the arguments used to request quiet, JSON formatted
// output containing both the format and stream information for path.
func ffprobeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// withTimeout derives a context from the parent which expires after the
// timeout provided. A zero timeout returns a cancellable copy of the parent.
func withTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}

	return context.WithCancel(parent)
}

// contextFailure inspects the parent and derived contexts after a failed
// invocation and returns the matching error, or nil if neither is done.
func contextFailure(path string, parent context.Context, ctx context.Context) *Error {
	if err := parent.Err(); err != nil {
		return newError(path, Cancelled, err)
	}
	if err := ctx.Err(); err != nil {
		return newError(path, Timeout, err)
	}

	return nil
}
