package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long we wait for the output pipes of a killed
// ffprobe process to close before giving up on them.
const waitDelay = 2 * time.Second

// ExecProber runs the ffprobe binary directly, one process per call.
type ExecProber struct {
	binary  string
	timeout time.Duration
}

func NewExecProber(binary string, timeout time.Duration) *ExecProber {
	if binary == "" {
		binary = DefaultBinary
	}

	return &ExecProber{binary: binary, timeout: timeout}
}

// Probe runs a single ffprobe JSON call against the path provided and
// returns the parsed Document. The process is always waited on before
// returning, including when it is killed due to cancellation or timeout.
func (prober *ExecProber) Probe(parent context.Context, path string) (Document, error) {
	ctx, cancel := withTimeout(parent, prober.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prober.binary, ffprobeArgs(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log.Verbosef("Running %s\n", cmd)
	if err := cmd.Run(); err != nil {
		if ctxErr := contextFailure(path, parent, ctx); ctxErr != nil {
			return nil, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{
				Path:   path,
				Kind:   ExitStatus,
				Err:    fmt.Errorf("exit status %d", exitErr.ExitCode()),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}

		// The process never started: binary is missing (exec.ErrNotFound,
		// fs.ErrNotExist), not executable (fs.ErrPermission) or similar.
		return nil, newError(path, ToolMissing, err)
	}

	doc, err := ParseDocument(stdout.Bytes())
	if err != nil {
		if errors.Is(err, errEmptyOutput) {
			return nil, newError(path, EmptyOutput, err)
		}

		return nil, newError(path, InvalidOutput, err)
	}

	return doc, nil
}
