// Package export persists the Mapping produced by a scan as a single JSON
// document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/hbomb79/vidprobe/pkg/logger"
)

var log = logger.Get("Export")

// ErrSerializationFailed is wrapped by every error returned from WriteFile.
var ErrSerializationFailed = errors.New("failed to write scan results")

// Error is returned when a Mapping could not be persisted. The Mapping is
// retained on the error so that the caller is able to recover the results.
type Error struct {
	Path    string
	Mapping scan.Mapping
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to write scan results to '%s': %s", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrSerializationFailed, e.Err}
}

// Encode writes the mapping as an indented JSON object to the writer
// provided. Non-ASCII (and HTML-sensitive) characters are not escaped.
// Keys are written in sorted order.
func Encode(w io.Writer, mapping scan.Mapping) error {
	if mapping == nil {
		mapping = scan.Mapping{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(mapping)
}

// WriteFile persists the mapping to the path provided. The JSON is first
// written to a temporary file in the same directory, and only renamed in to
// place once fully written; a failure never leaves a partial file behind.
func WriteFile(path string, mapping scan.Mapping) error {
	fail := func(err error) error {
		return &Error{Path: path, Mapping: mapping, Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}

	tmpPath := tmp.Name()
	defer func() {
		// No-op once renamed
		os.Remove(tmpPath)
	}()

	if err := Encode(tmp, mapping); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fail(err)
	}

	log.Emit(logger.SUCCESS, "Wrote %d results to '%s'\n", len(mapping), path)
	return nil
}
