package scan

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/vidprobe/internal/probe"
)

type (
	// Mapping associates the path of a probed file, relative to the scan root,
	// with the Document produced for it.
	Mapping map[string]probe.Document

	// Failure records a candidate file which could not be probed. Failures
	// are reported alongside, and never inside, the Mapping.
	Failure struct {
		Path   string `json:"path"`
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	}

	// Result is the outcome of a single scan.
	Result struct {
		ID        uuid.UUID
		Root      string
		Files     Mapping
		Failures  []Failure
		Skipped   int
		Partial   bool
		StartedAt time.Time
		Duration  time.Duration
	}
)

// Keys returns the relative paths contained in the mapping, sorted.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

func newResult(root string) *Result {
	return &Result{
		ID:        uuid.New(),
		Root:      root,
		Files:     make(Mapping),
		Failures:  make([]Failure, 0),
		StartedAt: time.Now(),
	}
}

// record is called by the aggregator (only) to fold the outcome of
// a probe in to the result.
func (result *Result) record(o outcome) {
	if o.err == nil {
		result.Files[o.relPath] = o.doc
		return
	}

	kind := "UNKNOWN"
	var probeErr *probe.Error
	if errors.As(o.err, &probeErr) {
		kind = probeErr.Kind.String()
		if probeErr.Kind == probe.Cancelled {
			result.Partial = true
		}
	}

	result.Failures = append(result.Failures, Failure{Path: o.relPath, Kind: kind, Reason: o.err.Error()})
}

func (result *Result) finish() {
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Path < result.Failures[j].Path })
	result.Duration = time.Since(result.StartedAt)
}

func (result *Result) String() string {
	return fmt.Sprintf("Scan{ID=%s root=%s probed=%d failed=%d skipped=%d partial=%v}", result.ID, result.Root, len(result.Files), len(result.Failures), result.Skipped, result.Partial)
}
