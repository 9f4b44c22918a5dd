// Package scan walks a directory tree, probing every candidate video
// file found and assembling the results in to a single Mapping keyed by the
// path of each file relative to the root of the scan.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/hbomb79/vidprobe/pkg/logger"
	"github.com/hbomb79/vidprobe/pkg/worker"
)

var log = logger.Get("Scanner")

// ErrRootNotFound is returned (wrapped) when the root of a scan does not
// exist, or is not a directory. No traversal is performed in this case.
var ErrRootNotFound = errors.New("scan root not found")

type (
	Config struct {
		// Concurrency is the maximum number of probes which may be running at
		// once. Values less than one default to the number of CPUs.
		Concurrency int
	}

	// Scanner performs scans using the Prober provided. A Scanner holds no
	// state between scans, and may be used by multiple goroutines at once.
	Scanner struct {
		prober probe.Prober
		config Config
	}

	job struct {
		absPath string
		relPath string
	}

	outcome struct {
		relPath string
		doc     probe.Document
		err     error
	}

	walkResult struct {
		skipped int
		err     error
	}
)

func New(prober probe.Prober, config Config) *Scanner {
	return &Scanner{prober: prober, config: config}
}

func (scanner *Scanner) concurrency() int {
	if scanner.config.Concurrency < 1 {
		return runtime.NumCPU()
	}

	return scanner.config.Concurrency
}

// Run performs a full recursive scan of the root directory provided.
//
// The directory walk, the probing and the assembly of the result are
// separated: the walk submits candidates to a bounded pool of workers, and
// the outcome of each probe is sent back to this goroutine which is the
// only one to mutate the Result.
//
// Per-file probe failures are recorded in Result.Failures and never cause
// Run to fail. If the context is cancelled no further files are submitted,
// running probes are killed, and the partially populated Result is returned
// alongside the context error.
func (scanner *Scanner) Run(ctx context.Context, root string) (*Result, error) {
	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	result := newResult(absRoot)
	workers := scanner.concurrency()
	log.Emit(logger.NEW, "Starting scan %s of '%s' using %d workers\n", result.ID, absRoot, workers)

	jobs := make(chan job)
	outcomes := make(chan outcome)

	pool := worker.NewWorkerPool()
	for i := 0; i < workers; i++ {
		label := fmt.Sprintf("probe-worker-%d", i)
		task := worker.TaskFunc(func(w worker.Worker) error {
			for j := range jobs {
				log.Verbosef("%s probing '%s'\n", w.Label(), j.relPath)
				doc, err := scanner.prober.Probe(ctx, j.absPath)
				outcomes <- outcome{relPath: j.relPath, doc: doc, err: err}
			}

			return nil
		})
		if err := pool.PushWorker(worker.NewWorker(label, task)); err != nil {
			return nil, err
		}
	}
	if err := pool.Start(); err != nil {
		return nil, err
	}

	walkDone := make(chan walkResult, 1)
	go func() {
		defer close(jobs)
		skipped, err := walk(ctx, absRoot, jobs)
		walkDone <- walkResult{skipped, err}
	}()
	go func() {
		pool.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err != nil {
			log.Warnf("Skipping '%s': %s\n", o.relPath, o.err)
		} else if summary, err := probe.Summarize(o.doc); err == nil {
			log.Debugf("Probed '%s' %s\n", o.relPath, summary)
		}

		result.record(o)
	}

	walked := <-walkDone
	result.Skipped = walked.skipped
	result.finish()

	if walked.err != nil {
		result.Partial = true
		if ctx.Err() != nil {
			log.Emit(logger.STOP, "Scan %s interrupted after %d files: %s\n", result.ID, len(result.Files), walked.err)
			return result, fmt.Errorf("scan of '%s' interrupted: %w", absRoot, walked.err)
		}

		log.Errorf("Scan %s of '%s' is incomplete, walk failed after %d files: %s\n", result.ID, absRoot, len(result.Files), walked.err)
		return result, fmt.Errorf("scan of '%s' incomplete: %w", absRoot, walked.err)
	}
	if result.Partial {
		log.Emit(logger.STOP, "Scan %s interrupted after %d files\n", result.ID, len(result.Files))
		return result, fmt.Errorf("scan of '%s' interrupted: %w", absRoot, context.Cause(ctx))
	}

	log.Emit(logger.SUCCESS, "Scan %s complete: %d probed, %d failed, %d skipped in %s\n", result.ID, len(result.Files), len(result.Failures), result.Skipped, result.Duration)
	return result, nil
}

// resolveRoot converts the root provided to a clean absolute path, and
// ensures it refers to an existing directory.
func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: '%s': %w", ErrRootNotFound, root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: '%s': %w", ErrRootNotFound, absRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: '%s' is not a directory", ErrRootNotFound, absRoot)
	}

	return absRoot, nil
}

// walk traverses the tree at root, submitting every candidate video file
// to the jobs channel. Unreadable directories are logged and skipped. The
// number of non-candidate files seen is returned, along with any error
// which stopped the walk early (including the context error).
func walk(ctx context.Context, root string, jobs chan<- job) (int, error) {
	skipped := 0
	err := filepath.WalkDir(root, func(path string, dir fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if dir == nil {
				return err
			}

			log.Warnf("Unable to read '%s', skipping: %s\n", path, err)
			if dir.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if dir.IsDir() {
			return nil
		}

		// Only regular files (or links to them) are probed; ffprobe can
		// block forever reading from fifos or devices.
		if !dir.Type().IsRegular() && dir.Type()&fs.ModeSymlink == 0 {
			skipped++
			return nil
		}

		if !probe.IsVideoFile(dir.Name()) {
			skipped++
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		select {
		case jobs <- job{absPath: path, relPath: rel}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	return skipped, err
}
