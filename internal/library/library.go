// Package library exposes the folders beneath a fixed data root, and
// allows them to be scanned with the results persisted inside the folder.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hbomb79/vidprobe/internal/export"
	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/hbomb79/vidprobe/pkg/logger"
)

var log = logger.Get("Library")

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderInvalid  = errors.New("folder must name a directory inside the data root")
)

type (
	folderScanner interface {
		Run(ctx context.Context, root string) (*scan.Result, error)
	}

	// Report summarises a completed folder scan.
	Report struct {
		ScanID     uuid.UUID
		OutputFile string
		Probed     int
		Failures   []scan.Failure
	}

	// Library provides access to the folders stored beneath a data root.
	// The data root is fixed at construction.
	Library struct {
		dataRoot   string
		outputName string
		scanner    folderScanner
	}
)

func New(dataRoot string, outputName string, scanner folderScanner) *Library {
	return &Library{dataRoot: filepath.Clean(dataRoot), outputName: outputName, scanner: scanner}
}

// ListFolders returns the names of the directories (or links to
// directories) directly beneath the data root, sorted by name.
func (library *Library) ListFolders() ([]string, error) {
	entries, err := os.ReadDir(library.dataRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list data root '%s': %w", library.dataRoot, err)
	}

	folders := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(library.dataRoot, entry.Name())); err == nil && info.IsDir() {
				folders = append(folders, entry.Name())
			}
		}
	}

	return folders, nil
}

// Resolve converts a folder name, relative to the data root, to an
// absolute path. Names which escape the data root (or are the data root
// itself) are rejected with ErrFolderInvalid; names which do not refer to
// an existing directory yield ErrFolderNotFound.
func (library *Library) Resolve(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" || filepath.IsAbs(folder) {
		return "", ErrFolderInvalid
	}

	target := filepath.Join(library.dataRoot, folder)
	rel, err := filepath.Rel(library.dataRoot, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrFolderInvalid
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: '%s'", ErrFolderNotFound, folder)
	}

	return target, nil
}

// ScanFolder scans the folder provided and writes the results to the
// configured output file inside of it. Results are only written when the
// scan completes; an interrupted scan writes nothing.
func (library *Library) ScanFolder(ctx context.Context, folder string) (*Report, error) {
	target, err := library.Resolve(folder)
	if err != nil {
		return nil, err
	}

	result, err := library.scanner.Run(ctx, target)
	if err != nil {
		if errors.Is(err, scan.ErrRootNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrFolderNotFound, err)
		}

		return nil, err
	}

	report := &Report{
		ScanID:     result.ID,
		OutputFile: filepath.Join(target, library.outputName),
		Probed:     len(result.Files),
		Failures:   result.Failures,
	}
	if err := export.WriteFile(report.OutputFile, result.Files); err != nil {
		log.Errorf("Scan %s of '%s' could not be saved: %s\n", result.ID, folder, err)
		return report, err
	}

	return report, nil
}
