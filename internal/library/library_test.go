package library_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hbomb79/vidprobe/internal/library"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/labstack/gommon/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tfs "gotest.tools/v3/fs"
)

type stubProber struct{}

func (stubProber) Probe(_ context.Context, path string) (probe.Document, error) {
	return probe.Document{"format": map[string]any{"filename": filepath.Base(path)}}, nil
}

func newLibrary(t *testing.T, ops ...tfs.PathOp) (*library.Library, *tfs.Dir) {
	dir := tfs.NewDir(t, "data", ops...)
	return library.New(dir.Path(), "probe_results.json", scan.New(stubProber{}, scan.Config{Concurrency: 2})), dir
}

func TestListFolders_OnlyDirectories(t *testing.T) {
	lib, dir := newLibrary(t,
		tfs.WithDir("movies"),
		tfs.WithDir("anime", tfs.WithDir("nested")),
		tfs.WithFile("stray.mp4", ""),
	)
	if runtime.GOOS != "windows" {
		require.Nil(t, os.Symlink(dir.Join("movies"), dir.Join("linked")))
	}

	folders, err := lib.ListFolders()
	require.Nil(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, []string{"anime", "movies"}, folders)
	} else {
		assert.Equal(t, []string{"anime", "linked", "movies"}, folders)
	}
}

func TestListFolders_MissingRoot(t *testing.T) {
	lib := library.New(filepath.Join(t.TempDir(), "gone"), "probe_results.json", nil)
	_, err := lib.ListFolders()
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	lib, dir := newLibrary(t, tfs.WithDir("movies", tfs.WithDir("2023")), tfs.WithFile("file.txt", ""))

	path, err := lib.Resolve("movies")
	require.Nil(t, err)
	assert.Equal(t, dir.Join("movies"), path)

	path, err = lib.Resolve(" movies/2023 ")
	require.Nil(t, err)
	assert.Equal(t, dir.Join("movies", "2023"), path)

	for _, invalid := range []string{"", "  ", ".", "..", "../etc", "movies/../..", "/etc"} {
		_, err := lib.Resolve(invalid)
		assert.ErrorIs(t, err, library.ErrFolderInvalid, "folder %q", invalid)
	}

	for _, missing := range []string{random.String(12, random.Alphanumeric), "file.txt"} {
		_, err := lib.Resolve(missing)
		assert.ErrorIs(t, err, library.ErrFolderNotFound, "folder %q", missing)
	}
}

func TestScanFolder_WritesResults(t *testing.T) {
	lib, dir := newLibrary(t, tfs.WithDir("movies",
		tfs.WithFile("a.mp4", ""),
		tfs.WithDir("sub", tfs.WithFile("b.mkv", "")),
		tfs.WithFile("cover.jpg", ""),
	))

	report, err := lib.ScanFolder(context.Background(), "movies")
	require.Nil(t, err)
	assert.Equal(t, dir.Join("movies", "probe_results.json"), report.OutputFile)
	assert.Equal(t, 2, report.Probed)
	assert.Empty(t, report.Failures)

	contents, err := os.ReadFile(report.OutputFile)
	require.Nil(t, err)

	var decoded map[string]map[string]any
	require.Nil(t, json.Unmarshal(contents, &decoded))
	assert.Contains(t, decoded, "a.mp4")
	assert.Contains(t, decoded, filepath.Join("sub", "b.mkv"))
	assert.Len(t, decoded, 2)
}

func TestScanFolder_NotFoundWritesNothing(t *testing.T) {
	lib, dir := newLibrary(t)

	report, err := lib.ScanFolder(context.Background(), "missing")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, library.ErrFolderNotFound)

	_, statErr := os.Stat(dir.Join("missing", "probe_results.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScanFolder_CancelledWritesNothing(t *testing.T) {
	lib, dir := newLibrary(t, tfs.WithDir("movies", tfs.WithFile("a.mp4", "")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := lib.ScanFolder(ctx, "movies")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(dir.Join("movies", "probe_results.json"))
	assert.True(t, os.IsNotExist(statErr))
}
