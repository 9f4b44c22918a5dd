package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fatih/color"
	"github.com/hbomb79/vidprobe/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tfs "gotest.tools/v3/fs"
)

func init() {
	color.NoColor = true
}

// fakeFfprobe writes a shell script which reports the path it was given
// as the filename of the container, failing for any 'corrupt' file.
func fakeFfprobe(t *testing.T) string {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "ffprobe")
	script := `#!/bin/sh
for last; do :; done
case "$last" in
	*corrupt*) echo "Invalid data found when processing input" >&2; exit 1 ;;
esac
printf '{"format":{"filename":"%s"},"streams":[]}' "$last"
`
	require.Nil(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func videoTree(t *testing.T) *tfs.Dir {
	return tfs.NewDir(t, "videos",
		tfs.WithFile("a.mp4", ""),
		tfs.WithFile("notes.txt", ""),
		tfs.WithFile("corrupt.mov", ""),
		tfs.WithDir("sub", tfs.WithFile("b.MKV", "")),
	)
}

func run(t *testing.T, args ...string) (string, error) {
	stdout := &bytes.Buffer{}
	err := app.New("test", stdout, &bytes.Buffer{}).Run(append([]string{"vidprobe"}, args...))
	return stdout.String(), err
}

func decodeMapping(t *testing.T, data []byte) map[string]any {
	var mapping map[string]any
	require.Nil(t, json.Unmarshal(data, &mapping), "output: %s", data)
	return mapping
}

func TestScan_SavesResultsToOutputFile(t *testing.T) {
	bin, dir := fakeFfprobe(t), videoTree(t)
	output := filepath.Join(t.TempDir(), "results.json")

	stdout, err := run(t, "--ffprobe", bin, "-j", "2", "-o", output, dir.Path())
	require.Nil(t, err)
	assert.Equal(t, 0, app.ExitCode(err))
	assert.Equal(t, "Probe results saved to '"+output+"'\n", stdout)

	contents, err := os.ReadFile(output)
	require.Nil(t, err)

	mapping := decodeMapping(t, contents)
	assert.Len(t, mapping, 2)
	assert.Contains(t, mapping, "a.mp4")
	assert.Contains(t, mapping, filepath.Join("sub", "b.MKV"))
}

func TestScan_WritesToStdout(t *testing.T) {
	bin, dir := fakeFfprobe(t), videoTree(t)

	stdout, err := run(t, "--ffprobe", bin, "-o", "-", dir.Path())
	require.Nil(t, err)
	assert.NotContains(t, stdout, "Probe results saved")

	mapping := decodeMapping(t, []byte(stdout))
	assert.Len(t, mapping, 2)
	assert.Equal(t, dir.Join("a.mp4"), mapping["a.mp4"].(map[string]any)["format"].(map[string]any)["filename"])
}

func TestScan_InvalidRootLeavesNoOutput(t *testing.T) {
	bin := fakeFfprobe(t)
	output := filepath.Join(t.TempDir(), "results.json")
	missing := filepath.Join(t.TempDir(), "missing")

	stdout, err := run(t, "--ffprobe", bin, "-o", output, missing)
	require.Error(t, err)
	assert.Equal(t, app.ExitFailure, app.ExitCode(err))
	assert.Contains(t, err.Error(), "Invalid directory")
	assert.Empty(t, stdout)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "expected no output file to be created")
}

func TestScan_SaveFailureDumpsResults(t *testing.T) {
	bin, dir := fakeFfprobe(t), videoTree(t)
	output := filepath.Join(t.TempDir(), "missing-dir", "results.json")

	stdout, err := run(t, "--ffprobe", bin, "-o", output, dir.Path())
	require.Error(t, err)
	assert.Equal(t, app.ExitSaveFailed, app.ExitCode(err))

	mapping := decodeMapping(t, []byte(stdout))
	assert.Len(t, mapping, 2)
	assert.Contains(t, mapping, "a.mp4")

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestScan_RequiresDirectory(t *testing.T) {
	_, err := run(t)
	assert.Equal(t, app.ExitFailure, app.ExitCode(err))

	_, err = run(t, "one", "two")
	assert.Equal(t, app.ExitFailure, app.ExitCode(err))
}

func TestScan_RejectsInvalidOverrides(t *testing.T) {
	dir := videoTree(t)

	_, err := run(t, "--timeout", "-1s", "-o", "-", dir.Path())
	assert.Equal(t, app.ExitFailure, app.ExitCode(err))
}

func TestHelp_ListsExtensions(t *testing.T) {
	stdout, err := run(t, "--help")
	require.Nil(t, err)
	assert.Contains(t, stdout, ".avi .flv .m4v .mkv .mov .mp4 .webm .wmv")
	assert.Contains(t, stdout, "serve")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, app.ExitCode(nil))
	assert.Equal(t, app.ExitFailure, app.ExitCode(errors.New("boom")))
}
