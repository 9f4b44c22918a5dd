package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hbomb79/vidprobe/internal/config"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.Nil(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.Nil(t, err)

	assert.Equal(t, "/data", cfg.DataRoot)
	assert.Equal(t, "0.0.0.0:8080", cfg.HostAddr)
	assert.Equal(t, config.DefaultOutputName, cfg.OutputName)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, probe.DefaultBinary, cfg.Probe.BinaryPath)
	assert.Equal(t, 60*time.Second, cfg.Probe.Timeout)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
data_root: /srv/media
host: 127.0.0.1:9000
concurrency: 3
log_level: debug
probe:
  binary: /opt/ffmpeg/bin/ffprobe
  timeout: 5s
`)

	cfg, err := config.Load(path)
	require.Nil(t, err)
	assert.Equal(t, "/srv/media", cfg.DataRoot)
	assert.Equal(t, "127.0.0.1:9000", cfg.HostAddr)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", cfg.Probe.BinaryPath)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "data_root: /srv/media\n")
	t.Setenv("VIDPROBE_DATA_ROOT", "/mnt/other")
	t.Setenv("VIDPROBE_PROBE_TIMEOUT", "90s")

	cfg, err := config.Load(path)
	require.Nil(t, err)
	assert.Equal(t, "/mnt/other", cfg.DataRoot)
	assert.Equal(t, 90*time.Second, cfg.Probe.Timeout)
}

func TestLoad_ExpandsHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VIDPROBE_DATA_ROOT", "~/videos")

	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg, err := config.Load("")
	require.Nil(t, err)
	assert.Equal(t, filepath.Join(home, "videos"), cfg.DataRoot)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"log level":   "log_level: loud\n",
		"timeout":     "probe:\n  timeout: -5s\n",
		"concurrency": "concurrency: -1\n",
		"output name": "output_name: ../escape.json\n",
		"host":        "host: not-a-host\n",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, contents))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
