package logger_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/hbomb79/vidprobe/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level logger.LogStatus) *bytes.Buffer {
	buf := &bytes.Buffer{}
	noColor := color.NoColor
	color.NoColor = true

	logger.SetOutput(buf)
	logger.SetMinLoggingLevel(level.Level())
	t.Cleanup(func() {
		color.NoColor = noColor
		logger.SetMinLoggingLevel(logger.INFO.Level())
	})

	return buf
}

func TestEmit_FormatsNameAndStatus(t *testing.T) {
	buf := captureOutput(t, logger.VERBOSE)

	logger.Get("Scanner").Warnf("skipping %s\n", "a.mp4")
	assert.Regexp(t, `^\[Scanner\] *\(!\) skipping a\.mp4\n$`, buf.String())
}

func TestEmit_BelowMinimumDiscarded(t *testing.T) {
	buf := captureOutput(t, logger.WARNING)

	log := logger.Get("Test")
	log.Debugf("hidden\n")
	log.Infof("hidden\n")
	log.Errorf("shown\n")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.VERBOSE, logger.ParseLevel("verbose"))
	assert.Equal(t, logger.DEBUG, logger.ParseLevel(" DEBUG "))
	assert.Equal(t, logger.WARNING, logger.ParseLevel("warn"))
	assert.Equal(t, logger.ERROR, logger.ParseLevel("error"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
}
