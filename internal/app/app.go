// Package app defines the vidprobe command line interface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/hbomb79/vidprobe/internal"
	"github.com/hbomb79/vidprobe/internal/config"
	"github.com/hbomb79/vidprobe/internal/export"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/hbomb79/vidprobe/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	ExitFailure     = 1
	ExitSaveFailed  = 2
	ExitInterrupted = 130

	stdoutDestination = "-"
)

var log = logger.Get("CLI")

func init() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Aliases: []string{"V"}, Usage: "print the version"}
}

// New constructs the vidprobe CLI application. Results and confirmation
// messages are written to stdout; diagnostics go through the logger.
//
// Errors are returned from Run rather than exiting the process, use
// ExitCode to find the status the process should exit with.
func New(version string, stdout io.Writer, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "vidprobe",
		Usage: "index the metadata of every video file in a directory using ffprobe",
		Description: fmt.Sprintf("Recursively scans DIRECTORY, probing every file with one of the extensions %s, "+
			"and saves the results as a single JSON object keyed by path relative to DIRECTORY.",
			strings.Join(probe.VideoExtensions(), " ")),
		Version:        version,
		ArgsUsage:      "DIRECTORY",
		Writer:         stdout,
		ErrWriter:      stderr,
		Action:         scanCommand,
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "file to write the results to, or '-' for stdout",
				Value:   config.DefaultOutputName,
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"j"},
				Usage:   "maximum number of ffprobe processes to run at once (default: number of CPUs)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "maximum time to spend probing a single file (0 disables)",
			},
			&cli.StringFlag{
				Name:  "ffprobe",
				Usage: "path to the ffprobe binary",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"VIDPROBE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the HTTP interface for scanning folders inside the data root",
				Action: serveCommand,
			},
		},
	}
}

// ExitCode returns the process exit status for an error returned by
// running the application.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return ExitFailure
}

// loadConfig reads the configuration file (if any) and environment, then
// applies any overrides given on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("timeout") {
		cfg.Probe.Timeout = c.Duration("timeout")
	}
	if c.IsSet("ffprobe") {
		cfg.Probe.BinaryPath = c.String("ffprobe")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if c.Bool("verbose") {
		level = logger.DEBUG
	}
	logger.SetMinLoggingLevel(level.Level())

	return cfg, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// scanCommand is the default action, which scans the directory provided
// and saves the results to the output file.
func scanCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one DIRECTORY argument", ExitFailure)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	scanner, err := internal.NewScanner(*cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	result, err := scanner.Run(ctx, c.Args().First())
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrRootNotFound):
			return cli.Exit(fmt.Sprintf("Invalid directory: %s", err), ExitFailure)
		case ctx.Err() != nil:
			return cli.Exit(fmt.Sprintf("Scan aborted, no results were saved: %s", err), ExitInterrupted)
		default:
			return cli.Exit(fmt.Sprintf("Scan failed, no results were saved: %s", err), ExitFailure)
		}
	}

	output := c.String("output")
	if output == stdoutDestination {
		if err := export.Encode(c.App.Writer, result.Files); err != nil {
			return cli.Exit(err.Error(), ExitSaveFailed)
		}

		return nil
	}

	if err := export.WriteFile(output, result.Files); err != nil {
		return dumpResults(c.App.Writer, err)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Probe results saved to '%s'\n", output)
	return nil
}

// dumpResults writes the mapping carried by a failed export to the writer
// provided so that the results of the scan are not lost.
func dumpResults(w io.Writer, err error) error {
	var exportErr *export.Error
	if errors.As(err, &exportErr) {
		log.Warnf("Writing results to stdout instead\n")
		if encodeErr := export.Encode(w, exportErr.Mapping); encodeErr != nil {
			log.Errorf("Failed to write results to stdout: %s\n", encodeErr)
		}
	}

	return cli.Exit(err.Error(), ExitSaveFailed)
}

// serveCommand starts the HTTP server, blocking until interrupted.
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	srv, err := internal.New(*cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	if err := srv.Run(ctx); err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	log.Emit(logger.STOP, "Shutdown complete\n")
	return nil
}
