package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/hbomb79/vidprobe/internal/app"
)

// Version can be overridden during build using ldflags
var Version = "development"

func main() {
	if err := app.New(Version, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
}
