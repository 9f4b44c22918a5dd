package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

const DefaultOutputName = "probe_results.json"

// Config is the struct used to contain the various user config
// supplied by file and/or environment variables. It is loaded once at
// startup and treated as read-only thereafter.
type Config struct {
	// DataRoot is the directory whose (top-level) subdirectories are
	// offered for scanning over HTTP.
	DataRoot string `yaml:"data_root" env:"VIDPROBE_DATA_ROOT" env-default:"/data" validate:"required"`

	HostAddr string `yaml:"host" env:"VIDPROBE_HOST_ADDR" env-default:"0.0.0.0:8080" validate:"required,hostname_port"`

	// OutputName is the file name results are written to inside a scanned
	// folder when scanning via HTTP
	OutputName string `yaml:"output_name" env:"VIDPROBE_OUTPUT_NAME" env-default:"probe_results.json" validate:"required"`

	Concurrency int          `yaml:"concurrency" env:"VIDPROBE_CONCURRENCY" env-default:"0" validate:"min=0"`
	LogLevel    string       `yaml:"log_level" env:"VIDPROBE_LOG_LEVEL" env-default:"info" validate:"oneof=verbose debug info warning error"`
	Probe       probe.Config `yaml:"probe"`
}

// Load reads the configuration from the YAML file at the path provided (if
// any), applying environment variable overrides and defaults. Paths are
// home-expanded and the result is validated before being returned.
func Load(configPath string) (*Config, error) {
	config := &Config{}
	if configPath != "" {
		path, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path - %v", err)
		}

		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from '%s' - %v", path, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment - %v", err)
	}

	if err := config.expandPaths(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the config against the constraints described
// by the struct tags.
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration invalid - %v", err)
	}

	if strings.ContainsAny(config.OutputName, `/\`) || config.OutputName == "." || config.OutputName == ".." {
		return fmt.Errorf("configuration invalid - output_name '%s' must be a plain file name", config.OutputName)
	}

	return nil
}

func (config *Config) expandPaths() error {
	dataRoot, err := homedir.Expand(config.DataRoot)
	if err != nil {
		return fmt.Errorf("failed to expand data_root '%s' - %v", config.DataRoot, err)
	}
	config.DataRoot = filepath.Clean(dataRoot)

	binary, err := homedir.Expand(config.Probe.BinaryPath)
	if err != nil {
		return fmt.Errorf("failed to expand ffprobe binary path '%s' - %v", config.Probe.BinaryPath, err)
	}
	config.Probe.BinaryPath = binary

	return nil
}
