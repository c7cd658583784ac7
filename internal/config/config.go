// Package config loads adpcmdec settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats understood by adpcmdec.
const (
	FormatWAV  = "wav"
	FormatAIFF = "aiff"
	FormatRaw  = "raw"
)

// DefaultSampleRate is the rate assumed for headerless ADPCM streams.
const DefaultSampleRate = 8000

var (
	errInvalidSampleRate = errors.New("sample rate must be positive")
	errUnknownFormat     = errors.New("unknown output format")
	errUnknownLogLevel   = errors.New("unknown log level")
	errMissingOutput     = errors.New("output path is required")
)

// Config holds the decoding settings.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig describes the ADPCM source.
type InputConfig struct {
	Path       string `yaml:"path"`
	SampleRate int    `yaml:"sample_rate"`
	Nibbles    bool   `yaml:"nibbles"` // one code per byte instead of two
}

// OutputConfig describes the decoded PCM destination.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is empty to defer to the LOG_LEVEL environment variable.
	Level string `yaml:"level"`
}

// Default returns the settings used when neither a file nor flags set a value.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:       "-",
			SampleRate: DefaultSampleRate,
		},
		Output: OutputConfig{
			Format: FormatWAV,
		},
	}
}

// Load reads a YAML file on top of the defaults. The result is not
// validated, callers merge their overrides first and then call Validate.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Input.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", errInvalidSampleRate, c.Input.SampleRate)
	}

	switch c.Output.Format {
	case FormatWAV, FormatAIFF:
		if c.Output.Path == "" || c.Output.Path == "-" {
			return fmt.Errorf("%w for %s output", errMissingOutput, c.Output.Format)
		}
	case FormatRaw:
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, c.Output.Format)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errUnknownLogLevel, c.Logging.Level)
	}

	return nil
}
