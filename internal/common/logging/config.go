package logging

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type LogFormat string

const (
	FormatText      LogFormat = "text"
	FormatColourful LogFormat = "colourful"
	FormatJSON      LogFormat = "json"
)

var validLogFormats = map[LogFormat]bool{
	FormatText:      true,
	FormatColourful: true,
	FormatJSON:      true,
}

// Config defines jointester logging configuration.
type Config struct {
	// Defines configuration for console logging on stdout
	Console struct {
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text, colourful or json
		Format LogFormat `yaml:"format"`
	} `yaml:"console"`
	// Defines configuration for file logging
	File struct {
		// Whether file logging is enabled.
		Enabled bool `yaml:"enabled"`
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text, colourful or json
		Format LogFormat `yaml:"format"`
		// The Location of the logfile on disk
		LogFile string `yaml:"logfile"`
		// Log Rotation Options
		Rotation struct {
			// Whether Log Rotation is enabled
			Enabled bool `yaml:"enabled"`
			// Maximum size in megabytes of the log file before it gets rotated
			MaxSizeMb int `yaml:"maxSizeMb"`
			// Maximum number of old log files to retain
			MaxBackups int `yaml:"maxBackups"`
			// Maximum number of days to retain old log files
			MaxAgeDays int `yaml:"maxAgeDays"`
			// Whether to compress rotated log files
			Compress bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"file"`
}

// defaultConfig is used when no logging config file exists, so the tool can be run from any directory.
func defaultConfig() Config {
	var c Config
	c.Console.Level = "info"
	c.Console.Format = FormatColourful
	return c
}

func readConfig(configFilePath string) (Config, error) {
	yamlConfig, err := os.ReadFile(configFilePath)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read log config file %s", configFilePath)
	}

	var config Config
	if err := yaml.Unmarshal(yamlConfig, &config); err != nil {
		return Config{}, errors.Wrapf(err, "failed to unmarshall log config file %s", configFilePath)
	}
	if err := validate(config); err != nil {
		return Config{}, errors.Wrapf(err, "invalid log configuration in %s", configFilePath)
	}
	return config, nil
}

func validate(c Config) error {
	_, err := parseLogLevel(c.Console.Level)
	if err != nil {
		return err
	}

	err = validateLogFormat(c.Console.Format)
	if err != nil {
		return err
	}

	if c.File.Enabled {
		_, err := parseLogLevel(c.File.Level)
		if err != nil {
			return err
		}

		err = validateLogFormat(c.File.Format)
		if err != nil {
			return err
		}

		if c.File.LogFile == "" {
			return errors.New("file.logfile must be set when file logging is enabled")
		}

		rotation := c.File.Rotation
		if rotation.Enabled {
			if rotation.MaxSizeMb <= 0 {
				return errors.New("rotation.maxSizeMb must be greater than zero")
			}
			if rotation.MaxBackups <= 0 {
				return errors.New("rotation.maxBackups must be greater than zero")
			}
			if rotation.MaxAgeDays <= 0 {
				return errors.New("rotation.maxAgeDays must be greater than zero")
			}
		}
	}

	return nil
}

func validateLogFormat(f LogFormat) error {
	if !validLogFormats[f] {
		valid := make([]string, 0, len(validLogFormats))
		for k := range validLogFormats {
			valid = append(valid, string(k))
		}
		sort.Strings(valid)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, strings.Join(valid, ", "))
	}
	return nil
}

func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "panic":
		return zerolog.PanicLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}
