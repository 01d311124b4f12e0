// Package config loads the registration tool configuration from a YAML file
// and environment variables.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/seqsense/pcreg/registration"
)

// EnvPrefix is the prefix of the environment variables overriding the file.
const EnvPrefix = "PCREG_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Estimation is a name accepted by
	// registration.ParseTransformationEstimationType.
	Estimation      string `yaml:"estimation" env:"ESTIMATION"`
	Source          string `yaml:"source" env:"SOURCE"`
	Target          string `yaml:"target" env:"TARGET"`
	Correspondences string `yaml:"correspondences" env:"CORRESPONDENCES"`
	Output          string `yaml:"output" env:"OUTPUT"`
	CameraIntrinsic string `yaml:"camera_intrinsic" env:"CAMERA_INTRINSIC"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL"`
}

func Default() *Config {
	return &Config{
		Estimation: registration.PointToPoint.String(),
		LogLevel:   "info",
	}
}

// Load reads the YAML file if path is not empty and then applies environment
// overrides. environ replaces the process environment if not nil.
func Load(path string, environ map[string]string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	if err := env.ParseWithOptions(c, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	return c, nil
}

// EstimationType returns the parsed estimation type.
func (c *Config) EstimationType() (registration.TransformationEstimationType, error) {
	return registration.ParseTransformationEstimationType(c.Estimation)
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

func (c *Config) Validate() error {
	if _, err := c.EstimationType(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if _, err := c.Level(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if c.Source == "" {
		return errors.Wrap(ErrInvalidConfig, "source is not specified")
	}
	if c.Target == "" {
		return errors.Wrap(ErrInvalidConfig, "target is not specified")
	}
	return nil
}
