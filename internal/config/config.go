package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fxnlabs/xgpu-bench/internal/correlator"
)

type LoggerConfig struct {
	Verbosity string `yaml:"verbosity"`
	Encoding  string `yaml:"encoding"`
}

type ProbeConfig struct {
	// Device is auto, cuda, nvml, nvidia-smi, sysfs or none.
	Device      string        `yaml:"device"`
	DeviceIndex int           `yaml:"deviceIndex"`
	SMITimeout  time.Duration `yaml:"smiTimeout"`
	SysfsRoot   string        `yaml:"sysfsRoot"`
	Card        string        `yaml:"card"`
	ProcRoot    string        `yaml:"procRoot"`
}

type CorrelatorConfig struct {
	// Backend is auto, xgpu or cpu.
	Backend               string `yaml:"backend"`
	correlator.Dimensions `yaml:",inline"`
}

type RunConfig struct {
	Seed      uint64 `yaml:"seed"`
	OutputDir string `yaml:"outputDir"`
	Label     string `yaml:"label"`
	Banner    bool   `yaml:"banner"`

	// TextureDim is the texture dimension xGPU was built with; 0 if unknown.
	TextureDim int `yaml:"textureDim"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the Prometheus textfile after each run.
	Textfile string `yaml:"textfile"`
}

type Config struct {
	Logger     LoggerConfig     `yaml:"logger"`
	Probe      ProbeConfig      `yaml:"probe"`
	Correlator CorrelatorConfig `yaml:"correlator"`
	Run        RunConfig        `yaml:"run"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{
			Verbosity: "info",
			Encoding:  "console",
		},
		Probe: ProbeConfig{
			Device:     "auto",
			SMITimeout: 5 * time.Second,
		},
		Correlator: CorrelatorConfig{
			Backend:    "auto",
			Dimensions: correlator.DefaultDimensions(),
		},
		Run: RunConfig{
			Seed:      correlator.DefaultSeed,
			OutputDir: "output",
			Label:     "xGPU Correlator",
			Banner:    true,
		},
	}
}

// LoadConfig reads the YAML file at path over Default. An empty path returns
// the defaults. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks values that would only fail later in a run.
func (c *Config) Validate() error {
	if c.Correlator.Backend != "xgpu" {
		if err := c.Correlator.Dimensions.Validate(); err != nil {
			return err
		}
	}
	if c.Probe.SMITimeout < 0 {
		return fmt.Errorf("probe.smiTimeout must not be negative")
	}
	if c.Run.OutputDir == "" {
		return fmt.Errorf("run.outputDir must not be empty")
	}
	return nil
}
