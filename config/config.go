package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// SourceConfig defines the remote endpoint the value is fetched from
type SourceConfig struct {
	Name             string `toml:"Name"`
	URL              string `toml:"URL"`
	ValuePath        string `toml:"ValuePath"`
	TimestampPath    string `toml:"TimestampPath"`
	AuthEnabled      bool   `toml:"AuthEnabled"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// PollConfig defines the polling cadence and failure handling
type PollConfig struct {
	IntervalInSeconds      uint32  `toml:"IntervalInSeconds"`
	MaxBackoffInSeconds    uint32  `toml:"MaxBackoffInSeconds"`
	MaxConsecutiveFailures uint32  `toml:"MaxConsecutiveFailures"`
	DedupTolerance         float64 `toml:"DedupTolerance"`
}

// StorageConfig defines the history database location and retention
type StorageConfig struct {
	Path             string `toml:"Path"`
	RetentionSeconds int    `toml:"RetentionSeconds"`
}

// IconConfig defines the rendered tray icon parameters
type IconConfig struct {
	Sizes       []int `toml:"Sizes"`
	Precision   int   `toml:"Precision"`
	MinFontSize int   `toml:"MinFontSize"`
}

// APIConfig defines the optional local read-only history API
type APIConfig struct {
	Enabled       bool   `toml:"Enabled"`
	ListenAddress string `toml:"ListenAddress"`
	AuthEnabled   bool   `toml:"AuthEnabled"`
}

// Config maps to the config.toml file for the tray application
type Config struct {
	Source  SourceConfig  `toml:"Source"`
	Poll    PollConfig    `toml:"Poll"`
	Storage StorageConfig `toml:"Storage"`
	Icon    IconConfig    `toml:"Icon"`
	API     APIConfig     `toml:"API"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
