package config

import (
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	testString := `
[Source]
    Name = "BCV"
    URL = "https://api.example.com/rates/usd"
    ValuePath = "data.rate"
    TimestampPath = "data.updated_at"
    AuthEnabled = false
    TimeoutInSeconds = 10

[Poll]
    IntervalInSeconds = 1800
    MaxBackoffInSeconds = 7200
    MaxConsecutiveFailures = 3
    DedupTolerance = 0.001

[Storage]
    Path = "money/readings.db"
    RetentionSeconds = 2592000

[Icon]
    Sizes = [16, 32]
    Precision = 2
    MinFontSize = 6

[API]
    Enabled = false
    ListenAddress = "127.0.0.1:9270"
    AuthEnabled = false
`

	expectedCfg := Config{
		Source: SourceConfig{
			Name:             "BCV",
			URL:              "https://api.example.com/rates/usd",
			ValuePath:        "data.rate",
			TimestampPath:    "data.updated_at",
			AuthEnabled:      false,
			TimeoutInSeconds: 10,
		},
		Poll: PollConfig{
			IntervalInSeconds:      1800,
			MaxBackoffInSeconds:    7200,
			MaxConsecutiveFailures: 3,
			DedupTolerance:         0.001,
		},
		Storage: StorageConfig{
			Path:             "money/readings.db",
			RetentionSeconds: 2592000,
		},
		Icon: IconConfig{
			Sizes:       []int{16, 32},
			Precision:   2,
			MinFontSize: 6,
		},
		API: APIConfig{
			Enabled:       false,
			ListenAddress: "127.0.0.1:9270",
			AuthEnabled:   false,
		},
	}

	cfg := Config{}

	err := toml.Unmarshal([]byte(testString), &cfg)
	assert.Nil(t, err)
	assert.Equal(t, expectedCfg, cfg)
}
