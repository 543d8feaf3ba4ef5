// Package config loads the runtime settings that wire the timecode core
// to its ambient collaborators: which variant to decode, what sample rate
// to expect, and where the optional bitlog, metrics, and MQTT sinks live.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration document, following the
// madpsy-ka9q_ubersdr convention of one YAML document per process with a
// nested struct per concern.
type Settings struct {
	Variant    string `yaml:"variant"`
	SampleRate uint32 `yaml:"sample_rate"`

	Bitlog  BitlogSettings  `yaml:"bitlog"`
	Monitor MonitorSettings `yaml:"monitor"`
	Metrics MetricsSettings `yaml:"metrics"`
	MQTT    MQTTSettings    `yaml:"mqtt"`
}

// BitlogSettings controls the optional bit-observer side-channel.
type BitlogSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitorSettings controls the optional scope/monitor grid and its
// websocket transport.
type MonitorSettings struct {
	Enabled bool   `yaml:"enabled"`
	Size    int    `yaml:"size"`
	Addr    string `yaml:"addr"`
}

// MetricsSettings controls the Prometheus exporter.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// MQTTSettings controls the optional position/pitch event publisher.
type MQTTSettings struct {
	Enabled bool   `yaml:"enabled"`
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
}

// defaults mirrors the zero-config experience a caller gets by omitting
// optional sections entirely.
func defaults() Settings {
	return Settings{
		Monitor: MonitorSettings{
			Size: 128,
			Addr: ":7890",
		},
		Metrics: MetricsSettings{
			Addr: ":9090",
		},
		MQTT: MQTTSettings{
			Topic: "timecoder/position",
		},
	}
}

// Load reads and parses a YAML settings document from path, filling in
// defaults for anything the document omits.
func Load(path string) (Settings, error) {
	settings := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if settings.Variant == "" {
		return Settings{}, fmt.Errorf("config %s: variant is required", path)
	}
	if settings.SampleRate == 0 {
		return Settings{}, fmt.Errorf("config %s: sample_rate must be nonzero", path)
	}

	return settings, nil
}
