package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyIntMap(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]int
		ok   bool
	}{
		{"", map[string]int{}, true},
		{"console=0,mqtt=5000", map[string]int{"console": 0, "mqtt": 5000}, true},
		{" console = 250 , mqtt=1000", map[string]int{"console": 250, "mqtt": 1000}, true},
		{"bad", nil, false},
		{"mqtt=soon", nil, false},
	}
	for _, tt := range tests {
		got, err := parseKeyIntMap(tt.in)
		if !tt.ok {
			assert.Error(t, err, "parseKeyIntMap(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "parseKeyIntMap(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseKeyIntMap(%q)", tt.in)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, SPIConfig{Bus: 0, ChipSelect: 0}, cfg.SPI)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval())
	assert.Equal(t, SensorReal, cfg.SensorType)
	assert.Equal(t, []OutputConfig{{Type: OutputConsole}}, cfg.Outputs)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-spi-bus", "1", "-spi-cs", "2",
		"-sensor-type", "simulation",
		"-interval-ms", "100",
		"-filter-window", "20",
		"-outputs", "console, MQTT",
		"-output-intervals", "mqtt=5000",
		"-mqtt-server", "tcp://broker:1883",
		"-mqtt-topic", "radio/tuner",
		"-log-level", "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, SPIConfig{Bus: 1, ChipSelect: 2}, cfg.SPI)
	assert.Equal(t, SensorSimulation, cfg.SensorType)
	assert.Equal(t, 100, cfg.IntervalMs)
	assert.Equal(t, 20, cfg.FilterWindow)

	require.Len(t, cfg.Outputs, 2)
	mq := cfg.Outputs[1]
	assert.Equal(t, OutputMQTT, mq.Type)
	assert.Equal(t, 5000, mq.IntervalMs)
	require.NotNil(t, mq.MQTT)
	assert.Equal(t, "tcp://broker:1883", mq.MQTT.Server)
	assert.Equal(t, "radio/tuner", mq.MQTT.StateTopic)
	assert.Equal(t, "mcp3008-sampler", mq.MQTT.ClientID)

	assert.Equal(t, LogConfig{Level: "debug", Format: "text"}, cfg.Log)
}

func TestLoadMQTTFlagsCreateOutput(t *testing.T) {
	cfg, err := Load([]string{"-mqtt-server", "tcp://10.0.0.2:1883"})
	require.NoError(t, err)
	require.Len(t, cfg.Outputs, 2)
	assert.Equal(t, OutputMQTT, cfg.Outputs[1].Type)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.Outputs[1].MQTT.Server)
}

func TestLoadFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	js := `{"spi": {"bus": 1}, "interval_ms": 500, "outputs": [{"type": "console"}]}`
	require.NoError(t, os.WriteFile(path, []byte(js), 0o600))

	cfg, err := Load([]string{"-config", path, "-interval-ms", "300"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.SPI.Bus, "file value lost")
	assert.Equal(t, 300, cfg.IntervalMs, "flag did not override file")
}

func TestLoadErrors(t *testing.T) {
	cases := [][]string{
		{"-interval-ms", "0"},
		{"-sensor-type", "fake"},
		{"-outputs", "console,stdout"},
		{"-filter-window", "-5"},
		{"-spi-bus", "-3"},
		{"-output-intervals", "console"},
		{"-config", filepath.Join(t.TempDir(), "missing.json")},
		{"-no-such-flag"},
	}
	for _, args := range cases {
		_, err := Load(args)
		assert.Error(t, err, "Load(%v)", args)
	}
}

func TestMQTTSettingsDefaults(t *testing.T) {
	assert.Equal(t, DefaultMQTTConfig(), OutputConfig{Type: OutputMQTT}.MQTTSettings())

	got := OutputConfig{Type: OutputMQTT, MQTT: &MQTTConfig{Username: "u", StateTopic: "t"}}.MQTTSettings()
	assert.Equal(t, MQTTConfig{
		Server:     "tcp://localhost:1883",
		Username:   "u",
		ClientID:   "mcp3008-sampler",
		StateTopic: "t",
	}, got)
}
