package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SensorReal       = "real"
	SensorSimulation = "simulation"

	OutputConsole = "console"
	OutputMQTT    = "mqtt"
)

type SPIConfig struct {
	Bus        int `json:"bus"`
	ChipSelect int `json:"chip_select"`
}

type MQTTConfig struct {
	Server            string `json:"server"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	ClientID          string `json:"client_id"`
	StateTopic        string `json:"state_topic"`
	DiscoveryTopic    string `json:"discovery_topic,omitempty"`
	DiscoveryName     string `json:"discovery_name,omitempty"`
	DiscoveryUniqueID string `json:"discovery_unique_id,omitempty"`
}

type OutputConfig struct {
	Type       string      `json:"type"`
	IntervalMs int         `json:"interval_ms,omitempty"`
	MQTT       *MQTTConfig `json:"mqtt,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	SPI          SPIConfig      `json:"spi"`
	SensorType   string         `json:"sensor_type"`
	IntervalMs   int            `json:"interval_ms"`
	FilterWindow int            `json:"filter_window"`
	Outputs      []OutputConfig `json:"outputs"`
	Log          LogConfig      `json:"log"`
}

func DefaultConfig() Config {
	return Config{
		SPI:          SPIConfig{Bus: 0, ChipSelect: 0},
		SensorType:   SensorReal,
		IntervalMs:   250,
		FilterWindow: 0,
		Outputs:      []OutputConfig{{Type: OutputConsole}},
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Server:     "tcp://localhost:1883",
		ClientID:   "mcp3008-sampler",
		StateTopic: "mcp3008/channel/0",
	}
}

// Interval is the delay between samples.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// LoadFromFlags loads configuration from the process arguments.
func LoadFromFlags() (Config, error) {
	return Load(os.Args[1:])
}

// Load reads an optional JSON file named by -config and then applies flags.
// Flags override values present in the JSON file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("mcp3008-sampler", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to JSON config file")
	flagBus := fs.Int("spi-bus", -1, "SPI bus index (0 -> /dev/spidev0.x)")
	flagCS := fs.Int("spi-cs", -1, "SPI chip-select index")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagInterval := fs.Int("interval-ms", -1, "Delay between samples in ms")
	flagFilter := fs.Int("filter-window", -1, "Moving average window in samples (0 disables)")
	flagOutputs := fs.String("outputs", "", "Comma-separated outputs (console,mqtt)")
	flagOutputIntervals := fs.String("output-intervals", "", "Comma-separated output intervals e.g. console=0,mqtt=5000")
	flagMQTTServer := fs.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := fs.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := fs.String("mqtt-pass", "", "MQTT password")
	flagClientID := fs.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := fs.String("mqtt-topic", "", "MQTT state topic")
	flagDiscovery := fs.String("mqtt-discovery-topic", "", "Home Assistant discovery topic")
	flagLogLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	flagLogFormat := fs.String("log-format", "", "log format: text|json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if *flagBus != -1 {
		cfg.SPI.Bus = *flagBus
	}
	if *flagCS != -1 {
		cfg.SPI.ChipSelect = *flagCS
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagFilter != -1 {
		cfg.FilterWindow = *flagFilter
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: strings.ToLower(p)})
		}
		cfg.Outputs = outs
	}
	if *flagOutputIntervals != "" {
		intervals, err := parseKeyIntMap(*flagOutputIntervals)
		if err != nil {
			return cfg, fmt.Errorf("output-intervals: %w", err)
		}
		for i := range cfg.Outputs {
			if v, ok := intervals[cfg.Outputs[i].Type]; ok {
				cfg.Outputs[i].IntervalMs = v
			}
		}
	}
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" || *flagDiscovery != "" {
		apply := func(m *MQTTConfig) {
			if *flagMQTTServer != "" {
				m.Server = *flagMQTTServer
			}
			if *flagMQTTUser != "" {
				m.Username = *flagMQTTUser
			}
			if *flagMQTTPass != "" {
				m.Password = *flagMQTTPass
			}
			if *flagClientID != "" {
				m.ClientID = *flagClientID
			}
			if *flagTopic != "" {
				m.StateTopic = *flagTopic
			}
			if *flagDiscovery != "" {
				m.DiscoveryTopic = *flagDiscovery
			}
		}
		// Apply MQTT flags to all mqtt outputs; if none exist, create one.
		applied := false
		for i := range cfg.Outputs {
			if cfg.Outputs[i].Type == OutputMQTT {
				if cfg.Outputs[i].MQTT == nil {
					m := DefaultMQTTConfig()
					cfg.Outputs[i].MQTT = &m
				}
				apply(cfg.Outputs[i].MQTT)
				applied = true
			}
		}
		if !applied {
			m := DefaultMQTTConfig()
			apply(&m)
			cfg.Outputs = append(cfg.Outputs, OutputConfig{Type: OutputMQTT, MQTT: &m})
		}
	}
	if *flagLogLevel != "" {
		cfg.Log.Level = *flagLogLevel
	}
	if *flagLogFormat != "" {
		cfg.Log.Format = *flagLogFormat
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values a sampler cannot run with.
func (c Config) Validate() error {
	if c.SPI.Bus < 0 || c.SPI.ChipSelect < 0 {
		return fmt.Errorf("invalid spi device %d.%d", c.SPI.Bus, c.SPI.ChipSelect)
	}
	switch c.SensorType {
	case SensorReal, SensorSimulation:
	default:
		return fmt.Errorf("unknown sensor type %q", c.SensorType)
	}
	if c.IntervalMs <= 0 {
		return errors.New("interval-ms must be > 0")
	}
	if c.FilterWindow < 0 {
		return errors.New("filter-window must be >= 0")
	}
	if len(c.Outputs) == 0 {
		return errors.New("at least one output is required")
	}
	for _, o := range c.Outputs {
		switch o.Type {
		case OutputConsole, OutputMQTT:
		default:
			return fmt.Errorf("unknown output type %q", o.Type)
		}
		if o.IntervalMs < 0 {
			return fmt.Errorf("output %s: interval_ms must be >= 0", o.Type)
		}
	}
	return nil
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseKeyIntMap parses "a=1,b=2" into a map.
func parseKeyIntMap(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid entry '%s'", p)
		}
		v, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid value in '%s': %w", p, err)
		}
		out[strings.TrimSpace(kv[0])] = v
	}
	return out, nil
}

// MQTTSettings returns the output's MQTT settings with defaults filled in.
func (o OutputConfig) MQTTSettings() MQTTConfig {
	def := DefaultMQTTConfig()
	if o.MQTT == nil {
		return def
	}
	m := *o.MQTT
	if m.Server == "" {
		m.Server = def.Server
	}
	if m.ClientID == "" {
		m.ClientID = def.ClientID
	}
	if m.StateTopic == "" {
		m.StateTopic = def.StateTopic
	}
	return m
}
