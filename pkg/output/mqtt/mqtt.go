package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ericogr/mcp3008-sampler/pkg/adc"
	"github.com/ericogr/mcp3008-sampler/pkg/config"
	"github.com/ericogr/mcp3008-sampler/pkg/output"
	"github.com/ericogr/mcp3008-sampler/pkg/sensor"
)

const (
	connectTimeout = 10 * time.Second
	disconnectMs   = 250
	// discovery payload keys/values
	keyName                = "name"
	keyStateTopic          = "state_topic"
	keyStateClass          = "state_class"
	keyValueTemplate       = "value_template"
	keyJSONAttributesTopic = "json_attributes_topic"
	keyUniqueID            = "unique_id"
	stateClassMeasurement  = "measurement"
	valueTemplateValue     = "{{ value_json.value }}"
)

// Payload is the JSON document published for each reading.
type Payload struct {
	Raw       [3]byte   `json:"raw"`
	Value     uint16    `json:"value"`
	Filtered  uint16    `json:"filtered"`
	Max       uint16    `json:"max"`
	Timestamp time.Time `json:"timestamp"`
}

type MQTTOutput struct {
	client     mqtt.Client
	stateTopic string
}

// NewMQTT connects to the broker and publishes the discovery document when
// a discovery topic is configured.
func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", cfg.Server)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return newWithClient(client, cfg), nil
}

func newWithClient(client mqtt.Client, cfg config.MQTTConfig) *MQTTOutput {
	m := &MQTTOutput{client: client, stateTopic: cfg.StateTopic}
	if cfg.DiscoveryTopic != "" {
		payload := baseDiscoveryPayload(discoveryName(cfg), m.stateTopic, discoveryUniqueID(cfg))
		if err := publishJSON(client, cfg.DiscoveryTopic, true, payload); err != nil {
			slog.Warn("mqtt discovery publish failed", "topic", cfg.DiscoveryTopic, "err", err)
		}
	}
	return m
}

func (m *MQTTOutput) Publish(r sensor.Reading) error {
	b, err := json.Marshal(NewPayload(r))
	if err != nil {
		return err
	}
	token := m.client.Publish(m.stateTopic, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.stateTopic, err)
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(disconnectMs)
	}
	return nil
}

// NewPayload builds the state document for r.
func NewPayload(r sensor.Reading) Payload {
	return Payload{Raw: r.Raw, Value: r.Value, Filtered: r.Filtered, Max: adc.MaxValue, Timestamp: r.Timestamp}
}

func discoveryName(cfg config.MQTTConfig) string {
	if cfg.DiscoveryName != "" {
		return cfg.DiscoveryName
	}
	return fmt.Sprintf("MCP3008 %s", cfg.ClientID)
}

func discoveryUniqueID(cfg config.MQTTConfig) string {
	if cfg.DiscoveryUniqueID != "" {
		return cfg.DiscoveryUniqueID
	}
	return cfg.ClientID
}

func baseDiscoveryPayload(name, stateTopic, uniqueID string) map[string]interface{} {
	payload := map[string]interface{}{
		keyName:                name,
		keyStateTopic:          stateTopic,
		keyStateClass:          stateClassMeasurement,
		keyValueTemplate:       valueTemplateValue,
		keyJSONAttributesTopic: stateTopic,
	}
	if uniqueID != "" {
		payload[keyUniqueID] = uniqueID
	}
	return payload
}

func publishJSON(client mqtt.Client, topic string, retained bool, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := client.Publish(topic, 0, retained, b)
	token.Wait()
	return token.Error()
}
