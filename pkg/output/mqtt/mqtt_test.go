package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericogr/mcp3008-sampler/pkg/config"
	"github.com/ericogr/mcp3008-sampler/pkg/sensor"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

// stubClient records publishes; every other mqtt.Client method panics.
type stubClient struct {
	mqtt.Client
	err          error
	sent         []message
	disconnected bool
}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func (c *stubClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestPublishPayload(t *testing.T) {
	c := &stubClient{}
	m := newWithClient(c, config.DefaultMQTTConfig())
	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)

	err := m.Publish(sensor.Reading{Raw: [3]byte{0x01, 0x03, 0xFF}, Value: 1023, Filtered: 1000, Timestamp: ts})
	require.NoError(t, err)
	require.Len(t, c.sent, 1)
	assert.Equal(t, "mcp3008/channel/0", c.sent[0].topic)
	assert.False(t, c.sent[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &got))
	assert.Equal(t, []any{float64(1), float64(3), float64(255)}, got["raw"])
	assert.Equal(t, float64(1023), got["value"])
	assert.Equal(t, float64(1000), got["filtered"])
	assert.Equal(t, float64(1023), got["max"])
	assert.Equal(t, "2025-09-19T14:41:54Z", got["timestamp"])
}

func TestPublishError(t *testing.T) {
	c := &stubClient{err: errors.New("not connected")}
	m := newWithClient(c, config.DefaultMQTTConfig())
	assert.Error(t, m.Publish(sensor.Reading{}))
}

func TestDiscovery(t *testing.T) {
	c := &stubClient{}
	cfg := config.DefaultMQTTConfig()
	cfg.DiscoveryTopic = "homeassistant/sensor/tuner/config"
	newWithClient(c, cfg)

	require.Len(t, c.sent, 1)
	assert.Equal(t, cfg.DiscoveryTopic, c.sent[0].topic)
	assert.True(t, c.sent[0].retained)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &got))
	assert.Equal(t, "MCP3008 mcp3008-sampler", got[keyName])
	assert.Equal(t, "mcp3008/channel/0", got[keyStateTopic])
	assert.Equal(t, "mcp3008-sampler", got[keyUniqueID])
	assert.Equal(t, valueTemplateValue, got[keyValueTemplate])
}

func TestDiscoveryFailureIsNotFatal(t *testing.T) {
	c := &stubClient{err: errors.New("broker gone")}
	cfg := config.DefaultMQTTConfig()
	cfg.DiscoveryTopic = "homeassistant/sensor/tuner/config"
	m := newWithClient(c, cfg)
	assert.NotNil(t, m)
}

func TestClose(t *testing.T) {
	c := &stubClient{}
	m := newWithClient(c, config.DefaultMQTTConfig())
	require.NoError(t, m.Close())
	assert.True(t, c.disconnected)
}
