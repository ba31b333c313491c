package sensor

import (
	"math/rand"

	"github.com/ericogr/mcp3008-sampler/pkg/config"
	"github.com/ericogr/mcp3008-sampler/pkg/spibus"
)

// NewFakeSensor returns an MCP3008Sensor on a simulated bus whose replies
// carry random 10-bit values framed the way the chip frames them.
func NewFakeSensor(cfg config.Config) (Sensor, error) {
	return NewMCP3008SensorConn(NewSimulatedBus(), cfg.FilterWindow)
}

// NewSimulatedBus returns a fake bus answering every read with a random value.
func NewSimulatedBus() *spibus.Fake {
	return &spibus.Fake{Respond: func([]byte) []byte {
		v := rand.Intn(1024)
		// the null bit ahead of B9 reads as zero
		return []byte{0x00, byte(v>>8) & 0x03, byte(v)}
	}}
}
