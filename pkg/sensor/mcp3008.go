package sensor

import (
	"fmt"
	"time"

	"github.com/ericogr/mcp3008-sampler/pkg/adc"
	"github.com/ericogr/mcp3008-sampler/pkg/config"
	"github.com/ericogr/mcp3008-sampler/pkg/filter"
	"github.com/ericogr/mcp3008-sampler/pkg/spibus"
)

// MCP3008Sensor reads channel 0 of an MCP3008 over an exclusively owned bus.
type MCP3008Sensor struct {
	conn   spibus.Conn
	filter *filter.MovingAverage
	now    func() time.Time
}

// NewMCP3008Sensor opens and configures the SPI device named by cfg.
func NewMCP3008Sensor(cfg config.Config) (Sensor, error) {
	dev, err := spibus.Open(cfg.SPI.Bus, cfg.SPI.ChipSelect)
	if err != nil {
		return nil, err
	}
	return NewMCP3008SensorConn(dev, cfg.FilterWindow)
}

// NewMCP3008SensorConn configures conn and takes ownership of it. conn is
// closed if configuration fails.
func NewMCP3008SensorConn(conn spibus.Conn, filterWindow int) (*MCP3008Sensor, error) {
	if err := conn.Configure(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &MCP3008Sensor{conn: conn, filter: filter.NewMovingAverage(filterWindow), now: time.Now}, nil
}

func (s *MCP3008Sensor) Read() (Reading, error) {
	tx := adc.ReadCommand
	rx := make([]byte, len(tx))
	if err := s.conn.Tx(tx[:], rx); err != nil {
		return Reading{}, fmt.Errorf("read adc: %w", err)
	}
	var raw [3]byte
	copy(raw[:], rx)
	value := adc.Decode(raw)
	return Reading{Raw: raw, Value: value, Filtered: s.filter.Add(value), Timestamp: s.now()}, nil
}

// Settings reports the bus configuration in effect.
func (s *MCP3008Sensor) Settings() spibus.Settings { return s.conn.Settings() }

func (s *MCP3008Sensor) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
