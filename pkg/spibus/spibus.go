// Package spibus owns the SPI device the ADC hangs off.
package spibus

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Speed is the maximum clock rate applied by Configure.
	Speed = 5 * physic.MegaHertz
	// Mode is CPOL=1, CPHA=1.
	Mode = spi.Mode3
	// BitsPerWord is the word size applied by Configure.
	BitsPerWord = 8
)

var (
	// ErrResourceUnavailable is returned when the bus cannot be opened.
	ErrResourceUnavailable = errors.New("spi device unavailable")
	// ErrTransactionFailure is returned when a transfer fails.
	ErrTransactionFailure = errors.New("spi transaction failed")
)

// Settings is the configuration in effect on a connection.
type Settings struct {
	Speed physic.Frequency
	Mode  spi.Mode
	Bits  int
}

// Conn is a configured full-duplex connection to one chip-select.
type Conn interface {
	Configure() error
	Tx(w, r []byte) error
	Settings() Settings
	Close() error
}

// Name returns the periph.io registry name for a bus/chip-select pair.
func Name(bus, cs int) string {
	return fmt.Sprintf("SPI%d.%d", bus, cs)
}

// Device is a Conn backed by a periph.io port.
type Device struct {
	mu       sync.Mutex
	name     string
	port     spi.PortCloser
	conn     spi.Conn
	settings Settings
	closed   bool
}

// Open initializes the host drivers and opens the device node for bus/cs.
func Open(bus, cs int) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w: %w", ErrResourceUnavailable, err)
	}
	name := Name(bus, cs)
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", name, ErrResourceUnavailable, err)
	}
	return newDevice(name, p), nil
}

func newDevice(name string, p spi.PortCloser) *Device {
	return &Device{name: name, port: p}
}

// Configure limits the port to Speed and connects in Mode with BitsPerWord.
func (d *Device) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("configure %s: %w: closed", d.name, ErrResourceUnavailable)
	}
	if err := d.port.LimitSpeed(Speed); err != nil {
		return fmt.Errorf("limit speed %s: %w: %w", d.name, ErrResourceUnavailable, err)
	}
	c, err := d.port.Connect(Speed, Mode, BitsPerWord)
	if err != nil {
		return fmt.Errorf("connect %s: %w: %w", d.name, ErrResourceUnavailable, err)
	}
	d.conn = c
	d.settings = Settings{Speed: Speed, Mode: Mode, Bits: BitsPerWord}
	return nil
}

// Tx writes w and reads len(r) bytes in the same transfer.
func (d *Device) Tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil || d.closed {
		return fmt.Errorf("tx %s: %w: not configured", d.name, ErrTransactionFailure)
	}
	if err := d.conn.Tx(w, r); err != nil {
		return fmt.Errorf("tx %s: %w: %w", d.name, ErrTransactionFailure, err)
	}
	return nil
}

// Settings returns the configuration applied by the last successful Configure.
func (d *Device) Settings() Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// Close releases the port. It is safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.conn = nil
	return d.port.Close()
}

// String returns the periph.io port name.
func (d *Device) String() string { return d.name }
