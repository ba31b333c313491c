// Package adc holds the MCP3008 single-ended read protocol.
package adc

const (
	// StartBit is the first command byte; the device ignores clocks until it sees it.
	StartBit = 0x01
	// SingleEnded selects single-ended mode. Channel bits follow in the upper nibble.
	SingleEnded = 0x80
	// Channel is the only channel this sampler reads.
	Channel = 0

	// ValueMask keeps the 10 data bits: 2 from the second reply byte, 8 from the third.
	ValueMask = 0x03FF
	// MaxValue is the full-scale reading.
	MaxValue = ValueMask
)

// ReadCommand is the full-duplex frame that reads channel 0. The trailing byte
// is a don't-care clocked out while the low data bits come back.
var ReadCommand = [3]byte{StartBit, SingleEnded | Channel<<4, 0x00}

// Decode extracts the 10-bit conversion result from a raw reply.
// The first reply byte carries no data.
func Decode(raw [3]byte) uint16 {
	return (uint16(raw[1])<<8 | uint16(raw[2])) & ValueMask
}
