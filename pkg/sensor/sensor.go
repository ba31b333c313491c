package sensor

import "time"

// Reading is one decoded transfer.
type Reading struct {
	Raw       [3]byte   `json:"raw"`
	Value     uint16    `json:"value"`
	Filtered  uint16    `json:"filtered"`
	Timestamp time.Time `json:"timestamp"`
}

type Sensor interface {
	Read() (Reading, error)
	Close() error
}
