package output

import "github.com/ericogr/mcp3008-sampler/pkg/sensor"

type Output interface {
	Publish(sensor.Reading) error
	Close() error
}

// helper constructors are in subpackages
