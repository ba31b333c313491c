package console

import (
	"fmt"
	"io"
	"os"

	"github.com/ericogr/mcp3008-sampler/pkg/output"
	"github.com/ericogr/mcp3008-sampler/pkg/sensor"
)

// ConsoleOutput prints the raw bytes in hex on one line and the decoded
// value on the next.
type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return NewConsoleWriter(os.Stdout) }

func NewConsoleWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(r sensor.Reading) error {
	_, err := fmt.Fprintf(c.w, "%#x %#x %#x\n%d\n", r.Raw[0], r.Raw[1], r.Raw[2], r.Value)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }
