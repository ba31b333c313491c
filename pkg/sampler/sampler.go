// Package sampler drives the read, report, delay cycle.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericogr/mcp3008-sampler/pkg/output"
	"github.com/ericogr/mcp3008-sampler/pkg/sensor"
)

// DefaultInterval is the delay between the end of one cycle and the next transfer.
const DefaultInterval = 250 * time.Millisecond

// Target is an output with its own minimum publish interval. A zero Every
// publishes on every cycle.
type Target struct {
	Name   string
	Output output.Output
	Every  time.Duration

	last time.Time
}

type Sampler struct {
	sensor   sensor.Sensor
	targets  []*Target
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// New returns a sampler reading s every interval. A non-positive interval
// means DefaultInterval.
func New(s sensor.Sensor, interval time.Duration, targets ...*Target) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{sensor: s, targets: targets, interval: interval, now: time.Now, logger: slog.Default()}
}

// Run samples until ctx is cancelled, returning nil, or until a read or
// publish fails, returning that error. Run never closes the sensor or outputs.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("sampling started", "interval", s.interval, "outputs", len(s.targets))
	defer s.logger.Info("sampling stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.Step(); err != nil {
			return err
		}
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Step performs a single read and reports it to every due target.
func (s *Sampler) Step() error {
	r, err := s.sensor.Read()
	if err != nil {
		return err
	}
	s.logger.Debug("sample", "raw", fmt.Sprintf("% x", r.Raw[:]), "value", r.Value, "filtered", r.Filtered)

	now := s.now()
	for _, t := range s.targets {
		if t.Every > 0 && !t.last.IsZero() && now.Sub(t.last) < t.Every {
			continue
		}
		if err := t.Output.Publish(r); err != nil {
			return fmt.Errorf("publish %s: %w", t.Name, err)
		}
		t.last = now
	}
	return nil
}
