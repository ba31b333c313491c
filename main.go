package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/mcp3008-sampler/pkg/config"
	"github.com/ericogr/mcp3008-sampler/pkg/logging"
	"github.com/ericogr/mcp3008-sampler/pkg/output"
	"github.com/ericogr/mcp3008-sampler/pkg/output/console"
	"github.com/ericogr/mcp3008-sampler/pkg/output/mqtt"
	"github.com/ericogr/mcp3008-sampler/pkg/sampler"
	"github.com/ericogr/mcp3008-sampler/pkg/sensor"
)

// swapped in tests
var newMQTT = mqtt.NewMQTT

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("sampler failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	s, err := newSensor(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("close sensor", "err", cerr)
		}
	}()

	targets, err := initOutputs(&cfg)
	if err != nil {
		return err
	}
	defer closeOutputs(targets)

	slog.Info("sensor ready", "type", cfg.SensorType, "spi_bus", cfg.SPI.Bus, "spi_cs", cfg.SPI.ChipSelect, "filter_window", cfg.FilterWindow)
	return sampler.New(s, cfg.Interval(), targets...).Run(ctx)
}

func newSensor(cfg config.Config) (sensor.Sensor, error) {
	switch cfg.SensorType {
	case config.SensorSimulation:
		return sensor.NewFakeSensor(cfg)
	case config.SensorReal:
		return sensor.NewMCP3008Sensor(cfg)
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
	}
}

// initOutputs builds one target per configured output. Outputs already built
// are closed if a later one fails.
func initOutputs(cfg *config.Config) ([]*sampler.Target, error) {
	targets := make([]*sampler.Target, 0, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		var out output.Output
		switch o.Type {
		case config.OutputConsole:
			out = console.NewConsole()
		case config.OutputMQTT:
			m, err := newMQTT(o.MQTTSettings())
			if err != nil {
				closeOutputs(targets)
				return nil, err
			}
			out = m
		default:
			closeOutputs(targets)
			return nil, errors.New("unknown output type: " + o.Type)
		}
		targets = append(targets, &sampler.Target{Name: o.Type, Output: out, Every: time.Duration(o.IntervalMs) * time.Millisecond})
	}
	return targets, nil
}

func closeOutputs(targets []*sampler.Target) {
	for _, t := range targets {
		if err := t.Output.Close(); err != nil {
			slog.Warn("close output", "output", t.Name, "err", err)
		}
	}
}
