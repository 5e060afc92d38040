package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/luna/adapter"
	"github.com/mklimuk/luna/i2c"
	"github.com/mklimuk/luna/snsctx"
	"github.com/mklimuk/luna/tfluna"
	"github.com/mklimuk/luna/uart"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
	adapterUART    = "uart"
	adapterMock    = "mock"
)

var sensorFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable verbose logging with raw byte dumps",
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   adapterGeneric,
		Usage:   "transport: mcp2221, generic (periph i2c), nanopi (gobot i2c), uart or mock",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c bus (default /dev/i2c-1) or serial port (default /dev/ttyUSB0)",
	},
	&cli.IntFlag{
		Name:  "bus",
		Value: -1,
		Usage: "gobot i2c bus number for the nanopi adapter (-1 uses the board default)",
	},
	&cli.IntFlag{
		Name:  "baud",
		Value: uart.DefaultBaudRate,
		Usage: "serial baud rate for the uart adapter",
	},
	&cli.StringFlag{
		Name:  "addr",
		Value: "0x10",
		Usage: "sensor i2c address",
	},
	&cli.IntFlag{
		Name:  "speed",
		Value: 100,
		Usage: "i2c clock in kHz for the generic adapter",
	},
	&cli.IntFlag{
		Name:  "max-scan",
		Usage: "give up on a serial read after this many bytes without a frame header (0 = wait forever)",
	},
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid i2c address %q: %w", s, err)
	}
	return byte(v), nil
}

func deviceOrDefault(c *cli.Context, def string) string {
	if dev := c.String("device"); dev != "" {
		return dev
	}
	return def
}

// openSensor builds a driver over the selected adapter. The returned cleanup
// releases whatever the adapter opened.
func openSensor(c *cli.Context) (*tfluna.TFLuna, func(), error) {
	ctx := commandContext(c)
	addr, err := parseAddress(c.String("addr"))
	if err != nil {
		return nil, nil, err
	}
	opts := []tfluna.Option{tfluna.WithAddress(addr), tfluna.WithMaxScan(c.Int("max-scan"))}
	cleanup := func() {}

	switch c.String("adapter") {
	case adapterMCP2221:
		a := adapter.NewMCP2221()
		if err := a.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		opts = append(opts, tfluna.WithBus(a))
	case adapterGeneric:
		bus, err := i2c.NewGenericBus(deviceOrDefault(c, "/dev/i2c-1"))
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		if err := bus.SetSpeed(physic.Frequency(c.Int("speed")) * physic.KiloHertz); err != nil {
			slog.Warn("could not set bus speed", "error", err)
		}
		cleanup = func() { closeLogged("bus", bus.Close) }
		opts = append(opts, tfluna.WithBus(bus))
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, c.Int("bus"))
		cleanup = func() {
			closeLogged("bus", bus.Close)
			closeLogged("adaptor", npi.Finalize)
		}
		opts = append(opts, tfluna.WithBus(bus))
	case adapterUART:
		stream, err := uart.Open(deviceOrDefault(c, "/dev/ttyUSB0"), c.Int("baud"))
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		cleanup = func() { closeLogged("serial port", stream.Close) }
		opts = append(opts, tfluna.WithStream(stream))
	case adapterMock:
		return nil, nil, fmt.Errorf("the mock adapter only supports read")
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}

	s, err := tfluna.New(opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	slog.Debug("sensor opened", "adapter", c.String("adapter"), "transport", s.Transport())
	return s, cleanup, nil
}

func closeLogged(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		slog.Error("close failed", "resource", what, "error", err)
	}
}
