package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/luna/cmd/luna/console"
	"github.com/mklimuk/luna/tfluna"
)

type reading struct {
	Time         time.Time `yaml:"time"`
	DistanceCm   uint16    `yaml:"distance_cm"`
	Strength     uint16    `yaml:"strength"`
	TemperatureC float64   `yaml:"temperature_c"`
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read distance, signal strength and temperature",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   1,
			Usage:   "number of readings, 0 reads until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 100 * time.Millisecond,
			Usage: "delay between readings",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "output format: text or yaml",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		var sensor tfluna.Rangefinder
		if c.String("adapter") == adapterMock {
			sensor = simulatedSensor()
		} else {
			s, cleanup, err := openSensor(c)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			defer cleanup()
			sensor = s
		}
		var enc *yaml.Encoder
		if c.String("format") == "yaml" {
			enc = yaml.NewEncoder(console.Output())
			defer func() { _ = enc.Close() }()
		}
		return poll(ctx, sensor, c.Int("count"), c.Duration("interval"), func(m tfluna.Measurement) error {
			if enc != nil {
				return enc.Encode(reading{
					Time:         time.Now(),
					DistanceCm:   m.Distance,
					Strength:     m.Strength,
					TemperatureC: m.Temperature(),
				})
			}
			printMeasurement(m)
			return nil
		})
	},
}

// poll reads count measurements (forever when count is 0). Garbled frames
// are skipped and retried; any other failure ends the loop.
func poll(ctx context.Context, sensor tfluna.Rangefinder, count int, interval time.Duration, out func(tfluna.Measurement) error) error {
	for i := 0; count == 0 || i < count; {
		m, err := sensor.Read(ctx)
		switch {
		case errors.Is(err, tfluna.ErrChecksumMismatch):
			slog.Warn("discarding frame", "error", err)
			continue
		case err != nil:
			return console.Exit(1, "error reading sensor: %s", console.Red(err))
		}
		if err := out(m); err != nil {
			return console.Exit(1, "output error: %s", console.Red(err))
		}
		i++
		if count != 0 && i == count {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
	return nil
}

func printMeasurement(m tfluna.Measurement) {
	console.Printf("%s %s cm  %s %s  %s %s °C\n",
		console.PictoRuler, console.White(m.Distance),
		console.PictoSignal, console.White(m.Strength),
		console.PictoThermometer, console.White(m.Temperature()))
}

// simulatedSensor wanders around 1.2 m at a plausible chip temperature.
func simulatedSensor() *tfluna.MockRangefinder {
	dist := 120
	return tfluna.NewMockRangefinder(func(ctx context.Context) (tfluna.Measurement, error) {
		dist += rand.Intn(7) - 3
		if dist < 20 {
			dist = 20
		}
		return tfluna.Measurement{
			Distance:       uint16(dist),
			Strength:       uint16(800 + rand.Intn(200)),
			TemperatureRaw: 2248 + uint16(rand.Intn(16)),
		}, nil
	})
}
