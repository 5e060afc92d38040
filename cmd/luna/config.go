package main

import (
	"context"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/luna/cmd/luna/console"
	"github.com/mklimuk/luna/tfluna"
)

// withSensor wraps an action that needs an open driver.
func withSensor(action func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, cleanup, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer cleanup()
		return action(commandContext(c), c, s)
	}
}

// simpleCommand sends a single argument-free register command.
func simpleCommand(name, usage, done string, send func(ctx context.Context, s *tfluna.TFLuna) error) cli.Command {
	return cli.Command{
		Name:  name,
		Usage: usage,
		Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
			if err := send(ctx, s); err != nil {
				return console.Exit(1, "%s failed: %s", name, console.Red(err))
			}
			console.Infof("%s", done)
			return nil
		}),
	}
}

func confirmFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "do not ask for confirmation",
	}
}

// confirmed asks before a disruptive command unless --yes was given.
func confirmed(c *cli.Context, question string) (bool, error) {
	if c.Bool("yes") {
		return true, nil
	}
	answer, err := console.YesOrNo(question)
	if err != nil {
		return false, err
	}
	return answer == console.Yes, nil
}

var modeCmd = cli.Command{
	Name:      "mode",
	Usage:     "set measurement mode",
	ArgsUsage: "continuous|trigger",
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		mode, err := tfluna.ParseMode(c.Args().First())
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := s.SetMode(ctx, mode); err != nil {
			return console.Exit(1, "could not set mode: %s", console.Red(err))
		}
		console.Infof("mode %s requested", console.Green(mode))
		return nil
	}),
}

var triggerCmd = cli.Command{
	Name:  "trigger",
	Usage: "trigger a single measurement (trigger mode only)",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "read",
			Usage: "read the measurement after triggering",
		},
		&cli.DurationFlag{
			Name:  "settle",
			Value: 100 * time.Millisecond,
			Usage: "wait between trigger and read",
		},
	},
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		if err := s.TriggerMeasurement(ctx); err != nil {
			return console.Exit(1, "could not trigger measurement: %s", console.Red(err))
		}
		if !c.Bool("read") {
			console.Infof("measurement triggered")
			return nil
		}
		// the sensor has no data-ready signal
		timer := time.NewTimer(c.Duration("settle"))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		m, err := s.Read(ctx)
		if err != nil {
			return console.Exit(1, "error reading sensor: %s", console.Red(err))
		}
		printMeasurement(m)
		return nil
	}),
}

var frameRateCmd = cli.Command{
	Name:      "framerate",
	Aliases:   []string{"fps"},
	Usage:     "set measurement frequency",
	ArgsUsage: "<1-250>",
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		fps, err := strconv.Atoi(c.Args().First())
		if err != nil {
			return console.Exit(1, "invalid frame rate %q", c.Args().First())
		}
		if err := s.SetFrameRate(ctx, fps); err != nil {
			return console.Exit(1, "could not set frame rate: %s", console.Red(err))
		}
		console.Infof("frame rate %s Hz requested", console.Green(fps))
		return nil
	}),
}

var powerCmd = cli.Command{
	Name:      "power",
	Usage:     "set power mode",
	ArgsUsage: "normal|low",
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		mode, err := tfluna.ParsePowerMode(c.Args().First())
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := s.SetPowerMode(ctx, mode); err != nil {
			return console.Exit(1, "could not set power mode: %s", console.Red(err))
		}
		console.Infof("power mode %s requested", console.Green(mode))
		return nil
	}),
}

var enableCmd = simpleCommand("enable", "start measurements", "enable sent",
	func(ctx context.Context, s *tfluna.TFLuna) error { return s.EnableSensor(ctx) })

var disableCmd = simpleCommand("disable", "stop measurements", "disable sent",
	func(ctx context.Context, s *tfluna.TFLuna) error { return s.DisableSensor(ctx) })

var saveCmd = simpleCommand("save", "persist current settings on the sensor", "save requested",
	func(ctx context.Context, s *tfluna.TFLuna) error { return s.SaveSettings(ctx) })

var defaultsCmd = cli.Command{
	Name:  "defaults",
	Usage: "restore factory settings",
	Flags: []cli.Flag{confirmFlag()},
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		ok, err := confirmed(c, "restore factory defaults?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if !ok {
			console.Warnf("aborted")
			return nil
		}
		if err := s.RestoreDefaults(ctx); err != nil {
			return console.Exit(1, "could not restore defaults: %s", console.Red(err))
		}
		console.Infof("factory defaults requested")
		return nil
	}),
}

var rebootCmd = cli.Command{
	Name:  "reboot",
	Usage: "restart the sensor",
	Flags: []cli.Flag{confirmFlag()},
	Action: withSensor(func(ctx context.Context, c *cli.Context, s *tfluna.TFLuna) error {
		ok, err := confirmed(c, "reboot sensor?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if !ok {
			console.Warnf("aborted")
			return nil
		}
		if err := s.Reboot(ctx); err != nil {
			return console.Exit(1, "could not reboot: %s", console.Red(err))
		}
		console.Infof("reboot requested")
		return nil
	}),
}
