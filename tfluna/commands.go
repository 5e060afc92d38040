package tfluna

import (
	"context"
	"fmt"
	"log/slog"
)

// Command writes are fire-and-forget: a nil error means the bus transaction
// completed, not that the sensor applied the setting. The device exposes no
// readback for these registers.

const (
	MinFrameRate = 1
	MaxFrameRate = 250
)

// Mode selects between free-running and triggered measurements.
type Mode uint16

const (
	ModeContinuous Mode = 0
	ModeTrigger    Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("Mode(%d)", uint16(m))
	}
}

// ParseMode accepts "continuous" or "trigger".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "continuous":
		return ModeContinuous, nil
	case "trigger":
		return ModeTrigger, nil
	}
	return 0, newError(InvalidArgument, "parse_mode", fmt.Errorf("mode must be 'continuous' or 'trigger', got %q", s))
}

type PowerMode uint16

const (
	PowerNormal PowerMode = 0
	PowerLow    PowerMode = 1
)

func (p PowerMode) String() string {
	switch p {
	case PowerNormal:
		return "normal"
	case PowerLow:
		return "low"
	default:
		return fmt.Sprintf("PowerMode(%d)", uint16(p))
	}
}

// ParsePowerMode accepts "normal" or "low".
func ParsePowerMode(s string) (PowerMode, error) {
	switch s {
	case "normal":
		return PowerNormal, nil
	case "low":
		return PowerLow, nil
	}
	return 0, newError(InvalidArgument, "parse_power_mode", fmt.Errorf("power mode must be 'normal' or 'low', got %q", s))
}

// busFor checks that op may run on the bound transport. Callers hold s.mx.
func (s *TFLuna) busFor(op string) (busTransport, error) {
	switch s.kind {
	case TransportBus:
		return s.bus, nil
	case TransportStream:
		return busTransport{}, newError(UnsupportedOnTransport, op, fmt.Errorf("%s is only available over I2C", op))
	default:
		return busTransport{}, newError(UnsupportedOnTransport, op, ErrNoTransportBound)
	}
}

// command performs one register write after validate accepts the input.
// The transport check comes first, so a stream-bound driver reports
// UnsupportedOnTransport even for bad input.
func (s *TFLuna) command(ctx context.Context, op string, reg byte, value uint16, validate func() error) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	bus, err := s.busFor(op)
	if err != nil {
		return err
	}
	if validate != nil {
		if err := validate(); err != nil {
			return newError(InvalidArgument, op, err)
		}
	}
	if err := bus.writeWord(ctx, reg, value); err != nil {
		return newError(TransportFailure, op, err)
	}
	slog.Debug("tfluna: command sent", "op", op, "reg", reg, "value", value)
	return nil
}

// SetMode switches between continuous and trigger mode.
func (s *TFLuna) SetMode(ctx context.Context, mode Mode) error {
	return s.command(ctx, "set_mode", regMode, uint16(mode), func() error {
		if mode != ModeContinuous && mode != ModeTrigger {
			return fmt.Errorf("unknown mode %d", uint16(mode))
		}
		return nil
	})
}

// TriggerMeasurement requests a single measurement in trigger mode. There is
// no data-ready signal; allow the sensor time before calling Read.
func (s *TFLuna) TriggerMeasurement(ctx context.Context) error {
	return s.command(ctx, "trigger_measurement", regTrigger, 1, nil)
}

// SetFrameRate sets the measurement frequency in Hz, 1 to 250.
func (s *TFLuna) SetFrameRate(ctx context.Context, fps int) error {
	return s.command(ctx, "set_frame_rate", regFrameRate, uint16(fps), func() error {
		if fps < MinFrameRate || fps > MaxFrameRate {
			return fmt.Errorf("frame rate must be between %d and %d Hz, got %d", MinFrameRate, MaxFrameRate, fps)
		}
		return nil
	})
}

// EnableSensor starts measurements.
func (s *TFLuna) EnableSensor(ctx context.Context) error {
	return s.command(ctx, "enable_sensor", regEnable, 0, nil)
}

// DisableSensor stops measurements.
func (s *TFLuna) DisableSensor(ctx context.Context) error {
	return s.command(ctx, "disable_sensor", regEnable, 1, nil)
}

// SetPowerMode selects normal or low power operation.
func (s *TFLuna) SetPowerMode(ctx context.Context, mode PowerMode) error {
	return s.command(ctx, "set_power_mode", regPowerMode, uint16(mode), func() error {
		if mode != PowerNormal && mode != PowerLow {
			return fmt.Errorf("unknown power mode %d", uint16(mode))
		}
		return nil
	})
}

// RestoreDefaults resets the sensor to factory settings.
func (s *TFLuna) RestoreDefaults(ctx context.Context) error {
	return s.command(ctx, "restore_defaults", regRestore, 1, nil)
}

// SaveSettings persists the current settings on the sensor.
func (s *TFLuna) SaveSettings(ctx context.Context) error {
	return s.command(ctx, "save_settings", regSave, 1, nil)
}

// Reboot restarts the sensor.
func (s *TFLuna) Reboot(ctx context.Context) error {
	return s.command(ctx, "reboot", regReboot, 2, nil)
}
