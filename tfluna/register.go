package tfluna

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/luna"
	"github.com/mklimuk/luna/snsctx"
)

// DefaultAddress is the factory 7-bit I2C address.
const DefaultAddress = 0x10

// Register map. Values are 16-bit little-endian words.
const (
	regDistance  byte = 0x00
	regStrength  byte = 0x02
	regTemp      byte = 0x04
	regSave      byte = 0x20
	regReboot    byte = 0x21
	regMode      byte = 0x23
	regTrigger   byte = 0x24
	regEnable    byte = 0x25
	regFrameRate byte = 0x26
	regPowerMode byte = 0x28
	regRestore   byte = 0x29
)

type busTransport struct {
	bus  luna.I2CBus
	addr byte
}

func (t busTransport) readWord(ctx context.Context, reg byte) (uint16, error) {
	err := t.bus.WriteToAddr(ctx, t.addr, []byte{reg})
	if err != nil {
		return 0, fmt.Errorf("could not set register pointer %#02x: %w", reg, err)
	}
	buf := make([]byte, 2)
	err = t.bus.ReadFromAddr(ctx, t.addr, buf)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	snsctx.Dump(ctx, "tfluna: register read", buf, "reg", reg)
	return binary.LittleEndian.Uint16(buf), nil
}

func (t busTransport) writeWord(ctx context.Context, reg byte, value uint16) error {
	buf := []byte{reg, 0, 0}
	binary.LittleEndian.PutUint16(buf[1:], value)
	snsctx.Dump(ctx, "tfluna: register write", buf, "reg", reg)
	err := t.bus.WriteToAddr(ctx, t.addr, buf)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", reg, err)
	}
	return nil
}

// measure reads the three measurement registers. Nothing is returned unless
// all three reads succeed.
func (t busTransport) measure(ctx context.Context) (Measurement, error) {
	dist, err := t.readWord(ctx, regDistance)
	if err != nil {
		return Measurement{}, err
	}
	amp, err := t.readWord(ctx, regStrength)
	if err != nil {
		return Measurement{}, err
	}
	temp, err := t.readWord(ctx, regTemp)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{Distance: dist, Strength: amp, TemperatureRaw: temp}, nil
}
