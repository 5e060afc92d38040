package tfluna

import (
	"context"
)

// MeasurementBehaviorFunc produces a reading or an error for MockRangefinder.
type MeasurementBehaviorFunc func(ctx context.Context) (Measurement, error)

// MockRangefinder is a Rangefinder that needs no hardware. The behavior
// function is called on every Read.
//
// Example usage:
//
//	s := NewMockRangefinder(func(ctx context.Context) (Measurement, error) {
//		return Measurement{Distance: 120, Strength: 800, TemperatureRaw: 2200}, nil
//	})
type MockRangefinder struct {
	behavior MeasurementBehaviorFunc
}

func NewMockRangefinder(behavior MeasurementBehaviorFunc) *MockRangefinder {
	return &MockRangefinder{behavior: behavior}
}

func (m *MockRangefinder) Read(ctx context.Context) (Measurement, error) {
	return m.behavior(ctx)
}
