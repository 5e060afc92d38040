package tfluna

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of luna.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	// copy so later reuse of buffer by the caller does not alter recorded calls
	args := m.Called(ctx, address, append([]byte(nil), buffer...))
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// expectRegister sets up a register pointer write followed by a 2-byte read.
func (m *MockI2CBus) expectRegister(reg byte, resp []byte, err error) {
	m.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{reg}).Return(nil).Once()
	m.On("ReadFromAddr", mock.Anything, byte(DefaultAddress), mock.Anything).Return(resp, err).Once()
}
