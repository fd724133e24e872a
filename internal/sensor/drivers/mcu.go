package drivers

import (
	"context"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// MCU drives the on-board microcontroller's internal temperature tap. The
// actual register/ADC access is a platform detail out of spec.md §1's
// scope ("Physical transport drivers ... treated as opaque 'read raw
// sensor' capabilities"), so this driver is parameterized by the read hook
// the platform layer supplies.
type MCU struct {
	readTempC func() (float64, error)
	enabled   bool
}

func NewMCU(readTempC func() (float64, error)) *MCU {
	return &MCU{readTempC: readTempC}
}

func (m *MCU) ID() sensor.ID { return sensor.Mcu }

func (m *MCU) WarmupDuration() time.Duration { return 0 }

func (m *MCU) Init(ctx context.Context) error { return nil }

func (m *MCU) Enable(ctx context.Context) error {
	m.enabled = true
	return nil
}

func (m *MCU) Disable(ctx context.Context) error {
	m.enabled = false
	return nil
}

func (m *MCU) Read(ctx context.Context) (sensor.Reading, error) {
	if !m.enabled {
		return nil, sensor.NewError(sensor.KindInvalidState, "mcu.read", nil)
	}
	t, err := m.readTempC()
	if err != nil {
		return nil, sensor.NewError(sensor.KindBusError, "mcu.read", err)
	}
	return sensor.McuReading{TempC: t}, nil
}

func (m *MCU) Reset(ctx context.Context) error {
	return sensor.Unsupported("mcu.reset")
}

func (m *MCU) Calibrate(ctx context.Context, arg float64) error {
	return sensor.Unsupported("mcu.calibrate")
}
