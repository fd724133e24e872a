package drivers

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// Senseair S8 Modbus register map (function-code addressing per the
// manufacturer's "Modbus on S8" application note). The S8 is a genuine
// Modbus RTU device over UART, unlike the other sensors in this package —
// this driver is grounded directly on danielkucera-gofutura's use of
// github.com/simonvetter/modbus, generalized from its one hardcoded TCP
// target to the S8's RTU serial link.
const (
	s8RegCO2          uint16 = 0x0003 // input register: CO2 ppm
	s8RegABCTarget    uint16 = 0x0007 // holding register: ABC reference ppm target
	s8RegSpecialCmd   uint16 = 0x0001 // holding register: special command
	s8CmdFactoryCal   uint16 = 0x7C06 // calibrate-to-reference-ppm command word
	s8CalibrateMinPpm        = 370
	s8CalibrateMaxPpm        = 430
)

// S8 drives a Senseair S8 CO2 sensor over Modbus RTU/UART.
type S8 struct {
	client *modbus.ModbusClient
}

// NewS8 constructs a driver over an already-configured Modbus client. The
// caller owns opening/closing the underlying serial port (a UART port is
// dedicated to this sensor per spec.md §5's resource policy).
func NewS8(client *modbus.ModbusClient) *S8 {
	return &S8{client: client}
}

func (s *S8) ID() sensor.ID { return sensor.S8 }

func (s *S8) WarmupDuration() time.Duration { return 2 * time.Minute }

func (s *S8) Init(ctx context.Context) error { return nil }

func (s *S8) Enable(ctx context.Context) error  { return nil }
func (s *S8) Disable(ctx context.Context) error { return nil }

func (s *S8) Read(ctx context.Context) (sensor.Reading, error) {
	regs, err := s.client.ReadRegisters(s8RegCO2, 1, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, sensor.NewError(sensor.KindBusError, "s8.read", err)
	}
	if len(regs) != 1 {
		return nil, sensor.NewError(sensor.KindBusError, "s8.read", fmt.Errorf("unexpected register count %d", len(regs)))
	}
	return sensor.S8Reading{CO2Ppm: float64(regs[0])}, nil
}

func (s *S8) Reset(ctx context.Context) error {
	if err := s.client.WriteRegister(s8RegSpecialCmd, 0xFF); err != nil {
		return sensor.NewError(sensor.KindBusError, "s8.reset", err)
	}
	return nil
}

func (s *S8) Calibrate(ctx context.Context, arg float64) error {
	ppm := int(arg)
	if ppm < s8CalibrateMinPpm || ppm > s8CalibrateMaxPpm {
		return sensor.NewError(sensor.KindInvalidArg, "s8.calibrate", fmt.Errorf("reference ppm %d out of range [%d,%d]", ppm, s8CalibrateMinPpm, s8CalibrateMaxPpm))
	}
	if err := s.client.WriteRegister(s8RegABCTarget, uint16(ppm)); err != nil {
		return sensor.NewError(sensor.KindBusError, "s8.calibrate", err)
	}
	if err := s.client.WriteRegister(s8RegSpecialCmd, s8CmdFactoryCal); err != nil {
		return sensor.NewError(sensor.KindBusError, "s8.calibrate", err)
	}
	return nil
}
