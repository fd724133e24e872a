package drivers

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// sht45Address is the fixed I2C address of the Sensirion SHT45.
const sht45Address uint16 = 0x44

const (
	cmdSht45MeasureHighPrecision = 0xFD
	cmdSht45SoftReset            = 0x94
)

// SHT45 drives a Sensirion SHT45 temperature/humidity sensor over I2C.
// Grounded on periph-devices/scd4x's command/CRC shape.
type SHT45 struct {
	dev *i2c.Dev
}

// NewSHT45 constructs a driver bound to the given bus. bus lets tests
// substitute an i2ctest.Playback bus without touching real hardware.
func NewSHT45(bus i2c.Bus) *SHT45 {
	return &SHT45{dev: &i2c.Dev{Bus: bus, Addr: sht45Address}}
}

func (s *SHT45) ID() sensor.ID { return sensor.Sht45 }

func (s *SHT45) WarmupDuration() time.Duration { return 0 }

func (s *SHT45) Init(ctx context.Context) error {
	return nil
}

func (s *SHT45) Enable(ctx context.Context) error {
	return nil
}

func (s *SHT45) Disable(ctx context.Context) error {
	return nil
}

func (s *SHT45) Read(ctx context.Context) (sensor.Reading, error) {
	raw, err := s.measure()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *SHT45) measure() (sensor.Sht45Reading, error) {
	w := []byte{cmdSht45MeasureHighPrecision}
	r := make([]byte, 6)
	if err := s.dev.Tx(w, r); err != nil {
		return sensor.Sht45Reading{}, sensor.NewError(sensor.KindBusError, "sht45.read", err)
	}
	if sensirionCRC8(r[0:2]) != r[2] || sensirionCRC8(r[3:5]) != r[5] {
		return sensor.Sht45Reading{}, sensor.NewError(sensor.KindBusError, "sht45.read", fmt.Errorf("crc mismatch"))
	}
	rawT := uint16(r[0])<<8 | uint16(r[1])
	rawRH := uint16(r[3])<<8 | uint16(r[4])

	tempC := -45 + 175*float64(rawT)/65535
	rh := -6 + 125*float64(rawRH)/65535
	if rh < 0 {
		rh = 0
	}
	if rh > 100 {
		rh = 100
	}
	return sensor.Sht45Reading{TempC: tempC, RHPct: rh}, nil
}

func (s *SHT45) Reset(ctx context.Context) error {
	if err := s.dev.Tx([]byte{cmdSht45SoftReset}, nil); err != nil {
		return sensor.NewError(sensor.KindBusError, "sht45.reset", err)
	}
	return nil
}

func (s *SHT45) Calibrate(ctx context.Context, arg float64) error {
	return sensor.Unsupported("sht45.calibrate")
}
