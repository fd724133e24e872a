package drivers

import (
	"context"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// bmp280Address is the fixed I2C address of the Bosch BMP280 (SDO tied low).
const bmp280Address uint16 = 0x76

const (
	regBmp280Calib   = 0x88
	regBmp280Ctrl    = 0xF4
	regBmp280Config  = 0xF5
	regBmp280Reset   = 0xE0
	regBmp280Status  = 0xF3
	regBmp280DataOut = 0xF7
	cmdBmp280Reset   = 0xB6
)

// calib280 holds the factory compensation words read once at Init. The
// compensation math below is adapted directly from google-periph's
// devices/bmxx80 calibration280, truncated to the temperature/pressure
// terms this driver needs (BMP280 has no humidity channel).
type calib280 struct {
	t1         uint16
	t2, t3     int16
	p1         uint16
	p2, p3, p4 int16
	p5, p6, p7 int16
	p8, p9     int16
}

// BMP280 drives a Bosch BMP280 barometric pressure sensor over I2C.
type BMP280 struct {
	dev *i2c.Dev
	cal calib280
}

func NewBMP280(bus i2c.Bus) *BMP280 {
	return &BMP280{dev: &i2c.Dev{Bus: bus, Addr: bmp280Address}}
}

func (b *BMP280) ID() sensor.ID { return sensor.Bmp280 }

func (b *BMP280) WarmupDuration() time.Duration { return 0 }

func (b *BMP280) Init(ctx context.Context) error {
	buf := make([]byte, 24)
	if err := b.readReg(regBmp280Calib, buf); err != nil {
		return sensor.NewError(sensor.KindBusError, "bmp280.init", err)
	}
	u16 := func(i int) uint16 { return uint16(buf[i]) | uint16(buf[i+1])<<8 }
	i16 := func(i int) int16 { return int16(u16(i)) }
	b.cal = calib280{
		t1: u16(0), t2: i16(2), t3: i16(4),
		p1: u16(6), p2: i16(8), p3: i16(10), p4: i16(12),
		p5: i16(14), p6: i16(16), p7: i16(18), p8: i16(20), p9: i16(22),
	}
	// Normal mode, 16x pressure oversampling, 2x temperature oversampling.
	if err := b.writeReg(regBmp280Ctrl, 0x57); err != nil {
		return sensor.NewError(sensor.KindBusError, "bmp280.init", err)
	}
	return nil
}

func (b *BMP280) Enable(ctx context.Context) error  { return nil }
func (b *BMP280) Disable(ctx context.Context) error { return b.writeReg(regBmp280Ctrl, 0x00) }

func (b *BMP280) Read(ctx context.Context) (sensor.Reading, error) {
	buf := make([]byte, 6)
	if err := b.readReg(regBmp280DataOut, buf); err != nil {
		return nil, sensor.NewError(sensor.KindBusError, "bmp280.read", err)
	}
	pRaw := int32(buf[0])<<12 | int32(buf[1])<<4 | int32(buf[2])>>4
	tRaw := int32(buf[3])<<12 | int32(buf[4])<<4 | int32(buf[5])>>4

	_, tFine := b.cal.compensateTemp(tRaw)
	pa := b.cal.compensatePressure(pRaw, tFine)
	return sensor.Bmp280Reading{PressurePa: pa}, nil
}

func (b *BMP280) Reset(ctx context.Context) error {
	if err := b.writeReg(regBmp280Reset, cmdBmp280Reset); err != nil {
		return sensor.NewError(sensor.KindBusError, "bmp280.reset", err)
	}
	return nil
}

func (b *BMP280) Calibrate(ctx context.Context, arg float64) error {
	return sensor.Unsupported("bmp280.calibrate")
}

func (b *BMP280) readReg(reg byte, dst []byte) error {
	return b.dev.Tx([]byte{reg}, dst)
}

func (b *BMP280) writeReg(reg, val byte) error {
	return b.dev.Tx([]byte{reg, val}, nil)
}

// compensateTemp returns temperature in 0.01 °C units and the t_fine value
// compensatePressure needs. Ported verbatim from the Bosch datasheet integer
// formula as implemented in google-periph/devices/bmxx80.
func (c *calib280) compensateTemp(raw int32) (int32, int32) {
	x := ((raw>>3 - int32(c.t1)<<1) * int32(c.t2)) >> 11
	y := ((((raw>>4 - int32(c.t1)) * (raw>>4 - int32(c.t1))) >> 12) * int32(c.t3)) >> 14
	tFine := x + y
	return (tFine*5 + 128) >> 8, tFine
}

// compensatePressure returns pressure in Pa.
func (c *calib280) compensatePressure(raw, tFine int32) float64 {
	x := int64(tFine) - 128000
	y := x * x * int64(c.p6)
	y += (x * int64(c.p5)) << 17
	y += int64(c.p4) << 35
	x = (x*x*int64(c.p3))>>8 + ((x * int64(c.p2)) << 12)
	x = ((int64(1)<<47 + x) * int64(c.p1)) >> 33
	if x == 0 {
		return 0
	}
	p := ((((1048576 - int64(raw)) << 31) - y) * 3125) / x
	x2 := (int64(c.p9) * (p >> 13) * (p >> 13)) >> 25
	y2 := (int64(c.p8) * p) >> 19
	p = ((p + x2 + y2) >> 8) + (int64(c.p7) << 4)
	// p is in Q24.8 fixed point, i.e. 256 units per Pascal.
	return float64(p) / 256
}
