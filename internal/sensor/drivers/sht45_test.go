package drivers

import (
	"context"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/aurasense/iaqcore/internal/sensor"
)

func TestSHT45ReadHappyPath(t *testing.T) {
	// Raw words for 25.0C / 50.0%RH with correct Sensirion CRC8 trailers,
	// same playback shape as scd4x_test.go's sensePlayback.
	rawT := uint16((25.0 + 45) / 175 * 65535)
	rawRH := uint16((50.0 + 6) / 125 * 65535)
	tHi, tLo := byte(rawT>>8), byte(rawT)
	rhHi, rhLo := byte(rawRH>>8), byte(rawRH)
	resp := []byte{
		tHi, tLo, sensirionCRC8([]byte{tHi, tLo}),
		rhHi, rhLo, sensirionCRC8([]byte{rhHi, rhLo}),
	}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: sht45Address, W: []byte{cmdSht45MeasureHighPrecision}, R: resp},
		},
		DontPanic: true,
	}
	dev := NewSHT45(bus)
	reading, err := dev.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	r := reading.(sensor.Sht45Reading)
	if diff := r.TempC - 25.0; diff < -0.1 || diff > 0.1 {
		t.Errorf("TempC = %v, want ~25.0", r.TempC)
	}
	if diff := r.RHPct - 50.0; diff < -0.1 || diff > 0.1 {
		t.Errorf("RHPct = %v, want ~50.0", r.RHPct)
	}
}

func TestSHT45ReadCRCMismatch(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: sht45Address, W: []byte{cmdSht45MeasureHighPrecision}, R: []byte{0, 0, 0, 0, 0, 0}},
		},
		DontPanic: true,
	}
	dev := NewSHT45(bus)
	_, err := dev.Read(context.Background())
	if err == nil {
		t.Fatal("expected CRC mismatch error, got nil")
	}
	if sensor.KindOf(err) != sensor.KindBusError {
		t.Errorf("KindOf(err) = %v, want KindBusError", sensor.KindOf(err))
	}
}

func TestSHT45RHClamped(t *testing.T) {
	// rawRH at max (0xFFFF) maps above 100%RH per the datasheet formula,
	// and must be clamped.
	tHi, tLo := byte(0x66), byte(0x67) // ~25C
	rhHi, rhLo := byte(0xFF), byte(0xFF)
	resp := []byte{
		tHi, tLo, sensirionCRC8([]byte{tHi, tLo}),
		rhHi, rhLo, sensirionCRC8([]byte{rhHi, rhLo}),
	}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: sht45Address, W: []byte{cmdSht45MeasureHighPrecision}, R: resp},
		},
		DontPanic: true,
	}
	dev := NewSHT45(bus)
	reading, err := dev.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	r := reading.(sensor.Sht45Reading)
	if r.RHPct != 100 {
		t.Errorf("RHPct = %v, want clamped to 100", r.RHPct)
	}
}

func TestSHT45Reset(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: sht45Address, W: []byte{cmdSht45SoftReset}},
		},
		DontPanic: true,
	}
	dev := NewSHT45(bus)
	if err := dev.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
}

func TestSHT45CalibrateUnsupported(t *testing.T) {
	dev := NewSHT45(&i2ctest.Playback{DontPanic: true})
	err := dev.Calibrate(context.Background(), 400)
	if sensor.KindOf(err) != sensor.KindUnsupported {
		t.Errorf("KindOf(err) = %v, want KindUnsupported", sensor.KindOf(err))
	}
}
