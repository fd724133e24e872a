package sensor

// Reading is a tagged union over the six per-sensor payloads a driver can
// produce from Read. Callers type-switch on the concrete type; Sensor()
// lets generic code (logging, telemetry) identify the payload without a
// type switch.
type Reading interface {
	Sensor() ID
}

// McuReading is the on-board MCU die/ambient temperature tap.
type McuReading struct {
	TempC float64
}

func (McuReading) Sensor() ID { return Mcu }

// Sht45Reading is temperature + relative humidity from the SHT45.
type Sht45Reading struct {
	TempC float64
	RHPct float64
}

func (Sht45Reading) Sensor() ID { return Sht45 }

// Bmp280Reading is barometric pressure from the BMP280.
type Bmp280Reading struct {
	PressurePa float64
}

func (Bmp280Reading) Sensor() ID { return Bmp280 }

// Sgp41Reading is the Sensirion VOC/NOx gas index pair, each 0..500.
type Sgp41Reading struct {
	VocIndex int
	NoxIndex int
}

func (Sgp41Reading) Sensor() ID { return Sgp41 }

// Pms5003Reading is the Plantower particulate matter triplet, in µg/m³.
type Pms5003Reading struct {
	PM1  float64
	PM25 float64
	PM10 float64
}

func (Pms5003Reading) Sensor() ID { return Pms5003 }

// S8Reading is the Senseair S8 CO2 concentration, in ppm.
type S8Reading struct {
	CO2Ppm float64
}

func (S8Reading) Sensor() ID { return S8 }
