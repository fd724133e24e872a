// Command iaqcoordd is the indoor air quality coordinator daemon: it wires
// the six sensor drivers, runs the coordinator/fusion/metrics engines, and
// serves Prometheus metrics, grounded on the teacher's main.go flag/HTTP
// shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simonvetter/modbus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/aurasense/iaqcore/internal/airquality"
	"github.com/aurasense/iaqcore/internal/coordinator"
	"github.com/aurasense/iaqcore/internal/fusion"
	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/sensor/drivers"
	"github.com/aurasense/iaqcore/internal/settings"
	"github.com/aurasense/iaqcore/internal/state"
	"github.com/aurasense/iaqcore/internal/telemetry"
)

var (
	flagI2CBus       = flag.String("i2c-bus", "", "I2C bus name (empty uses the default bus)")
	flagPMSPort      = flag.String("pms-port", "/dev/ttyAMA1", "UART device for the PMS5003 particulate sensor")
	flagPMSBaud      = flag.Uint("pms-baud", 9600, "PMS5003 UART baud rate")
	flagS8Port       = flag.String("s8-port", "/dev/ttyAMA2", "UART device for the Senseair S8 CO2 sensor")
	flagS8Baud       = flag.Uint("s8-baud", 9600, "S8 Modbus RTU baud rate")
	flagS8SlaveID    = flag.Uint("s8-slave-id", 1, "S8 Modbus slave ID")
	flagDefaultCadMs = flag.Uint("default-cadence-ms", 5000, "default per-sensor read cadence in milliseconds")
	flagSettingsPath = flag.String("settings-path", "iaqcoord-settings.json", "path to the persisted settings file")
	flagClockSynced  = flag.Bool("clock-synced", true, "whether the system clock is synchronized (gates CO2 ABC tracking)")
	flagHTTPPort     = flag.Uint("http-port", 9090, "HTTP server port for /metrics")
)

func main() {
	flag.Parse()

	if *flagHTTPPort > 65535 {
		log.Fatalf("http-port %d exceeds 65535", *flagHTTPPort)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("periph host init failed: %v", err)
	}

	store := state.New()
	settingsStore := settings.Open(*flagSettingsPath)

	driverSet, closers := buildDrivers(settingsStore)
	defer closeAll(closers)

	cadences := settings.CadenceAdapter{Store: settingsStore, DefaultMs: uint32(*flagDefaultCadMs)}
	coord := coordinator.New(store, driverSet, cadences, nil, uint32(*flagDefaultCadMs))

	clockSynced := *flagClockSynced
	fusionEngine := fusion.New(store, settingsStore, func() bool { return clockSynced })
	metricsEngine := airquality.New(store)

	exporter := telemetry.NewExporter(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord.Start(ctx)
	go coord.Run(ctx)
	go fusionEngine.Run(ctx)
	go metricsEngine.Run(ctx)
	go refreshTelemetryLoop(ctx, store, exporter)

	http.Handle("/metrics", promhttp.Handler())
	httpAddr := fmt.Sprintf(":%d", *flagHTTPPort)
	srv := &http.Server{Addr: httpAddr}
	go func() {
		log.Printf("Starting HTTP server on %s", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// refreshTelemetryLoop periodically republishes the shared state into
// Prometheus gauges, grounded on the teacher's single poll-then-update
// loop shape but decoupled from the metrics engine's own tick.
func refreshTelemetryLoop(ctx context.Context, store *state.Store, exporter *telemetry.Exporter) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exporter.Refresh(store.Snapshot())
		}
	}
}

// buildDrivers constructs every wired sensor driver and returns the
// closers needed to release their underlying buses/ports at shutdown.
func buildDrivers(settingsStore *settings.FileStore) ([sensor.NumSensors]sensor.Driver, []func() error) {
	var driverSet [sensor.NumSensors]sensor.Driver
	var closers []func() error

	bus, err := i2creg.Open(*flagI2CBus)
	if err != nil {
		log.Printf("i2c bus open failed, SHT45/BMP280/SGP41 will be unavailable: %v", err)
	} else {
		closers = append(closers, bus.Close)
		driverSet[sensor.Sht45] = drivers.NewSHT45(bus)
		driverSet[sensor.Bmp280] = drivers.NewBMP280(bus)
		driverSet[sensor.Sgp41] = drivers.NewSGP41(bus)
	}

	// MCU die/ambient temperature requires a board-specific platform hook
	// (spec.md §1's explicit out-of-scope collaborator); left unwired here,
	// internal/sensor/drivers.NewMCU is available for a board-specific build.

	if pmsPort, err := openSerial(*flagPMSPort, int(*flagPMSBaud)); err != nil {
		log.Printf("PMS5003 UART open failed, sensor will be unavailable: %v", err)
	} else {
		closers = append(closers, pmsPort.Close)
		driverSet[sensor.Pms5003] = drivers.NewPMS5003(pmsPort)
	}

	if s8Client, err := openS8Client(*flagS8Port, int(*flagS8Baud), uint8(*flagS8SlaveID)); err != nil {
		log.Printf("S8 Modbus client open failed, sensor will be unavailable: %v", err)
	} else {
		closers = append(closers, s8Client.Close)
		driverSet[sensor.S8] = drivers.NewS8(s8Client)
	}

	return driverSet, closers
}

func openSerial(device string, baud int) (*serialPort, error) {
	port, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  250 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return &serialPort{Port: port}, nil
}

// serialPort adapts goburrow/serial.Port (which has no Close-is-idempotent
// guarantee documented) to the io.ReadWriteCloser the PMS5003 driver wants.
type serialPort struct {
	serial.Port
}

func openS8Client(device string, baud int, slaveID uint8) (*modbus.ModbusClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("rtu://%s", device),
		Speed:   uint(baud),
		Timeout: 250 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	if err := client.SetUnitId(slaveID); err != nil {
		return nil, err
	}
	if err := client.Open(); err != nil {
		return nil, err
	}
	return client, nil
}

func closeAll(closers []func() error) {
	for _, c := range closers {
		if err := c(); err != nil {
			log.Printf("close failed: %v", err)
		}
	}
}
