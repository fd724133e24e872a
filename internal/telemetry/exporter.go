// Package telemetry exports the shared state record as Prometheus gauges,
// grounded on the teacher's RegisterRegMetrics/UpdatePrometheus pair. This
// is ambient observability, not one of spec.md §1's out-of-scope snapshot
// wire formats (MQTT/HTTP/discovery).
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// Exporter owns one gauge per metric family (a GaugeVec labelled by sensor
// for the per-sensor families) and refreshes them from a state.Snapshot on
// demand.
type Exporter struct {
	aqiValue      prometheus.Gauge
	comfortScore  prometheus.Gauge
	co2Ppm        prometheus.Gauge
	co2Score      prometheus.Gauge
	co2RatePpmHr  prometheus.Gauge
	pm25          prometheus.Gauge
	pm10          prometheus.Gauge
	moldScore     prometheus.Gauge
	overallScore  prometheus.Gauge
	pm25Spike     prometheus.Gauge
	sensorError   *prometheus.GaugeVec
	sensorState   *prometheus.GaugeVec
	sensorUpdated *prometheus.GaugeVec
}

// NewExporter constructs and registers every gauge against reg.
func NewExporter(reg prometheus.Registerer) *Exporter {
	e := &Exporter{
		aqiValue:      newGauge("iaq_aqi_value", "EPA AQI overall value"),
		comfortScore:  newGauge("iaq_comfort_score", "Thermal comfort score (0-100)"),
		co2Ppm:        newGauge("iaq_co2_ppm", "Fused CO2 concentration (ppm)"),
		co2Score:      newGauge("iaq_co2_score", "CO2 score (0-100)"),
		co2RatePpmHr:  newGauge("iaq_co2_rate_ppm_per_hr", "CO2 rate of change (ppm/hr)"),
		pm25:          newGauge("iaq_pm25_ugm3", "Fused PM2.5 concentration (ug/m3)"),
		pm10:          newGauge("iaq_pm10_ugm3", "Fused PM10 concentration (ug/m3)"),
		moldScore:     newGauge("iaq_mold_score", "Mold risk score (0-100)"),
		overallScore:  newGauge("iaq_overall_score", "Overall IAQ score (0-100)"),
		pm25Spike:     newGauge("iaq_pm25_spike_detected", "1 if a PM2.5 spike is currently flagged"),
		sensorError:   newGaugeVec("iaq_sensor_error_count", "Consecutive read failures for a sensor", "sensor"),
		sensorState:   newGaugeVec("iaq_sensor_state", "Current lifecycle state ordinal for a sensor", "sensor"),
		sensorUpdated: newGaugeVec("iaq_sensor_last_update_age_seconds", "Seconds since a sensor's raw value last updated", "sensor"),
	}

	reg.MustRegister(
		e.aqiValue, e.comfortScore, e.co2Ppm, e.co2Score, e.co2RatePpmHr,
		e.pm25, e.pm10, e.moldScore, e.overallScore, e.pm25Spike,
		e.sensorError, e.sensorState, e.sensorUpdated,
	)
	return e
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
}

// Refresh sets every gauge from a snapshot, grounded on the teacher's
// UpdatePrometheus. NaN sentinels are skipped so Prometheus doesn't see a
// NaN sample; the gauge keeps its previously set value (zero if it was never
// set).
func (e *Exporter) Refresh(s state.State) {
	e.set(e.aqiValue, float64(s.Metrics.AQI.Value), s.Metrics.AQI.Value != state.IndexNoData)
	e.set(e.comfortScore, s.Metrics.Comfort.Score, !state.IsNoData(s.Metrics.Comfort.Score))
	e.set(e.co2Ppm, s.Fused.CO2Ppm, !state.IsNoData(s.Fused.CO2Ppm))
	e.set(e.co2Score, s.Metrics.CO2Score, !state.IsNoData(s.Metrics.CO2Score))
	e.set(e.co2RatePpmHr, s.Metrics.CO2RatePpmHr, !state.IsNoData(s.Metrics.CO2RatePpmHr))
	e.set(e.pm25, s.Fused.PM25, !state.IsNoData(s.Fused.PM25))
	e.set(e.pm10, s.Fused.PM10, !state.IsNoData(s.Fused.PM10))
	e.set(e.moldScore, s.Metrics.Mold.Score, !state.IsNoData(s.Metrics.Mold.Score))
	e.set(e.overallScore, s.Metrics.OverallIAQScore, !state.IsNoData(s.Metrics.OverallIAQScore))
	if s.Metrics.PM25SpikeDetected {
		e.pm25Spike.Set(1)
	} else {
		e.pm25Spike.Set(0)
	}

	now := time.Now()
	for _, id := range sensor.All() {
		label := id.String()
		rt := s.Runtime[id]
		e.sensorError.WithLabelValues(label).Set(float64(rt.ErrorCount))
		e.sensorState.WithLabelValues(label).Set(float64(rt.State))
		if age := s.UpdatedAgeS(id, now); !state.IsNoData(age) {
			e.sensorUpdated.WithLabelValues(label).Set(age)
		}
	}
}

func (e *Exporter) set(g prometheus.Gauge, v float64, valid bool) {
	if !valid {
		return
	}
	g.Set(v)
}
