// Package settings implements the typed, namespaced key-value store from
// spec.md §4.6: "sensor_cfg" (per-sensor cadences) and "fusion_cfg" (ABC
// baseline, compensation coefficients). Missing keys return their default;
// corrupted reads return the default and log.
package settings

// Store is the typed KV surface spec.md §4.6 describes. Every Get reads
// the persisted value or, if absent, writes and returns def ("read-or-
// default-and-write" on boot); every Set persists immediately ("write on
// change" at runtime).
type Store interface {
	GetUint32(namespace, key string, def uint32) uint32
	SetUint32(namespace, key string, v uint32)
	GetFloat64(namespace, key string, def float64) float64
	SetFloat64(namespace, key string, v float64)
}

// Namespaces from spec.md §4.6/§6.
const (
	NamespaceSensor = "sensor_cfg"
	NamespaceFusion = "fusion_cfg"
)

// CadenceKey is the sensor_cfg key for one sensor's cadence, per spec.md §6
// ("one 32-bit unsigned per cad_<sensor>").
func CadenceKey(sensorName string) string { return "cad_" + sensorName }
