package fusion

// ConfigStore is the narrow persistence surface the fusion engine needs,
// satisfied directly by internal/settings.FileStore. Keeping it
// as a local interface (rather than importing internal/settings directly)
// mirrors internal/coordinator.CadenceStore.
type ConfigStore interface {
	GetFloat64(namespace, key string, def float64) float64
	SetFloat64(namespace, key string, v float64)
}

const fusionNamespace = "fusion_cfg"

// Config holds the fusion engine's persisted coefficients, per spec.md §4.4.
type Config struct {
	TempSelfHeatOffsetC float64
	PmRhA               float64
	PmRhB               float64
	PRefPa              float64
	ABCTargetPpm        float64
}

// DefaultConfig matches spec.md §4.4's stated defaults.
func DefaultConfig() Config {
	return Config{
		TempSelfHeatOffsetC: 0.0,
		PmRhA:               0.3,
		PmRhB:               3.0,
		PRefPa:              101325,
		ABCTargetPpm:        415,
	}
}

func loadConfig(store ConfigStore) Config {
	d := DefaultConfig()
	if store == nil {
		return d
	}
	return Config{
		TempSelfHeatOffsetC: store.GetFloat64(fusionNamespace, "temp_self_heat_offset_c", d.TempSelfHeatOffsetC),
		PmRhA:               store.GetFloat64(fusionNamespace, "pm_rh_a", d.PmRhA),
		PmRhB:               store.GetFloat64(fusionNamespace, "pm_rh_b", d.PmRhB),
		PRefPa:              store.GetFloat64(fusionNamespace, "p_ref_pa", d.PRefPa),
		ABCTargetPpm:        store.GetFloat64(fusionNamespace, "abc_target_ppm", d.ABCTargetPpm),
	}
}
