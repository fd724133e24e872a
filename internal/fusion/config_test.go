package fusion

import "testing"

type fakeConfigStore struct {
	vals map[string]float64
}

func (f *fakeConfigStore) GetFloat64(namespace, key string, def float64) float64 {
	if v, ok := f.vals[namespace+"/"+key]; ok {
		return v
	}
	return def
}

func (f *fakeConfigStore) SetFloat64(namespace, key string, v float64) {
	if f.vals == nil {
		f.vals = map[string]float64{}
	}
	f.vals[namespace+"/"+key] = v
}

func TestLoadConfigNilStoreReturnsDefaults(t *testing.T) {
	cfg := loadConfig(nil)
	if cfg != DefaultConfig() {
		t.Errorf("loadConfig(nil) = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfigReadsPersistedOverrides(t *testing.T) {
	store := &fakeConfigStore{vals: map[string]float64{
		"fusion_cfg/temp_self_heat_offset_c": 2.0,
		"fusion_cfg/abc_target_ppm":          400,
	}}
	cfg := loadConfig(store)
	if cfg.TempSelfHeatOffsetC != 2.0 {
		t.Errorf("TempSelfHeatOffsetC = %v, want 2.0", cfg.TempSelfHeatOffsetC)
	}
	if cfg.ABCTargetPpm != 400 {
		t.Errorf("ABCTargetPpm = %v, want 400", cfg.ABCTargetPpm)
	}
	// Untouched keys still resolve to the documented defaults.
	if cfg.PmRhA != DefaultConfig().PmRhA {
		t.Errorf("PmRhA = %v, want default %v", cfg.PmRhA, DefaultConfig().PmRhA)
	}
}
