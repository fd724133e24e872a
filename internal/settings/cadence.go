package settings

import "github.com/aurasense/iaqcore/internal/sensor"

// CadenceAdapter satisfies internal/coordinator.CadenceStore over a
// FileStore, translating sensor.ID to the sensor_cfg namespace's
// cad_<sensor> keys.
type CadenceAdapter struct {
	Store     *FileStore
	DefaultMs uint32
}

// GetCadenceMs reports the persisted cadence for id, and whether a
// persisted value already existed before this call (vs. being seeded with
// DefaultMs just now), matching the "from persistent store" flag from
// spec.md §6's get_cadences.
func (a CadenceAdapter) GetCadenceMs(id sensor.ID) (ms uint32, fromStore bool) {
	key := CadenceKey(id.String())
	if _, existed := a.Store.get(NamespaceSensor, key); existed {
		return a.Store.GetUint32(NamespaceSensor, key, a.DefaultMs), true
	}
	return a.Store.GetUint32(NamespaceSensor, key, a.DefaultMs), false
}

func (a CadenceAdapter) SetCadenceMs(id sensor.ID, ms uint32) {
	a.Store.SetUint32(NamespaceSensor, CadenceKey(id.String()), ms)
}
