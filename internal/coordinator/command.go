package coordinator

import (
	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// commandKind is the closed set of in-band commands from spec.md §4.3/§6.
type commandKind int

const (
	cmdRead commandKind = iota
	cmdReset
	cmdCalibrate
	cmdDisable
	cmdEnable
	cmdSetCadence
	cmdGetCadences
	cmdGetRuntimeInfo
)

// result is what a command's response port (when requested) carries back.
type result struct {
	Err       error
	Runtime   state.RuntimeView
	Cadences  []uint32
	FromStore []bool
}

// command is one entry on the coordinator's single command channel. resp is
// nil for fire-and-forget dispatch (spec.md §6's force_read); non-nil for
// force_read_sync and the query commands. sensor is unused by cmdGetCadences,
// which targets no single sensor.
type command struct {
	kind   commandKind
	sensor sensor.ID
	arg    float64
	resp   chan result
}
