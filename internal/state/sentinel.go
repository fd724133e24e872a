package state

import "math"

// NoData is the no-data sentinel for real-valued fields, per spec.md §3
// Invariant 2. Consumers translate it to null.
var NoData = math.NaN()

// IndexNoData is the no-data sentinel for integer gas-index/AQI fields
// (VOC, NOx, AQI value), the maximum of their 16-bit width.
const IndexNoData = 0xFFFF

// IsNoData reports whether f is the real-valued no-data sentinel.
func IsNoData(f float64) bool { return math.IsNaN(f) }
