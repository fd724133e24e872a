package airquality

import "github.com/aurasense/iaqcore/internal/state"

// breakpoint is one row of the EPA AQI table from spec.md §6.
type breakpoint struct {
	cLo, cHi float64
	iLo, iHi int
	category string
}

var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50, "Good"},
	{12.1, 35.4, 51, 100, "Moderate"},
	{35.5, 55.4, 101, 150, "Unhealthy for Sensitive"},
	{55.5, 150.4, 151, 200, "Unhealthy"},
	{150.5, 250.4, 201, 300, "Very Unhealthy"},
	{250.5, 500.0, 301, 500, "Hazardous"},
}

var pm10Breakpoints = []breakpoint{
	{0, 54, 0, 50, "Good"},
	{55, 154, 51, 100, "Moderate"},
	{155, 254, 101, 150, "Unhealthy for Sensitive"},
	{255, 354, 151, 200, "Unhealthy"},
	{355, 424, 201, 300, "Very Unhealthy"},
	{425, 604, 301, 500, "Hazardous"},
}

// subindex applies the EPA piecewise-linear formula from spec.md §4.5 to
// one pollutant concentration. Returns (index, ok); ok is false for
// NaN/negative input or a concentration that falls between two table rows.
// Above the table's top bucket the top row's slope is extrapolated and ok is
// true.
func subindex(table []breakpoint, c float64) (float64, bool) {
	if state.IsNoData(c) || c < 0 {
		return 0, false
	}
	for _, bp := range table {
		if c >= bp.cLo && c <= bp.cHi {
			i := (float64(bp.iHi-bp.iLo)/(bp.cHi-bp.cLo))*(c-bp.cLo) + float64(bp.iLo)
			return i, true
		}
	}
	last := table[len(table)-1]
	if c > last.cHi {
		i := (float64(last.iHi-last.iLo)/(last.cHi-last.cLo))*(c-last.cLo) + float64(last.iLo)
		return i, true
	}
	return 0, false
}

func categoryFor(aqi float64) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// computeAQI implements spec.md §4.5's EPA AQI derivation: per-pollutant
// subindex, overall = max, dominant = argmax, category from the overall
// value's enclosing row.
func computeAQI(pm25, pm10 float64) state.AQIMetrics {
	pm25Idx, pm25Ok := subindex(pm25Breakpoints, pm25)
	pm10Idx, pm10Ok := subindex(pm10Breakpoints, pm10)

	if !pm25Ok && !pm10Ok {
		return state.AQIMetrics{
			Value: state.IndexNoData, Category: "Unknown",
			PM25Subindex: state.NoData, PM10Subindex: state.NoData,
		}
	}

	out := state.AQIMetrics{}
	if pm25Ok {
		out.PM25Subindex = pm25Idx
	} else {
		out.PM25Subindex = state.NoData
	}
	if pm10Ok {
		out.PM10Subindex = pm10Idx
	} else {
		out.PM10Subindex = state.NoData
	}

	overall := 0.0
	dominant := ""
	if pm25Ok && (!pm10Ok || pm25Idx >= pm10Idx) {
		overall, dominant = pm25Idx, "PM2.5"
	} else {
		overall, dominant = pm10Idx, "PM10"
	}

	out.Value = int(overall + 0.5)
	out.DominantPollutant = dominant
	out.Category = categoryFor(overall)
	return out
}
