package fusion

import (
	"testing"
	"time"
)

func localAt(dateStr string, hour, min int) time.Time {
	d, _ := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.Local)
}

func TestABCTrackerOutsideNightWindowDoesNotTrack(t *testing.T) {
	tr := newABCTracker()
	tr.observe(localAt("2026-07-01", 14, 0), 420)
	if _, _, ready := tr.baseline(415); ready {
		t.Fatal("daytime observation must not contribute to a nightly minimum")
	}
}

func TestABCTrackerTracksNightlyMinimumAfterLowSlope(t *testing.T) {
	tr := newABCTracker()
	base := localAt("2026-07-01", 3, 0)
	// A flat run (zero slope) inside the night window satisfies the gate
	// and becomes the night's tracked minimum.
	for i := 0; i < 4; i++ {
		tr.observe(base.Add(time.Duration(i)*time.Minute), 430)
	}
	// Roll past the night window into the next day to force a commit.
	tr.observe(localAt("2026-07-01", 7, 0), 450)
	_, conf, _ := tr.baseline(415)
	if conf <= 0 {
		t.Fatal("expected nonzero confidence after one committed night")
	}
}

func TestABCTrackerReadyOnlyAfterSevenNights(t *testing.T) {
	tr := newABCTracker()
	for night := 1; night <= 7; night++ {
		date := time.Date(2026, 7, night, 0, 0, 0, 0, time.Local).Format("2006-01-02")
		base := localAt(date, 3, 0)
		for i := 0; i < 4; i++ {
			tr.observe(base.Add(time.Duration(i)*time.Minute), 420)
		}
		if night < 7 {
			if _, _, ready := tr.baseline(415); ready {
				t.Fatalf("ready=true after only %d nights, want false before 7", night)
			}
		}
	}
	// Commit the 7th night by rolling into daytime.
	tr.observe(time.Date(2026, 7, 7, 7, 0, 0, 0, time.Local), 450)
	correction, confidence, ready := tr.baseline(415)
	if !ready {
		t.Fatal("expected ready=true after 7 committed nights")
	}
	if confidence != 100 {
		t.Errorf("confidence = %v, want 100 once the ring is full", confidence)
	}
	wantCorrection := 415 - 420 // target - ring minimum (every night recorded 420 here)
	if diff := correction - float64(wantCorrection); diff < -1e-9 || diff > 1e-9 {
		t.Errorf("correction = %v, want %v", correction, wantCorrection)
	}
}

func TestABCTrackerBaselineUsesRingMinimumNotMean(t *testing.T) {
	tr := newABCTracker()
	minima := []float64{410, 420, 430, 440, 450, 460, 470}
	for night, ppm := range minima {
		date := time.Date(2026, 7, night+1, 0, 0, 0, 0, time.Local).Format("2006-01-02")
		base := localAt(date, 3, 0)
		for i := 0; i < 4; i++ {
			tr.observe(base.Add(time.Duration(i)*time.Minute), ppm)
		}
	}
	// Commit the 7th night.
	tr.observe(time.Date(2026, 7, 7, 7, 0, 0, 0, time.Local), 600)

	correction, _, ready := tr.baseline(415)
	if !ready {
		t.Fatal("expected ready=true after 7 committed nights")
	}
	// The ring minimum is 410, not the mean (440). A mean-based correction
	// would be 415-440=-25; spec.md §4.4 item 5 targets the ring minimum.
	wantCorrection := 415 - 410
	if diff := correction - float64(wantCorrection); diff < -1e-9 || diff > 1e-9 {
		t.Errorf("correction = %v, want %v (target - ring minimum, not mean)", correction, wantCorrection)
	}
}

func TestABCTrackerHighSlopeNightNeverCommits(t *testing.T) {
	tr := newABCTracker()
	base := localAt("2026-07-01", 3, 0)
	// A steep ramp never satisfies the low-slope gate, so no minimum is
	// ever recorded for this night.
	for i, ppm := range []float64{400, 600, 800, 1000} {
		tr.observe(base.Add(time.Duration(i)*time.Minute), ppm)
	}
	tr.observe(localAt("2026-07-01", 7, 0), 450)
	if _, _, ready := tr.baseline(415); ready {
		t.Fatal("a high-slope night must not contribute a committed minimum")
	}
}
