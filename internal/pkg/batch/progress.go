package batch

import (
	"math"
	"time"
)

// Progress is the snapshot handed to the OnProgress sink after each
// resolved chunk. Processed always equals Successful + Failed and never
// decreases within one call.
type Progress struct {
	Processed  int     `json:"processed"`
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	Rate       float64 `json:"rate"`
	Remaining  string  `json:"remaining"`
}

func snapshotProgress(started time.Time, processed, total, successful, failed int) Progress {

	elapsed := time.Since(started).Seconds()

	var rate float64
	if elapsed > 0 {
		rate = float64(processed) / elapsed
	}

	var remaining float64 = math.Inf(1)
	if rate > 0 {
		remaining = float64(total-processed) / rate
	}

	return Progress{
		Processed:  processed,
		Total:      total,
		Successful: successful,
		Failed:     failed,
		Rate:       rate,
		Remaining:  formatRemaining(remaining),
	}
}

// formatRemaining renders an estimate in seconds as a duration string.
// Estimates that cannot be computed yet render as "calculating...".
func formatRemaining(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "calculating..."
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}
