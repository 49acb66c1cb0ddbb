// Package progress rolls key-result check-ins up into a single
// per-objective progress number and records new check-ins.
package progress

import (
	"fmt"
	"math"
	"time"

	"okrboard/internal/model"
)

// LatestValue returns the value of the most recent progress entry on a
// key result, or 0 when no progress has been recorded yet. Entries are
// insertion-ordered and append-only, so the last entry is the latest.
func LatestValue(kr model.KeyResult) int {
	if len(kr.Progress) == 0 {
		return 0
	}
	return kr.Progress[len(kr.Progress)-1].Value
}

// Overall computes the 0-100 overall progress for a set of key results:
// the arithmetic mean of each key result's latest value, rounded half
// up. An empty list yields 0. The stored progress field on older
// records is advisory only; callers must use this instead.
func Overall(keyResults []model.KeyResult) int {
	if len(keyResults) == 0 {
		return 0
	}
	total := 0
	for _, kr := range keyResults {
		total += LatestValue(kr)
	}
	return int(math.Floor(float64(total)/float64(len(keyResults)) + 0.5))
}

// Record appends a new progress entry to the key result at idx and
// returns a new key-result slice. Existing entries are never mutated,
// removed, or reordered. Values outside [0,100] and out-of-range
// indexes are rejected with a ValidationError.
func Record(keyResults []model.KeyResult, idx int, value int, comment, author string, now time.Time) ([]model.KeyResult, error) {
	if idx < 0 || idx >= len(keyResults) {
		return nil, model.ValidationError{
			Field:   "keyResultIndex",
			Message: fmt.Sprintf("index %d out of range (have %d key results)", idx, len(keyResults)),
		}
	}
	if value < 0 || value > 100 {
		return nil, model.ValidationError{
			Field:   "value",
			Message: "must be an integer between 0 and 100",
		}
	}

	updated := make([]model.KeyResult, len(keyResults))
	copy(updated, keyResults)

	entries := make([]model.ProgressEntry, len(updated[idx].Progress), len(updated[idx].Progress)+1)
	copy(entries, updated[idx].Progress)
	entries = append(entries, model.ProgressEntry{
		Value:   value,
		Comment: comment,
		Date:    now.UTC().Format(time.RFC3339),
		Author:  author,
	})
	updated[idx].Progress = entries
	updated[idx].CurrentValue = value

	return updated, nil
}
