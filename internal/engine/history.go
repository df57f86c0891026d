package engine

import (
	"sort"
	"time"

	"eve-tradeworks/internal/esi"
)

const dateLayout = "2006-01-02"

// FillHistoryGaps returns a history with exactly one entry per calendar day
// from the earliest recorded date through today. Missing days get the median
// average/highest/lowest of the known days with zero volume and order count,
// keeping price continuity through no-trade days. An empty history yields a
// single synthetic entry dated today with unit prices.
func FillHistoryGaps(entries []esi.HistoryEntry, today time.Time) []esi.HistoryEntry {
	today = today.UTC().Truncate(24 * time.Hour)

	known := make(map[string]esi.HistoryEntry, len(entries))
	var avgs, highs, lows []float64
	earliest := today
	for _, e := range entries {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}
		known[e.Date] = e
		avgs = append(avgs, e.Average)
		highs = append(highs, e.Highest)
		lows = append(lows, e.Lowest)
		if d.Before(earliest) {
			earliest = d
		}
	}

	medAvg := medianOr(avgs, 1)
	medHigh := medianOr(highs, 1)
	medLow := medianOr(lows, 1)

	if len(known) == 0 {
		return []esi.HistoryEntry{{
			Date:    today.Format(dateLayout),
			Average: medAvg,
			Highest: medHigh,
			Lowest:  medLow,
		}}
	}

	var filled []esi.HistoryEntry
	for d := earliest; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		if e, ok := known[key]; ok {
			filled = append(filled, e)
			continue
		}
		filled = append(filled, esi.HistoryEntry{
			Date:    key,
			Average: medAvg,
			Highest: medHigh,
			Lowest:  medLow,
		})
	}
	return filled
}

// ComputeWindowStats averages the most recent windowDays entries of a
// gap-filled history. Returns false when the history is empty.
func ComputeWindowStats(history []esi.HistoryEntry, windowDays int) (WindowStats, bool) {
	if len(history) == 0 || windowDays <= 0 {
		return WindowStats{}, false
	}

	sorted := make([]esi.HistoryEntry, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	if len(sorted) > windowDays {
		sorted = sorted[:windowDays]
	}

	var stats WindowStats
	counts := make([]float64, 0, len(sorted))
	for _, e := range sorted {
		stats.Average += e.Average
		stats.Highest += e.Highest
		stats.Lowest += e.Lowest
		stats.Volume += float64(e.Volume)
		counts = append(counts, float64(e.OrderCount))
	}
	n := float64(len(sorted))
	stats.Average /= n
	stats.Highest /= n
	stats.Lowest /= n
	stats.Volume /= n
	stats.OrderCount = medianOr(counts, 0)
	return stats, true
}

// medianOr returns the median of xs, or fallback for an empty slice.
func medianOr(xs []float64, fallback float64) float64 {
	if len(xs) == 0 {
		return fallback
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
