package engine

import (
	"testing"
	"time"

	"eve-tradeworks/internal/esi"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFillHistoryGaps_CalendarComplete(t *testing.T) {
	entries := []esi.HistoryEntry{
		{Date: "2025-06-01", Average: 100, Highest: 120, Lowest: 90, Volume: 50, OrderCount: 10},
		{Date: "2025-06-04", Average: 110, Highest: 130, Lowest: 95, Volume: 60, OrderCount: 12},
	}
	filled := FillHistoryGaps(entries, day("2025-06-07"))

	if len(filled) != 7 {
		t.Fatalf("filled length = %d, want 7 (2025-06-01 through 2025-06-07)", len(filled))
	}
	seen := map[string]bool{}
	for i, e := range filled {
		want := day("2025-06-01").AddDate(0, 0, i).Format(dateLayout)
		if e.Date != want {
			t.Errorf("entry %d date = %s, want %s", i, e.Date, want)
		}
		if seen[e.Date] {
			t.Errorf("duplicate date %s", e.Date)
		}
		seen[e.Date] = true
	}

	// Known days keep their stats.
	if filled[0].Volume != 50 || filled[3].Volume != 60 {
		t.Errorf("known days were altered: %+v, %+v", filled[0], filled[3])
	}
	// Imputed days carry the median prices with zero volume and order count.
	imputed := filled[1]
	if imputed.Average != 105 || imputed.Highest != 125 || imputed.Lowest != 92.5 {
		t.Errorf("imputed prices = %+v, want medians 105/125/92.5", imputed)
	}
	if imputed.Volume != 0 || imputed.OrderCount != 0 {
		t.Errorf("imputed day should have zero volume and order count, got %+v", imputed)
	}
}

func TestFillHistoryGaps_Empty(t *testing.T) {
	filled := FillHistoryGaps(nil, day("2025-06-07"))
	if len(filled) != 1 {
		t.Fatalf("filled length = %d, want 1", len(filled))
	}
	e := filled[0]
	if e.Date != "2025-06-07" {
		t.Errorf("synthetic date = %s, want today", e.Date)
	}
	if e.Average != 1 || e.Highest != 1 || e.Lowest != 1 {
		t.Errorf("synthetic prices = %+v, want unit prices", e)
	}
	if e.Volume != 0 || e.OrderCount != 0 {
		t.Errorf("synthetic volume/order count = %+v, want zero", e)
	}
}

func TestComputeWindowStats(t *testing.T) {
	history := []esi.HistoryEntry{
		{Date: "2025-06-01", Average: 100, Highest: 120, Lowest: 90, Volume: 100, OrderCount: 1},
		{Date: "2025-06-02", Average: 200, Highest: 220, Lowest: 190, Volume: 200, OrderCount: 50},
		{Date: "2025-06-03", Average: 300, Highest: 320, Lowest: 290, Volume: 300, OrderCount: 3},
	}
	stats, ok := ComputeWindowStats(history, 2)
	if !ok {
		t.Fatal("expected stats")
	}

	// Window holds only the two most recent days.
	if stats.Average != 250 {
		t.Errorf("Average = %v, want 250", stats.Average)
	}
	if stats.Highest != 270 {
		t.Errorf("Highest = %v, want 270", stats.Highest)
	}
	if stats.Volume != 250 {
		t.Errorf("Volume = %v, want 250", stats.Volume)
	}
	// Median of {50, 3}.
	if stats.OrderCount != 26.5 {
		t.Errorf("OrderCount = %v, want 26.5", stats.OrderCount)
	}
}

func TestComputeWindowStats_WindowLargerThanHistory(t *testing.T) {
	history := []esi.HistoryEntry{
		{Date: "2025-06-01", Average: 100, Highest: 100, Lowest: 100, Volume: 10, OrderCount: 5},
	}
	stats, ok := ComputeWindowStats(history, 14)
	if !ok {
		t.Fatal("expected stats")
	}
	if stats.Average != 100 || stats.Volume != 10 || stats.OrderCount != 5 {
		t.Errorf("stats = %+v, want the single day's values", stats)
	}
}

func TestComputeWindowStats_Empty(t *testing.T) {
	if _, ok := ComputeWindowStats(nil, 14); ok {
		t.Fatal("expected no stats for empty history")
	}
}
