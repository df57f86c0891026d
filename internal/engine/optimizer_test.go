package engine

import (
	"math"
	"testing"
)

func candidate(typeID int32, profit, unitVolume float64, vol int64) TradeRecommendation {
	return TradeRecommendation{
		TypeID:          typeID,
		SellPrice:       100 + profit,
		Expenses:        100,
		ItemVolume:      unitVolume,
		RecommendVolume: vol,
	}
}

func TestOptimizeCargo_ZeroCapacity(t *testing.T) {
	sel := OptimizeCargo([]TradeRecommendation{candidate(1, 50, 1, 10)}, 0)
	if len(sel.Items) != 0 || sel.TotalProfit != 0 || sel.TotalVolume != 0 {
		t.Errorf("expected empty selection, got %+v", sel)
	}
}

func TestOptimizeCargo_Empty(t *testing.T) {
	sel := OptimizeCargo(nil, 60000)
	if len(sel.Items) != 0 || sel.TotalProfit != 0 {
		t.Errorf("expected empty selection, got %+v", sel)
	}
}

func TestOptimizeCargo_EverythingFits(t *testing.T) {
	items := []TradeRecommendation{
		candidate(1, 50, 1, 10),
		candidate(2, 30, 2, 5),
	}
	sel := OptimizeCargo(items, 1e9)
	if len(sel.Items) != 2 {
		t.Fatalf("got %d items, want the full candidate set", len(sel.Items))
	}
	if sel.Items[0].RecommendVolume != 10 || sel.Items[1].RecommendVolume != 5 {
		t.Errorf("volumes were reduced without need: %+v", sel.Items)
	}
	if want := 50.0*10 + 30.0*5; math.Abs(sel.TotalProfit-want) > 1e-9 {
		t.Errorf("TotalProfit = %v, want %v", sel.TotalProfit, want)
	}
}

func TestOptimizeCargo_PrefersDenserProfit(t *testing.T) {
	items := []TradeRecommendation{
		candidate(1, 10, 10, 100), // 1 isk per m³
		candidate(2, 50, 1, 100),  // 50 isk per m³
	}
	sel := OptimizeCargo(items, 100)

	if len(sel.Items) != 1 || sel.Items[0].TypeID != 2 {
		t.Fatalf("expected only the denser item, got %+v", sel.Items)
	}
	if sel.Items[0].RecommendVolume != 100 {
		t.Errorf("RecommendVolume = %d, want 100", sel.Items[0].RecommendVolume)
	}
	if sel.TotalVolume > 100+1e-9 {
		t.Errorf("TotalVolume = %v exceeds capacity", sel.TotalVolume)
	}
}

func TestOptimizeCargo_PartialVolume(t *testing.T) {
	items := []TradeRecommendation{candidate(1, 50, 3, 10)}
	sel := OptimizeCargo(items, 10)

	// Only 3 of 10 units fit in 10 m³ at 3 m³ each.
	if len(sel.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(sel.Items))
	}
	if sel.Items[0].RecommendVolume != 3 {
		t.Errorf("RecommendVolume = %d, want 3", sel.Items[0].RecommendVolume)
	}
	if math.Abs(sel.TotalProfit-150) > 1e-9 {
		t.Errorf("TotalProfit = %v, want 150", sel.TotalProfit)
	}
	if math.Abs(sel.TotalVolume-9) > 1e-9 {
		t.Errorf("TotalVolume = %v, want 9", sel.TotalVolume)
	}
}
