package engine

import (
	"eve-tradeworks/internal/logger"
	"eve-tradeworks/internal/mip"
)

// OptimizeCargo picks how many units of each instant-flip candidate to
// actually haul so that total m³ stays within capacity and profit is
// maximal: a bounded knapsack with one integer variable per candidate in
// [0, RecommendVolume]. Candidates whose optimal volume is zero are dropped.
// An unsolvable program degrades to an empty selection, never an error.
func OptimizeCargo(items []TradeRecommendation, capacity float64) OptimizedSelection {
	if len(items) == 0 || capacity <= 0 {
		return OptimizedSelection{}
	}

	profit := make([]float64, len(items))
	weight := make([]float64, len(items))
	upper := make([]int64, len(items))
	for i, it := range items {
		profit[i] = it.SellPrice - it.Expenses
		weight[i] = it.ItemVolume
		upper[i] = it.RecommendVolume
	}

	vols, _, err := mip.NewSolver().SolveKnapsack(profit, weight, upper, capacity)
	if err != nil {
		logger.Warn("Engine", "Cargo optimization failed: %v", err)
		return OptimizedSelection{}
	}

	var sel OptimizedSelection
	for i, vol := range vols {
		if vol <= 0 {
			continue
		}
		it := items[i]
		it.RecommendVolume = vol
		it.RoughProfit = (it.SellPrice - it.Expenses) * float64(vol)
		sel.Items = append(sel.Items, it)
		sel.TotalProfit += it.RoughProfit
		sel.TotalVolume += it.ItemVolume * float64(vol)
	}
	return sel
}
