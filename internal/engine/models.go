// Package engine contains the pure trade-analysis core: window statistics,
// order book matching, the strategy evaluators and the cargo optimizer. It
// performs no I/O beyond diagnostic logging; callers hand it fully resolved
// market data.
package engine

import "eve-tradeworks/internal/esi"

// MarketSnapshot is one item's live order book plus daily history in one
// market. Immutable once built; rebuilt each run.
type MarketSnapshot struct {
	Orders  []esi.Order
	History []esi.HistoryEntry
}

// ItemPair joins an item's source and destination snapshots with its
// static metadata. Items present in only one market never become pairs.
type ItemPair struct {
	TypeID      int32
	Desc        esi.TypeDescription
	Source      MarketSnapshot
	Destination MarketSnapshot
}

// WindowStats summarizes the most recent window of daily history.
// Average, Highest, Lowest and Volume are arithmetic means; OrderCount is
// the median, which shrugs off spiky days.
type WindowStats struct {
	Average    float64
	Highest    float64
	Lowest     float64
	OrderCount float64
	Volume     float64
}

// TradeRecommendation is one profitable haul candidate. All strategies fill
// the common fields; the instant-flip strategy additionally fills BestMargin
// and BestRoughProfit (the counterfactual at volume-weighted average cost),
// and the loss-weighted strategy fills LossesPerDay.
type TradeRecommendation struct {
	TypeID          int32
	TypeName        string
	ItemVolume      float64 // m³ per unit, packaged
	BuyPrice        float64
	SellPrice       float64 // per unit, after destination fees and tax
	Expenses        float64 // per unit, fees and freight included
	Margin          float64
	RoughProfit     float64
	RecommendVolume int64
	SrcMktVolume    int64 // live sell-side liquidity at source
	DstMktVolume    int64 // live sell-side liquidity at destination
	SrcStats        WindowStats
	DstStats        WindowStats
	FilledForDays   float64 // days the destination's live sell stock covers at its daily volume
	LossesPerDay    float64
	BestMargin      float64
	BestRoughProfit float64
}

// OptimizedSelection is the cargo-constrained subset of instant-flip
// candidates, with volumes possibly reduced by the optimizer.
type OptimizedSelection struct {
	Items       []TradeRecommendation
	TotalProfit float64
	TotalVolume float64 // m³
}

// OrderFlowMatch is the result of crossing a source sell book against a
// destination buy book. MaxBuyPrice is the highest source tier touched:
// multibuy pays every unit at that single clearing price, so it, not the
// weighted average, drives realized expenses.
type OrderFlowMatch struct {
	Volume      int64
	SellSum     float64 // volume-weighted destination proceeds, pre tax
	BuySum      float64 // volume-weighted source cost, pre fee
	MaxBuyPrice float64
}
