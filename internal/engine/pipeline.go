package engine

import "sort"

// Evaluator is one strategy's per-item pricing logic. Evaluate maps a pair
// to at most one recommendation; Keep applies the strategy's disqualifying
// thresholds; Less orders the final list (profit descending).
type Evaluator interface {
	Evaluate(pair ItemPair) (TradeRecommendation, bool)
	Keep(rec TradeRecommendation) bool
	Less(a, b TradeRecommendation) bool
	Limit() int // 0 = no truncation
}

// Run executes the shared strategy pipeline: evaluate every pair, drop
// disqualified items, stable-sort, truncate. With disableFilters set the
// Keep step is skipped so the raw economics of every item stay visible.
func Run(pairs []ItemPair, ev Evaluator, disableFilters bool) []TradeRecommendation {
	var recs []TradeRecommendation
	for _, pair := range pairs {
		rec, ok := ev.Evaluate(pair)
		if !ok {
			continue
		}
		if !disableFilters && !ev.Keep(rec) {
			continue
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool { return ev.Less(recs[i], recs[j]) })

	if limit := ev.Limit(); limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
