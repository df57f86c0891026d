package engine

import (
	"time"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/zkillboard"
)

// SellSellZkb is the loss-weighted resale strategy: same economics as
// SellSell, but the candidate universe is gated to items actually being
// destroyed in the destination's space, and recommended volume is capped at
// the replenishment demand the loss rate implies.
type SellSellZkb struct {
	Cfg    config.Config
	Losses zkillboard.LossRates
	Now    time.Time
}

func NewSellSellZkb(cfg config.Config, losses zkillboard.LossRates) *SellSellZkb {
	return &SellSellZkb{Cfg: cfg, Losses: losses, Now: time.Now().UTC()}
}

func (ev *SellSellZkb) Evaluate(pair ItemPair) (TradeRecommendation, bool) {
	rate := ev.Losses[pair.TypeID]
	if rate <= 0 {
		return TradeRecommendation{}, false
	}

	rec, ok := evaluateResale(pair, ev.Cfg, ev.Now)
	if !ok {
		return TradeRecommendation{}, false
	}
	rec.LossesPerDay = rate

	// Don't recommend hauling more than the loss rate can absorb over the
	// fill window.
	demand := int64(rate * ev.Cfg.RcmndFillDays)
	if demand < 1 {
		demand = 1
	}
	if rec.RecommendVolume > demand {
		rec.RecommendVolume = demand
		rec.RoughProfit = (rec.SellPrice - rec.Expenses) * float64(demand)
	}
	return rec, true
}

func (ev *SellSellZkb) Keep(rec TradeRecommendation) bool {
	return keepResale(rec, ev.Cfg)
}

func (ev *SellSellZkb) Less(a, b TradeRecommendation) bool {
	return a.RoughProfit > b.RoughProfit
}

func (ev *SellSellZkb) Limit() int { return ev.Cfg.ItemsTake }
