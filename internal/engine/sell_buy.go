package engine

import (
	"time"

	"eve-tradeworks/internal/config"
)

// SellBuy is the instant-flip strategy: buy from source sell orders, haul,
// dump into destination buy orders. Every unit bought pays the single
// highest source tier touched (multibuy), so realized margin uses
// MaxBuyPrice while BestMargin reports the average-cost counterfactual.
type SellBuy struct {
	Cfg config.Config
	Now time.Time
}

func NewSellBuy(cfg config.Config) *SellBuy {
	return &SellBuy{Cfg: cfg, Now: time.Now().UTC()}
}

func (ev *SellBuy) Evaluate(pair ItemPair) (TradeRecommendation, bool) {
	cfg := ev.Cfg
	srcStats, _ := ComputeWindowStats(FillHistoryGaps(pair.Source.History, ev.Now), cfg.HistoryWindowDays)
	dstStats, _ := ComputeWindowStats(FillHistoryGaps(pair.Destination.History, ev.Now), cfg.HistoryWindowDays)

	m := MatchOrderFlow(pair.Source.Orders, pair.Destination.Orders, cfg.BrokerFeeSource, cfg.SalesTax)
	if m.Volume == 0 {
		return TradeRecommendation{}, false
	}

	vol := float64(m.Volume)
	sellPrice := m.SellSum / vol * (1 - cfg.SalesTax)
	expenses := m.MaxBuyPrice * (1 + cfg.BrokerFeeSource)
	avgExpenses := m.BuySum / vol * (1 + cfg.BrokerFeeSource)
	if expenses <= 0 || avgExpenses <= 0 {
		return TradeRecommendation{}, false
	}

	return TradeRecommendation{
		TypeID:          pair.TypeID,
		TypeName:        pair.Desc.Name,
		ItemVolume:      pair.Desc.UnitVolume(),
		BuyPrice:        m.MaxBuyPrice,
		SellPrice:       sellPrice,
		Expenses:        expenses,
		Margin:          (sellPrice - expenses) / expenses,
		RoughProfit:     (sellPrice - expenses) * vol,
		RecommendVolume: m.Volume,
		SrcMktVolume:    SellOrderVolume(pair.Source.Orders),
		DstMktVolume:    SellOrderVolume(pair.Destination.Orders),
		SrcStats:        srcStats,
		DstStats:        dstStats,
		BestMargin:      (sellPrice - avgExpenses) / avgExpenses,
		BestRoughProfit: (sellPrice - avgExpenses) * vol,
	}, true
}

func (ev *SellBuy) Keep(rec TradeRecommendation) bool {
	if rec.BestMargin <= ev.Cfg.MarginCutoff {
		return false
	}
	if ev.Cfg.MinProfit != nil && rec.BestRoughProfit <= *ev.Cfg.MinProfit {
		return false
	}
	return true
}

func (ev *SellBuy) Less(a, b TradeRecommendation) bool {
	return a.BestRoughProfit > b.BestRoughProfit
}

// Limit is 0: the full filtered set goes to the cargo optimizer instead of
// being truncated by count.
func (ev *SellBuy) Limit() int { return 0 }
