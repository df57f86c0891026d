package engine

import (
	"math"
	"time"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/logger"
)

// noHistoryMarkup prices an item with no destination history at 1.3 times
// the source average. Policy constant, not market physics.
const noHistoryMarkup = 1.3

// SellSell is the direct-resale strategy: buy from source sell orders, haul,
// list as sell orders at the destination.
type SellSell struct {
	Cfg config.Config
	Now time.Time
}

func NewSellSell(cfg config.Config) *SellSell {
	return &SellSell{Cfg: cfg, Now: time.Now().UTC()}
}

func (ev *SellSell) Evaluate(pair ItemPair) (TradeRecommendation, bool) {
	rec, ok := evaluateResale(pair, ev.Cfg, ev.Now)
	return rec, ok
}

func (ev *SellSell) Keep(rec TradeRecommendation) bool {
	return keepResale(rec, ev.Cfg)
}

func (ev *SellSell) Less(a, b TradeRecommendation) bool {
	return a.RoughProfit > b.RoughProfit
}

func (ev *SellSell) Limit() int { return ev.Cfg.ItemsTake }

// evaluateResale prices one item for the resale strategies. Shared with the
// loss-weighted variant, which only adjusts volume and inclusion afterwards.
func evaluateResale(pair ItemPair, cfg config.Config, now time.Time) (TradeRecommendation, bool) {
	srcStats, _ := ComputeWindowStats(FillHistoryGaps(pair.Source.History, now), cfg.HistoryWindowDays)
	dstStats, _ := ComputeWindowStats(FillHistoryGaps(pair.Destination.History, now), cfg.HistoryWindowDays)

	// Destination sell price: the recent high average, or the source-based
	// markup when the destination has no history at all. Either way the live
	// book caps it, never list above the cheapest competing sell.
	destPrice := dstStats.Highest
	if len(pair.Destination.History) == 0 {
		destPrice = noHistoryMarkup * srcStats.Average
	}
	if low, ok := lowestSellPrice(pair.Destination.Orders); ok && low < destPrice {
		destPrice = low
	}

	srcSellVol := SellOrderVolume(pair.Source.Orders)
	dstSellVol := SellOrderVolume(pair.Destination.Orders)

	// Recommend enough volume to cover the destination's daily turnover for
	// the configured fill window, never more than the source can supply.
	want := int64(dstStats.Volume * cfg.RcmndFillDays)
	if want < 1 {
		want = 1
	}

	var buyPrice float64
	var volume int64
	if srcSellVol == 0 {
		logger.Warn("Engine", "%s: no live sell orders at source, using historical highest", pair.Desc.Name)
		buyPrice = srcStats.Highest
		volume = want
	} else {
		maxVol := want
		if maxVol > srcSellVol {
			maxVol = srcSellVol
		}
		buyPrice, volume = BestResaleVolume(pair.Source.Orders, maxVol, destPrice,
			cfg.BrokerFeeSource, cfg.BrokerFeeDestination, cfg.SalesTax)
		if volume == 0 {
			return TradeRecommendation{}, false
		}
	}

	sellPrice := destPrice * (1 - cfg.BrokerFeeDestination - cfg.SalesTax)
	expenses := buyPrice*(1+cfg.BrokerFeeSource) +
		pair.Desc.UnitVolume()*cfg.FreightCostPerM3 +
		buyPrice*cfg.FreightCollateralRate
	if expenses <= 0 {
		return TradeRecommendation{}, false
	}

	filledForDays := math.MaxFloat64
	if dstStats.Volume > 0 {
		filledForDays = float64(dstSellVol) / dstStats.Volume
	}

	return TradeRecommendation{
		TypeID:          pair.TypeID,
		TypeName:        pair.Desc.Name,
		ItemVolume:      pair.Desc.UnitVolume(),
		BuyPrice:        buyPrice,
		SellPrice:       sellPrice,
		Expenses:        expenses,
		Margin:          (sellPrice - expenses) / expenses,
		RoughProfit:     (sellPrice - expenses) * float64(volume),
		RecommendVolume: volume,
		SrcMktVolume:    srcSellVol,
		DstMktVolume:    dstSellVol,
		SrcStats:        srcStats,
		DstStats:        dstStats,
		FilledForDays:   filledForDays,
	}, true
}

func keepResale(rec TradeRecommendation, cfg config.Config) bool {
	return rec.Margin > cfg.MarginCutoff &&
		rec.SrcStats.Volume > cfg.MinSrcVolume &&
		rec.DstStats.Volume > cfg.MinDstVolume &&
		rec.FilledForDays < cfg.MaxFilledForDaysCutoff
}
