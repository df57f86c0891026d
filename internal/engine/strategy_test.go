package engine

import (
	"math"
	"reflect"
	"testing"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/esi"
	"eve-tradeworks/internal/logger"
	"eve-tradeworks/internal/zkillboard"
)

func init() {
	logger.SetQuiet(true)
}

var testNow = day("2025-06-10")

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.BrokerFeeSource = 0
	cfg.BrokerFeeDestination = 0
	cfg.SalesTax = 0
	cfg.FreightCostPerM3 = 0
	cfg.FreightCollateralRate = 0
	return cfg
}

func flatHistory(days int, avg, high, low float64, vol, count int64) []esi.HistoryEntry {
	var entries []esi.HistoryEntry
	for i := 0; i < days; i++ {
		entries = append(entries, esi.HistoryEntry{
			Date:       testNow.AddDate(0, 0, -i).Format(dateLayout),
			Average:    avg,
			Highest:    high,
			Lowest:     low,
			Volume:     vol,
			OrderCount: count,
		})
	}
	return entries
}

func testPair(src, dst MarketSnapshot) ItemPair {
	return ItemPair{
		TypeID:      34,
		Desc:        esi.TypeDescription{TypeID: 34, Name: "Tritanium", Volume: 0.01, Published: true},
		Source:      src,
		Destination: dst,
	}
}

func TestSellSell_Evaluate(t *testing.T) {
	ev := NewSellSell(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{
			Orders:  []esi.Order{sell(100, 1000)},
			History: flatHistory(14, 100, 110, 90, 500, 20),
		},
		MarketSnapshot{
			Orders:  []esi.Order{sell(150, 30)},
			History: flatHistory(14, 145, 160, 140, 100, 15),
		},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	// Live book (150) is below the window high (160), so it sets the price.
	if rec.SellPrice != 150 {
		t.Errorf("SellPrice = %v, want 150", rec.SellPrice)
	}
	if rec.BuyPrice != 100 {
		t.Errorf("BuyPrice = %v, want 100", rec.BuyPrice)
	}
	// Destination turns over 100/day; a 7 day fill wants 700 units.
	if rec.RecommendVolume != 700 {
		t.Errorf("RecommendVolume = %d, want 700", rec.RecommendVolume)
	}
	if math.Abs(rec.Margin-0.5) > 1e-9 {
		t.Errorf("Margin = %v, want 0.5", rec.Margin)
	}
	// 30 live units over 100/day.
	if math.Abs(rec.FilledForDays-0.3) > 1e-9 {
		t.Errorf("FilledForDays = %v, want 0.3", rec.FilledForDays)
	}
	if !ev.Keep(rec) {
		t.Error("expected recommendation to pass filters")
	}
}

func TestSellSell_NoDestinationHistoryFallback(t *testing.T) {
	ev := NewSellSell(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{
			Orders:  []esi.Order{sell(100, 1000)},
			History: flatHistory(14, 100, 110, 90, 500, 20),
		},
		MarketSnapshot{},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	// No destination history at all: price at 1.3 × source average.
	if math.Abs(rec.SellPrice-130) > 1e-9 {
		t.Errorf("SellPrice = %v, want 130", rec.SellPrice)
	}
	if rec.RecommendVolume != 1 {
		t.Errorf("RecommendVolume = %d, want 1 (no destination turnover)", rec.RecommendVolume)
	}
}

func TestSellSell_LiveBookCapsNoHistoryFallback(t *testing.T) {
	ev := NewSellSell(testConfig())
	ev.Now = testNow

	src := MarketSnapshot{
		Orders:  []esi.Order{sell(100, 1000)},
		History: flatHistory(14, 100, 110, 90, 500, 20),
	}

	// Destination has no history but a live sell at 120: list under it,
	// not at the 1.3 × 100 = 130 fallback.
	rec, ok := ev.Evaluate(testPair(src, MarketSnapshot{
		Orders: []esi.Order{sell(120, 50)},
	}))
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if math.Abs(rec.SellPrice-120) > 1e-9 {
		t.Errorf("SellPrice = %v, want 120 (live book caps fallback)", rec.SellPrice)
	}

	// A live sell below the source cost makes the item unprofitable
	// outright, it must not surface priced off the fallback.
	if rec, ok := ev.Evaluate(testPair(src, MarketSnapshot{
		Orders: []esi.Order{sell(50, 50)},
	})); ok {
		t.Fatalf("expected no recommendation below source cost, got %+v", rec)
	}
}

func TestSellSell_NoSourceLiquidityUsesHistoricalHighest(t *testing.T) {
	ev := NewSellSell(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{History: flatHistory(14, 100, 110, 90, 500, 20)},
		MarketSnapshot{History: flatHistory(14, 200, 220, 190, 10, 5)},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.BuyPrice != 110 {
		t.Errorf("BuyPrice = %v, want the source window highest 110", rec.BuyPrice)
	}
	if rec.RecommendVolume != 70 {
		t.Errorf("RecommendVolume = %d, want 70", rec.RecommendVolume)
	}
}

func TestSellSell_MarginConsistency(t *testing.T) {
	cfg := testConfig()
	cfg.BrokerFeeSource = 0.02
	cfg.BrokerFeeDestination = 0.02
	cfg.SalesTax = 0.05
	cfg.FreightCostPerM3 = 1500
	cfg.FreightCollateralRate = 0.015
	ev := NewSellSell(cfg)
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{
			Orders:  []esi.Order{sell(100000, 1000)},
			History: flatHistory(14, 100000, 110000, 90000, 500, 20),
		},
		MarketSnapshot{
			Orders:  []esi.Order{sell(180000, 30)},
			History: flatHistory(14, 175000, 190000, 170000, 100, 15),
		},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	recomputed := (rec.SellPrice - rec.Expenses) / rec.Expenses
	if math.Abs(recomputed-rec.Margin) > 1e-9 {
		t.Errorf("stored margin %v does not match recomputed %v", rec.Margin, recomputed)
	}
	wantExpenses := 100000*1.02 + 0.01*1500 + 100000*0.015
	if math.Abs(rec.Expenses-wantExpenses) > 1e-6 {
		t.Errorf("Expenses = %v, want %v", rec.Expenses, wantExpenses)
	}
}

func TestSellBuy_Evaluate(t *testing.T) {
	ev := NewSellBuy(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{Orders: []esi.Order{sell(100, 10)}},
		MarketSnapshot{Orders: []esi.Order{buy(150, 5), sell(200, 7)}},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.RecommendVolume != 5 {
		t.Errorf("RecommendVolume = %d, want 5", rec.RecommendVolume)
	}
	// Market volume columns report sell-side liquidity on both ends.
	if rec.SrcMktVolume != 10 {
		t.Errorf("SrcMktVolume = %d, want 10", rec.SrcMktVolume)
	}
	if rec.DstMktVolume != 7 {
		t.Errorf("DstMktVolume = %d, want 7 (destination sell side)", rec.DstMktVolume)
	}
	if math.Abs(rec.RoughProfit-250) > 1e-9 {
		t.Errorf("RoughProfit = %v, want 250", rec.RoughProfit)
	}
	if math.Abs(rec.BestRoughProfit-250) > 1e-9 {
		t.Errorf("BestRoughProfit = %v, want 250", rec.BestRoughProfit)
	}
	recomputed := (rec.SellPrice - rec.Expenses) / rec.Expenses
	if math.Abs(recomputed-rec.Margin) > 1e-9 {
		t.Errorf("stored margin %v does not match recomputed %v", rec.Margin, recomputed)
	}
}

func TestSellBuy_ClearingPriceVersusAverage(t *testing.T) {
	ev := NewSellBuy(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{Orders: []esi.Order{sell(100, 5), sell(140, 5)}},
		MarketSnapshot{Orders: []esi.Order{buy(200, 10)}},
	)

	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	// Realized cost is the clearing price 140; the counterfactual uses the
	// 120 average, so BestRoughProfit exceeds RoughProfit.
	if rec.BuyPrice != 140 {
		t.Errorf("BuyPrice = %v, want clearing price 140", rec.BuyPrice)
	}
	if rec.BestRoughProfit <= rec.RoughProfit {
		t.Errorf("BestRoughProfit %v should exceed RoughProfit %v", rec.BestRoughProfit, rec.RoughProfit)
	}
}

func TestSellBuy_NoMatchDropped(t *testing.T) {
	ev := NewSellBuy(testConfig())
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{Orders: []esi.Order{sell(100, 10)}},
		MarketSnapshot{Orders: []esi.Order{buy(90, 10)}},
	)
	if _, ok := ev.Evaluate(pair); ok {
		t.Fatal("expected no recommendation when nothing matches")
	}
}

func TestSellBuy_MinProfitFilter(t *testing.T) {
	cfg := testConfig()
	minProfit := 1000.0
	cfg.MinProfit = &minProfit
	ev := NewSellBuy(cfg)
	ev.Now = testNow

	pair := testPair(
		MarketSnapshot{Orders: []esi.Order{sell(100, 10)}},
		MarketSnapshot{Orders: []esi.Order{buy(150, 5)}},
	)
	rec, ok := ev.Evaluate(pair)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if ev.Keep(rec) {
		t.Error("expected 250 profit to fail the 1000 minimum")
	}
}

func TestSellSellZkb_GatesAndCaps(t *testing.T) {
	cfg := testConfig()
	src := MarketSnapshot{
		Orders:  []esi.Order{sell(100, 1000)},
		History: flatHistory(14, 100, 110, 90, 500, 20),
	}
	dst := MarketSnapshot{
		Orders:  []esi.Order{sell(150, 30)},
		History: flatHistory(14, 145, 160, 140, 100, 15),
	}

	// No losses recorded: the item is out of the universe.
	ev := NewSellSellZkb(cfg, zkillboard.LossRates{})
	ev.Now = testNow
	if _, ok := ev.Evaluate(testPair(src, dst)); ok {
		t.Fatal("expected item without losses to be dropped")
	}

	// 10 losses/day over a 7 day fill caps volume at 70.
	ev = NewSellSellZkb(cfg, zkillboard.LossRates{34: 10})
	ev.Now = testNow
	rec, ok := ev.Evaluate(testPair(src, dst))
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if rec.RecommendVolume != 70 {
		t.Errorf("RecommendVolume = %d, want 70", rec.RecommendVolume)
	}
	if rec.LossesPerDay != 10 {
		t.Errorf("LossesPerDay = %v, want 10", rec.LossesPerDay)
	}
	if want := (rec.SellPrice - rec.Expenses) * 70; math.Abs(rec.RoughProfit-want) > 1e-9 {
		t.Errorf("RoughProfit = %v, want %v after the cap", rec.RoughProfit, want)
	}
}

func TestRun_FiltersAndSorts(t *testing.T) {
	ev := NewSellBuy(testConfig())
	ev.Now = testNow

	mkPair := func(typeID int32, bid float64, vol int64) ItemPair {
		p := testPair(
			MarketSnapshot{Orders: []esi.Order{sell(100, vol)}},
			MarketSnapshot{Orders: []esi.Order{buy(bid, vol)}},
		)
		p.TypeID = typeID
		return p
	}

	pairs := []ItemPair{
		mkPair(1, 150, 5),  // profit 250
		mkPair(2, 102, 5),  // 2% margin, below the cutoff
		mkPair(3, 300, 10), // profit 2000
	}

	recs := Run(pairs, ev, false)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].TypeID != 3 || recs[1].TypeID != 1 {
		t.Errorf("order = [%d %d], want [3 1] by profit descending", recs[0].TypeID, recs[1].TypeID)
	}
}

func TestRun_Truncates(t *testing.T) {
	cfg := testConfig()
	cfg.ItemsTake = 1
	ev := NewSellSell(cfg)
	ev.Now = testNow

	src := MarketSnapshot{
		Orders:  []esi.Order{sell(100, 1000)},
		History: flatHistory(14, 100, 110, 90, 500, 20),
	}
	dst := MarketSnapshot{
		Orders:  []esi.Order{sell(150, 30)},
		History: flatHistory(14, 145, 160, 140, 100, 15),
	}
	a := testPair(src, dst)
	b := testPair(src, dst)
	b.TypeID = 35

	recs := Run([]ItemPair{a, b}, ev, false)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1 after truncation", len(recs))
	}
}

func TestRun_DisableFilters(t *testing.T) {
	cfg := testConfig()
	cfg.MarginCutoff = 100 // nothing passes
	ev := NewSellBuy(cfg)
	ev.Now = testNow

	pairs := []ItemPair{testPair(
		MarketSnapshot{Orders: []esi.Order{sell(100, 10)}},
		MarketSnapshot{Orders: []esi.Order{buy(150, 5)}},
	)}

	if recs := Run(pairs, ev, false); len(recs) != 0 {
		t.Fatalf("expected the cutoff to drop everything, got %d", len(recs))
	}
	if recs := Run(pairs, ev, true); len(recs) != 1 {
		t.Fatalf("expected filters to be skipped, got %d", len(recs))
	}
}

func TestRun_Idempotent(t *testing.T) {
	ev := NewSellSell(testConfig())
	ev.Now = testNow

	pairs := []ItemPair{
		testPair(
			MarketSnapshot{
				Orders:  []esi.Order{sell(100, 1000)},
				History: flatHistory(14, 100, 110, 90, 500, 20),
			},
			MarketSnapshot{
				Orders:  []esi.Order{sell(150, 30)},
				History: flatHistory(14, 145, 160, 140, 100, 15),
			},
		),
	}

	first := Run(pairs, ev, false)
	second := Run(pairs, ev, false)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-running on unchanged input produced a different list")
	}
}
