// Package table renders recommendation lists for the terminal.
package table

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"eve-tradeworks/internal/engine"
)

// RenderSellSell prints the direct-resale table. nameLen > 0 truncates item
// names to that many runes.
func RenderSellSell(w io.Writer, recs []engine.TradeRecommendation, nameLen int) {
	t := newTable(w, []string{
		"id", "item", "buy prc", "sell prc", "expenses", "margin",
		"src vlm", "dst vlm", "rcmnd vlm", "fld fr dy", "prft",
	})
	for _, r := range recs {
		t.Append([]string{
			fmt.Sprintf("%d", r.TypeID),
			truncate(r.TypeName, nameLen),
			isk(r.BuyPrice),
			isk(r.SellPrice),
			isk(r.Expenses),
			percent(r.Margin),
			humanize.CommafWithDigits(r.SrcStats.Volume, 1),
			humanize.CommafWithDigits(r.DstStats.Volume, 1),
			humanize.Comma(r.RecommendVolume),
			days(r.FilledForDays),
			isk(r.RoughProfit),
		})
	}
	t.Render()
}

// RenderSellSellZkb prints the loss-weighted table: the resale columns plus
// the loss rate driving each item's inclusion.
func RenderSellSellZkb(w io.Writer, recs []engine.TradeRecommendation, nameLen int) {
	t := newTable(w, []string{
		"id", "item", "buy prc", "sell prc", "margin",
		"lss/day", "rcmnd vlm", "prft",
	})
	for _, r := range recs {
		t.Append([]string{
			fmt.Sprintf("%d", r.TypeID),
			truncate(r.TypeName, nameLen),
			isk(r.BuyPrice),
			isk(r.SellPrice),
			percent(r.Margin),
			humanize.CommafWithDigits(r.LossesPerDay, 1),
			humanize.Comma(r.RecommendVolume),
			isk(r.RoughProfit),
		})
	}
	t.Render()
}

// RenderSellBuy prints the optimized instant-flip selection with a totals
// footer. The crfl prft column shows how much extra the average-cost
// counterfactual would earn, but only when that misses by more than 10% of
// the realized profit.
func RenderSellBuy(w io.Writer, sel engine.OptimizedSelection, nameLen int) {
	t := newTable(w, []string{
		"id", "item", "buy prc", "sell prc", "margin",
		"rcmnd vlm", "m³", "prft", "crfl prft",
	})
	for _, r := range sel.Items {
		t.Append([]string{
			fmt.Sprintf("%d", r.TypeID),
			truncate(r.TypeName, nameLen),
			isk(r.BuyPrice),
			isk(r.SellPrice),
			percent(r.Margin),
			humanize.Comma(r.RecommendVolume),
			humanize.CommafWithDigits(r.ItemVolume*float64(r.RecommendVolume), 1),
			isk(r.RoughProfit),
			missedProfit(r.RoughProfit, r.BestRoughProfit),
		})
	}
	t.SetFooter([]string{
		"", "", "", "", "total",
		"", humanize.CommafWithDigits(sel.TotalVolume, 1),
		isk(sel.TotalProfit), "",
	})
	t.Render()
}

// RenderNames prints one item name per line, handy for pasting into the
// in-game multibuy window.
func RenderNames(w io.Writer, recs []engine.TradeRecommendation) {
	for _, r := range recs {
		fmt.Fprintln(w, r.TypeName)
	}
}

// RenderNamePrices prints "name<TAB>sell price" lines.
func RenderNamePrices(w io.Writer, recs []engine.TradeRecommendation) {
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\n", r.TypeName, isk(r.SellPrice))
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	t.SetAutoWrapText(false)
	return t
}

func truncate(name string, n int) string {
	if n <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= n {
		return name
	}
	return string(runes[:n])
}

func isk(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// missedProfit is blank unless splitting the buy across orders at average
// cost would beat the single-price multibuy by more than 10%.
func missedProfit(rough, best float64) string {
	if rough <= 0 || (best-rough)/rough <= 0.1 {
		return ""
	}
	return isk(best - rough)
}

// days formats filled-for-days, which is a sentinel max when the
// destination has no turnover at all.
func days(v float64) string {
	if v > 1e6 {
		return "inf"
	}
	return humanize.CommafWithDigits(v, 1)
}
