package engine

import (
	"sort"

	"eve-tradeworks/internal/esi"
)

// SellOrderVolume sums remaining volume over sell orders.
func SellOrderVolume(orders []esi.Order) int64 {
	var total int64
	for _, o := range orders {
		if !o.IsBuyOrder {
			total += o.VolumeRemain
		}
	}
	return total
}

// BuyOrderVolume sums remaining volume over buy orders.
func BuyOrderVolume(orders []esi.Order) int64 {
	var total int64
	for _, o := range orders {
		if o.IsBuyOrder {
			total += o.VolumeRemain
		}
	}
	return total
}

// sellOrdersAscending returns the sell side sorted cheapest first.
func sellOrdersAscending(orders []esi.Order) []esi.Order {
	var sells []esi.Order
	for _, o := range orders {
		if !o.IsBuyOrder {
			sells = append(sells, o)
		}
	}
	sort.Slice(sells, func(i, j int) bool { return sells[i].Price < sells[j].Price })
	return sells
}

// buyOrdersDescending returns the buy side sorted best bid first.
func buyOrdersDescending(orders []esi.Order) []esi.Order {
	var buys []esi.Order
	for _, o := range orders {
		if o.IsBuyOrder {
			buys = append(buys, o)
		}
	}
	sort.Slice(buys, func(i, j int) bool { return buys[i].Price > buys[j].Price })
	return buys
}

// lowestSellPrice returns the cheapest live sell price, or false when the
// book has no sell side.
func lowestSellPrice(orders []esi.Order) (float64, bool) {
	found := false
	var lowest float64
	for _, o := range orders {
		if o.IsBuyOrder {
			continue
		}
		if !found || o.Price < lowest {
			lowest = o.Price
			found = true
		}
	}
	return lowest, found
}
