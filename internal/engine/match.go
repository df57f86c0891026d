package engine

import "eve-tradeworks/internal/esi"

// BestResaleVolume walks the source sell book cheapest first, accumulating
// up to maxVolume units, and stops at the first price tier where reselling
// at destSellPrice stops being profitable after both broker fees and sales
// tax. Returns the price of the last profitable tier and the accumulated
// volume; volume 0 when no tier is profitable.
func BestResaleVolume(orders []esi.Order, maxVolume int64, destSellPrice, feeSrc, feeDst, tax float64) (float64, int64) {
	proceeds := destSellPrice * (1 - feeDst - tax)

	var price float64
	var volume int64
	for _, o := range sellOrdersAscending(orders) {
		if o.Price*(1+feeSrc) >= proceeds {
			break
		}
		price = o.Price
		take := o.VolumeRemain
		if volume+take > maxVolume {
			take = maxVolume - volume
		}
		volume += take
		if volume >= maxVolume {
			break
		}
	}
	return price, volume
}

// MatchOrderFlow crosses the source sell book against the destination buy
// book: best bids first, cheapest asks first, matching the minimum of the
// two remaining volumes at each step. A match is accepted only while the
// bid after sales tax beats the ask with the source broker fee; matching
// stops entirely at the first unprofitable pairing since both books are
// sorted toward worse prices.
func MatchOrderFlow(srcOrders, dstOrders []esi.Order, feeSrc, tax float64) OrderFlowMatch {
	sells := sellOrdersAscending(srcOrders)
	buys := buyOrdersDescending(dstOrders)

	remaining := make([]int64, len(sells))
	for i, s := range sells {
		remaining[i] = s.VolumeRemain
	}

	var m OrderFlowMatch
	si := 0
	for _, b := range buys {
		bidRemain := b.VolumeRemain
		for si < len(sells) && bidRemain > 0 {
			if remaining[si] == 0 {
				si++
				continue
			}
			ask := sells[si]
			if b.Price*(1-tax) <= ask.Price*(1+feeSrc) {
				return m
			}
			take := remaining[si]
			if bidRemain < take {
				take = bidRemain
			}
			m.Volume += take
			m.SellSum += b.Price * float64(take)
			m.BuySum += ask.Price * float64(take)
			if ask.Price > m.MaxBuyPrice {
				m.MaxBuyPrice = ask.Price
			}
			remaining[si] -= take
			bidRemain -= take
		}
		if si >= len(sells) {
			break
		}
	}
	return m
}
