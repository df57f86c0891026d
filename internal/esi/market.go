package esi

import (
	"fmt"
	"sort"
)

// Order mirrors the ESI market order response.
type Order struct {
	OrderID      int64   `json:"order_id"`
	TypeID       int32   `json:"type_id"`
	LocationID   int64   `json:"location_id"`
	SystemID     int32   `json:"system_id"`
	Price        float64 `json:"price"`
	VolumeRemain int64   `json:"volume_remain"`
	VolumeTotal  int64   `json:"volume_total"`
	MinVolume    int64   `json:"min_volume"`
	IsBuyOrder   bool    `json:"is_buy_order"`
	Issued       string  `json:"issued"`
	Duration     int32   `json:"duration"`
}

// FetchRegionOrders fetches all market orders for a region, served from the
// in-memory ETag/Expires cache when possible.
func (c *Client) FetchRegionOrders(regionID int32) ([]Order, error) {
	return c.fetchRegionOrdersCached(regionID)
}

// FetchStructureOrders fetches all orders on a citadel structure market.
// Requires an access token with the structure markets scope.
func (c *Client) FetchStructureOrders(structureID int64) ([]Order, error) {
	url := fmt.Sprintf("%s/markets/structures/%d/?datasource=tranquility", baseURL, structureID)
	return getPaginated[Order](c, url)
}

// FetchRegionTypes fetches every type id with active orders in a region.
func (c *Client) FetchRegionTypes(regionID int32) ([]int32, error) {
	url := fmt.Sprintf("%s/markets/%d/types/?datasource=tranquility", baseURL, regionID)
	ids, err := getPaginated[int32](c, url)
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	// Pages can overlap between fetches; dedupe.
	out := ids[:0]
	var prev int32 = -1
	for _, id := range ids {
		if id != prev {
			out = append(out, id)
			prev = id
		}
	}
	return out, nil
}

// GroupByType splits an order list into per-item order books.
func GroupByType(orders []Order) map[int32][]Order {
	grouped := make(map[int32][]Order)
	for _, o := range orders {
		grouped[o.TypeID] = append(grouped[o.TypeID], o)
	}
	return grouped
}
