package esi

import "fmt"

// HistoryEntry represents a single day of market history for an item in a region.
type HistoryEntry struct {
	Date       string  `json:"date"`
	Average    float64 `json:"average"`
	Highest    float64 `json:"highest"`
	Lowest     float64 `json:"lowest"`
	Volume     int64   `json:"volume"`
	OrderCount int64   `json:"order_count"`
}

// FetchMarketHistory fetches daily market history for a type in a region.
// ESI returns up to 13 months, sorted ascending by date.
func (c *Client) FetchMarketHistory(regionID, typeID int32) ([]HistoryEntry, error) {
	url := fmt.Sprintf("%s/markets/%d/history/?datasource=tranquility&type_id=%d",
		baseURL, regionID, typeID)

	var entries []HistoryEntry
	if err := c.GetJSON(url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
