package esi

import "fmt"

// TypeDescription mirrors the ESI universe type response. MarketGroupID is a
// pointer because unmarketable types omit it.
type TypeDescription struct {
	TypeID         int32   `json:"type_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	GroupID        int32   `json:"group_id"`
	MarketGroupID  *int32  `json:"market_group_id"`
	Volume         float64 `json:"volume"`
	PackagedVolume float64 `json:"packaged_volume"`
	PortionSize    int32   `json:"portion_size"`
	Published      bool    `json:"published"`
}

// UnitVolume is the m³ one unit takes in cargo. Ships report hull volume in
// Volume and a much smaller PackagedVolume; the latter is what freight costs.
func (t *TypeDescription) UnitVolume() float64 {
	if t.PackagedVolume > 0 {
		return t.PackagedVolume
	}
	return t.Volume
}

// FetchTypeDescription fetches a type's metadata by id.
func (c *Client) FetchTypeDescription(typeID int32) (*TypeDescription, error) {
	url := fmt.Sprintf("%s/universe/types/%d/?datasource=tranquility", baseURL, typeID)
	var desc TypeDescription
	if err := c.GetJSON(url, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// FetchKillmail fetches a full killmail by id and hash. The zKillboard feed
// only carries references; item quantities come from this endpoint.
func (c *Client) FetchKillmail(killmailID int64, hash string) (*KillmailDetail, error) {
	url := fmt.Sprintf("%s/killmails/%d/%s/?datasource=tranquility", baseURL, killmailID, hash)
	var km KillmailDetail
	if err := c.GetJSON(url, &km); err != nil {
		return nil, err
	}
	return &km, nil
}

// KillmailDetail is the subset of the ESI killmail used for loss counting.
type KillmailDetail struct {
	KillmailID   int64  `json:"killmail_id"`
	KillmailTime string `json:"killmail_time"`
	Victim       struct {
		ShipTypeID int32          `json:"ship_type_id"`
		Items      []KillmailItem `json:"items"`
	} `json:"victim"`
}

// KillmailItem is one fitted or cargo item on a killmail victim.
type KillmailItem struct {
	ItemTypeID        int32 `json:"item_type_id"`
	QuantityDestroyed int64 `json:"quantity_destroyed"`
	QuantityDropped   int64 `json:"quantity_dropped"`
}
