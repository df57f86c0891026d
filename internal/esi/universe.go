package esi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
)

// Market identifies a resolved trading location: the station or structure id
// plus the system and region it lives in.
type Market struct {
	LocationID int64
	SystemID   int32
	RegionID   int32
	Citadel    bool
	Name       string
}

// ResolveStation resolves an NPC station by its exact name.
func (c *Client) ResolveStation(name string) (*Market, error) {
	ids, err := c.resolveUniverseIDs([]string{name})
	if err != nil {
		return nil, err
	}
	if len(ids.Stations) == 0 {
		return nil, fmt.Errorf("station %q not found", name)
	}
	stationID := ids.Stations[0].ID

	var station struct {
		SystemID int32  `json:"system_id"`
		Name     string `json:"name"`
	}
	url := fmt.Sprintf("%s/universe/stations/%d/?datasource=tranquility", baseURL, stationID)
	if err := c.GetJSON(url, &station); err != nil {
		return nil, fmt.Errorf("resolve station %d: %w", stationID, err)
	}

	regionID, err := c.regionOfSystem(station.SystemID)
	if err != nil {
		return nil, err
	}
	return &Market{
		LocationID: stationID,
		SystemID:   station.SystemID,
		RegionID:   regionID,
		Name:       station.Name,
	}, nil
}

// ResolveStructure resolves a citadel structure by name through the
// authenticated character search endpoint.
func (c *Client) ResolveStructure(name string, characterID int64) (*Market, error) {
	var search struct {
		Structure []int64 `json:"structure"`
	}
	url := fmt.Sprintf("%s/characters/%d/search/?datasource=tranquility&categories=structure&search=%s",
		baseURL, characterID, neturl.QueryEscape(name))
	if err := c.GetJSON(url, &search); err != nil {
		return nil, fmt.Errorf("search structure %q: %w", name, err)
	}
	if len(search.Structure) == 0 {
		return nil, fmt.Errorf("structure %q not found", name)
	}
	structureID := search.Structure[0]

	var structure struct {
		SolarSystemID int32  `json:"solar_system_id"`
		Name          string `json:"name"`
	}
	url = fmt.Sprintf("%s/universe/structures/%d/?datasource=tranquility", baseURL, structureID)
	if err := c.GetJSON(url, &structure); err != nil {
		return nil, fmt.Errorf("resolve structure %d: %w", structureID, err)
	}

	regionID, err := c.regionOfSystem(structure.SolarSystemID)
	if err != nil {
		return nil, err
	}
	return &Market{
		LocationID: structureID,
		SystemID:   structure.SolarSystemID,
		RegionID:   regionID,
		Citadel:    true,
		Name:       structure.Name,
	}, nil
}

// regionOfSystem walks system -> constellation -> region.
func (c *Client) regionOfSystem(systemID int32) (int32, error) {
	var system struct {
		ConstellationID int32 `json:"constellation_id"`
	}
	url := fmt.Sprintf("%s/universe/systems/%d/?datasource=tranquility", baseURL, systemID)
	if err := c.GetJSON(url, &system); err != nil {
		return 0, fmt.Errorf("resolve system %d: %w", systemID, err)
	}

	var constellation struct {
		RegionID int32 `json:"region_id"`
	}
	url = fmt.Sprintf("%s/universe/constellations/%d/?datasource=tranquility", baseURL, system.ConstellationID)
	if err := c.GetJSON(url, &constellation); err != nil {
		return 0, fmt.Errorf("resolve constellation %d: %w", system.ConstellationID, err)
	}
	return constellation.RegionID, nil
}

type universeIDs struct {
	Stations []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"stations"`
}

// resolveUniverseIDs resolves exact names to ids via POST /universe/ids/.
func (c *Client) resolveUniverseIDs(names []string) (*universeIDs, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	body, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", baseURL+"/universe/ids/?datasource=tranquility", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ESI %d: %s", resp.StatusCode, string(raw))
	}

	var ids universeIDs
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, err
	}
	return &ids, nil
}
