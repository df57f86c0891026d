package db

import (
	"strings"

	"eve-tradeworks/internal/esi"
)

// GetStation retrieves a resolved market location by its configured name.
// Station name -> id mappings never change, so there is no TTL.
func (d *DB) GetStation(name string) (*esi.Market, bool) {
	var m esi.Market
	var citadel int
	err := d.sql.QueryRow(`
		SELECT location_id, system_id, region_id, citadel, name
		FROM station_cache WHERE name_key = ?`, stationKey(name)).
		Scan(&m.LocationID, &m.SystemID, &m.RegionID, &citadel, &m.Name)
	if err != nil {
		return nil, false
	}
	m.Citadel = citadel == 1
	return &m, true
}

// SetStation stores a resolved market location under its configured name.
func (d *DB) SetStation(name string, m *esi.Market) {
	citadel := 0
	if m.Citadel {
		citadel = 1
	}
	d.sql.Exec(`
		INSERT OR REPLACE INTO station_cache (name_key, location_id, system_id, region_id, citadel, name)
		VALUES (?,?,?,?,?,?)`,
		stationKey(name), m.LocationID, m.SystemID, m.RegionID, citadel, m.Name,
	)
}

func stationKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
