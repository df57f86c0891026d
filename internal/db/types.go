package db

import (
	"time"

	"eve-tradeworks/internal/esi"
)

// typeCacheTTL is how long a cached type description stays fresh. Type
// metadata changes only on game patches.
const typeCacheTTL = 7 * 24 * time.Hour

// GetTypeDescription retrieves a cached type description.
func (d *DB) GetTypeDescription(typeID int32) (*esi.TypeDescription, bool) {
	var desc esi.TypeDescription
	var marketGroupID *int32
	var published int
	var updatedAt string
	err := d.sql.QueryRow(`
		SELECT type_id, name, group_id, market_group_id, volume, packaged_volume, portion_size, published, updated_at
		FROM type_cache WHERE type_id = ?`, typeID).
		Scan(&desc.TypeID, &desc.Name, &desc.GroupID, &marketGroupID,
			&desc.Volume, &desc.PackagedVolume, &desc.PortionSize, &published, &updatedAt)
	if err != nil {
		return nil, false
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || time.Since(t) > typeCacheTTL {
		return nil, false
	}
	desc.MarketGroupID = marketGroupID
	desc.Published = published == 1
	return &desc, true
}

// SetTypeDescription stores a type description in the cache.
func (d *DB) SetTypeDescription(desc *esi.TypeDescription) {
	published := 0
	if desc.Published {
		published = 1
	}
	d.sql.Exec(`
		INSERT OR REPLACE INTO type_cache
			(type_id, name, group_id, market_group_id, volume, packaged_volume, portion_size, published, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		desc.TypeID, desc.Name, desc.GroupID, desc.MarketGroupID,
		desc.Volume, desc.PackagedVolume, desc.PortionSize, published,
		time.Now().UTC().Format(time.RFC3339),
	)
}
