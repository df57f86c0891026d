package db

import (
	"time"

	"eve-tradeworks/internal/esi"
)

// GetMarketHistory retrieves cached market history for a region/type pair.
// Returns nil, false if not cached or older than maxAge. A non-positive
// maxAge accepts arbitrarily stale rows (the -force-no-refresh path).
func (d *DB) GetMarketHistory(regionID, typeID int32, maxAge time.Duration) ([]esi.HistoryEntry, bool) {
	var updatedAt string
	err := d.sql.QueryRow(
		"SELECT updated_at FROM market_history_meta WHERE region_id=? AND type_id=?",
		regionID, typeID,
	).Scan(&updatedAt)
	if err != nil {
		return nil, false
	}

	if maxAge > 0 {
		t, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil || time.Since(t) > maxAge {
			return nil, false
		}
	}

	rows, err := d.sql.Query(
		"SELECT date, average, highest, lowest, volume, order_count FROM market_history WHERE region_id=? AND type_id=? ORDER BY date",
		regionID, typeID,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var entries []esi.HistoryEntry
	for rows.Next() {
		var e esi.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Average, &e.Highest, &e.Lowest, &e.Volume, &e.OrderCount); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// SetMarketHistory stores market history entries in the cache.
// Only entries from the last 90 days are stored to bound database growth.
func (d *DB) SetMarketHistory(regionID, typeID int32, entries []esi.HistoryEntry) {
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	tx.Exec("DELETE FROM market_history WHERE region_id=? AND type_id=?", regionID, typeID)

	stmt, err := tx.Prepare("INSERT INTO market_history (region_id, type_id, date, average, highest, lowest, volume, order_count) VALUES (?,?,?,?,?,?,?,?)")
	if err != nil {
		return
	}
	defer stmt.Close()

	cutoff := time.Now().AddDate(0, 0, -90).Format("2006-01-02")
	for _, e := range entries {
		if e.Date >= cutoff {
			stmt.Exec(regionID, typeID, e.Date, e.Average, e.Highest, e.Lowest, e.Volume, e.OrderCount)
		}
	}

	tx.Exec(
		"INSERT OR REPLACE INTO market_history_meta (region_id, type_id, updated_at) VALUES (?,?,?)",
		regionID, typeID, time.Now().UTC().Format(time.RFC3339),
	)

	tx.Commit()
}

// CleanupOldHistory removes market history older than 90 days and meta rows
// not refreshed in 30 days. Called on startup to bound database growth.
func (d *DB) CleanupOldHistory() {
	cutoffDate := time.Now().AddDate(0, 0, -90).Format("2006-01-02")
	cutoffMeta := time.Now().AddDate(0, 0, -30).Format(time.RFC3339)

	d.sql.Exec("DELETE FROM market_history WHERE date < ?", cutoffDate)
	d.sql.Exec("DELETE FROM market_history_meta WHERE updated_at < ?", cutoffMeta)
	d.sql.Exec(`
		DELETE FROM market_history
		WHERE (region_id, type_id) NOT IN (
			SELECT region_id, type_id FROM market_history_meta
		)
	`)
}
