// Package datadump provides market-group metadata from the fuzzwork SQLite
// conversion of the EVE static data export.
package datadump

import (
	"compress/bzip2"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"eve-tradeworks/internal/logger"
	_ "modernc.org/sqlite"
)

const (
	dumpURL = "https://www.fuzzwork.co.uk/dump/sqlite-latest.sqlite.bz2"

	// dumpTTL is how long a downloaded dump stays fresh on disk. The dump
	// tracks game patches, not market state.
	dumpTTL = 14 * 24 * time.Hour
)

// Service answers market-group queries against an opened data dump.
type Service struct {
	db *sql.DB
}

// Open ensures a fresh dump exists under dataDir and opens it read-only.
func Open(dataDir string, client *http.Client) (*Service, error) {
	path, err := ensure(dataDir, client)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open datadump: %w", err)
	}
	return &Service{db: db}, nil
}

// NewService wraps an already opened database. Used by tests.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// ensure downloads and decompresses the dump unless a fresh copy exists.
func ensure(dataDir string, client *http.Client) (string, error) {
	path := filepath.Join(dataDir, "datadump.db")
	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) < dumpTTL {
		return path, nil
	}

	logger.Info("Datadump", "Downloading static data...")
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	resp, err := client.Get(dumpURL)
	if err != nil {
		return "", fmt.Errorf("download datadump: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("download datadump: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, bzip2.NewReader(resp.Body))
	f.Close()
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("decompress datadump: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	logger.Success("Datadump", "Static data ready")
	return path, nil
}

// MarketGroupIDs resolves a root market-group name to the set of that
// group's id plus every descendant group id.
func (s *Service) MarketGroupIDs(rootName string) (map[int32]bool, error) {
	var rootID int32
	err := s.db.QueryRow(
		"SELECT marketGroupID FROM invMarketGroups WHERE marketGroupName = ?",
		rootName,
	).Scan(&rootID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market group %q not found", rootName)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup market group %q: %w", rootName, err)
	}

	ids := map[int32]bool{rootID: true}
	frontier := []int32{rootID}
	for len(frontier) > 0 {
		var next []int32
		for _, parent := range frontier {
			rows, err := s.db.Query(
				"SELECT marketGroupID FROM invMarketGroups WHERE parentGroupID = ?", parent)
			if err != nil {
				return nil, fmt.Errorf("expand market group %d: %w", parent, err)
			}
			for rows.Next() {
				var id int32
				if err := rows.Scan(&id); err != nil {
					continue
				}
				if !ids[id] {
					ids[id] = true
					next = append(next, id)
				}
			}
			rows.Close()
		}
		frontier = next
	}
	return ids, nil
}

// ResolveIncludeGroups unions the group-id closures of every configured root
// name. A nil result means no group filtering.
func (s *Service) ResolveIncludeGroups(names []string) (map[int32]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ids := make(map[int32]bool)
	for _, name := range names {
		groupIDs, err := s.MarketGroupIDs(name)
		if err != nil {
			return nil, err
		}
		for id := range groupIDs {
			ids[id] = true
		}
	}
	return ids, nil
}
