// Package config loads tool settings from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StationSpec identifies a market location by name. Citadel structures need
// authenticated endpoints and are searched through the character search API.
type StationSpec struct {
	Name    string `json:"name"`
	Citadel bool   `json:"citadel"`
}

// ZkillEntity selects whose losses feed the loss-weighted strategy.
// Kind is one of "region", "alliance", "corporation", "character".
type ZkillEntity struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// FilterPath returns the zKillboard URL filter segment for the entity.
func (z ZkillEntity) FilterPath() string {
	switch z.Kind {
	case "alliance":
		return "allianceID"
	case "corporation":
		return "corporationID"
	case "character":
		return "characterID"
	default:
		return "regionID"
	}
}

// Config holds all tunable parameters. It is loaded once at startup and
// passed by pointer into every pipeline; nothing mutates it afterwards.
type Config struct {
	Source      StationSpec `json:"source"`
	Destination StationSpec `json:"destination"`

	MarginCutoff           float64  `json:"margin_cutoff"`
	MinProfit              *float64 `json:"min_profit"`
	MinSrcVolume           float64  `json:"min_src_volume"`
	MinDstVolume           float64  `json:"min_dst_volume"`
	MaxFilledForDaysCutoff float64  `json:"max_filled_for_days_cutoff"`
	RcmndFillDays          float64  `json:"rcmnd_fill_days"`

	BrokerFeeSource      float64 `json:"broker_fee_source"`
	BrokerFeeDestination float64 `json:"broker_fee_destination"`
	SalesTax             float64 `json:"sales_tax"`

	FreightCostPerM3      float64 `json:"freight_cost_per_m3"`
	FreightCollateralRate float64 `json:"freight_collateral_rate"`

	CargoCapacity     float64 `json:"cargo_capacity"`
	ItemsTake         int     `json:"items_take"`
	HistoryWindowDays int     `json:"history_window_days"`

	ZkbDownloadPages int         `json:"zkb_download_pages"`
	ZkillEntity      ZkillEntity `json:"zkill_entity"`

	IncludeGroups       []string `json:"include_groups"`
	RefreshTimeoutHours int      `json:"refresh_timeout_hours"`
}

// Default returns a Config with sensible defaults for a Jita-sourced route.
func Default() *Config {
	return &Config{
		Source:                 StationSpec{Name: "Jita IV - Moon 4 - Caldari Navy Assembly Plant"},
		MarginCutoff:           0.2,
		MinSrcVolume:           10,
		MinDstVolume:           10,
		MaxFilledForDaysCutoff: 10,
		RcmndFillDays:          7,
		BrokerFeeSource:        0.02,
		BrokerFeeDestination:   0.02,
		SalesTax:               0.05,
		FreightCostPerM3:       1500,
		FreightCollateralRate:  0.015,
		CargoCapacity:          60000,
		ItemsTake:              30,
		HistoryWindowDays:      14,
		ZkbDownloadPages:       5,
		ZkillEntity:            ZkillEntity{Kind: "region", ID: 10000002},
		RefreshTimeoutHours:    24,
	}
}

// RefreshTimeout is how long cached market history stays fresh.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutHours) * time.Hour
}

// FromFile reads a JSON config file on top of the defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.HistoryWindowDays <= 0 {
		cfg.HistoryWindowDays = 14
	}
	if cfg.RefreshTimeoutHours <= 0 {
		cfg.RefreshTimeoutHours = 24
	}
	if cfg.Destination.Name == "" {
		return nil, fmt.Errorf("config %s: destination station is required", path)
	}
	return cfg, nil
}
