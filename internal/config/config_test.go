package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Values(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.HistoryWindowDays != 14 {
		t.Errorf("HistoryWindowDays = %v, want 14", c.HistoryWindowDays)
	}
	if c.ItemsTake != 30 {
		t.Errorf("ItemsTake = %v, want 30", c.ItemsTake)
	}
	if c.SalesTax != 0.05 {
		t.Errorf("SalesTax = %v, want 0.05", c.SalesTax)
	}
	if c.BrokerFeeSource != 0.02 || c.BrokerFeeDestination != 0.02 {
		t.Errorf("broker fees = %v/%v, want 0.02/0.02", c.BrokerFeeSource, c.BrokerFeeDestination)
	}
	if c.FreightCostPerM3 != 1500 {
		t.Errorf("FreightCostPerM3 = %v, want 1500", c.FreightCostPerM3)
	}
	if c.MinProfit != nil {
		t.Errorf("MinProfit = %v, want nil (disabled)", *c.MinProfit)
	}
}

func TestFromFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"source": {"name": "Jita IV - Moon 4 - Caldari Navy Assembly Plant"},
		"destination": {"name": "T0DT-T - Couch of Legends", "citadel": true},
		"margin_cutoff": 0.35,
		"min_profit": 1000000,
		"cargo_capacity": 12000,
		"include_groups": ["Ship Equipment"]
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if c.MarginCutoff != 0.35 {
		t.Errorf("MarginCutoff = %v, want 0.35", c.MarginCutoff)
	}
	if c.MinProfit == nil || *c.MinProfit != 1000000 {
		t.Errorf("MinProfit = %v, want 1000000", c.MinProfit)
	}
	if c.CargoCapacity != 12000 {
		t.Errorf("CargoCapacity = %v, want 12000", c.CargoCapacity)
	}
	if !c.Destination.Citadel {
		t.Error("Destination.Citadel = false, want true")
	}
	// Untouched keys keep defaults.
	if c.HistoryWindowDays != 14 {
		t.Errorf("HistoryWindowDays = %v, want default 14", c.HistoryWindowDays)
	}
	if len(c.IncludeGroups) != 1 || c.IncludeGroups[0] != "Ship Equipment" {
		t.Errorf("IncludeGroups = %v", c.IncludeGroups)
	}
}

func TestFromFile_MissingDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"margin_cutoff": 0.1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(path); err == nil {
		t.Fatal("FromFile without destination should fail")
	}
}

func TestZkillEntity_FilterPath(t *testing.T) {
	cases := map[string]string{
		"region":      "regionID",
		"alliance":    "allianceID",
		"corporation": "corporationID",
		"character":   "characterID",
		"":            "regionID",
	}
	for kind, want := range cases {
		if got := (ZkillEntity{Kind: kind}).FilterPath(); got != want {
			t.Errorf("FilterPath(%q) = %q, want %q", kind, got, want)
		}
	}
}
