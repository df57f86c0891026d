package esi

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOrder_UnmarshalJSON(t *testing.T) {
	raw := `{"order_id":1,"type_id":34,"location_id":60003760,"system_id":30000142,` +
		`"price":4.5,"volume_remain":100000,"volume_total":250000,"min_volume":1,` +
		`"is_buy_order":false,"issued":"2026-08-01T12:00:00Z","duration":90}`
	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if o.OrderID != 1 || o.TypeID != 34 || o.LocationID != 60003760 || o.SystemID != 30000142 {
		t.Errorf("Order = %+v", o)
	}
	if o.Price != 4.5 || o.VolumeRemain != 100000 || o.VolumeTotal != 250000 {
		t.Errorf("Price/VolumeRemain/VolumeTotal = %v/%v/%v", o.Price, o.VolumeRemain, o.VolumeTotal)
	}
	if o.IsBuyOrder {
		t.Error("IsBuyOrder want false")
	}
	if o.Duration != 90 {
		t.Errorf("Duration = %d, want 90", o.Duration)
	}
}

func TestHistoryEntry_UnmarshalJSON(t *testing.T) {
	raw := `{"date":"2025-01-15","average":100.5,"highest":105,"lowest":98,"volume":50000,"order_count":12}`
	var h HistoryEntry
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Date != "2025-01-15" || h.Average != 100.5 || h.Highest != 105 || h.Lowest != 98 {
		t.Errorf("HistoryEntry = %+v", h)
	}
	if h.Volume != 50000 || h.OrderCount != 12 {
		t.Errorf("Volume/OrderCount = %v/%v", h.Volume, h.OrderCount)
	}
}

func TestTypeDescription_UnitVolume(t *testing.T) {
	ship := &TypeDescription{Volume: 115000, PackagedVolume: 2500}
	if v := ship.UnitVolume(); v != 2500 {
		t.Errorf("UnitVolume = %v, want packaged 2500", v)
	}
	module := &TypeDescription{Volume: 5}
	if v := module.UnitVolume(); v != 5 {
		t.Errorf("UnitVolume = %v, want 5", v)
	}
}

func TestOrderCache_ExpiryAndTouch(t *testing.T) {
	oc := NewOrderCache()
	orders := []Order{{OrderID: 1, Price: 10}}

	oc.Put(10000002, orders, `"abc"`, time.Now().Add(time.Minute))
	got, etag, hit := oc.Get(10000002)
	if !hit || len(got) != 1 || etag != `"abc"` {
		t.Fatalf("Get after Put = (%d orders, %q, %v), want hit", len(got), etag, hit)
	}

	// Expire it; data is gone but the etag survives for conditional requests.
	oc.Touch(10000002, time.Now().Add(-time.Second))
	got, etag, hit = oc.Get(10000002)
	if hit || got != nil {
		t.Fatal("expired entry should miss")
	}
	if etag != `"abc"` {
		t.Errorf("etag after expiry = %q, want preserved", etag)
	}

	// Touch back into the future restores hits without re-putting.
	oc.Touch(10000002, time.Now().Add(time.Minute))
	if _, _, hit = oc.Get(10000002); !hit {
		t.Error("touched entry should hit again")
	}
}

func TestGroupByType(t *testing.T) {
	orders := []Order{
		{OrderID: 1, TypeID: 34},
		{OrderID: 2, TypeID: 35},
		{OrderID: 3, TypeID: 34},
	}
	grouped := GroupByType(orders)
	if len(grouped) != 2 {
		t.Fatalf("groups = %d, want 2", len(grouped))
	}
	if len(grouped[34]) != 2 || len(grouped[35]) != 1 {
		t.Errorf("group sizes = %d/%d, want 2/1", len(grouped[34]), len(grouped[35]))
	}
}

func TestNewClient_NonNil(t *testing.T) {
	c := NewClient()
	if c == nil {
		t.Fatal("NewClient() returned nil")
	}
}
