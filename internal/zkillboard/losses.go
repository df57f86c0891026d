package zkillboard

import (
	"time"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/esi"
	"eve-tradeworks/internal/logger"
)

// KillmailFetcher resolves a killmail reference into its full body.
// *esi.Client satisfies this.
type KillmailFetcher interface {
	FetchKillmail(killmailID int64, hash string) (*esi.KillmailDetail, error)
}

// LossRates maps type id to the average quantity destroyed or dropped per
// day over the sampled killmails.
type LossRates map[int32]float64

// FetchLossRates downloads up to maxPages of loss references for the entity,
// resolves each killmail through ESI and aggregates per-type daily loss
// rates. Killmails that fail to resolve are skipped with a warning.
func (c *Client) FetchLossRates(entity config.ZkillEntity, fetcher KillmailFetcher, maxPages int) (LossRates, error) {
	refs, err := c.FetchLosses(entity, maxPages)
	if err != nil {
		return nil, err
	}
	logger.Info("Zkillboard", "Downloaded %d loss references", len(refs))

	kms := make([]*esi.KillmailDetail, 0, len(refs))
	for _, ref := range refs {
		km, err := fetcher.FetchKillmail(ref.KillmailID, ref.ZKB.Hash)
		if err != nil {
			logger.Warn("Zkillboard", "Killmail %d: %v", ref.KillmailID, err)
			continue
		}
		kms = append(kms, km)
	}
	logger.Info("Zkillboard", "Resolved %d killmails", len(kms))

	return AggregateLossRates(kms), nil
}

// AggregateLossRates sums destroyed plus dropped quantities per type across
// the killmails, counting the victim's hull as one loss, and divides by the
// number of days the killmails span.
func AggregateLossRates(kms []*esi.KillmailDetail) LossRates {
	if len(kms) == 0 {
		return LossRates{}
	}

	totals := make(map[int32]int64)
	var earliest, latest time.Time
	for _, km := range kms {
		t, err := time.Parse(time.RFC3339, km.KillmailTime)
		if err != nil {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if latest.IsZero() || t.After(latest) {
			latest = t
		}

		totals[km.Victim.ShipTypeID]++
		for _, it := range km.Victim.Items {
			totals[it.ItemTypeID] += it.QuantityDestroyed + it.QuantityDropped
		}
	}

	days := latest.Sub(earliest).Hours()/24 + 1
	if days < 1 {
		days = 1
	}

	rates := make(LossRates, len(totals))
	for typeID, qty := range totals {
		rates[typeID] = float64(qty) / days
	}
	return rates
}
