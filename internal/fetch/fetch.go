// Package fetch materializes the full per-item market view the analysis
// engine runs on: station resolution, type lists, order books and daily
// histories for both markets, joined into ItemPair values.
package fetch

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/db"
	"eve-tradeworks/internal/engine"
	"eve-tradeworks/internal/esi"
	"eve-tradeworks/internal/logger"
)

// metadataWorkers caps concurrent per-type ESI requests.
const metadataWorkers = 16

// Options tweaks a fetch run.
type Options struct {
	DebugItem      int32          // restrict the universe to one type id
	ForceRefresh   bool           // ignore cached history, always refetch
	ForceNoRefresh bool           // use cached history regardless of age
	AllowedGroups  map[int32]bool // market group closure filter, nil = all
}

// Service wires the ESI client to the local cache database.
type Service struct {
	esi *esi.Client
	db  *db.DB
	cfg config.Config

	// per-type fetchers, swappable in tests
	describeType func(typeID int32) (*esi.TypeDescription, error)
	fetchHistory func(regionID, typeID int32) ([]esi.HistoryEntry, error)
}

func NewService(esiClient *esi.Client, database *db.DB, cfg config.Config) *Service {
	return &Service{
		esi:          esiClient,
		db:           database,
		cfg:          cfg,
		describeType: esiClient.FetchTypeDescription,
		fetchHistory: esiClient.FetchMarketHistory,
	}
}

// ResolveMarket turns a configured station or citadel name into a Market,
// using the unbounded local station cache first. Citadel resolution needs
// an authenticated character for the structure search.
func (s *Service) ResolveMarket(spec config.StationSpec, characterID int64) (*esi.Market, error) {
	if m, ok := s.db.GetStation(spec.Name); ok {
		return m, nil
	}

	var m *esi.Market
	var err error
	if spec.Citadel {
		if characterID == 0 {
			return nil, fmt.Errorf("citadel %q requires authentication", spec.Name)
		}
		m, err = s.esi.ResolveStructure(spec.Name, characterID)
	} else {
		m, err = s.esi.ResolveStation(spec.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", spec.Name, err)
	}

	s.db.SetStation(spec.Name, m)
	logger.Info("Fetch", "Resolved %s (region %d)", m.Name, m.RegionID)
	return m, nil
}

// Pairs builds the complete ItemPair set for a source/destination market
// combination. Only items traded in both regions become pairs; items whose
// metadata cannot be resolved are dropped with a warning.
func (s *Service) Pairs(src, dst *esi.Market, opts Options) ([]engine.ItemPair, error) {
	typeIDs, err := s.tradedTypes(src, dst, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Fetch", "%d types traded in both regions", len(typeIDs))

	srcOrders, err := s.marketOrders(src)
	if err != nil {
		return nil, fmt.Errorf("source orders: %w", err)
	}
	dstOrders, err := s.marketOrders(dst)
	if err != nil {
		return nil, fmt.Errorf("destination orders: %w", err)
	}

	descs, err := s.typeDescriptions(typeIDs)
	if err != nil {
		return nil, err
	}
	srcHistory, err := s.histories(src.RegionID, typeIDs, opts)
	if err != nil {
		return nil, err
	}
	dstHistory, err := s.histories(dst.RegionID, typeIDs, opts)
	if err != nil {
		return nil, err
	}

	pairs := BuildPairs(typeIDs, descs, srcOrders, dstOrders, srcHistory, dstHistory, opts.AllowedGroups)
	logger.Info("Fetch", "Built %d item pairs", len(pairs))
	return pairs, nil
}

// tradedTypes intersects the two regions' active type lists.
func (s *Service) tradedTypes(src, dst *esi.Market, opts Options) ([]int32, error) {
	if opts.DebugItem != 0 {
		return []int32{opts.DebugItem}, nil
	}

	srcTypes, err := s.esi.FetchRegionTypes(src.RegionID)
	if err != nil {
		return nil, fmt.Errorf("source region types: %w", err)
	}
	dstTypes, err := s.esi.FetchRegionTypes(dst.RegionID)
	if err != nil {
		return nil, fmt.Errorf("destination region types: %w", err)
	}

	inDst := make(map[int32]bool, len(dstTypes))
	for _, id := range dstTypes {
		inDst[id] = true
	}
	var both []int32
	for _, id := range srcTypes {
		if inDst[id] {
			both = append(both, id)
		}
	}
	sort.Slice(both, func(i, j int) bool { return both[i] < both[j] })
	return both, nil
}

// marketOrders fetches the live book for one market, grouped by type.
// Citadels serve their own authenticated order endpoint; station books are
// cut from the region feed by location.
func (s *Service) marketOrders(m *esi.Market) (map[int32][]esi.Order, error) {
	var orders []esi.Order
	var err error
	if m.Citadel {
		orders, err = s.esi.FetchStructureOrders(m.LocationID)
	} else {
		orders, err = s.esi.FetchRegionOrders(m.RegionID)
		if err == nil {
			orders = filterByLocation(orders, m.LocationID)
		}
	}
	if err != nil {
		return nil, err
	}
	return esi.GroupByType(orders), nil
}

func filterByLocation(orders []esi.Order, locationID int64) []esi.Order {
	var out []esi.Order
	for _, o := range orders {
		if o.LocationID == locationID {
			out = append(out, o)
		}
	}
	return out
}

// typeDescriptions resolves metadata for every type, cache first, with a
// bounded fan-out for the misses. Types ESI cannot describe map to nil.
func (s *Service) typeDescriptions(typeIDs []int32) (map[int32]*esi.TypeDescription, error) {
	descs := make(map[int32]*esi.TypeDescription, len(typeIDs))

	// Drain the cache before the fan-out starts so the hit path never
	// writes the map while fetch goroutines are running.
	var misses []int32
	for _, typeID := range typeIDs {
		if d, ok := s.db.GetTypeDescription(typeID); ok {
			descs[typeID] = d
		} else {
			misses = append(misses, typeID)
		}
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(metadataWorkers)
	for _, typeID := range misses {
		typeID := typeID
		g.Go(func() error {
			d, err := s.describeType(typeID)
			if err != nil {
				logger.Warn("Fetch", "Type %d: %v", typeID, err)
				return nil
			}
			s.db.SetTypeDescription(d)
			mu.Lock()
			descs[typeID] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}

// histories loads daily history for every type in one region, honoring the
// configured refresh timeout unless a force flag overrides it.
func (s *Service) histories(regionID int32, typeIDs []int32, opts Options) (map[int32][]esi.HistoryEntry, error) {
	maxAge := s.cfg.RefreshTimeout()
	if opts.ForceNoRefresh {
		maxAge = 0 // any cached copy counts
	}

	out := make(map[int32][]esi.HistoryEntry, len(typeIDs))

	// Same two-phase shape as typeDescriptions: cache hits land before any
	// goroutine can touch the map.
	var misses []int32
	for _, typeID := range typeIDs {
		if !opts.ForceRefresh {
			if entries, ok := s.db.GetMarketHistory(regionID, typeID, maxAge); ok {
				out[typeID] = entries
				continue
			}
		}
		if opts.ForceNoRefresh {
			continue // stale-only mode never goes to the network
		}
		misses = append(misses, typeID)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(metadataWorkers)
	for _, typeID := range misses {
		typeID := typeID
		g.Go(func() error {
			entries, err := s.fetchHistory(regionID, typeID)
			if err != nil {
				logger.Warn("Fetch", "History %d/%d: %v", regionID, typeID, err)
				return nil
			}
			s.db.SetMarketHistory(regionID, typeID, entries)
			mu.Lock()
			out[typeID] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildPairs joins per-type data into the engine's input. Items without
// resolvable metadata or outside the allowed market groups are dropped;
// missing orders or history become empty snapshots.
func BuildPairs(
	typeIDs []int32,
	descs map[int32]*esi.TypeDescription,
	srcOrders, dstOrders map[int32][]esi.Order,
	srcHistory, dstHistory map[int32][]esi.HistoryEntry,
	allowed map[int32]bool,
) []engine.ItemPair {
	var pairs []engine.ItemPair
	for _, typeID := range typeIDs {
		desc := descs[typeID]
		if desc == nil {
			logger.Warn("Fetch", "Type %d has no metadata, skipping", typeID)
			continue
		}
		if !desc.Published {
			continue
		}
		if allowed != nil {
			if desc.MarketGroupID == nil || !allowed[*desc.MarketGroupID] {
				continue
			}
		}
		pairs = append(pairs, engine.ItemPair{
			TypeID: typeID,
			Desc:   *desc,
			Source: engine.MarketSnapshot{
				Orders:  srcOrders[typeID],
				History: srcHistory[typeID],
			},
			Destination: engine.MarketSnapshot{
				Orders:  dstOrders[typeID],
				History: dstHistory[typeID],
			},
		})
	}
	return pairs
}
