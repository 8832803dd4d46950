package datasource

import (
	"context"
	"sync"

	"sanket-signals/internal/store"
)

// OtherSector is assigned to tickers whose sector cannot be resolved.
const OtherSector = "Other"

// SectorLookup resolves sectors for tickers missing from the cache.
// Tickers it cannot resolve are simply absent from the result.
type SectorLookup interface {
	LookupSectors(ctx context.Context, symbols []string) (map[string]string, error)
}

// MapLookup resolves sectors from a fixed table, such as the Industry column
// of an index constituent file.
type MapLookup map[string]string

// LookupSectors implements SectorLookup.
func (m MapLookup) LookupSectors(_ context.Context, symbols []string) (map[string]string, error) {
	out := make(map[string]string, len(symbols))
	for _, s := range symbols {
		if sector, ok := m[s]; ok && sector != "" {
			out[s] = sector
		}
	}
	return out, nil
}

// SectorMap is the persistent ticker to sector cache. It is safe for
// concurrent reads during a scan.
type SectorMap struct {
	mu      sync.RWMutex
	sectors map[string]string
	db      store.DataStore
}

// NewSectorMap creates an in-memory map. db may be nil.
func NewSectorMap(db store.DataStore, seed map[string]string) *SectorMap {
	m := &SectorMap{sectors: make(map[string]string, len(seed)), db: db}
	for k, v := range seed {
		m.sectors[k] = v
	}
	return m
}

// LoadSectorMap reads the cached map from the store.
func LoadSectorMap(ctx context.Context, db store.DataStore) (*SectorMap, error) {
	sectors, err := db.GetSectors(ctx)
	if err != nil {
		return nil, err
	}
	return NewSectorMap(db, sectors), nil
}

// Sector returns the cached sector of symbol, or OtherSector.
func (m *SectorMap) Sector(_ context.Context, symbol string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sectors[symbol]; ok && s != "" {
		return s
	}
	return OtherSector
}

// Len returns the number of cached entries.
func (m *SectorMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sectors)
}

// Missing returns the symbols with no cached entry, in input order.
func (m *SectorMap) Missing(symbols []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, s := range symbols {
		if _, ok := m.sectors[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Fill resolves only the symbols missing from the cache. Symbols the lookup
// cannot resolve are cached as OtherSector so they are not looked up again.
// New entries are persisted when the map has a store. It returns the number
// of entries added.
func (m *SectorMap) Fill(ctx context.Context, symbols []string, lookup SectorLookup) (int, error) {
	missing := m.Missing(symbols)
	if len(missing) == 0 {
		return 0, nil
	}

	found, err := lookup.LookupSectors(ctx, missing)
	if err != nil {
		return 0, err
	}

	added := make(map[string]string, len(missing))
	for _, s := range missing {
		sector, ok := found[s]
		if !ok || sector == "" {
			sector = OtherSector
		}
		added[s] = sector
	}

	m.mu.Lock()
	for k, v := range added {
		m.sectors[k] = v
	}
	m.mu.Unlock()

	if m.db != nil {
		if err := m.db.SaveSectors(ctx, added); err != nil {
			return len(added), err
		}
	}
	return len(added), nil
}
