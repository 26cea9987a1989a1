// Package catalog is the station roster (§4.C): per-parameter roster with a
// 24h TTL, great-circle nearest-station ranking, and the merged cloud +
// present-weather listing.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// RosterFetcher fetches a parameter's station roster from upstream.
type RosterFetcher interface {
	FetchStationList(ctx context.Context, parameterID domain.ParameterID) ([]domain.Station, error)
}

type rosterEntry struct {
	stations  []domain.Station
	fetchedAt time.Time
}

// Catalog caches station rosters per parameter behind a mutex, refetching
// once the TTL elapses (§3 "Station" lifecycle, §4.C, §5).
type Catalog struct {
	fetcher RosterFetcher
	ttl     time.Duration

	mu      sync.Mutex
	rosters map[domain.ParameterID]rosterEntry
}

// New builds a Catalog with the given roster TTL (default 24h).
func New(fetcher RosterFetcher, ttl time.Duration) *Catalog {
	return &Catalog{
		fetcher: fetcher,
		ttl:     ttl,
		rosters: make(map[domain.ParameterID]rosterEntry),
	}
}

// roster returns the cached roster for a parameter, refreshing on a TTL
// miss. The lock is held only long enough to copy/replace the snapshot, per
// §5.
func (c *Catalog) roster(ctx context.Context, parameterID domain.ParameterID) ([]domain.Station, error) {
	c.mu.Lock()
	entry, ok := c.rosters[parameterID]
	c.mu.Unlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.stations, nil
	}

	stations, err := c.fetcher.FetchStationList(ctx, parameterID)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch roster for parameter %d: %w", parameterID, err)
	}

	c.mu.Lock()
	c.rosters[parameterID] = rosterEntry{stations: stations, fetchedAt: time.Now()}
	c.mu.Unlock()

	return stations, nil
}

// DefaultNearbyCount is the default candidate count for GetNearby (§4.C).
const DefaultNearbyCount = 10

// GetNearby computes great-circle distance from (lat, lon) to every active
// station in the parameter's roster, sorts ascending, and truncates to
// count (§4.C). count <= 0 uses DefaultNearbyCount.
func (c *Catalog) GetNearby(ctx context.Context, lat, lon float64, parameterID domain.ParameterID, count int) ([]domain.Candidate, error) {
	if count <= 0 {
		count = DefaultNearbyCount
	}

	stations, err := c.roster(ctx, parameterID)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(stations))
	for _, s := range stations {
		if !s.Active {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Station:    s,
			DistanceKm: domain.HaversineKm(lat, lon, s.Lat, s.Lon),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].DistanceKm < candidates[j].DistanceKm })

	if len(candidates) > count {
		candidates = candidates[:count]
	}

	return candidates, nil
}

// GetAll merges the cloud-parameter and present-weather-parameter rosters
// into one set keyed by station id, emitting the capability flags and
// sorting by name ascending (§4.C).
func (c *Catalog) GetAll(ctx context.Context) ([]domain.Station, error) {
	cloudStations, err := c.roster(ctx, domain.ParameterCloudCoverage)
	if err != nil {
		return nil, err
	}
	weatherStations, err := c.roster(ctx, domain.ParameterPresentWeather)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]*domain.Station)

	for _, s := range cloudStations {
		if !s.Active {
			continue
		}
		station := s
		station.HasCloud = true
		merged[station.ID] = &station
	}

	for _, s := range weatherStations {
		if !s.Active {
			continue
		}
		if existing, ok := merged[s.ID]; ok {
			existing.HasLightning = true
			continue
		}
		station := s
		station.HasLightning = true
		merged[station.ID] = &station
	}

	out := make([]domain.Station, 0, len(merged))
	for _, s := range merged {
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}
