// Package engine orchestrates the location-estimation pipeline (§4.G): it
// discovers candidate stations per dimension via the catalog, adaptively
// selects how many to blend, prefetches and aggregates station data, blends
// per dimension, and grades the result.
package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rs/zerolog/log"

	"github.com/smhi-weather/location-engine/internal/domain"
	"github.com/smhi-weather/location-engine/internal/quality"
	"github.com/smhi-weather/location-engine/internal/selector"
)

// ErrUnknownStation is returned when a station id isn't present in the
// merged catalog listing.
var ErrUnknownStation = errors.New("engine: unknown station")

// CandidateFinder is the station catalog's contract, as consumed by the
// engine (§4.C).
type CandidateFinder interface {
	GetNearby(ctx context.Context, lat, lon float64, parameterID domain.ParameterID, count int) ([]domain.Candidate, error)
}

// CSVPrefetcher downloads (and disk-caches) a station's CSV for one
// parameter, without parsing it — the engine's bounded prefetch step only
// needs the file cache warmed (§4.G step 5).
type CSVPrefetcher interface {
	FetchStationCSV(ctx context.Context, parameterID domain.ParameterID, stationID string) (string, error)
}

// Engine is the location-estimation engine (§4.G).
type Engine struct {
	catalog    CandidateFinder
	roster     RosterAllGetter
	prefetcher CSVPrefetcher
	rows       RowFetcher
	results    ResultStore

	prefetchConcurrency int64
}

// New builds an Engine. prefetchConcurrency bounds the parallel CSV
// prefetch fan-out (§5: 3 concurrent fetches by default). roster is used
// only by GetStationWeatherData, to learn whether a single requested
// station carries lightning data.
func New(catalog CandidateFinder, roster RosterAllGetter, prefetcher CSVPrefetcher, rows RowFetcher, results ResultStore, prefetchConcurrency int) *Engine {
	if prefetchConcurrency <= 0 {
		prefetchConcurrency = 3
	}
	return &Engine{
		catalog:             catalog,
		roster:              roster,
		prefetcher:          prefetcher,
		rows:                rows,
		results:             results,
		prefetchConcurrency: int64(prefetchConcurrency),
	}
}

// GetStationWeatherData answers the single-station façade query (§6
// GET /api/weather-data/{station_id}): it looks the station up in the
// merged catalog listing to learn whether it carries lightning data, then
// delegates to the station-level orchestrator.
func (e *Engine) GetStationWeatherData(ctx context.Context, stationID string, resolutionParam string) (domain.StationResult, error) {
	resolution := domain.NormalizeResolution(resolutionParam)

	hasLightning := false
	stations, err := e.roster.GetAll(ctx)
	if err != nil {
		return domain.StationResult{}, fmt.Errorf("engine: fetch station catalog: %w", err)
	}
	found := false
	for _, s := range stations {
		if s.ID == stationID {
			hasLightning = s.HasLightning
			found = true
			break
		}
	}
	if !found {
		return domain.StationResult{}, fmt.Errorf("engine: unknown station %q: %w", stationID, ErrUnknownStation)
	}

	return GetStationWeatherData(ctx, e.rows, e.results, stationID, hasLightning, resolution)
}

// GetLocationWeather answers the core query: what cloud coverage and
// lightning probability should one expect at (lat, lon), blended across
// nearby stations, at the requested resolution (§4.G).
func (e *Engine) GetLocationWeather(ctx context.Context, lat, lon float64, resolutionParam string) (domain.LocationResult, error) {
	resolution := domain.NormalizeResolution(resolutionParam)

	cloudCandidates, err := e.catalog.GetNearby(ctx, lat, lon, domain.ParameterCloudCoverage, 0)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("engine: discover cloud candidates: %w", err)
	}
	if len(cloudCandidates) == 0 {
		return domain.EmptyLocationResult(resolution), nil
	}

	lightningCandidates, err := e.catalog.GetNearby(ctx, lat, lon, domain.ParameterPresentWeather, 0)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("engine: discover lightning candidates: %w", err)
	}

	cloudSelected := selector.Normalize(selector.Select(cloudCandidates))
	lightningSelected := selector.Normalize(selector.Select(lightningCandidates))

	e.prefetchMissing(ctx, cloudSelected, lightningSelected, resolution)

	cloudSeries := e.aggregateEntries(ctx, cloudSelected, true, resolution)
	lightningSeries := e.aggregateEntries(ctx, lightningSelected, true, resolution)

	if len(cloudSeries) == 0 {
		return domain.EmptyLocationResult(resolution), nil
	}

	cloudPoints := blendCloud(cloudSeries, resolution)
	lightningPoints := blendLightning(lightningSeries, resolution)
	mergedPoints := mergeByLabel(cloudPoints, lightningPoints)

	yearlyCloud := cloudSeries
	yearlyLightning := lightningSeries
	if resolution != domain.ResolutionYear {
		yearlyCloud = e.aggregateEntries(ctx, cloudSelected, true, domain.ResolutionYear)
		yearlyLightning = e.aggregateEntries(ctx, lightningSelected, true, domain.ResolutionYear)
	}
	yearlyCloudPoints := blendCloud(yearlyCloud, domain.ResolutionYear)
	yearlyLightningPoints := blendLightning(yearlyLightning, domain.ResolutionYear)

	cloudQuality := quality.Compute(entriesOf(cloudSeries), yearlyCloudPoints, domain.ResolutionYear, lat, lon)
	lightningQuality := quality.Compute(entriesOf(lightningSeries), yearlyLightningPoints, domain.ResolutionYear, lat, lon)

	q := quality.OverallFromDimensions(cloudQuality, lightningQuality, len(lightningSeries) > 0)

	result := domain.LocationResult{
		HasLightningData:  len(lightningSeries) > 0,
		Resolution:        resolution,
		Points:            mergedPoints,
		CloudStations:     stationWeights(cloudSeries, lat, lon),
		LightningStations: stationWeights(lightningSeries, lat, lon),
		Quality:           q,
	}

	return result, nil
}

// prefetchMissing collects the union of selected station ids that have no
// fresh result-cache entry at this resolution and downloads both parameter
// CSVs for each, bounded at e.prefetchConcurrency concurrent fetches
// (§4.G step 5, §5). Individual fetch failures are logged and swallowed;
// the workers never return an error, so nothing is reported to the caller.
func (e *Engine) prefetchMissing(ctx context.Context, cloud, lightning []domain.SelectedEntry, resolution domain.Resolution) {
	missing := make(map[string]bool)
	for _, entry := range cloud {
		if e.results.Read(entry.Candidate.Station.ID, resolution) == nil {
			missing[entry.Candidate.Station.ID] = true
		}
	}
	for _, entry := range lightning {
		if e.results.Read(entry.Candidate.Station.ID, resolution) == nil {
			missing[entry.Candidate.Station.ID] = true
		}
	}
	if len(missing) == 0 {
		return
	}

	sem := semaphore.NewWeighted(e.prefetchConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	for stationID := range missing {
		stationID := stationID
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil // context canceled; nothing left to do.
			}
			defer sem.Release(1)

			if _, err := e.prefetcher.FetchStationCSV(gctx, domain.ParameterCloudCoverage, stationID); err != nil {
				log.Debug().Err(err).Str("station_id", stationID).Msg("engine: prefetch cloud CSV failed, ignoring")
			}
			if _, err := e.prefetcher.FetchStationCSV(gctx, domain.ParameterPresentWeather, stationID); err != nil {
				log.Debug().Err(err).Str("station_id", stationID).Msg("engine: prefetch weather CSV failed, ignoring")
			}
			return nil
		})
	}

	_ = g.Wait() // per-station fetch errors are already swallowed above.
}

// aggregateEntries invokes the station-level orchestrator for every
// selected entry, dropping entries whose aggregation throws (§4.G step 6).
func (e *Engine) aggregateEntries(ctx context.Context, entries []domain.SelectedEntry, hasLightning bool, resolution domain.Resolution) []stationSeries {
	out := make([]stationSeries, 0, len(entries))
	for _, entry := range entries {
		result, err := GetStationWeatherData(ctx, e.rows, e.results, entry.Candidate.Station.ID, hasLightning, resolution)
		if err != nil {
			log.Debug().Err(err).Str("station_id", entry.Candidate.Station.ID).Msg("engine: dropping station aggregation failure")
			continue
		}
		out = append(out, stationSeries{entry: entry, points: result.Points})
	}
	return out
}

func entriesOf(series []stationSeries) []domain.SelectedEntry {
	out := make([]domain.SelectedEntry, len(series))
	for i, s := range series {
		out[i] = s.entry
	}
	return out
}

func stationWeights(series []stationSeries, lat, lon float64) []domain.StationWeight {
	out := make([]domain.StationWeight, 0, len(series))
	for _, s := range series {
		out = append(out, domain.StationWeight{
			ID:         s.entry.Candidate.Station.ID,
			Name:       s.entry.Candidate.Station.Name,
			Lat:        s.entry.Candidate.Station.Lat,
			Lon:        s.entry.Candidate.Station.Lon,
			DistanceKm: s.entry.Candidate.DistanceKm,
			WeightPct:  round1(s.entry.Weight * 100),
		})
	}
	return out
}
