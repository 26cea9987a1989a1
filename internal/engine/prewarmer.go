package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rs/zerolog/log"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// PrewarmState is one stage of the pre-warmer's state machine (§4.I).
type PrewarmState string

const (
	PrewarmIdle         PrewarmState = "idle"
	PrewarmStarting     PrewarmState = "starting"
	PrewarmDownloading  PrewarmState = "downloading"
	PrewarmAggregating  PrewarmState = "aggregating"
	PrewarmReady        PrewarmState = "ready"
	PrewarmError        PrewarmState = "error"
)

// PrewarmStatus is a snapshot of the pre-warmer's progress.
type PrewarmStatus struct {
	State        PrewarmState `json:"state"`
	StationCount int          `json:"station_count"`
	Done         int          `json:"done"`
	Error        string       `json:"error,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// defaultDownloadConcurrency bounds the pre-warmer's CSV download fan-out
// when the caller doesn't specify one (§5: 4 concurrent workers).
const defaultDownloadConcurrency = 4

// stationYieldDelay is the cooperative yield between stations during the
// sequential aggregation walk, so the pre-warmer doesn't starve the request
// path (§4.I, §5).
const stationYieldDelay = 10 * time.Millisecond

// Prewarmer walks the active cloud-station roster at boot, downloading both
// parameter CSVs for every station (bounded concurrency) and then forcing
// the result cache to materialize for every (station, resolution) pair
// (§4.I).
type Prewarmer struct {
	roster     RosterAllGetter
	prefetcher CSVPrefetcher
	rows       RowFetcher
	results    ResultStore

	downloadConcurrency int64

	mu     sync.RWMutex
	status PrewarmStatus
}

// RosterAllGetter exposes the catalog's merged listing, used to discover
// every active cloud station to pre-warm (§4.C, §4.I).
type RosterAllGetter interface {
	GetAll(ctx context.Context) ([]domain.Station, error)
}

// NewPrewarmer builds a Prewarmer in its idle state. concurrency <= 0 uses
// defaultDownloadConcurrency.
func NewPrewarmer(roster RosterAllGetter, prefetcher CSVPrefetcher, rows RowFetcher, results ResultStore, concurrency int) *Prewarmer {
	if concurrency <= 0 {
		concurrency = defaultDownloadConcurrency
	}
	return &Prewarmer{
		roster:              roster,
		prefetcher:          prefetcher,
		rows:                rows,
		results:             results,
		downloadConcurrency: int64(concurrency),
		status:              PrewarmStatus{State: PrewarmIdle, UpdatedAt: time.Now()},
	}
}

// Status returns a snapshot of the pre-warmer's current progress (§4.I).
func (p *Prewarmer) Status() PrewarmStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Prewarmer) setStatus(mutate func(*PrewarmStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mutate(&p.status)
	p.status.UpdatedAt = time.Now()
}

// Run executes the pre-warmer once. Intended to be launched in its own
// goroutine at boot (§4.I); errors are logged and transition the state
// machine to error rather than propagating (§7).
func (p *Prewarmer) Run(ctx context.Context) {
	p.setStatus(func(s *PrewarmStatus) { s.State = PrewarmStarting })

	stations, err := p.roster.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("prewarmer: failed to fetch station roster")
		p.setStatus(func(s *PrewarmStatus) {
			s.State = PrewarmError
			s.Error = err.Error()
		})
		return
	}

	active := make([]domain.Station, 0, len(stations))
	for _, s := range stations {
		if s.HasCloud {
			active = append(active, s)
		}
	}

	p.setStatus(func(s *PrewarmStatus) {
		s.State = PrewarmDownloading
		s.StationCount = len(active)
		s.Done = 0
	})

	p.downloadAll(ctx, active)

	p.setStatus(func(s *PrewarmStatus) { s.State = PrewarmAggregating })

	p.aggregateAll(ctx, active)

	p.setStatus(func(s *PrewarmStatus) { s.State = PrewarmReady })
}

// downloadAll fetches both parameter CSVs for every station with bounded
// concurrency, ignoring per-station failures (§4.I step 1).
func (p *Prewarmer) downloadAll(ctx context.Context, stations []domain.Station) {
	sem := semaphore.NewWeighted(p.downloadConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	for _, s := range stations {
		station := s
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			if _, err := p.prefetcher.FetchStationCSV(gctx, domain.ParameterCloudCoverage, station.ID); err != nil {
				log.Debug().Err(err).Str("station_id", station.ID).Msg("prewarmer: cloud CSV download failed")
			}
			if _, err := p.prefetcher.FetchStationCSV(gctx, domain.ParameterPresentWeather, station.ID); err != nil {
				log.Debug().Err(err).Str("station_id", station.ID).Msg("prewarmer: weather CSV download failed")
			}
			return nil
		})
	}

	_ = g.Wait()
}

var allResolutions = []domain.Resolution{domain.ResolutionDay, domain.ResolutionMonth, domain.ResolutionYear}

// aggregateAll walks stations x resolutions sequentially, forcing the
// result cache to materialize, sleeping between stations to yield to the
// request path (§4.I step 2, §5).
func (p *Prewarmer) aggregateAll(ctx context.Context, stations []domain.Station) {
	for i, station := range stations {
		for _, resolution := range allResolutions {
			if _, err := GetStationWeatherData(ctx, p.rows, p.results, station.ID, station.HasLightning, resolution); err != nil {
				log.Debug().Err(err).Str("station_id", station.ID).Msg("prewarmer: aggregation failed")
			}
		}

		p.setStatus(func(s *PrewarmStatus) { s.Done = i + 1 })

		select {
		case <-ctx.Done():
			return
		case <-time.After(stationYieldDelay):
		}
	}
}
