package engine

import (
	"context"
	"fmt"

	"github.com/smhi-weather/location-engine/internal/aggregator"
	"github.com/smhi-weather/location-engine/internal/domain"
)

// RowFetcher is the parsed-row cache's contract, as consumed by the
// station-level orchestrator (§4.B, §4.G step 6).
type RowFetcher interface {
	FetchAndParse(ctx context.Context, parameterID domain.ParameterID, stationID string) ([]domain.Row, error)
}

// ResultStore is the persistent result cache's contract (§4.F).
type ResultStore interface {
	Read(stationID string, resolution domain.Resolution) *domain.StationResult
	Write(stationID string, resolution domain.Resolution, result domain.StationResult) error
}

// GetStationWeatherData is the station-level orchestrator: it consults the
// result cache first, and on a miss loads the cloud rows and, when
// hasLightning is set, the present-weather rows, runs the aggregator, and
// writes the result cache before returning (§4.G step 6).
func GetStationWeatherData(ctx context.Context, rows RowFetcher, results ResultStore, stationID string, hasLightning bool, resolution domain.Resolution) (domain.StationResult, error) {
	if cached := results.Read(stationID, resolution); cached != nil {
		return *cached, nil
	}

	cloudRows, err := rows.FetchAndParse(ctx, domain.ParameterCloudCoverage, stationID)
	if err != nil {
		return domain.StationResult{}, fmt.Errorf("engine: fetch cloud rows for station %s: %w", stationID, err)
	}

	var weatherRows []domain.Row
	if hasLightning {
		weatherRows, err = rows.FetchAndParse(ctx, domain.ParameterPresentWeather, stationID)
		if err != nil {
			// A station lacking present-weather data is "no lightning data",
			// not an engine error (§4.A, §7).
			hasLightning = false
			weatherRows = nil
		}
	}

	points := aggregator.Aggregate(cloudRows, weatherRows, hasLightning, resolution)

	result := domain.StationResult{
		StationID:        stationID,
		Resolution:       resolution,
		HasLightningData: hasLightning,
		Points:           points,
	}

	if err := results.Write(stationID, resolution, result); err != nil {
		return result, nil // cache write failures are non-fatal; aggregation still succeeded.
	}

	return result, nil
}
