// Package quality grades a blended location result on the report-card
// described in §4.H: two dimensions (cloud, lightning), each scored on
// station-coverage and historical-data factors.
package quality

import (
	"fmt"
	"math"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// obsCountBaseline is the per-resolution baseline used by the
// observation-depth factor (§4.H).
var obsCountBaseline = map[domain.Resolution]float64{
	domain.ResolutionDay:   30,
	domain.ResolutionMonth: 500,
	domain.ResolutionYear:  2000,
}

// dominantWeightThreshold is the normalized weight above which a single
// station is treated as dominating the dimension (§4.H, §GLOSSARY).
const dominantWeightThreshold = 0.85

// promotedWeightThreshold is the lower bound at which a near-dominant
// station still promotes the directional grade by one level (§4.H).
const promotedWeightThreshold = 0.60

// Compute grades a dimension's contributing stations and yearly-baseline
// points into a DimensionQuality (§4.H). points must be the yearly-blend
// points for the dimension (quality is always computed against the yearly
// baseline per §4.G step 13).
func Compute(entries []domain.SelectedEntry, points []domain.Point, resolution domain.Resolution, lat, lon float64) domain.DimensionQuality {
	if len(entries) == 0 {
		return domain.DimensionQuality{
			Level: domain.LevelPoor,
			StationCoverage: domain.StationCoverage{
				Level:     domain.LevelPoor,
				Proximity: domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no nearby stations are available for this area"},
				Direction: domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no directional spread is available"},
			},
			HistoricalData: domain.HistoricalData{
				Level:    domain.LevelPoor,
				Temporal: domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no historical data is available"},
				Depth:    domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no observations are available"},
			},
		}
	}

	proximity := proximityFactor(entries)
	direction, dominantName, maxWeight := directionFactor(entries, lat, lon)
	temporal := temporalFactor(points)
	depth := depthFactor(points, resolution)

	originalDirectionLevel := direction.Level

	switch {
	case maxWeight >= dominantWeightThreshold:
		direction.Level = domain.LevelGood
		direction.Summary = fmt.Sprintf("estimates are based almost entirely on the nearby %s station", dominantName)
	case maxWeight >= promotedWeightThreshold:
		direction.Level = promote(direction.Level)
	}

	// station_coverage.level is always the worst of proximity and direction,
	// even when direction was just promoted or overridden. Only a promotion
	// that actually reaches "good" from something less than "good" lets
	// coverageValue skip the average and take the proximity score outright
	// (§4.H "dominant-station override").
	coverageLevel := domain.WorseLevel(proximity.Level, direction.Level)
	coverageValue := (proximity.Value + direction.Value) / 2
	if direction.Level == domain.LevelGood && originalDirectionLevel != domain.LevelGood {
		coverageValue = proximity.Value
	}

	stationCoverage := domain.StationCoverage{
		Level:     coverageLevel,
		Value:     round1(coverageValue),
		Proximity: proximity,
		Direction: direction,
	}

	historicalLevel := domain.WorseLevel(temporal.Level, depth.Level)

	dimLevel := domain.WorseLevel(stationCoverage.Level, historicalLevel)

	return domain.DimensionQuality{
		Level:           dimLevel,
		StationCoverage: stationCoverage,
		HistoricalData: domain.HistoricalData{
			Level:    historicalLevel,
			Temporal: temporal,
			Depth:    depth,
		},
	}
}

// promote bumps a factor level up by one tier, capped at good (§4.H
// "dominant-station override").
func promote(l domain.Level) domain.Level {
	switch l {
	case domain.LevelPoor:
		return domain.LevelFair
	default:
		return domain.LevelGood
	}
}

func temporalFactor(points []domain.Point) domain.Factor {
	if len(points) == 0 {
		return domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no historical data is available"}
	}
	populated := 0
	for _, p := range points {
		if p.ObsCount > 0 {
			populated++
		}
	}
	pct := float64(populated) / float64(len(points)) * 100

	var level domain.Level
	var summary string
	switch {
	case pct >= 90:
		level = domain.LevelGood
		summary = "historical observations are available for every time period"
	case pct >= 60:
		level = domain.LevelFair
		summary = "historical observations cover nearly all time periods, with a few small gaps"
	default:
		level = domain.LevelPoor
		summary = "historical observations cover only some time periods, with significant gaps"
	}

	return domain.Factor{Level: level, Value: round1(pct), Summary: summary}
}

func depthFactor(points []domain.Point, resolution domain.Resolution) domain.Factor {
	if len(points) == 0 {
		return domain.Factor{Level: domain.LevelPoor, Value: 0, Summary: "no observations are available"}
	}
	baseline := obsCountBaseline[resolution]
	if baseline <= 0 {
		baseline = obsCountBaseline[domain.ResolutionMonth]
	}

	var sum float64
	for _, p := range points {
		ratio := math.Min(float64(p.ObsCount)/baseline, 1)
		sum += ratio
	}
	pct := sum / float64(len(points)) * 100

	var level domain.Level
	var summary string
	switch {
	case pct >= 70:
		level = domain.LevelGood
		summary = "each time period is backed by a deep observation history"
	case pct >= 40:
		level = domain.LevelFair
		summary = "most time periods are filled in, though some have fewer observations than ideal"
	default:
		level = domain.LevelPoor
		summary = "observation counts are thin across most time periods"
	}

	return domain.Factor{Level: level, Value: round1(pct), Summary: summary}
}

func proximityFactor(entries []domain.SelectedEntry) domain.Factor {
	var weightedSum, totalWeight float64
	for _, e := range entries {
		weightedSum += e.Weight * e.Candidate.DistanceKm
		totalWeight += e.Weight
	}
	avg := 0.0
	if totalWeight > 0 {
		avg = weightedSum / totalWeight
	}

	barValue := math.Max(0, (1-math.Min(avg, 200)/200)*100)

	var level domain.Level
	var summary string
	switch {
	case avg <= 25:
		level = domain.LevelGood
		summary = "the contributing stations are close to this location"
	case avg <= 75:
		level = domain.LevelFair
		summary = "the contributing stations are a moderate distance from this location"
	default:
		level = domain.LevelPoor
		summary = "the nearest contributing stations are far from this location"
	}

	return domain.Factor{Level: level, Value: round1(barValue), Summary: summary}
}

// directionFactor returns the direction factor, the name of the dominant
// station (if any), and the maximum normalized weight in the set — the
// caller applies the dominant-station override using the latter two
// (§4.H).
func directionFactor(entries []domain.SelectedEntry, lat, lon float64) (domain.Factor, string, float64) {
	bearings := make([]float64, 0, len(entries))
	var maxWeight float64
	var dominantName string
	var weightedSin, weightedCos, totalWeight float64

	for _, e := range entries {
		bearing := domain.BearingDeg(lat, lon, e.Candidate.Station.Lat, e.Candidate.Station.Lon)
		bearings = append(bearings, bearing)

		if e.Weight > maxWeight {
			maxWeight = e.Weight
			dominantName = e.Candidate.Station.Name
		}

		rad := bearing * math.Pi / 180
		weightedSin += e.Weight * math.Sin(rad)
		weightedCos += e.Weight * math.Cos(rad)
		totalWeight += e.Weight
	}

	spread := domain.DirectionalSpreadDeg(bearings)

	var level domain.Level
	switch {
	case spread >= 180:
		level = domain.LevelGood
	case spread >= 90:
		level = domain.LevelFair
	default:
		level = domain.LevelPoor
	}

	summary := "the contributing stations surround this location well"
	if level != domain.LevelGood {
		meanBearing := math.Mod(math.Atan2(weightedSin, weightedCos)*180/math.Pi+360, 360)
		compass := domain.CompassLabel(meanBearing)
		summary = fmt.Sprintf("most contributing stations lie to the %s, so coverage in other directions is thinner", compass)
	}

	return domain.Factor{Level: level, Value: round1(spread), Summary: summary}, dominantName, maxWeight
}

// OverallFromDimensions combines the cloud and lightning DimensionQuality
// into the top-level quality block, capping the overall level at medium
// (never low) when lightning is simply unavailable rather than poor
// (§4.H "Empty dimension").
func OverallFromDimensions(cloud, lightning domain.DimensionQuality, lightningHasStations bool) domain.Quality {
	lightningContribution := domain.LevelToOverall(lightning.Level)
	if !lightningHasStations {
		// Lightning being simply unavailable here shouldn't read the same as
		// cloud data being poor; cap its drag on the overall grade at medium.
		lightningContribution = domain.OverallMedium
	}

	overall := domain.WorseOverall(domain.LevelToOverall(cloud.Level), lightningContribution)

	return domain.Quality{
		Overall:   overall,
		Cloud:     cloud,
		Lightning: lightning,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
