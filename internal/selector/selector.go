// Package selector implements the adaptive IDW station-count cutoff (§4.D).
package selector

import (
	"math"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// MinStations is the minimum number of stations blended whenever that many
// candidates exist, guaranteeing some smoothing even when one station
// dominates (§4.D).
const MinStations = 2

// minDistanceKm floors the distance used in the IDW weight so a query that
// coincides with a station doesn't blow up the weight (§4.D).
const minDistanceKm = 0.1

// marginalWeightCutoff is the minimum normalized contribution a candidate
// past MinStations must add to stay selected (§4.D).
const marginalWeightCutoff = 0.02

// Select picks the prefix of a distance-sorted candidate list to blend,
// using an inverse-distance-weighting (power 2) marginal-contribution
// cutoff (§4.D). candidates must already be sorted ascending by distance.
func Select(candidates []domain.Candidate) []domain.SelectedEntry {
	selected := make([]domain.SelectedEntry, 0, len(candidates))
	var total float64

	for i, cand := range candidates {
		d := math.Max(cand.DistanceKm, minDistanceKm)
		raw := 1 / (d * d)

		if i >= MinStations {
			if raw/(total+raw) < marginalWeightCutoff {
				break
			}
		}

		selected = append(selected, domain.SelectedEntry{Candidate: cand, RawWeight: raw})
		total += raw
	}

	return selected
}

// Normalize scales each entry's RawWeight so the set's weights sum to 1
// (§4.G step 8, §8 "Weights within a dimension sum to 1.0").
func Normalize(entries []domain.SelectedEntry) []domain.SelectedEntry {
	var total float64
	for _, e := range entries {
		total += e.RawWeight
	}
	if total <= 0 {
		return entries
	}

	out := make([]domain.SelectedEntry, len(entries))
	for i, e := range entries {
		e.Weight = e.RawWeight / total
		out[i] = e
	}
	return out
}
