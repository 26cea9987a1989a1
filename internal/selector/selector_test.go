package selector

import (
	"math"
	"testing"

	"github.com/smhi-weather/location-engine/internal/domain"
)

func candidateAt(id string, distanceKm float64) domain.Candidate {
	return domain.Candidate{Station: domain.Station{ID: id}, DistanceKm: distanceKm}
}

func TestSelect_AdaptiveCutoff(t *testing.T) {
	// §8 scenario 4: candidates at [1, 10, 1000] km -> select exactly the
	// first two; the third's marginal weight is far below the 2% cutoff.
	candidates := []domain.Candidate{
		candidateAt("a", 1),
		candidateAt("b", 10),
		candidateAt("c", 1000),
	}

	selected := Select(candidates)

	if len(selected) != 2 {
		t.Fatalf("Select returned %d entries, want 2", len(selected))
	}
	if selected[0].Candidate.Station.ID != "a" || selected[1].Candidate.Station.ID != "b" {
		t.Errorf("Select returned unexpected stations: %+v", selected)
	}
}

func TestSelect_NeverFewerThanMinStations(t *testing.T) {
	candidates := []domain.Candidate{candidateAt("a", 1), candidateAt("b", 2)}
	selected := Select(candidates)
	if len(selected) != MinStations {
		t.Fatalf("Select returned %d entries with only %d candidates, want %d", len(selected), len(candidates), MinStations)
	}
}

func TestSelect_SingleCandidate(t *testing.T) {
	selected := Select([]domain.Candidate{candidateAt("a", 5)})
	if len(selected) != 1 {
		t.Fatalf("Select returned %d entries, want 1 (fewer candidates than MinStations exist)", len(selected))
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	if selected := Select(nil); len(selected) != 0 {
		t.Fatalf("Select(nil) = %v, want empty", selected)
	}
}

func TestNormalize_WeightsSumToOne(t *testing.T) {
	candidates := []domain.Candidate{
		candidateAt("a", 1),
		candidateAt("b", 10),
		candidateAt("c", 20),
	}
	normalized := Normalize(Select(candidates))

	var sum float64
	for _, e := range normalized {
		sum += e.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("normalized weights sum to %v, want 1.0", sum)
	}
}

func TestNormalize_ClosestStationGetsLargestWeight(t *testing.T) {
	candidates := []domain.Candidate{candidateAt("near", 1), candidateAt("far", 50)}
	normalized := Normalize(Select(candidates))

	if normalized[0].Weight <= normalized[1].Weight {
		t.Errorf("closest station weight %v should exceed farther station weight %v", normalized[0].Weight, normalized[1].Weight)
	}
}
