package quality

import (
	"testing"

	"github.com/smhi-weather/location-engine/internal/domain"
)

func entryAt(id string, weight float64, lat, lon float64) domain.SelectedEntry {
	return domain.SelectedEntry{
		Candidate: domain.Candidate{
			Station:    domain.Station{ID: id, Name: id, Lat: lat, Lon: lon},
			DistanceKm: domain.HaversineKm(59.0, 18.0, lat, lon),
		},
		Weight: weight,
	}
}

func pointsWithObs(n int, obsCount int) []domain.Point {
	points := make([]domain.Point, n)
	for i := range points {
		avg := 50.0
		points[i] = domain.Point{Label: domain.MonthLabels[i%12], CloudCoverageAvg: &avg, ObsCount: obsCount}
	}
	return points
}

func TestCompute_DominantStationOverride(t *testing.T) {
	// §8 scenario 3: weights 0.95/0.05 on two stations clustered to the
	// north-east of the query point -> station_coverage.level = "good"
	// despite under 10 degrees of directional spread.
	lat, lon := 59.0, 18.0

	// A point at a bearing of roughly 27 degrees and close; a point at roughly
	// 36 degrees, slightly farther, so bearings stay clustered.
	near := entryAt("near", 0.95, lat+0.05, lon+0.05)
	far := entryAt("far", 0.05, lat+0.05, lon+0.07)

	dq := Compute([]domain.SelectedEntry{near, far}, pointsWithObs(12, 100), domain.ResolutionMonth, lat, lon)

	// Without the override, a spread under 10 degrees would grade the direction
	// factor "poor" (spread < 90); the override forces it to "good" instead.
	if dq.StationCoverage.Direction.Level != domain.LevelGood {
		t.Errorf("direction factor level = %q, want %q (dominant-station override at weight 0.95)", dq.StationCoverage.Direction.Level, domain.LevelGood)
	}
	if dq.StationCoverage.Level != domain.LevelGood {
		t.Errorf("station_coverage.level = %q, want %q", dq.StationCoverage.Level, domain.LevelGood)
	}
}

func TestCompute_PromotedDirectionStillCappedByProximity(t *testing.T) {
	// weight 0.70 falls in the "promote one tier" band, not the fully
	// dominant band: a poor (clustered-bearing) direction factor only
	// promotes to fair, so even though proximity alone grades good, the
	// station_coverage.level must still be the worse of the two (fair), not
	// silently inherit proximity's "good".
	lat, lon := 59.0, 18.0

	near := entryAt("near", 0.70, lat+0.01, lon+0.01)
	far := entryAt("far", 0.30, lat+0.01, lon+0.012)

	dq := Compute([]domain.SelectedEntry{near, far}, pointsWithObs(12, 100), domain.ResolutionMonth, lat, lon)

	if dq.StationCoverage.Proximity.Level != domain.LevelGood {
		t.Fatalf("test setup invalid: proximity level = %q, want %q", dq.StationCoverage.Proximity.Level, domain.LevelGood)
	}
	if dq.StationCoverage.Direction.Level != domain.LevelFair {
		t.Fatalf("test setup invalid: direction level = %q, want %q (one-tier promotion from poor)", dq.StationCoverage.Direction.Level, domain.LevelFair)
	}
	if dq.StationCoverage.Level != domain.LevelFair {
		t.Errorf("station_coverage.level = %q, want %q (worst of proximity=good and promoted direction=fair)", dq.StationCoverage.Level, domain.LevelFair)
	}
}

func TestCompute_EmptyEntriesAreAllPoor(t *testing.T) {
	dq := Compute(nil, nil, domain.ResolutionMonth, 59.0, 18.0)
	if dq.Level != domain.LevelPoor {
		t.Errorf("empty-entry dimension level = %q, want %q", dq.Level, domain.LevelPoor)
	}
	if dq.StationCoverage.Level != domain.LevelPoor || dq.HistoricalData.Level != domain.LevelPoor {
		t.Errorf("empty-entry dimension should grade poor on every factor, got %+v", dq)
	}
}

func TestOverallFromDimensions_NoLightningStationsCapsAtMedium(t *testing.T) {
	// §8 scenario 5: lightning selection empty -> overall quality <= medium,
	// even though the cloud dimension alone is perfect.
	cloud := Compute(
		[]domain.SelectedEntry{entryAt("a", 0.6, 59.1, 18.1), entryAt("b", 0.4, 58.9, 18.1)},
		pointsWithObs(12, 1000),
		domain.ResolutionMonth, 59.0, 18.0,
	)
	lightning := domain.DimensionQuality{} // zero value; irrelevant when lightningHasStations=false

	q := OverallFromDimensions(cloud, lightning, false)

	if q.Overall == domain.OverallHigh {
		t.Errorf("overall = %q, want at most %q when no lightning stations exist", q.Overall, domain.OverallMedium)
	}
}

func TestOverallFromDimensions_PoorCloudStillDragsOverallLow(t *testing.T) {
	poorCloud := Compute(nil, nil, domain.ResolutionMonth, 59.0, 18.0)
	goodLightning := Compute(
		[]domain.SelectedEntry{entryAt("a", 0.6, 59.1, 18.1), entryAt("b", 0.4, 58.9, 18.1)},
		pointsWithObs(12, 1000),
		domain.ResolutionMonth, 59.0, 18.0,
	)

	q := OverallFromDimensions(poorCloud, goodLightning, true)

	if q.Overall != domain.OverallLow {
		t.Errorf("overall = %q, want %q when cloud data is genuinely poor", q.Overall, domain.OverallLow)
	}
}
