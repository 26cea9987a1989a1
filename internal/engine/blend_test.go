package engine

import (
	"testing"

	"github.com/smhi-weather/location-engine/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func weightedSeries(weight, cloudAvg float64) stationSeries {
	return stationSeries{
		entry: domain.SelectedEntry{Weight: weight},
		points: []domain.Point{
			{Label: "Jan", CloudCoverageAvg: floatPtr(cloudAvg), ObsCount: 10},
		},
	}
}

func weightedLightningSeries(weight, prob float64) stationSeries {
	return stationSeries{
		entry: domain.SelectedEntry{Weight: weight},
		points: []domain.Point{
			{Label: "Jan", LightningProbability: floatPtr(prob), LightningObsCount: 10},
		},
	}
}

// TestBlend_CloudAndLightningAreIndependent verifies §8 scenario 6: a
// station weighted heavily for cloud can be weighted differently for
// lightning, and neither blend leaks into the other's inputs.
func TestBlend_CloudAndLightningAreIndependent(t *testing.T) {
	cloudSeries := []stationSeries{weightedSeries(0.7, 80), weightedSeries(0.3, 40)}
	lightningSeries := []stationSeries{weightedLightningSeries(0.6, 5.0), weightedLightningSeries(0.4, 10.0)}

	cloudPoints := blendCloud(cloudSeries, domain.ResolutionMonth)
	lightningPoints := blendLightning(lightningSeries, domain.ResolutionMonth)

	if len(cloudPoints) != 1 || cloudPoints[0].CloudCoverageAvg == nil {
		t.Fatalf("blendCloud produced unexpected result: %+v", cloudPoints)
	}
	if got := *cloudPoints[0].CloudCoverageAvg; got != 68.0 {
		t.Errorf("blended cloud avg = %v, want 68.0 (0.7*80 + 0.3*40)", got)
	}

	if len(lightningPoints) != 1 || lightningPoints[0].LightningProbability == nil {
		t.Fatalf("blendLightning produced unexpected result: %+v", lightningPoints)
	}
	if got := *lightningPoints[0].LightningProbability; got != 7.0 {
		t.Errorf("blended lightning probability = %v, want 7.0 (0.6*5 + 0.4*10)", got)
	}

	merged := mergeByLabel(cloudPoints, lightningPoints)
	if len(merged) != 1 {
		t.Fatalf("mergeByLabel returned %d points, want 1", len(merged))
	}
	if *merged[0].CloudCoverageAvg != 68.0 || *merged[0].LightningProbability != 7.0 {
		t.Errorf("merged point = %+v, expected cloud 68.0 and lightning 7.0 with no cross-contamination", merged[0])
	}
}

func TestMergeByLabel_MissingLightningLabelYieldsNulls(t *testing.T) {
	cloud := []domain.Point{{Label: "Jan", CloudCoverageAvg: floatPtr(50)}}
	merged := mergeByLabel(cloud, nil)

	if merged[0].LightningProbability != nil {
		t.Errorf("expected nil lightning probability when no lightning series exists, got %v", *merged[0].LightningProbability)
	}
}

func TestBlendCloudByLabel_UnionsLabelsAcrossStations(t *testing.T) {
	series := []stationSeries{
		{entry: domain.SelectedEntry{Weight: 0.5}, points: []domain.Point{{Label: "2019", CloudCoverageAvg: floatPtr(10)}}},
		{entry: domain.SelectedEntry{Weight: 0.5}, points: []domain.Point{{Label: "2020", CloudCoverageAvg: floatPtr(20)}}},
	}

	points := blendCloudByLabel(series)
	if len(points) != 2 {
		t.Fatalf("blendCloudByLabel returned %d points, want 2 (union of distinct years)", len(points))
	}
}
