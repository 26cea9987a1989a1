package engine

import (
	"math"
	"sort"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// stationSeries pairs a selected entry with its aggregated point series,
// produced by the station-level aggregation pipeline (§4.G step 6).
type stationSeries struct {
	entry  domain.SelectedEntry
	points []domain.Point
}

// blendCloud combines cloud_coverage_avg across entries for points that
// share a position (day/month) or label (year), per §4.G steps 9-10.
func blendCloud(series []stationSeries, resolution domain.Resolution) []domain.Point {
	if len(series) == 0 {
		return nil
	}
	if resolution == domain.ResolutionYear {
		return blendCloudByLabel(series)
	}
	return blendCloudByPosition(series)
}

func blendCloudByPosition(series []stationSeries) []domain.Point {
	n := len(series[0].points)
	points := make([]domain.Point, n)

	for i := 0; i < n; i++ {
		var weightedSum, weightSum float64
		var obsCount int
		label := series[0].points[i].Label

		for _, s := range series {
			if i >= len(s.points) {
				continue
			}
			p := s.points[i]
			obsCount += p.ObsCount
			if p.CloudCoverageAvg != nil {
				weightedSum += s.entry.Weight * (*p.CloudCoverageAvg)
				weightSum += s.entry.Weight
			}
		}

		points[i] = domain.Point{Label: label, ObsCount: obsCount}
		if weightSum > 0 {
			avg := round1(weightedSum / weightSum)
			points[i].CloudCoverageAvg = &avg
		}
	}

	return points
}

func blendCloudByLabel(series []stationSeries) []domain.Point {
	labels := unionLabels(series)
	points := make([]domain.Point, 0, len(labels))

	for _, label := range labels {
		var weightedSum, weightSum float64
		var obsCount int

		for _, s := range series {
			p, ok := findByLabel(s.points, label)
			if !ok {
				continue
			}
			obsCount += p.ObsCount
			if p.CloudCoverageAvg != nil {
				weightedSum += s.entry.Weight * (*p.CloudCoverageAvg)
				weightSum += s.entry.Weight
			}
		}

		point := domain.Point{Label: label, ObsCount: obsCount}
		if weightSum > 0 {
			avg := round1(weightedSum / weightSum)
			point.CloudCoverageAvg = &avg
		}
		points = append(points, point)
	}

	return points
}

// blendLightning combines lightning_probability, lightning_lower, and
// lightning_upper independently of the cloud blend, per §4.G step 11.
func blendLightning(series []stationSeries, resolution domain.Resolution) []domain.Point {
	if len(series) == 0 {
		return nil
	}
	if resolution == domain.ResolutionYear {
		return blendLightningByLabel(series)
	}
	return blendLightningByPosition(series)
}

func blendLightningByPosition(series []stationSeries) []domain.Point {
	n := len(series[0].points)
	points := make([]domain.Point, n)

	for i := 0; i < n; i++ {
		label := series[0].points[i].Label
		pts := make([]*domain.Point, 0, len(series))
		weights := make([]float64, 0, len(series))
		for _, s := range series {
			if i < len(s.points) {
				p := s.points[i]
				pts = append(pts, &p)
				weights = append(weights, s.entry.Weight)
			}
		}
		points[i] = blendLightningPoint(label, pts, weights)
	}

	return points
}

func blendLightningByLabel(series []stationSeries) []domain.Point {
	labels := unionLabels(series)
	points := make([]domain.Point, 0, len(labels))

	for _, label := range labels {
		pts := make([]*domain.Point, 0, len(series))
		weights := make([]float64, 0, len(series))
		for _, s := range series {
			p, ok := findByLabel(s.points, label)
			if ok {
				pts = append(pts, &p)
				weights = append(weights, s.entry.Weight)
			}
		}
		points = append(points, blendLightningPoint(label, pts, weights))
	}

	return points
}

// blendLightningPoint is the weighted-mean merge for one label's lightning
// fields, skipping entries that contributed nulls for a given field and
// tracking lightning_obs_count separately from the cloud obs_count
// (§4.G steps 11-12; §9 open question on the canonical field name).
func blendLightningPoint(label string, pts []*domain.Point, weights []float64) domain.Point {
	point := domain.Point{Label: label}

	var probSum, probWeight float64
	var lowerSum, lowerWeight float64
	var upperSum, upperWeight float64
	var obsCount int

	for i, p := range pts {
		w := weights[i]
		obsCount += p.LightningObsCount
		if p.LightningProbability != nil {
			probSum += w * (*p.LightningProbability)
			probWeight += w
		}
		if p.LightningLower != nil {
			lowerSum += w * (*p.LightningLower)
			lowerWeight += w
		}
		if p.LightningUpper != nil {
			upperSum += w * (*p.LightningUpper)
			upperWeight += w
		}
	}

	point.LightningObsCount = obsCount

	if probWeight > 0 {
		v := round2(probSum / probWeight)
		point.LightningProbability = &v
	}
	if lowerWeight > 0 {
		v := round2(lowerSum / lowerWeight)
		point.LightningLower = &v
	}
	if upperWeight > 0 {
		v := round2(upperSum / upperWeight)
		point.LightningUpper = &v
	}

	return point
}

// mergeByLabel joins a cloud-blend series and a lightning-blend series into
// the final point list, carrying cloud fields from the cloud blend and
// lightning fields joined by label; missing lightning yields nulls
// (§4.G step 12).
func mergeByLabel(cloudPoints, lightningPoints []domain.Point) []domain.Point {
	lightningByLabel := make(map[string]domain.Point, len(lightningPoints))
	for _, p := range lightningPoints {
		lightningByLabel[p.Label] = p
	}

	merged := make([]domain.Point, len(cloudPoints))
	for i, cp := range cloudPoints {
		merged[i] = cp
		if lp, ok := lightningByLabel[cp.Label]; ok {
			merged[i].LightningProbability = lp.LightningProbability
			merged[i].LightningLower = lp.LightningLower
			merged[i].LightningUpper = lp.LightningUpper
			merged[i].LightningObsCount = lp.LightningObsCount
		}
	}
	return merged
}

func unionLabels(series []stationSeries) []string {
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, s := range series {
		for _, p := range s.points {
			if !seen[p.Label] {
				seen[p.Label] = true
				labels = append(labels, p.Label)
			}
		}
	}
	sort.Strings(labels)
	return labels
}

func findByLabel(points []domain.Point, label string) (domain.Point, bool) {
	for _, p := range points {
		if p.Label == label {
			return p, true
		}
	}
	return domain.Point{}, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
