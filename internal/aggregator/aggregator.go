// Package aggregator buckets a station's lifetime raw observations into
// calendar-indexed points at one of three resolutions, with a Wilson score
// interval for the binomial lightning rate (§4.E).
package aggregator

import (
	"math"
	"sort"
	"strconv"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// LightningCodes is the fixed set of WMO present-weather codes counted as
// lightning observations (§6).
var LightningCodes = map[int]bool{
	13: true, 17: true, 29: true,
	91: true, 92: true, 93: true, 94: true, 95: true, 96: true, 97: true, 98: true, 99: true,
	112: true, 126: true, 190: true, 191: true, 192: true, 193: true, 194: true, 195: true,
	196: true, 213: true, 217: true, 292: true, 293: true,
}

// dayKey identifies a day-of-year bucket.
type dayKey struct {
	month int
	day   int
}

// Aggregate builds a station's aggregated point list for one resolution
// from its raw cloud and present-weather rows (§4.E).
func Aggregate(cloudRows, weatherRows []domain.Row, hasLightning bool, resolution domain.Resolution) []domain.Point {
	switch resolution {
	case domain.ResolutionDay:
		return aggregateByDay(cloudRows, weatherRows, hasLightning)
	case domain.ResolutionYear:
		return aggregateByYear(cloudRows, weatherRows, hasLightning)
	default:
		return aggregateByMonth(cloudRows, weatherRows, hasLightning)
	}
}

func aggregateByMonth(cloudRows, weatherRows []domain.Row, hasLightning bool) []domain.Point {
	cloudBuckets := make(map[int][]float64)
	weatherBuckets := make(map[int]domain.WeatherBucket)

	for _, r := range cloudRows {
		_, month, _, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		cloudBuckets[month] = append(cloudBuckets[month], r.Value)
	}

	for _, r := range weatherRows {
		_, month, _, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		addWeatherObservation(weatherBuckets, month, r.Value)
	}

	points := make([]domain.Point, 0, 12)
	for m := 1; m <= 12; m++ {
		wb := weatherBuckets[m]
		points = append(points, makePoint(domain.MonthLabels[m-1], cloudBuckets[m], wb, hasLightning))
	}
	return points
}

func aggregateByDay(cloudRows, weatherRows []domain.Row, hasLightning bool) []domain.Point {
	cloudBuckets := make(map[dayKey][]float64)
	weatherBuckets := make(map[dayKey]domain.WeatherBucket)

	for _, r := range cloudRows {
		_, month, day, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		key := dayKey{month: month, day: day}
		cloudBuckets[key] = append(cloudBuckets[key], r.Value)
	}

	for _, r := range weatherRows {
		_, month, day, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		key := dayKey{month: month, day: day}
		b := weatherBuckets[key]
		b.Total++
		if LightningCodes[int(r.Value)] {
			b.Hits++
		}
		weatherBuckets[key] = b
	}

	points := make([]domain.Point, 0, 366)
	for m := 1; m <= 12; m++ {
		days := domain.DaysInMonth(m)
		for d := 1; d <= days; d++ {
			key := dayKey{month: m, day: d}
			label := domain.DayLabel(m, d)
			points = append(points, makePoint(label, cloudBuckets[key], weatherBuckets[key], hasLightning))
		}
	}
	return points
}

func aggregateByYear(cloudRows, weatherRows []domain.Row, hasLightning bool) []domain.Point {
	cloudBuckets := make(map[int][]float64)
	weatherBuckets := make(map[int]domain.WeatherBucket)
	years := make(map[int]bool)

	for _, r := range cloudRows {
		year, _, _, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		cloudBuckets[year] = append(cloudBuckets[year], r.Value)
		years[year] = true
	}

	for _, r := range weatherRows {
		year, _, _, ok := domain.ParseDateParts(r.Date)
		if !ok {
			continue
		}
		addWeatherObservation(weatherBuckets, year, r.Value)
		years[year] = true
	}

	sortedYears := make([]int, 0, len(years))
	for y := range years {
		sortedYears = append(sortedYears, y)
	}
	sort.Ints(sortedYears)

	points := make([]domain.Point, 0, len(sortedYears))
	for _, y := range sortedYears {
		label := yearLabel(y)
		points = append(points, makePoint(label, cloudBuckets[y], weatherBuckets[y], hasLightning))
	}
	return points
}

func addWeatherObservation(buckets map[int]domain.WeatherBucket, key int, value float64) {
	b := buckets[key]
	b.Total++
	if LightningCodes[int(value)] {
		b.Hits++
	}
	buckets[key] = b
}

func yearLabel(year int) string {
	return strconv.Itoa(year)
}

// makePoint builds a single aggregated point from one bucket's cloud values
// and weather bucket, applying the CI-suppression and Wilson-interval rules
// (§4.E).
func makePoint(label string, cloudValues []float64, weatherBucket domain.WeatherBucket, hasLightning bool) domain.Point {
	point := domain.Point{
		Label:             label,
		ObsCount:          len(cloudValues),
		LightningObsCount: weatherBucket.Total,
	}

	if len(cloudValues) > 0 {
		var sum float64
		for _, v := range cloudValues {
			sum += v
		}
		avg := round1(sum / float64(len(cloudValues)))
		point.CloudCoverageAvg = &avg
	}

	if hasLightning && weatherBucket.Total > 0 {
		probability := round2(float64(weatherBucket.Hits) / float64(weatherBucket.Total) * 100)
		point.LightningProbability = &probability

		if weatherBucket.Total >= domain.MinCIObservations {
			lower, upper := domain.WilsonInterval(weatherBucket.Hits, weatherBucket.Total)
			lower = clamp(lower, 0, 100)
			upper = clamp(upper, 0, 100)
			point.LightningLower = &lower
			point.LightningUpper = &upper
		}
	}

	return point
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
