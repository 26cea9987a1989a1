package aggregator

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/smhi-weather/location-engine/internal/domain"
)

func cloudRows(year int, value float64, n int) []domain.Row {
	rows := make([]domain.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, domain.Row{Date: fmt.Sprintf("%04d-01-%02d", year, (i%28)+1), Value: value})
	}
	return rows
}

func weatherRows(dates []string, codes []float64) []domain.Row {
	rows := make([]domain.Row, len(dates))
	for i := range dates {
		rows[i] = domain.Row{Date: dates[i], Value: codes[i]}
	}
	return rows
}

func TestAggregate_MonthProducesTwelvePoints(t *testing.T) {
	points := Aggregate(cloudRows(2020, 50, 10), nil, false, domain.ResolutionMonth)
	if len(points) != 12 {
		t.Fatalf("month aggregation produced %d points, want 12:\n%s", len(points), spew.Sdump(points))
	}
}

func TestAggregate_DayProducesThreeSixtySixPoints(t *testing.T) {
	points := Aggregate(cloudRows(2020, 50, 10), nil, false, domain.ResolutionDay)
	if len(points) != 366 {
		t.Fatalf("day aggregation produced %d points, want 366", len(points))
	}

	feb29 := points[31+28]
	if feb29.Label != "Feb 29" {
		t.Errorf("day bucket 60 label = %q, want %q (leap-year Feb 29 must always be present)", feb29.Label, "Feb 29")
	}
}

func TestAggregate_YearBucketsByObservedYears(t *testing.T) {
	rows := append(cloudRows(2019, 10, 3), cloudRows(2021, 90, 2)...)
	points := Aggregate(rows, nil, false, domain.ResolutionYear)

	if len(points) != 2 {
		t.Fatalf("year aggregation produced %d points, want 2 (union of observed years)", len(points))
	}
	if points[0].Label != "2019" || points[1].Label != "2021" {
		t.Errorf("year labels = [%q, %q], want [2019, 2021] sorted ascending", points[0].Label, points[1].Label)
	}
}

func TestAggregate_SuppressedCI(t *testing.T) {
	// §8 scenario 1: bucket {total:5, lightning:1} -> probability=20.0, CI null.
	dates := make([]string, 5)
	codes := make([]float64, 5)
	for i := range dates {
		dates[i] = fmt.Sprintf("2020-03-%02d", i+1)
		codes[i] = 0 // non-lightning code
	}
	codes[0] = 95 // one lightning observation

	points := Aggregate(nil, weatherRows(dates, codes), true, domain.ResolutionMonth)
	mar := points[2]

	if mar.LightningProbability == nil || *mar.LightningProbability != 20.0 {
		t.Fatalf("March lightning_probability = %v, want 20.0", mar.LightningProbability)
	}
	if mar.LightningLower != nil || mar.LightningUpper != nil {
		t.Errorf("March CI should be suppressed below MinCIObservations, got lower=%v upper=%v", mar.LightningLower, mar.LightningUpper)
	}
}

func TestAggregate_CIPresentAboveThreshold(t *testing.T) {
	// §8 scenario 2: bucket {total:100, lightning:5} -> probability=5.0,
	// lower <= 5.0 <= upper, both present.
	dates := make([]string, 100)
	codes := make([]float64, 100)
	for i := range dates {
		dates[i] = fmt.Sprintf("2020-04-%02d", (i%28)+1)
		codes[i] = 0
	}
	for i := 0; i < 5; i++ {
		codes[i] = 95
	}

	points := Aggregate(nil, weatherRows(dates, codes), true, domain.ResolutionMonth)
	apr := points[3]

	if apr.LightningProbability == nil || *apr.LightningProbability != 5.0 {
		t.Fatalf("April lightning_probability = %v, want 5.0", apr.LightningProbability)
	}
	if apr.LightningLower == nil || apr.LightningUpper == nil {
		t.Fatalf("April CI should be present at 100 observations")
	}
	if *apr.LightningLower > 5.0 || *apr.LightningUpper < 5.0 {
		t.Errorf("April CI (%v, %v) does not bracket the point estimate 5.0", *apr.LightningLower, *apr.LightningUpper)
	}
}

func TestAggregate_NoCloudObservationsLeavesAvgNull(t *testing.T) {
	points := Aggregate(nil, nil, false, domain.ResolutionMonth)
	for _, p := range points {
		if p.ObsCount != 0 || p.CloudCoverageAvg != nil {
			t.Fatalf("empty input point %+v should have obs_count=0 and nil cloud_coverage_avg", p)
		}
	}
}

func TestAggregate_LightningDisabledLeavesFieldsNull(t *testing.T) {
	dates := []string{"2020-01-01", "2020-01-02"}
	codes := []float64{95, 95}
	points := Aggregate(nil, weatherRows(dates, codes), false, domain.ResolutionMonth)

	jan := points[0]
	if jan.LightningProbability != nil || jan.LightningLower != nil || jan.LightningUpper != nil {
		t.Errorf("has_lightning_data=false must null out all lightning fields, got %+v", jan)
	}
}
