package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row is a single parsed upstream observation (§3). Rows for cloud coverage
// carry a percentage in Value; rows for present weather carry an integer
// WMO code in Value.
type Row struct {
	Date    string // "YYYY-MM-DD"
	Time    string
	Value   float64
	Quality string
}

// Resolution is one of the three aggregation granularities (§GLOSSARY).
type Resolution string

const (
	ResolutionDay   Resolution = "day"
	ResolutionMonth Resolution = "month"
	ResolutionYear  Resolution = "year"
)

// NormalizeResolution coerces anything outside {day, month, year} to month,
// per §4.G step 1.
func NormalizeResolution(r string) Resolution {
	switch Resolution(r) {
	case ResolutionDay, ResolutionMonth, ResolutionYear:
		return Resolution(r)
	default:
		return ResolutionMonth
	}
}

// MonthLabels are the canonical month names used for "month" resolution
// labels (§6).
var MonthLabels = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// DaysInMonth returns the day count for a calendar month using a leap-year
// day count for February, so day-of-year buckets always include Feb 29
// (§3, §4.E).
func DaysInMonth(month int) int {
	switch month {
	case 2:
		return 29
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// DayLabel formats a (month, day) pair as "MMM DD" with zero-padded days.
func DayLabel(month, day int) string {
	return fmt.Sprintf("%s %02d", MonthLabels[month-1], day)
}

// ParseDateParts splits a "YYYY-MM-DD" date string into year, month, day
// integers. Malformed dates return ok=false so the caller can drop the row.
func ParseDateParts(date string) (year, month, day int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

// WeatherBucket counts total present-weather observations and the subset
// whose WMO code is in the lightning code set, for one calendar bucket.
type WeatherBucket struct {
	Total int
	Hits  int
}

// Point is one aggregated calendar-indexed output point (§3).
type Point struct {
	Label                string   `json:"label"`
	CloudCoverageAvg     *float64 `json:"cloud_coverage_avg"`
	LightningProbability *float64 `json:"lightning_probability"`
	LightningLower       *float64 `json:"lightning_lower"`
	LightningUpper       *float64 `json:"lightning_upper"`
	ObsCount             int      `json:"obs_count"`
	LightningObsCount    int      `json:"lightning_obs_count"`
}

// SortPointsByLabel sorts points ascending by label (string order), the
// order that "year" resolution series are kept in.
func SortPointsByLabel(points []Point) {
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
}
