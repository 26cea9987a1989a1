package domain

// ParameterID identifies an upstream measurement parameter.
type ParameterID int

const (
	// ParameterCloudCoverage is the upstream parameter for cloud coverage percentage.
	ParameterCloudCoverage ParameterID = 16
	// ParameterPresentWeather is the upstream parameter for present-weather WMO codes.
	ParameterPresentWeather ParameterID = 13
)

// Station is a roster entry for one upstream observation station.
type Station struct {
	ID           string
	Name         string
	Lat          float64
	Lon          float64
	Active       bool
	HasCloud     bool
	HasLightning bool
}

// Candidate pairs a station with its distance from a query point, per §3.
type Candidate struct {
	Station    Station
	DistanceKm float64
}

// SelectedEntry is a candidate chosen by the adaptive selector, carrying its
// raw (pre-normalization) IDW weight and, once normalized, a weight in (0,1].
type SelectedEntry struct {
	Candidate Candidate
	RawWeight float64
	Weight    float64
}
