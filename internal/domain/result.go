package domain

// StationResult is the aggregated series for a single station at a single
// resolution (§3).
type StationResult struct {
	StationID        string     `json:"station_id"`
	Resolution       Resolution `json:"resolution"`
	HasLightningData bool       `json:"has_lightning_data"`
	Points           []Point    `json:"points"`
}

// StationWeight describes a contributing station's location and its
// normalized weight within one dimension, surfaced on a location result
// (§4.G step 14).
type StationWeight struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
	WeightPct  float64 `json:"weight_pct"`
}

// LocationResult is the blended response for a query coordinate (§3).
type LocationResult struct {
	HasLightningData bool            `json:"has_lightning_data"`
	Resolution       Resolution      `json:"resolution"`
	Points           []Point         `json:"points"`
	CloudStations    []StationWeight `json:"cloud_stations"`
	LightningStations []StationWeight `json:"lightning_stations"`
	Quality          Quality         `json:"quality"`
}

// EmptyLocationResult builds the "no data" shape returned when discovery or
// aggregation yields nothing usable (§4.G steps 3, 7; §7).
func EmptyLocationResult(resolution Resolution) LocationResult {
	return LocationResult{
		HasLightningData:  false,
		Resolution:        resolution,
		Points:            []Point{},
		CloudStations:     []StationWeight{},
		LightningStations: []StationWeight{},
		Quality:           EmptyQuality(),
	}
}
