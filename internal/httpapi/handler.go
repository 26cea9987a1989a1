package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smhi-weather/location-engine/internal/domain"
	"github.com/smhi-weather/location-engine/internal/engine"
)

// Handler serves the §6 HTTP façade.
type Handler struct {
	locationEngine LocationEngine
	stationData    StationDataProvider
	catalog        CatalogProvider
	prewarmer      *engine.Prewarmer
	geocoder       Geocoder
}

// NewHandler builds a Handler. prewarmer may be nil if the server was
// started with pre-warming disabled.
func NewHandler(locationEngine LocationEngine, stationData StationDataProvider, catalog CatalogProvider, prewarmer *engine.Prewarmer, geocoder Geocoder) *Handler {
	return &Handler{
		locationEngine: locationEngine,
		stationData:    stationData,
		catalog:        catalog,
		prewarmer:      prewarmer,
		geocoder:       geocoder,
	}
}

// Search handles GET /api/search?q=… (§6).
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	result, err := h.geocoder.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no match found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Autocomplete handles GET /api/autocomplete?q=… (§6). Queries shorter than
// 3 characters always return an empty suggestion list.
func (h *Handler) Autocomplete(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 3 {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	suggestions, err := h.geocoder.Autocomplete(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// stationListing is the §6 "nearest cloud stations" response shape for
// GET /api/stations.
type stationListing struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

// Stations handles GET /api/stations?lat&lng (§6): nearest cloud-coverage
// stations to a point.
func (h *Handler) Stations(c *gin.Context) {
	lat, lon, ok := parseLatLon(c)
	if !ok {
		return
	}

	candidates, err := h.catalog.GetNearby(c.Request.Context(), lat, lon, domain.ParameterCloudCoverage, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]stationListing, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, stationListing{
			ID:         cand.Station.ID,
			Name:       cand.Station.Name,
			Lat:        cand.Station.Lat,
			Lon:        cand.Station.Lon,
			DistanceKm: cand.DistanceKm,
		})
	}

	c.JSON(http.StatusOK, gin.H{"stations": out})
}

// allStationEntry is the §6 merged-listing response shape for
// GET /api/all-stations.
type allStationEntry struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	HasCloudData     bool    `json:"has_cloud_data"`
	HasLightningData bool    `json:"has_lightning_data"`
}

// AllStations handles GET /api/all-stations (§6): the merged cloud +
// present-weather roster.
func (h *Handler) AllStations(c *gin.Context) {
	stations, err := h.catalog.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]allStationEntry, 0, len(stations))
	for _, s := range stations {
		out = append(out, allStationEntry{
			ID:               s.ID,
			Name:             s.Name,
			Lat:              s.Lat,
			Lon:              s.Lon,
			HasCloudData:     s.HasCloud,
			HasLightningData: s.HasLightning,
		})
	}

	c.JSON(http.StatusOK, gin.H{"stations": out})
}

// LocationWeather handles GET /api/location-weather?lat&lng&resolution=
// (§6). An absent or invalid resolution coerces to "month".
func (h *Handler) LocationWeather(c *gin.Context) {
	lat, lon, ok := parseLatLon(c)
	if !ok {
		return
	}

	resolution := c.Query("resolution")

	result, err := h.locationEngine.GetLocationWeather(c.Request.Context(), lat, lon, resolution)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StationWeatherData handles GET /api/weather-data/{station_id}?resolution=
// (§6): a single station's aggregated series.
func (h *Handler) StationWeatherData(c *gin.Context) {
	stationID := c.Param("station_id")
	resolution := c.Query("resolution")

	result, err := h.stationData.GetStationWeatherData(c.Request.Context(), stationID, resolution)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownStation) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HealthCheck handles GET /healthz, reporting the pre-warmer's progress
// alongside basic liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.prewarmer != nil {
		body["prewarm"] = h.prewarmer.Status()
	}
	c.JSON(http.StatusOK, body)
}

// parseLatLon reads and validates the lat/lng query parameters shared by
// several endpoints, writing a 400 response itself on failure.
func parseLatLon(c *gin.Context) (lat, lon float64, ok bool) {
	latStr := c.Query("lat")
	lonStr := c.Query("lng")
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng parameters are required"})
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid lat: %v", err)})
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid lng: %v", err)})
		return 0, 0, false
	}

	return lat, lon, true
}
