package httpapi

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smhi-weather/location-engine/internal/domain"
	"github.com/smhi-weather/location-engine/internal/engine"
)

// LocationEngine is the router's contract onto internal/engine, satisfied by
// *engine.Engine.
type LocationEngine interface {
	GetLocationWeather(ctx context.Context, lat, lon float64, resolutionParam string) (domain.LocationResult, error)
}

// StationDataProvider is the router's contract for the single-station
// endpoint, satisfied by *engine.Engine.
type StationDataProvider interface {
	GetStationWeatherData(ctx context.Context, stationID string, resolution string) (domain.StationResult, error)
}

// CatalogProvider is the router's contract for the station-listing
// endpoints, satisfied by *catalog.Catalog.
type CatalogProvider interface {
	GetNearby(ctx context.Context, lat, lon float64, parameterID domain.ParameterID, count int) ([]domain.Candidate, error)
	GetAll(ctx context.Context) ([]domain.Station, error)
}

// SetupRouter builds the Gin engine serving the §6 HTTP façade.
func SetupRouter(locationEngine LocationEngine, stationData StationDataProvider, catalog CatalogProvider, prewarmer *engine.Prewarmer, geocoder Geocoder, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	if geocoder == nil {
		geocoder = NoopGeocoder{}
	}
	handler := NewHandler(locationEngine, stationData, catalog, prewarmer, geocoder)

	api := router.Group("/api")
	{
		api.GET("/search", handler.Search)
		api.GET("/autocomplete", handler.Autocomplete)
		api.GET("/stations", handler.Stations)
		api.GET("/all-stations", handler.AllStations)
		api.GET("/location-weather", handler.LocationWeather)
		api.GET("/weather-data/:station_id", handler.StationWeatherData)
	}

	router.GET("/healthz", handler.HealthCheck)

	return router
}

// requestIDMiddleware stamps every request with a UUID, echoed back in the
// response header so callers can correlate logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}
