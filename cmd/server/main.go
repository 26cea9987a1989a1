// Package main provides the location-engine HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/smhi-weather/location-engine/internal/adapter/resultcache"
	"github.com/smhi-weather/location-engine/internal/adapter/rowcache"
	"github.com/smhi-weather/location-engine/internal/adapter/smhiclient"
	"github.com/smhi-weather/location-engine/internal/catalog"
	"github.com/smhi-weather/location-engine/internal/config"
	"github.com/smhi-weather/location-engine/internal/engine"
	"github.com/smhi-weather/location-engine/internal/httpapi"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("location-engine version %s\n", version)
		return
	}

	cfg := config.Load()
	setupLogging(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("port", cfg.Port).
		Str("cache_dir", cfg.CacheDir).
		Str("upstream", cfg.UpstreamBaseURL).
		Msg("starting location-engine server")

	client := smhiclient.New(cfg.UpstreamBaseURL, cfg.CacheDir, cfg.CSVCacheTTL, cfg.HTTPTimeoutCatalog, cfg.HTTPTimeoutCSV)
	rows := rowcache.New(client, smhiclient.ParseCSV, cfg.RowCacheCap, cfg.CSVCacheTTL)
	results := resultcache.New(cfg.CacheDir, cfg.ResultCacheTTL)
	stationCatalog := catalog.New(client, cfg.CatalogTTL)

	locationEngine := engine.New(stationCatalog, stationCatalog, client, rows, results, cfg.PrefetchConcurrency)

	prewarmer := engine.NewPrewarmer(stationCatalog, client, rows, results, cfg.PrewarmConcurrency)
	if cfg.PrewarmConcurrency > 0 {
		go prewarmer.Run(context.Background())
	}

	router := httpapi.SetupRouter(locationEngine, locationEngine, stationCatalog, prewarmer, httpapi.NoopGeocoder{}, cfg.CORSAllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	log.Info().Msg("API endpoints:")
	log.Info().Msg("  GET /api/search")
	log.Info().Msg("  GET /api/autocomplete")
	log.Info().Msg("  GET /api/stations")
	log.Info().Msg("  GET /api/all-stations")
	log.Info().Msg("  GET /api/location-weather")
	log.Info().Msg("  GET /api/weather-data/:station_id")
	log.Info().Msg("  GET /healthz")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// setupLogging configures zerolog's global logger, writing to stderr and,
// if logFile is set, also to a rotating file via lumberjack.
func setupLogging(level, logFile string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		parsedLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsedLevel)

	if logFile == "" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(os.Stderr, rotator)).With().Timestamp().Logger()
}

func printUsage() {
	fmt.Printf("location-engine server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  UPSTREAM_BASE_URL       Upstream API base URL")
	fmt.Println("  CACHE_DIR               Disk cache root (default: ./cache)")
	fmt.Println("  CSV_CACHE_TTL           CSV cache TTL (default: 168h)")
	fmt.Println("  RESULT_CACHE_TTL        Aggregated result cache TTL (default: 168h)")
	fmt.Println("  CATALOG_TTL             Station roster TTL (default: 24h)")
	fmt.Println("  ROW_CACHE_CAPACITY      Parsed-row cache capacity (default: 30)")
	fmt.Println("  HTTP_TIMEOUT_CATALOG    Roster HTTP timeout (default: 15s)")
	fmt.Println("  HTTP_TIMEOUT_CSV        CSV download HTTP timeout (default: 30s)")
	fmt.Println("  PREWARM_CONCURRENCY     Pre-warmer download concurrency, 0 disables (default: 4)")
	fmt.Println("  PREFETCH_CONCURRENCY    Request-path prefetch concurrency (default: 3)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               Log level (default: info)")
	fmt.Println("  LOG_FILE                Rotating log file path (default: stderr only)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /healthz                              Health check")
	fmt.Println("  GET /api/search?q=                        Geocode a place name")
	fmt.Println("  GET /api/autocomplete?q=                  Place name suggestions")
	fmt.Println("  GET /api/stations?lat&lng                 Nearest cloud stations")
	fmt.Println("  GET /api/all-stations                     Merged station listing")
	fmt.Println("  GET /api/location-weather?lat&lng&resolution=  Blended location result")
	fmt.Println("  GET /api/weather-data/:station_id?resolution=  Single-station result")
	fmt.Println()
}
