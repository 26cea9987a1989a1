// Command stationcli dumps one station's aggregated cloud-coverage and
// lightning-probability series at a given resolution, bypassing the HTTP
// façade and the result cache entirely — useful for spot-checking a
// station's upstream data during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/smhi-weather/location-engine/internal/adapter/smhiclient"
	"github.com/smhi-weather/location-engine/internal/aggregator"
	"github.com/smhi-weather/location-engine/internal/domain"
)

func main() {
	var (
		stationID  string
		resolution string
		upstream   string
		cacheDir   string
		lightning  bool
	)

	flag.StringVar(&stationID, "station", "", "station id (required)")
	flag.StringVar(&resolution, "resolution", "month", "day|month|year")
	flag.StringVar(&upstream, "upstream", "https://opendata-download-metobs.smhi.se/api", "upstream base URL")
	flag.StringVar(&cacheDir, "cache-dir", "./cache", "CSV cache directory")
	flag.BoolVar(&lightning, "lightning", true, "also fetch and aggregate present-weather data")
	flag.Parse()

	if stationID == "" {
		fmt.Fprintln(os.Stderr, "Usage: stationcli -station <id> [-resolution day|month|year] [-lightning=false]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := smhiclient.New(upstream, cacheDir, 7*24*time.Hour, 15*time.Second, 30*time.Second)

	cloudText, err := client.FetchStationCSV(ctx, domain.ParameterCloudCoverage, stationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch cloud coverage data: %v\n", err)
		os.Exit(1)
	}
	cloudRows := smhiclient.ParseCSV(cloudText)

	var weatherRows []domain.Row
	if lightning {
		weatherText, err := client.FetchStationCSV(ctx, domain.ParameterPresentWeather, stationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to fetch present-weather data: %v\n", err)
			lightning = false
		} else {
			weatherRows = smhiclient.ParseCSV(weatherText)
		}
	}

	points := aggregator.Aggregate(cloudRows, weatherRows, lightning, domain.NormalizeResolution(resolution))

	printPoints(stationID, points)
}

func printPoints(stationID string, points []domain.Point) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "station\t%s\n", stationID)
	fmt.Fprintln(w, "label\tcloud_avg\tobs_count\tlightning_prob\tlightning_lower\tlightning_upper\tlightning_obs")

	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%d\n",
			p.Label,
			formatFloat(p.CloudCoverageAvg),
			p.ObsCount,
			formatFloat(p.LightningProbability),
			formatFloat(p.LightningLower),
			formatFloat(p.LightningUpper),
			p.LightningObsCount,
		)
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
