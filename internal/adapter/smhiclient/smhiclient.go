// Package smhiclient is the upstream client (§4.A): bit-exact download and
// parsing of the upstream CSV feed plus a disk-backed CSV cache.
package smhiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smhi-weather/location-engine/internal/domain"
)

// ErrUpstreamNotFound is returned when the upstream reports a 404 for a
// station/parameter combination, a reserved "no data" signal (§4.A, §7).
var ErrUpstreamNotFound = fmt.Errorf("upstream: station has no data for parameter")

// dataHeaderPrefix marks the line that begins the semicolon-delimited data
// block in the upstream CSV; everything before it is variable metadata (§4.A).
const dataHeaderPrefix = "Datum;Tid"

// Client fetches station rosters and CSV archives from the upstream feed,
// caching CSV text on disk.
type Client struct {
	baseURL       string
	cacheDir      string
	csvTTL        time.Duration
	catalogClient *http.Client
	csvClient     *http.Client
}

// New builds a Client. catalogTimeout and csvTimeout bound the two HTTP call
// shapes separately (§5), since roster fetches and CSV archive downloads
// have very different expected sizes.
func New(baseURL, cacheDir string, csvTTL, catalogTimeout, csvTimeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		cacheDir:      cacheDir,
		csvTTL:        csvTTL,
		catalogClient: &http.Client{Timeout: catalogTimeout},
		csvClient:     &http.Client{Timeout: csvTimeout},
	}
}

// stationListResponse mirrors the upstream roster JSON shape (§6).
type stationListResponse struct {
	Station []struct {
		Key       string  `json:"key"`
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Active    bool    `json:"active"`
	} `json:"station"`
}

// FetchStationList hits the upstream roster endpoint for a parameter (§4.A.1).
func (c *Client) FetchStationList(ctx context.Context, parameterID domain.ParameterID) ([]domain.Station, error) {
	url := fmt.Sprintf("%s/version/latest/parameter/%d.json", c.baseURL, parameterID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("smhiclient: build roster request: %w", err)
	}

	resp, err := c.catalogClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smhiclient: fetch roster for parameter %d: %w", parameterID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("smhiclient: roster HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed stationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("smhiclient: decode roster JSON: %w", err)
	}

	stations := make([]domain.Station, 0, len(parsed.Station))
	for _, s := range parsed.Station {
		stations = append(stations, domain.Station{
			ID:     s.Key,
			Name:   s.Name,
			Lat:    s.Latitude,
			Lon:    s.Longitude,
			Active: s.Active,
		})
	}

	return stations, nil
}

// csvCachePath builds the deterministic disk path for one (parameter,
// station) CSV file (§6 "Cache layout").
func (c *Client) csvCachePath(parameterID domain.ParameterID, stationID string) string {
	return filepath.Join(c.cacheDir, "csv", fmt.Sprintf("param%d_station%s.csv", parameterID, stationID))
}

// FetchStationCSV returns CSV text for a station's corrected-archive period,
// serving from the on-disk cache when fresh (mtime younger than the
// configured TTL) and downloading-and-replacing otherwise (§4.A.2).
func (c *Client) FetchStationCSV(ctx context.Context, parameterID domain.ParameterID, stationID string) (string, error) {
	path := c.csvCachePath(parameterID, stationID)

	if info, err := os.Stat(path); err == nil {
		if time.Since(info.ModTime()) < c.csvTTL {
			//nolint:gosec // G304: path built from configured cache dir + validated station id.
			data, err := os.ReadFile(path)
			if err == nil {
				return string(data), nil
			}
		}
	}

	text, err := c.downloadCSV(ctx, parameterID, stationID)
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(path, []byte(text)); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("smhiclient: failed to persist CSV cache entry")
	}

	return text, nil
}

func (c *Client) downloadCSV(ctx context.Context, parameterID domain.ParameterID, stationID string) (string, error) {
	url := fmt.Sprintf("%s/version/latest/parameter/%d/station/%s/period/corrected-archive/data.csv",
		c.baseURL, parameterID, stationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("smhiclient: build CSV request: %w", err)
	}

	resp, err := c.csvClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("smhiclient: fetch CSV for station %s param %d: %w", stationID, parameterID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrUpstreamNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("smhiclient: CSV HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("smhiclient: read CSV body: %w", err)
	}

	return string(body), nil
}

// writeFileAtomic writes via a temp file and rename, the platform's nearest
// equivalent to an atomic text write (§5).
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("smhiclient: create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // G306: cache files are not secrets.
		return fmt.Errorf("smhiclient: write temp cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("smhiclient: rename cache file into place: %w", err)
	}
	return nil
}

// ParseCSV locates the data header (the first line beginning with
// "Datum;Tid"), skips it, and parses subsequent semicolon-delimited rows,
// keeping the first four columns and dropping rows with an empty date,
// empty value, or non-numeric value (§4.A.3).
func ParseCSV(text string) []domain.Row {
	scanner := bufio.NewScanner(strings.NewReader(text))
	rows := make([]domain.Row, 0)

	headerFound := false
	for scanner.Scan() {
		line := scanner.Text()

		if !headerFound {
			if strings.HasPrefix(line, dataHeaderPrefix) {
				headerFound = true
			}
			continue
		}

		cols := strings.Split(line, ";")
		if len(cols) < 4 {
			continue
		}

		date := strings.TrimSpace(cols[0])
		timeOfDay := strings.TrimSpace(cols[1])
		valueStr := strings.TrimSpace(cols[2])
		quality := strings.TrimSpace(cols[3])

		if date == "" || valueStr == "" {
			continue
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			continue
		}

		rows = append(rows, domain.Row{
			Date:    date,
			Time:    timeOfDay,
			Value:   value,
			Quality: quality,
		})
	}

	return rows
}
