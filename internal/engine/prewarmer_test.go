package engine

import (
	"context"
	"testing"

	"github.com/smhi-weather/location-engine/internal/domain"
)

type fakeRoster struct {
	stations []domain.Station
	err      error
}

func (f *fakeRoster) GetAll(ctx context.Context) ([]domain.Station, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stations, nil
}

type countingPrefetcher struct {
	calls int
}

func (c *countingPrefetcher) FetchStationCSV(ctx context.Context, parameterID domain.ParameterID, stationID string) (string, error) {
	c.calls++
	return "", nil
}

func TestPrewarmer_RunEndsReady(t *testing.T) {
	roster := &fakeRoster{stations: []domain.Station{
		{ID: "s1", HasCloud: true, HasLightning: true},
		{ID: "s2", HasCloud: false, HasLightning: true}, // no cloud data, excluded
	}}
	rows := &fakeRows{}
	results := newFakeResults()
	prefetcher := &countingPrefetcher{}

	p := NewPrewarmer(roster, prefetcher, rows, results, 2)
	if p.Status().State != PrewarmIdle {
		t.Fatalf("initial state = %q, want %q", p.Status().State, PrewarmIdle)
	}

	p.Run(context.Background())

	status := p.Status()
	if status.State != PrewarmReady {
		t.Fatalf("final state = %q, want %q (error: %s)", status.State, PrewarmReady, status.Error)
	}
	if status.StationCount != 1 {
		t.Errorf("StationCount = %d, want 1 (only the cloud-capable station)", status.StationCount)
	}
	if status.Done != 1 {
		t.Errorf("Done = %d, want 1", status.Done)
	}
}

func TestPrewarmer_RosterFailureEndsInError(t *testing.T) {
	roster := &fakeRoster{err: context.DeadlineExceeded}
	p := NewPrewarmer(roster, &countingPrefetcher{}, &fakeRows{}, newFakeResults(), 2)

	p.Run(context.Background())

	status := p.Status()
	if status.State != PrewarmError {
		t.Fatalf("state = %q, want %q", status.State, PrewarmError)
	}
	if status.Error == "" {
		t.Error("expected a non-empty Error message")
	}
}

func TestNewPrewarmer_NonPositiveConcurrencyUsesDefault(t *testing.T) {
	p := NewPrewarmer(&fakeRoster{}, &countingPrefetcher{}, &fakeRows{}, newFakeResults(), 0)
	if p.downloadConcurrency != defaultDownloadConcurrency {
		t.Errorf("downloadConcurrency = %d, want default %d", p.downloadConcurrency, defaultDownloadConcurrency)
	}
}
