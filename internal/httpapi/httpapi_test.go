package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/windcast/windcast/internal/provider"
	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

type stubStrategy struct{}

func (stubStrategy) ID() string   { return "stub" }
func (stubStrategy) Name() string { return "Stub provider" }
func (stubStrategy) Step() uint16 { return 3 }
func (stubStrategy) MaxForecastHour() uint16 { return 12 }

func (stubStrategy) DownloadArtifact(context.Context, stamp.Stamp) (string, int, error) {
	return "", 0, nil
}
func (stubStrategy) OnFileDownloaded(context.Context, storage.Store, string, stamp.Stamp) error {
	return nil
}
func (stubStrategy) LoadStamp(context.Context, storage.Store, stamp.Stamp) (*wind.Wind, error) {
	return nil, nil
}

func TestBuildWindsResponseReflectsStatus(t *testing.T) {
	ref := stamp.NewRefTime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	p := provider.New(stubStrategy{}, nil, ref)

	p.Status.SetLast(ref, 6)
	p.Status.AddForecast(stamp.FromHour(ref, 6))

	resp := buildWindsResponse(p)
	if resp.CurrentRefTime != ref.Format(iso8601) {
		t.Errorf("CurrentRefTime = %q, want %q", resp.CurrentRefTime, ref.Format(iso8601))
	}
	if resp.LastForecastTime == nil {
		t.Fatal("expected LastForecastTime to be set")
	}
	if len(resp.Forecasts) != 1 {
		t.Fatalf("len(Forecasts) = %d, want 1", len(resp.Forecasts))
	}
}

func TestMapRegistryLookup(t *testing.T) {
	ref := stamp.NewRefTime(time.Now())
	p := provider.New(stubStrategy{}, nil, ref)
	reg := MapRegistry{"stub": p}

	if got, ok := reg.Provider("stub"); !ok || got != p {
		t.Errorf("Provider(%q) = %v, %v, want %v, true", "stub", got, ok, p)
	}
	if _, ok := reg.Provider("missing"); ok {
		t.Error("expected missing provider to report false")
	}
}
