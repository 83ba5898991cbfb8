package provider

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

// fakeStrategy answers DownloadArtifact with a canned status per forecast
// hour and records every hour it was asked to download, so downloadNext's
// cascade/backoff behaviour can be asserted without touching the network.
type fakeStrategy struct {
	statusByHour map[uint16]int
	downloaded   []uint16
	// maxForecastHour defaults to 12 when zero.
	maxForecastHour uint16
}

func (f *fakeStrategy) ID() string   { return "fake" }
func (f *fakeStrategy) Name() string { return "fake" }
func (f *fakeStrategy) Step() uint16 { return 3 }
func (f *fakeStrategy) MaxForecastHour() uint16 {
	if f.maxForecastHour == 0 {
		return 12
	}
	return f.maxForecastHour
}

func (f *fakeStrategy) DownloadArtifact(_ context.Context, st stamp.Stamp) (string, int, error) {
	f.downloaded = append(f.downloaded, st.ForecastHour())
	status, ok := f.statusByHour[st.ForecastHour()]
	if !ok {
		status = http.StatusNotFound
	}
	return "", status, nil
}

func (f *fakeStrategy) OnFileDownloaded(_ context.Context, store storage.Store, _ string, st stamp.Stamp) error {
	return store.Save(context.Background(), "", st.FileName())
}

func (f *fakeStrategy) LoadStamp(context.Context, storage.Store, stamp.Stamp) (*wind.Wind, error) {
	return &wind.Wind{}, nil
}

// fakeStore is an in-memory storage.Store good enough to exercise the
// download/refresh/prune loops without touching a filesystem.
type fakeStore struct {
	saved map[string]bool
}

func newFakeStore() *fakeStore { return &fakeStore{saved: map[string]bool{}} }

func (s *fakeStore) Save(_ context.Context, _, name string) error {
	s.saved[name] = true
	return nil
}
func (s *fakeStore) Remove(_ context.Context, name string) error {
	delete(s.saved, name)
	return nil
}
func (s *fakeStore) Exists(_ context.Context, name string) (bool, error) {
	return s.saved[name], nil
}
func (s *fakeStore) ExistsBlocking(name string) (bool, error) {
	return s.saved[name], nil
}
func (s *fakeStore) List(context.Context) ([]stamp.Stamp, error) { return nil, nil }
func (s *fakeStore) Get(context.Context, string, any) error      { return nil }
func (s *fakeStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, nil
}
func (s *fakeStore) String() string { return "fake" }

func TestDownloadNextBacksOffOneCycleOn404AtFirstHour(t *testing.T) {
	strategy := &fakeStrategy{statusByHour: map[uint16]int{
		// the original cycle 404s at the very first hour tried...
		6: http.StatusNotFound,
	}}
	store := newFakeStore()
	p := New(strategy, store, stamp.RefTime{})

	// RefTime built directly (bypassing 6h truncation) so every forecast
	// hour in this small window lands in the future and none get skipped
	// by the "already past" guard before the 404 cascade has a chance to run.
	ref := stamp.RefTime{Time: time.Now()}
	if _, err := p.downloadNext(context.Background(), ref, true); err != nil {
		t.Fatal(err)
	}
	// every attempted hour belonged to either ref or ref-6h; confirms the
	// cascade walked into the older cycle rather than giving up immediately.
	if len(strategy.downloaded) == 0 {
		t.Fatal("expected at least one download attempt")
	}
	if strategy.downloaded[0] != 6 {
		t.Errorf("first attempted hour = %d, want 6 (startHour)", strategy.downloaded[0])
	}
	if len(strategy.downloaded) < 2 {
		t.Error("expected the 404 at hour 6 to trigger a backoff retry into the previous cycle")
	}
}

func TestDownloadNextStopsWalkingOn404AfterFirstHour(t *testing.T) {
	strategy := &fakeStrategy{statusByHour: map[uint16]int{
		6: http.StatusOK,
		9: http.StatusNotFound,
		// 12 would be OK too, but the walk must stop at the 9h 404.
		12: http.StatusOK,
	}}
	store := newFakeStore()
	p := New(strategy, store, stamp.RefTime{})

	ref := stamp.RefTime{Time: time.Now()}
	somethingNew, err := p.downloadNext(context.Background(), ref, true)
	if err != nil {
		t.Fatal(err)
	}
	if !somethingNew {
		t.Error("expected the 6h success to register as new")
	}

	for _, h := range strategy.downloaded {
		if h == 12 {
			t.Error("walk should have stopped at the 9h 404, never reaching 12h")
		}
	}
}

func TestDownloadNextTooOldSkipDoesNotClearFirst(t *testing.T) {
	// Hour 6 is already more than one step in the past and gets skipped
	// without ever being attempted; hour 9 is the first hour actually
	// downloaded, and its 404 must still be treated as "the first hour
	// tried" and trigger the cascade into the previous cycle.
	strategy := &fakeStrategy{
		statusByHour:    map[uint16]int{9: http.StatusNotFound},
		maxForecastHour: 240,
	}
	store := newFakeStore()
	p := New(strategy, store, stamp.RefTime{})

	ref := stamp.RefTime{Time: time.Now().Add(-10 * time.Hour)}
	if _, err := p.downloadNext(context.Background(), ref, true); err != nil {
		t.Fatal(err)
	}

	if len(strategy.downloaded) == 0 {
		t.Fatal("expected at least one download attempt")
	}
	if strategy.downloaded[0] != 9 {
		t.Errorf("first attempted hour = %d, want 9 (6h was skipped as too old)", strategy.downloaded[0])
	}
	if len(strategy.downloaded) < 2 {
		t.Error("expected the 404 at hour 9 to trigger a backoff retry into the previous cycle")
	}
}
