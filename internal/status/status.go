// Package status holds the per-provider inventory: a concurrently read/written
// index from forecast time to the stamps that cover it, plus the temporal
// lookup the HTTP read path uses to interpolate wind between two forecasts.
package status

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/wind"
)

// entry is one ForecastTime bucket: the instant and the stamps observed for
// it, kept in insertion order (ascending ref_time, since the engine always
// registers older cycles before newer ones).
type entry struct {
	forecastTime stamp.ForecastTime
	stamps       []stamp.Stamp
}

// Status is a provider's live inventory: which cycle it is currently
// servicing, the last stamp recorded by SetLast, and the ordered
// forecast-time index. Safe for concurrent use.
type Status struct {
	Provider     string
	ProviderName string

	mu             sync.RWMutex
	currentRefTime stamp.RefTime
	last           *stamp.Stamp
	maxForecastHour uint16
	entries        []entry // sorted ascending by forecastTime
}

// New creates an empty Status for provider id/name, servicing ref initially.
func New(provider, providerName string, ref stamp.RefTime, maxForecastHour uint16) *Status {
	return &Status{
		Provider:        provider,
		ProviderName:    providerName,
		currentRefTime:  ref,
		maxForecastHour: maxForecastHour,
	}
}

// SetCurrentRefTime updates the cycle this Status is actively servicing.
func (s *Status) SetCurrentRefTime(ref stamp.RefTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRefTime = ref
}

// CurrentRefTime returns the cycle currently being serviced.
func (s *Status) CurrentRefTime() stamp.RefTime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRefTime
}

// GetLast returns the Stamp recorded by the latest SetLast call that was not
// rejected for an older ref_time, or false if nothing has been recorded yet.
// A later call with the same ref_time replaces it even with a lower hour.
func (s *Status) GetLast() (stamp.Stamp, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return stamp.Stamp{}, false
	}
	return *s.last, true
}

// GetProgress returns floor(100*last.forecast_hour/max_forecast_hour),
// clamped to [0, 100].
func (s *Status) GetProgress() uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progressLocked()
}

func (s *Status) progressLocked() uint8 {
	if s.last == nil || s.maxForecastHour == 0 {
		return 0
	}
	h := s.last.ForecastHour()
	progress := 100 * uint32(h) / uint32(s.maxForecastHour)
	if progress > 100 {
		progress = 100
	}
	return uint8(progress)
}

// SetLast records h as the new forecast hour reached by ref, provided ref is
// not older than the ref_time already recorded (set_last is monotone).
func (s *Status) SetLast(ref stamp.RefTime, h uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil && ref.Before(s.last.RefTime.Time) {
		return
	}
	last := stamp.FromHour(ref, h)
	s.last = &last
}

// ContainsKey reports whether forecastTime already has at least one Stamp
// indexed.
func (s *Status) ContainsKey(ft stamp.ForecastTime) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.find(ft)
	return ok
}

// AddForecast appends st to the list for st.ForecastTime, creating the
// bucket (in sorted position) if this is the first Stamp seen for it.
func (s *Status) AddForecast(st stamp.Stamp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.find(st.ForecastTime)
	if ok {
		s.entries[idx].stamps = append(s.entries[idx].stamps, st)
		return
	}

	e := entry{forecastTime: st.ForecastTime, stamps: []stamp.Stamp{st}}
	insertAt, _ := slices.BinarySearchFunc(s.entries, e, compareEntry)
	s.entries = slices.Insert(s.entries, insertAt, e)
}

// RemoveForecast detaches every Stamp indexed under ft and invokes fn for
// each, outside the lock, so callers can delete the underlying storage
// objects without blocking other readers/writers on this Status.
func (s *Status) RemoveForecast(ft stamp.ForecastTime, fn func(stamp.Stamp)) {
	s.mu.Lock()
	idx, ok := s.find(ft)
	var removed []stamp.Stamp
	if ok {
		removed = s.entries[idx].stamps
		s.entries = slices.Delete(s.entries, idx, idx+1)
	}
	s.mu.Unlock()

	for _, st := range removed {
		fn(st)
	}
}

// Retain keeps only the forecast-time buckets for which keep returns true,
// removing the rest (invoking fn for every Stamp in a dropped bucket,
// outside the lock). Used by the refresh loop to drop buckets whose files
// have vanished from storage.
func (s *Status) Retain(keep func(ft stamp.ForecastTime, stamps []stamp.Stamp) bool, fn func(stamp.Stamp)) {
	s.mu.Lock()
	var kept []entry
	var dropped []stamp.Stamp
	for _, e := range s.entries {
		if keep(e.forecastTime, e.stamps) {
			kept = append(kept, e)
		} else {
			dropped = append(dropped, e.stamps...)
		}
	}
	s.entries = kept
	s.mu.Unlock()

	for _, st := range dropped {
		fn(st)
	}
}

// PruneOlderThan removes every forecast-time bucket older than cutoff,
// invoking fn for every Stamp it removes.
func (s *Status) PruneOlderThan(cutoff time.Time, fn func(stamp.Stamp)) {
	s.Retain(func(ft stamp.ForecastTime, _ []stamp.Stamp) bool {
		return !ft.Time.Before(cutoff)
	}, fn)
}

// ForecastSummary is one forecast-time's known ref-times, in the insertion
// (ascending ref_time) order they were observed.
type ForecastSummary struct {
	ForecastTime stamp.ForecastTime
	RefTimes     []stamp.RefTime
}

// Forecasts returns a snapshot of the inventory, sorted ascending by
// forecast time, for the HTTP read surface.
func (s *Status) Forecasts() []ForecastSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ForecastSummary, 0, len(s.entries))
	for _, e := range s.entries {
		refs := make([]stamp.RefTime, len(e.stamps))
		for i, st := range e.stamps {
			refs[i] = st.RefTime
		}
		out = append(out, ForecastSummary{ForecastTime: e.forecastTime, RefTimes: refs})
	}
	return out
}

// find locates the bucket for ft via binary search over the sorted entries.
// Caller must hold s.mu (read or write).
func (s *Status) find(ft stamp.ForecastTime) (int, bool) {
	idx, ok := slices.BinarySearchFunc(s.entries, entry{forecastTime: ft}, compareEntry)
	return idx, ok
}

func compareEntry(a, b entry) int {
	switch {
	case a.forecastTime.Before(b.forecastTime.Time):
		return -1
	case b.forecastTime.Before(a.forecastTime.Time):
		return 1
	default:
		return 0
	}
}

// winds returns every loaded Wind carried by stamps, skipping stamps whose
// payload has not been loaded yet.
func winds(stamps []stamp.Stamp) []*wind.Wind {
	out := make([]*wind.Wind, 0, len(stamps))
	for _, st := range stamps {
		if st.Wind != nil {
			out = append(out, st.Wind)
		}
	}
	return out
}

// Find is the temporal lookup the HTTP read path consumes: it returns the
// winds bracketing query (before always populated when anything is known;
// after nil when query lands at or past the last known forecast time) and
// the interpolation factor alpha in [0,1].
func (s *Status) Find(query time.Time) (before, after []*wind.Wind, alpha float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prev *entry
	for i := range s.entries {
		e := &s.entries[i]
		if e.forecastTime.After(query) {
			if prev == nil {
				return winds(e.stamps), nil, 0
			}
			h := query.Sub(prev.forecastTime.Time)
			delta := e.forecastTime.Sub(prev.forecastTime.Time)
			if h <= 0 || delta <= 0 {
				return winds(prev.stamps), nil, 0
			}
			return winds(prev.stamps), winds(e.stamps), float64(h) / float64(delta)
		}
		prev = e
	}

	if prev == nil {
		return nil, nil, 0
	}
	return winds(prev.stamps), nil, 0
}
