package status

import (
	"testing"
	"time"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/wind"
)

func mkStamp(refHour, forecastHour int, base time.Time, withWind bool) stamp.Stamp {
	ref := stamp.NewRefTime(base.Add(time.Duration(refHour) * time.Hour))
	st := stamp.FromHour(ref, uint16(forecastHour))
	if withWind {
		st.Wind = &wind.Wind{}
	}
	return st
}

func TestFindSingleKeyReturnsItRegardlessOfQuery(t *testing.T) {
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s := New("p", "P", stamp.NewRefTime(base), 384)

	st := mkStamp(0, 10, base, true)
	s.AddForecast(st)

	for _, q := range []time.Time{base.Add(-time.Hour), base.Add(10 * time.Hour), base.Add(100 * time.Hour)} {
		before, after, alpha := s.Find(q)
		if len(before) != 1 || after != nil || alpha != 0 {
			t.Errorf("Find(%v) = (%d befores, after=%v, alpha=%v), want (1, nil, 0)", q, len(before), after, alpha)
		}
	}
}

func TestFindInterpolatesBetweenTwoKeys(t *testing.T) {
	base := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	ref := stamp.NewRefTime(base.Add(-10 * time.Hour))
	s := New("p", "P", ref, 384)

	k1 := stamp.FromHour(ref, 10) // 10:00
	k1.Wind = &wind.Wind{}
	k2 := stamp.FromHour(ref, 13) // 13:00
	k2.Wind = &wind.Wind{}

	s.AddForecast(k1)
	s.AddForecast(k2)

	before, after, alpha := s.Find(base.Add(time.Hour)) // 11:00, 1/3 of the way
	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("expected both brackets populated, got before=%d after=%d", len(before), len(after))
	}
	if want := 1.0 / 3.0; alpha < want-1e-9 || alpha > want+1e-9 {
		t.Errorf("alpha = %v, want %v", alpha, want)
	}

	_, after, alpha = s.Find(base.Add(3 * time.Hour)) // exactly 13:00
	if after != nil || alpha != 0 {
		t.Errorf("Find(13:00) = (after=%v, alpha=%v), want (nil, 0)", after, alpha)
	}

	before, after, alpha = s.Find(base.Add(-time.Hour)) // 09:00, before everything
	if len(before) != 1 || after != nil || alpha != 0 {
		t.Errorf("Find(09:00) = (%d befores, after=%v, alpha=%v), want (1, nil, 0)", len(before), after, alpha)
	}
}

func TestAddForecastKeepsKeysSortedAndNoEmptyLists(t *testing.T) {
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s := New("p", "P", stamp.NewRefTime(base), 384)

	ref := stamp.NewRefTime(base)
	s.AddForecast(stamp.FromHour(ref, 12))
	s.AddForecast(stamp.FromHour(ref, 6))
	s.AddForecast(stamp.FromHour(ref, 9))

	forecasts := s.Forecasts()
	if len(forecasts) != 3 {
		t.Fatalf("len = %d, want 3", len(forecasts))
	}
	for i := 1; i < len(forecasts); i++ {
		if forecasts[i].ForecastTime.Before(forecasts[i-1].ForecastTime.Time) {
			t.Errorf("forecasts not sorted: %v before %v", forecasts[i].ForecastTime, forecasts[i-1].ForecastTime)
		}
	}

	removed := false
	s.RemoveForecast(stamp.FromHour(ref, 9).ForecastTime, func(stamp.Stamp) { removed = true })
	if !removed {
		t.Error("expected RemoveForecast callback to fire")
	}
	for _, f := range s.Forecasts() {
		if len(f.RefTimes) == 0 {
			t.Errorf("found empty-list key %v", f.ForecastTime)
		}
	}
}

func TestSetLastIsMonotoneInRefTime(t *testing.T) {
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s := New("p", "P", stamp.NewRefTime(base), 384)

	newer := stamp.NewRefTime(base)
	older := stamp.NewRefTime(base.Add(-6 * time.Hour))

	s.SetLast(newer, 12)
	s.SetLast(older, 300) // older ref_time, must not override

	last, ok := s.GetLast()
	if !ok {
		t.Fatal("expected a last stamp")
	}
	if !last.RefTime.Time.Equal(newer.Time) {
		t.Errorf("last.RefTime = %v, want %v (monotone)", last.RefTime.Time, newer.Time)
	}
}

func TestGetProgressClampsAtMax(t *testing.T) {
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s := New("p", "P", stamp.NewRefTime(base), 12)

	s.SetLast(stamp.NewRefTime(base), 6)
	if got := s.GetProgress(); got != 50 {
		t.Errorf("progress = %d, want 50", got)
	}

	s.SetLast(stamp.NewRefTime(base), 20) // beyond max, should clamp to 100
	if got := s.GetProgress(); got != 100 {
		t.Errorf("progress = %d, want 100 (clamped)", got)
	}
}
