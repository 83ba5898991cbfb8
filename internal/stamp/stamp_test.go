package stamp

import (
	"testing"
	"time"
)

func TestNewRefTimeTruncatesToSixHours(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 7, 30, 5, 59, 0, 0, time.UTC), time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 7, 30, 7, 15, 30, 0, time.UTC), time.Date(2026, 7, 30, 6, 0, 0, 0, time.UTC)},
		{time.Date(2026, 7, 30, 23, 59, 59, 0, time.UTC), time.Date(2026, 7, 30, 18, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		got := NewRefTime(c.in)
		if !got.Time.Equal(c.want) {
			t.Errorf("NewRefTime(%v) = %v, want %v", c.in, got.Time, c.want)
		}
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	ref := NewRefTime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	s := FromHour(ref, 72)

	name := s.FileName()
	if name != "2026073012.f072" {
		t.Fatalf("FileName() = %q, want %q", name, "2026073012.f072")
	}

	parsed, err := ParseFileName(name)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.RefTime.Time.Equal(s.RefTime.Time) || parsed.ForecastTime.Time != s.ForecastTime.Time {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, s)
	}
	if parsed.ForecastHour() != 72 {
		t.Errorf("ForecastHour() = %d, want 72", parsed.ForecastHour())
	}
}

func TestParseFileNameRejectsGarbage(t *testing.T) {
	for _, name := range []string{"garbage", "2026073012", "2026073012.x072", "not-a-date.f003"} {
		if _, err := ParseFileName(name); err == nil {
			t.Errorf("ParseFileName(%q) succeeded, want error", name)
		}
	}
}

func TestCurrentCycleStepsBackUntilPublished(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// 00Z cycle is truncated but not yet published (upstream needs until 03:30).
		{time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC), time.Date(2026, 7, 29, 18, 0, 0, 0, time.UTC)},
		// Just past the publish lag: 00Z is usable.
		{time.Date(2026, 7, 30, 3, 31, 0, 0, time.UTC), time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC), time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		got := CurrentCycle(c.now)
		if !got.Time.Equal(c.want) {
			t.Errorf("CurrentCycle(%v) = %v, want %v", c.now, got.Time, c.want)
		}
	}
}

func TestStampString(t *testing.T) {
	ref := NewRefTime(time.Date(2026, 7, 30, 18, 0, 0, 0, time.UTC))
	s := FromHour(ref, 6)

	if got, want := s.String(), "18Z+006"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
