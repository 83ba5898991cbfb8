// Package stamp implements the reference-time/forecast-time/forecast-hour
// identifiers used to index wind forecasts.
package stamp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/wind"
)

// RefTime is a forecast cycle start, always truncated to a 6-hour boundary.
type RefTime struct{ time.Time }

// ForecastTime is a single forecast instant, RefTime plus some whole hours.
type ForecastTime struct{ time.Time }

// NewRefTime truncates t down to the nearest 6-hour UTC boundary.
func NewRefTime(t time.Time) RefTime {
	t = t.UTC()
	h := (t.Hour() / 6) * 6
	return RefTime{time.Date(t.Year(), t.Month(), t.Day(), h, 0, 0, 0, time.UTC)}
}

// Now returns the current 6-hour-truncated RefTime.
func Now() RefTime {
	return NewRefTime(time.Now())
}

// publishLag is how long after a cycle's nominal boundary the upstream
// provider typically needs before that cycle's data is actually available.
const publishLag = 3*time.Hour + 30*time.Minute

// CurrentCycle is the current serviceable RefTime: now truncated to a
// 6-hour boundary, stepped back one more cycle if the upstream hasn't had
// time to publish it yet (spec.md §4.8).
func CurrentCycle(now time.Time) RefTime {
	truncated := NewRefTime(now)
	if now.Before(truncated.Time.Add(publishLag)) {
		return truncated.Add(-6 * time.Hour)
	}
	return truncated
}

// Add returns the RefTime d earlier/later, re-truncated.
func (r RefTime) Add(d time.Duration) RefTime {
	return NewRefTime(r.Time.Add(d))
}

// FromRefTime builds the ForecastTime h hours after ref.
func FromRefTime(ref RefTime, h uint16) ForecastTime {
	return ForecastTime{ref.Time.Add(time.Duration(h) * time.Hour)}
}

// FromNow returns how far in the future (or past) this ForecastTime is.
func (f ForecastTime) FromNow() time.Duration {
	return f.Time.Sub(time.Now())
}

// Stamp identifies a single forecast file: which cycle it came from and
// which instant within that cycle it predicts.
type Stamp struct {
	RefTime      RefTime
	ForecastTime ForecastTime
	// Wind carries the decoded payload once loaded; nil until then. Kept as
	// a pointer so a Stamp can travel through the inventory before (and
	// after) its grid has been materialized.
	Wind *wind.Wind
}

// NewStamp builds a Stamp with no payload attached.
func NewStamp(ref RefTime, forecast ForecastTime) Stamp {
	return Stamp{RefTime: ref, ForecastTime: forecast}
}

// FromHour builds a Stamp h hours after ref.
func FromHour(ref RefTime, h uint16) Stamp {
	return Stamp{RefTime: ref, ForecastTime: FromRefTime(ref, h)}
}

// ForecastHour is the whole-hour offset between RefTime and ForecastTime.
func (s Stamp) ForecastHour() uint16 {
	return uint16(s.ForecastTime.Sub(s.RefTime.Time).Hours())
}

// FromNow returns how far in the future this Stamp's forecast instant is.
func (s Stamp) FromNow() time.Duration {
	return s.ForecastTime.FromNow()
}

// FileName is the canonical storage key for this Stamp: "YYYYMMDDHH.fHHH".
func (s Stamp) FileName() string {
	return fmt.Sprintf("%s.f%03d", s.RefTime.Format("2006010215"), s.ForecastHour())
}

func (s Stamp) String() string {
	return fmt.Sprintf("%sZ+%03d", s.RefTime.Format("15"), s.ForecastHour())
}

// ParseFileName recovers a Stamp from a "YYYYMMDDHH.fHHH" file name.
func ParseFileName(name string) (Stamp, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return Stamp{}, errors.Errorf("wrong filename format %q", name)
	}

	date, hourPart := parts[0], parts[1]

	refTime, err := time.Parse("2006010215", date)
	if err != nil {
		return Stamp{}, errors.Wrapf(err, "parsing ref time in %q", name)
	}

	if len(hourPart) != 4 || hourPart[0] != 'f' {
		return Stamp{}, errors.Errorf("wrong filename format %q", name)
	}
	forecastHour, err := strconv.ParseUint(hourPart[1:], 10, 16)
	if err != nil {
		return Stamp{}, errors.Wrapf(err, "parsing forecast hour in %q", name)
	}

	ref := RefTime{refTime.UTC()}
	return FromHour(ref, uint16(forecastHour)), nil
}
