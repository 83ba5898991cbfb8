package provider

import (
	"strings"
	"testing"
	"time"

	"github.com/windcast/windcast/internal/stamp"
)

func TestNoaaDownloadURLSelectsUVAt10Meters(t *testing.T) {
	n := NewNoaa(nil)
	ref := stamp.NewRefTime(time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC))
	st := stamp.FromHour(ref, 24)

	url := n.downloadURL(st)
	for _, want := range []string{
		"dir=%2Fgfs.20260730%2F12%2Fatmos",
		"file=gfs.t12z.pgrb2.1p00.f024",
		"lev_10_m_above_ground=on",
		"var_UGRD=on",
		"var_VGRD=on",
	} {
		if !strings.Contains(url, want) {
			t.Errorf("downloadURL = %q, missing %q", url, want)
		}
	}
}
