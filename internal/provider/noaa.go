package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/gribjson"
	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

const (
	noaaStep             = 3
	noaaMaxForecastHour  = 384
	noaaRequestTimeout   = 30 * time.Second
	noaaBaseURL          = "https://nomads.ncep.noaa.gov/cgi-bin/filter_gfs_1p00.pl"
	grib2jsonSubprocess  = "grib2json"
)

// Noaa fetches NOAA GFS 1° GRIB2 artifacts from NOMADS and converts them to
// the JSON message schema via the external grib2json subprocess (spec.md
// §4.9, §4.6 on_file_downloaded for GRIB-based providers).
type Noaa struct {
	Client *http.Client
}

// NewNoaa builds a Noaa strategy; client defaults to one with the 30s
// upstream request timeout spec.md requires.
func NewNoaa(client *http.Client) *Noaa {
	if client == nil {
		client = &http.Client{Timeout: noaaRequestTimeout}
	}
	return &Noaa{Client: client}
}

func (n *Noaa) ID() string              { return "noaa" }
func (n *Noaa) Name() string            { return "NOAA GFS 1°" }
func (n *Noaa) Step() uint16            { return noaaStep }
func (n *Noaa) MaxForecastHour() uint16 { return noaaMaxForecastHour }

func (n *Noaa) downloadURL(st stamp.Stamp) string {
	q := url.Values{}
	q.Set("dir", fmt.Sprintf("/gfs.%s/%s/atmos", st.RefTime.Format("20060102"), st.RefTime.Format("15")))
	q.Set("file", fmt.Sprintf("gfs.t%sz.pgrb2.1p00.f%03d", st.RefTime.Format("15"), st.ForecastHour()))
	q.Set("lev_10_m_above_ground", "on")
	q.Set("var_UGRD", "on")
	q.Set("var_VGRD", "on")
	q.Set("leftlon", "0")
	q.Set("rightlon", "360")
	q.Set("toplat", "90")
	q.Set("bottomlat", "-90")
	return noaaBaseURL + "?" + q.Encode()
}

func (n *Noaa) DownloadArtifact(ctx context.Context, st stamp.Stamp) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.downloadURL(st), nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "building request")
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return "", 0, errors.Wrap(err, "requesting artifact")
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "windcast-noaa-*.grib2")
	if err != nil {
		return "", resp.StatusCode, errors.Wrap(err, "creating temp file")
	}
	defer tmp.Close()

	if resp.StatusCode == http.StatusOK {
		if _, err := io.Copy(tmp, resp.Body); err != nil {
			return tmp.Name(), resp.StatusCode, errors.Wrap(err, "downloading artifact")
		}
	}

	return tmp.Name(), resp.StatusCode, nil
}

// OnFileDownloaded shells out to grib2json to turn the raw GRIB2 download
// into the JSON message schema gribjson.LoadStamp reads back, then saves it.
func (n *Noaa) OnFileDownloaded(ctx context.Context, store storage.Store, tempPath string, st stamp.Stamp) error {
	out, err := os.CreateTemp("", "windcast-noaa-*.json")
	if err != nil {
		return errors.Wrap(err, "creating conversion output file")
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, grib2jsonSubprocess,
		"--data", "--names", "--fs", "103", "--fv", "10", "--compact",
		"--output", outPath, tempPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "grib2json exited with error: %s", output)
	}

	return store.Save(ctx, outPath, st.FileName())
}

func (n *Noaa) LoadStamp(ctx context.Context, store storage.Store, st stamp.Stamp) (*wind.Wind, error) {
	return gribjson.LoadStamp(ctx, store, st.FileName())
}
