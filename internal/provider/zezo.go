package provider

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

const (
	zezoStep            = 3
	zezoMaxForecastHour = 384
	zezoRequestTimeout  = 30 * time.Second
	zezoBaseURL         = "https://fr.zezo.org/windp"

	zezoRows = 180
	zezoCols = 360
)

// Zezo fetches wind grids PNG-encoded by fr.zezo.org: one byte per
// component, scaled per the vrSpeed formula (spec.md §4.9).
type Zezo struct {
	Client *http.Client
}

// NewZezo builds a Zezo strategy; client defaults to one with the 30s
// upstream request timeout spec.md requires.
func NewZezo(client *http.Client) *Zezo {
	if client == nil {
		client = &http.Client{Timeout: zezoRequestTimeout}
	}
	return &Zezo{Client: client}
}

func (z *Zezo) ID() string              { return "zezo" }
func (z *Zezo) Name() string            { return "zezo.org wind" }
func (z *Zezo) Step() uint16            { return zezoStep }
func (z *Zezo) MaxForecastHour() uint16 { return zezoMaxForecastHour }

func (z *Zezo) downloadURL(st stamp.Stamp) string {
	return fmt.Sprintf("%s/%s_%03d_%02d.png", zezoBaseURL,
		st.ForecastTime.Format("20060102"), st.ForecastTime.Hour(), st.RefTime.Hour())
}

func (z *Zezo) DownloadArtifact(ctx context.Context, st stamp.Stamp) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, z.downloadURL(st), nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "building request")
	}

	resp, err := z.Client.Do(req)
	if err != nil {
		return "", 0, errors.Wrap(err, "requesting artifact")
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "windcast-zezo-*.png")
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

// OnFileDownloaded skips conversion: the raw PNG is the storage artifact
// itself, decoded lazily by LoadStamp.
func (z *Zezo) OnFileDownloaded(ctx context.Context, store storage.Store, tempPath string, st stamp.Stamp) error {
	return store.Save(ctx, tempPath, st.FileName())
}

func (z *Zezo) LoadStamp(ctx context.Context, store storage.Store, st stamp.Stamp) (*wind.Wind, error) {
	rc, err := store.Open(ctx, st.FileName())
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", st.FileName())
	}
	defer rc.Close()

	img, err := png.Decode(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", st.FileName())
	}

	uData := make([]float64, 0, zezoRows*zezoCols)
	vData := make([]float64, 0, zezoRows*zezoCols)

	bounds := img.Bounds()
	for row := 0; row < zezoRows; row++ {
		y := bounds.Min.Y + row
		for col := 0; col < zezoCols; col++ {
			x := bounds.Min.X + col
			u8, v8 := pixelComponents(img, x, y)
			uData = append(uData, vrSpeed(u8))
			vData = append(vData, vrSpeed(v8))
		}
	}

	uGrid, err := wind.BuildGrid(uData, zezoRows, zezoCols)
	if err != nil {
		return nil, errors.Wrap(err, "building u grid")
	}
	vGrid, err := wind.BuildGrid(vData, zezoRows, zezoCols)
	if err != nil {
		return nil, errors.Wrap(err, "building v grid")
	}

	return &wind.Wind{
		Lat0:     -90,
		Lon0:     -180,
		DeltaLat: 1,
		DeltaLon: 1,
		NLat:     zezoRows,
		NLon:     zezoCols,
		U:        uGrid,
		V:        vGrid,
	}, nil
}

// pixelComponents reads the first two raw 8-bit samples of the pixel at
// (x, y): byte 0 carries u, byte 1 carries v.
func pixelComponents(img image.Image, x, y int) (uint8, uint8) {
	r, g, _, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8)
}

// vrSpeed decodes one zezo byte into m/s: values above 127 represent
// negative speeds, mirrored around 256; the squared magnitude is scaled by
// 3600/230400 and then divided by 1.852.
func vrSpeed(d uint8) float64 {
	const scale = 3600.0 / 230400.0
	if d > 127 {
		dp := float64(256 - int(d))
		return -(dp * dp) * scale / 1.852
	}
	v := float64(d)
	return (v * v) * scale / 1.852
}
