// Package wind holds the decoded lat/lon grid of u/v wind components used
// to answer a single forecast instant.
package wind

import "github.com/pkg/errors"

// Wind is one decoded u/v grid: the lower-left corner, the per-cell step,
// and row-major u/v values. The grid is continuous in longitude: NLon is the
// number of source columns and each row has NLon+1 entries, with the last
// duplicating the first so a
// client can interpolate across the antimeridian without special-casing it.
type Wind struct {
	Lat0, Lon0         float64
	DeltaLat, DeltaLon float64
	NLat, NLon         int
	U, V               [][]float64
}

// BuildGrid reshapes a row-major flat array of nLat*nLon samples into a
// [][]float64 grid, appending a wrapped copy of each row's first value so
// longitude 360 reads the same as longitude 0.
func BuildGrid(data []float64, nLat, nLon int) ([][]float64, error) {
	if len(data) != nLat*nLon {
		return nil, errors.Errorf("building grid: expected %d values, got %d", nLat*nLon, len(data))
	}

	grid := make([][]float64, nLat)

	p := 0
	for j := 0; j < nLat; j++ {
		row := make([]float64, nLon+1)
		for i := 0; i < nLon; i++ {
			row[i] = data[p]
			p++
		}
		row[nLon] = row[0]
		grid[j] = row
	}

	return grid, nil
}
