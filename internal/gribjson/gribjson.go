// Package gribjson reads the JSON message array the grib2json subprocess
// (or, eventually, the in-process GRIB2 decoder) writes to Storage, and
// turns it into a Wind grid.
package gribjson

import (
	"context"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/wind"
)

// Header mirrors the subset of grib2json's per-message header this system
// needs: discipline/parameter identity, the surface it was sampled at, and
// the grid layout.
type Header struct {
	Discipline        uint8   `json:"discipline"`
	ParameterCategory uint8   `json:"parameterCategory"`
	ParameterNumber   uint8   `json:"parameterNumber"`
	Surface1Type      uint8   `json:"surface1Type"`
	Surface1Value     float64 `json:"surface1Value"`
	NX                int     `json:"nx"`
	NY                int     `json:"ny"`
	La1               float64 `json:"la1"`
	Lo1               float64 `json:"lo1"`
	DX                float64 `json:"dx"`
	DY                float64 `json:"dy"`
}

// Message is one decoded grid-point message, as written by the external
// GRIB2-to-JSON converter.
type Message struct {
	Header Header    `json:"header"`
	Data   []float64 `json:"data"`
}

const (
	windDiscipline        = 0
	windParameterCategory = 2
	surfaceTenMetersType  = 103
	surfaceTenMeters      = 10

	parameterU = 2
	parameterV = 3
)

// isTenMeterWindMessage reports whether m carries 10m-above-ground u/v wind.
func isTenMeterWindMessage(h Header) bool {
	return h.Discipline == windDiscipline &&
		h.ParameterCategory == windParameterCategory &&
		h.Surface1Type == surfaceTenMetersType &&
		h.Surface1Value == surfaceTenMeters
}

// BuildWind assembles a Wind grid from the 10m wind messages in msgs,
// selecting only discipline 0 / category 2 / first-surface (103, 10)
// messages as spec.md §4.4 requires. It fails if either component (u or v)
// is missing, or if the two components disagree on grid layout.
func BuildWind(msgs []Message) (*wind.Wind, error) {
	var uHeader, vHeader *Header
	var uData, vData []float64

	for i := range msgs {
		m := &msgs[i]
		if !isTenMeterWindMessage(m.Header) {
			continue
		}
		switch m.Header.ParameterNumber {
		case parameterU:
			uHeader, uData = &m.Header, m.Data
		case parameterV:
			vHeader, vData = &m.Header, m.Data
		}
	}

	if uHeader == nil || vHeader == nil {
		return nil, errors.New("error loading wind from messages")
	}
	if uHeader.La1 != vHeader.La1 || uHeader.Lo1 != vHeader.Lo1 ||
		uHeader.DY != vHeader.DY || uHeader.DX != vHeader.DX ||
		uHeader.NY != vHeader.NY || uHeader.NX != vHeader.NX {
		return nil, errors.New("error loading wind from messages: u/v grid layout mismatch")
	}

	uGrid, err := wind.BuildGrid(uData, uHeader.NY, uHeader.NX)
	if err != nil {
		return nil, errors.Wrap(err, "building u grid")
	}
	vGrid, err := wind.BuildGrid(vData, vHeader.NY, vHeader.NX)
	if err != nil {
		return nil, errors.Wrap(err, "building v grid")
	}

	return &wind.Wind{
		Lat0:     uHeader.La1,
		Lon0:     uHeader.Lo1,
		DeltaLat: uHeader.DY,
		DeltaLon: uHeader.DX,
		NLat:     uHeader.NY,
		NLon:     uHeader.NX,
		U:        uGrid,
		V:        vGrid,
	}, nil
}

// reader is the subset of storage.Store LoadStamp needs: just Get.
type reader interface {
	Get(ctx context.Context, name string, v any) error
}

// LoadStamp reads name's JSON message array out of store and builds the
// Wind it describes.
func LoadStamp(ctx context.Context, store reader, name string) (*wind.Wind, error) {
	var msgs []Message
	if err := store.Get(ctx, name, &msgs); err != nil {
		return nil, errors.Wrapf(err, "loading %q", name)
	}
	return BuildWind(msgs)
}
