package gribjson

import (
	"context"
	"encoding/json"
	"testing"
)

func windHeader(paramNumber uint8) Header {
	return Header{
		Discipline:        0,
		ParameterCategory: 2,
		ParameterNumber:   paramNumber,
		Surface1Type:      103,
		Surface1Value:     10,
		NX:                2,
		NY:                2,
		La1:               -90,
		Lo1:               0,
		DX:                180,
		DY:                90,
	}
}

func TestBuildWindSelectsTenMeterUAndV(t *testing.T) {
	msgs := []Message{
		{Header: windHeader(parameterU), Data: []float64{1, 2, 3, 4}},
		{Header: windHeader(parameterV), Data: []float64{5, 6, 7, 8}},
		// a decoy message for a different surface, must be ignored.
		{Header: Header{Discipline: 0, ParameterCategory: 2, ParameterNumber: parameterU, Surface1Type: 1}, Data: []float64{9, 9, 9, 9}},
	}

	w, err := BuildWind(msgs)
	if err != nil {
		t.Fatal(err)
	}
	if w.NLat != 2 || w.NLon != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", w.NLat, w.NLon)
	}
	if w.U[0][0] != 1 || w.V[0][0] != 5 {
		t.Errorf("U[0][0]=%v V[0][0]=%v, want 1, 5", w.U[0][0], w.V[0][0])
	}
}

func TestBuildWindFailsWithoutBothComponents(t *testing.T) {
	msgs := []Message{{Header: windHeader(parameterU), Data: []float64{1, 2, 3, 4}}}
	if _, err := BuildWind(msgs); err == nil {
		t.Fatal("expected error when v component missing")
	}
}

func TestBuildWindFailsOnGridMismatch(t *testing.T) {
	u := windHeader(parameterU)
	v := windHeader(parameterV)
	v.NX = 3

	msgs := []Message{
		{Header: u, Data: []float64{1, 2, 3, 4}},
		{Header: v, Data: []float64{1, 2, 3, 4, 5, 6}},
	}
	if _, err := BuildWind(msgs); err == nil {
		t.Fatal("expected error on u/v grid layout mismatch")
	}
}

type fakeReader struct {
	blob []byte
	err  error
}

func (f fakeReader) Get(_ context.Context, _ string, v any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal(f.blob, v)
}

func TestLoadStampDecodesAndBuilds(t *testing.T) {
	msgs := []Message{
		{Header: windHeader(parameterU), Data: []float64{1, 2, 3, 4}},
		{Header: windHeader(parameterV), Data: []float64{5, 6, 7, 8}},
	}
	blob, err := json.Marshal(msgs)
	if err != nil {
		t.Fatal(err)
	}

	w, err := LoadStamp(context.Background(), fakeReader{blob: blob}, "2026073012.f006")
	if err != nil {
		t.Fatal(err)
	}
	if w.NLat != 2 {
		t.Errorf("NLat = %d, want 2", w.NLat)
	}
}
