package provider

import (
	"context"
	"errors"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

// ErrNotImplemented is returned by every Meteofrance operation. spec.md §6
// documents the meteofrance config block as "accepted; unimplemented"; this
// type lets the config parse and the provider set construct cleanly while
// making clear, on first use, that it was never wired up - closer to the
// original's explicit todo!() than silently doing nothing.
var ErrNotImplemented = errors.New("meteofrance provider is not implemented")

// Meteofrance is a stub Strategy: it satisfies the interface so a
// meteofrance config block can be parsed and constructed, but every
// operation fails with ErrNotImplemented.
type Meteofrance struct {
	Token string
}

func (m *Meteofrance) ID() string              { return "meteofrance" }
func (m *Meteofrance) Name() string            { return "Meteofrance" }
func (m *Meteofrance) Step() uint16            { return 1 }
func (m *Meteofrance) MaxForecastHour() uint16 { return 0 }

func (m *Meteofrance) DownloadArtifact(context.Context, stamp.Stamp) (string, int, error) {
	return "", 0, ErrNotImplemented
}

func (m *Meteofrance) OnFileDownloaded(context.Context, storage.Store, string, stamp.Stamp) error {
	return ErrNotImplemented
}

func (m *Meteofrance) LoadStamp(context.Context, storage.Store, stamp.Stamp) (*wind.Wind, error) {
	return nil, ErrNotImplemented
}
