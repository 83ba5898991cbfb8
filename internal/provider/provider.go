// Package provider implements the generic per-provider control loop: a
// capability-driven engine (bootstrap load, download, refresh, prune) that
// NOAA- and Zezo-flavoured Strategy implementations plug into.
package provider

import (
	"context"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/status"
	"github.com/windcast/windcast/internal/storage"
	"github.com/windcast/windcast/internal/wind"
)

const (
	downloadPeriod = 300 * time.Second
	refreshPeriod  = 10 * time.Second
	pruneAge       = -3 * time.Hour
	startHour      = 6
)

// Strategy is the per-provider-flavour capability set the engine drives:
// where to fetch an artifact, how to turn the raw download into something
// Storage can serve, and how to decode a stored artifact back into Wind.
// NOAA and Zezo each implement this once; the engine in this file is the
// only thing that calls it.
type Strategy interface {
	// ID is the short provider identifier used in the HTTP API and log lines.
	ID() string
	// Name is the human-readable provider name.
	Name() string
	// Step is the forecast-hour cadence this provider publishes at.
	Step() uint16
	// MaxForecastHour is the furthest forecast hour this provider publishes.
	MaxForecastHour() uint16

	// DownloadArtifact fetches st's raw artifact to a temporary file,
	// returning its path (regardless of outcome, so the engine can clean it
	// up), the upstream HTTP status, and any transport error.
	DownloadArtifact(ctx context.Context, st stamp.Stamp) (tempPath string, status int, err error)
	// OnFileDownloaded turns the raw download at tempPath into whatever
	// Storage should hold under st.FileName(), and saves it.
	OnFileDownloaded(ctx context.Context, store storage.Store, tempPath string, st stamp.Stamp) error
	// LoadStamp decodes st's stored artifact into a Wind grid.
	LoadStamp(ctx context.Context, store storage.Store, st stamp.Stamp) (*wind.Wind, error)
}

// Provider is the engine: one Strategy, its Storage, and its live Status.
type Provider struct {
	Strategy Strategy
	Store    storage.Store
	Status   *status.Status
}

// New creates a Provider servicing the given initial RefTime.
func New(strategy Strategy, store storage.Store, initial stamp.RefTime) *Provider {
	return &Provider{
		Strategy: strategy,
		Store:    store,
		Status:   status.New(strategy.ID(), strategy.Name(), initial, strategy.MaxForecastHour()),
	}
}

func sortByForecastThenRef(stamps []stamp.Stamp) {
	sort.Slice(stamps, func(i, j int) bool {
		if !stamps[i].ForecastTime.Equal(stamps[j].ForecastTime.Time) {
			return stamps[i].ForecastTime.Before(stamps[j].ForecastTime.Time)
		}
		return stamps[i].RefTime.Before(stamps[j].RefTime.Time)
	})
}

// Load performs the one-time bootstrap: list Storage, optionally dropping
// stamps a fresher successor has already overtaken, then register each
// survivor with the Status.
func (p *Provider) Load(ctx context.Context, del, load bool) error {
	stamps, err := p.Store.List(ctx)
	if err != nil {
		return err
	}
	sortByForecastThenRef(stamps)

	for i, st := range stamps {
		if del && i+1 < len(stamps) {
			next := stamps[i+1]
			if next.FromNow() < 0 {
				if err := p.Store.Remove(ctx, st.FileName()); err != nil {
					log.Printf("provider %s: bootstrap remove %s: %v", p.Strategy.ID(), st.FileName(), err)
				}
				continue
			}
		}
		p.onStampDownloaded(ctx, del, load, st)
	}
	return nil
}

// Start runs the download loop: every downloadPeriod, prune then download,
// until ctx is cancelled.
func (p *Provider) Start(ctx context.Context) {
	ticker := time.NewTicker(downloadPeriod)
	defer ticker.Stop()

	for {
		p.clean(ctx)
		if _, err := p.download(ctx); err != nil {
			log.Printf("provider %s: download: %v", p.Strategy.ID(), err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StartRefresh runs the refresh loop: every refreshPeriod, reconcile Status
// with Storage, until ctx is cancelled.
func (p *Provider) StartRefresh(ctx context.Context) {
	ticker := time.NewTicker(refreshPeriod)
	defer ticker.Stop()

	for {
		if err := p.refresh(ctx); err != nil {
			log.Printf("provider %s: refresh: %v", p.Strategy.ID(), err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Provider) download(ctx context.Context) (bool, error) {
	ref := stamp.CurrentCycle(time.Now())
	p.Status.SetCurrentRefTime(ref)
	return p.downloadAt(ctx, ref)
}

func (p *Provider) downloadAt(ctx context.Context, ref stamp.RefTime) (bool, error) {
	return p.downloadNext(ctx, ref, true)
}

type downloadResult int

const (
	downloadOK downloadResult = iota
	downloadNotFound
	downloadFailed
)

// downloadNext walks forecast hours startHour, startHour+step, ... up to
// MaxForecastHour for ref, downloading whichever aren't already in Storage.
// A 404 on the first hour of the first cycle this call chain has tried
// backs the cycle off by 6h and retries once; any other 404, or any other
// error, stops the walk early and keeps whatever was downloaded so far.
func (p *Provider) downloadNext(ctx context.Context, ref stamp.RefTime, first bool) (bool, error) {
	somethingNew := false
	step := p.Strategy.Step()
	maxH := p.Strategy.MaxForecastHour()

	for h := uint16(startHour); h <= maxH; h += step {
		ft := stamp.FromRefTime(ref, h)
		if ft.FromNow() <= -time.Duration(step)*time.Hour {
			continue
		}

		st := stamp.NewStamp(ref, ft)
		exists, err := p.Store.ExistsBlocking(st.FileName())
		if err != nil {
			log.Printf("provider %s: exists %s: %v", p.Strategy.ID(), st.FileName(), err)
		}
		if exists {
			first = false
			continue
		}

		switch p.downloadOne(ctx, st) {
		case downloadOK:
			p.onStampDownloaded(ctx, true, false, st)
			somethingNew = true
		case downloadNotFound:
			if first {
				return p.downloadNext(ctx, ref.Add(-6*time.Hour), false)
			}
			return somethingNew, nil
		case downloadFailed:
			return somethingNew, nil
		}
		first = false
	}

	return somethingNew, nil
}

// downloadOne fetches and converts/saves a single artifact, always cleaning
// up its temp file regardless of outcome.
func (p *Provider) downloadOne(ctx context.Context, st stamp.Stamp) downloadResult {
	tempPath, code, err := p.Strategy.DownloadArtifact(ctx, st)
	if tempPath != "" {
		defer os.Remove(tempPath)
	}
	if err != nil {
		log.Printf("provider %s: download %s: %v", p.Strategy.ID(), st.FileName(), err)
		return downloadFailed
	}

	switch code {
	case http.StatusOK:
		if err := p.Strategy.OnFileDownloaded(ctx, p.Store, tempPath, st); err != nil {
			log.Printf("provider %s: convert/save %s: %v", p.Strategy.ID(), st.FileName(), err)
			return downloadFailed
		}
		return downloadOK
	case http.StatusNotFound:
		return downloadNotFound
	default:
		log.Printf("provider %s: download %s: unexpected status %d", p.Strategy.ID(), st.FileName(), code)
		return downloadFailed
	}
}

// refresh reconciles the in-memory Status with what Storage actually holds:
// a bucket is dropped as soon as any one of its files has vanished, and any stamp in
// Storage not yet indexed (or a fresh cycle's analysis hour) is registered.
func (p *Provider) refresh(ctx context.Context) error {
	p.Status.Retain(func(_ stamp.ForecastTime, stamps []stamp.Stamp) bool {
		for _, st := range stamps {
			exists, err := p.Store.ExistsBlocking(st.FileName())
			if err != nil || !exists {
				return false
			}
		}
		return true
	}, func(stamp.Stamp) {})

	stamps, err := p.Store.List(ctx)
	if err != nil {
		return err
	}
	sortByForecastThenRef(stamps)

	for _, st := range stamps {
		if !p.Status.ContainsKey(st.ForecastTime) || st.ForecastHour() == 0 {
			p.onStampDownloaded(ctx, false, true, st)
		}
	}
	return nil
}

// clean prunes any forecast bucket whose forecast time is more than 3h in
// the past, deleting the underlying storage objects.
func (p *Provider) clean(ctx context.Context) {
	cutoff := time.Now().Add(pruneAge)
	p.Status.PruneOlderThan(cutoff, func(st stamp.Stamp) {
		if err := p.Store.Remove(ctx, st.FileName()); err != nil {
			log.Printf("provider %s: prune remove %s: %v", p.Strategy.ID(), st.FileName(), err)
		}
	})
}

// onStampDownloaded applies the merge rule, advances Status.last, optionally
// loads the Wind payload, and indexes st.
func (p *Provider) onStampDownloaded(ctx context.Context, del, load bool, st stamp.Stamp) {
	if del && p.Status.ContainsKey(st.ForecastTime) && st.ForecastHour() > 6 {
		p.Status.RemoveForecast(st.ForecastTime, func(old stamp.Stamp) {
			if err := p.Store.Remove(ctx, old.FileName()); err != nil {
				log.Printf("provider %s: remove superseded %s: %v", p.Strategy.ID(), old.FileName(), err)
			}
		})
	}

	p.Status.SetLast(st.RefTime, st.ForecastHour())

	if load {
		w, err := p.Strategy.LoadStamp(ctx, p.Store, st)
		if err != nil {
			log.Printf("provider %s: load %s: %v", p.Strategy.ID(), st.FileName(), err)
		} else {
			st.Wind = w
		}
	}

	p.Status.AddForecast(st)
}
