// Command ingest is the windcast service: it loads the provider
// configuration, runs each enabled provider's bootstrap load plus download/
// refresh loops, and serves the read-only HTTP API over the resulting
// inventory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo"

	"github.com/windcast/windcast/internal/config"
	"github.com/windcast/windcast/internal/httpapi"
	"github.com/windcast/windcast/internal/provider"
	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the windcast YAML configuration")
	addr := flag.String("addr", ":8080", "address to serve the HTTP API on")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		log.Fatalf("windcast: %v", err)
	}
}

func run(configPath, addr string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	cfg, err := config.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}

	ctx := context.Background()
	registry := httpapi.MapRegistry{}

	for _, p := range providers {
		if err := p.Load(ctx, true, false); err != nil {
			log.Printf("provider %s: bootstrap load failed: %v", p.Strategy.ID(), err)
		}
		go p.Start(ctx)
		go p.StartRefresh(ctx)
		registry[p.Strategy.ID()] = p
	}

	e := echo.New()
	httpapi.Register(e, registry)

	log.Printf("windcast serving %d provider(s) on %s", len(providers), addr)
	return e.Start(addr)
}

// buildProviders constructs one Provider engine per enabled config entry,
// seeded from its "init" RefTime when given, else the current cycle.
func buildProviders(cfg *config.Config) ([]*provider.Provider, error) {
	var providers []*provider.Provider

	if n := cfg.Providers.Noaa; n != nil && n.Enabled {
		store, err := buildStorage(n.Jsons)
		if err != nil {
			return nil, fmt.Errorf("noaa storage: %w", err)
		}
		providers = append(providers, provider.New(provider.NewNoaa(nil), store, initialRefTime(n.Init)))
	}

	if z := cfg.Providers.Zezo; z != nil && z.Enabled {
		store, err := buildStorage(z.Pngs)
		if err != nil {
			return nil, fmt.Errorf("zezo storage: %w", err)
		}
		providers = append(providers, provider.New(provider.NewZezo(nil), store, initialRefTime(z.Init)))
	}

	if mf := cfg.Providers.Meteofrance; mf != nil && mf.Enabled {
		if err := checkMeteofrance(mf.Token); err != nil {
			log.Printf("meteofrance provider configured but not usable: %v", err)
		}
	}

	return providers, nil
}

// checkMeteofrance exercises the Meteofrance stub strategy directly (it has
// no storage configuration to build a full Provider engine around), so an
// operator who enables it gets ErrNotImplemented in the log rather than
// silence.
func checkMeteofrance(token string) error {
	mf := &provider.Meteofrance{Token: token}
	_, _, err := mf.DownloadArtifact(context.Background(), stamp.Stamp{})
	return err
}

func initialRefTime(init *time.Time) stamp.RefTime {
	if init != nil {
		return stamp.NewRefTime(*init)
	}
	return stamp.CurrentCycle(time.Now())
}

func buildStorage(s config.Storage) (storage.Store, error) {
	switch s.Kind() {
	case config.StorageKindLocal:
		return storage.NewLocal(s.Dir)
	case config.StorageKindObject:
		return storage.NewObject(s.Endpoint, s.Region, s.Bucket, s.AccessKey, s.SecretKey, &http.Client{Timeout: 30 * time.Second}), nil
	default:
		return nil, fmt.Errorf("no storage configured")
	}
}
