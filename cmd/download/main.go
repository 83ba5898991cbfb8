// Command download runs, in parallel over a small worker pool, one check per
// enabled provider: the bootstrap load (which deletes stale stored files),
// then a fetch of the hour-0 artifact of the provider's starting RefTime.
// The fetched artifact is only checked for an HTTP 200 and then discarded:
// nothing is converted or saved to storage, and no other forecast hour is
// fetched.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/windcast/windcast/internal/config"
	"github.com/windcast/windcast/internal/provider"
	"github.com/windcast/windcast/internal/stamp"
	"github.com/windcast/windcast/internal/storage"
)

const maxParallel = 4

func main() {
	configPath := flag.String("config", "config.yaml", "path to the windcast YAML configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(configPath string) error {
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
	if len(providers) == 0 {
		return fmt.Errorf("no enabled providers in %s", configPath)
	}

	ctx := context.Background()
	jobs := make(chan *provider.Provider, len(providers))
	results := make(chan error, len(providers))

	var wg sync.WaitGroup
	for i := 0; i < maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results)
		}()
	}

	for _, p := range providers {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed int
	for err := range results {
		if err != nil {
			log.Printf("download failed: %v", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d provider(s) failed", failed)
	}
	log.Println("all providers downloaded")
	return nil
}

func worker(ctx context.Context, jobs <-chan *provider.Provider, results chan<- error) {
	for p := range jobs {
		results <- downloadOne(ctx, p)
	}
}

func downloadOne(ctx context.Context, p *provider.Provider) error {
	id := p.Strategy.ID()
	log.Printf("[%s] bootstrap loading...", id)
	if err := p.Load(ctx, true, false); err != nil {
		return fmt.Errorf("%s: bootstrap load: %w", id, err)
	}

	log.Printf("[%s] downloading current cycle...", id)
	tempPath, status, err := p.Strategy.DownloadArtifact(ctx, stamp.FromHour(p.Status.CurrentRefTime(), 0))
	if tempPath != "" {
		defer os.Remove(tempPath)
	}
	if err != nil {
		return fmt.Errorf("%s: download: %w", id, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: download: unexpected status %d", id, status)
	}
	return nil
}

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
