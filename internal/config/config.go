// Package config defines the YAML-backed configuration shape: which
// providers are enabled and where each one's storage lives. Reading the
// file itself is a named external collaborator (spec.md §2/§6); this
// package only owns the struct tags and validation of the parsed result.
package config

import (
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level windcast configuration file.
type Config struct {
	Providers Providers `yaml:"providers"`
}

// Providers holds one entry per provider flavour this system knows about.
// Each is a pointer so "absent from YAML" and "present but disabled" are
// distinguishable.
type Providers struct {
	Noaa        *NoaaConfig        `yaml:"noaa"`
	Zezo        *ZezoConfig        `yaml:"zezo"`
	Meteofrance *MeteofranceConfig `yaml:"meteofrance"`
}

// NoaaConfig configures the NOAA GFS 1deg provider.
type NoaaConfig struct {
	Enabled bool       `yaml:"enabled"`
	Init    *time.Time `yaml:"init"`
	Jsons   Storage    `yaml:"jsons"`
}

// ZezoConfig configures the zezo.org PNG wind provider.
type ZezoConfig struct {
	Enabled bool       `yaml:"enabled"`
	Init    *time.Time `yaml:"init"`
	Pngs    Storage    `yaml:"pngs"`
}

// MeteofranceConfig is accepted but unimplemented, per spec.md §6: parsing
// succeeds so operators can stage the config ahead of support landing, but
// starting this provider fails fast with ErrNotImplemented.
type MeteofranceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// Storage is the YAML union for where a provider's artifacts live: a local
// directory, or a remote object bucket. Exactly one of the two shapes
// should be populated; Kind reports which.
type Storage struct {
	Dir string `yaml:"dir"`

	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// StorageKind distinguishes the two Storage shapes.
type StorageKind int

const (
	// StorageKindNone means the Storage block was never populated.
	StorageKindNone StorageKind = iota
	// StorageKindLocal is a local-directory store.
	StorageKindLocal
	// StorageKindObject is a remote object-bucket store.
	StorageKindObject
)

// Kind reports which concrete storage shape s describes.
func (s Storage) Kind() StorageKind {
	switch {
	case s.Dir != "":
		return StorageKindLocal
	case s.Endpoint != "" || s.Bucket != "":
		return StorageKindObject
	default:
		return StorageKindNone
	}
}

// Parse reads a YAML document into a Config and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects a config whose enabled providers have no usable storage.
func (c *Config) Validate() error {
	if n := c.Providers.Noaa; n != nil && n.Enabled && n.Jsons.Kind() == StorageKindNone {
		return errors.New("config: noaa provider enabled with no storage configured")
	}
	if z := c.Providers.Zezo; z != nil && z.Enabled && z.Pngs.Kind() == StorageKindNone {
		return errors.New("config: zezo provider enabled with no storage configured")
	}
	return nil
}
