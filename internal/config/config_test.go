package config

import "testing"

func TestParseValidConfig(t *testing.T) {
	data := []byte(`
providers:
  noaa:
    enabled: true
    jsons:
      dir: /var/lib/windcast/noaa
  zezo:
    enabled: false
    pngs:
      dir: /var/lib/windcast/zezo
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Noaa == nil || !cfg.Providers.Noaa.Enabled {
		t.Fatal("expected noaa enabled")
	}
	if got := cfg.Providers.Noaa.Jsons.Kind(); got != StorageKindLocal {
		t.Errorf("noaa storage kind = %v, want StorageKindLocal", got)
	}
	if cfg.Providers.Zezo == nil || cfg.Providers.Zezo.Enabled {
		t.Fatal("expected zezo present but disabled")
	}
}

func TestParseRejectsEnabledProviderWithoutStorage(t *testing.T) {
	data := []byte(`
providers:
  noaa:
    enabled: true
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected validation error for missing storage")
	}
}

func TestStorageKindDetectsObjectShape(t *testing.T) {
	s := Storage{Endpoint: "https://s3.example.com", Bucket: "windcast"}
	if got := s.Kind(); got != StorageKindObject {
		t.Errorf("Kind() = %v, want StorageKindObject", got)
	}
}

func TestStorageKindNoneWhenEmpty(t *testing.T) {
	var s Storage
	if got := s.Kind(); got != StorageKindNone {
		t.Errorf("Kind() = %v, want StorageKindNone", got)
	}
}
