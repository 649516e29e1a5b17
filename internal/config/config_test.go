package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingConfigReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProjectRoot != dir {
		t.Errorf("ProjectRoot = %q, want %q", cfg.ProjectRoot, dir)
	}
	if cfg.Deps.ManifestPath != "package.json" {
		t.Errorf("ManifestPath = %q, want package.json", cfg.Deps.ManifestPath)
	}
	if cfg.Scan.IncludeTests {
		t.Error("IncludeTests should default to false")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.ProjectRoot = dir
	cfg.Scan.Depth = "deep"
	cfg.Deps.ManifestPath = "packages/app/package.json"
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Scan.Depth != "deep" {
		t.Errorf("Depth = %q, want deep", loaded.Scan.Depth)
	}
	if loaded.Deps.ManifestPath != "packages/app/package.json" {
		t.Errorf("ManifestPath = %q", loaded.Deps.ManifestPath)
	}
}

func TestLoadRejectsInvalidDepth(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"version": 1, "scan": {"depth": "bottomless"}}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load() should reject an invalid scan depth")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty depth", func(c *Config) { c.Scan.Depth = "" }, false},
		{"bad depth", func(c *Config) { c.Scan.Depth = "turbo" }, true},
		{"empty manifest", func(c *Config) { c.Deps.ManifestPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
