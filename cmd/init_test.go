package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitConfigResolvesPaths(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := initConfig("Mods", filepath.Join("bin", "StardewModdingAPI"), "profiles")
	if err != nil {
		t.Fatalf("initConfig failed: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"ModsDir", cfg.ModsDir, filepath.Join(wd, "Mods")},
		{"SMAPIPath", cfg.SMAPIPath, filepath.Join(wd, "bin", "StardewModdingAPI")},
		{"ProfilesDir", cfg.ProfilesDir, filepath.Join(wd, "profiles")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestInitConfigKeepsEmptyPaths(t *testing.T) {
	cfg, err := initConfig("Mods", "", "")
	if err != nil {
		t.Fatalf("initConfig failed: %v", err)
	}
	if cfg.SMAPIPath != "" || cfg.ProfilesDir != "" {
		t.Errorf("Empty paths should stay empty for defaults, got %+v", cfg)
	}
	if !filepath.IsAbs(cfg.ModsDir) {
		t.Errorf("ModsDir should be absolute, got %q", cfg.ModsDir)
	}
}
