package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestProcessConfigDefaults(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		cfg := Config{ModsDir: "/mods"}
		processConfigDefaults(&cfg, "/data")

		if cfg.ProfilesDir != filepath.Join("/data", "profiles") {
			t.Errorf("Expected ProfilesDir under settings dir, got %s", cfg.ProfilesDir)
		}
		if cfg.DatabasePath != filepath.Join("/data", "mod_manager.db") {
			t.Errorf("Expected DatabasePath under settings dir, got %s", cfg.DatabasePath)
		}
		if cfg.LogPath == "" {
			t.Error("Expected LogPath to have a default value")
		}
	})

	t.Run("respects existing values", func(t *testing.T) {
		cfg := Config{
			ProfilesDir:  "/elsewhere/profiles",
			DatabasePath: "/elsewhere/db.sqlite",
			LogPath:      "/elsewhere/log.txt",
		}
		processConfigDefaults(&cfg, "/data")

		if cfg.ProfilesDir != "/elsewhere/profiles" {
			t.Errorf("Expected ProfilesDir to stay, got %s", cfg.ProfilesDir)
		}
		if cfg.DatabasePath != "/elsewhere/db.sqlite" {
			t.Errorf("Expected DatabasePath to stay, got %s", cfg.DatabasePath)
		}
		if cfg.LogPath != "/elsewhere/log.txt" {
			t.Errorf("Expected LogPath to stay, got %s", cfg.LogPath)
		}
	})
}

func TestValidateAndEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing mods dir", func(t *testing.T) {
		cfg := Config{ModsDir: ""}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for missing ModsDir")
		}
	})

	t.Run("nonexistent mods dir", func(t *testing.T) {
		cfg := Config{ModsDir: filepath.Join(tmpDir, "nope"), ProfilesDir: filepath.Join(tmpDir, "p")}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for nonexistent ModsDir")
		}
	})

	t.Run("creates profiles dir", func(t *testing.T) {
		modsDir := filepath.Join(tmpDir, "Mods")
		if err := os.MkdirAll(modsDir, 0755); err != nil {
			t.Fatal(err)
		}
		cfg := Config{ModsDir: modsDir, ProfilesDir: filepath.Join(tmpDir, "data", "profiles")}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := os.Stat(cfg.ProfilesDir); os.IsNotExist(err) {
			t.Error("Profiles directory was not created")
		}
	})
}

func TestLoadConfigFirstRun(t *testing.T) {
	t.Setenv(EnvPrefix+"_MODS_DIR", "")
	_, err := LoadConfig(t.TempDir())
	if !errors.Is(err, ErrFirstRun) {
		t.Errorf("Expected ErrFirstRun, got %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	modsDir := filepath.Join(dir, "Mods")
	if err := os.MkdirAll(modsDir, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPrefix+"_MODS_DIR", "")

	want := Config{ModsDir: modsDir, SMAPIPath: filepath.Join(dir, "StardewModdingAPI.exe")}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.ModsDir != want.ModsDir || got.SMAPIPath != want.SMAPIPath {
		t.Errorf("LoadConfig = %+v, want paths from %+v", got, want)
	}
	if got.ProfilesDir != filepath.Join(dir, "profiles") {
		t.Errorf("ProfilesDir = %s, want default under %s", got.ProfilesDir, dir)
	}

	if err := Reset(dir); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := LoadConfig(dir); !errors.Is(err, ErrFirstRun) {
		t.Errorf("Expected ErrFirstRun after Reset, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	modsDir := filepath.Join(dir, "EnvMods")
	if err := os.MkdirAll(modsDir, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPrefix+"_MODS_DIR", modsDir)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ModsDir != modsDir {
		t.Errorf("ModsDir = %s, want %s", cfg.ModsDir, modsDir)
	}
}
