package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppDirName is the directory under the user data dir holding settings,
	// the database, the log and the profile projections.
	AppDirName = "StardewModsManager"
	// FileName is the settings file written by `init`.
	FileName = "setting.toml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SMAPI_PROFILES"
)

// ErrFirstRun means neither a settings file nor an environment override was
// found. The user has to run `init` before anything else.
var ErrFirstRun = errors.New("no configuration found")

// Config holds the paths the tool works with.
// Values are loaded by Viper from setting.toml and/or environment variables.
type Config struct {
	ModsDir      string `mapstructure:"mods_folder_path" toml:"mods_folder_path"`
	SMAPIPath    string `mapstructure:"smapi_path" toml:"smapi_path"`
	ProfilesDir  string `mapstructure:"profiles_dir" toml:"profiles_dir,omitempty"`
	DatabasePath string `mapstructure:"database_path" toml:"database_path,omitempty"`
	LogPath      string `mapstructure:"log_path" toml:"log_path,omitempty"`
}

// DefaultDir is the settings directory used when none is given.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, AppDirName)
}

// Path returns the settings file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadConfig reads dir/setting.toml and applies SMAPI_PROFILES_* environment
// overrides, then fills defaults and validates the result.
func LoadConfig(dir string) (Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("setting")
	v.SetConfigType("toml")

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("fatal error config file: %w", err)
		}
		found = false
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"mods_folder_path": "MODS_DIR",
		"smapi_path":       "SMAPI_PATH",
		"profiles_dir":     "PROFILES_DIR",
		"database_path":    "DATABASE_PATH",
		"log_path":         "LOG_PATH",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+env); err != nil {
			return Config{}, fmt.Errorf("unable to bind %s_%s: %w", EnvPrefix, env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if !found && cfg.ModsDir == "" {
		return Config{}, ErrFirstRun
	}

	processConfigDefaults(&cfg, dir)
	if err := validateAndEnsureDirectories(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// processConfigDefaults derives every unset path from the settings dir.
func processConfigDefaults(cfg *Config, dir string) {
	if cfg.ProfilesDir == "" {
		cfg.ProfilesDir = filepath.Join(dir, "profiles")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(dir, "mod_manager.db")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(dir, "smapi-profiles.log")
	}
}

// validateAndEnsureDirectories checks the mods dir exists and creates the
// profiles dir. The SMAPI path is only checked by `launch`.
func validateAndEnsureDirectories(cfg *Config) error {
	if cfg.ModsDir == "" {
		return fmt.Errorf("mods_folder_path is required")
	}
	info, err := os.Stat(cfg.ModsDir)
	if err != nil {
		return fmt.Errorf("mods folder %q: %w", cfg.ModsDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mods folder %q is not a directory", cfg.ModsDir)
	}

	if cfg.ProfilesDir == "" {
		return fmt.Errorf("profiles_dir is required")
	}
	if err := os.MkdirAll(cfg.ProfilesDir, 0755); err != nil {
		return fmt.Errorf("failed to create profiles directory %q: %w", cfg.ProfilesDir, err)
	}
	return nil
}

// Save writes cfg to dir/setting.toml, creating dir if needed.
func Save(dir string, cfg Config) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Reset removes the settings file, returning the tool to its first-run
// state. The database and profile directories are kept.
func Reset(dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.Remove(Path(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove config: %w", err)
	}
	return nil
}
