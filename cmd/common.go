package cmd

import (
	"errors"
	"fmt"
	"io"

	"smapi-profiles/config"
	"smapi-profiles/db"
	"smapi-profiles/launcher"
	"smapi-profiles/logger"
	"smapi-profiles/manager"
	"smapi-profiles/mods"
	"smapi-profiles/projection"
	"smapi-profiles/scanner"
	"smapi-profiles/ui"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// app bundles what a command needs for one run.
type app struct {
	cfg   config.Config
	store *db.Store
	mgr   *manager.Manager
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Log.Warnw("Failed to close database", zap.Error(err))
	}
}

// bootstrap handles shared initialization logic for commands.
func bootstrap() (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if errors.Is(err, config.ErrFirstRun) {
		return nil, fmt.Errorf("%w: run `smapi-profiles init --mods-dir <Mods folder>` first", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.InitLogger(cfg.LogPath); err != nil {
		return nil, err
	}

	store, err := db.Open(cfg.DatabasePath, logger.Log)
	if err != nil {
		logger.Log.Errorw("Failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
		return nil, err
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	fsys := afero.NewOsFs()
	proj, err := projection.New(fsys, cfg.ProfilesDir, logger.Log)
	if err != nil {
		_ = store.Close()
		logger.Log.Errorw("Projection root unusable", zap.String("path", cfg.ProfilesDir), zap.Error(err))
		return nil, err
	}

	mgr := manager.New(store, proj, scanner.New(fsys, cfg.ModsDir, logger.Log),
		manager.WithLogger(logger.Log),
		manager.WithLauncher(launcher.NewExec(cfg.SMAPIPath, logger.Log)),
	)
	return &app{cfg: cfg, store: store, mgr: mgr}, nil
}

// settle turns projection warnings into printed notes. Store-level errors
// are returned unchanged.
func settle(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if !manager.IsWarning(err) {
		return err
	}
	for _, warning := range manager.Warnings(err) {
		fmt.Fprintln(w, ui.Warning.Render("warning: "+warning.Error()))
		if errors.Is(warning, mods.ErrInsufficientPrivilege) {
			fmt.Fprintln(w, ui.Muted.Render("  creating links needs administrator rights or Developer Mode on Windows"))
		}
	}
	fmt.Fprintln(w, ui.Muted.Render("  the change was saved; run `smapi-profiles sync` to repair the profile folders"))
	return nil
}
