// Package manager is the single writer of both the store and the profile
// projection. Each operation commits to the store first and then updates the
// filesystem; a filesystem failure never rolls back the store and is
// returned as a *mods.ProjectionWarning instead.
//
// A Manager is not safe for concurrent use. Callers serialize mutating calls.
package manager

import (
	"context"
	"errors"
	"sort"

	"smapi-profiles/logger"
	"smapi-profiles/mods"
	"smapi-profiles/projection"
	"smapi-profiles/scanner"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoLauncher is returned by Launch when no launcher was configured.
var ErrNoLauncher = errors.New("no launcher configured")

// Store is the durable side of the manager.
type Store interface {
	UpsertMods(ctx context.Context, records []mods.Mod) error
	GetMod(ctx context.Context, uniqueID string) (mods.Mod, error)
	DeleteMod(ctx context.Context, uniqueID string) error
	ListMods(ctx context.Context) ([]mods.Mod, error)
	CreateProfile(ctx context.Context, name, description string) (mods.Profile, error)
	GetProfile(ctx context.Context, name string) (mods.Profile, error)
	DeleteProfile(ctx context.Context, name string) (int64, error)
	ListProfiles(ctx context.Context) ([]mods.Profile, error)
	AddMembership(ctx context.Context, profile string, modIDs []string) error
	RemoveMembership(ctx context.Context, profile, modID string) error
	MembersOf(ctx context.Context, profile string) ([]mods.Mod, error)
}

// Projection is the filesystem side of the manager.
type Projection interface {
	ProfileDir(name string) (string, error)
	EnsureProfileDir(name string) error
	ProjectMembers(name string, members []mods.Mod) error
	RemoveMember(name, linkName string) error
	RemoveProfile(name string) error
	ListProfileDirs() ([]string, error)
	ListEntries(name string) ([]projection.Entry, error)
	RepairLink(name string, m mods.Mod) error
}

// Scanner discovers mods on disk.
type Scanner interface {
	Discover() (scanner.Result, error)
}

// Launcher starts the game with modsRoot as its mods directory.
type Launcher interface {
	Launch(ctx context.Context, modsRoot string) error
}

// Manager composes the scanner, the store and the projector.
type Manager struct {
	store    Store
	proj     Projection
	scan     Scanner
	launcher Launcher
	log      *zap.SugaredLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for drift and warning reports.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithLauncher sets the collaborator used by Launch.
func WithLauncher(l Launcher) Option {
	return func(m *Manager) { m.launcher = l }
}

// New builds a Manager. It takes exclusive ownership of store and proj.
func New(store Store, proj Projection, scan Scanner, opts ...Option) *Manager {
	m := &Manager{store: store, proj: proj, scan: scan}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logger.Or(m.log)
	return m
}

// ScanReport describes one registration pass.
type ScanReport struct {
	Registered []mods.Mod
	Skipped    []*mods.ScanError
}

// RegisterMods scans the mods root and upserts everything it finds.
func (m *Manager) RegisterMods(ctx context.Context) (ScanReport, error) {
	res, err := m.scan.Discover()
	if err != nil {
		return ScanReport{}, err
	}

	records := make([]mods.Mod, 0, len(res.Mods))
	for _, r := range res.Mods {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UniqueID < records[j].UniqueID })

	if err := m.store.UpsertMods(ctx, records); err != nil {
		return ScanReport{}, err
	}
	return ScanReport{Registered: records, Skipped: res.Skipped}, nil
}

// DeleteMod forgets a mod and removes its link from every profile directory
// on disk, including directories the store no longer knows about. The mod's
// own directory is left alone.
func (m *Manager) DeleteMod(ctx context.Context, uniqueID string) error {
	mod, err := m.store.GetMod(ctx, uniqueID)
	if err != nil {
		return err
	}
	if err := m.store.DeleteMod(ctx, uniqueID); err != nil {
		return err
	}

	dirs, err := m.proj.ListProfileDirs()
	if err != nil {
		return m.warn("list profiles", "", "", err)
	}

	var warnings error
	for _, dir := range dirs {
		err := m.proj.RemoveMember(dir, mod.Folder)
		if errors.Is(err, mods.ErrNotFound) {
			continue
		}
		if err != nil {
			warnings = multierr.Append(warnings, m.warn("unlink", dir, mod.Folder, err))
		}
	}

	m.log.Infow("Mod deleted", zap.String("unique_id", uniqueID), zap.String("folder", mod.Folder))
	return warnings
}

// CreateProfile records an empty profile and creates its directory.
func (m *Manager) CreateProfile(ctx context.Context, name, description string) (mods.Profile, error) {
	if err := projection.ValidateName(name); err != nil {
		return mods.Profile{}, err
	}
	p, err := m.store.CreateProfile(ctx, name, description)
	if err != nil {
		return mods.Profile{}, err
	}
	if err := m.proj.EnsureProfileDir(name); err != nil {
		return p, m.warn("mkdir", name, "", err)
	}
	return p, nil
}

// DeleteProfile removes a profile from the store and then its directory. The
// store deletion stands even if the directory cannot be removed. It returns
// the number of profiles left.
func (m *Manager) DeleteProfile(ctx context.Context, name string) (int64, error) {
	remaining, err := m.store.DeleteProfile(ctx, name)
	if err != nil {
		return 0, err
	}

	err = m.proj.RemoveProfile(name)
	switch {
	case errors.Is(err, mods.ErrNotFound):
		m.log.Warnw("Profile directory already absent",
			zap.String("profile", name),
			zap.Error(mods.ErrFilesystemDrift),
		)
	case err != nil:
		return remaining, m.warn("rmdir", name, "", err)
	}

	m.log.Infow("Profile deleted", zap.String("profile", name), zap.Int64("remaining", remaining))
	return remaining, nil
}

// AddModsToProfile records the memberships and links each mod into the
// profile directory.
func (m *Manager) AddModsToProfile(ctx context.Context, profile string, modIDs []string) error {
	if err := m.store.AddMembership(ctx, profile, modIDs); err != nil {
		return err
	}

	members, err := m.store.MembersOf(ctx, profile)
	if err != nil {
		return err
	}
	wanted := make(map[string]struct{}, len(modIDs))
	for _, id := range modIDs {
		wanted[id] = struct{}{}
	}
	var added []mods.Mod
	for _, mod := range members {
		if _, ok := wanted[mod.UniqueID]; ok {
			added = append(added, mod)
		}
	}

	var warnings error
	for _, err := range multierr.Errors(m.proj.ProjectMembers(profile, added)) {
		warnings = multierr.Append(warnings, m.warn("link", profile, "", err))
	}
	return warnings
}

// RemoveModFromProfile drops one membership and its link. The link is found
// by the mod's folder name as recorded in the store.
func (m *Manager) RemoveModFromProfile(ctx context.Context, profile, uniqueID string) error {
	if _, err := m.store.GetProfile(ctx, profile); err != nil {
		return err
	}
	mod, err := m.store.GetMod(ctx, uniqueID)
	if err != nil {
		return err
	}
	if err := m.store.RemoveMembership(ctx, profile, uniqueID); err != nil {
		return err
	}

	err = m.proj.RemoveMember(profile, mod.Folder)
	switch {
	case errors.Is(err, mods.ErrNotFound):
		m.log.Warnw("Link already absent",
			zap.String("profile", profile),
			zap.String("link", mod.Folder),
			zap.Error(mods.ErrFilesystemDrift),
		)
	case err != nil:
		return m.warn("unlink", profile, mod.Folder, err)
	}
	return nil
}

// ListMods returns every registered mod.
func (m *Manager) ListMods(ctx context.Context) ([]mods.Mod, error) {
	return m.store.ListMods(ctx)
}

// ListProfiles returns every profile.
func (m *Manager) ListProfiles(ctx context.Context) ([]mods.Profile, error) {
	return m.store.ListProfiles(ctx)
}

// MembersOf returns the mods of a profile.
func (m *Manager) MembersOf(ctx context.Context, profile string) ([]mods.Mod, error) {
	return m.store.MembersOf(ctx, profile)
}

// ProfileDir returns the directory the game is pointed at for a profile.
func (m *Manager) ProfileDir(profile string) (string, error) {
	return m.proj.ProfileDir(profile)
}

// Launch starts the game against a profile's directory.
func (m *Manager) Launch(ctx context.Context, profile string) error {
	if m.launcher == nil {
		return ErrNoLauncher
	}
	if _, err := m.store.GetProfile(ctx, profile); err != nil {
		return err
	}
	if err := m.proj.EnsureProfileDir(profile); err != nil {
		return err
	}
	dir, err := m.proj.ProfileDir(profile)
	if err != nil {
		return err
	}
	m.log.Infow("Launching profile", zap.String("profile", profile), zap.String("mods_path", dir))
	return m.launcher.Launch(ctx, dir)
}

func (m *Manager) warn(op, profile, name string, err error) error {
	w := &mods.ProjectionWarning{Op: op, Profile: profile, Name: name, Err: err}
	m.log.Warnw("Projection out of sync with store",
		zap.String("op", op),
		zap.String("profile", profile),
		zap.String("name", name),
		zap.Error(err),
	)
	return w
}

// IsWarning reports whether err carries only projection warnings, meaning
// every store mutation it refers to was committed.
func IsWarning(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range multierr.Errors(err) {
		var w *mods.ProjectionWarning
		if !errors.As(e, &w) {
			return false
		}
	}
	return true
}

// Warnings returns the projection warnings carried by err.
func Warnings(err error) []*mods.ProjectionWarning {
	var out []*mods.ProjectionWarning
	for _, e := range multierr.Errors(err) {
		var w *mods.ProjectionWarning
		if errors.As(e, &w) {
			out = append(out, w)
		}
	}
	return out
}
