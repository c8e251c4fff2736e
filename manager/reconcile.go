package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"smapi-profiles/mods"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ReconcileOptions controls a reconcile pass.
type ReconcileOptions struct {
	// Profile limits the pass to one profile. Empty means all of them.
	Profile string
	// PruneStray removes profile directories that have no store record.
	PruneStray bool
}

// LinkChange names one entry touched or inspected by a reconcile pass.
type LinkChange struct {
	Profile string
	Name    string
}

func (c LinkChange) String() string {
	return fmt.Sprintf("%s/%s", c.Profile, c.Name)
}

// Report summarizes a reconcile pass.
type Report struct {
	Created  []LinkChange
	Removed  []LinkChange
	Repaired []LinkChange
	Foreign  []LinkChange // non-link entries left in place
	Stray    []string     // profile dirs without a store record
	Pruned   []string
}

// Changed reports whether the pass modified the filesystem.
func (r Report) Changed() bool {
	return len(r.Created)+len(r.Removed)+len(r.Repaired)+len(r.Pruned) > 0
}

// Reconcile brings profile directories in line with the store, which is
// treated as the source of truth: missing links are created, orphan links
// removed and links with the wrong target re-pointed. Entries that are not
// links are never deleted.
//
// Store errors abort the pass. Filesystem failures are collected as
// warnings and the pass continues with the next entry.
func (m *Manager) Reconcile(ctx context.Context, opts ReconcileOptions) (Report, error) {
	var profiles []mods.Profile
	if opts.Profile != "" {
		p, err := m.store.GetProfile(ctx, opts.Profile)
		if err != nil {
			return Report{}, err
		}
		profiles = []mods.Profile{p}
	} else {
		all, err := m.store.ListProfiles(ctx)
		if err != nil {
			return Report{}, err
		}
		profiles = all
	}

	var (
		report   Report
		warnings error
	)
	for _, p := range profiles {
		members, err := m.store.MembersOf(ctx, p.Name)
		if err != nil {
			return report, err
		}
		warnings = multierr.Append(warnings, m.reconcileProfile(p.Name, members, &report))
	}

	if opts.Profile == "" {
		warnings = multierr.Append(warnings, m.reconcileStray(profiles, opts.PruneStray, &report))
	}

	m.log.Infow("Reconcile finished",
		zap.Int("created", len(report.Created)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("repaired", len(report.Repaired)),
		zap.Int("foreign", len(report.Foreign)),
		zap.Int("stray", len(report.Stray)),
		zap.Int("pruned", len(report.Pruned)),
	)
	return report, warnings
}

func (m *Manager) reconcileProfile(profile string, members []mods.Mod, report *Report) error {
	if err := m.proj.EnsureProfileDir(profile); err != nil {
		return m.warn("mkdir", profile, "", err)
	}
	entries, err := m.proj.ListEntries(profile)
	if err != nil {
		return m.warn("list", profile, "", err)
	}

	expected := make(map[string]mods.Mod, len(members))
	for _, mod := range members {
		if prev, clash := expected[mod.Folder]; clash {
			m.log.Warnw("Two members share a folder name; only one can be linked",
				zap.String("profile", profile),
				zap.String("folder", mod.Folder),
				zap.String("kept", prev.UniqueID),
				zap.String("dropped", mod.UniqueID),
			)
			continue
		}
		expected[mod.Folder] = mod
	}

	var warnings error
	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		present[e.Name] = struct{}{}
		change := LinkChange{Profile: profile, Name: e.Name}
		mod, wanted := expected[e.Name]

		switch {
		case !e.IsLink:
			report.Foreign = append(report.Foreign, change)
			m.log.Warnw("Non-link entry in profile directory",
				zap.String("profile", profile),
				zap.String("name", e.Name),
				zap.Error(mods.ErrFilesystemDrift),
			)
		case !wanted:
			if err := m.proj.RemoveMember(profile, e.Name); err != nil && !errors.Is(err, mods.ErrNotFound) {
				warnings = multierr.Append(warnings, m.warn("unlink", profile, e.Name, err))
				continue
			}
			report.Removed = append(report.Removed, change)
		case filepath.Clean(e.Target) != filepath.Clean(mod.Path):
			if err := m.proj.RepairLink(profile, mod); err != nil {
				warnings = multierr.Append(warnings, m.warn("relink", profile, e.Name, err))
				continue
			}
			report.Repaired = append(report.Repaired, change)
		}
	}

	folders := make([]string, 0, len(expected))
	for folder := range expected {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	for _, folder := range folders {
		if _, ok := present[folder]; ok {
			continue
		}
		mod := expected[folder]
		if err := m.proj.ProjectMembers(profile, []mods.Mod{mod}); err != nil {
			warnings = multierr.Append(warnings, m.warn("link", profile, folder, err))
			continue
		}
		report.Created = append(report.Created, LinkChange{Profile: profile, Name: folder})
	}
	return warnings
}

func (m *Manager) reconcileStray(profiles []mods.Profile, prune bool, report *Report) error {
	known := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		known[p.Name] = struct{}{}
	}

	dirs, err := m.proj.ListProfileDirs()
	if err != nil {
		return m.warn("list profiles", "", "", err)
	}

	var warnings error
	for _, dir := range dirs {
		if _, ok := known[dir]; ok {
			continue
		}
		if !prune || !m.onlyLinks(dir) {
			report.Stray = append(report.Stray, dir)
			m.log.Warnw("Profile directory without store record",
				zap.String("profile", dir),
				zap.Error(mods.ErrFilesystemDrift),
			)
			continue
		}
		if err := m.proj.RemoveProfile(dir); err != nil {
			warnings = multierr.Append(warnings, m.warn("rmdir", dir, "", err))
			continue
		}
		report.Pruned = append(report.Pruned, dir)
	}
	return warnings
}

// onlyLinks reports whether a profile directory holds nothing but links, so
// removing it cannot lose data.
func (m *Manager) onlyLinks(profile string) bool {
	entries, err := m.proj.ListEntries(profile)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsLink {
			return false
		}
	}
	return true
}
