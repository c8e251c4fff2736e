// Package projection materializes profiles on disk: one directory per
// profile under a projection root, holding one directory link per member
// mod. The game's loader is pointed at a profile directory and sees only
// that profile's mods.
package projection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smapi-profiles/logger"
	"smapi-profiles/mods"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Entry is one immediate child of a profile directory.
type Entry struct {
	Name   string
	Target string // empty unless IsLink
	IsLink bool
}

// Projector owns the projection root. All profile directories live directly
// beneath it.
type Projector struct {
	fs   afero.Fs
	root string
	log  *zap.SugaredLogger
}

// New creates the projection root if needed and checks that it can be read.
// An unreadable root is fatal for the caller.
func New(fsys afero.Fs, root string, log *zap.SugaredLogger) (*Projector, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve projection root %q: %w", root, err)
	}
	if err := fsys.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create projection root %q: %w", abs, err)
	}
	if _, err := afero.ReadDir(fsys, abs); err != nil {
		return nil, fmt.Errorf("read projection root %q: %w", abs, err)
	}
	return &Projector{fs: fsys, root: abs, log: logger.Or(log)}, nil
}

// Root returns the absolute projection root.
func (p *Projector) Root() string { return p.root }

// ProfileDir returns the directory that holds a profile's links.
func (p *Projector) ProfileDir(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(p.root, name), nil
}

// EnsureProfileDir creates the profile directory if it is missing.
func (p *Projector) EnsureProfileDir(name string) error {
	dir, err := p.ProfileDir(name)
	if err != nil {
		return err
	}
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create profile directory %q: %w", dir, err)
	}
	return nil
}

// ProjectMembers creates a link named after each mod's folder, pointing at
// the mod's directory. Entries that already exist under that name are left
// untouched even when they point elsewhere; Reconcile repairs those. Every
// member is attempted and the failures are combined.
func (p *Projector) ProjectMembers(name string, members []mods.Mod) error {
	if err := p.EnsureProfileDir(name); err != nil {
		return err
	}
	dir := filepath.Join(p.root, name)

	var errs error
	for _, m := range members {
		if err := ValidateName(m.Folder); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mod %s: %w", m.UniqueID, err))
			continue
		}
		linkPath := filepath.Join(dir, m.Folder)

		if _, err := p.lstat(linkPath); err == nil {
			p.log.Debugw("Link already present",
				zap.String("profile", name),
				zap.String("link", m.Folder),
				zap.Error(mods.ErrFilesystemDrift),
			)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("inspect %q: %w", linkPath, err))
			continue
		}

		if err := p.symlink(m.Path, linkPath); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.log.Infow("Link created",
			zap.String("profile", name),
			zap.String("link", m.Folder),
			zap.String("target", m.Path),
		)
	}
	return errs
}

// RemoveMember deletes the single entry called linkName from a profile
// directory. It never follows the link.
func (p *Projector) RemoveMember(name, linkName string) error {
	dir, err := p.ProfileDir(name)
	if err != nil {
		return err
	}
	if err := ValidateName(linkName); err != nil {
		return err
	}
	linkPath := filepath.Join(dir, linkName)

	if _, err := p.lstat(linkPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", mods.ErrNotFound, linkPath)
	} else if err != nil {
		return fmt.Errorf("inspect %q: %w", linkPath, err)
	}

	if err := p.fs.Remove(linkPath); err != nil {
		return fmt.Errorf("remove %q: %w", linkPath, err)
	}
	p.log.Infow("Link removed", zap.String("profile", name), zap.String("link", linkName))
	return nil
}

// RemoveProfile deletes a profile directory and everything in it. Links are
// removed, not followed, so mod directories are never touched.
func (p *Projector) RemoveProfile(name string) error {
	dir, err := p.ProfileDir(name)
	if err != nil {
		return err
	}
	if _, err := p.lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", mods.ErrNotFound, dir)
	} else if err != nil {
		return fmt.Errorf("inspect %q: %w", dir, err)
	}

	if err := p.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove profile directory %q: %w", dir, err)
	}
	p.log.Infow("Profile directory removed", zap.String("profile", name))
	return nil
}

// ListProfileDirs returns the names of the directories present under the
// projection root, whatever the store says.
func (p *Projector) ListProfileDirs() ([]string, error) {
	infos, err := afero.ReadDir(p.fs, p.root)
	if err != nil {
		return nil, fmt.Errorf("read projection root %q: %w", p.root, err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() && info.Mode()&fs.ModeSymlink == 0 {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListEntries returns the immediate children of a profile directory.
func (p *Projector) ListEntries(name string) ([]Entry, error) {
	dir, err := p.ProfileDir(name)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(p.fs, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", mods.ErrNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read profile directory %q: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		e := Entry{Name: info.Name()}
		if info.Mode()&fs.ModeSymlink != 0 {
			e.IsLink = true
			target, err := p.readlink(filepath.Join(dir, info.Name()))
			if err != nil {
				return nil, err
			}
			e.Target = target
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RepairLink replaces whatever link sits at m.Folder with one pointing at
// m.Path. Non-link entries are refused.
func (p *Projector) RepairLink(name string, m mods.Mod) error {
	dir, err := p.ProfileDir(name)
	if err != nil {
		return err
	}
	if err := ValidateName(m.Folder); err != nil {
		return err
	}
	linkPath := filepath.Join(dir, m.Folder)

	info, err := p.lstat(linkPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("inspect %q: %w", linkPath, err)
	case info.Mode()&fs.ModeSymlink == 0:
		return fmt.Errorf("%w: %q is not a link", mods.ErrFilesystemDrift, linkPath)
	default:
		if err := p.fs.Remove(linkPath); err != nil {
			return fmt.Errorf("remove stale link %q: %w", linkPath, err)
		}
	}

	if err := p.symlink(m.Path, linkPath); err != nil {
		return err
	}
	p.log.Infow("Link repaired",
		zap.String("profile", name),
		zap.String("link", m.Folder),
		zap.String("target", m.Path),
	)
	return nil
}

func (p *Projector) symlink(target, linkPath string) error {
	linker, ok := p.fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("%w: %T", mods.ErrLinkUnsupported, p.fs)
	}
	err := linker.SymlinkIfPossible(target, linkPath)
	if err == nil {
		return nil
	}
	if isPrivilegeError(err) {
		return fmt.Errorf("%w: %s -> %s: %v", mods.ErrInsufficientPrivilege, linkPath, target, err)
	}
	return fmt.Errorf("create link %q: %w", linkPath, err)
}

func (p *Projector) lstat(path string) (os.FileInfo, error) {
	if l, ok := p.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return p.fs.Stat(path)
}

func (p *Projector) readlink(path string) (string, error) {
	r, ok := p.fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("%w: %T", mods.ErrLinkUnsupported, p.fs)
	}
	target, err := r.ReadlinkIfPossible(path)
	if err != nil {
		return "", fmt.Errorf("read link %q: %w", path, err)
	}
	return target, nil
}

// ValidateName rejects names that would escape or alias a directory.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", mods.ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", mods.ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", mods.ErrInvalidName, name)
	}
	return nil
}
