// Package scanner discovers mods in the immediate subdirectories of a mods
// root by reading each one's manifest.json.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"smapi-profiles/logger"
	"smapi-profiles/mods"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Result is the outcome of one scan.
type Result struct {
	Mods    map[string]mods.Mod // keyed by UniqueID
	Skipped []*mods.ScanError   // malformed manifests and duplicate ids
}

// Scanner reads a single directory level under Root.
type Scanner struct {
	fs   afero.Fs
	root string
	log  *zap.SugaredLogger
}

// New creates a scanner over root. A nil fs means the OS filesystem and a
// nil log means the package logger.
func New(fsys afero.Fs, root string, log *zap.SugaredLogger) *Scanner {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Scanner{fs: fsys, root: root, log: logger.Or(log)}
}

// Discover enumerates the subdirectories of the root in lexicographic order.
// Directories without a manifest are not mods and are skipped silently.
// Malformed manifests are skipped with a ScanError. When two directories
// declare the same id the first one in folder order is kept.
//
// Only an unreadable root is returned as an error.
func (s *Scanner) Discover() (Result, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve mods root %q: %w", s.root, err)
	}

	entries, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return Result{}, fmt.Errorf("read mods root %q: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	res := Result{Mods: make(map[string]mods.Mod)}
	for _, entry := range entries {
		// Links are never mods, which keeps a projection placed under the
		// root from being registered twice.
		if !entry.IsDir() || entry.Mode()&fs.ModeSymlink != 0 {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		m, err := s.readMod(dir)
		if errors.Is(err, mods.ErrNoManifest) {
			s.log.Debugw("Skipping directory without manifest", zap.String("dir", dir))
			continue
		}
		if err != nil {
			scanErr := &mods.ScanError{Dir: dir, Err: err}
			s.log.Warnw("Skipping mod with unreadable manifest", zap.String("dir", dir), zap.Error(err))
			res.Skipped = append(res.Skipped, scanErr)
			continue
		}

		if prev, dup := res.Mods[m.UniqueID]; dup {
			scanErr := &mods.ScanError{
				Dir: dir,
				Err: fmt.Errorf("%w %q, already declared by %s", mods.ErrDuplicateModID, m.UniqueID, prev.Folder),
			}
			s.log.Warnw("Skipping mod with duplicate unique id",
				zap.String("unique_id", m.UniqueID),
				zap.String("kept", prev.Folder),
				zap.String("skipped", m.Folder),
			)
			res.Skipped = append(res.Skipped, scanErr)
			continue
		}
		res.Mods[m.UniqueID] = m
	}

	s.log.Infow("Scan finished",
		zap.String("root", root),
		zap.Int("mods", len(res.Mods)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func (s *Scanner) readMod(dir string) (mods.Mod, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return mods.Mod{}, mods.ErrNoManifest
	}
	if err != nil {
		return mods.Mod{}, fmt.Errorf("read %s: %w", ManifestFile, err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return mods.Mod{}, err
	}

	return mods.Mod{
		UniqueID:    manifest.UniqueID,
		Name:        manifest.Name,
		Version:     manifest.Version,
		Description: manifest.Description,
		Folder:      filepath.Base(dir),
		Path:        dir,
	}, nil
}
