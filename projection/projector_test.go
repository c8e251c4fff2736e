package projection

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"smapi-profiles/mods"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// setup returns a projector rooted in a temp dir and two real mod dirs.
func setup(t *testing.T) (*Projector, []mods.Mod) {
	t.Helper()
	base := t.TempDir()

	var list []mods.Mod
	for _, folder := range []string{"GoBackHome", "SaveBackup"} {
		dir := filepath.Join(base, "Mods", folder)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create mod dir: %v", err)
		}
		list = append(list, mods.Mod{UniqueID: folder + ".id", Folder: folder, Path: dir})
	}

	p, err := New(afero.NewOsFs(), filepath.Join(base, "profiles"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	probe := filepath.Join(base, "probe")
	if err := os.Symlink(list[0].Path, probe); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	return p, list
}

func entryNames(t *testing.T, p *Projector, profile string) []string {
	t.Helper()
	entries, err := p.ListEntries(profile)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

func TestProjectMembersCreatesLinks(t *testing.T) {
	p, list := setup(t)

	if err := p.ProjectMembers("p1", list); err != nil {
		t.Fatalf("ProjectMembers failed: %v", err)
	}
	// second run leaves existing links alone
	if err := p.ProjectMembers("p1", list); err != nil {
		t.Fatalf("ProjectMembers (repeat) failed: %v", err)
	}

	names := entryNames(t, p, "p1")
	if len(names) != 2 || names[0] != "GoBackHome" || names[1] != "SaveBackup" {
		t.Fatalf("Unexpected links: %v", names)
	}

	entries, _ := p.ListEntries("p1")
	for _, e := range entries {
		if !e.IsLink {
			t.Errorf("%s should be a link", e.Name)
		}
	}

	// the link resolves to the mod's contents
	marker := filepath.Join(list[0].Path, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dir, _ := p.ProfileDir("p1")
	if _, err := os.Stat(filepath.Join(dir, "GoBackHome", "marker")); err != nil {
		t.Errorf("Link does not resolve to the mod directory: %v", err)
	}
}

func TestProjectMembersKeepsWrongTarget(t *testing.T) {
	p, list := setup(t)

	wrong := list[0]
	wrong.Path = list[1].Path
	if err := p.ProjectMembers("p1", []mods.Mod{wrong}); err != nil {
		t.Fatal(err)
	}
	if err := p.ProjectMembers("p1", []mods.Mod{list[0]}); err != nil {
		t.Fatal(err)
	}

	entries, _ := p.ListEntries("p1")
	if len(entries) != 1 || entries[0].Target != list[1].Path {
		t.Fatalf("Existing link should be left as is, got %+v", entries)
	}

	if err := p.RepairLink("p1", list[0]); err != nil {
		t.Fatalf("RepairLink failed: %v", err)
	}
	entries, _ = p.ListEntries("p1")
	if entries[0].Target != list[0].Path {
		t.Errorf("RepairLink did not retarget, got %s", entries[0].Target)
	}
}

func TestRemoveMember(t *testing.T) {
	p, list := setup(t)
	if err := p.ProjectMembers("p1", list); err != nil {
		t.Fatal(err)
	}

	if err := p.RemoveMember("p1", "GoBackHome"); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if names := entryNames(t, p, "p1"); len(names) != 1 || names[0] != "SaveBackup" {
		t.Errorf("Unexpected links after removal: %v", names)
	}
	// the mod itself is untouched
	if _, err := os.Stat(list[0].Path); err != nil {
		t.Errorf("Mod directory should survive link removal: %v", err)
	}

	err := p.RemoveMember("p1", "GoBackHome")
	if !errors.Is(err, mods.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRemoveProfile(t *testing.T) {
	p, list := setup(t)
	if err := p.ProjectMembers("p1", list); err != nil {
		t.Fatal(err)
	}

	if err := p.RemoveProfile("p1"); err != nil {
		t.Fatalf("RemoveProfile failed: %v", err)
	}
	dir, _ := p.ProfileDir("p1")
	if _, err := os.Lstat(dir); !os.IsNotExist(err) {
		t.Error("Profile directory should be gone")
	}
	for _, m := range list {
		if _, err := os.Stat(m.Path); err != nil {
			t.Errorf("Mod directory %s should survive profile removal: %v", m.Folder, err)
		}
	}

	if err := p.RemoveProfile("p1"); !errors.Is(err, mods.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListProfileDirs(t *testing.T) {
	p, _ := setup(t)
	for _, name := range []string{"b", "a"} {
		if err := p.EnsureProfileDir(name); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.EnsureProfileDir("a"); err != nil {
		t.Fatalf("EnsureProfileDir should be idempotent: %v", err)
	}
	if err := os.WriteFile(filepath.Join(p.Root(), "stray.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	dirs, err := p.ListProfileDirs()
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 || dirs[0] != "a" || dirs[1] != "b" {
		t.Errorf("ListProfileDirs = %v, want [a b]", dirs)
	}
}

// plainFs hides every optional afero interface of the wrapped Fs.
type plainFs struct{ afero.Fs }

func TestLinkUnsupported(t *testing.T) {
	p, err := New(plainFs{afero.NewMemMapFs()}, "/profiles", zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	err = p.ProjectMembers("p1", []mods.Mod{{UniqueID: "x", Folder: "X", Path: "/mods/X"}})
	if !errors.Is(err, mods.ErrLinkUnsupported) {
		t.Errorf("Expected ErrLinkUnsupported, got %v", err)
	}
}

// deniedFs refuses every link the way an unprivileged Windows account does.
type deniedFs struct{ afero.Fs }

func (deniedFs) SymlinkIfPossible(oldname, newname string) error {
	return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: fs.ErrPermission}
}

func TestLinkWithoutPrivilege(t *testing.T) {
	p, err := New(deniedFs{afero.NewMemMapFs()}, "/profiles", zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	members := []mods.Mod{
		{UniqueID: "a", Folder: "A", Path: "/mods/A"},
		{UniqueID: "b", Folder: "B", Path: "/mods/B"},
	}

	err = p.ProjectMembers("p1", members)
	if !errors.Is(err, mods.ErrInsufficientPrivilege) {
		t.Fatalf("Expected ErrInsufficientPrivilege, got %v", err)
	}
	if errors.Is(err, mods.ErrNotFound) {
		t.Errorf("Privilege failure must not look like a missing entry: %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("Expected one failure per member, got %d: %v", n, err)
	}

	err = p.RepairLink("p1", members[0])
	if !errors.Is(err, mods.ErrInsufficientPrivilege) {
		t.Errorf("RepairLink: expected ErrInsufficientPrivilege, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"p1", true},
		{"My Profile", true},
		{"", false},
		{"   ", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if tt.valid && err != nil {
			t.Errorf("ValidateName(%q) unexpected error: %v", tt.name, err)
		}
		if !tt.valid && !errors.Is(err, mods.ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", tt.name, err)
		}
	}
}
