package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smapi-profiles/manager"
	"smapi-profiles/mods"

	tea "github.com/charmbracelet/bubbletea"
)

type fakePicker struct {
	profiles  []mods.Profile
	members   map[string][]mods.Mod
	launched  []string
	launchErr error
}

func (f *fakePicker) ListProfiles(context.Context) ([]mods.Profile, error) {
	return f.profiles, nil
}

func (f *fakePicker) MembersOf(_ context.Context, profile string) ([]mods.Mod, error) {
	return f.members[profile], nil
}

func (f *fakePicker) RegisterMods(context.Context) (manager.ScanReport, error) {
	return manager.ScanReport{Registered: []mods.Mod{{UniqueID: "A.1"}}}, nil
}

func (f *fakePicker) Reconcile(context.Context, manager.ReconcileOptions) (manager.Report, error) {
	return manager.Report{Created: []manager.LinkChange{{Profile: "p1", Name: "FolderA"}}}, nil
}

func (f *fakePicker) Launch(_ context.Context, profile string) error {
	f.launched = append(f.launched, profile)
	return f.launchErr
}

func newFakePicker() *fakePicker {
	return &fakePicker{
		profiles: []mods.Profile{{Name: "p1"}, {Name: "p2"}},
		members: map[string][]mods.Mod{
			"p1": {{UniqueID: "A.1", Name: "Mod A", Version: "1.0.0"}},
			"p2": {},
		},
	}
}

// run feeds the result of cmd back into the model until no command is left.
// Spinner ticks and batches are not followed.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case profilesLoadedMsg, membersLoadedMsg, actionDoneMsg:
		default:
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, cmd := m.Update(key(s))
	return run(t, next.(Model), cmd)
}

func loaded(t *testing.T, f *fakePicker) Model {
	t.Helper()
	m := newModel(context.Background(), f)
	return run(t, m, m.loadProfiles())
}

func TestModelLoadsProfilesAndMembers(t *testing.T) {
	m := loaded(t, newFakePicker())

	if m.busy {
		t.Fatal("model should be idle after loading")
	}
	if len(m.profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(m.profiles))
	}
	if _, ok := m.members["p1"]; !ok {
		t.Fatal("members of the highlighted profile should be loaded")
	}
	view := m.View()
	if !strings.Contains(view, "Mod A") {
		t.Errorf("view does not list the members of p1:\n%s", view)
	}
}

func TestModelNavigation(t *testing.T) {
	m := loaded(t, newFakePicker())

	m = press(t, m, "down")
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}
	if _, ok := m.members["p2"]; !ok {
		t.Fatal("moving the cursor should load members of p2")
	}
	m = press(t, m, "j")
	if m.selected != 1 {
		t.Fatalf("cursor moved past the last profile: %d", m.selected)
	}
	m = press(t, m, "k")
	m = press(t, m, "up")
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}
}

func TestModelLaunch(t *testing.T) {
	f := newFakePicker()
	m := loaded(t, f)
	m = press(t, m, "down")
	m = press(t, m, "enter")

	if len(f.launched) != 1 || f.launched[0] != "p2" {
		t.Fatalf("launched = %v, want [p2]", f.launched)
	}
	if m.status != "Launched p2" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelLaunchError(t *testing.T) {
	f := newFakePicker()
	f.launchErr = errors.New("boom")
	m := press(t, loaded(t, f), "enter")

	if m.err != "boom" {
		t.Errorf("err = %q, want boom", m.err)
	}
	if m.busy {
		t.Error("model should be idle after a failed launch")
	}
}

func TestModelSyncAndRescan(t *testing.T) {
	m := press(t, loaded(t, newFakePicker()), "s")
	if !strings.HasPrefix(m.status, "Synced: 1 linked") {
		t.Errorf("status after sync = %q", m.status)
	}

	m = press(t, m, "r")
	if m.status != "Registered 1 mods" {
		t.Errorf("status after rescan = %q", m.status)
	}
	if m.busy {
		t.Error("model should reload and go idle")
	}
}

func TestModelQuit(t *testing.T) {
	m := loaded(t, newFakePicker())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestModelIgnoresKeysWhileBusy(t *testing.T) {
	f := newFakePicker()
	m := loaded(t, f)
	m.busy = true

	next, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Fatal("no command expected while busy")
	}
	if len(f.launched) != 0 {
		t.Fatal("launch should not run while busy")
	}
	_ = next
}
