package cmd

import (
	"context"
	"fmt"
	"strings"

	"smapi-profiles/logger"
	"smapi-profiles/manager"
	"smapi-profiles/mods"
	"smapi-profiles/ui"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// picker is the part of the manager the profile picker drives.
type picker interface {
	ListProfiles(ctx context.Context) ([]mods.Profile, error)
	MembersOf(ctx context.Context, profile string) ([]mods.Mod, error)
	RegisterMods(ctx context.Context) (manager.ScanReport, error)
	Reconcile(ctx context.Context, opts manager.ReconcileOptions) (manager.Report, error)
	Launch(ctx context.Context, profile string) error
}

type profilesLoadedMsg struct {
	profiles []mods.Profile
	err      error
}

type membersLoadedMsg struct {
	profile string
	members []mods.Mod
	err     error
}

type actionDoneMsg struct {
	message string
	err     error
	reload  bool
}

// Model represents the state of the profile picker.
type Model struct {
	ctx      context.Context
	source   picker
	spinner  spinner.Model
	profiles []mods.Profile
	members  map[string][]mods.Mod
	selected int
	busy     bool
	status   string
	err      string
	width    int
	height   int
}

func newModel(ctx context.Context, source picker) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:     ctx,
		source:  source,
		spinner: s,
		members: map[string][]mods.Mod{},
		busy:    true,
		status:  "Loading profiles...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadProfiles())
}

func (m Model) loadProfiles() tea.Cmd {
	return func() tea.Msg {
		profiles, err := m.source.ListProfiles(m.ctx)
		return profilesLoadedMsg{profiles: profiles, err: err}
	}
}

func (m Model) loadMembers(profile string) tea.Cmd {
	return func() tea.Msg {
		members, err := m.source.MembersOf(m.ctx, profile)
		return membersLoadedMsg{profile: profile, members: members, err: err}
	}
}

func (m Model) current() (mods.Profile, bool) {
	if m.selected < 0 || m.selected >= len(m.profiles) {
		return mods.Profile{}, false
	}
	return m.profiles[m.selected], true
}

// selectCurrent loads the members of the highlighted profile unless cached.
func (m Model) selectCurrent() tea.Cmd {
	p, ok := m.current()
	if !ok {
		return nil
	}
	if _, cached := m.members[p.Name]; cached {
		return nil
	}
	return m.loadMembers(p.Name)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case profilesLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.status = ""
			return m, nil
		}
		m.profiles = msg.profiles
		m.members = map[string][]mods.Mod{}
		if m.selected >= len(m.profiles) {
			m.selected = max(len(m.profiles)-1, 0)
		}
		if m.status == "Loading profiles..." {
			m.status = ""
		}
		return m, m.selectCurrent()

	case membersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.members[msg.profile] = msg.members
		return m, nil

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.status = ""
		} else {
			m.err = ""
			m.status = msg.message
		}
		if msg.reload {
			m.busy = true
			return m, m.loadProfiles()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, m.selectCurrent()
	case "down", "j":
		if m.selected < len(m.profiles)-1 {
			m.selected++
		}
		return m, m.selectCurrent()
	case "enter", "l":
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		m.busy = true
		m.status = "Launching " + p.Name + "..."
		return m, m.launch(p.Name)
	case "s":
		m.busy = true
		m.status = "Syncing profile folders..."
		return m, m.sync()
	case "r":
		m.busy = true
		m.status = "Scanning Mods folder..."
		return m, m.rescan()
	}
	return m, nil
}

func (m Model) launch(profile string) tea.Cmd {
	return func() tea.Msg {
		if err := m.source.Launch(m.ctx, profile); err != nil {
			logger.Log.Errorw("Launch failed", zap.String("profile", profile), zap.Error(err))
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: "Launched " + profile}
	}
}

func (m Model) sync() tea.Cmd {
	return func() tea.Msg {
		report, err := m.source.Reconcile(m.ctx, manager.ReconcileOptions{})
		if err != nil && !manager.IsWarning(err) {
			return actionDoneMsg{err: err}
		}
		message := fmt.Sprintf("Synced: %d linked, %d relinked, %d unlinked",
			len(report.Created), len(report.Repaired), len(report.Removed))
		if err != nil {
			message += fmt.Sprintf(" (%d warnings, see log)", len(manager.Warnings(err)))
		}
		return actionDoneMsg{message: message, reload: true}
	}
}

func (m Model) rescan() tea.Cmd {
	return func() tea.Msg {
		report, err := m.source.RegisterMods(m.ctx)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		message := fmt.Sprintf("Registered %d mods", len(report.Registered))
		if len(report.Skipped) > 0 {
			message += fmt.Sprintf(", skipped %d", len(report.Skipped))
		}
		return actionDoneMsg{message: message, reload: true}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n " + ui.Header.Render("Profiles") + "\n\n")

	if len(m.profiles) == 0 && !m.busy {
		b.WriteString(ui.Muted.Render("  No profiles yet. Create one with `smapi-profiles profile create <name>`.") + "\n")
	}

	cursor := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	for i, p := range m.profiles {
		line := fmt.Sprintf("%-24s %s", ui.Truncate(p.Name, 24), ui.Truncate(p.Description, 40))
		if i == m.selected {
			b.WriteString(cursor.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if p, ok := m.current(); ok {
		if members, loaded := m.members[p.Name]; loaded {
			b.WriteString("\n " + ui.Header.Render(fmt.Sprintf("Mods in %s (%d)", p.Name, len(members))) + "\n")
			for _, mod := range members {
				b.WriteString(fmt.Sprintf("  • %s %s\n", ui.Truncate(mod.Name, 40), ui.Colorize(mod.Version, "#7d8590")))
			}
		}
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString(" " + m.spinner.View() + " " + m.status + "\n")
	} else if m.status != "" {
		b.WriteString(" " + ui.Success.Render(m.status) + "\n")
	}
	if m.err != "" {
		b.WriteString(" " + ui.Failure.Render("Error: "+m.err) + "\n")
	}
	b.WriteString("\n" + ui.Muted.Render(" ↑/↓ select • enter launch • s sync • r rescan • q quit") + "\n")
	return b.String()
}

func runTUI(cmd *cobra.Command) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	p := tea.NewProgram(newModel(cmd.Context(), a.mgr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Log.Errorw("Failed to run profile picker", zap.Error(err))
		return err
	}
	return nil
}
