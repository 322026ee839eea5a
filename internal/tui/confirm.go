package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
)

// ConfirmOption represents one answer of a yes/no prompt
type ConfirmOption struct {
	Value       bool
	Label       string
	Description string
}

// ConfirmModel is the bubbletea model for a yes/no confirmation
type ConfirmModel struct {
	prompt    string
	detail    string
	options   []ConfirmOption
	cursor    int
	selected  bool
	quitting  bool
	confirmed bool
}

var (
	confirmTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1)

	confirmDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	confirmOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	confirmSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57")).
				Bold(true).
				Padding(0, 1)

	confirmDescStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginLeft(4)

	confirmDescSelectedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					MarginLeft(4)

	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	confirmHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				MarginTop(1)
)

// NewUninstallConfirmModel asks whether the named plugin should be uninstalled.
// detail is shown highlighted under the prompt, typically the plugin directory.
func NewUninstallConfirmModel(name, detail string) ConfirmModel {
	return ConfirmModel{
		prompt: i18n.T("uninstall.prompt", map[string]any{"Name": name}),
		detail: detail,
		options: []ConfirmOption{
			{
				Value:       true,
				Label:       i18n.T("uninstall.option.yes", nil),
				Description: i18n.T("uninstall.option.yes.desc", nil),
			},
			{
				Value:       false,
				Label:       i18n.T("uninstall.option.no", nil),
				Description: i18n.T("uninstall.option.no.desc", nil),
			},
		},
		cursor: 1, // Default to no
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.selected = false
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}

	case "y", "Y":
		m.selected = true
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "n", "N", "esc":
		m.selected = false
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "enter", " ":
		m.selected = m.options[m.cursor].Value
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m ConfirmModel) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}

	var b strings.Builder

	b.WriteString(confirmTitleStyle.Render(m.prompt))
	b.WriteString("\n\n")

	if m.detail != "" {
		b.WriteString("  " + confirmDetailStyle.Render(m.detail))
		b.WriteString("\n\n")
	}

	for i, opt := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		var labelLine, descLine string
		if i == m.cursor {
			labelLine = confirmSelectedStyle.Render(fmt.Sprintf("%s%s", cursor, opt.Label))
			descLine = confirmDescSelectedStyle.Render(opt.Description)
		} else {
			labelLine = confirmOptionStyle.Render(fmt.Sprintf("%s%s", cursor, opt.Label))
			descLine = confirmDescStyle.Render(opt.Description)
		}

		b.WriteString(labelLine)
		b.WriteString("\n")
		b.WriteString(descLine)
		b.WriteString("\n\n")
	}

	b.WriteString(confirmHelpStyle.Render("↑/↓: " + i18n.T("help.move", nil) + " | Enter: " + i18n.T("help.select", nil)))

	return confirmBoxStyle.Render(b.String())
}

// GetSelected returns whether user selected yes
func (m ConfirmModel) GetSelected() bool {
	return m.selected
}

// IsConfirmed returns whether the user answered rather than aborting
func (m ConfirmModel) IsConfirmed() bool {
	return m.confirmed
}

// RunUninstallConfirm asks the user to confirm uninstalling name
func RunUninstallConfirm(name, detail string) (bool, error) {
	p := tea.NewProgram(NewUninstallConfirmModel(name, detail))

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(ConfirmModel)
	return m.IsConfirmed() && m.GetSelected(), nil
}
