package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
)

// PluginItem wraps an installed extension with its selection state
type PluginItem struct {
	Plugin   plugin.Installed
	Selected bool
}

// FinderResult holds the result of TUI selection
type FinderResult struct {
	ToUninstall []plugin.Installed
	Cancelled   bool
}

// ViewMode represents the current view mode
type ViewMode int

const (
	ModeList ViewMode = iota
	ModeConfirm
)

// Model is the bubbletea model for the uninstall picker
type Model struct {
	items         []PluginItem
	filteredItems []int // indexes into items
	cursor        int
	width         int
	height        int
	searchInput   textinput.Model
	mode          ViewMode
	quitting      bool
	confirmed     bool
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	toUninstallStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2).
			Align(lipgloss.Center)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// NewModel creates a new picker model
func NewModel(installed []plugin.Installed) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 50
	ti.Width = 30

	items := make([]PluginItem, len(installed))
	for i, p := range installed {
		items[i] = PluginItem{Plugin: p}
	}

	m := Model{
		items:       items,
		searchInput: ti,
		mode:        ModeList,
	}
	m.applyFilter()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == ModeConfirm {
			return m.handleConfirmKey(msg)
		}
		return m.handleListKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		// If search has text, clear it; otherwise quit
		if m.searchInput.Value() != "" {
			m.searchInput.SetValue("")
			m.applyFilter()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down":
		if m.cursor < len(m.filteredItems)-1 {
			m.cursor++
		}

	case "tab":
		if idx, ok := m.current(); ok {
			m.items[idx].Selected = !m.items[idx].Selected
		}

	case "enter":
		// Enter without any toggled item selects the one under the cursor
		if len(m.selected()) == 0 {
			if idx, ok := m.current(); ok {
				m.items[idx].Selected = true
			}
		}
		if len(m.selected()) > 0 {
			m.mode = ModeConfirm
		}

	case "backspace":
		val := m.searchInput.Value()
		if len(val) > 0 {
			m.searchInput.SetValue(val[:len(val)-1])
			m.applyFilter()
		}

	default:
		// Any other printable character goes to search
		if len(msg.String()) == 1 && msg.String()[0] >= 32 && msg.String()[0] < 127 {
			m.searchInput.SetValue(m.searchInput.Value() + msg.String())
			m.applyFilter()
		}
	}

	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "n", "N", "esc", "q":
		m.mode = ModeList
		return m, nil
	}
	return m, nil
}

func (m *Model) applyFilter() {
	query := m.searchInput.Value()
	if query == "" {
		m.filteredItems = make([]int, len(m.items))
		for i := range m.items {
			m.filteredItems[i] = i
		}
	} else {
		searchables := make([]string, len(m.items))
		for i, item := range m.items {
			parts := append([]string{item.Plugin.Name}, item.Plugin.Dependencies...)
			searchables[i] = strings.ToLower(strings.Join(parts, " "))
		}

		matches := fuzzy.Find(strings.ToLower(query), searchables)
		m.filteredItems = make([]int, len(matches))
		for i, match := range matches {
			m.filteredItems[i] = match.Index
		}
	}

	if m.cursor >= len(m.filteredItems) {
		m.cursor = max(0, len(m.filteredItems)-1)
	}
}

func (m Model) current() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filteredItems) {
		return -1, false
	}
	return m.filteredItems[m.cursor], true
}

func (m Model) selected() []plugin.Installed {
	var out []plugin.Installed
	for _, item := range m.items {
		if item.Selected {
			out = append(out, item.Plugin)
		}
	}
	return out
}

// Result returns what the user chose
func (m Model) Result() *FinderResult {
	if !m.confirmed {
		return &FinderResult{Cancelled: true}
	}
	return &FinderResult{ToUninstall: m.selected()}
}

func (m Model) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}

	if m.mode == ModeConfirm {
		return m.renderConfirmModal()
	}

	return m.renderListView()
}

func (m Model) renderListView() string {
	var b strings.Builder

	header := titleStyle.Render(i18n.T("PickerHeader", map[string]any{"Count": len(m.items)}, len(m.items)))
	b.WriteString(header)
	b.WriteString("\n\n")

	listWidth := 40
	previewWidth := max(30, m.width-listWidth-6)
	listHeight := max(5, m.height-8)

	var listLines []string
	for i, idx := range m.filteredItems {
		listLines = append(listLines, m.renderItem(i, m.items[idx]))
	}

	// Paginate if needed
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(listLines))

	visibleList := strings.Join(listLines[start:end], "\n")

	listBox := lipgloss.NewStyle().Width(listWidth).Render(visibleList)
	previewBox := previewStyle.Width(previewWidth).Height(listHeight).Render(m.renderPreview())

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listBox, "  ", previewBox))
	b.WriteString("\n\n")

	searchQuery := m.searchInput.Value()
	if searchQuery != "" {
		b.WriteString("> " + searchQuery + "_")
	} else {
		b.WriteString(helpStyle.Render("> type to filter..."))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("↑/↓: move | Tab: toggle | Enter: uninstall | Esc: clear/quit"))

	return b.String()
}

func (m Model) renderItem(idx int, item PluginItem) string {
	cursor := "  "
	if idx == m.cursor {
		cursor = "> "
	}

	checkbox := "[ ]"
	style := normalStyle
	if item.Selected {
		checkbox = "[-]"
		style = toUninstallStyle
	}

	text := fmt.Sprintf("%s%s %s", cursor, checkbox, item.Plugin.Name)
	if idx == m.cursor {
		return selectedStyle.Render(text)
	}
	return style.Render(text)
}

func (m Model) renderPreview() string {
	idx, ok := m.current()
	if !ok {
		return i18n.T("PickerPreviewEmpty", nil)
	}
	p := m.items[idx].Plugin

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("Key: %s\n", p.Key))
	b.WriteString(fmt.Sprintf("Bundle: %s\n", p.Extension.Bundle))
	b.WriteString(fmt.Sprintf("Size: %s\n", humanize.IBytes(uint64(p.BundleSize))))

	if p.Extension.Translations != "" {
		b.WriteString(fmt.Sprintf("Translations: %s\n", p.Extension.Translations))
	}
	if p.Extension.Assets != "" {
		b.WriteString(fmt.Sprintf("Assets: %s\n", p.Extension.Assets))
	}
	if len(p.Dependencies) > 0 {
		b.WriteString(fmt.Sprintf("\nDependencies: %s\n", strings.Join(p.Dependencies, ", ")))
	}

	return b.String()
}

func (m Model) renderConfirmModal() string {
	toUninstall := m.selected()

	var b strings.Builder

	b.WriteString(i18n.T("ConfirmTitle", nil))
	b.WriteString("\n\n")

	b.WriteString(toUninstallStyle.Render(i18n.T("ToUninstall", map[string]any{"Count": len(toUninstall)}, len(toUninstall))))
	b.WriteString("\n")
	for _, p := range toUninstall {
		b.WriteString(fmt.Sprintf("  - %s\n", p.Name))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[y] " + i18n.T("Confirm", nil) + "  [n] " + i18n.T("Cancel", nil)))

	return modalStyle.Render(b.String())
}

// RunPluginPicker launches the interactive fuzzy picker over installed extensions
func RunPluginPicker(installed []plugin.Installed) (*FinderResult, error) {
	if len(installed) == 0 {
		return nil, fmt.Errorf("%s", i18n.T("NoPluginsInstalled", nil))
	}

	p := tea.NewProgram(NewModel(installed), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(Model).Result(), nil
}
