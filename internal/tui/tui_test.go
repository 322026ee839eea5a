package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egoavara/mapstore-plugins/internal/plugin"
	"github.com/egoavara/mapstore-plugins/internal/registry"
)

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func installed() []plugin.Installed {
	return []plugin.Installed{
		{Name: "My", Key: "MyPlugin", Dependencies: []string{"Toolbar"},
			Extension: registry.Extension{Bundle: "dist/extensions/My/myplugin.js"}, BundleSize: 2048},
		{Name: "Other", Key: "OtherPlugin", Dependencies: []string{},
			Extension: registry.Extension{Bundle: "dist/extensions/Other/other.js"}},
	}
}

func TestPicker_EnterSelectsCursor(t *testing.T) {
	m := send(NewModel(installed()), key(tea.KeyDown), key(tea.KeyEnter)).(Model)
	assert.Equal(t, ModeConfirm, m.mode)
	assert.Contains(t, m.View(), "Other")

	m = send(m, runes("y")).(Model)
	res := m.Result()
	require.False(t, res.Cancelled)
	require.Len(t, res.ToUninstall, 1)
	assert.Equal(t, "Other", res.ToUninstall[0].Name)
}

func TestPicker_ToggleMultiple(t *testing.T) {
	m := send(NewModel(installed()),
		key(tea.KeyTab), key(tea.KeyDown), key(tea.KeyTab),
		key(tea.KeyEnter), key(tea.KeyEnter),
	).(Model)

	res := m.Result()
	require.False(t, res.Cancelled)
	assert.Len(t, res.ToUninstall, 2)
}

func TestPicker_Filter(t *testing.T) {
	m := send(NewModel(installed()), runes("o"), runes("t"), runes("h")).(Model)
	require.Len(t, m.filteredItems, 1)
	assert.Equal(t, "Other", m.items[m.filteredItems[0]].Plugin.Name)

	m = send(m, key(tea.KeyEsc)).(Model)
	assert.Len(t, m.filteredItems, 2, "esc clears the filter first")
	assert.False(t, m.quitting)
}

func TestPicker_CancelFromConfirm(t *testing.T) {
	m := send(NewModel(installed()), key(tea.KeyEnter), runes("n")).(Model)
	assert.Equal(t, ModeList, m.mode)

	m = send(m, key(tea.KeyEsc)).(Model)
	assert.True(t, m.quitting)
	assert.True(t, m.Result().Cancelled)
	assert.Empty(t, m.View())
}

func TestPicker_Preview(t *testing.T) {
	m := send(NewModel(installed()), tea.WindowSizeMsg{Width: 120, Height: 30}).(Model)
	view := m.View()
	assert.Contains(t, view, "dist/extensions/My/myplugin.js")
	assert.Contains(t, view, "2.0 KiB")
	assert.Contains(t, view, "Toolbar")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name      string
		msgs      []tea.Msg
		selected  bool
		confirmed bool
	}{
		{"default is no", []tea.Msg{key(tea.KeyEnter)}, false, true},
		{"move to yes", []tea.Msg{key(tea.KeyUp), key(tea.KeyEnter)}, true, true},
		{"y shortcut", []tea.Msg{runes("y")}, true, true},
		{"esc answers no", []tea.Msg{key(tea.KeyEsc)}, false, true},
		{"ctrl+c aborts", []tea.Msg{key(tea.KeyCtrlC)}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := send(NewUninstallConfirmModel("My", "dist/extensions/My"), tt.msgs...).(ConfirmModel)
			assert.Equal(t, tt.selected, m.GetSelected())
			assert.Equal(t, tt.confirmed, m.IsConfirmed())
		})
	}
}

func TestConfirm_View(t *testing.T) {
	view := NewUninstallConfirmModel("My", "dist/extensions/My").View()
	assert.Contains(t, view, "dist/extensions/My")
}
