package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded plugins",
	Long: `List plugins installed from uploaded bundles, with their registered
bundle path, dependencies and size on disk.

Example:
  mapstore-plugins list --web-root /srv/mapstore`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	listCellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	listBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

func runList(cmd *cobra.Command, args []string) error {
	uploader, err := newUploader(cmd)
	if err != nil {
		return err
	}

	items, err := uploader.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, i18n.T("ListPluginsHeader", map[string]any{"Count": len(items)}, len(items)))
	if len(items) == 0 {
		fmt.Fprintln(out, i18n.T("NoPluginsInstalled", nil))
		return nil
	}

	fmt.Fprintln(out, renderPluginTable(items))
	return nil
}

func renderPluginTable(items []plugin.Installed) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			return listCellStyle
		}).
		Headers("NAME", "BUNDLE", "DEPENDENCIES", "SIZE")

	for _, p := range items {
		deps := strings.Join(p.Dependencies, ", ")
		if deps == "" {
			deps = "-"
		}
		t.Row(p.Name, p.Extension.Bundle, deps, humanize.IBytes(uint64(p.BundleSize)))
	}

	return t.Render()
}
