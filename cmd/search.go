package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
	"github.com/egoavara/mapstore-plugins/internal/search"
)

var searchExact bool

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search plugins declared in pluginsConfig.json",
	Long: `Fuzzy search plugin names and dependencies in pluginsConfig.json.

Example:
  mapstore-plugins search toolbar
  mapstore-plugins search map --exact`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchExact, "exact", false, "substring match instead of fuzzy")
}

func runSearch(cmd *cobra.Command, args []string) error {
	uploader, err := newUploader(cmd)
	if err != nil {
		return err
	}

	plugins, err := uploader.Plugins(cmd.Context())
	if err != nil {
		return err
	}

	var results []search.SearchResult
	if searchExact {
		results = search.SimpleSearch(plugins, args[0])
	} else {
		results = search.FuzzySearch(plugins, args[0])
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, i18n.T("NoResults", map[string]any{"Query": args[0]}))
		return nil
	}

	fmt.Fprintln(out, i18n.T("SearchResults", map[string]any{"Count": len(results)}, len(results)))
	for _, r := range results {
		marker := " "
		if r.Plugin.IsExtension() {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s", marker, r.Plugin.Name())
		if deps := r.Plugin.Dependencies(); len(deps) > 0 {
			line += " (" + strings.Join(deps, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
