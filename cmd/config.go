package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egoavara/mapstore-plugins/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mapstore-plugins configuration",
	Long: `Manage mapstore-plugins configuration settings.

Example:
  mapstore-plugins config show
  mapstore-plugins config set webRoot /srv/mapstore`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  locale                  - Language setting
                            Values: auto, en-US, ko-KR, etc.
  webRoot                 - MapStore web application directory
  bundlesPath             - Bundle directory relative to the web root
                            Empty means dist/extensions
  server.listen           - Address used by 'serve'
  server.maxUploadSize    - Maximum archive size, e.g. 32MiB; 0 disables
  server.shutdownTimeout  - Graceful shutdown bound, e.g. 10s, 1m30s

Example:
  mapstore-plugins config set locale ko-KR
  mapstore-plugins config set server.maxUploadSize 64MiB`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Configuration (%s):\n", config.ConfigPath())
	fmt.Fprintln(out, strings.Repeat("-", 40))
	for _, key := range config.Keys() {
		value, err := cfg.Value(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s: %s\n", key, value)
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := config.SetValue(key, value); err != nil {
		return err
	}

	if key == "locale" {
		fmt.Fprintf(cmd.OutOrStdout(), "Locale set to '%s'. Restart mapstore-plugins to apply.\n", value)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s set to '%s'\n", key, value)
	return nil
}
