package cmd

import (
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
	"github.com/egoavara/mapstore-plugins/internal/tui"
)

var uninstallYes bool

var uninstallCmd = &cobra.Command{
	Use:     "uninstall [name]",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove an uploaded plugin",
	Long: `Remove an uploaded plugin from extensions.json and pluginsConfig.json
and delete its extracted files. Without a name an interactive picker opens.

Example:
  mapstore-plugins uninstall           # Interactive picker
  mapstore-plugins uninstall My --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "skip confirmation")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	uploader, err := newUploader(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return runUninstallPicker(cmd, uploader)
	}

	name := args[0]
	if !uninstallYes {
		item, err := uploader.Get(cmd.Context(), name)
		if errors.Is(err, plugin.ErrNotInstalled) {
			return fmt.Errorf("%s", i18n.T("NotInstalled", map[string]any{"Name": name}))
		}
		if err != nil {
			return err
		}

		ok, err := tui.RunUninstallConfirm(name, path.Dir(item.Extension.Bundle))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("UninstallCancelled", nil))
			return nil
		}
	}

	return uninstallOne(cmd, uploader, name)
}

func runUninstallPicker(cmd *cobra.Command, uploader *plugin.Uploader) error {
	items, err := uploader.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("NoPluginsInstalled", nil))
		return nil
	}

	result, err := tui.RunPluginPicker(items)
	if err != nil {
		return err
	}
	if result.Cancelled {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("UninstallCancelled", nil))
		return nil
	}

	var errs error
	for _, p := range result.ToUninstall {
		errs = multierr.Append(errs, uninstallOne(cmd, uploader, p.Name))
	}
	return errs
}

func uninstallOne(cmd *cobra.Command, uploader *plugin.Uploader, name string) error {
	if err := uploader.Uninstall(cmd.Context(), name); err != nil {
		if errors.Is(err, plugin.ErrNotInstalled) {
			return fmt.Errorf("%s", i18n.T("NotInstalled", map[string]any{"Name": name}))
		}
		return fmt.Errorf("%s: %w", i18n.T("UninstallFailed", map[string]any{"Name": name}), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("UninstallSuccess", map[string]any{"Name": name}))
	return nil
}
