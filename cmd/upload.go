package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/egoavara/mapstore-plugins/internal/i18n"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.zip>",
	Short: "Install a plugin archive into the web root",
	Long: `Validate a plugin archive, extract it under the bundles path and
register it in extensions.json and pluginsConfig.json.

Example:
  mapstore-plugins upload my-plugin.zip
  mapstore-plugins upload my-plugin.zip --bundles-path custom`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	uploader, err := newUploader(cmd)
	if err != nil {
		return err
	}

	result, err := uploader.Upload(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("UploadFailed", map[string]any{"File": args[0]}), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
