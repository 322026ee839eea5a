package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/egoavara/mapstore-plugins/internal/config"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
	"github.com/egoavara/mapstore-plugins/internal/webctx"
)

var (
	verbose     bool
	webRoot     string
	bundlesPath string

	logger = zerolog.Nop()

	rootCmd = &cobra.Command{
		Use:           "mapstore-plugins",
		Short:         "Install MapStore extension bundles",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `mapstore-plugins installs plugin bundles (ZIP archives holding index.json
and a JavaScript bundle) into a MapStore web application and registers
them in extensions.json and pluginsConfig.json.

Commands:
  serve      Run the HTTP upload endpoint
  upload     Install a plugin archive
  uninstall  Remove an uploaded plugin
  list       Show uploaded plugins
  search     Search plugins declared in pluginsConfig.json
  config     Manage configuration`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&webRoot, "web-root", "w", "", "MapStore web application directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&bundlesPath, "bundles-path", "", "bundle directory relative to the web root (default dist/extensions)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// settings holds flag values layered over the config file
type settings struct {
	WebRoot     string
	BundlesPath string
}

// resolveSettings prefers explicitly set flags over cfg
func resolveSettings(flags *pflag.FlagSet, cfg *config.Config) settings {
	s := settings{
		WebRoot:     cfg.WebRoot,
		BundlesPath: cfg.BundlesPath,
	}
	if flags.Changed("web-root") {
		s.WebRoot = webRoot
	}
	if flags.Changed("bundles-path") {
		s.BundlesPath = bundlesPath
	}
	if s.WebRoot == "" {
		s.WebRoot = "."
	}
	return s
}

// newUploader builds an Uploader rooted at the effective web root
func newUploader(cmd *cobra.Command, opts ...plugin.Option) (*plugin.Uploader, error) {
	s := resolveSettings(cmd.Flags(), config.Get())

	root, err := filepath.Abs(s.WebRoot)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("webRoot", root).Str("bundlesPath", s.BundlesPath).Msg("using web root")

	opts = append([]plugin.Option{plugin.WithLogger(logger)}, opts...)
	u := plugin.NewUploader(webctx.NewDirResolver(root), opts...)
	u.SetBundlesPath(s.BundlesPath)
	return u, nil
}
