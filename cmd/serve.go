package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/egoavara/mapstore-plugins/internal/config"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
	"github.com/egoavara/mapstore-plugins/internal/server"
)

var (
	serveListen        string
	serveMaxUploadSize string
	servePprof         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plugin upload HTTP endpoint",
	Long: `Run an HTTP server exposing the MapStore plugin endpoints:

  POST   /rest/config/uploadPlugin
  DELETE /rest/config/uninstallPlugin/:name
  GET    /rest/config/load/:resource
  GET    /rest/config/plugins
  GET    /metrics

Example:
  mapstore-plugins serve --web-root /srv/mapstore --listen :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveMaxUploadSize, "max-upload-size", "", "maximum archive size, e.g. 32MiB; 0 disables (default from config)")
	serveCmd.Flags().BoolVar(&servePprof, "pprof", false, "expose /debug/pprof")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	listen := cfg.Server.Listen
	if cmd.Flags().Changed("listen") {
		listen = serveListen
	}
	sizeValue := cfg.Server.MaxUploadSize
	if cmd.Flags().Changed("max-upload-size") {
		sizeValue = serveMaxUploadSize
	}
	maxSize, err := config.ParseSize(sizeValue)
	if err != nil {
		return err
	}

	uploader, err := newUploader(cmd, plugin.WithMaxUploadSize(maxSize))
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info().
		Str("bundlesPath", uploader.BundlesPath()).
		Str("maxUploadSize", humanize.IBytes(uint64(maxSize))).
		Msg("starting server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := cfg.Server.ShutdownDuration()
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithShutdownTimeout(shutdown)}
	if servePprof {
		opts = append(opts, server.WithPprof())
	}
	return server.New(uploader, logger, opts...).Run(ctx, listen)
}
