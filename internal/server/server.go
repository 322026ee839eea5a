package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/egoavara/mapstore-plugins/internal/plugin"
)

const (
	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"

	defaultShutdownTimeout = 10 * time.Second
)

// Server exposes the plugin uploader over HTTP
type Server struct {
	engine   *gin.Engine
	uploader *plugin.Uploader
	metrics  *metrics
	logger   zerolog.Logger
	pprof    bool

	shutdownTimeout time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithPprof exposes runtime profiles under /debug/pprof
func WithPprof() Option {
	return func(s *Server) {
		s.pprof = true
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// New creates a server for uploader
func New(uploader *plugin.Uploader, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		engine:   gin.New(),
		uploader: uploader,
		metrics:  newMetrics(),
		logger:   logger,

		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(requestID(), s.logRequests(), gin.Recovery())

	api := s.engine.Group("/rest/config")
	api.POST("/uploadPlugin", s.handleUpload)
	api.DELETE("/uninstallPlugin/:name", s.handleUninstall)
	api.GET("/load/:resource", s.handleLoad)
	api.GET("/plugins", s.handleList)

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	if s.pprof {
		pprof.Register(s.engine)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", addr).Msg("server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := s.logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = s.logger.Error()
		}
		event.
			Str("request_id", c.GetString(RequestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
