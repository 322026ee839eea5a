package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egoavara/mapstore-plugins/internal/bundle"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
)

const (
	uploadFormField = "file"

	// multipartOverhead leaves room for boundaries and part headers around the archive
	multipartOverhead = 64 << 10
)

func (s *Server) handleUpload(c *gin.Context) {
	start := time.Now()
	defer func() {
		s.metrics.uploadDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := s.uploadBody(c)
	if err != nil {
		status := http.StatusBadRequest
		if tooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		s.metrics.uploads.WithLabelValues(resultLabel(status)).Inc()
		s.fail(c, status, err)
		return
	}
	defer body.Close()

	summary, err := s.uploader.UploadSummary(c.Request.Context(), body)
	if err != nil {
		status := statusFor(err)
		s.metrics.uploads.WithLabelValues(resultLabel(status)).Inc()
		s.fail(c, status, err)
		return
	}

	s.metrics.uploads.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, summary)
}

// uploadBody accepts either a multipart form with a "file" field or the raw archive as body.
// Multipart bodies are bounded before parsing; the raw body is bounded by the uploader.
func (s *Server) uploadBody(c *gin.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, nil
	}
	if limit := s.uploader.MaxUploadSize(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	header, err := c.FormFile(uploadFormField)
	if err != nil {
		return nil, err
	}
	return header.Open()
}

func (s *Server) handleUninstall(c *gin.Context) {
	name := c.Param("name")
	if err := s.uploader.Uninstall(c.Request.Context(), name); err != nil {
		status := statusFor(err)
		s.metrics.uninstalls.WithLabelValues(resultLabel(status)).Inc()
		s.fail(c, status, err)
		return
	}

	s.metrics.uninstalls.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"name": name, "uninstalled": true})
}

func (s *Server) handleLoad(c *gin.Context) {
	data, err := s.uploader.ReadDocument(c.Param("resource"))
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleList(c *gin.Context) {
	items, err := s.uploader.List(c.Request.Context())
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	if items == nil {
		items = []plugin.Installed{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", c.GetString(RequestIDHeader)).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case tooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, bundle.ErrInvalidArchive), errors.Is(err, bundle.ErrMissingBundle):
		return http.StatusBadRequest
	case errors.Is(err, plugin.ErrNotInstalled), errors.Is(err, plugin.ErrUnknownDocument):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.Is(err, bundle.ErrTooLarge) || errors.As(err, &maxBytes)
}

func resultLabel(status int) string {
	switch {
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusNotFound:
		return "not_found"
	case status < http.StatusInternalServerError:
		return "invalid"
	default:
		return "error"
	}
}
