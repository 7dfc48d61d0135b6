// Package server exposes detection and conversion over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/tordrt/schemaconv"
)

// RequestIDHeader carries the per-request identifier
const RequestIDHeader = "X-Request-ID"

// Server routes API requests to the conversion engine
type Server struct {
	logger *slog.Logger
	opts   schemaconv.GenerateOptions
	engine *gin.Engine

	mu      sync.Mutex
	entropy io.Reader
}

// New builds a server whose conversions use opts
func New(logger *slog.Logger, opts schemaconv.GenerateOptions) *Server {
	gin.SetMode(gin.ReleaseMode)

	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Server{
		logger:  logger,
		opts:    opts,
		engine:  gin.New(),
		entropy: ulid.Monotonic(src, 0),
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.logRequests())
	api := s.engine.Group("/api")
	{
		api.GET("/formats", s.formats)
		api.POST("/detect", s.detect)
		api.POST("/convert", s.convert)
		api.POST("/parse", s.parse)
	}
	return s
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.engine
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
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := s.newID()
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("requestID"),
		)
	}
}
