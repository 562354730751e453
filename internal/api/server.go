// Package api exposes package scoring over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/huangsam/trustscore/internal/contract"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// NewRouter builds the HTTP routes around rater.
func NewRouter(cfg *contract.Config, rater contract.PackageRater, logger *zap.SugaredLogger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	h := NewHandler(cfg, rater, logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), cors.Default())

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/metrics", h.ListMetrics)
		v1.GET("/rate", h.RatePackage)
		v1.POST("/rate", h.RatePackages)
	}
	return r
}

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infow("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP())
	}
}

// Serve runs the server on addr until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
