// Package server exposes cut selection and timeline planning over HTTP.
//
// Routes:
//
//	GET  /healthz         liveness
//	POST /v1/cuts         select cuts for a beat list
//	POST /v1/plans        build, store and return a plan document
//	GET  /v1/plans        list stored plan IDs
//	GET  /v1/plans/:id    fetch a stored plan
//
// Request params are decoded over the server defaults, so clients send only
// the knobs they change.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/backmassage/beatcut/internal/plan"
	"github.com/backmassage/beatcut/internal/store"
)

// Logger is the minimal logging interface needed by the server.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Server holds the handlers' shared state. Handlers are safe for
// concurrent use; the store is the only shared mutable dependency.
type Server struct {
	store    store.Store
	log      Logger
	defaults plan.Params
}

// New returns a server backed by st, filling omitted request params from
// defaults.
func New(st store.Store, log Logger, defaults plan.Params) *Server {
	return &Server{store: st, log: log, defaults: defaults.Clone()}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", handleHealth)
	v1 := r.Group("/v1")
	v1.POST("/cuts", s.handleCuts)
	v1.POST("/plans", s.handleCreatePlan)
	v1.GET("/plans", s.handleListPlans)
	v1.GET("/plans/:id", s.handleGetPlan)
	return r
}

// accessLog writes one line per request through the server logger.
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		line := "%s %s %d %s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond)}
		switch {
		case status >= 500:
			s.log.Error(line, args...)
		case status >= 400:
			s.log.Warn(line, args...)
		default:
			s.log.Info(line, args...)
		}
	}
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, log Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
