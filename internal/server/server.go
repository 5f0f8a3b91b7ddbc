// Package server exposes the health check and the keyed manual sweep
// trigger over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/fleetbot/internal/reminder"
)

// Sweeper runs one reminder sweep. Satisfied by *reminder.Scheduler.
type Sweeper interface {
	Sweep(ctx context.Context) (reminder.Summary, error)
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Sweeper Sweeper
	CronKey string // guards /cron; empty disables the manual trigger
	Port    int
	Out     io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Sweeper == nil {
		return fmt.Errorf("server: sweeper is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts.Sweeper, opts.CronKey)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "HTTP listening on :%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// registerRoutes wires the route handlers. Split out for httptest use.
func registerRoutes(router *gin.Engine, sweeper Sweeper, cronKey string) {
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.GET("/cron", func(c *gin.Context) {
		if cronKey == "" || c.Query("key") != cronKey {
			c.String(http.StatusForbidden, "forbidden")
			return
		}
		summary, err := sweeper.Sweep(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "result": summary})
	})
}
