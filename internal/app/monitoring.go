package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/discretego/internal/ctxlog"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// monitoringHandler serves /health and the discretization metrics on
// /metrics.
func (a *App) monitoringHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// startMonitoringServer starts the monitoring server in the background.
func (a *App) startMonitoringServer(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring monitoring server.")

	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("monitoring server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.monitoringHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Monitoring server starting", "address", fmt.Sprintf("http://localhost%s/metrics", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Monitoring server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeMonitoringServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Monitoring server was not running.")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Debug("Shutting down monitoring server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Monitoring server shutdown failed", "error", err)
		return
	}
	a.httpServer = nil
	logger.Debug("Monitoring server shut down gracefully.")
}
