package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// GracefulShutdown waits for SIGINT or SIGTERM, stops the HTTP server and
// then runs each cleanup in order with the remaining time budget.
func GracefulShutdown(srv *http.Server, logger *zap.Logger, done chan<- struct{}, cleanups ...func(context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	for _, cleanup := range cleanups {
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("Cleanup failed during shutdown", zap.Error(err))
		}
	}

	logger.Info("Server exiting")
	close(done)
}
