package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/tracer"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/config"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/logger"
	"github.com/FACorreiaa/voyagr-planner/internal/routes"
	"github.com/FACorreiaa/voyagr-planner/internal/server"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Observability.LogLevel, zap.String("service", cfg.Observability.ServiceName)); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	otelShutdown, err := server.InitObservability(tracer.Options{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		MetricsAddr:    cfg.Observability.MetricsAddr,
	}, l)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, l)
	if err != nil {
		return err
	}
	defer srv.Close()

	app, err := routes.Build(cfg, srv.GetDBPool(), l)
	if err != nil {
		return err
	}
	srv.SetRouter(server.SetupRouter(app, cfg.Observability.ServiceName, l))

	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, l)

	httpServer := srv.HTTPServer()
	done := make(chan struct{})
	go server.GracefulShutdown(httpServer, l, done,
		app.Shutdown,
		func(ctx context.Context) error {
			if pprofServer == nil {
				return nil
			}
			return pprofServer.Shutdown(ctx)
		},
		otelShutdown,
	)

	l.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("booking_backend", cfg.BookingBackend))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	l.Info("Graceful shutdown complete")
	return nil
}
