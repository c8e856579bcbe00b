package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	grpcapi "voice-outbound-service/internal/api/grpc"
	"voice-outbound-service/internal/app"
	"voice-outbound-service/internal/config"
	httpapi "voice-outbound-service/internal/http"
	"voice-outbound-service/internal/observability"
	"voice-outbound-service/internal/observability/metrics"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiServer := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
	}
	obsServer := observability.NewServer(":"+cfg.Service.MetricsPort, application.Ready)
	grpcServer := grpcapi.New(metrics.DefaultMetrics)

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("Failed to listen")
	}

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	grpcServer.SetServing(true)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", apiServer.Addr).Msg("Voice outbound API started")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(obsServer.ListenAndServe)
	g.Go(func() error {
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers")

		grpcServer.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return errors.Join(apiServer.Shutdown(shutdownCtx), obsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
}
