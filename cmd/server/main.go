package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nnaakkaaii/rankmerge/internal/domain"
	"github.com/nnaakkaaii/rankmerge/internal/httpapi"
	"github.com/nnaakkaaii/rankmerge/internal/logx"
	"github.com/nnaakkaaii/rankmerge/internal/usecase"
)

func main() {
	var (
		addr     = flag.String("addr", ":8080", "listen address")
		depth    = flag.Int("depth", 5, "default search depth")
		spawn    = flag.Int("spawn", 1, "rank placed at chance nodes")
		budget   = flag.Int("budget", 0, "node budget per request (0 = unlimited)")
		parallel = flag.Bool("parallel", true, "search root moves in parallel")
		logLevel = flag.String("log", "info", "log level")
	)
	flag.Parse()

	logger := logx.NewLoggerTo(os.Stderr, logx.ParseLevel(*logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	advisor, err := usecase.NewAdvisor(domain.SearchConfig{SearchDepth: *depth, SpawnValue: *spawn, NodeBudget: *budget}, *parallel, logger.With().Str("component", "solver").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("create advisor")
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewRouter(httpapi.NewServer(logger.With().Str("component", "http").Logger(), advisor, *parallel)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down...")
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("api server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}
}
