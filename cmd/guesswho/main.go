package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appcfg "github.com/park285/guesswho/internal/config"
	"github.com/park285/guesswho/internal/gamebuilder"
	"github.com/park285/guesswho/internal/httpapi"
	"github.com/park285/guesswho/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		log.Fatalf("logger error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	_ = obslog.L().Sync()
	if err != nil {
		log.Fatalf("guesswho: %v", err)
	}
}

// run serves until ctx is cancelled, then shuts the server down and releases
// the stores.
func run(ctx context.Context, cfg *appcfg.AppConfig) error {
	logger := obslog.L()

	deps, err := gamebuilder.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("deps_close", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(deps.Service, httpapi.Options{
		JWTSecret:      cfg.JWTSecret,
		ChatRatePerMin: cfg.ChatRatePerMin,
	})
	if cfg.JWTSecret == "" {
		logger.Warn("identity_header_mode", zap.String("header", "X-User-Id"))
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_listen", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown", zap.Error(err))
	}
	logger.Info("shutdown_complete")
	return nil
}
