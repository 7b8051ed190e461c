package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkredacao/portal-client/internal/config"
	"github.com/mkredacao/portal-client/internal/gateway"
	"github.com/mkredacao/portal-client/internal/handler"
	"github.com/mkredacao/portal-client/internal/logger"
	"github.com/mkredacao/portal-client/internal/nav"
	"github.com/mkredacao/portal-client/internal/router"
	"github.com/mkredacao/portal-client/internal/store"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ProxyPort).
		Str("upstream", cfg.APIBaseURL).
		Str("cred_store", cfg.StoreBackend).
		Msg("Starting portal devproxy")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Credential Store ──────────────────────────────────────────────
	st, err := store.Build(ctx, cfg.StoreBackend, cfg.StorePath, cfg.RedisURL, cfg.RedisKeyPrefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}

	// ─── Gateway ───────────────────────────────────────────────────────
	// The proxy has no page to navigate away from; a MemLocation absorbs
	// the redirect the gateway schedules on auth failure.
	gw := gateway.New(
		cfg.APIBaseURL,
		st,
		nav.NewMemLocation("/devproxy"),
		nav.LogNotifier{Log: log},
		cfg.LoginRoutes(),
		cfg.RedirectDelay,
		log,
	)

	// ─── Router ────────────────────────────────────────────────────────
	handlers := &router.Handlers{
		Proxy: handler.NewProxyHandler(gw, log),
	}
	engine := router.SetupRouter(handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ProxyPort,
		Handler: engine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Proxy server failed")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("Devproxy listening")

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down devproxy...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Devproxy stopped")
}
