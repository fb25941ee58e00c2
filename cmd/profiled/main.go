package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/celerix-dev/wizards-profile/internal/api"
	"github.com/celerix-dev/wizards-profile/internal/config"
	"github.com/celerix-dev/wizards-profile/internal/facts"
	"github.com/celerix-dev/wizards-profile/internal/logger"
	"github.com/celerix-dev/wizards-profile/internal/profile"
	"github.com/celerix-dev/wizards-profile/internal/server"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Environment and configuration
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.New("profiled")
	gin.SetMode(cfg.GinMode)

	// 2. Fact provider and handler
	provider := facts.NewClient(cfg.CatFactURL, cfg.CatFactTimeout)
	h := &api.Handler{
		Identity: profile.Identity{
			Email: cfg.UserEmail,
			Name:  cfg.UserName,
			Stack: cfg.UserStack,
		},
		Facts:       provider,
		Log:         log,
		FactTimeout: cfg.CatFactTimeout,
	}

	router := server.NewRouter(h, log, cfg.ShutdownTimeout)

	// 3. Serve until SIGINT/SIGTERM
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return router.Listen(ctx, cfg.Addr())
	})
	g.Go(func() error {
		<-ctx.Done()
		if sigCtx.Err() != nil {
			log.Info("Shutdown signal received. Draining connections...")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("HTTP server failed")
	}
	log.Info("Server stopped")
}
