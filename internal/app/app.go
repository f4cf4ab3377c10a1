package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault-gateway/internal/browser"
	"vault-gateway/internal/capture"
	"vault-gateway/internal/config"
	"vault-gateway/internal/database"
	"vault-gateway/internal/handler"
	"vault-gateway/internal/repository"
	"vault-gateway/internal/router"
	"vault-gateway/internal/service"
	"vault-gateway/internal/terabox"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	tokenRepo := repository.NewTokenRepository(pool)
	containerRepo := repository.NewContainerRepository(pool)
	itemRepo := repository.NewItemRepository(pool)
	slog.Info("database ready")

	tokenService := service.NewTokenService(tokenRepo)

	captureController := capture.NewController(
		browser.NewChromeLauncher(),
		tokenService,
		terabox.FilterCookies,
		cfg.BrowserProfileDir,
		cfg.RemoteBaseURL+"/",
	)

	remoteClient := terabox.NewClient(cfg.RemoteBaseURL, cfg.RemoteUserAgent, cfg.RemoteTimeout)
	shareProbe := browser.NewShareProbe(cfg.RemoteBaseURL, cfg.RemoteUserAgent)

	fetchService := service.NewFetchService(shareProbe, remoteClient, tokenService, containerRepo, itemRepo, cfg.PublicFetchTimeout)
	containerService := service.NewContainerService(containerRepo, itemRepo)
	streamService := service.NewStreamService(itemRepo, tokenService, cfg.RemoteBaseURL, cfg.RemoteUserAgent)

	captureHandler := handler.NewCaptureHandler(captureController, tokenService)
	containerHandler := handler.NewContainerHandler(containerService, fetchService)
	streamHandler := handler.NewStreamHandler(streamService)

	appRouter := router.New(cfg, captureHandler, containerHandler, streamHandler)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
		// No WriteTimeout: transfer routes enforce their own deadlines and a
		// global one would cut long movies short.
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				captureController.Close()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
