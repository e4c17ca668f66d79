package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keywordpulse/internal/config"
	"keywordpulse/internal/handler"
	"keywordpulse/internal/service"
	"keywordpulse/internal/session"
	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "", "Configuration file path (empty: environment and .env only)")
	flag.BoolVar(&app.debug, "debug", os.Getenv("DEBUG") == "true", "Enable debug mode (env: DEBUG)")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	if app.debug {
		logCfg.Level = "debug"
	}
	logger.SetLogger(logger.New(logCfg))
	serverLog := logger.GetLogger().Component("server")

	client, err := provider.NewClient(cfg.ProviderClient())
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}

	dashboard := service.NewDashboard(
		session.NewRegistry(cfg.Session.MaxSessions, cfg.Session.TTL),
		keyword.NewOrchestrator(client),
		imageedit.NewOrchestrator(client),
		chat.NewOrchestrator(client),
	)
	server := handler.NewApp(dashboard, handler.Config{
		BodyLimitBytes: cfg.Server.BodyLimitBytes,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		serverLog.WithFields(map[string]interface{}{
			"addr":    cfg.ListenAddr(),
			"api_key": logger.MaskSecret(cfg.Provider.APIKey),
		}).Info("Starting keywordpulse server")
		errChan <- server.Listen(cfg.ListenAddr())
	}()

	go func() {
		<-sigChan
		serverLog.Info("Shutdown signal received")
		cancel()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	serverLog.Info("Shutting down gracefully")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	serverLog.Info("Server stopped")
	return nil
}
