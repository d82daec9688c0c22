package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/api"
	"github.com/activofijo/vales-resguardo/internal/assets"
	"github.com/activofijo/vales-resguardo/internal/config"
	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/logger"
	"github.com/activofijo/vales-resguardo/internal/session"
	"github.com/activofijo/vales-resguardo/internal/storage"
	"github.com/activofijo/vales-resguardo/internal/upload"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, config.DefaultConfigFile)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(logger.New(cfg.Advanced.LogLevel))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, configPath, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, log *zap.Logger) error {
	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}
	maxExtracted, err := cfg.MaxExtractedBytes()
	if err != nil {
		return err
	}

	// Initialize storage
	store := storage.NewMemoryStore(maxUpload)

	// Initialize session manager; dropped sessions free their upload
	sessionMgr := session.NewManager(session.Options{
		MaxSessions: cfg.Processing.MaxSessions,
		KeepAlive:   cfg.KeepAlive(),
		Logger:      logger.Named(log, "session"),
		OnRelease: func(fileID string) {
			if err := store.Delete(fileID); err != nil {
				log.Debug("release upload", zap.String("file", fileID), zap.Error(err))
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					log.Info("session cleanup", zap.Int("removed", n), zap.Int("open", sessionMgr.Count()))
				}
			}
		}
	}()

	layout, err := document.LoadLayout(cfg.Document.LayoutFile)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	layout.Apply(document.Overrides{
		HeaderAsset:     cfg.Document.HeaderAsset,
		FooterAsset:     cfg.Document.FooterAsset,
		AuthorizingName: cfg.Document.AuthorizingOfficer,
		AuthorizingRole: cfg.Document.AuthorizingTitle,
	})

	generator := document.NewGenerator(document.Options{
		Layout: layout,
		Assets: assets.NewDirLoader(cfg.Document.AssetDirectory, cfg.Document.MaxAssetWidth, cfg.AssetCacheTTL(), logger.Named(log, "assets")),
		Logger: logger.Named(log, "document"),
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		Timeout:          time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Compression:      cfg.Processing.EnableCompression,
		CompressionLevel: cfg.Processing.CompressionLevel,
		BodyLimit:        cfg.Server.BodyLimit,
		AllowOrigins:     allowOrigins(cfg),
		Debug:            strings.EqualFold(cfg.Advanced.LogLevel, "debug"),
	}, logger.Named(log, "http"))

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:      store,
		SessionMgr: sessionMgr,
		Processor:  upload.NewProcessor(nil, maxExtracted, logger.Named(log, "upload")),
		Vouchers:   generator,
		Archives:   document.NewBatch(generator, logger.Named(log, "batch")),
		Allowed:    cfg.AllowedExtensions(),
		Logger:     logger.Named(log, "api"),
		Version:    Version,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath)

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func allowOrigins(cfg *config.AppConfig) []string {
	if !cfg.Server.EnableCORS {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(cfg.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func printBanner(cfg *config.AppConfig, configPath string) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Vales de Resguardo Server                       ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-39s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Assets:    %-46s║\n", cfg.Document.AssetDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
