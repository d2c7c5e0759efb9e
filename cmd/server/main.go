package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"github.com/gridclash/gridclash-server/internal/config"
	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/gridclash/gridclash-server/internal/repository"
	"github.com/gridclash/gridclash-server/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Grid Clash server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if len(cfg.Auth.Tokens) == 0 {
		logger.Warn("no auth tokens configured; running in open mode, identity comes from the X-User-ID header")
	}

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Log database stats
	stats := db.Stats()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	// Load the card catalog
	cat := catalog.New(logger)
	catalogRepo := repository.NewCardCatalogRepository(db)
	if err := catalogRepo.Load(ctx, cat); err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}

	// Initialize the game engine over the games table
	gameRepo := repository.NewGameRepository(db)
	engine := game.NewEngine(cat, gameRepo, cfg.Game.HandSize, logger)
	logger.Info("game engine initialized",
		zap.Int("hand_size", cfg.Game.HandSize),
		zap.String("default_difficulty", cfg.Game.DefaultDifficulty),
	)

	deckRepo := repository.NewDeckRepository(db)

	auth := server.NewAuthenticator(cfg.Auth.Tokens, logger)
	srv := server.NewServer(engine, deckRepo, auth, server.Options{
		DefaultDifficulty: cfg.Game.DefaultDifficulty,
		ReplayDir:         cfg.Game.ReplayDir,
		RecordReplays:     cfg.Game.RecordReplays,
	}, logger)

	// Start the websocket hub
	go srv.Hub().Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	logger.Info("Grid Clash server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.Bool("record_replays", cfg.Game.RecordReplays),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	cancel()

	logger.Info("Grid Clash server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
