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
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"fullmetal-planet/internal/config"
	"fullmetal-planet/internal/database"
	"fullmetal-planet/internal/room"
	"fullmetal-planet/internal/server"
	"fullmetal-planet/pkg/maps"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dbPath := flag.String("db", "", "Database path (overrides config)")
	printMap := flag.String("print-map", "", "Print an official map (or \"random\") and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Addr = ":" + *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if *printMap != "" {
		if err := dumpMap(cfg, *printMap); err != nil {
			fmt.Fprintf(os.Stderr, "map: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := maps.LoadAll(); err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	if cfg.Map.Official != "" && maps.Get(cfg.Map.Official) == nil {
		return fmt.Errorf("unknown official map %q", cfg.Map.Official)
	}

	var store room.Store
	if cfg.Persistence {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		store = room.NewDBStore(db)
		logger.Info("persistence enabled", zap.String("db_path", cfg.DBPath))
	} else {
		logger.Info("persistence disabled, rooms live in memory only")
	}

	rooms := room.NewManager(room.Options{
		TurnTimeLimit: cfg.TurnTimeLimit.Std(),
		Generator:     generatorOptions(cfg),
		DefaultMapID:  cfg.Map.Official,
	}, room.ReapPolicy{
		IdleTTL:       cfg.RoomTTL.Std(),
		FinishedGrace: cfg.FinishedGrace.Std(),
	}, store, logger.Named("rooms"))
	defer rooms.Close()

	if n := rooms.RestoreAll(); n > 0 {
		logger.Info("restored rooms", zap.Int("count", n))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rooms.Run(ctx, cfg.ReapInterval.Std())

	srv := server.New(server.Config{
		Addr:       cfg.Addr,
		PongWait:   cfg.Heartbeat.PongWait.Std(),
		PingPeriod: cfg.Heartbeat.PingPeriod.Std(),
		RateLimit:  rate.Limit(cfg.RateLimit.PerSecond),
		Burst:      cfg.RateLimit.Burst,
	}, rooms, logger.Named("server"))

	// Handle shutdown gracefully
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-done:
	case err := <-errc:
		return err
	}
	logger.Info("shutting down server")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

func generatorOptions(cfg *config.Config) maps.GeneratorOptions {
	gen := maps.DefaultOptions()
	gen.Width = cfg.Map.Width
	gen.Height = cfg.Map.Height
	gen.Minerals = cfg.Map.Minerals
	return gen
}

// dumpMap prints the board a new room would get.
func dumpMap(cfg *config.Config, id string) error {
	if err := maps.LoadAll(); err != nil {
		return err
	}
	var m *maps.Map
	if id == "random" {
		gen := generatorOptions(cfg)
		gen.Seed = time.Now().UnixNano()
		m = maps.NewGenerator(gen).Generate()
	} else if m = maps.Get(id); m == nil {
		return fmt.Errorf("unknown map %q", id)
	}
	fmt.Print(m.Debug())
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
