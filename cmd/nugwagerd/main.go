package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"nugwager/config"
	"nugwager/core/events"
	"nugwager/native/wager"
	"nugwager/observability/logging"
	"nugwager/rpc"
	"nugwager/state"
	"nugwager/storage"
)

const eventTailLimit = 1024

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memoryFlag := flag.Bool("memory", false, "DEV ONLY: run against an in-memory store instead of LevelDB")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("NUGWAGER_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("nugwagerd", env, cfg.LogFile)

	var db storage.Database
	if *memoryFlag {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	wagerState := state.NewWagerState(db)
	emitter := events.NewMemoryEmitter(eventTailLimit)

	engine := wager.NewEngine()
	engine.SetState(wagerState)
	engine.SetEmitter(emitter)
	engine.SetWindows(cfg.RevealWindow, cfg.FinalClaimWindow)

	if authority, ok := cfg.Authority(); ok {
		id := wager.GameID(authority)
		logger.Info("Configured game authority",
			slog.String("authority", cfg.AuthorityAddress),
			slog.String("gameId", fmt.Sprintf("%x", id)))
	} else {
		logger.Warn("No game authority configured; wager_initializeGame must name one explicitly")
	}

	server := rpc.NewServer(engine, wagerState, emitter)
	server.SetSubmissionWindow(cfg.SubmissionWindow)
	server.SetRateLimit(cfg.RPCRateLimitPerMinute, 30)

	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
