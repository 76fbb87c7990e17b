package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/cyber-siege/internal/config"
	"github.com/jwebster45206/cyber-siege/internal/handlers"
	"github.com/jwebster45206/cyber-siege/internal/logger"
	"github.com/jwebster45206/cyber-siege/internal/middleware"
	"github.com/jwebster45206/cyber-siege/internal/mission"
	"github.com/jwebster45206/cyber-siege/internal/services/events"
	"github.com/jwebster45206/cyber-siege/internal/storage"
	"github.com/jwebster45206/cyber-siege/pkg/room"
	"github.com/jwebster45206/cyber-siege/pkg/terminal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cyber Siege API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log,
		storage.WithSessionTTL(cfg.SessionTTL),
		storage.WithLockTTL(cfg.SessionLockTTL),
	)
	if err != nil {
		log.Error("Invalid storage configuration", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)

	interp := terminal.New(
		terminal.WithDelay(terminal.RandomDelay(cfg.CommandDelayMin, cfg.CommandDelayMax)),
		terminal.WithLogger(log),
	)

	missions, err := mission.NewService(store, interp,
		mission.WithPublisher(broadcaster),
		mission.WithLogger(log),
	)
	if err != nil {
		log.Error("Failed to create mission service", "error", err)
		os.Exit(1)
	}

	rooms, err := room.NewManager(room.Config{
		SuccessProbability: cfg.RoomSuccessProbability,
		GracePeriod:        cfg.RoomGracePeriod,
		ScoreLimit:         cfg.RoomScoreLimit,
	}, room.WithLogger(log))
	if err != nil {
		log.Error("Failed to create room manager", "error", err)
		os.Exit(1)
	}

	router := handlers.Router{
		Storage:  store,
		Missions: missions,
		Events:   broadcaster,
		Rooms:    rooms,
		RoomLen:  rooms.Len,
		Logger:   log,
	}

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, router.Handler()),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE stream and room sockets are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop rooms first so no new game starts while requests drain.
	rooms.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
