package main

import (
	"context"
	_ "embed"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ededdyj/Baby-Data/internal/config"
	"github.com/ededdyj/Baby-Data/internal/database"
	"github.com/ededdyj/Baby-Data/internal/server"
	"github.com/ededdyj/Baby-Data/internal/store"
)

//go:embed static/index.html
var indexHTML []byte

func main() {
	logger := log.New(os.Stdout, "[babydata] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	eventStore := store.New(db, cfg.LocalTimezone)
	srv := server.New(cfg, eventStore, logger, indexHTML)

	go func() {
		logger.Printf("serving on http://localhost:%s", cfg.Port)
		if err := srv.Listen(":" + cfg.Port); err != nil {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(srv, logger)
}

func waitForShutdown(srv *server.Server, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
}
