package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/notify"
	"taskhub/internal/server"
	"taskhub/internal/tasks"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("Starting taskhub application...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	store := db.NewStore(database)

	mailer := notify.NewMailer(nil, cfg.Mail.QueueSize)
	mailer.Start()

	dispatcher := notify.NewDispatcher(store, mailer)
	if cfg.Discord.Token != "" && cfg.Discord.ChannelID != "" {
		if err := dispatcher.WithDiscord(cfg.Discord.Token, cfg.Discord.ChannelID); err != nil {
			log.Fatalf("Failed to set up Discord sink: %v", err)
		}
	}

	svc := tasks.NewService(store, dispatcher)
	srv := server.New(svc, store, store, cfg.Server.JWTSecret)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Listening on :%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	s := <-quit
	log.Printf("Received signal: %v", s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	mailer.Stop()

	log.Println("Application shutdown complete")
}
