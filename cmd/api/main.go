package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ideagate/api/internal/app"
	"ideagate/api/internal/bus"
	"ideagate/api/internal/config"
	"ideagate/api/internal/email"
	"ideagate/api/internal/files"
	"ideagate/api/internal/search"
	"ideagate/api/internal/store"
	"ideagate/api/internal/util"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(dataStore.DB())
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	var filesService *files.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		filesService, err = files.NewMinio(ctx, files.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		log.Printf("Storing attachments in MinIO bucket %s", cfg.MinioBucket)
	} else {
		filesService, err = files.NewLocal(cfg.UploadsDir)
		if err != nil {
			log.Fatalf("failed to create uploads dir: %v", err)
		}
		log.Printf("Storing attachments on local disk at %s", cfg.UploadsDir)
	}

	// Chat events fan out on an in-process bus; with Redis configured
	// the bridge replays events across nodes.
	events := bus.New()
	defer events.Close()
	var publisher bus.Publisher = events
	if strings.TrimSpace(cfg.RedisURL) != "" {
		bridge, err := bus.NewRedisBridge(cfg.RedisURL, util.NewID("node"), events)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer bridge.Close()
		publisher = bridge
		log.Printf("Relaying chat events through Redis")
	}

	service := app.New(cfg, dataStore, events, publisher, emailService, filesService, searchService)
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// No global read/write timeouts: conversation streams hold
		// their websocket open and set per-message deadlines instead.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("IdeaGate API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
