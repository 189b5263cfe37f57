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

	"civiclink/api/internal/app"
	"civiclink/api/internal/authpw"
	"civiclink/api/internal/config"
	"civiclink/api/internal/email"
	"civiclink/api/internal/geo"
	"civiclink/api/internal/notify"
	"civiclink/api/internal/photo"
	"civiclink/api/internal/search"
	"civiclink/api/internal/session"
	"civiclink/api/internal/store"
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

	sessionStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer sessionStore.Close()

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)
	searchService.ReindexAllFromPG(ctx)

	var photoStore *photo.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		photoStore, err = photo.NewStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		log.Printf("Photo storage enabled (bucket %s)", cfg.MinioBucket)
	} else {
		log.Printf("Photo storage disabled")
	}

	var geoClient *geo.Client
	if strings.TrimSpace(cfg.GeoBaseURL) != "" {
		geoClient = geo.NewClient(nil, cfg.GeoBaseURL, cfg.GeoAPIKey)
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	dispatcher := notify.NewDispatcher(mailer, dataStore)

	accounts := authpw.NewService(dataStore)

	var service *app.Service
	if photoStore != nil {
		service = app.New(cfg, dataStore, sessionStore, accounts, dispatcher, searchService, geoClient, photoStore)
	} else {
		service = app.New(cfg, dataStore, sessionStore, accounts, dispatcher, searchService, geoClient, nil)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CivicLink API listening on %s", cfg.Addr)
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
