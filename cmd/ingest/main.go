package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/replenit/purchase-planner/internal/config"
	"github.com/replenit/purchase-planner/internal/ingest"
	"github.com/replenit/purchase-planner/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize object storage
	store, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	ingestService := ingest.NewService(store, cfg.Storage.CatalogPrefix, cfg.App.DataDir)

	// Background re-sync so new uploads show up without manual calls
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interval := time.Duration(cfg.Storage.SyncIntervalMinutes) * time.Minute
	go ingest.NewWatcher(ingestService, interval).Run(ctx)

	// Create router
	r := mux.NewRouter()

	// Register routes
	ingestHandler := ingest.NewHandler(ingestService)
	ingestHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
