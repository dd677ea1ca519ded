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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aerialtv/aerial/internal/api"
	"github.com/aerialtv/aerial/internal/audit"
	"github.com/aerialtv/aerial/internal/auth"
	"github.com/aerialtv/aerial/internal/collection"
	"github.com/aerialtv/aerial/internal/config"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/store"
	"github.com/aerialtv/aerial/internal/telemetry"
	"github.com/aerialtv/aerial/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil { log.Fatalf("config: %v", err) }
	if err := cfg.Validate(); err != nil { log.Fatalf("config: %v", err) }
	if err := registry.Validate(); err != nil { log.Fatalf("registry: %v", err) }

	telemetry.Init()

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil { log.Fatalf("store: %v", err) }
	defer st.Close()

	// initial snapshot
	s, err := snapshot.Rebuild(ctx, st)
	if err != nil { log.Fatalf("snapshot: %v", err) }
	telemetry.SnapshotChannels.Set(float64(len(s.Channels)))
	telemetry.SnapshotMedia.Set(float64(len(s.Media)))
	log.Printf("snapshot: %d channels, %d media, etag=%s", len(s.Channels), len(s.Media), s.ETag)

	dispatcher := webhook.NewDispatcher(cfg.WebhookURL, cfg.WebhookSecret)
	dispatcher.Start()
	defer dispatcher.Close()

	auditor := audit.NewService(audit.LogSink{})
	collections := collection.NewService(st, auditor, dispatcher)

	adminKey := cfg.AdminAPIKey
	if adminKey == "" {
		adminKey, err = auth.GenerateAPIKey(cfg.KeyPrefix)
		if err != nil { log.Fatalf("admin key: %v", err) }
		log.Printf("ADMIN_API_KEY not set; generated ephemeral admin key: %s", adminKey)
	}

	srvAPI := api.NewServer(st, collections, adminKey, cfg.PreviewLimit)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Printf("metrics on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Println("stopped")
}
