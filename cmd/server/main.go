package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	appdownload "vidq/internal/application/download"
	"vidq/internal/config"
	downloaddomain "vidq/internal/domain/download"
	"vidq/internal/infrastructure/jobstore"
	"vidq/internal/infrastructure/memcache"
	"vidq/internal/infrastructure/providerapi"
	"vidq/internal/infrastructure/schedule"
	httptransport "vidq/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	store, err := jobstore.NewStore(cfg.DataFile)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	client := providerapi.NewClient(providerapi.Config{
		APIKey:                 cfg.APIKey,
		BaseURL:                cfg.APIBaseURL,
		ProgressEndpoint:       cfg.ProgressEndpoint,
		LegacyProgressEndpoint: cfg.LegacyProgressEndpoint,
		Timeout:                time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		RetryAttempts:          cfg.RetryAttempts,
		RetryDelay:             time.Duration(cfg.RetryDelayMillis) * time.Millisecond,
	}, log.Default())

	dispatcher := schedule.NewDispatcher(log.Default())
	cache := memcache.New()

	downloadService := appdownload.NewService(client, store, dispatcher, cache, log.Default(), appdownload.Config{
		MonitorAttempts: cfg.MonitorAttempts,
		MonitorDelay:    time.Duration(cfg.MonitorDelaySeconds) * time.Second,
		InfoCacheTTL:    time.Duration(cfg.InfoCacheTTLSeconds) * time.Second,
	})
	dispatcher.SetHandler(func(ctx context.Context, id string) {
		if err := downloadService.Process(ctx, id); err != nil {
			log.Printf("scheduled processing failed: %s: %v", id, err)
		}
	})

	resumeInterrupted(store, dispatcher)

	handler := httptransport.NewHandler(downloadService)
	router := httptransport.NewRouter(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	})

	log.Printf("Server started on %s", cfg.ServerAddr)
	log.Fatal(http.ListenAndServe(cfg.ServerAddr, c.Handler(router)))
}

// resumeInterrupted re-dispatches jobs that a previous process left
// non-terminal; records carrying a provider job id resume monitoring
// instead of resubmitting.
func resumeInterrupted(store *jobstore.Store, dispatcher *schedule.Dispatcher) {
	records, err := store.List()
	if err != nil {
		log.Printf("resume scan failed: %v", err)
		return
	}
	for _, d := range records {
		if d.IsTerminal() || d.Status == downloaddomain.StatusPending {
			continue
		}
		log.Printf("resuming interrupted download: %s", d.ID)
		dispatcher.Schedule(d.ID, time.Second)
	}
}
