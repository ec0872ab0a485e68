// Package server assembles the application: one in-process store, the domain
// services layered on it, and the HTTP surface.
package server

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/braddown/pii-compliance-tool-sub001/internal/auth"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/audit"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/consent"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/requests"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/tasks"
	"github.com/braddown/pii-compliance-tool-sub001/internal/export"
	"github.com/braddown/pii-compliance-tool-sub001/internal/memdb"
	"github.com/braddown/pii-compliance-tool-sub001/internal/platform/config"
	"github.com/braddown/pii-compliance-tool-sub001/internal/platform/metrics"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/api"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/audithandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/authhandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/consenthandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/requesthandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/rpchandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/handlers/taskhandler"
	"github.com/braddown/pii-compliance-tool-sub001/internal/transport/http/middleware"
)

type App struct {
	Config    config.Config
	Store     *memdb.Store
	Collector *metrics.Collector
	Router    http.Handler
}

// New builds the full application around an existing store. Tests construct
// their own store (with a fixed clock) and pass it in.
func New(cfg config.Config, store *memdb.Store) (*App, error) {
	authSvc, err := auth.NewService(cfg.JWTSecret, cfg.SeedTenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	client := memdb.NewClient(store)
	auditSvc := audit.New(client)
	requestSvc := requests.NewService(store, auditSvc, cfg.RequestSLADays, cfg.DefaultMaxAttempts)
	taskSvc := tasks.NewService(store, auditSvc)
	consentSvc := consent.NewService(store, auditSvc)
	exportSvc := export.NewService(requestSvc, taskSvc)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Auth(authSvc))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.MetricsEnabled {
		router.Get("/internal/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		requesthandler.NewHandler(requestSvc, exportSvc, cfg.SeedTenantID).RegisterRoutes(r)
		taskhandler.NewHandler(taskSvc, cfg.SeedTenantID).RegisterRoutes(r)
		consenthandler.NewHandler(consentSvc, cfg.SeedTenantID).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, cfg.SeedTenantID).RegisterRoutes(r)
		rpchandler.NewHandler(client).RegisterRoutes(r)
	})

	return &App{Config: cfg, Store: store, Collector: collector, Router: router}, nil
}

// Run loads configuration, seeds a fresh store and serves until the listener
// fails.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store := memdb.NewStore()
	if cfg.SeedData {
		if err := memdb.Seed(context.Background(), store); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app, err := New(cfg, store)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	log.Printf("compliance server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
