package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apadua/MeTransfer/internal/archive"
	"github.com/apadua/MeTransfer/internal/config"
	"github.com/apadua/MeTransfer/internal/handlers"
	"github.com/apadua/MeTransfer/internal/index"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/media"
	"github.com/apadua/MeTransfer/internal/middleware"
	"github.com/apadua/MeTransfer/internal/service"
	"github.com/apadua/MeTransfer/internal/startup"
	"github.com/apadua/MeTransfer/internal/storage"
)

func main() {
	startTime := time.Now()
	startup.LogBanner()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("configuration error: %v", err)
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		logging.Fatal("failed to initialize artifact store: %v", err)
	}

	idx, err := index.New(cfg.DataDir)
	if err != nil {
		logging.Fatal("failed to initialize metadata index: %v", err)
	}

	gen := media.NewGenerator(store, cfg.ThumbnailWidth)
	svc := service.New(store, idx, gen, cfg.BackgroundWidth)
	streamer := archive.NewStreamer(store)

	// The index is a cache of the uploads tree; heal it before serving so
	// out-of-band changes made while the process was down are visible.
	if err := svc.Reconcile(); err != nil {
		logging.Fatal("startup reconciliation failed: %v", err)
	}

	h := handlers.New(svc, streamer, cfg)
	router := setupRouter(h, cfg)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = cfg.LogStaticFiles
	loggedHandler := middleware.Logger(loggingConfig)(router)

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // zip downloads may run long
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv)

	startup.LogServerStarted(cfg.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	// mux middleware runs after route matching, so the metrics path label
	// can use the route template.
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Probes and version (no auth)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Admin API (shared-secret)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/galleries", h.RequireAdmin(h.CreateGallery)).Methods("POST")
	api.HandleFunc("/galleries", h.RequireAdmin(h.ListGalleries)).Methods("GET")
	api.HandleFunc("/galleries/{id}", h.RequireAdmin(h.DeleteGallery)).Methods("DELETE")
	api.HandleFunc("/galleries/{id}/photos", h.RequireAdmin(h.AddPhotos)).Methods("POST")
	api.HandleFunc("/galleries/{id}/name", h.RequireAdmin(h.RenameGallery)).Methods("PUT")
	api.HandleFunc("/galleries/{id}/background", h.RequireAdmin(h.SetBackground)).Methods("POST")
	api.HandleFunc("/logo", h.RequireAdmin(h.SetLogo)).Methods("POST")
	api.HandleFunc("/logo", h.RequireAdmin(h.ClearLogo)).Methods("DELETE")

	// Public API
	api.HandleFunc("/galleries/{id}/photos", h.GetGallery).Methods("GET")

	// Public content
	r.HandleFunc("/photos/{id}/{file}", h.GetPhoto).Methods("GET")
	r.HandleFunc("/thumbnails/{id}/{file}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/download/{id}.zip", h.DownloadZip).Methods("GET")
	r.HandleFunc("/download/{id}/{file}", h.DownloadPhoto).Methods("GET")
	r.HandleFunc("/preview/{id}.jpg", h.GetPreview).Methods("GET")
	r.HandleFunc("/logo", h.GetLogo).Methods("GET")

	// Static front end
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("server shutdown error: %v", err)
	}
	startup.LogShutdownComplete()
}
