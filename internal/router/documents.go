package router

import (
	"net/http"

	"github.com/BerylCAtieno/twin-documents/internal/handlers"
	"github.com/BerylCAtieno/twin-documents/internal/metrics"
	"github.com/BerylCAtieno/twin-documents/internal/middleware"
	"github.com/BerylCAtieno/twin-documents/internal/services"
	"github.com/BerylCAtieno/twin-documents/internal/utils"

	"github.com/gorilla/mux"
)

type Options struct {
	Handler   handlers.Options
	Metrics   *metrics.HTTPServerMetrics
	RateLimit *middleware.RateLimiter
}

func NewRouter(docService services.DocumentService, logger *utils.Logger, opts Options) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	if opts.Metrics != nil && opts.Handler.Recorder == nil {
		opts.Handler.Recorder = opts.Metrics
	}
	docHandler := handlers.NewDocumentHandler(docService, logger, opts.Handler)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	docs := api.PathPrefix("/twins/{twinId}/documents").Subrouter()
	if opts.RateLimit != nil {
		docs.Use(opts.RateLimit.Middleware)
	}

	docs.HandleFunc("", docHandler.UploadDocument).Methods(http.MethodPost)
	docs.HandleFunc("", docHandler.ListDocuments).Methods(http.MethodGet)
	docs.HandleFunc("/{filename}/content", docHandler.GetStructuredContent).Methods(http.MethodGet)
	docs.HandleFunc("/{filename}/table", docHandler.QueryTable).Methods(http.MethodGet)
	docs.HandleFunc("/{filename}/table/export", docHandler.ExportTable).Methods(http.MethodGet)
	docs.HandleFunc("/{filename}/analyze", docHandler.AnalyzeDocument).Methods(http.MethodPost)
	docs.HandleFunc("/{filename}/chat", docHandler.ChatWithDocument).Methods(http.MethodPost)
	docs.HandleFunc("/{filename}", docHandler.GetDocument).Methods(http.MethodGet)
	docs.HandleFunc("/{filename}", docHandler.DeleteDocument).Methods(http.MethodDelete)

	// Preflight requests never match a method-restricted route.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
