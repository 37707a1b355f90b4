package router

import (
	"net/http"

	"github.com/refresh-agent/refresh-api/internal/handlers"
	"github.com/refresh-agent/refresh-api/internal/middleware"
	"github.com/refresh-agent/refresh-api/internal/services"
	"github.com/refresh-agent/refresh-api/internal/utils"

	"github.com/gorilla/mux"
)

func NewRouter(service services.RefreshService, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	refreshHandler := handlers.NewRefreshHandler(service, logger)
	docHandler := handlers.NewDocumentHandler(service, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health and diagnostics
	api.HandleFunc("/health", refreshHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/storage-status", refreshHandler.StorageStatus).Methods(http.MethodGet)

	// Drive integration
	api.HandleFunc("/search-drive", refreshHandler.SearchDrive).Methods(http.MethodPost)
	api.HandleFunc("/retrieve-and-analyze", refreshHandler.RetrieveAndAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/save-to-drive", refreshHandler.SaveToDrive).Methods(http.MethodPost)

	// Family analysis and synthesis
	api.HandleFunc("/extract-search-intent", refreshHandler.ExtractSearchIntent).Methods(http.MethodPost)
	api.HandleFunc("/analyze-family", refreshHandler.AnalyzeFamily).Methods(http.MethodPost)
	api.HandleFunc("/generate-from-synthesis", refreshHandler.GenerateFromSynthesis).Methods(http.MethodPost)

	// Single-document operations
	api.HandleFunc("/extract-intent", docHandler.ExtractIntent).Methods(http.MethodPost)
	api.HandleFunc("/analyze-document", docHandler.AnalyzeDocument).Methods(http.MethodPost)
	api.HandleFunc("/generate-document", docHandler.GenerateDocument).Methods(http.MethodPost)
	api.HandleFunc("/merge-fields", docHandler.MergeFields).Methods(http.MethodPost)
	api.HandleFunc("/refresh-document", docHandler.RefreshDocument).Methods(http.MethodPost)

	return r
}
