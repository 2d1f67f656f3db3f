package routes

import (
	"redmatch_server/controllers"
	"redmatch_server/services"

	"github.com/gorilla/mux"
)

// RegisterAnalysisRoutes sets up the analysis endpoints under /api/analysis
func RegisterAnalysisRoutes(r *mux.Router, analysisService *services.AnalysisService, rateLimiter *services.RateLimitService, store services.AnalysisStore, development bool) {
	analysisController := controllers.NewAnalysisController(analysisService, rateLimiter, development)
	historyController := controllers.NewHistoryController(store, development)

	// Create a subrouter for /api/analysis
	analysisRouter := r.PathPrefix("/api/analysis").Subrouter()

	// /recent must be registered before the {id} wildcard
	analysisRouter.HandleFunc("", analysisController.AnalyzeCompatibility).Methods("POST")
	analysisRouter.HandleFunc("/recent", historyController.GetRecentAnalyses).Methods("GET")
	analysisRouter.HandleFunc("/{id}", historyController.GetAnalysis).Methods("GET")
}
