package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"redmatch_server/models"
	"redmatch_server/services"

	"github.com/gorilla/mux"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// HistoryController serves persisted analyses. With the no-op store these
// endpoints degrade to not-found / empty rather than failing.
type HistoryController struct {
	Store       services.AnalysisStore
	Development bool
}

// NewHistoryController creates a new HistoryController instance.
func NewHistoryController(store services.AnalysisStore, development bool) *HistoryController {
	return &HistoryController{Store: store, Development: development}
}

// GetAnalysis handles GET /api/analysis/{id}.
func (c *HistoryController) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record := c.Store.GetByID(r.Context(), id)
	if record == nil {
		writeAPIError(w, services.ErrAnalysisNotFound(id), c.Development)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services.ResponseFromRecord(record, true))
}

// GetRecentAnalyses handles GET /api/analysis/recent.
func (c *HistoryController) GetRecentAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeAPIError(w, services.ErrValidation("limit must be a positive integer."), c.Development)
			return
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records := c.Store.Recent(r.Context(), limit)
	summaries := make([]models.AnalysisSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, models.AnalysisSummary{
			ID:            record.ID,
			UserA:         record.UserA,
			UserB:         record.UserB,
			PairsAnalyzed: record.PairsAnalyzed,
			Provider:      record.Provider,
			LatencyMs:     record.LatencyMs,
			CreatedAt:     record.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"analyses": summaries,
	})
}
