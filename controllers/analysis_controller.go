package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"redmatch_server/models"
	"redmatch_server/services"
)

// AnalysisController handles the compatibility analysis endpoint.
type AnalysisController struct {
	AnalysisService *services.AnalysisService
	RateLimiter     *services.RateLimitService

	// Development exposes error details in responses.
	Development bool
}

// NewAnalysisController creates a new AnalysisController instance.
func NewAnalysisController(analysisService *services.AnalysisService, rateLimiter *services.RateLimitService, development bool) *AnalysisController {
	return &AnalysisController{
		AnalysisService: analysisService,
		RateLimiter:     rateLimiter,
		Development:     development,
	}
}

// AnalyzeCompatibility handles POST /api/analysis.
func (c *AnalysisController) AnalyzeCompatibility(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	admission := c.RateLimiter.CheckAdmission(clientKey(r))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(admission.Remaining))
	if !admission.Allowed {
		w.Header().Set("Retry-After", strconv.FormatInt((admission.ResetAfterMs+999)/1000, 10))
		writeAPIError(w, services.ErrRateLimited(), c.Development)
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, services.ErrValidation("Invalid request payload."), c.Development)
		return
	}

	resp, err := c.AnalysisService.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err, c.Development)
		return
	}

	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	// The header reports this request's time; latencyMs in the body keeps
	// the original pipeline duration even on a cache hit.
	w.Header().Set("X-Response-Time-Ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// clientKey identifies the caller for rate limiting: first X-Forwarded-For
// hop when present, else the remote address host.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeError maps any error onto the API error taxonomy.
func writeError(w http.ResponseWriter, err error, development bool) {
	var apiErr *services.APIError
	if !errors.As(err, &apiErr) {
		log.Printf("Unexpected error: %v", err)
		apiErr = services.ErrInternal(err.Error())
	}
	writeAPIError(w, apiErr, development)
}

func writeAPIError(w http.ResponseWriter, apiErr *services.APIError, development bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)

	body := map[string]string{
		"error": apiErr.Message,
		"code":  apiErr.Code,
	}
	if development && apiErr.Details != "" {
		body["details"] = apiErr.Details
	}
	json.NewEncoder(w).Encode(body)
}
