package services

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"time"

	"redmatch_server/models"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// PostFetcher retrieves a user's public text posts.
type PostFetcher interface {
	FetchPosts(ctx context.Context, username string, limit int) ([]models.Post, error)
}

// ModelClient generates a compatibility assessment from a prompt.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// AnalysisService orchestrates the full request lifecycle: validation, cache
// lookup, concurrent post fetches, pair sampling, the model call, report
// parsing and best-effort persistence.
type AnalysisService struct {
	Fetcher PostFetcher
	Model   ModelClient
	Sampler *SamplerService
	Store   AnalysisStore

	nowFunc func() time.Time
}

// NewAnalysisService wires the orchestrator.
func NewAnalysisService(fetcher PostFetcher, model ModelClient, sampler *SamplerService, store AnalysisStore) *AnalysisService {
	return &AnalysisService{
		Fetcher: fetcher,
		Model:   model,
		Sampler: sampler,
		Store:   store,
		nowFunc: time.Now,
	}
}

// validate normalizes defaults and rejects malformed input. It mutates req
// in place (trimmed names, defaulted limits).
func validate(req *models.AnalyzeRequest) *APIError {
	req.UserA = strings.TrimSpace(req.UserA)
	req.UserB = strings.TrimSpace(req.UserB)

	if !usernamePattern.MatchString(req.UserA) {
		return ErrValidation("userA must be 1-20 characters of letters, digits, '_' or '-'.")
	}
	if !usernamePattern.MatchString(req.UserB) {
		return ErrValidation("userB must be 1-20 characters of letters, digits, '_' or '-'.")
	}
	if strings.EqualFold(req.UserA, req.UserB) {
		return ErrSameUser()
	}

	if req.PostsLimit == 0 {
		req.PostsLimit = models.DefaultPostsLimit
	}
	if req.PostsLimit < models.MinPostsLimit || req.PostsLimit > models.MaxPostsLimit {
		return ErrValidation("postsLimit must be between 20 and 200.")
	}

	if req.SamplePairs == 0 {
		req.SamplePairs = models.DefaultSamplePairs
	}
	if req.SamplePairs < models.MinSamplePairs || req.SamplePairs > models.MaxSamplePairs {
		return ErrValidation("samplePairs must be between 10 and 30.")
	}

	return nil
}

type fetchResult struct {
	posts []models.Post
	err   error
}

// Analyze runs one compatibility analysis. A cache hit skips all fetch,
// sampling and model work; otherwise both users' posts are fetched
// concurrently and either failure short-circuits before the model call.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResponse, error) {
	if apiErr := validate(&req); apiErr != nil {
		return nil, apiErr
	}

	if cached := s.Store.Lookup(ctx, req.UserA, req.UserB); cached != nil {
		log.Printf("Cache hit for %s", PairKey(req.UserA, req.UserB))
		return ResponseFromRecord(cached, true), nil
	}

	start := s.nowFunc()

	chA := make(chan fetchResult, 1)
	chB := make(chan fetchResult, 1)
	go func() {
		posts, err := s.Fetcher.FetchPosts(ctx, req.UserA, req.PostsLimit)
		chA <- fetchResult{posts, err}
	}()
	go func() {
		posts, err := s.Fetcher.FetchPosts(ctx, req.UserB, req.PostsLimit)
		chB <- fetchResult{posts, err}
	}()

	resultA, resultB := <-chA, <-chB
	if resultA.err != nil {
		return nil, resultA.err
	}
	if resultB.err != nil {
		return nil, resultB.err
	}

	if len(resultA.posts) == 0 {
		return nil, ErrNoPosts(req.UserA)
	}
	if len(resultB.posts) == 0 {
		return nil, ErrNoPosts(req.UserB)
	}

	pairs := s.Sampler.SamplePairs(resultA.posts, resultB.posts, req.SamplePairs)

	prompt := BuildPrompt(pairs, req.UserA, req.UserB)
	raw, err := s.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	report := ParseReport(raw)
	latency := time.Since(start).Milliseconds()

	blob, err := json.Marshal(report)
	if err != nil {
		// report is plain data; marshal failure would be a programming error
		return nil, ErrInternal(err.Error())
	}

	record := &models.AnalysisRecord{
		UserA:         req.UserA,
		UserB:         req.UserB,
		PostsFetchedA: len(resultA.posts),
		PostsFetchedB: len(resultB.posts),
		PairsAnalyzed: len(pairs),
		Provider:      s.Model.Provider(),
		Report:        string(blob),
		LatencyMs:     latency,
		CreatedAt:     s.nowFunc().UTC().Format(time.RFC3339),
	}
	id := s.Store.Store(ctx, record)

	log.Printf("Analyzed u/%s vs u/%s: %d pairs, %dms", req.UserA, req.UserB, len(pairs), latency)

	return &models.AnalysisResponse{
		ID:            id,
		UserA:         req.UserA,
		UserB:         req.UserB,
		PostsFetchedA: len(resultA.posts),
		PostsFetchedB: len(resultB.posts),
		PairsAnalyzed: len(pairs),
		Provider:      record.Provider,
		Report:        report,
		LatencyMs:     latency,
		CreatedAt:     record.CreatedAt,
		Cached:        false,
	}, nil
}

// ResponseFromRecord rebuilds an API response from a persisted record. An
// unreadable report blob degrades through ParseReport's fallback path.
func ResponseFromRecord(record *models.AnalysisRecord, cached bool) *models.AnalysisResponse {
	var report models.CompatibilityReport
	if err := json.Unmarshal([]byte(record.Report), &report); err != nil {
		report = ParseReport(record.Report)
	}

	return &models.AnalysisResponse{
		ID:            record.ID,
		UserA:         record.UserA,
		UserB:         record.UserB,
		PostsFetchedA: record.PostsFetchedA,
		PostsFetchedB: record.PostsFetchedB,
		PairsAnalyzed: record.PairsAnalyzed,
		Provider:      record.Provider,
		Report:        report,
		LatencyMs:     record.LatencyMs,
		CreatedAt:     record.CreatedAt,
		Cached:        cached,
	}
}
