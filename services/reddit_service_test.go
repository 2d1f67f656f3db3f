package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"redmatch_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingItem struct {
	Title      string  `json:"title,omitempty"`
	Selftext   string  `json:"selftext,omitempty"`
	Body       string  `json:"body,omitempty"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Subreddit  string  `json:"subreddit"`
}

func listingJSON(items ...listingItem) string {
	children := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		children = append(children, map[string]interface{}{"data": item})
	}
	payload := map[string]interface{}{
		"data": map[string]interface{}{"children": children},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

// fakeReddit stands in for both the auth host and the data API host.
func fakeReddit(t *testing.T, tokenCalls *int64, handler http.HandlerFunc) *RedditService {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		if tokenCalls != nil {
			atomic.AddInt64(tokenCalls, 1)
		}

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "test-token", "expires_in": 3600}`)
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc := NewRedditService("client-id", "client-secret", "test-agent")
	svc.AuthBaseURL = server.URL
	svc.APIBaseURL = server.URL
	return svc
}

func TestFetchPosts_BuildsFiltersAndSorts(t *testing.T) {
	svc := fakeReddit(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))

		switch {
		case strings.Contains(r.URL.Path, "/submitted.json"):
			fmt.Fprint(w, listingJSON(
				listingItem{Title: "My sourdough journey", Selftext: "Three years of baking notes.", Score: 120, Subreddit: "Breadit", CreatedUTC: 1700000000},
				listingItem{Title: "hi", Score: 900}, // too short after trim, dropped
			))
		case strings.Contains(r.URL.Path, "/comments.json"):
			fmt.Fprint(w, listingJSON(
				listingItem{Body: "Great crumb structure on that loaf!", Score: 540, Subreddit: "Breadit", CreatedUTC: 1700000500},
				listingItem{Body: " ok ", Score: 999}, // too short, dropped
			))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	posts, err := svc.FetchPosts(context.Background(), "alice", 50)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// sorted by score descending
	assert.Equal(t, 540, posts[0].Score)
	assert.Equal(t, models.PostKindComment, posts[0].Kind)
	assert.Equal(t, "Great crumb structure on that loaf!", posts[0].Text)

	assert.Equal(t, 120, posts[1].Score)
	assert.Equal(t, models.PostKindSubmission, posts[1].Kind)
	assert.Equal(t, "My sourdough journey. Three years of baking notes.", posts[1].Text)
	assert.Equal(t, "Breadit", posts[1].Subreddit)
}

func TestFetchPosts_EmptyListingsIsNotAnError(t *testing.T) {
	svc := fakeReddit(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON())
	})

	posts, err := svc.FetchPosts(context.Background(), "quiet_user", 50)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchPosts_UserNotFound(t *testing.T) {
	svc := fakeReddit(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := svc.FetchPosts(context.Background(), "ghost", 50)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeUserNotFound, apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFetchPosts_UserInaccessible(t *testing.T) {
	svc := fakeReddit(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := svc.FetchPosts(context.Background(), "suspended_user", 50)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeUserInaccessible, apiErr.Code)
}

func TestFetchPosts_OtherUpstreamFailure(t *testing.T) {
	svc := fakeReddit(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	})

	_, err := svc.FetchPosts(context.Background(), "alice", 50)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeUpstreamError, apiErr.Code)
}

func TestFetchPosts_MissingCredentials(t *testing.T) {
	svc := NewRedditService("", "", "")

	_, err := svc.FetchPosts(context.Background(), "alice", 50)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeConfigError, apiErr.Code)
}

func TestFetchPosts_TokenExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc := NewRedditService("client-id", "bad-secret", "test-agent")
	svc.AuthBaseURL = server.URL
	svc.APIBaseURL = server.URL

	_, err := svc.FetchPosts(context.Background(), "alice", 50)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeRedditAuthError, apiErr.Code)
}

func TestFetchPosts_TokenIsCachedAcrossCalls(t *testing.T) {
	var tokenCalls int64
	svc := fakeReddit(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON())
	})

	_, err := svc.FetchPosts(context.Background(), "alice", 50)
	require.NoError(t, err)
	_, err = svc.FetchPosts(context.Background(), "bob", 50)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&tokenCalls))
}

func TestFetchPosts_TokenRefreshesNearExpiry(t *testing.T) {
	var tokenCalls int64
	svc := fakeReddit(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON())
	})

	_, err := svc.FetchPosts(context.Background(), "alice", 50)
	require.NoError(t, err)

	// jump the clock to within the refresh margin of expiry
	svc.mu.Lock()
	expiry := svc.tokenExpiry
	svc.mu.Unlock()
	svc.nowFunc = func() time.Time { return expiry.Add(-10 * time.Second) }

	_, err = svc.FetchPosts(context.Background(), "alice", 50)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&tokenCalls))
}
