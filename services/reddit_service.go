package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"redmatch_server/models"
)

const (
	defaultRedditAuthBase = "https://www.reddit.com"
	defaultRedditAPIBase  = "https://oauth.reddit.com"
	defaultUserAgent      = "redmatch_server/1.0"

	// refresh the app token this long before its stated expiry
	tokenRefreshMargin = 30 * time.Second
	minPostLength      = 10
)

// RedditService fetches a user's public submissions and comments through the
// Reddit data API, authenticating with a client-credentials app token that is
// cached in-process until shortly before expiry.
type RedditService struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// overridable in tests
	AuthBaseURL string
	APIBaseURL  string
	HTTPClient  *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	nowFunc     func() time.Time
}

// NewRedditService creates a fetcher for the given app credentials.
func NewRedditService(clientID, clientSecret, userAgent string) *RedditService {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &RedditService{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
		AuthBaseURL:  defaultRedditAuthBase,
		APIBaseURL:   defaultRedditAPIBase,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
		nowFunc:      time.Now,
	}
}

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Body       string  `json:"body"`
				Score      int     `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
				Subreddit  string  `json:"subreddit"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchPosts retrieves up to limit text posts for a user: the most recent
// submissions and comments, half the limit each, with short items dropped.
// The result is sorted by score descending; downstream sampling does not
// depend on that order.
func (s *RedditService) FetchPosts(ctx context.Context, username string, limit int) ([]models.Post, error) {
	if s.ClientID == "" || s.ClientSecret == "" {
		return nil, ErrConfig("Reddit API credentials are not configured.")
	}

	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	perListing := limit / 2

	submissions, err := s.fetchListing(ctx, token, username, "submitted", perListing)
	if err != nil {
		return nil, err
	}
	comments, err := s.fetchListing(ctx, token, username, "comments", perListing)
	if err != nil {
		return nil, err
	}

	posts := append(submissions, comments...)
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score > posts[j].Score
	})

	log.Printf("Fetched %d posts for u/%s (%d submissions, %d comments)",
		len(posts), username, len(submissions), len(comments))
	return posts, nil
}

// accessToken returns a valid app token, exchanging client credentials when
// the cached one is absent or within the refresh margin of expiry.
func (s *RedditService) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if s.token != "" && now.Before(s.tokenExpiry.Add(-tokenRefreshMargin)) {
		return s.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.AuthBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", ErrRedditAuth(err.Error())
	}
	req.SetBasicAuth(s.ClientID, s.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", ErrRedditAuth(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", ErrRedditAuth(fmt.Sprintf("token exchange returned %d: %s", resp.StatusCode, body))
	}

	var tokenResp redditTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", ErrRedditAuth(err.Error())
	}
	if tokenResp.AccessToken == "" {
		return "", ErrRedditAuth("token exchange returned no access token")
	}

	s.token = tokenResp.AccessToken
	s.tokenExpiry = now.Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return s.token, nil
}

// fetchListing pulls one listing ("submitted" or "comments") for a user and
// converts qualifying items to posts.
func (s *RedditService) fetchListing(ctx context.Context, token, username, listing string, limit int) ([]models.Post, error) {
	endpoint := fmt.Sprintf("%s/user/%s/%s.json?limit=%d&sort=new",
		s.APIBaseURL, url.PathEscape(username), listing, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrUpstream(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, ErrUpstream(err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound(username)
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrUserInaccessible(username)
	case resp.StatusCode != http.StatusOK:
		return nil, ErrUpstream(fmt.Sprintf("listing %s for u/%s returned %d", listing, username, resp.StatusCode))
	}

	var parsed redditListing
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ErrUpstream(err.Error())
	}

	kind := models.PostKindComment
	if listing == "submitted" {
		kind = models.PostKindSubmission
	}

	var posts []models.Post
	for _, child := range parsed.Data.Children {
		item := child.Data

		var text string
		if kind == models.PostKindSubmission {
			text = strings.TrimSpace(item.Title + ". " + item.Selftext)
		} else {
			text = strings.TrimSpace(item.Body)
		}
		if len(text) < minPostLength {
			continue
		}

		posts = append(posts, models.Post{
			Text:       text,
			Kind:       kind,
			Score:      item.Score,
			CreatedUTC: int64(item.CreatedUTC),
			Subreddit:  item.Subreddit,
		})
	}
	return posts, nil
}
