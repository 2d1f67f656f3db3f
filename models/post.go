package models

// Post kinds returned by the Reddit fetcher
const (
	PostKindSubmission = "submission"
	PostKindComment    = "comment"
)

// Post is a single unit of user-authored text fetched from Reddit.
// Submissions carry title+selftext merged into Text; comments carry the body.
type Post struct {
	Text       string `json:"text"`
	Kind       string `json:"kind"` // "submission" or "comment"
	Score      int    `json:"score"`
	CreatedUTC int64  `json:"createdUtc"`
	Subreddit  string `json:"subreddit"`
}

// Pair is one post from each of the two users, compared jointly by the model.
type Pair struct {
	A Post `json:"a"`
	B Post `json:"b"`
}
