package models

// DefaultAnalysesTable is the DynamoDB table for persisted analyses when
// ANALYSES_TABLE does not override it.
const DefaultAnalysesTable = "CompatibilityAnalyses"

// Secondary indexes on the analyses table
const (
	PairKeyIndex   = "PairKeyIndex"   // pairKey HASH, createdAt RANGE
	CreatedAtIndex = "CreatedAtIndex" // recordType HASH, createdAt RANGE
)

// RecordTypeAnalysis is the constant partition value for CreatedAtIndex,
// letting "most recent analyses" be answered with one descending query.
const RecordTypeAnalysis = "analysis"

// AnalysisRecord is the persisted, write-once result of one non-cached
// analysis. UserA/UserB are stored normalized (lowercased, lexicographic
// order) and PairKey is "userA#userB" over the normalized pair.
type AnalysisRecord struct {
	ID            string `dynamodbav:"id" json:"id"`
	UserA         string `dynamodbav:"userA" json:"userA"`
	UserB         string `dynamodbav:"userB" json:"userB"`
	PairKey       string `dynamodbav:"pairKey" json:"-"`
	RecordType    string `dynamodbav:"recordType" json:"-"`
	PostsFetchedA int    `dynamodbav:"postsFetchedA" json:"postsFetchedA"`
	PostsFetchedB int    `dynamodbav:"postsFetchedB" json:"postsFetchedB"`
	PairsAnalyzed int    `dynamodbav:"pairsAnalyzed" json:"pairsAnalyzed"`
	Provider      string `dynamodbav:"provider" json:"provider"`
	Report        string `dynamodbav:"report" json:"-"` // CompatibilityReport as a JSON blob
	LatencyMs     int64  `dynamodbav:"latencyMs" json:"latencyMs"`
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"` // RFC3339 UTC
}

// AnalyzeRequest is the body of POST /api/analysis.
type AnalyzeRequest struct {
	UserA       string `json:"userA"`
	UserB       string `json:"userB"`
	PostsLimit  int    `json:"postsLimit"`
	SamplePairs int    `json:"samplePairs"`
}

// Request bounds and defaults
const (
	MinPostsLimit      = 20
	MaxPostsLimit      = 200
	DefaultPostsLimit  = 50
	MinSamplePairs     = 10
	MaxSamplePairs     = 30
	DefaultSamplePairs = 15
)

// AnalysisResponse is the success body of POST /api/analysis.
type AnalysisResponse struct {
	ID            string              `json:"id"`
	UserA         string              `json:"userA"`
	UserB         string              `json:"userB"`
	PostsFetchedA int                 `json:"postsFetchedA"`
	PostsFetchedB int                 `json:"postsFetchedB"`
	PairsAnalyzed int                 `json:"pairsAnalyzed"`
	Provider      string              `json:"provider"`
	Report        CompatibilityReport `json:"report"`
	LatencyMs     int64               `json:"latencyMs"`
	CreatedAt     string              `json:"createdAt"`
	Cached        bool                `json:"cached"`
}

// AnalysisSummary is one row of GET /api/analysis/recent (report omitted).
type AnalysisSummary struct {
	ID            string `json:"id"`
	UserA         string `json:"userA"`
	UserB         string `json:"userB"`
	PairsAnalyzed int    `json:"pairsAnalyzed"`
	Provider      string `json:"provider"`
	LatencyMs     int64  `json:"latencyMs"`
	CreatedAt     string `json:"createdAt"`
}
