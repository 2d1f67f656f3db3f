package services

import (
	"context"
	"log"
	"strings"
	"time"

	"redmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/google/uuid"
)

// AnalysisTTL is how long a persisted analysis serves cache hits. Expiry is
// enforced by lookup-time filtering; stale rows stay in the table.
const AnalysisTTL = 24 * time.Hour

// NormalizeKey lowercases and trims both usernames and orders them so the
// lexicographically smaller one comes first. (alice,bob) and (BOB, Alice)
// address the same cache slot.
func NormalizeKey(userA, userB string) (string, string) {
	a := strings.ToLower(strings.TrimSpace(userA))
	b := strings.ToLower(strings.TrimSpace(userB))
	if a > b {
		a, b = b, a
	}
	return a, b
}

// PairKey is the normalized pair collapsed into the single GSI hash value.
func PairKey(userA, userB string) string {
	a, b := NormalizeKey(userA, userB)
	return a + "#" + b
}

// AnalysisStore persists analysis records with cache-aside semantics. The
// store is strictly best-effort: implementations swallow storage faults, so
// a lookup miss and a storage failure are indistinguishable to callers.
type AnalysisStore interface {
	// Lookup returns the most recent record for the normalized pair within
	// the TTL window, or nil.
	Lookup(ctx context.Context, userA, userB string) *models.AnalysisRecord

	// Store assigns a fresh id, normalizes the key and persists the record.
	// The id is returned even when persistence fails.
	Store(ctx context.Context, record *models.AnalysisRecord) string

	// GetByID returns one persisted record, or nil.
	GetByID(ctx context.Context, id string) *models.AnalysisRecord

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) []models.AnalysisRecord
}

// DynamoAnalysisStore is the DynamoDB-backed store.
type DynamoAnalysisStore struct {
	Dynamo *DynamoService
	Table  string

	nowFunc func() time.Time
}

// NewDynamoAnalysisStore creates a store over the given table.
func NewDynamoAnalysisStore(dynamo *DynamoService, table string) *DynamoAnalysisStore {
	if table == "" {
		table = models.DefaultAnalysesTable
	}
	return &DynamoAnalysisStore{Dynamo: dynamo, Table: table, nowFunc: time.Now}
}

func (s *DynamoAnalysisStore) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

// Lookup queries PairKeyIndex for the newest record of the pair created
// within the TTL window. Storage faults are logged and surface as a miss.
func (s *DynamoAnalysisStore) Lookup(ctx context.Context, userA, userB string) *models.AnalysisRecord {
	cutoff := s.now().Add(-AnalysisTTL).UTC().Format(time.RFC3339)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Table),
		IndexName:              aws.String(models.PairKeyIndex),
		KeyConditionExpression: aws.String("pairKey = :pk AND createdAt > :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: PairKey(userA, userB)},
			":cutoff": &types.AttributeValueMemberS{Value: cutoff},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(1),
	}

	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		log.Printf("Analysis cache lookup failed, treating as miss: %v", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	var record models.AnalysisRecord
	if err := attributevalue.UnmarshalMap(items[0], &record); err != nil {
		log.Printf("Failed to unmarshal cached analysis, treating as miss: %v", err)
		return nil
	}
	return &record
}

// Store persists the record. Persistence failure is logged, never surfaced;
// the caller still returns its freshly computed result.
func (s *DynamoAnalysisStore) Store(ctx context.Context, record *models.AnalysisRecord) string {
	record.ID = uuid.NewString()
	record.UserA, record.UserB = NormalizeKey(record.UserA, record.UserB)
	record.PairKey = record.UserA + "#" + record.UserB
	record.RecordType = models.RecordTypeAnalysis
	if record.CreatedAt == "" {
		record.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}

	if err := s.Dynamo.PutItem(ctx, s.Table, record); err != nil {
		log.Printf("Failed to persist analysis %s: %v", record.ID, err)
	}
	return record.ID
}

// GetByID fetches one record by primary key.
func (s *DynamoAnalysisStore) GetByID(ctx context.Context, id string) *models.AnalysisRecord {
	item, err := s.Dynamo.GetItem(ctx, s.Table, map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	})
	if err != nil {
		return nil
	}

	var record models.AnalysisRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		log.Printf("Failed to unmarshal analysis %s: %v", id, err)
		return nil
	}
	return &record
}

// Recent queries CreatedAtIndex descending for the newest records.
func (s *DynamoAnalysisStore) Recent(ctx context.Context, limit int) []models.AnalysisRecord {
	if limit <= 0 {
		limit = 10
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Table),
		IndexName:              aws.String(models.CreatedAtIndex),
		KeyConditionExpression: aws.String("recordType = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: models.RecordTypeAnalysis},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	items, err := s.Dynamo.QueryItemsWithQueryInput(ctx, input)
	if err != nil {
		log.Printf("Recent analyses query failed: %v", err)
		return nil
	}

	records := make([]models.AnalysisRecord, 0, len(items))
	for _, item := range items {
		var record models.AnalysisRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			log.Printf("Skipping unreadable analysis record: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records
}

// NoopAnalysisStore is the null-object store selected when no database is
// configured. Lookups always miss and stores succeed without persisting, so
// the rest of the pipeline runs unchanged.
type NoopAnalysisStore struct{}

// NewNoopAnalysisStore creates the no-op store.
func NewNoopAnalysisStore() *NoopAnalysisStore {
	return &NoopAnalysisStore{}
}

func (s *NoopAnalysisStore) Lookup(ctx context.Context, userA, userB string) *models.AnalysisRecord {
	return nil
}

func (s *NoopAnalysisStore) Store(ctx context.Context, record *models.AnalysisRecord) string {
	record.ID = uuid.NewString()
	return record.ID
}

func (s *NoopAnalysisStore) GetByID(ctx context.Context, id string) *models.AnalysisRecord {
	return nil
}

func (s *NoopAnalysisStore) Recent(ctx context.Context, limit int) []models.AnalysisRecord {
	return nil
}
