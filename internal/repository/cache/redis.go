package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

const (
	// Cache key prefixes
	KeyPrefixReport   = "content_report:"
	KeyPrefixReportID = "content_report_id:"

	// Default TTL for cached items
	DefaultTTL = 10 * time.Minute
)

// Repository caches analysis reports in Redis. A nil client turns every
// operation into a no-op so the service runs without Redis.
type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepository creates a new Redis cache repository
func NewRepository(client *redis.Client, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{
		client: client,
		ttl:    ttl,
	}
}

// Enabled reports whether a Redis client is configured
func (r *Repository) Enabled() bool {
	return r != nil && r.client != nil
}

// RequestKey derives the cache key of an analysis request. Identical url,
// markup, text, parsed content and options map to the same key.
func RequestKey(req analyzer.AnalyzeRequest) (string, error) {
	payload, err := json.Marshal(struct {
		URL     string                `json:"url"`
		HTML    string                `json:"html"`
		Text    string                `json:"text"`
		Content *parser.ParsedContent `json:"parsed_content"`
		Options analyzer.Options      `json:"options"`
	}{req.URL, req.HTML, req.TextContent, req.Content, req.Options.WithDefaults()})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return KeyPrefixReport + hex.EncodeToString(sum[:]), nil
}

// CacheReport stores a report under key and under its ID
func (r *Repository) CacheReport(ctx context.Context, key string, report *analyzer.ContentAnalysisReport) error {
	if !r.Enabled() {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := r.client.TxPipeline()
	if key != "" {
		pipe.Set(ctx, key, data, r.ttl)
	}
	pipe.Set(ctx, KeyPrefixReportID+report.ID, data, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetReport returns the cached report for key, or nil on a cache miss
func (r *Repository) GetReport(ctx context.Context, key string) (*analyzer.ContentAnalysisReport, error) {
	if !r.Enabled() {
		return nil, nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss, not an error
		}
		return nil, err
	}

	var report analyzer.ContentAnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// GetReportByID returns a recently cached report by its ID, or nil on a miss
func (r *Repository) GetReportByID(ctx context.Context, id string) (*analyzer.ContentAnalysisReport, error) {
	return r.GetReport(ctx, KeyPrefixReportID+id)
}

// InvalidateReport removes a report from the ID index
func (r *Repository) InvalidateReport(ctx context.Context, id string) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Del(ctx, KeyPrefixReportID+id).Err()
}
