package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

// ComponentName identifies an analyzer in the weighted overall score
type ComponentName string

const (
	ContentQualityComponent    ComponentName = "content_quality"
	KeywordDensityComponent    ComponentName = "keyword_density"
	ReadabilityComponent       ComponentName = "readability"
	HeadingStructureComponent  ComponentName = "heading_structure"
	ImageOptimizationComponent ComponentName = "image_optimization"
	LinkAnalysisComponent      ComponentName = "link_analysis"
	DuplicateContentComponent  ComponentName = "duplicate_content"
)

// Components lists every component in weight order; iteration over it is deterministic
var Components = []ComponentName{
	ContentQualityComponent,
	KeywordDensityComponent,
	ReadabilityComponent,
	HeadingStructureComponent,
	ImageOptimizationComponent,
	LinkAnalysisComponent,
	DuplicateContentComponent,
}

// ErrEmptyInput is returned when neither HTML nor text content was supplied
var ErrEmptyInput = errors.New("no html or text content to analyze")

// AnalyzerError wraps a failure raised inside a single analyzer
type AnalyzerError struct {
	Analyzer ComponentName
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s analyzer failed: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// Analyzer is the common shape of every content analyzer
type Analyzer interface {
	Name() ComponentName
	Analyze(ctx context.Context, in *Input) (Result, error)
}

// Result is implemented by every analyzer result through an embedded ScoreResult
type Result interface {
	Summary() *ScoreResult
}

// Input is everything an analyzer may look at. Analyzers never modify it.
type Input struct {
	URL         string
	HTML        string
	TextContent string
	Content     *parser.ParsedContent
	Options     Options
}

// Options are the recognized per-call analysis options
type Options struct {
	// CheckImageSizes measures real image sizes through the configured prober
	CheckImageSizes bool `json:"check_image_sizes"`
	// ImageSizeTimeoutMs bounds the whole probe step
	ImageSizeTimeoutMs int `json:"image_size_timeout_ms"`
	// DuplicateThreshold is the Jaccard similarity at which chunks are near-duplicates
	DuplicateThreshold float64 `json:"duplicate_threshold"`
	// ChunkSize is the number of words per duplicate-detection chunk
	ChunkSize int `json:"chunk_size"`
	// MaxRecommendations caps the merged recommendation list (never above 20)
	MaxRecommendations int `json:"max_recommendations"`
	// TargetKeywords are always reported in the density table
	TargetKeywords []string `json:"target_keywords"`
}

const (
	defaultImageSizeTimeout   = 5 * time.Second
	defaultDuplicateThreshold = 0.85
	defaultChunkSize          = 100
	maxRecommendations        = 20
)

// WithDefaults fills unset options with their documented defaults
func (o Options) WithDefaults() Options {
	if o.ImageSizeTimeoutMs <= 0 {
		o.ImageSizeTimeoutMs = int(defaultImageSizeTimeout / time.Millisecond)
	}
	if o.DuplicateThreshold <= 0 || o.DuplicateThreshold > 1 {
		o.DuplicateThreshold = defaultDuplicateThreshold
	}
	if o.ChunkSize < 10 {
		o.ChunkSize = defaultChunkSize
	}
	if o.MaxRecommendations <= 0 || o.MaxRecommendations > maxRecommendations {
		o.MaxRecommendations = maxRecommendations
	}
	return o
}

// ImageSizeTimeout returns the probe timeout as a duration
func (o Options) ImageSizeTimeout() time.Duration {
	return time.Duration(o.ImageSizeTimeoutMs) * time.Millisecond
}

// RecommendationType classifies a recommendation
type RecommendationType string

const (
	TypeError      RecommendationType = "error"
	TypeWarning    RecommendationType = "warning"
	TypeSuggestion RecommendationType = "suggestion"
)

// Impact is the expected effect of acting on a recommendation
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Recommendation is an actionable improvement. All five fields are always set.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Category string             `json:"category"`
	Message  string             `json:"message"`
	Impact   Impact             `json:"impact"`
	Fix      string             `json:"fix"`
}

// ScoreResult is the part every analyzer result has in common
type ScoreResult struct {
	Score           float64            `json:"score"`
	Grade           string             `json:"grade"`
	SubScores       map[string]float64 `json:"sub_scores"`
	Issues          []string           `json:"issues"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// Summary returns the common score fields
func (r *ScoreResult) Summary() *ScoreResult {
	return r
}

func newScoreResult() ScoreResult {
	return ScoreResult{
		SubScores:       make(map[string]float64),
		Issues:          []string{},
		Recommendations: []Recommendation{},
	}
}

// AddIssue records a human readable issue
func (r *ScoreResult) AddIssue(format string, args ...interface{}) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// AddRecommendation appends a recommendation unless an identical message exists
func (r *ScoreResult) AddRecommendation(typ RecommendationType, category string, impact Impact, message, fix string) {
	for _, rec := range r.Recommendations {
		if rec.Message == message {
			return
		}
	}
	r.Recommendations = append(r.Recommendations, Recommendation{
		Type:     typ,
		Category: category,
		Message:  message,
		Impact:   impact,
		Fix:      fix,
	})
}

// Check is the outcome of one scored validation pass inside an analyzer
type Check struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

func newCheck(base float64) Check {
	return Check{Score: base, Issues: []string{}}
}

func (c *Check) add(penalty float64, format string, args ...interface{}) {
	c.Score -= penalty
	c.Issues = append(c.Issues, fmt.Sprintf(format, args...))
}

// Clamp bounds a score to [0, 100]
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score))
}

// round keeps two decimals so reports stay readable
func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// ratio divides and returns 0 for an empty denominator
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
