package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-1.5-flash"

// GenerateFunc sends a prompt to a model and returns its text answer
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Options configure a GeminiAssessor
type Options struct {
	Model      string
	RateLimit  rate.Limit
	RateBurst  int
	MaxRetries int
	RetryDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.RateLimit == 0 {
		o.RateLimit = rate.Limit(1)
	}
	if o.RateBurst == 0 {
		o.RateBurst = 3
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 1 * time.Second
	}
	return o
}

// GeminiAssessor rates content quality with a Gemini model. When the model
// fails after all retries the fallback assessor answers instead.
type GeminiAssessor struct {
	client     *genai.Client
	generate   GenerateFunc
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	fallback   analyzer.ContentQualityAssessor
	logger     *zap.Logger
}

// NewGeminiAssessor creates an assessor backed by the official Gemini client
func NewGeminiAssessor(ctx context.Context, apiKey string, opts Options, fallback analyzer.ContentQualityAssessor, logger *zap.Logger) (*GeminiAssessor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	opts = opts.withDefaults()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	a := NewAssessor(nil, opts, fallback, logger)
	a.client = client
	a.generate = geminiGenerate(client, opts.Model)
	return a, nil
}

// NewAssessor creates an assessor over an arbitrary generate function
func NewAssessor(generate GenerateFunc, opts Options, fallback analyzer.ContentQualityAssessor, logger *zap.Logger) *GeminiAssessor {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiAssessor{
		generate:   generate,
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		fallback:   fallback,
		logger:     logger.Named("gemini"),
	}
}

// Close releases the Gemini client
func (a *GeminiAssessor) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Assess implements analyzer.ContentQualityAssessor
func (a *GeminiAssessor) Assess(ctx context.Context, in *analyzer.Input) (*analyzer.QualityResult, error) {
	result, err := a.assess(ctx, in)
	if err == nil {
		return result, nil
	}
	if a.fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	a.logger.Warn("Model assessment failed, using fallback assessor", zap.Error(err))
	return a.fallback.Assess(ctx, in)
}

func (a *GeminiAssessor) assess(ctx context.Context, in *analyzer.Input) (*analyzer.QualityResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	prompt := BuildQualityPrompt(in)

	var lastErr error
	for retry := 0; retry <= a.maxRetries; retry++ {
		if retry > 0 {
			a.logger.Info("Retrying model request",
				zap.Int("attempt", retry),
				zap.Error(lastErr))

			// Экспоненциальная задержка между попытками
			select {
			case <-time.After(a.retryDelay * time.Duration(1<<uint(retry-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		start := time.Now()
		answer, err := a.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		result, err := ParseQualityResponse(answer)
		if err != nil {
			a.logger.Debug("Unparseable model response", zap.String("response", answer), zap.Error(err))
			lastErr = err
			continue
		}

		a.logger.Debug("Model assessment done",
			zap.Float64("score", result.Score),
			zap.Duration("elapsed", time.Since(start)))
		return result, nil
	}

	return nil, fmt.Errorf("model assessment failed after %d retries: %w", a.maxRetries, lastErr)
}

// geminiGenerate wraps one GenerativeModel call
func geminiGenerate(client *genai.Client, modelName string) GenerateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		model := client.GenerativeModel(modelName)

		// Низкая температура для стабильной оценки
		model.SetTemperature(0.2)
		model.SetTopP(0.95)
		model.SetTopK(40)
		model.SetMaxOutputTokens(1024)
		model.ResponseMIMEType = "application/json"

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("gemini api: %w", err)
		}

		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", errors.New("no content generated")
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		return sb.String(), nil
	}
}
