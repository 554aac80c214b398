// Package app wires the analysis service from configuration
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chynybekuuludastan/content_optimizer/internal/config"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/llm"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// NewContentService builds the analyzer service. The returned close function
// releases the model client when one was created.
func NewContentService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*analyzer.ContentAnalyzerService, func(), error) {
	settings, err := analyzer.LoadSettingsFile(cfg.ScoringConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("load scoring settings: %w", err)
	}

	prober := parser.NewImageSizeProber(cfg.ImageProbeTimeout, cfg.ImageProbeRPS)

	var assessor analyzer.ContentQualityAssessor = analyzer.NewHeuristicQualityAssessor(settings)
	closeFn := func() {}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiAssessor(ctx, cfg.GeminiAPIKey, llm.Options{Model: cfg.GeminiModel}, assessor, logger)
		if err != nil {
			logger.Warn("Gemini assessor unavailable, using heuristic quality scoring", zap.Error(err))
		} else {
			assessor = gemini
			closeFn = func() {
				if err := gemini.Close(); err != nil {
					logger.Warn("Failed to close Gemini client", zap.Error(err))
				}
			}
			logger.Info("Content quality scored by Gemini", zap.String("model", cfg.GeminiModel))
		}
	}

	manager := analyzer.NewAnalyzerManager()
	if err := manager.RegisterAllAnalyzers(analyzer.NewAnalyzerFactory(settings, prober, assessor)); err != nil {
		closeFn()
		return nil, nil, err
	}

	service := analyzer.NewContentAnalyzerService(manager, settings, text.NewLinguaDetector(), logger)
	return service, closeFn, nil
}
