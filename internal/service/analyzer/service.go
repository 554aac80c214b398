package analyzer

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

const wordsPerMinute = 200

// AnalyzeRequest - входные данные одного анализа
type AnalyzeRequest struct {
	URL         string                `json:"url"`
	HTML        string                `json:"html"`
	TextContent string                `json:"text_content,omitempty"`
	Content     *parser.ParsedContent `json:"parsed_content,omitempty"`
	Options     Options               `json:"options"`
}

// OverallScore - взвешенная итоговая оценка
type OverallScore struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
	Grade      string             `json:"grade"`
	Status     string             `json:"status"`
}

// ContentMetrics - сводные метрики текста страницы
type ContentMetrics struct {
	WordCount          int     `json:"word_count"`
	UniqueWordCount    int     `json:"unique_word_count"`
	CharacterCount     int     `json:"character_count"`
	ParagraphCount     int     `json:"paragraph_count"`
	SentenceCount      int     `json:"sentence_count"`
	HeadingCount       int     `json:"heading_count"`
	ImageCount         int     `json:"image_count"`
	LinkCount          int     `json:"link_count"`
	ReadingTimeMinutes int     `json:"reading_time_minutes"`
	ContentDensity     float64 `json:"content_density"`
	Language           string  `json:"language"`
	LanguageConfidence float64 `json:"language_confidence,omitempty"`
}

// SEOSummary - сильные и слабые стороны страницы
type SEOSummary struct {
	Status         string   `json:"status"`
	Grade          string   `json:"grade"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	CriticalIssues int      `json:"critical_issues"`
	TopPriorities  []string `json:"top_priorities"`
}

// ContentAnalysisReport - итоговый отчет анализа. После возврата не изменяется.
type ContentAnalysisReport struct {
	ID                       string             `json:"id"`
	URL                      string             `json:"url"`
	AnalyzedAt               time.Time          `json:"analyzed_at"`
	AnalysisDurationMs       int64              `json:"analysis_duration_ms"`
	OverallScore             OverallScore       `json:"overall_score"`
	ContentQuality           *QualityResult     `json:"content_quality"`
	KeywordAnalysis          *KeywordResult     `json:"keyword_analysis"`
	ReadabilityAnalysis      *ReadabilityResult `json:"readability_analysis"`
	HeadingAnalysis          *HeadingResult     `json:"heading_analysis"`
	ImageAnalysis            *ImageResult       `json:"image_analysis"`
	LinkAnalysis             *LinkResult        `json:"link_analysis"`
	DuplicateContentAnalysis *DuplicateResult   `json:"duplicate_content_analysis"`
	Recommendations          []Recommendation   `json:"recommendations"`
	ContentMetrics           ContentMetrics     `json:"content_metrics"`
	SEOSummary               SEOSummary         `json:"seo_summary"`
}

// ContentAnalyzerService объединяет все анализаторы в один отчет
type ContentAnalyzerService struct {
	manager  *AnalyzerManager
	weights  map[string]float64
	detector text.LanguageDetector
	logger   *zap.Logger
	now      func() time.Time
}

// NewContentAnalyzerService создает сервис анализа.
// detector может быть nil, тогда язык не определяется.
func NewContentAnalyzerService(manager *AnalyzerManager, settings Settings, detector text.LanguageDetector, logger *zap.Logger) *ContentAnalyzerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentAnalyzerService{
		manager:  manager,
		weights:  settings.OverallWeights,
		detector: detector,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze выполняет полный цикл: разбор, семь анализов, агрегация, сводка.
// Ошибка любого анализатора прерывает весь анализ.
func (s *ContentAnalyzerService) Analyze(ctx context.Context, req AnalyzeRequest) (*ContentAnalysisReport, error) {
	started := s.now()

	in, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	results, err := s.manager.RunAllAnalyzers(ctx, in)
	if err != nil {
		fields := []zap.Field{zap.String("url", req.URL), zap.Error(err)}
		var aerr *AnalyzerError
		if errors.As(err, &aerr) {
			fields = append(fields, zap.String("analyzer", string(aerr.Analyzer)))
		}
		s.logger.Error("content analysis failed", fields...)
		return nil, err
	}

	report := &ContentAnalysisReport{
		ID:         uuid.New().String(),
		URL:        req.URL,
		AnalyzedAt: started.UTC(),
	}
	report.ContentQuality, _ = results[ContentQualityComponent].(*QualityResult)
	report.KeywordAnalysis, _ = results[KeywordDensityComponent].(*KeywordResult)
	report.ReadabilityAnalysis, _ = results[ReadabilityComponent].(*ReadabilityResult)
	report.HeadingAnalysis, _ = results[HeadingStructureComponent].(*HeadingResult)
	report.ImageAnalysis, _ = results[ImageOptimizationComponent].(*ImageResult)
	report.LinkAnalysis, _ = results[LinkAnalysisComponent].(*LinkResult)
	report.DuplicateContentAnalysis, _ = results[DuplicateContentComponent].(*DuplicateResult)

	report.OverallScore = s.overall(results)

	lists := make([][]Recommendation, 0, len(Components))
	for _, name := range Components {
		if r, ok := results[name]; ok {
			lists = append(lists, r.Summary().Recommendations)
		}
	}
	report.Recommendations = MergeRecommendations(lists, in.Options.MaxRecommendations)
	report.ContentMetrics = s.metrics(in)
	report.SEOSummary = summarize(report.OverallScore, report.Recommendations)
	report.AnalysisDurationMs = s.now().Sub(started).Milliseconds()

	s.logger.Debug("content analysis completed",
		zap.String("url", req.URL),
		zap.Float64("overall_score", report.OverallScore.Overall),
		zap.Int64("duration_ms", report.AnalysisDurationMs),
	)
	return report, nil
}

// prepare разбирает HTML, если структура не передана, и дополняет опции значениями по умолчанию
func (s *ContentAnalyzerService) prepare(req AnalyzeRequest) (*Input, error) {
	if strings.TrimSpace(req.HTML) == "" && strings.TrimSpace(req.TextContent) == "" && req.Content == nil {
		return nil, ErrEmptyInput
	}

	content := req.Content
	if content == nil {
		if req.HTML != "" {
			parsed, err := parser.ParseHTML(req.HTML, req.URL)
			if err != nil {
				return nil, err
			}
			content = parsed
		} else {
			content = &parser.ParsedContent{Headings: map[int][]parser.Heading{}}
		}
	}

	textContent := req.TextContent
	if textContent == "" {
		textContent = content.TextContent
	}
	if textContent == "" && req.HTML != "" {
		textContent = text.StripHTML(req.HTML)
	}

	html := req.HTML
	if html == "" {
		html = content.HTML
	}

	return &Input{
		URL:         req.URL,
		HTML:        html,
		TextContent: textContent,
		Content:     content,
		Options:     req.Options.WithDefaults(),
	}, nil
}

func (s *ContentAnalyzerService) overall(results map[ComponentName]Result) OverallScore {
	score := OverallScore{
		Components: make(map[string]float64, len(results)),
		Weights:    make(map[string]float64, len(s.weights)),
	}
	for k, v := range s.weights {
		score.Weights[k] = v
	}

	total := 0.0
	// фиксированный порядок суммирования
	for _, name := range Components {
		r, ok := results[name]
		if !ok {
			continue
		}
		c := Clamp(r.Summary().Score)
		score.Components[string(name)] = c
		total += c * s.weights[string(name)]
	}

	score.Overall = round(Clamp(total))
	score.Grade = LetterGrades.Lookup(score.Overall)
	score.Status = StatusScale.Lookup(score.Overall)
	return score
}

func typePriority(t RecommendationType) int {
	switch t {
	case TypeError:
		return 0
	case TypeWarning:
		return 1
	case TypeSuggestion:
		return 2
	default:
		return 3
	}
}

func impactPriority(i Impact) int {
	switch i {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	case ImpactLow:
		return 2
	default:
		return 3
	}
}

// MergeRecommendations объединяет списки, устойчиво сортирует по типу и влиянию
// и обрезает результат до limit (не более 20)
func MergeRecommendations(lists [][]Recommendation, limit int) []Recommendation {
	if limit <= 0 || limit > maxRecommendations {
		limit = maxRecommendations
	}

	merged := []Recommendation{}
	for _, l := range lists {
		merged = append(merged, l...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := typePriority(merged[i].Type), typePriority(merged[j].Type)
		if ti != tj {
			return ti < tj
		}
		return impactPriority(merged[i].Impact) < impactPriority(merged[j].Impact)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *ContentAnalyzerService) metrics(in *Input) ContentMetrics {
	words := text.Words(in.TextContent)
	m := ContentMetrics{
		WordCount:       len(words),
		UniqueWordCount: len(wordSet(words)),
		CharacterCount:  len(in.TextContent),
		ParagraphCount:  len(paragraphTag.FindAllStringIndex(in.HTML, -1)),
		SentenceCount:   len(sentenceEnd.FindAllStringIndex(in.TextContent, -1)),
		Language:        "unknown",
	}
	if in.Content != nil {
		m.HeadingCount = in.Content.HeadingCount()
		m.ImageCount = len(in.Content.Images)
		m.LinkCount = len(in.Content.Links)
	}
	m.ReadingTimeMinutes = int(math.Ceil(float64(m.WordCount) / wordsPerMinute))
	m.ContentDensity = round(ratio(float64(m.WordCount), float64(m.CharacterCount)) * 100)

	if s.detector != nil {
		if code, confidence, ok := s.detector.Detect(in.TextContent); ok {
			m.Language = code
			m.LanguageConfidence = round(confidence)
		}
	}
	return m
}

func summarize(score OverallScore, recs []Recommendation) SEOSummary {
	summary := SEOSummary{
		Status:        score.Status,
		Grade:         score.Grade,
		Strengths:     []string{},
		Weaknesses:    []string{},
		TopPriorities: []string{},
	}
	for _, name := range Components {
		c, ok := score.Components[string(name)]
		if !ok {
			continue
		}
		switch {
		case c >= 80:
			summary.Strengths = append(summary.Strengths, string(name))
		case c < 60:
			summary.Weaknesses = append(summary.Weaknesses, string(name))
		}
	}
	for _, r := range recs {
		if r.Type == TypeError {
			summary.CriticalIssues++
		}
		if len(summary.TopPriorities) < 3 {
			summary.TopPriorities = append(summary.TopPriorities, r.Message)
		}
	}
	return summary
}
