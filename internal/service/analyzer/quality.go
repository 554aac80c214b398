package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// ContentQualityAssessor produces the general content_quality component.
// The heuristic assessor is the default; an LLM-backed one can replace it.
type ContentQualityAssessor interface {
	Assess(ctx context.Context, in *Input) (*QualityResult, error)
}

// QualityResult is the output of a ContentQualityAssessor
type QualityResult struct {
	ScoreResult
	Assessor   string   `json:"assessor"`
	Assessment string   `json:"assessment,omitempty"`
	Strengths  []string `json:"strengths"`
}

// NewQualityResult returns an empty result for assessors outside this package
func NewQualityResult(assessor string) *QualityResult {
	return &QualityResult{
		ScoreResult: newScoreResult(),
		Assessor:    assessor,
		Strengths:   []string{},
	}
}

// HeuristicQualityAssessor rates depth, structure, metadata, sentence variety and media
type HeuristicQualityAssessor struct {
	cfg    QualitySettings
	scorer Scorer
}

// NewHeuristicQualityAssessor creates the default assessor
func NewHeuristicQualityAssessor(s Settings) *HeuristicQualityAssessor {
	return &HeuristicQualityAssessor{
		cfg:    s.Quality,
		scorer: NewScorer(s.Quality.Weights),
	}
}

// Assess scores the general quality of the page
func (a *HeuristicQualityAssessor) Assess(ctx context.Context, in *Input) (*QualityResult, error) {
	result := NewQualityResult("heuristic")

	words := text.Words(in.TextContent)
	n := len(words)

	switch {
	case n >= 1000:
		result.SubScores["depth"] = 100
	case n >= 600:
		result.SubScores["depth"] = 90
	case n >= 300:
		result.SubScores["depth"] = 75
	case n >= 150:
		result.SubScores["depth"] = 50
	default:
		result.SubScores["depth"] = 25
	}
	if n >= 600 {
		result.Strengths = append(result.Strengths, fmt.Sprintf("in-depth content (%d words)", n))
	} else if n < 300 {
		result.AddIssue("Content is short (%d words)", n)
		result.AddRecommendation(TypeWarning, "content", ImpactHigh,
			"Content lacks depth",
			"Cover the topic more thoroughly; most ranking pages have 600+ words")
	}

	result.SubScores["structure"] = a.structure(n, in, result)
	result.SubScores["metadata"] = a.metadata(in, result)
	result.SubScores["variety"] = a.variety(in.TextContent, result)
	result.SubScores["media"] = a.media(in, result)

	a.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

func (a *HeuristicQualityAssessor) structure(words int, in *Input, r *QualityResult) float64 {
	paragraphs := len(paragraphTag.FindAllStringIndex(in.HTML, -1))
	if paragraphs == 0 {
		if words > 0 {
			r.AddIssue("Content is not split into paragraphs")
		}
		return 40
	}
	avg := float64(words) / float64(paragraphs)
	lo, hi := a.cfg.IdealParagraph[0], a.cfg.IdealParagraph[1]
	switch {
	case avg >= lo && avg <= hi:
		r.Strengths = append(r.Strengths, "well-sized paragraphs")
		return 100
	case avg < lo:
		return 80
	default:
		r.AddRecommendation(TypeSuggestion, "content", ImpactMedium,
			"Paragraphs are long",
			fmt.Sprintf("Keep paragraphs under %.0f words", hi))
		return math.Max(40, 100-(avg-hi)/2)
	}
}

func (a *HeuristicQualityAssessor) metadata(in *Input, r *QualityResult) float64 {
	if in.Content == nil {
		return 0
	}
	score := 0.0
	title := strings.TrimSpace(in.Content.Meta.Title)
	switch l := len(title); {
	case l == 0:
		r.AddIssue("Missing page title")
	case l >= a.cfg.MinTitleLength && l <= a.cfg.MaxTitleLength:
		score += 50
	default:
		score += 30
		r.AddRecommendation(TypeSuggestion, "metadata", ImpactMedium,
			fmt.Sprintf("Title is %d characters long", l),
			fmt.Sprintf("Keep the title between %d and %d characters", a.cfg.MinTitleLength, a.cfg.MaxTitleLength))
	}

	desc := strings.TrimSpace(in.Content.Meta.Description)
	switch l := len(desc); {
	case l == 0:
		r.AddIssue("Missing meta description")
		r.AddRecommendation(TypeWarning, "metadata", ImpactMedium,
			"Meta description is missing",
			fmt.Sprintf("Write a %d-%d character summary of the page", a.cfg.MinDescription, a.cfg.MaxDescription))
	case l >= a.cfg.MinDescription && l <= a.cfg.MaxDescription:
		score += 50
	default:
		score += 30
	}
	if score == 100 {
		r.Strengths = append(r.Strengths, "complete title and meta description")
	}
	return score
}

func (a *HeuristicQualityAssessor) variety(content string, r *QualityResult) float64 {
	var lengths []int
	for _, s := range text.SplitSentences(content) {
		lengths = append(lengths, len(text.Words(s)))
	}
	if len(lengths) < 2 {
		return 50
	}
	score := math.Min(100, 40+variation(lengths)*100)
	if score >= 80 {
		r.Strengths = append(r.Strengths, "varied sentence length")
	}
	return score
}

func (a *HeuristicQualityAssessor) media(in *Input, r *QualityResult) float64 {
	if in.Content == nil {
		return 60
	}
	score := 60.0
	if len(in.Content.Images) > 0 {
		score += 25
	}
	if len(listTag.FindAllStringIndex(in.HTML, -1)) > 0 {
		score += 15
	}
	if score == 100 {
		r.Strengths = append(r.Strengths, "uses images and lists")
	}
	return score
}

// qualityAnalyzer adapts an assessor to the Analyzer interface
type qualityAnalyzer struct {
	assessor ContentQualityAssessor
}

func (q qualityAnalyzer) Name() ComponentName {
	return ContentQualityComponent
}

func (q qualityAnalyzer) Analyze(ctx context.Context, in *Input) (Result, error) {
	res, err := q.assessor.Assess(ctx, in)
	if err != nil {
		return nil, err
	}
	return res, nil
}
