package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
)

// AssessorName is reported in QualityResult.Assessor for model assessments
const AssessorName = "gemini"

const maxModelRecommendations = 5

// ErrNoJSON is returned when the model answer holds no JSON object
var ErrNoJSON = errors.New("model response contains no json object")

var codeBlock = regexp.MustCompile("(?s)```(?:json)?(.+?)```")

type qualityResponse struct {
	Score           *float64 `json:"score"`
	Assessment      string   `json:"assessment"`
	Strengths       []string `json:"strengths"`
	Issues          []string `json:"issues"`
	Recommendations []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Impact  string `json:"impact"`
		Fix     string `json:"fix"`
	} `json:"recommendations"`
}

// CleanCodeBlocks returns the body of the first fenced block, or the trimmed input
func CleanCodeBlocks(s string) string {
	if m := codeBlock.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// extractJSON cuts the outermost {...} span out of the answer
func extractJSON(s string) (string, error) {
	s = CleanCodeBlocks(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// ParseQualityResponse converts a model answer into a quality result.
// Unknown recommendation types and impacts fall back to suggestion and low.
func ParseQualityResponse(answer string) (*analyzer.QualityResult, error) {
	raw, err := extractJSON(answer)
	if err != nil {
		return nil, err
	}

	var resp qualityResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if resp.Score == nil {
		return nil, errors.New("model response has no score")
	}

	result := analyzer.NewQualityResult(AssessorName)
	result.Score = *resp.Score
	result.SubScores["model"] = analyzer.Clamp(*resp.Score)
	result.Assessment = strings.TrimSpace(resp.Assessment)

	for _, s := range resp.Strengths {
		if s = strings.TrimSpace(s); s != "" {
			result.Strengths = append(result.Strengths, s)
		}
	}
	for _, issue := range resp.Issues {
		if issue = strings.TrimSpace(issue); issue != "" {
			result.AddIssue("%s", issue)
		}
	}

	for _, rec := range resp.Recommendations {
		if len(result.Recommendations) == maxModelRecommendations {
			break
		}
		message := strings.TrimSpace(rec.Message)
		if message == "" {
			continue
		}
		fix := strings.TrimSpace(rec.Fix)
		if fix == "" {
			fix = message
		}
		result.AddRecommendation(recommendationType(rec.Type), "content", impact(rec.Impact), message, fix)
	}

	// No weights: Finalize only clamps, rounds and grades the model score
	analyzer.NewScorer(nil).Finalize(&result.ScoreResult)
	return result, nil
}

func recommendationType(s string) analyzer.RecommendationType {
	switch t := analyzer.RecommendationType(strings.ToLower(strings.TrimSpace(s))); t {
	case analyzer.TypeError, analyzer.TypeWarning, analyzer.TypeSuggestion:
		return t
	}
	return analyzer.TypeSuggestion
}

func impact(s string) analyzer.Impact {
	switch i := analyzer.Impact(strings.ToLower(strings.TrimSpace(s))); i {
	case analyzer.ImpactHigh, analyzer.ImpactMedium, analyzer.ImpactLow:
		return i
	}
	return analyzer.ImpactLow
}
