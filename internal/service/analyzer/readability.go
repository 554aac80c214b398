package analyzer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

var (
	paragraphTag = regexp.MustCompile(`(?i)<p[\s>]`)
	listTag      = regexp.MustCompile(`(?i)<(ul|ol)[\s>]`)
	boldTag      = regexp.MustCompile(`(?i)<(strong|b)[\s>]`)
	blankLines   = regexp.MustCompile(`\n\s*\n`)
)

// ReadingLevels maps Flesch Reading Ease to a description
var ReadingLevels = GradeScale{
	Bands: []GradeBand{
		{90, "Very Easy"}, {80, "Easy"}, {70, "Fairly Easy"},
		{60, "Standard"}, {50, "Fairly Difficult"}, {30, "Difficult"},
	},
	Fallback: "Very Difficult",
}

// TextMetrics are the base counts every formula is computed from
type TextMetrics struct {
	Sentences           int     `json:"sentences"`
	Words               int     `json:"words"`
	Syllables           int     `json:"syllables"`
	Characters          int     `json:"characters"`
	Paragraphs          int     `json:"paragraphs"`
	ComplexWords        int     `json:"complex_words"`
	LongWords           int     `json:"long_words"`
	UniqueWords         int     `json:"unique_words"`
	AvgSentenceLength   float64 `json:"avg_sentence_length"`
	AvgSyllablesPerWord float64 `json:"avg_syllables_per_word"`
	AvgParagraphLength  float64 `json:"avg_paragraph_length"`
	LongSentences       int     `json:"long_sentences"`
	VeryLongSentences   int     `json:"very_long_sentences"`
}

// ReadabilityFormulas holds the six classic readability indexes
type ReadabilityFormulas struct {
	FleschReadingEase  float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade float64 `json:"flesch_kincaid_grade"`
	ARI                float64 `json:"automated_readability_index"`
	ColemanLiau        float64 `json:"coleman_liau_index"`
	SMOG               float64 `json:"smog_index"`
	GunningFog         float64 `json:"gunning_fog"`
}

// ReadabilityResult is the output of ReadabilityAnalyzer
type ReadabilityResult struct {
	ScoreResult
	Metrics      TextMetrics         `json:"metrics"`
	Formulas     ReadabilityFormulas `json:"formulas"`
	ReadingLevel string              `json:"reading_level"`
}

// ReadabilityAnalyzer scores how easy the content is to read
type ReadabilityAnalyzer struct {
	cfg    ReadabilitySettings
	scorer Scorer
}

// NewReadabilityAnalyzer creates a readability analyzer
func NewReadabilityAnalyzer(s Settings) *ReadabilityAnalyzer {
	return &ReadabilityAnalyzer{
		cfg:    s.Readability,
		scorer: NewScorer(s.Readability.Weights),
	}
}

// Name returns the component name
func (a *ReadabilityAnalyzer) Name() ComponentName {
	return ReadabilityComponent
}

// Analyze computes readability formulas and sub-scores
func (a *ReadabilityAnalyzer) Analyze(ctx context.Context, in *Input) (Result, error) {
	result := &ReadabilityResult{ScoreResult: newScoreResult()}

	m := a.metrics(in.TextContent, in.HTML)
	result.Metrics = m
	if m.Words == 0 {
		result.ReadingLevel = ReadingLevels.Fallback
		result.AddIssue("No readable text found")
		result.AddRecommendation(TypeError, "readability", ImpactHigh,
			"Page has no readable text",
			"Add body text written in complete sentences")
		a.scorer.Finalize(&result.ScoreResult)
		return result, nil
	}

	f := Formulas(m)
	result.Formulas = f
	result.ReadingLevel = ReadingLevels.Lookup(f.FleschReadingEase)

	headings := 0
	if in.Content != nil {
		headings = in.Content.HeadingCount()
	}

	result.SubScores["flesch_ease"] = f.FleschReadingEase
	result.SubScores["flesch_kincaid"] = gradeToScore(f.FleschKincaidGrade)
	result.SubScores["ari"] = gradeToScore(f.ARI)
	result.SubScores["structural"] = a.structural(m, in.HTML, headings)
	result.SubScores["vocabulary"] = a.vocabulary(m)
	result.SubScores["sentence"] = a.sentence(m)

	a.recommend(result, headings)
	a.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

func (a *ReadabilityAnalyzer) metrics(content, html string) TextMetrics {
	var m TextMetrics

	words := text.Words(content)
	m.Words = len(words)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
		syl := text.CountSyllables(w)
		m.Syllables += syl
		m.Characters += len(w)
		if syl >= a.cfg.ComplexWordSyllables {
			m.ComplexWords++
		}
		if len(w) >= a.cfg.LongWordChars {
			m.LongWords++
		}
	}
	m.UniqueWords = len(unique)

	sentences := text.SplitSentences(content)
	for _, s := range sentences {
		n := len(text.Words(s))
		if n > a.cfg.LongSentenceWords {
			m.LongSentences++
		}
		if n > a.cfg.VeryLongSentenceWords {
			m.VeryLongSentences++
		}
	}
	m.Sentences = len(sentences)
	if m.Sentences == 0 && m.Words > 0 {
		m.Sentences = 1
	}

	m.Paragraphs = len(paragraphTag.FindAllStringIndex(html, -1))
	if m.Paragraphs == 0 {
		for _, p := range blankLines.Split(content, -1) {
			if strings.TrimSpace(p) != "" {
				m.Paragraphs++
			}
		}
	}
	if m.Paragraphs == 0 && m.Words > 0 {
		m.Paragraphs = 1
	}

	m.AvgSentenceLength = round(ratio(float64(m.Words), float64(m.Sentences)))
	m.AvgSyllablesPerWord = round(ratio(float64(m.Syllables), float64(m.Words)))
	m.AvgParagraphLength = round(ratio(float64(m.Words), float64(m.Paragraphs)))
	return m
}

// Formulas applies the six readability formulas to m. m must have words and sentences.
func Formulas(m TextMetrics) ReadabilityFormulas {
	words := float64(m.Words)
	sentences := float64(m.Sentences)
	wps := words / sentences
	spw := float64(m.Syllables) / words
	cpw := float64(m.Characters) / words

	l := cpw * 100
	s := sentences / words * 100

	return ReadabilityFormulas{
		FleschReadingEase:  round(Clamp(206.835 - 1.015*wps - 84.6*spw)),
		FleschKincaidGrade: round(math.Max(0, 0.39*wps+11.8*spw-15.59)),
		ARI:                round(4.71*cpw + 0.5*wps - 21.43),
		ColemanLiau:        round(0.0588*l - 0.296*s - 15.8),
		SMOG:               round(1.043*math.Sqrt(float64(m.ComplexWords)*30/sentences) + 3.1291),
		GunningFog:         round(0.4 * (wps + 100*float64(m.ComplexWords)/words)),
	}
}

// gradeToScore maps a US grade level to 0-100, lower grades scoring higher
func gradeToScore(grade float64) float64 {
	return math.Max(0, math.Min(100, 100-grade*4))
}

func (a *ReadabilityAnalyzer) structural(m TextMetrics, html string, headings int) float64 {
	score := 100.0
	switch {
	case m.AvgParagraphLength > a.cfg.LongParagraphWords:
		score -= 20
	case m.AvgParagraphLength > a.cfg.ModerateParagraphWords:
		score -= 10
	}
	lists := len(listTag.FindAllStringIndex(html, -1))
	bold := len(boldTag.FindAllStringIndex(html, -1))
	score += math.Min(15, float64(lists)*5)
	score += math.Min(10, float64(headings)*2)
	score += math.Min(5, float64(bold))
	return Clamp(score)
}

func (a *ReadabilityAnalyzer) vocabulary(m TextMetrics) float64 {
	words := float64(m.Words)
	complexRatio := float64(m.ComplexWords) / words
	longRatio := float64(m.LongWords) / words
	diversity := float64(m.UniqueWords) / words
	return Clamp(100 - complexRatio*100 - longRatio*50 + diversity*20)
}

func (a *ReadabilityAnalyzer) sentence(m TextMetrics) float64 {
	sentences := float64(m.Sentences)
	score := 100 - float64(m.LongSentences)/sentences*50 - float64(m.VeryLongSentences)/sentences*30
	switch {
	case m.AvgSentenceLength > float64(a.cfg.LongSentenceWords):
		score -= 15
	case m.AvgSentenceLength > 20:
		score -= 5
	}
	return Clamp(score)
}

func (a *ReadabilityAnalyzer) recommend(r *ReadabilityResult, headings int) {
	m, f := r.Metrics, r.Formulas

	if f.FleschReadingEase < 30 {
		r.AddIssue("Content is very difficult to read (Flesch %.1f)", f.FleschReadingEase)
		r.AddRecommendation(TypeError, "readability", ImpactHigh,
			"Content is very difficult to read",
			"Use shorter sentences and simpler words")
	} else if f.FleschReadingEase < 50 {
		r.AddIssue("Content is fairly difficult to read (Flesch %.1f)", f.FleschReadingEase)
		r.AddRecommendation(TypeWarning, "readability", ImpactMedium,
			"Content is harder to read than most web audiences prefer",
			"Aim for a Flesch Reading Ease of 60 or higher")
	}

	if f.FleschKincaidGrade > 12 {
		r.AddRecommendation(TypeWarning, "readability", ImpactMedium,
			fmt.Sprintf("Content requires grade %.1f reading level", f.FleschKincaidGrade),
			"Target an 8th-9th grade reading level for general audiences")
	}

	if m.AvgSentenceLength > float64(a.cfg.LongSentenceWords) {
		r.AddIssue("Average sentence length is %.1f words", m.AvgSentenceLength)
		r.AddRecommendation(TypeWarning, "readability", ImpactMedium,
			"Sentences are too long on average",
			fmt.Sprintf("Keep sentences under %d words", a.cfg.LongSentenceWords))
	} else if m.LongSentences > 0 && float64(m.LongSentences)/float64(m.Sentences) > 0.2 {
		r.AddRecommendation(TypeSuggestion, "readability", ImpactLow,
			fmt.Sprintf("%d sentences exceed %d words", m.LongSentences, a.cfg.LongSentenceWords),
			"Split long sentences into two")
	}

	if m.AvgParagraphLength > a.cfg.LongParagraphWords {
		r.AddIssue("Paragraphs average %.0f words", m.AvgParagraphLength)
		r.AddRecommendation(TypeWarning, "readability", ImpactMedium,
			"Paragraphs are too long",
			"Break paragraphs into chunks of 3-4 sentences")
	} else if m.AvgParagraphLength > a.cfg.ModerateParagraphWords {
		r.AddRecommendation(TypeSuggestion, "readability", ImpactLow,
			"Paragraphs are somewhat long",
			"Consider shorter paragraphs for easier scanning")
	}

	if ratio(float64(m.ComplexWords), float64(m.Words)) > 0.2 {
		r.AddRecommendation(TypeSuggestion, "readability", ImpactMedium,
			"Many words have three or more syllables",
			"Replace complex words with simpler alternatives where possible")
	}

	if headings == 0 && m.Words > 300 {
		r.AddRecommendation(TypeSuggestion, "readability", ImpactMedium,
			"Long content has no subheadings",
			"Add subheadings every 200-300 words")
	}
}
