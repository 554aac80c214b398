package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// Keyword classifications
const (
	Optimal        = "optimal"
	UnderOptimized = "under_optimized"
	OverOptimized  = "over_optimized"
)

// KeywordDensity is one row of a density table
type KeywordDensity struct {
	Keyword        string  `json:"keyword"`
	Count          int     `json:"count"`
	Density        float64 `json:"density"`
	Classification string  `json:"classification"`
}

// StuffingIndicator names a term that triggered stuffing detection
type StuffingIndicator struct {
	Term    string  `json:"term"`
	Density float64 `json:"density"`
	Reason  string  `json:"reason"`
}

// StuffingReport is the outcome of keyword stuffing detection
type StuffingReport struct {
	HasStuffing bool                `json:"has_stuffing"`
	Indicators  []StuffingIndicator `json:"indicators"`
}

// TitleHeadingReport cross-references top keywords with the title and headings
type TitleHeadingReport struct {
	TitleKeywords   []string `json:"title_keywords"`
	HeadingKeywords []string `json:"heading_keywords"`
	MissingInTitle  []string `json:"missing_in_title"`
	TitleScore      float64  `json:"title_score"`
	HeadingScore    float64  `json:"heading_score"`
}

// KeywordDistribution describes how evenly a term is spread across sections
type KeywordDistribution struct {
	Keyword         string  `json:"keyword"`
	SectionCounts   []int   `json:"section_counts"`
	Variation       float64 `json:"coefficient_of_variation"`
	Score           float64 `json:"score"`
	WellDistributed bool    `json:"well_distributed"`
}

// SemanticGroup is a cluster of similarly spelled keywords
type SemanticGroup struct {
	Root       string   `json:"root"`
	Words      []string `json:"words"`
	TotalCount int      `json:"total_count"`
}

// KeywordResult is the output of KeywordDensityAnalyzer
type KeywordResult struct {
	ScoreResult
	TotalWords     int                   `json:"total_words"`
	UniqueWords    int                   `json:"unique_words"`
	SingleWords    []KeywordDensity      `json:"single_words"`
	Phrases        []KeywordDensity      `json:"phrases"`
	LongPhrases    []KeywordDensity      `json:"long_phrases"`
	TargetKeywords []KeywordDensity      `json:"target_keywords"`
	Stuffing       StuffingReport        `json:"stuffing"`
	TitleHeading   TitleHeadingReport    `json:"title_heading"`
	Distribution   []KeywordDistribution `json:"distribution"`
	SemanticGroups []SemanticGroup       `json:"semantic_groups"`
}

// KeywordDensityAnalyzer measures term frequencies and keyword placement
type KeywordDensityAnalyzer struct {
	cfg       KeywordSettings
	tokenizer *text.Tokenizer
	scorer    Scorer
}

// NewKeywordDensityAnalyzer creates a keyword analyzer over the given settings
func NewKeywordDensityAnalyzer(s Settings) *KeywordDensityAnalyzer {
	return &KeywordDensityAnalyzer{
		cfg:       s.Keyword,
		tokenizer: text.NewTokenizer(s.StopWords),
		scorer:    NewScorer(nil),
	}
}

// Name returns the component name
func (a *KeywordDensityAnalyzer) Name() ComponentName {
	return KeywordDensityComponent
}

// Analyze builds density tables and scores keyword usage
func (a *KeywordDensityAnalyzer) Analyze(ctx context.Context, in *Input) (Result, error) {
	result := &KeywordResult{
		ScoreResult:    newScoreResult(),
		SingleWords:    []KeywordDensity{},
		Phrases:        []KeywordDensity{},
		LongPhrases:    []KeywordDensity{},
		TargetKeywords: []KeywordDensity{},
		Stuffing:       StuffingReport{Indicators: []StuffingIndicator{}},
		Distribution:   []KeywordDistribution{},
		SemanticGroups: []SemanticGroup{},
	}

	tokens := a.tokenizer.Tokenize(in.TextContent)
	result.TotalWords = len(tokens)
	if len(tokens) == 0 {
		result.AddIssue("No keywords found in content")
		result.AddRecommendation(TypeError, "keywords", ImpactHigh,
			"Page has no analyzable text content",
			"Add meaningful body text that covers the page topic")
		a.scorer.Finalize(&result.ScoreResult)
		return result, nil
	}

	singles := text.RepeatedNGrams(tokens, 1, 1)
	result.UniqueWords = len(singles)
	total := float64(len(tokens))

	result.SingleWords = a.densityTable(singles, total, a.cfg.Single)
	result.Phrases = a.densityTable(text.RepeatedNGrams(tokens, 2, 2), total, a.cfg.Phrase)
	result.LongPhrases = a.densityTable(text.RepeatedNGrams(tokens, 3, 2), total, a.cfg.Trigram)
	result.TargetKeywords = a.targetTable(tokens, in.Options.TargetKeywords)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Stuffing = a.detectStuffing(result)
	result.TitleHeading = a.crossReference(result.SingleWords, in.Content)
	result.Distribution = a.distribution(tokens, result)
	result.SemanticGroups = a.semanticGroups(result.SingleWords)

	a.score(result)
	a.recommend(result, in.Content)
	a.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

func (a *KeywordDensityAnalyzer) classify(density float64, band DensityBand) string {
	switch {
	case density > band.Over:
		return OverOptimized
	case density < band.OptimalMin:
		return UnderOptimized
	default:
		return Optimal
	}
}

func (a *KeywordDensityAnalyzer) densityTable(counts map[string]int, total float64, band DensityBand) []KeywordDensity {
	freqs := text.SortedFrequencies(counts)
	if len(freqs) > a.cfg.TopKeywords {
		freqs = freqs[:a.cfg.TopKeywords]
	}
	table := make([]KeywordDensity, 0, len(freqs))
	for _, f := range freqs {
		density := round(float64(f.Count) / total * 100)
		table = append(table, KeywordDensity{
			Keyword:        f.Term,
			Count:          f.Count,
			Density:        density,
			Classification: a.classify(density, band),
		})
	}
	return table
}

func (a *KeywordDensityAnalyzer) targetTable(tokens []string, targets []string) []KeywordDensity {
	table := []KeywordDensity{}
	seen := make(map[string]bool)
	total := float64(len(tokens))
	for _, target := range targets {
		words := a.tokenizer.Tokenize(target)
		if len(words) == 0 {
			continue
		}
		phrase := strings.Join(words, " ")
		if seen[phrase] {
			continue
		}
		seen[phrase] = true

		count := 0
		for _, g := range text.NGrams(tokens, len(words)) {
			if g == phrase {
				count++
			}
		}
		band := a.cfg.Single
		switch {
		case len(words) == 2:
			band = a.cfg.Phrase
		case len(words) > 2:
			band = a.cfg.Trigram
		}
		density := round(float64(count) / total * 100)
		table = append(table, KeywordDensity{
			Keyword:        phrase,
			Count:          count,
			Density:        density,
			Classification: a.classify(density, band),
		})
	}
	return table
}

func (a *KeywordDensityAnalyzer) detectStuffing(r *KeywordResult) StuffingReport {
	report := StuffingReport{Indicators: []StuffingIndicator{}}

	for i, kw := range r.SingleWords {
		if i >= 10 {
			break
		}
		if kw.Density > a.cfg.StuffingWordDensity {
			report.Indicators = append(report.Indicators, StuffingIndicator{
				Term:    kw.Keyword,
				Density: kw.Density,
				Reason:  fmt.Sprintf("word density above %.0f%%", a.cfg.StuffingWordDensity),
			})
		}
	}
	for i, kw := range r.Phrases {
		if i >= 5 {
			break
		}
		if kw.Density > a.cfg.StuffingPhraseDensity {
			report.Indicators = append(report.Indicators, StuffingIndicator{
				Term:    kw.Keyword,
				Density: kw.Density,
				Reason:  fmt.Sprintf("phrase density above %.0f%%", a.cfg.StuffingPhraseDensity),
			})
		}
	}

	dense := 0
	for _, kw := range r.SingleWords {
		if kw.Density > a.cfg.ConcentrationDensity {
			dense++
		}
	}
	if dense > a.cfg.ConcentrationCount && r.TotalWords < a.cfg.ConcentrationMaxWords {
		report.Indicators = append(report.Indicators, StuffingIndicator{
			Term:   fmt.Sprintf("%d keywords", dense),
			Reason: fmt.Sprintf("more than %d words above %.0f%% density in short content", a.cfg.ConcentrationCount, a.cfg.ConcentrationDensity),
		})
	}

	report.HasStuffing = len(report.Indicators) > 0
	return report
}

func (a *KeywordDensityAnalyzer) headingWeight(level int) float64 {
	if w, ok := a.cfg.HeadingWeights[level]; ok {
		return w
	}
	return a.cfg.DefaultHeadingWeight
}

func (a *KeywordDensityAnalyzer) crossReference(singles []KeywordDensity, content *parser.ParsedContent) TitleHeadingReport {
	report := TitleHeadingReport{
		TitleKeywords:   []string{},
		HeadingKeywords: []string{},
		MissingInTitle:  []string{},
	}
	if content == nil {
		return report
	}

	top := singles
	if len(top) > 10 {
		top = top[:10]
	}
	if len(top) == 0 {
		return report
	}

	titleWords := wordSet(a.tokenizer.Tokenize(content.Meta.Title))
	for _, kw := range top {
		if titleWords[kw.Keyword] {
			report.TitleKeywords = append(report.TitleKeywords, kw.Keyword)
		} else if len(report.MissingInTitle) < 3 {
			report.MissingInTitle = append(report.MissingInTitle, kw.Keyword)
		}
	}
	wanted := math.Min(3, float64(len(top)))
	report.TitleScore = round(math.Min(100, float64(len(report.TitleKeywords))/wanted*100))

	var totalWeight, matchedWeight float64
	matched := make(map[string]bool)
	for level := 1; level <= 6; level++ {
		for _, h := range content.Headings[level] {
			w := a.headingWeight(level)
			totalWeight += w
			hw := wordSet(a.tokenizer.Tokenize(h.Text))
			hit := false
			for _, kw := range top {
				if hw[kw.Keyword] {
					hit = true
					matched[kw.Keyword] = true
				}
			}
			if hit {
				matchedWeight += w
			}
		}
	}
	for _, kw := range top {
		if matched[kw.Keyword] {
			report.HeadingKeywords = append(report.HeadingKeywords, kw.Keyword)
		}
	}
	report.HeadingScore = round(ratio(matchedWeight, totalWeight) * 100)
	return report
}

// sectionCounts counts occurrences of term (an n-gram of n tokens) in each of k sections
func sectionCounts(tokens []string, term string, n, k int) []int {
	counts := make([]int, k)
	for i, g := range text.NGrams(tokens, n) {
		if g == term {
			counts[i*k/len(tokens)]++
		}
	}
	return counts
}

// variation returns the coefficient of variation (stddev / mean)
func variation(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	sq := 0.0
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(values))) / mean
}

func (a *KeywordDensityAnalyzer) distribution(tokens []string, r *KeywordResult) []KeywordDistribution {
	sections := a.cfg.DistributionSections
	if sections < 1 {
		sections = 1
	}
	out := []KeywordDistribution{}
	add := func(term string, n int) {
		counts := sectionCounts(tokens, term, n, sections)
		cv := variation(counts)
		out = append(out, KeywordDistribution{
			Keyword:         term,
			SectionCounts:   counts,
			Variation:       round(cv),
			Score:           round(Clamp(100 - cv*50)),
			WellDistributed: cv <= 0.5,
		})
	}
	for i, kw := range r.SingleWords {
		if i >= 5 {
			break
		}
		add(kw.Keyword, 1)
	}
	for i, kw := range r.Phrases {
		if i >= 10 {
			break
		}
		add(kw.Keyword, 2)
	}
	return out
}

func (a *KeywordDensityAnalyzer) semanticGroups(singles []KeywordDensity) []SemanticGroup {
	groups := []SemanticGroup{}
	used := make([]bool, len(singles))
	for i := range singles {
		if used[i] {
			continue
		}
		group := SemanticGroup{Root: singles[i].Keyword, Words: []string{singles[i].Keyword}, TotalCount: singles[i].Count}
		for j := i + 1; j < len(singles); j++ {
			if used[j] {
				continue
			}
			if text.CharSimilarity(singles[i].Keyword, singles[j].Keyword) >= a.cfg.SemanticSimilarity {
				used[j] = true
				group.Words = append(group.Words, singles[j].Keyword)
				group.TotalCount += singles[j].Count
			}
		}
		if len(group.Words) > 1 {
			groups = append(groups, group)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalCount > groups[j].TotalCount
	})
	return groups
}

func (a *KeywordDensityAnalyzer) score(r *KeywordResult) {
	over := 0
	for _, table := range [][]KeywordDensity{r.SingleWords, r.Phrases, r.LongPhrases} {
		for _, kw := range table {
			if kw.Classification == OverOptimized {
				over++
			}
		}
	}
	under := 0
	for i, kw := range r.SingleWords {
		if i >= 10 {
			break
		}
		if kw.Classification == UnderOptimized {
			under++
		}
	}
	bonus := 0.0
	distScore, distCount := 0.0, 0
	for _, d := range r.Distribution {
		distScore += d.Score
		distCount++
		if d.WellDistributed && strings.Contains(d.Keyword, " ") {
			bonus += 2
		}
	}

	r.Score = 100 - 10*float64(over) - 3*float64(under) + math.Min(20, bonus)

	optimal := 0
	for i, kw := range r.SingleWords {
		if i < 10 && kw.Classification == Optimal {
			optimal++
		}
	}
	top := math.Min(10, float64(len(r.SingleWords)))
	r.SubScores["density"] = ratio(float64(optimal), top) * 100
	r.SubScores["title_heading"] = (r.TitleHeading.TitleScore + r.TitleHeading.HeadingScore) / 2
	if distCount > 0 {
		r.SubScores["distribution"] = distScore / float64(distCount)
	} else {
		r.SubScores["distribution"] = 100
	}
	r.SubScores["stuffing"] = 100 - 25*float64(len(r.Stuffing.Indicators))

	for _, kw := range r.SingleWords {
		if kw.Classification == OverOptimized {
			r.AddIssue("Keyword %q is over-optimized (%.2f%% density)", kw.Keyword, kw.Density)
		}
	}
	for _, kw := range r.Phrases {
		if kw.Classification == OverOptimized {
			r.AddIssue("Phrase %q is over-optimized (%.2f%% density)", kw.Keyword, kw.Density)
		}
	}
}

func (a *KeywordDensityAnalyzer) recommend(r *KeywordResult, content *parser.ParsedContent) {
	if r.Stuffing.HasStuffing {
		terms := make([]string, 0, len(r.Stuffing.Indicators))
		for _, ind := range r.Stuffing.Indicators {
			terms = append(terms, ind.Term)
		}
		r.AddIssue("Keyword stuffing detected: %s", strings.Join(terms, ", "))
		r.AddRecommendation(TypeError, "keywords", ImpactHigh,
			"Keyword stuffing detected",
			fmt.Sprintf("Reduce repetition of %s and use synonyms or related terms", strings.Join(terms, ", ")))
	}

	for _, kw := range r.SingleWords {
		if kw.Classification == OverOptimized {
			r.AddRecommendation(TypeWarning, "keywords", ImpactMedium,
				fmt.Sprintf("Keyword %q appears too often (%.2f%%)", kw.Keyword, kw.Density),
				fmt.Sprintf("Keep the density of %q between %.0f%% and %.0f%%", kw.Keyword, a.cfg.Single.OptimalMin, a.cfg.Single.OptimalMax))
		}
	}

	for _, t := range r.TargetKeywords {
		switch t.Classification {
		case UnderOptimized:
			r.AddRecommendation(TypeWarning, "keywords", ImpactMedium,
				fmt.Sprintf("Target keyword %q is under-used (%.2f%%)", t.Keyword, t.Density),
				fmt.Sprintf("Mention %q naturally in more paragraphs", t.Keyword))
		case OverOptimized:
			r.AddRecommendation(TypeWarning, "keywords", ImpactHigh,
				fmt.Sprintf("Target keyword %q is over-used (%.2f%%)", t.Keyword, t.Density),
				fmt.Sprintf("Replace some occurrences of %q with variations", t.Keyword))
		}
	}

	if content != nil {
		if strings.TrimSpace(content.Meta.Title) == "" {
			r.AddRecommendation(TypeError, "keywords", ImpactHigh,
				"Page title is missing",
				"Add a title that contains the primary keyword")
		} else if len(r.TitleHeading.TitleKeywords) == 0 && len(r.SingleWords) > 0 {
			r.AddRecommendation(TypeWarning, "keywords", ImpactHigh,
				"Title does not contain any of the main keywords",
				fmt.Sprintf("Include %q in the page title", r.SingleWords[0].Keyword))
		}
		if content.HeadingCount() > 0 && r.TitleHeading.HeadingScore < 50 {
			r.AddRecommendation(TypeSuggestion, "keywords", ImpactMedium,
				"Headings rarely use the main keywords",
				"Work the primary keywords into H1 and H2 headings")
		}
	}

	poor := []string{}
	for _, d := range r.Distribution {
		if !d.WellDistributed && !strings.Contains(d.Keyword, " ") {
			poor = append(poor, d.Keyword)
		}
	}
	if len(poor) > 0 {
		r.AddRecommendation(TypeSuggestion, "keywords", ImpactLow,
			"Main keywords are concentrated in a few parts of the page",
			fmt.Sprintf("Spread %s more evenly through the content", strings.Join(poor, ", ")))
	}
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
