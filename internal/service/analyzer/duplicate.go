package analyzer

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// Duplicate kinds
const (
	DuplicateExact = "exact"
	DuplicateNear  = "near"

	maxNearSimilarity = 0.99
)

var (
	templateMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\{\{[^}]*\}\}`),
		regexp.MustCompile(`\$\{[^}]*\}`),
		regexp.MustCompile(`\[[A-Z][A-Z_ ]{2,}\]`),
		regexp.MustCompile(`%[a-zA-Z_]+%`),
		regexp.MustCompile(`(?i)lorem ipsum`),
	}
	spaceRun      = regexp.MustCompile(`\S {4,}\S`)
	lineBreakRun  = regexp.MustCompile(`\S[ \t]*(?:\r?\n[ \t]*){3,}\S`)
	straightQuote = regexp.MustCompile(`["']`)
	curlyQuote    = regexp.MustCompile(`[“”‘’]`)
)

// DuplicatePair is a pair of chunks with identical or highly similar text
type DuplicatePair struct {
	First      int     `json:"first_chunk"`
	Second     int     `json:"second_chunk"`
	Similarity float64 `json:"similarity"`
	Kind       string  `json:"kind"`
	Preview    string  `json:"preview"`
}

// Fingerprints identify the content for cross-page comparisons
type Fingerprints struct {
	MD5           string `json:"md5"`
	SHA256        string `json:"sha256"`
	ContentHash   string `json:"content_hash"`
	SemanticHash  string `json:"semantic_hash"`
	StructureHash string `json:"structure_hash"`
}

// PatternReport lists repetitive, templated and pasted content patterns
type PatternReport struct {
	Score              float64          `json:"score"`
	RepeatedPhrases    []text.Frequency `json:"repeated_phrases"`
	BoilerplatePhrases []string         `json:"boilerplate_phrases"`
	TemplateMarkers    []string         `json:"template_markers"`
	FormattingIssues   []string         `json:"formatting_issues"`
	TotalIssues        int              `json:"total_issues"`
}

// BoilerplateReport measures navigation, header, footer and sidebar text
type BoilerplateReport struct {
	Score      float64 `json:"score"`
	Words      int     `json:"words"`
	Percentage float64 `json:"percentage"`
}

// ThinContentReport is the thin-content verdict
type ThinContentReport struct {
	Check
	IsThinContent   bool    `json:"is_thin_content"`
	TextHTMLRatio   float64 `json:"text_html_ratio"`
	UniqueWordRatio float64 `json:"unique_word_ratio"`
}

// UniquenessReport is the composite uniqueness estimate
type UniquenessReport struct {
	Score                float64 `json:"score"`
	ContentDepth         float64 `json:"content_depth"`
	VocabularyRichness   float64 `json:"vocabulary_richness"`
	StructuralUniqueness float64 `json:"structural_uniqueness"`
}

// SEOImpact is the estimated ranking risk of duplicated or thin content
type SEOImpact struct {
	Score     float64 `json:"score"`
	RiskLevel string  `json:"risk_level"`
	Penalty   float64 `json:"penalty"`
}

// DuplicateResult is the output of DuplicateContentDetector
type DuplicateResult struct {
	ScoreResult
	InsufficientContent bool              `json:"insufficient_content"`
	WordCount           int               `json:"word_count"`
	ChunkCount          int               `json:"chunk_count"`
	DuplicateCount      int               `json:"duplicate_count"`
	DuplicatePercentage float64           `json:"duplicate_percentage"`
	Duplicates          []DuplicatePair   `json:"duplicates"`
	Fingerprints        Fingerprints      `json:"fingerprints"`
	Patterns            PatternReport     `json:"patterns"`
	Boilerplate         BoilerplateReport `json:"boilerplate"`
	ThinContent         ThinContentReport `json:"thin_content"`
	Uniqueness          UniquenessReport  `json:"uniqueness"`
	SEOImpact           SEOImpact         `json:"seo_impact"`
}

// DuplicateContentDetector finds repeated chunks, boilerplate and thin content
type DuplicateContentDetector struct {
	cfg       DuplicateSettings
	tokenizer *text.Tokenizer
	scorer    Scorer
}

// NewDuplicateContentDetector creates a duplicate content detector
func NewDuplicateContentDetector(s Settings) *DuplicateContentDetector {
	return &DuplicateContentDetector{
		cfg:       s.Duplicate,
		tokenizer: text.NewTokenizer(s.StopWords),
		scorer:    NewScorer(s.Duplicate.Weights),
	}
}

// Name returns the component name
func (d *DuplicateContentDetector) Name() ComponentName {
	return DuplicateContentComponent
}

// Analyze runs duplicate, pattern, boilerplate and thin-content detection
func (d *DuplicateContentDetector) Analyze(ctx context.Context, in *Input) (Result, error) {
	result := &DuplicateResult{
		ScoreResult: newScoreResult(),
		Duplicates:  []DuplicatePair{},
	}

	words := text.Words(in.TextContent)
	result.WordCount = len(words)
	if len(words) < d.cfg.MinWords {
		result.InsufficientContent = true
		result.AddIssue("Insufficient content for duplicate analysis (%d words)", len(words))
		result.AddRecommendation(TypeError, "content", ImpactHigh,
			"Insufficient content for analysis",
			fmt.Sprintf("Add at least %d words of unique content", d.cfg.MinWords))
		result.Score = 0
		result.Grade = LetterGrades.Fallback
		return result, nil
	}

	opts := in.Options.WithDefaults()
	if err := d.internalDuplicates(ctx, words, opts, result); err != nil {
		return nil, err
	}
	result.Fingerprints = d.fingerprints(words, in.TextContent)
	result.Patterns = d.patterns(in.TextContent, in.HTML)

	boilerplate, err := d.boilerplate(in.HTML, len(words))
	if err != nil {
		return nil, err
	}
	result.Boilerplate = boilerplate
	result.ThinContent = d.thinContent(words, in.TextContent, in.HTML)
	result.Uniqueness = d.uniqueness(words, in.TextContent, result)
	result.SEOImpact = seoImpact(result)

	result.SubScores["internal_duplicates"] = Clamp(100 - 2*result.DuplicatePercentage)
	result.SubScores["content_patterns"] = result.Patterns.Score
	result.SubScores["uniqueness"] = result.Uniqueness.Score
	result.SubScores["thin_content"] = result.ThinContent.Score
	result.SubScores["boilerplate"] = result.Boilerplate.Score
	result.SubScores["seo_impact"] = result.SEOImpact.Score
	result.Issues = append(result.Issues, result.ThinContent.Issues...)

	d.recommend(result)
	d.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

// Chunks splits words into windows of size words with a stride of size/2.
// Text shorter than one window yields a single chunk.
func Chunks(words []string, size int) [][]string {
	if len(words) <= size {
		return [][]string{words}
	}
	stride := size / 2
	if stride < 1 {
		stride = 1
	}
	var chunks [][]string
	for start := 0; start+size <= len(words); start += stride {
		chunks = append(chunks, words[start:start+size])
	}
	return chunks
}

func hashWords(words []string) string {
	sum := sha256.Sum256([]byte(strings.Join(words, " ")))
	return hex.EncodeToString(sum[:])
}

func (d *DuplicateContentDetector) internalDuplicates(ctx context.Context, words []string, opts Options, r *DuplicateResult) error {
	chunks := Chunks(words, opts.ChunkSize)
	r.ChunkCount = len(chunks)

	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		hashes[i] = hashWords(c)
	}

	duplicated := make(map[int]bool)
	for i := 0; i < len(chunks); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := i + 1; j < len(chunks); j++ {
			pair := DuplicatePair{First: i, Second: j}
			if hashes[i] == hashes[j] {
				pair.Similarity = 1.0
				pair.Kind = DuplicateExact
			} else {
				sim := text.Jaccard(chunks[i], chunks[j])
				if sim < opts.DuplicateThreshold {
					continue
				}
				// same word set in a different order is still near, not exact
				pair.Similarity = math.Min(round(sim), maxNearSimilarity)
				pair.Kind = DuplicateNear
			}
			pair.Preview = preview(chunks[j], 12)
			r.Duplicates = append(r.Duplicates, pair)
			duplicated[j] = true
		}
	}

	r.DuplicateCount = len(duplicated)
	pct := float64(r.DuplicateCount*opts.ChunkSize) / float64(len(words)) * 100
	r.DuplicatePercentage = round(math.Min(100, pct))
	return nil
}

func preview(words []string, n int) string {
	if len(words) > n {
		return strings.Join(words[:n], " ") + "..."
	}
	return strings.Join(words, " ")
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (d *DuplicateContentDetector) fingerprints(words []string, content string) Fingerprints {
	normalized := strings.Join(words, " ")
	sum := sha256.Sum256([]byte(normalized))

	var long []string
	counts := make(map[string]int)
	for _, w := range words {
		if len(w) > 3 {
			long = append(long, w)
		}
		if len(w) > 4 {
			counts[w]++
		}
	}

	freqs := text.SortedFrequencies(counts)
	if len(freqs) > 20 {
		freqs = freqs[:20]
	}
	top := make([]string, 0, len(freqs))
	for _, f := range freqs {
		top = append(top, f.Term)
	}
	sort.Strings(top)

	lengths := []string{}
	for _, s := range text.SplitSentences(content) {
		lengths = append(lengths, strconv.Itoa(len(text.Words(s))))
	}

	return Fingerprints{
		MD5:           md5Hex(normalized),
		SHA256:        hex.EncodeToString(sum[:]),
		ContentHash:   md5Hex(strings.Join(long, " ")),
		SemanticHash:  md5Hex(strings.Join(top, " ")),
		StructureHash: md5Hex(strings.Join(lengths, ",")),
	}
}

// rawTextNodes returns the non-blank text nodes of html with their original whitespace
func rawTextNodes(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	var nodes []string
	doc.Find("*").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "#text" {
			return
		}
		if t := s.Text(); strings.TrimSpace(t) != "" {
			nodes = append(nodes, t)
		}
	})
	return nodes, nil
}

// whitespaceSources picks the text the spacing checks run on. Extracted text
// is already collapsed, so markup is preferred when present.
func whitespaceSources(content, html string) []string {
	if strings.TrimSpace(html) == "" {
		return []string{content}
	}
	nodes, err := rawTextNodes(html)
	if err != nil {
		return []string{content}
	}
	return nodes
}

func anyMatch(re *regexp.Regexp, sources []string) bool {
	for _, s := range sources {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (d *DuplicateContentDetector) patterns(content, html string) PatternReport {
	p := PatternReport{
		RepeatedPhrases:    []text.Frequency{},
		BoilerplatePhrases: []string{},
		TemplateMarkers:    []string{},
		FormattingIssues:   []string{},
	}

	tokens := d.tokenizer.Tokenize(content)
	p.RepeatedPhrases = text.SortedFrequencies(text.RepeatedNGrams(tokens, 3, 3))

	lower := strings.ToLower(content)
	for _, phrase := range d.cfg.BoilerplatePhrases {
		if strings.Contains(lower, phrase) {
			p.BoilerplatePhrases = append(p.BoilerplatePhrases, phrase)
		}
	}

	for _, re := range templateMarkers {
		p.TemplateMarkers = append(p.TemplateMarkers, re.FindAllString(content, 5)...)
	}

	sources := whitespaceSources(content, html)
	if anyMatch(spaceRun, sources) {
		p.FormattingIssues = append(p.FormattingIssues, "runs of four or more spaces")
	}
	if straightQuote.MatchString(content) && curlyQuote.MatchString(content) {
		p.FormattingIssues = append(p.FormattingIssues, "mixed straight and curly quotes")
	}
	if anyMatch(lineBreakRun, sources) {
		p.FormattingIssues = append(p.FormattingIssues, "three or more consecutive line breaks")
	}

	p.TotalIssues = len(p.RepeatedPhrases) + len(p.BoilerplatePhrases) + len(p.TemplateMarkers) + len(p.FormattingIssues)
	p.Score = round(Clamp(100 - 5*float64(p.TotalIssues)))
	return p
}

func (d *DuplicateContentDetector) boilerplate(html string, totalWords int) (BoilerplateReport, error) {
	report := BoilerplateReport{Score: 100}
	if strings.TrimSpace(html) == "" || totalWords == 0 {
		return report, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return report, fmt.Errorf("parse html for boilerplate regions: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	doc.Find(d.cfg.BoilerplateRegions).Each(func(_ int, s *goquery.Selection) {
		// nested regions are counted with their outermost match
		if s.ParentsFiltered(d.cfg.BoilerplateRegions).Length() > 0 {
			return
		}
		report.Words += len(text.Words(s.Text()))
	})

	report.Percentage = round(math.Min(100, float64(report.Words)/float64(totalWords)*100))
	report.Score = round(Clamp(100 - 1.5*report.Percentage))
	return report, nil
}

func (d *DuplicateContentDetector) thinContent(words []string, content, html string) ThinContentReport {
	t := ThinContentReport{Check: newCheck(100)}

	switch n := len(words); {
	case n < 150:
		t.add(40, "Very short content (%d words)", n)
	case n < 300:
		t.add(20, "Short content (%d words)", n)
	}

	if html != "" {
		t.TextHTMLRatio = round(float64(len(content)) / float64(len(html)))
		switch {
		case t.TextHTMLRatio < 0.10:
			t.add(25, "Text is only %.0f%% of the HTML", t.TextHTMLRatio*100)
		case t.TextHTMLRatio < 0.20:
			t.add(15, "Text is %.0f%% of the HTML", t.TextHTMLRatio*100)
		}
	}

	t.UniqueWordRatio = round(float64(len(wordSet(words))) / float64(len(words)))
	if t.UniqueWordRatio < 0.3 {
		t.add(20, "Low vocabulary variety (%.0f%% unique words)", t.UniqueWordRatio*100)
	}

	t.Score = round(Clamp(t.Score))
	t.IsThinContent = t.Score < 60
	return t
}

func (d *DuplicateContentDetector) uniqueness(words []string, content string, r *DuplicateResult) UniquenessReport {
	u := UniquenessReport{
		ContentDepth:       round(math.Min(100, float64(len(words))/10)),
		VocabularyRichness: round(math.Min(100, r.ThinContent.UniqueWordRatio*200)),
	}

	var lengths []int
	for _, s := range text.SplitSentences(content) {
		lengths = append(lengths, len(text.Words(s)))
	}
	if len(lengths) > 1 {
		u.StructuralUniqueness = round(math.Min(100, variation(lengths)*150))
	} else {
		u.StructuralUniqueness = 50
	}

	u.Score = round(Clamp((100-r.DuplicatePercentage)*0.30 +
		r.Patterns.Score*0.25 +
		u.ContentDepth*0.20 +
		u.VocabularyRichness*0.15 +
		u.StructuralUniqueness*0.10))
	return u
}

func seoImpact(r *DuplicateResult) SEOImpact {
	points := 0
	switch {
	case r.DuplicatePercentage > 30:
		points += 3
	case r.DuplicatePercentage > 15:
		points += 2
	case r.DuplicatePercentage > 5:
		points++
	}
	switch {
	case r.Patterns.TotalIssues > 10:
		points += 2
	case r.Patterns.TotalIssues > 5:
		points++
	}
	if r.ThinContent.IsThinContent {
		points += 2
	}

	impact := SEOImpact{RiskLevel: RiskNone}
	switch {
	case points >= 5:
		impact.RiskLevel, impact.Penalty = RiskHigh, 50
	case points >= 3:
		impact.RiskLevel, impact.Penalty = RiskMedium, 30
	case points >= 1:
		impact.RiskLevel, impact.Penalty = RiskLow, 10
	}
	impact.Score = 100 - impact.Penalty
	return impact
}

func (d *DuplicateContentDetector) recommend(r *DuplicateResult) {
	if r.DuplicateCount > 0 {
		r.AddIssue("%d duplicated content blocks (%.1f%% of the text)", r.DuplicateCount, r.DuplicatePercentage)
		typ, impact := TypeWarning, ImpactMedium
		if r.DuplicatePercentage > 30 {
			typ, impact = TypeError, ImpactHigh
		}
		r.AddRecommendation(typ, "content", impact,
			fmt.Sprintf("%.1f%% of the content repeats itself", r.DuplicatePercentage),
			"Remove or rewrite repeated passages")
	}
	if r.ThinContent.IsThinContent {
		r.AddRecommendation(TypeError, "content", ImpactHigh,
			"Page content is thin",
			"Expand the page with at least 300 words of original, useful content")
	}
	if r.Boilerplate.Percentage > 30 {
		r.AddIssue("Boilerplate makes up %.0f%% of the text", r.Boilerplate.Percentage)
		r.AddRecommendation(TypeWarning, "content", ImpactMedium,
			"Navigation and footer text outweighs the main content",
			"Add more main content or trim repeated template regions")
	}
	if len(r.Patterns.TemplateMarkers) > 0 {
		r.AddIssue("Template placeholders found: %s", strings.Join(r.Patterns.TemplateMarkers, ", "))
		r.AddRecommendation(TypeError, "content", ImpactHigh,
			"Unfilled template placeholders found",
			"Replace placeholder text before publishing")
	}
	if len(r.Patterns.RepeatedPhrases) > 5 {
		r.AddRecommendation(TypeSuggestion, "content", ImpactLow,
			fmt.Sprintf("%d phrases are repeated three or more times", len(r.Patterns.RepeatedPhrases)),
			"Vary the wording of repeated phrases")
	}
	if len(r.Patterns.FormattingIssues) > 0 {
		r.AddRecommendation(TypeSuggestion, "content", ImpactLow,
			"Formatting suggests pasted content: "+strings.Join(r.Patterns.FormattingIssues, ", "),
			"Clean up spacing and quote styles")
	}
	if r.SEOImpact.RiskLevel == RiskHigh || r.SEOImpact.RiskLevel == RiskMedium {
		r.AddRecommendation(TypeWarning, "seo", ImpactHigh,
			fmt.Sprintf("Duplicate content SEO risk is %s", r.SEOImpact.RiskLevel),
			"Make the page substantially unique before promoting it")
	}
}
