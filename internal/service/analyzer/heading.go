package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

// WCAG verdicts
const (
	WCAGPass    = "Pass"
	WCAGPartial = "Partial"
	WCAGFail    = "Fail"
)

var (
	specialChars  = regexp.MustCompile(`[<>{}\[\]|\\^~*=_#@$%]`)
	specificToken = regexp.MustCompile(`\d|[a-zA-Z]{7,}`)
)

// HeadingEntry is one heading in document order
type HeadingEntry struct {
	Level     int    `json:"level"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	Position  int    `json:"position"`
	IsEmpty   bool   `json:"is_empty"`
}

// SkippedLevel records a jump of more than one level between consecutive headings
type SkippedLevel struct {
	From    int   `json:"from"`
	To      int   `json:"to"`
	Missing []int `json:"missing"`
}

// HeadingResult is the output of HeadingHierarchyValidator
type HeadingResult struct {
	ScoreResult
	Outline        []HeadingEntry `json:"outline"`
	LevelCounts    map[int]int    `json:"level_counts"`
	SkippedLevels  []SkippedLevel `json:"skipped_levels"`
	Hierarchy      Check          `json:"hierarchy"`
	Accessibility  Check          `json:"accessibility"`
	WCAGCompliance string         `json:"wcag_compliance"`
	SEO            Check          `json:"seo"`
	ContentQuality Check          `json:"content_quality"`
	Distribution   Check          `json:"distribution"`
	IsValid        bool           `json:"is_valid"`
}

// HeadingHierarchyValidator checks the H1-H6 outline of a page
type HeadingHierarchyValidator struct {
	cfg    HeadingSettings
	is     Heuristics
	scorer Scorer
}

// NewHeadingHierarchyValidator creates a heading validator
func NewHeadingHierarchyValidator(s Settings, h Heuristics) *HeadingHierarchyValidator {
	return &HeadingHierarchyValidator{
		cfg:    s.Heading,
		is:     h,
		scorer: NewScorer(s.Heading.Weights),
	}
}

// Name returns the component name
func (v *HeadingHierarchyValidator) Name() ComponentName {
	return HeadingStructureComponent
}

// Analyze validates the heading outline
func (v *HeadingHierarchyValidator) Analyze(ctx context.Context, in *Input) (Result, error) {
	var headings map[int][]parser.Heading
	if in.Content != nil {
		headings = in.Content.Headings
	}

	result := &HeadingResult{
		ScoreResult:   newScoreResult(),
		Outline:       Flatten(headings),
		LevelCounts:   make(map[int]int),
		SkippedLevels: []SkippedLevel{},
	}
	for _, h := range result.Outline {
		result.LevelCounts[h.Level]++
	}

	result.Hierarchy = v.checkHierarchy(result)
	result.Accessibility, result.WCAGCompliance = v.checkAccessibility(result.Outline)
	result.SEO = v.checkSEO(result)
	result.ContentQuality = v.checkContentQuality(result.Outline)
	result.Distribution = v.checkDistribution(result)

	checks := map[string]*Check{
		"hierarchy":       &result.Hierarchy,
		"accessibility":   &result.Accessibility,
		"seo":             &result.SEO,
		"content_quality": &result.ContentQuality,
		"distribution":    &result.Distribution,
	}
	for _, name := range []string{"hierarchy", "accessibility", "seo", "content_quality", "distribution"} {
		c := checks[name]
		c.Score = round(Clamp(c.Score))
		result.SubScores[name] = c.Score
		result.Issues = append(result.Issues, c.Issues...)
	}

	v.recommend(result)
	v.scorer.Finalize(&result.ScoreResult)
	result.IsValid = result.Score >= v.cfg.ValidScore
	return result, nil
}

// Flatten merges per-level heading lists into one outline ordered by position
func Flatten(headings map[int][]parser.Heading) []HeadingEntry {
	outline := []HeadingEntry{}
	for level := 1; level <= 6; level++ {
		for _, h := range headings[level] {
			t := strings.TrimSpace(h.Text)
			outline = append(outline, HeadingEntry{
				Level:     level,
				Text:      t,
				WordCount: len(strings.Fields(t)),
				Position:  h.Position,
				IsEmpty:   t == "",
			})
		}
	}
	sort.SliceStable(outline, func(i, j int) bool {
		if outline[i].Position != outline[j].Position {
			return outline[i].Position < outline[j].Position
		}
		return outline[i].Level < outline[j].Level
	})
	return outline
}

func (v *HeadingHierarchyValidator) checkHierarchy(r *HeadingResult) Check {
	c := newCheck(100)

	switch h1 := r.LevelCounts[1]; {
	case h1 == 0:
		c.add(30, "Missing H1 heading")
	case h1 > 1:
		c.add(20, "Multiple H1 headings found (%d)", h1)
	}

	for i := 1; i < len(r.Outline); i++ {
		prev, cur := r.Outline[i-1].Level, r.Outline[i].Level
		jump := cur - prev
		if jump <= 1 {
			continue
		}
		missing := make([]int, 0, jump-1)
		labels := make([]string, 0, jump-1)
		for l := prev + 1; l < cur; l++ {
			missing = append(missing, l)
			labels = append(labels, fmt.Sprintf("H%d", l))
		}
		r.SkippedLevels = append(r.SkippedLevels, SkippedLevel{From: prev, To: cur, Missing: missing})
		c.add(10, "Heading level skipped: H%d to H%d (missing %s)", prev, cur, strings.Join(labels, ", "))
		if jump > 2 {
			c.Issues = append(c.Issues, fmt.Sprintf("Deep nesting jump of %d levels at %q", jump, r.Outline[i].Text))
		}
	}
	return c
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 0
}

func (v *HeadingHierarchyValidator) checkAccessibility(outline []HeadingEntry) (Check, string) {
	c := newCheck(100)
	critical := false

	for _, h := range outline {
		if h.IsEmpty {
			critical = true
			c.add(15, "Empty H%d heading", h.Level)
			continue
		}
		if n := len(h.Text); n < v.cfg.MinLength || n > v.cfg.MaxLength {
			c.add(5, "H%d %q length %d is outside %d-%d characters", h.Level, h.Text, n, v.cfg.MinLength, v.cfg.MaxLength)
		}
		if v.is.IsVagueHeading(h.Text) {
			c.add(10, "H%d %q is vague", h.Level, h.Text)
		}
		if (len(h.Text) > 5 && isAllCaps(h.Text)) || specialChars.MatchString(h.Text) {
			c.add(8, "H%d %q uses all caps or special characters", h.Level, h.Text)
		}
	}

	verdict := WCAGPartial
	switch {
	case critical:
		verdict = WCAGFail
	case c.Score >= 80:
		verdict = WCAGPass
	}
	return c, verdict
}

func (v *HeadingHierarchyValidator) checkSEO(r *HeadingResult) Check {
	c := newCheck(100)

	var firstH1 *HeadingEntry
	deepest := 0
	for i := range r.Outline {
		h := &r.Outline[i]
		if h.Level == 1 && firstH1 == nil {
			firstH1 = h
		}
		if h.Level > deepest {
			deepest = h.Level
		}
	}

	if firstH1 == nil {
		c.add(30, "No H1 heading for search engines to identify the topic")
	} else if firstH1.WordCount < v.cfg.H1MinWords || firstH1.WordCount > v.cfg.H1MaxWords {
		c.add(10, "H1 has %d words, aim for %d-%d", firstH1.WordCount, v.cfg.H1MinWords, v.cfg.H1MaxWords)
	}

	if deepest > v.cfg.MaxDepth {
		c.add(10, "Heading structure is too deep (H%d used)", deepest)
	}

	total := float64(len(r.Outline))
	if total > 3 {
		share := func(level int) float64 { return float64(r.LevelCounts[level]) / total }
		if share(1) > 0.2 || share(2) < 0.3 || share(5) > 0.2 || share(6) > 0.15 {
			c.add(15, "Heading levels are poorly distributed")
		}
	}
	return c
}

func (v *HeadingHierarchyValidator) clarity(h HeadingEntry) float64 {
	score := 70.0
	if v.is.IsVagueHeading(h.Text) {
		score -= 20
	}
	if specificToken.MatchString(h.Text) {
		score += 10
	}
	switch {
	case h.WordCount >= 3 && h.WordCount <= 10:
		score += 10
	case h.WordCount > 12 || h.WordCount < 2:
		score -= 10
	}
	return score
}

func (v *HeadingHierarchyValidator) checkContentQuality(outline []HeadingEntry) Check {
	c := newCheck(100)
	seen := make(map[string]bool)

	for _, h := range outline {
		if h.IsEmpty {
			continue
		}
		if v.is.IsVagueHeading(h.Text) || len(h.Text) < 5 || h.WordCount < 2 {
			c.add(8, "H%d %q is not descriptive", h.Level, h.Text)
		}
		if h.WordCount == 1 && h.Level <= 3 {
			c.add(5, "H%d %q is a single word", h.Level, h.Text)
		}
		if v.clarity(h) < 60 {
			c.add(5, "H%d %q has low clarity", h.Level, h.Text)
		}
		key := normalizePhrase(h.Text)
		if seen[key] {
			c.add(10, "Duplicate heading %q", h.Text)
		}
		seen[key] = true
	}
	return c
}

func (v *HeadingHierarchyValidator) checkDistribution(r *HeadingResult) Check {
	// a full score needs the H2 reward
	c := newCheck(90)

	switch h2 := r.LevelCounts[2]; {
	case h2 > v.cfg.MaxH2:
		c.add(10, "Too many H2 headings (%d)", h2)
	case h2 >= v.cfg.MinH2:
		c.Score += 10
	default:
		c.add(0, "Only %d H2 headings, %d-%d divide the content into sections", h2, v.cfg.MinH2, v.cfg.MaxH2)
	}

	for i := 1; i < len(r.Outline); i++ {
		if r.Outline[i].Position-r.Outline[i-1].Position == 1 {
			c.add(15, "Headings are clustered without content between them")
			break
		}
	}
	return c
}

func (v *HeadingHierarchyValidator) recommend(r *HeadingResult) {
	if len(r.Outline) == 0 {
		r.AddRecommendation(TypeError, "headings", ImpactHigh,
			"Page has no headings",
			"Add an H1 with the page topic and H2 headings for each main section")
		return
	}

	switch h1 := r.LevelCounts[1]; {
	case h1 == 0:
		r.AddRecommendation(TypeError, "headings", ImpactHigh,
			"Missing H1 heading",
			"Add exactly one H1 that describes the page topic")
	case h1 > 1:
		r.AddRecommendation(TypeWarning, "headings", ImpactMedium,
			fmt.Sprintf("Page has %d H1 headings", h1),
			"Keep a single H1 and demote the others to H2")
	}

	for _, s := range r.SkippedLevels {
		r.AddRecommendation(TypeWarning, "headings", ImpactMedium,
			fmt.Sprintf("Heading level skipped from H%d to H%d", s.From, s.To),
			fmt.Sprintf("Insert an H%d or change the H%d to H%d", s.From+1, s.To, s.From+1))
	}

	empty := 0
	for _, h := range r.Outline {
		if h.IsEmpty {
			empty++
		}
	}
	if empty > 0 {
		r.AddRecommendation(TypeError, "accessibility", ImpactHigh,
			fmt.Sprintf("%d empty headings found", empty),
			"Give every heading meaningful text or remove it")
	}

	if r.ContentQuality.Score < 80 {
		r.AddRecommendation(TypeSuggestion, "headings", ImpactMedium,
			"Some headings are vague or not descriptive",
			"Use specific headings of 3-10 words that summarize the section")
	}

	if r.LevelCounts[2] == 0 && len(r.Outline) > 1 {
		r.AddRecommendation(TypeSuggestion, "headings", ImpactLow,
			"No H2 headings found",
			"Organize main sections under H2 headings")
	} else if r.LevelCounts[2] > v.cfg.MaxH2 {
		r.AddRecommendation(TypeSuggestion, "headings", ImpactLow,
			"Many H2 headings dilute the outline",
			"Group related H2 sections under fewer headings with H3 subsections")
	}
}
