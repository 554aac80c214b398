package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

// fillerText returns n unique filler words
func fillerText(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("filler%d", i)
	}
	return words
}

func runKeyword(t *testing.T, in *Input) *KeywordResult {
	t.Helper()
	res, err := NewKeywordDensityAnalyzer(DefaultSettings()).Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res.(*KeywordResult)
}

func TestKeywordStuffingDetected(t *testing.T) {
	words := fillerText(375)
	// interleave 25 occurrences of one word into 400 words
	var b strings.Builder
	for i, w := range words {
		b.WriteString(w + " ")
		if i%15 == 0 {
			b.WriteString("espresso ")
		}
	}
	content := b.String()
	if got := strings.Count(content, "espresso"); got != 25 {
		t.Fatalf("test text has %d occurrences, want 25", got)
	}

	result := runKeyword(t, &Input{TextContent: content})

	if !result.Stuffing.HasStuffing {
		t.Fatal("expected has_stuffing = true")
	}
	found := false
	for _, ind := range result.Stuffing.Indicators {
		if ind.Term == "espresso" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an indicator for %q, got %+v", "espresso", result.Stuffing.Indicators)
	}
	if result.SingleWords[0].Keyword != "espresso" || result.SingleWords[0].Classification != OverOptimized {
		t.Errorf("top keyword = %+v, want over-optimized espresso", result.SingleWords[0])
	}
}

func TestKeywordClassification(t *testing.T) {
	a := NewKeywordDensityAnalyzer(DefaultSettings())
	band := DensityBand{OptimalMin: 1, OptimalMax: 3, Over: 5}

	tests := []struct {
		density float64
		want    string
	}{
		{0.5, UnderOptimized},
		{1, Optimal},
		{2.5, Optimal},
		{4, Optimal},
		{5, Optimal},
		{5.1, OverOptimized},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.density), func(t *testing.T) {
			if got := a.classify(tt.density, band); got != tt.want {
				t.Errorf("classify(%v) = %s, want %s", tt.density, got, tt.want)
			}
		})
	}
}

func TestKeywordEmptyText(t *testing.T) {
	result := runKeyword(t, &Input{TextContent: "the and of"})

	if result.Score != 0 {
		t.Errorf("Score = %v, want 0", result.Score)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Type != TypeError {
		t.Errorf("expected a single error recommendation, got %+v", result.Recommendations)
	}
}

func TestKeywordTitleAndHeadings(t *testing.T) {
	content := strings.Repeat("coffee beans roast grinder brewing water. ", 20)
	parsed := &parser.ParsedContent{
		Meta: parser.Meta{Title: "Coffee beans and roast guide"},
		Headings: map[int][]parser.Heading{
			1: {{Text: "Coffee roast basics", Position: 1}},
			2: {{Text: "Unrelated section", Position: 5}},
		},
	}

	result := runKeyword(t, &Input{TextContent: content, Content: parsed})

	if result.TitleHeading.TitleScore != 100 {
		t.Errorf("TitleScore = %v, want 100", result.TitleHeading.TitleScore)
	}
	// H1 weight 10 matches, H2 weight 8 does not
	want := round(10.0 / 18.0 * 100)
	if result.TitleHeading.HeadingScore != want {
		t.Errorf("HeadingScore = %v, want %v", result.TitleHeading.HeadingScore, want)
	}
}

func TestKeywordTargetKeywords(t *testing.T) {
	content := strings.Join(fillerText(98), " ") + " cold brew"
	result := runKeyword(t, &Input{
		TextContent: content,
		Options:     Options{TargetKeywords: []string{"Cold Brew", "cold brew", "latte"}},
	})

	if len(result.TargetKeywords) != 2 {
		t.Fatalf("expected 2 target rows, got %+v", result.TargetKeywords)
	}
	if result.TargetKeywords[0].Keyword != "cold brew" || result.TargetKeywords[0].Count != 1 {
		t.Errorf("unexpected target row %+v", result.TargetKeywords[0])
	}
	if result.TargetKeywords[1].Count != 0 || result.TargetKeywords[1].Classification != UnderOptimized {
		t.Errorf("missing target should be under-optimized, got %+v", result.TargetKeywords[1])
	}
}

func TestKeywordSemanticGroups(t *testing.T) {
	content := strings.Repeat("optimize optimizer optimization banana ", 5)
	result := runKeyword(t, &Input{TextContent: content})

	if len(result.SemanticGroups) == 0 {
		t.Fatal("expected at least one semantic group")
	}
	for _, w := range result.SemanticGroups[0].Words {
		if w == "banana" {
			t.Errorf("banana should not be grouped with optimize: %+v", result.SemanticGroups[0])
		}
	}
}

func TestKeywordScoreIsClamped(t *testing.T) {
	inputs := []string{
		strings.Repeat("spam ", 300),
		strings.Repeat("spam eggs ham ", 100),
		strings.Join(fillerText(500), " "),
	}
	for i, content := range inputs {
		result := runKeyword(t, &Input{TextContent: content})
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("input %d: score %v outside [0,100]", i, result.Score)
		}
		for name, v := range result.SubScores {
			if v < 0 || v > 100 {
				t.Errorf("input %d: sub-score %s = %v outside [0,100]", i, name, v)
			}
		}
	}
}
