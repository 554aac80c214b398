package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

func runHeadings(t *testing.T, headings map[int][]parser.Heading) *HeadingResult {
	t.Helper()
	s := DefaultSettings()
	v := NewHeadingHierarchyValidator(s, NewHeuristics(s))
	res, err := v.Analyze(context.Background(), &Input{Content: &parser.ParsedContent{Headings: headings}})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res.(*HeadingResult)
}

func TestHeadingSkippedLevel(t *testing.T) {
	result := runHeadings(t, map[int][]parser.Heading{
		1: {{Text: "Organic coffee brewing guide", Position: 0}},
		3: {{Text: "Choosing the right grinder", Position: 5}},
	})

	if len(result.SkippedLevels) != 1 {
		t.Fatalf("expected 1 skipped level, got %+v", result.SkippedLevels)
	}
	if missing := result.SkippedLevels[0].Missing; len(missing) != 1 || missing[0] != 2 {
		t.Errorf("Missing = %v, want [2]", missing)
	}

	skipped := 0
	for _, issue := range result.Issues {
		if strings.Contains(issue, "skipped") {
			skipped++
			if !strings.Contains(issue, "H2") {
				t.Errorf("skipped-level issue should reference H2: %q", issue)
			}
		}
	}
	if skipped != 1 {
		t.Errorf("expected exactly one skipped-level issue, got %d: %v", skipped, result.Issues)
	}

	if result.IsValid != (result.Score >= 70) {
		t.Errorf("IsValid = %v with score %v", result.IsValid, result.Score)
	}
}

func TestHeadingOutlineOrder(t *testing.T) {
	outline := Flatten(map[int][]parser.Heading{
		2: {{Text: "Second", Position: 4}, {Text: "Fourth", Position: 12}},
		1: {{Text: "First", Position: 1}},
		3: {{Text: "Third", Position: 8}},
	})

	want := []string{"First", "Second", "Third", "Fourth"}
	for i, h := range outline {
		if h.Text != want[i] {
			t.Errorf("outline[%d] = %q, want %q", i, h.Text, want[i])
		}
	}
}

func TestHeadingMissingH1(t *testing.T) {
	result := runHeadings(t, map[int][]parser.Heading{
		2: {{Text: "Brewing temperature and time", Position: 3}},
	})

	if result.Hierarchy.Score != 70 {
		t.Errorf("hierarchy score = %v, want 70", result.Hierarchy.Score)
	}
	if result.SEO.Score > 70 {
		t.Errorf("seo score = %v, want at most 70", result.SEO.Score)
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0].Type != TypeError {
		t.Errorf("expected an error recommendation first, got %+v", result.Recommendations)
	}
}

func TestHeadingAccessibility(t *testing.T) {
	tests := []struct {
		name     string
		headings map[int][]parser.Heading
		wcag     string
	}{
		{
			name: "empty heading fails",
			headings: map[int][]parser.Heading{
				1: {{Text: "Organic coffee brewing guide", Position: 0}},
				2: {{Text: "", Position: 4}},
			},
			wcag: WCAGFail,
		},
		{
			name: "clean outline passes",
			headings: map[int][]parser.Heading{
				1: {{Text: "Organic coffee brewing guide", Position: 0}},
				2: {{Text: "Choosing fresh beans", Position: 4}, {Text: "Grinding for pour over", Position: 9}},
			},
			wcag: WCAGPass,
		},
		{
			name: "vague and shouting headings are partial",
			headings: map[int][]parser.Heading{
				1: {{Text: "INTRODUCTION", Position: 0}},
				2: {{Text: "More", Position: 4}, {Text: "Misc", Position: 9}},
			},
			wcag: WCAGPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runHeadings(t, tt.headings)
			if result.WCAGCompliance != tt.wcag {
				t.Errorf("WCAGCompliance = %s, want %s (score %v, issues %v)",
					result.WCAGCompliance, tt.wcag, result.Accessibility.Score, result.Accessibility.Issues)
			}
		})
	}
}

func TestHeadingDuplicatesAndClustering(t *testing.T) {
	result := runHeadings(t, map[int][]parser.Heading{
		1: {{Text: "Organic coffee brewing guide", Position: 0}},
		2: {{Text: "Brewing methods compared", Position: 1}, {Text: "Brewing methods compared", Position: 6}},
	})

	dup := false
	for _, issue := range result.ContentQuality.Issues {
		if strings.HasPrefix(issue, "Duplicate heading") {
			dup = true
		}
	}
	if !dup {
		t.Errorf("expected a duplicate heading issue, got %v", result.ContentQuality.Issues)
	}
	// base 90, +10 for two H2, -15 for clustering
	if result.Distribution.Score != 85 {
		t.Errorf("distribution score = %v, want 85", result.Distribution.Score)
	}
}

func TestHeadingDistribution(t *testing.T) {
	h2s := func(n int) []parser.Heading {
		out := make([]parser.Heading, n)
		for i := range out {
			out[i] = parser.Heading{Text: "Brewing step details", Position: 2 + i*3}
		}
		return out
	}

	tests := []struct {
		name       string
		h2         int
		want       float64
		wantIssues int
	}{
		{"no H2", 0, 90, 1},
		{"one H2", 1, 90, 1},
		{"two H2", 2, 100, 0},
		{"six H2", 6, 100, 0},
		{"seven H2", 7, 80, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runHeadings(t, map[int][]parser.Heading{
				1: {{Text: "Organic coffee brewing guide", Position: 0}},
				2: h2s(tt.h2),
			})
			if result.Distribution.Score != tt.want {
				t.Errorf("distribution score = %v, want %v", result.Distribution.Score, tt.want)
			}
			if len(result.Distribution.Issues) != tt.wantIssues {
				t.Errorf("distribution issues = %v, want %d", result.Distribution.Issues, tt.wantIssues)
			}
		})
	}
}

func TestHeadingNoHeadings(t *testing.T) {
	result := runHeadings(t, nil)

	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score %v outside [0,100]", result.Score)
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0].Message != "Page has no headings" {
		t.Errorf("expected a missing headings recommendation, got %+v", result.Recommendations)
	}
	if result.IsValid != (result.Score >= 70) {
		t.Errorf("IsValid = %v with score %v", result.IsValid, result.Score)
	}
}
