package analyzer

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func runDuplicates(t *testing.T, in *Input) *DuplicateResult {
	t.Helper()
	res, err := NewDuplicateContentDetector(DefaultSettings()).Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res.(*DuplicateResult)
}

func TestDuplicateRepeatedPassage(t *testing.T) {
	words := fillerText(200)
	passage, other := strings.Join(words[:100], " "), strings.Join(words[100:], " ")
	result := runDuplicates(t, &Input{TextContent: passage + " " + other + " " + passage})

	if result.ChunkCount != 5 {
		t.Fatalf("ChunkCount = %d, want 5", result.ChunkCount)
	}
	if len(result.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %+v", result.Duplicates)
	}
	pair := result.Duplicates[0]
	if pair.Similarity != 1.0 || pair.Kind != DuplicateExact {
		t.Errorf("pair = %+v, want exact match with similarity 1.0", pair)
	}
	if pair.First != 0 || pair.Second != 4 {
		t.Errorf("pair chunks = (%d, %d), want (0, 4)", pair.First, pair.Second)
	}
	if result.DuplicatePercentage != 33.33 {
		t.Errorf("DuplicatePercentage = %v, want 33.33", result.DuplicatePercentage)
	}
}

func TestDuplicateNearPassage(t *testing.T) {
	words := fillerText(200)
	edited := append([]string{}, words[:100]...)
	for i, pos := range []int{10, 30, 60, 80, 95} {
		edited[pos] = fmt.Sprintf("rewritten%d", i)
	}
	content := strings.Join(words[:100], " ") + " " + strings.Join(words[100:], " ") + " " + strings.Join(edited, " ")
	result := runDuplicates(t, &Input{TextContent: content})

	if len(result.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %+v", result.Duplicates)
	}
	pair := result.Duplicates[0]
	if pair.Kind != DuplicateNear || pair.Similarity != 0.9 {
		t.Errorf("pair = %+v, want near match with similarity 0.9", pair)
	}
	if pair.First != 0 || pair.Second != 4 {
		t.Errorf("pair chunks = (%d, %d), want (0, 4)", pair.First, pair.Second)
	}
}

func TestDuplicateAdjacentAndReorderedChunks(t *testing.T) {
	passage := strings.Join(fillerText(100), " ")
	result := runDuplicates(t, &Input{TextContent: passage + " " + passage})

	if result.ChunkCount != 3 {
		t.Fatalf("ChunkCount = %d, want 3", result.ChunkCount)
	}
	want := []DuplicatePair{
		{First: 0, Second: 1, Similarity: 0.99, Kind: DuplicateNear},
		{First: 0, Second: 2, Similarity: 1.0, Kind: DuplicateExact},
		{First: 1, Second: 2, Similarity: 0.99, Kind: DuplicateNear},
	}
	if len(result.Duplicates) != len(want) {
		t.Fatalf("got %d pairs, want %d: %+v", len(result.Duplicates), len(want), result.Duplicates)
	}
	for i, w := range want {
		got := result.Duplicates[i]
		if got.First != w.First || got.Second != w.Second || got.Similarity != w.Similarity || got.Kind != w.Kind {
			t.Errorf("pair %d = %+v, want %+v", i, got, w)
		}
		if got.Kind == DuplicateNear && got.Similarity >= 1 {
			t.Errorf("near pair %d has similarity %v", i, got.Similarity)
		}
	}
	if result.DuplicatePercentage != 100 || result.SubScores["internal_duplicates"] != 0 {
		t.Errorf("DuplicatePercentage = %v, internal_duplicates = %v", result.DuplicatePercentage, result.SubScores["internal_duplicates"])
	}
}

func TestDuplicateFormattingFromMarkup(t *testing.T) {
	body := strings.Join(fillerText(60), " ")
	page := func(paragraph string) string {
		return "<html>\n  <body>\n\n\n    <main>\n        <p>" + paragraph + "</p>\n    </main>\n  </body>\n</html>"
	}

	tests := []struct {
		name      string
		paragraph string
		want      []string
	}{
		{"indented markup only", body, []string{}},
		{"pasted spaces", body + " then    a pasted gap", []string{"runs of four or more spaces"}},
		{"pasted line breaks", body + " end.\n\n\nNext part", []string{"three or more consecutive line breaks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := page(tt.paragraph)
			collapsed := strings.Join(strings.Fields(tt.paragraph), " ")
			result := runDuplicates(t, &Input{TextContent: collapsed, HTML: html})
			if !reflect.DeepEqual(result.Patterns.FormattingIssues, tt.want) {
				t.Errorf("FormattingIssues = %v, want %v", result.Patterns.FormattingIssues, tt.want)
			}
		})
	}

	t.Run("plain text", func(t *testing.T) {
		result := runDuplicates(t, &Input{TextContent: body + " then    a pasted gap"})
		if len(result.Patterns.FormattingIssues) != 1 {
			t.Errorf("FormattingIssues = %v", result.Patterns.FormattingIssues)
		}
	})
}

func TestDuplicateUniqueText(t *testing.T) {
	result := runDuplicates(t, &Input{TextContent: strings.Join(fillerText(400), " ")})

	if len(result.Duplicates) != 0 {
		t.Errorf("unexpected duplicates: %+v", result.Duplicates)
	}
	if result.SubScores["internal_duplicates"] != 100 {
		t.Errorf("internal_duplicates = %v, want 100", result.SubScores["internal_duplicates"])
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score %v outside [0,100]", result.Score)
	}
}

func TestDuplicateInsufficientContent(t *testing.T) {
	result := runDuplicates(t, &Input{TextContent: "only a handful of words here"})

	if !result.InsufficientContent {
		t.Error("expected insufficient_content = true")
	}
	if result.Score != 0 || result.Grade != "F" {
		t.Errorf("Score = %v, Grade = %s", result.Score, result.Grade)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Type != TypeError {
		t.Errorf("expected one error recommendation, got %+v", result.Recommendations)
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name  string
		words int
		size  int
		want  int
	}{
		{"shorter than window", 30, 100, 1},
		{"exact window", 100, 100, 1},
		{"two and a half windows", 250, 100, 4},
		{"tiny window", 10, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Chunks(fillerText(tt.words), tt.size)); got != tt.want {
				t.Errorf("len(Chunks) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDuplicateBoilerplate(t *testing.T) {
	nav := strings.Join(fillerText(40), " ")
	body := strings.Join(fillerText(100)[40:], " ")
	html := "<footer><nav>" + nav + "</nav></footer><main><p>" + body + "</p></main>"

	result := runDuplicates(t, &Input{TextContent: nav + " " + body, HTML: html})

	if result.Boilerplate.Words != 40 {
		t.Errorf("Boilerplate.Words = %d, want 40 (nested regions counted once)", result.Boilerplate.Words)
	}
	if result.Boilerplate.Percentage != 40 || result.Boilerplate.Score != 40 {
		t.Errorf("Boilerplate = %+v", result.Boilerplate)
	}
}

func TestDuplicateTemplateMarkers(t *testing.T) {
	content := strings.Join(fillerText(80), " ") + " Dear {{customer_name}}, your order [ORDER NUMBER] shipped."
	result := runDuplicates(t, &Input{TextContent: content})

	if len(result.Patterns.TemplateMarkers) != 2 {
		t.Errorf("TemplateMarkers = %v, want 2 markers", result.Patterns.TemplateMarkers)
	}
	found := false
	for _, r := range result.Recommendations {
		if r.Message == "Unfilled template placeholders found" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a placeholder recommendation, got %+v", result.Recommendations)
	}
}

func TestDuplicateFingerprintsStable(t *testing.T) {
	content := strings.Join(fillerText(120), " ")
	a := runDuplicates(t, &Input{TextContent: content})
	b := runDuplicates(t, &Input{TextContent: strings.ToUpper(content)})

	if a.Fingerprints.MD5 != b.Fingerprints.MD5 || a.Fingerprints.SHA256 != b.Fingerprints.SHA256 {
		t.Error("fingerprints should ignore letter case")
	}
}
