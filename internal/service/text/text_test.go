package text

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(DefaultStopWords)

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "stop words and punctuation removed",
			input:    "The quick, brown fox! Jumps over the lazy dog.",
			expected: []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog"},
		},
		{
			name:     "single letters dropped",
			input:    "a b c seo",
			expected: []string{"seo"},
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word     string
		expected int
	}{
		{"cat", 1},
		{"paper", 2},
		{"make", 1},
		{"the", 1},
		{"readability", 5},
		{"rhythm", 1},
		{"beautiful", 3},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := CountSyllables(tt.word); got != tt.expected {
				t.Errorf("CountSyllables(%q) = %d, want %d", tt.word, got, tt.expected)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second one!! Third?  ...")
	want := []string{"First one", "Second one", "Third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSentences() = %v, want %v", got, want)
	}
}

func TestRepeatedNGrams(t *testing.T) {
	tokens := []string{"seo", "tools", "help", "seo", "tools", "rank", "seo", "tools"}

	got := RepeatedNGrams(tokens, 2, 2)
	if got["seo tools"] != 3 {
		t.Errorf("expected 'seo tools' x3, got %d", got["seo tools"])
	}
	if _, ok := got["tools help"]; ok {
		t.Errorf("single occurrence bigram should be dropped")
	}
	if NGrams(tokens[:1], 2) != nil {
		t.Errorf("expected no bigrams from a single token")
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"half", []string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
		{"both empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Jaccard() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestCharSimilarity(t *testing.T) {
	if got := CharSimilarity("optimize", "optimized"); got < 0.8 {
		t.Errorf("expected close words to be similar, got %f", got)
	}
	if got := CharSimilarity("seo", "banana"); got >= 0.6 {
		t.Errorf("expected unrelated words below 0.6, got %f", got)
	}
	if got := CharSimilarity("", ""); got != 0 {
		t.Errorf("expected 0 for empty words, got %f", got)
	}
}

func TestSortedFrequencies(t *testing.T) {
	got := SortedFrequencies(map[string]int{"beta": 2, "alpha": 2, "gamma": 5})
	want := []Frequency{{"gamma", 5}, {"alpha", 2}, {"beta", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedFrequencies() = %v, want %v", got, want)
	}
}

func TestStripHTML(t *testing.T) {
	markup := `<html><head><style>body{color:red}</style><script>var x = 1;</script></head>
		<body><p>Hello &amp; welcome</p><p>to the <b>site</b></p></body></html>`

	got := StripHTML(markup)
	want := "Hello & welcome to the site"
	if got != want {
		t.Errorf("StripHTML() = %q, want %q", got, want)
	}
}
