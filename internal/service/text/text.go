// Package text holds the word, sentence and similarity primitives shared by
// every content analyzer.
package text

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	nonWordRegex   = regexp.MustCompile(`[^\w\s]`)
	sentenceRegex  = regexp.MustCompile(`[.!?]+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	syllableVowels = "aeiouy"
)

// DefaultStopWords is the fixed English stop-word set used when no override is configured.
var DefaultStopWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
	"had", "her", "was", "one", "our", "out", "day", "get", "has", "him",
	"his", "how", "its", "may", "new", "now", "old", "see", "two", "who",
	"boy", "did", "she", "use", "way", "too", "of", "to", "in", "is",
	"it", "on", "at", "by", "be", "as", "or", "an", "if", "so",
	"up", "we", "he", "do", "no", "my", "me", "this", "that", "with",
	"from", "they", "have", "been", "were", "will", "your", "what", "when", "which",
}

// Tokenizer splits text into lowercase tokens with stop words removed.
// It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	stopWords map[string]struct{}
}

// NewTokenizer builds a tokenizer filtering the given stop words.
func NewTokenizer(stopWords []string) *Tokenizer {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopWords: set}
}

// IsStopWord reports whether word is in the tokenizer's stop-word set.
func (t *Tokenizer) IsStopWord(word string) bool {
	_, ok := t.stopWords[strings.ToLower(word)]
	return ok
}

// Tokenize lowercases, strips non-word characters and drops tokens shorter
// than two characters or present in the stop-word set.
func (t *Tokenizer) Tokenize(s string) []string {
	words := Words(s)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		if _, stop := t.stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Words returns every lowercase word of s with punctuation stripped. No
// filtering is applied.
func Words(s string) []string {
	cleaned := nonWordRegex.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Fields(cleaned)
}

// CountSyllables counts vowel groups in word, dropping a trailing silent "e"
// when more than one group was found. Any non-empty word has at least one.
func CountSyllables(word string) int {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune(syllableVowels, r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// SplitSentences splits on runs of sentence terminators and drops empty parts.
func SplitSentences(s string) []string {
	parts := sentenceRegex.Split(s, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// NGrams returns every contiguous n-token window joined by a single space.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// RepeatedNGrams counts n-grams and keeps only those seen at least minCount times.
func RepeatedNGrams(tokens []string, n, minCount int) map[string]int {
	counts := make(map[string]int)
	for _, g := range NGrams(tokens, n) {
		counts[g]++
	}
	for g, c := range counts {
		if c < minCount {
			delete(counts, g)
		}
	}
	return counts
}

// Frequency is a term and how often it occurred.
type Frequency struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SortedFrequencies orders counts by descending count, then alphabetically,
// so that results are stable across runs.
func SortedFrequencies(counts map[string]int) []Frequency {
	out := make([]Frequency, 0, len(counts))
	for term, c := range counts {
		out = append(out, Frequency{Term: term, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Jaccard returns |A∩B| / |A∪B| over the unique tokens of a and b.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// CharSimilarity is the number of characters matched in order (longest
// common subsequence) divided by the longer word's length.
func CharSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return float64(prev[len(rb)]) / float64(maxLen)
}

// CollapseWhitespace trims s and replaces whitespace runs with one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var stripPolicy = bluemonday.StrictPolicy()

// StripHTML removes every tag (and script/style bodies) from markup and
// returns whitespace-collapsed plain text.
func StripHTML(markup string) string {
	// Block-level closers become spaces so adjacent paragraphs do not fuse.
	spaced := strings.NewReplacer("<", " <", ">", "> ").Replace(markup)
	return CollapseWhitespace(html.UnescapeString(stripPolicy.Sanitize(spaced)))
}
