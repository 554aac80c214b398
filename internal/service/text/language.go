package text

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector guesses the natural language of a text
type LanguageDetector interface {
	Detect(s string) (code string, confidence float64, ok bool)
}

// DefaultLanguages is the candidate set of the lingua detector. Restricting
// the set keeps the detector's models small.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
}

// LinguaDetector detects languages with lingua-go
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over languages, or DefaultLanguages when none are given
func NewLinguaDetector(languages ...lingua.Language) *LinguaDetector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithPreloadedLanguageModels().
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code of the most likely language
func (d *LinguaDetector) Detect(s string) (string, float64, bool) {
	if strings.TrimSpace(s) == "" {
		return "", 0, false
	}
	lang, ok := d.detector.DetectLanguageOf(s)
	if !ok {
		return "", 0, false
	}
	confidence := d.detector.ComputeLanguageConfidence(s, lang)
	return strings.ToLower(lang.IsoCode639_1().String()), confidence, true
}
