package analyzer

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// DensityBand classifies a density percentage
type DensityBand struct {
	OptimalMin float64 `yaml:"optimal_min"`
	OptimalMax float64 `yaml:"optimal_max"`
	Over       float64 `yaml:"over"`
}

// KeywordSettings tunes KeywordDensityAnalyzer
type KeywordSettings struct {
	Single  DensityBand `yaml:"single"`
	Phrase  DensityBand `yaml:"phrase"`
	Trigram DensityBand `yaml:"trigram"`

	StuffingWordDensity   float64 `yaml:"stuffing_word_density"`
	StuffingPhraseDensity float64 `yaml:"stuffing_phrase_density"`
	// More than ConcentrationCount words above ConcentrationDensity in fewer
	// than ConcentrationMaxWords words is a stuffing signal
	ConcentrationDensity  float64 `yaml:"concentration_density"`
	ConcentrationCount    int     `yaml:"concentration_count"`
	ConcentrationMaxWords int     `yaml:"concentration_max_words"`

	DistributionSections int     `yaml:"distribution_sections"`
	SemanticSimilarity   float64 `yaml:"semantic_similarity"`
	TopKeywords          int     `yaml:"top_keywords"`

	HeadingWeights       map[int]float64 `yaml:"heading_weights"`
	DefaultHeadingWeight float64         `yaml:"default_heading_weight"`
}

// ReadabilitySettings tunes ReadabilityAnalyzer
type ReadabilitySettings struct {
	Weights                map[string]float64 `yaml:"weights"`
	LongParagraphWords     float64            `yaml:"long_paragraph_words"`
	ModerateParagraphWords float64            `yaml:"moderate_paragraph_words"`
	LongSentenceWords      int                `yaml:"long_sentence_words"`
	VeryLongSentenceWords  int                `yaml:"very_long_sentence_words"`
	ComplexWordSyllables   int                `yaml:"complex_word_syllables"`
	LongWordChars          int                `yaml:"long_word_chars"`
}

// HeadingSettings tunes HeadingHierarchyValidator
type HeadingSettings struct {
	Weights    map[string]float64 `yaml:"weights"`
	MinLength  int                `yaml:"min_length"`
	MaxLength  int                `yaml:"max_length"`
	H1MinWords int                `yaml:"h1_min_words"`
	H1MaxWords int                `yaml:"h1_max_words"`
	MaxDepth   int                `yaml:"max_depth"`
	MinH2      int                `yaml:"min_h2"`
	MaxH2      int                `yaml:"max_h2"`
	ValidScore float64            `yaml:"valid_score"`
	VagueWords []string           `yaml:"vague_words"`
}

// ImageSettings tunes ImageOptimizationAnalyzer
type ImageSettings struct {
	Weights             map[string]float64 `yaml:"weights"`
	MaxAltLength        int                `yaml:"max_alt_length"`
	RedundantPrefixes   []string           `yaml:"redundant_prefixes"`
	FormatMultipliers   map[string]float64 `yaml:"format_multipliers"`
	BaseEstimateBytes   float64            `yaml:"base_estimate_bytes"`
	ReferenceArea       float64            `yaml:"reference_area"`
	SmallBytes          int64              `yaml:"small_bytes"`
	MediumBytes         int64              `yaml:"medium_bytes"`
	LargeBytes          int64              `yaml:"large_bytes"`
	GenericFilenames    []string           `yaml:"generic_filenames"`
	ContextWindow       int                `yaml:"context_window"`
	MinContextChars     int                `yaml:"min_context_chars"`
	MaxImageCount       int                `yaml:"max_image_count"`
	ExcessiveImageCount int                `yaml:"excessive_image_count"`
}

// LinkSettings tunes LinkAnalyzer
type LinkSettings struct {
	Weights          map[string]float64 `yaml:"weights"`
	GenericAnchors   []string           `yaml:"generic_anchors"`
	AuthorityDomains []string           `yaml:"authority_domains"`
	SpamTLDs         []string           `yaml:"spam_tlds"`
	URLShorteners    []string           `yaml:"url_shorteners"`
	MaxPathDepth     int                `yaml:"max_path_depth"`
	MaxRepeatLinks   int                `yaml:"max_repeat_links"`
	MaxExternal      int                `yaml:"max_external"`
	MinInternal      int                `yaml:"min_internal"`
	MaxInternal      int                `yaml:"max_internal"`
	LinkDensityLimit float64            `yaml:"link_density_limit"`
}

// DuplicateSettings tunes DuplicateContentDetector
type DuplicateSettings struct {
	Weights            map[string]float64 `yaml:"weights"`
	MinWords           int                `yaml:"min_words"`
	BoilerplatePhrases []string           `yaml:"boilerplate_phrases"`
	BoilerplateRegions string             `yaml:"boilerplate_regions"`
}

// QualitySettings tunes HeuristicQualityAssessor
type QualitySettings struct {
	Weights        map[string]float64 `yaml:"weights"`
	MinTitleLength int                `yaml:"min_title_length"`
	MaxTitleLength int                `yaml:"max_title_length"`
	MinDescription int                `yaml:"min_description"`
	MaxDescription int                `yaml:"max_description"`
	IdealParagraph [2]float64         `yaml:"ideal_paragraph"`
}

// Settings is the immutable scoring configuration handed to every analyzer
type Settings struct {
	StopWords      []string           `yaml:"stop_words"`
	OverallWeights map[string]float64 `yaml:"overall_weights"`

	Keyword     KeywordSettings     `yaml:"keyword"`
	Readability ReadabilitySettings `yaml:"readability"`
	Heading     HeadingSettings     `yaml:"heading"`
	Image       ImageSettings       `yaml:"image"`
	Link        LinkSettings        `yaml:"link"`
	Duplicate   DuplicateSettings   `yaml:"duplicate"`
	Quality     QualitySettings     `yaml:"quality"`
}

// DefaultSettings returns the built-in thresholds, weight tables and word lists
func DefaultSettings() Settings {
	return Settings{
		StopWords: text.DefaultStopWords,
		OverallWeights: map[string]float64{
			string(ContentQualityComponent):    0.25,
			string(KeywordDensityComponent):    0.20,
			string(ReadabilityComponent):       0.15,
			string(HeadingStructureComponent):  0.15,
			string(ImageOptimizationComponent): 0.10,
			string(LinkAnalysisComponent):      0.10,
			string(DuplicateContentComponent):  0.05,
		},
		Keyword: KeywordSettings{
			Single:                DensityBand{OptimalMin: 1, OptimalMax: 3, Over: 5},
			Phrase:                DensityBand{OptimalMin: 0.5, OptimalMax: 2, Over: 3},
			Trigram:               DensityBand{OptimalMin: 0.1, OptimalMax: 1, Over: 2},
			StuffingWordDensity:   5,
			StuffingPhraseDensity: 2,
			ConcentrationDensity:  3,
			ConcentrationCount:    5,
			ConcentrationMaxWords: 500,
			DistributionSections:  5,
			SemanticSimilarity:    0.6,
			TopKeywords:           20,
			HeadingWeights:        map[int]float64{1: 10, 2: 8, 3: 6, 4: 4, 5: 3, 6: 2},
			DefaultHeadingWeight:  1,
		},
		Readability: ReadabilitySettings{
			Weights: map[string]float64{
				"flesch_ease":    0.25,
				"flesch_kincaid": 0.20,
				"structural":     0.20,
				"vocabulary":     0.15,
				"sentence":       0.15,
				"ari":            0.05,
			},
			LongParagraphWords:     150,
			ModerateParagraphWords: 100,
			LongSentenceWords:      25,
			VeryLongSentenceWords:  35,
			ComplexWordSyllables:   3,
			LongWordChars:          7,
		},
		Heading: HeadingSettings{
			Weights: map[string]float64{
				"hierarchy":       0.30,
				"accessibility":   0.25,
				"seo":             0.20,
				"content_quality": 0.15,
				"distribution":    0.10,
			},
			MinLength:  3,
			MaxLength:  70,
			H1MinWords: 3,
			H1MaxWords: 15,
			MaxDepth:   4,
			MinH2:      2,
			MaxH2:      6,
			ValidScore: 70,
			VagueWords: []string{
				"introduction", "intro", "overview", "more", "details", "info", "information",
				"misc", "miscellaneous", "other", "others", "stuff", "things", "content",
				"heading", "title", "untitled", "section", "welcome", "home", "click here",
				"read more", "learn more", "general", "summary", "conclusion", "text",
			},
		},
		Image: ImageSettings{
			Weights: map[string]float64{
				"alt_text":      0.25,
				"accessibility": 0.20,
				"seo":           0.20,
				"format":        0.15,
				"performance":   0.10,
				"size":          0.10,
			},
			MaxAltLength: 125,
			RedundantPrefixes: []string{
				"image of", "picture of", "photo of", "graphic of", "img of",
				"an image of", "a picture of", "a photo of",
			},
			FormatMultipliers: map[string]float64{
				"webp": 0.7, "avif": 0.5, "jpg": 1.0, "jpeg": 1.0,
				"png": 1.5, "gif": 0.8, "bmp": 3.0, "tiff": 4.0, "tif": 4.0,
			},
			BaseEstimateBytes: 100 * 1024,
			ReferenceArea:     250000,
			SmallBytes:        30 * 1024,
			MediumBytes:       100 * 1024,
			LargeBytes:        500 * 1024,
			GenericFilenames: []string{
				`^img[_-]?\d+$`,
				`^\d+$`,
				`^(image|photo|picture|pic|dsc|dscn|screenshot|untitled)[_-]?\d*$`,
			},
			ContextWindow:       200,
			MinContextChars:     50,
			MaxImageCount:       10,
			ExcessiveImageCount: 20,
		},
		Link: LinkSettings{
			Weights: map[string]float64{
				"internal":      0.25,
				"external":      0.20,
				"anchor_text":   0.20,
				"accessibility": 0.15,
				"seo":           0.10,
				"distribution":  0.05,
				"security":      0.05,
			},
			GenericAnchors: []string{
				"click here", "here", "read more", "more", "learn more", "link", "this link",
				"click", "go", "this", "page", "website", "details", "continue", "more info",
				"find out more", "see more", "view more", "download", "submit",
			},
			AuthorityDomains: []string{
				"wikipedia.org", "github.com", "google.com", "w3.org", "mozilla.org",
				"youtube.com", "nytimes.com", "bbc.co.uk", "bbc.com", "reuters.com",
				"nature.com", "sciencedirect.com", "stackoverflow.com", "microsoft.com",
				"apple.com", "who.int", "europa.eu", "un.org",
			},
			SpamTLDs: []string{
				".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".click", ".loan",
				".work", ".racing", ".win", ".bid", ".stream", ".download",
			},
			URLShorteners: []string{
				"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd", "buff.ly",
				"rebrand.ly", "cutt.ly", "shorturl.at",
			},
			MaxPathDepth:     3,
			MaxRepeatLinks:   3,
			MaxExternal:      10,
			MinInternal:      3,
			MaxInternal:      50,
			LinkDensityLimit: 0.3,
		},
		Duplicate: DuplicateSettings{
			Weights: map[string]float64{
				"internal_duplicates": 0.25,
				"content_patterns":    0.20,
				"uniqueness":          0.20,
				"thin_content":        0.15,
				"boilerplate":         0.10,
				"seo_impact":          0.10,
			},
			MinWords: 50,
			BoilerplatePhrases: []string{
				"all rights reserved", "copyright", "privacy policy", "terms of service",
				"terms and conditions", "cookie policy", "we use cookies", "subscribe to our newsletter",
				"follow us", "contact us", "powered by", "sign up for", "back to top",
			},
			BoilerplateRegions: `nav, footer, header, aside, [class*="sidebar"], [id*="sidebar"]`,
		},
		Quality: QualitySettings{
			Weights: map[string]float64{
				"depth":     0.30,
				"structure": 0.20,
				"metadata":  0.20,
				"variety":   0.15,
				"media":     0.15,
			},
			MinTitleLength: 30,
			MaxTitleLength: 60,
			MinDescription: 70,
			MaxDescription: 160,
			IdealParagraph: [2]float64{40, 150},
		},
	}
}

// LoadSettingsFile overlays the YAML document at path on top of the defaults.
// Keys missing from the file keep their default values.
func LoadSettingsFile(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse scoring config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Validate checks that every weight table sums to 1
func (s Settings) Validate() error {
	tables := map[string]map[string]float64{
		"overall_weights":     s.OverallWeights,
		"readability.weights": s.Readability.Weights,
		"heading.weights":     s.Heading.Weights,
		"image.weights":       s.Image.Weights,
		"link.weights":        s.Link.Weights,
		"duplicate.weights":   s.Duplicate.Weights,
		"quality.weights":     s.Quality.Weights,
	}
	for name, weights := range tables {
		sum := 0.0
		for _, w := range weights {
			if w < 0 {
				return fmt.Errorf("%s: negative weight", name)
			}
			sum += w
		}
		if math.Abs(sum-1) > 0.001 {
			return fmt.Errorf("%s: weights sum to %.3f, want 1.0", name, sum)
		}
	}
	return nil
}
