package analyzer

import (
	"context"
	"testing"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

type fakeProber struct {
	sizes map[string]int64
	calls int
}

func (p *fakeProber) ProbeSizes(_ context.Context, _ string, srcs []string) map[string]int64 {
	p.calls++
	out := make(map[string]int64)
	for _, s := range srcs {
		if n, ok := p.sizes[s]; ok {
			out[s] = n
		}
	}
	return out
}

func newImageAnalyzer(prober ImageSizeProber) *ImageOptimizationAnalyzer {
	s := DefaultSettings()
	return NewImageOptimizationAnalyzer(s, NewHeuristics(s), prober)
}

func runImages(t *testing.T, a *ImageOptimizationAnalyzer, in *Input) *ImageResult {
	t.Helper()
	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res.(*ImageResult)
}

func TestImageNoImages(t *testing.T) {
	result := runImages(t, newImageAnalyzer(nil), &Input{Content: &parser.ParsedContent{}})

	if result.Score != 100 {
		t.Errorf("Score = %v, want 100", result.Score)
	}
	for name, v := range result.SubScores {
		if v != 100 {
			t.Errorf("sub-score %s = %v, want 100", name, v)
		}
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].Type != TypeSuggestion {
		t.Errorf("expected one suggestion, got %+v", result.Recommendations)
	}
}

func TestImageEstimateSize(t *testing.T) {
	a := newImageAnalyzer(nil)

	tests := []struct {
		format        string
		width, height int
		want          int64
	}{
		{"jpg", 500, 500, 102400},
		{"png", 1000, 1000, 307200},
		{"avif", 0, 0, 51200},
		{"xyz", 500, 500, 102400},
		{"png", 100000, 100000, 30720000},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := a.EstimateSize(tt.format, tt.width, tt.height); got != tt.want {
				t.Errorf("EstimateSize(%s, %d, %d) = %d, want %d", tt.format, tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestImageAltScore(t *testing.T) {
	tests := []struct {
		name string
		img  parser.Image
		want float64
	}{
		{"missing alt", parser.Image{Src: "/a/hero.jpg"}, 30},
		{"decorative", parser.Image{Src: "/a/divider.png", IsDecorative: true}, 100},
		{"descriptive", parser.Image{Src: "/a/hero.jpg", Alt: "Barista pouring latte art"}, 100},
		{"redundant prefix", parser.Image{Src: "/a/hero.jpg", Alt: "image of a barista pouring milk"}, 80},
		{"starts with photo noun", parser.Image{Src: "/a/booth.jpg", Alt: "Photo booth rentals in Austin"}, 100},
		{"repeats file name", parser.Image{Src: "/a/latte-art.jpg", Alt: "latte art"}, 60},
	}

	a := newImageAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runImages(t, a, &Input{Content: &parser.ParsedContent{Images: []parser.Image{tt.img}}})
			if got := result.Images[0].AltScore; got != tt.want {
				t.Errorf("AltScore = %v, want %v (issues %v)", got, tt.want, result.Images[0].Issues)
			}
		})
	}
}

func TestImageMissingAltRecommendation(t *testing.T) {
	images := []parser.Image{
		{Src: "/img/one.jpg"},
		{Src: "/img/two.jpg", Alt: "Fresh roasted coffee beans"},
		{Src: "/img/line.png", IsDecorative: true},
	}
	result := runImages(t, newImageAnalyzer(nil), &Input{Content: &parser.ParsedContent{Images: images}})

	if result.MissingAlt != 1 || result.DecorativeImages != 1 {
		t.Errorf("MissingAlt = %d, DecorativeImages = %d", result.MissingAlt, result.DecorativeImages)
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0].Type != TypeError {
		t.Errorf("expected a missing alt error first, got %+v", result.Recommendations)
	}
}

func TestImageProber(t *testing.T) {
	prober := &fakeProber{sizes: map[string]int64{"/img/big.bmp": 900 * 1024}}
	a := newImageAnalyzer(prober)
	content := &parser.ParsedContent{Images: []parser.Image{{Src: "/img/big.bmp", Alt: "Espresso machine on a counter"}}}

	t.Run("disabled", func(t *testing.T) {
		result := runImages(t, a, &Input{Content: content})
		if prober.calls != 0 {
			t.Errorf("prober called %d times with CheckImageSizes unset", prober.calls)
		}
		if result.Images[0].SizeMeasured {
			t.Error("size should be estimated")
		}
	})

	t.Run("enabled", func(t *testing.T) {
		in := &Input{URL: "https://example.com", Content: content, Options: Options{CheckImageSizes: true}.WithDefaults()}
		result := runImages(t, a, in)
		rep := result.Images[0]
		if !rep.SizeMeasured || rep.SizeBytes != 900*1024 {
			t.Errorf("SizeMeasured = %v, SizeBytes = %d", rep.SizeMeasured, rep.SizeBytes)
		}
		if rep.SizeCategory != SizeVeryLarge || rep.FormatClass != FormatUnoptimized {
			t.Errorf("SizeCategory = %s, FormatClass = %s", rep.SizeCategory, rep.FormatClass)
		}
	})
}

func TestImageDataURIFormat(t *testing.T) {
	result := runImages(t, newImageAnalyzer(nil), &Input{Content: &parser.ParsedContent{
		Images: []parser.Image{{Src: "data:image/webp;base64,UklGR", Alt: "Small inline coffee icon"}},
	}})

	if result.Images[0].Format != "webp" || result.Images[0].FormatClass != FormatModern {
		t.Errorf("Format = %s, FormatClass = %s", result.Images[0].Format, result.Images[0].FormatClass)
	}
}

func TestImageSizeCategory(t *testing.T) {
	a := newImageAnalyzer(nil)
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, SizeSmall},
		{30 * 1024, SizeSmall},
		{30*1024 + 1, SizeMedium},
		{100 * 1024, SizeMedium},
		{100*1024 + 1, SizeLarge},
		{500 * 1024, SizeLarge},
		{500*1024 + 1, SizeVeryLarge},
	}
	for _, tt := range tests {
		if got := a.SizeCategory(tt.bytes); got != tt.want {
			t.Errorf("SizeCategory(%d) = %s, want %s", tt.bytes, got, tt.want)
		}
	}
}

func TestImageDefaultEstimateIsNotLarge(t *testing.T) {
	result := runImages(t, newImageAnalyzer(nil), &Input{Content: &parser.ParsedContent{
		Images: []parser.Image{{Src: "/img/roast-levels.jpg", Alt: "Three roast levels side by side"}},
	}})

	rep := result.Images[0]
	if rep.SizeBytes != 100*1024 || rep.SizeCategory != SizeMedium {
		t.Errorf("SizeBytes = %d, SizeCategory = %s, want %d Medium", rep.SizeBytes, rep.SizeCategory, 100*1024)
	}
	if result.SubScores["size"] != 100 {
		t.Errorf("size sub-score = %v, want 100", result.SubScores["size"])
	}
}

func TestImageHugeDimensions(t *testing.T) {
	result := runImages(t, newImageAnalyzer(nil), &Input{Content: &parser.ParsedContent{
		Images: []parser.Image{{Src: "/img/poster.png", Alt: "Coffee festival poster", Width: 4000000000, Height: 4000000000}},
	}})

	rep := result.Images[0]
	if rep.SizeBytes <= 0 || rep.SizeCategory != SizeVeryLarge {
		t.Errorf("SizeBytes = %d, SizeCategory = %s", rep.SizeBytes, rep.SizeCategory)
	}
	if result.TotalBytes <= 0 {
		t.Errorf("TotalBytes = %d", result.TotalBytes)
	}
}
