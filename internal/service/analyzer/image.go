package analyzer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// Image format classes
const (
	FormatModern      = "modern"
	FormatOptimized   = "optimized"
	FormatUnoptimized = "unoptimized"
	FormatUnknown     = "unknown"
)

// Size categories
const (
	SizeSmall     = "Small"
	SizeMedium    = "Medium"
	SizeLarge     = "Large"
	SizeVeryLarge = "Very Large"
)

var (
	modernFormats      = map[string]bool{"webp": true, "avif": true}
	optimizedFormats   = map[string]bool{"webp": true, "avif": true, "jpg": true, "jpeg": true, "png": true}
	unoptimizedFormats = map[string]bool{"bmp": true, "tiff": true, "tif": true, "gif": true}

	fileExtension = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|avif|bmp|tiff?|svg)\b`)
	filenameSep   = regexp.MustCompile(`[-_.+]+`)
)

// ImageSizeProber measures real image byte sizes. Sources it could not
// measure are absent from the returned map.
type ImageSizeProber interface {
	ProbeSizes(ctx context.Context, pageURL string, srcs []string) map[string]int64
}

// ImageReport is the per-image breakdown
type ImageReport struct {
	Src                string   `json:"src"`
	Alt                string   `json:"alt"`
	Format             string   `json:"format"`
	FormatClass        string   `json:"format_class"`
	IsDecorative       bool     `json:"is_decorative"`
	AltScore           float64  `json:"alt_score"`
	SizeBytes          int64    `json:"size_bytes"`
	SizeMeasured       bool     `json:"size_measured"`
	SizeCategory       string   `json:"size_category"`
	AccessibilityScore float64  `json:"accessibility_score"`
	SEOScore           float64  `json:"seo_score"`
	ResponsiveScore    float64  `json:"responsive_score"`
	Issues             []string `json:"issues"`
}

// ImageResult is the output of ImageOptimizationAnalyzer
type ImageResult struct {
	ScoreResult
	TotalImages      int            `json:"total_images"`
	DecorativeImages int            `json:"decorative_images"`
	MissingAlt       int            `json:"missing_alt"`
	MeasuredImages   int            `json:"measured_images"`
	ResponsiveImages int            `json:"responsive_images"`
	LazyLoaded       int            `json:"lazy_loaded"`
	TotalBytes       int64          `json:"total_bytes"`
	FormatCounts     map[string]int `json:"format_counts"`
	Images           []ImageReport  `json:"images"`
}

// ImageOptimizationAnalyzer scores alt text, formats, sizes and responsiveness
type ImageOptimizationAnalyzer struct {
	cfg    ImageSettings
	is     Heuristics
	prober ImageSizeProber
	scorer Scorer
}

// NewImageOptimizationAnalyzer creates an image analyzer. prober may be nil,
// in which case sizes are always estimated.
func NewImageOptimizationAnalyzer(s Settings, h Heuristics, prober ImageSizeProber) *ImageOptimizationAnalyzer {
	return &ImageOptimizationAnalyzer{
		cfg:    s.Image,
		is:     h,
		prober: prober,
		scorer: NewScorer(s.Image.Weights),
	}
}

// Name returns the component name
func (a *ImageOptimizationAnalyzer) Name() ComponentName {
	return ImageOptimizationComponent
}

// Analyze scores every image on the page
func (a *ImageOptimizationAnalyzer) Analyze(ctx context.Context, in *Input) (Result, error) {
	result := &ImageResult{
		ScoreResult:  newScoreResult(),
		FormatCounts: make(map[string]int),
		Images:       []ImageReport{},
	}

	var images []parser.Image
	if in.Content != nil {
		images = in.Content.Images
	}
	result.TotalImages = len(images)

	if len(images) == 0 {
		for name := range a.cfg.Weights {
			result.SubScores[name] = 100
		}
		result.SubScores["responsive"] = 100
		result.AddRecommendation(TypeSuggestion, "images", ImpactLow,
			"Page has no images",
			"Add relevant images with descriptive alt text to support the content")
		a.scorer.Finalize(&result.ScoreResult)
		return result, nil
	}

	measured := a.measure(ctx, in, images)

	formatScore, sizeScore := 100.0, 100.0
	accessScore, seoScore := 100.0, 100.0
	var altTotal, responsiveTotal float64

	for _, img := range images {
		rep := a.analyzeImage(img, in.HTML, measured)

		altTotal += rep.AltScore
		responsiveTotal += rep.ResponsiveScore
		result.TotalBytes += rep.SizeBytes
		result.FormatCounts[rep.Format]++
		if rep.SizeMeasured {
			result.MeasuredImages++
		}
		if img.IsDecorative {
			result.DecorativeImages++
		} else if strings.TrimSpace(img.Alt) == "" {
			result.MissingAlt++
		}
		if img.Srcset != "" || img.InPicture {
			result.ResponsiveImages++
		}
		if strings.EqualFold(img.Loading, "lazy") {
			result.LazyLoaded++
		}

		switch rep.FormatClass {
		case FormatUnoptimized:
			formatScore -= 15
		case FormatOptimized:
			formatScore -= 5
		}
		switch rep.SizeCategory {
		case SizeVeryLarge:
			sizeScore -= 15
		case SizeLarge:
			sizeScore -= 5
		}
		switch {
		case rep.AccessibilityScore < 60:
			accessScore -= 10
		case rep.AccessibilityScore < 80:
			accessScore -= 5
		}
		switch {
		case rep.SEOScore < 60:
			seoScore -= 8
		case rep.SEOScore < 80:
			seoScore -= 3
		}

		result.Images = append(result.Images, rep)
	}

	n := float64(len(images))
	result.SubScores["alt_text"] = altTotal / n
	result.SubScores["format"] = formatScore
	result.SubScores["size"] = sizeScore
	result.SubScores["accessibility"] = accessScore
	result.SubScores["seo"] = seoScore
	result.SubScores["responsive"] = responsiveTotal / n
	result.SubScores["performance"] = a.performance(result.TotalBytes, len(images))

	a.recommend(result)
	a.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

// measure asks the prober for real sizes within the configured timeout.
// Any failure leaves the map empty and estimates are used instead.
func (a *ImageOptimizationAnalyzer) measure(ctx context.Context, in *Input, images []parser.Image) map[string]int64 {
	if !in.Options.CheckImageSizes || a.prober == nil {
		return nil
	}
	srcs := make([]string, 0, len(images))
	for _, img := range images {
		if img.FileSize == 0 && img.Src != "" {
			srcs = append(srcs, img.Src)
		}
	}
	if len(srcs) == 0 {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, in.Options.ImageSizeTimeout())
	defer cancel()
	return a.prober.ProbeSizes(probeCtx, in.URL, srcs)
}

func (a *ImageOptimizationAnalyzer) analyzeImage(img parser.Image, html string, measured map[string]int64) ImageReport {
	name, format := fileNameOf(img.Src)
	rep := ImageReport{
		Src:          img.Src,
		Alt:          img.Alt,
		Format:       format,
		FormatClass:  classifyFormat(format),
		IsDecorative: img.IsDecorative,
		Issues:       []string{},
	}
	if rep.Format == "" {
		rep.Format = FormatUnknown
	}

	rep.AltScore = round(a.altScore(img, name, &rep))

	switch {
	case img.FileSize > 0:
		rep.SizeBytes, rep.SizeMeasured = img.FileSize, true
	case measured[img.Src] > 0:
		rep.SizeBytes, rep.SizeMeasured = measured[img.Src], true
	default:
		rep.SizeBytes = a.EstimateSize(format, img.Width, img.Height)
	}
	rep.SizeCategory = a.SizeCategory(rep.SizeBytes)

	rep.AccessibilityScore = round(a.accessibility(img, name))
	rep.SEOScore = round(a.seo(img, name, html))
	rep.ResponsiveScore = responsive(img)

	if rep.FormatClass == FormatUnoptimized {
		rep.Issues = append(rep.Issues, fmt.Sprintf("%s is not a web-optimized format", strings.ToUpper(format)))
	}
	if rep.SizeCategory == SizeVeryLarge {
		rep.Issues = append(rep.Issues, fmt.Sprintf("image is about %d KB", rep.SizeBytes/1024))
	}
	return rep
}

func classifyFormat(format string) string {
	switch {
	case modernFormats[format]:
		return FormatModern
	case optimizedFormats[format]:
		return FormatOptimized
	case unoptimizedFormats[format]:
		return FormatUnoptimized
	default:
		return FormatUnknown
	}
}

// altMatchesFilename reports whether alt just repeats the file name
func altMatchesFilename(alt, name string) bool {
	if name == "" || alt == "" {
		return false
	}
	return normalizePhrase(filenameSep.ReplaceAllString(name, " ")) == normalizePhrase(filenameSep.ReplaceAllString(alt, " "))
}

func (a *ImageOptimizationAnalyzer) altScore(img parser.Image, name string, rep *ImageReport) float64 {
	if img.IsDecorative {
		return 100
	}
	alt := strings.TrimSpace(img.Alt)
	score := 100.0

	if alt == "" {
		score -= 10
		rep.Issues = append(rep.Issues, "missing alt text")
	}
	if len(alt) < 3 {
		score -= 40
	}
	if len(alt) > a.cfg.MaxAltLength {
		score -= 20
		rep.Issues = append(rep.Issues, "alt text is too long")
	}
	if alt != "" && a.is.HasRedundantAltStart(alt) {
		score -= 30
		rep.Issues = append(rep.Issues, "alt text starts with a redundant phrase")
	}
	if fileExtension.MatchString(alt) {
		score -= 25
		rep.Issues = append(rep.Issues, "alt text contains a file extension")
	}
	if altMatchesFilename(alt, name) {
		score -= 40
		rep.Issues = append(rep.Issues, "alt text repeats the file name")
	}
	switch words := len(strings.Fields(alt)); {
	case words < 2:
		score -= 20
	case words >= 3:
		score += 10
	}
	return Clamp(score)
}

// EstimateSize approximates the byte size of an image from its format and dimensions
func (a *ImageOptimizationAnalyzer) EstimateSize(format string, width, height int) int64 {
	multiplier, ok := a.cfg.FormatMultipliers[format]
	if !ok {
		multiplier = 1.0
	}
	area := a.cfg.ReferenceArea
	if width > 0 && height > 0 {
		area = float64(width) * float64(height)
	}
	return int64(a.cfg.BaseEstimateBytes * multiplier * math.Sqrt(area/a.cfg.ReferenceArea))
}

// SizeCategory buckets a byte size; Large starts above MediumBytes and
// Very Large above LargeBytes
func (a *ImageOptimizationAnalyzer) SizeCategory(bytes int64) string {
	switch {
	case bytes <= a.cfg.SmallBytes:
		return SizeSmall
	case bytes <= a.cfg.MediumBytes:
		return SizeMedium
	case bytes <= a.cfg.LargeBytes:
		return SizeLarge
	default:
		return SizeVeryLarge
	}
}

func percent(checks ...bool) float64 {
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks)) * 100
}

func (a *ImageOptimizationAnalyzer) accessibility(img parser.Image, name string) float64 {
	alt := strings.TrimSpace(img.Alt)
	return percent(
		alt != "" || img.IsDecorative,
		!altMatchesFilename(alt, name),
		len(alt) <= a.cfg.MaxAltLength,
		!a.is.LooksLikeEmbedText(alt),
		!img.IsDecorative || alt == "",
	)
}

func (a *ImageOptimizationAnalyzer) seo(img parser.Image, name, html string) float64 {
	if img.IsDecorative {
		return 100
	}
	alt := strings.TrimSpace(img.Alt)
	return percent(
		name != "" && !a.is.IsGenericFilename(name),
		len(alt) > 5,
		len(strings.Fields(alt)) >= 3 && !a.is.HasRedundantAltStart(alt),
		strings.TrimSpace(img.Title) != "",
		a.hasContext(img.Src, html),
	)
}

// hasContext reports whether enough text surrounds the image in the markup
func (a *ImageOptimizationAnalyzer) hasContext(src, html string) bool {
	if src == "" || html == "" {
		return false
	}
	i := strings.Index(html, src)
	if i < 0 {
		return false
	}
	start := i - a.cfg.ContextWindow
	if start < 0 {
		start = 0
	}
	end := i + len(src) + a.cfg.ContextWindow
	if end > len(html) {
		end = len(html)
	}
	return len(text.StripHTML(html[start:end])) >= a.cfg.MinContextChars
}

func responsive(img parser.Image) float64 {
	score := 0.0
	if img.InPicture {
		score += 30
	}
	if img.Srcset != "" {
		score += 40
	}
	if img.Sizes != "" {
		score += 20
	}
	if strings.EqualFold(img.Loading, "lazy") {
		score += 10
	}
	return math.Min(100, score)
}

func (a *ImageOptimizationAnalyzer) performance(totalBytes int64, count int) float64 {
	const mb = 1024 * 1024
	score := 100.0
	switch {
	case totalBytes > 2*mb:
		score -= 30
	case totalBytes > mb:
		score -= 15
	case totalBytes > mb/2:
		score -= 5
	}
	switch {
	case count > a.cfg.ExcessiveImageCount:
		score -= 20
	case count > a.cfg.MaxImageCount:
		score -= 10
	}
	return score
}

func (a *ImageOptimizationAnalyzer) recommend(r *ImageResult) {
	if r.MissingAlt > 0 {
		r.AddIssue("%d images are missing alt text", r.MissingAlt)
		r.AddRecommendation(TypeError, "images", ImpactHigh,
			fmt.Sprintf("%d images are missing alt text", r.MissingAlt),
			"Describe each informative image in its alt attribute; use alt=\"\" for decorative images")
	}

	var unoptimized, legacy, oversized, genericAlt, redundant int
	for _, img := range r.Images {
		switch img.FormatClass {
		case FormatUnoptimized:
			unoptimized++
		case FormatOptimized:
			legacy++
		}
		if img.SizeCategory == SizeVeryLarge {
			oversized++
		}
		if !img.IsDecorative && img.SEOScore < 60 {
			genericAlt++
		}
		for _, issue := range img.Issues {
			if strings.Contains(issue, "redundant phrase") {
				redundant++
			}
		}
	}

	if unoptimized > 0 {
		r.AddIssue("%d images use unoptimized formats", unoptimized)
		r.AddRecommendation(TypeWarning, "images", ImpactMedium,
			fmt.Sprintf("%d images use unoptimized formats (BMP, TIFF, GIF)", unoptimized),
			"Convert them to WebP or AVIF")
	}
	if oversized > 0 {
		r.AddIssue("%d images are larger than %d KB", oversized, a.cfg.LargeBytes/1024)
		r.AddRecommendation(TypeWarning, "performance", ImpactHigh,
			fmt.Sprintf("%d images are larger than %d KB", oversized, a.cfg.LargeBytes/1024),
			"Compress and resize images to the dimensions they are displayed at")
	}
	if legacy > 0 {
		r.AddRecommendation(TypeSuggestion, "images", ImpactLow,
			fmt.Sprintf("%d images could use a modern format", legacy),
			"Serve WebP or AVIF versions with a JPEG/PNG fallback")
	}
	if redundant > 0 {
		r.AddRecommendation(TypeSuggestion, "accessibility", ImpactLow,
			"Alt text starts with phrases like \"image of\"",
			"Describe the content directly; screen readers already announce images")
	}
	if genericAlt > 0 {
		r.AddRecommendation(TypeSuggestion, "seo", ImpactMedium,
			fmt.Sprintf("%d images have weak SEO signals", genericAlt),
			"Use descriptive file names, keyword-bearing alt text and place images near related text")
	}
	if r.ResponsiveImages == 0 {
		r.AddRecommendation(TypeSuggestion, "images", ImpactMedium,
			"No responsive images found",
			"Provide srcset and sizes or use <picture> for different screen widths")
	}
	if r.TotalImages > 3 && r.LazyLoaded == 0 {
		r.AddRecommendation(TypeSuggestion, "performance", ImpactMedium,
			"Images are not lazy-loaded",
			"Add loading=\"lazy\" to images below the fold")
	}
	if r.TotalImages > a.cfg.MaxImageCount {
		r.AddRecommendation(TypeWarning, "performance", ImpactMedium,
			fmt.Sprintf("Page has %d images", r.TotalImages),
			"Remove non-essential images or load them on demand")
	}
}
