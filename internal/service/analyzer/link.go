package analyzer

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// Link categories
const (
	LinkInternal = "internal"
	LinkExternal = "external"
	LinkAnchor   = "anchor"
	LinkMailto   = "mailto"
	LinkTel      = "tel"
	LinkOther    = "other"
)

// Balance quality levels
const (
	BalanceGood = "Good"
	BalanceFair = "Fair"
	BalancePoor = "Poor"
)

// Manipulation risk levels
const (
	RiskNone   = "none"
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// LinkDistribution describes the internal/external balance
type LinkDistribution struct {
	Check
	Ratio   float64 `json:"internal_external_ratio"`
	Quality string  `json:"balance_quality"`
}

// LinkSEO is the SEO compliance check with its manipulation verdict
type LinkSEO struct {
	Check
	NofollowRatio    float64 `json:"external_nofollow_ratio"`
	ManipulationRisk string  `json:"manipulation_risk"`
}

// LinkResult is the output of LinkAnalyzer
type LinkResult struct {
	ScoreResult
	TotalLinks    int              `json:"total_links"`
	Counts        map[string]int   `json:"counts"`
	LinkDensity   float64          `json:"link_density"`
	SpamDomains   []string         `json:"spam_domains"`
	Internal      Check            `json:"internal_analysis"`
	External      Check            `json:"external_analysis"`
	AnchorText    Check            `json:"anchor_text_analysis"`
	Accessibility Check            `json:"accessibility_analysis"`
	Distribution  LinkDistribution `json:"distribution_analysis"`
	SEO           LinkSEO          `json:"seo_analysis"`
	Security      Check            `json:"security_analysis"`
}

// LinkAnalyzer scores internal, external and anchor-text quality of links
type LinkAnalyzer struct {
	cfg       LinkSettings
	is        Heuristics
	tokenizer *text.Tokenizer
	scorer    Scorer
}

// NewLinkAnalyzer creates a link analyzer
func NewLinkAnalyzer(s Settings, h Heuristics) *LinkAnalyzer {
	return &LinkAnalyzer{
		cfg:       s.Link,
		is:        h,
		tokenizer: text.NewTokenizer(s.StopWords),
		scorer:    NewScorer(s.Link.Weights),
	}
}

// Name returns the component name
func (a *LinkAnalyzer) Name() ComponentName {
	return LinkAnalysisComponent
}

// Categorize places a link in exactly one category
func Categorize(l parser.Link) string {
	href := strings.ToLower(strings.TrimSpace(l.Href))
	switch {
	case href == "":
		return LinkOther
	case strings.HasPrefix(href, "#"):
		return LinkAnchor
	case strings.HasPrefix(href, "mailto:"):
		return LinkMailto
	case strings.HasPrefix(href, "tel:"):
		return LinkTel
	case strings.HasPrefix(href, "javascript:"), strings.HasPrefix(href, "data:"):
		return LinkOther
	case l.IsExternal:
		return LinkExternal
	default:
		return LinkInternal
	}
}

func hasRel(l parser.Link, value string) bool {
	for _, r := range strings.Fields(strings.ToLower(l.Rel)) {
		if r == value {
			return true
		}
	}
	return false
}

func opensNewTab(l parser.Link) bool {
	return strings.EqualFold(strings.TrimSpace(l.Target), "_blank")
}

func pathDepth(href string) int {
	u, err := url.Parse(href)
	if err != nil {
		return 0
	}
	depth := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// Analyze categorizes and scores every link
func (a *LinkAnalyzer) Analyze(ctx context.Context, in *Input) (Result, error) {
	result := &LinkResult{
		ScoreResult: newScoreResult(),
		Counts:      make(map[string]int),
		SpamDomains: []string{},
	}

	var links []parser.Link
	if in.Content != nil {
		links = in.Content.Links
	}
	result.TotalLinks = len(links)

	var internal, external []parser.Link
	for _, l := range links {
		cat := Categorize(l)
		result.Counts[cat]++
		switch cat {
		case LinkInternal:
			internal = append(internal, l)
		case LinkExternal:
			external = append(external, l)
		}
	}

	anchorLen := 0
	for _, l := range links {
		anchorLen += len(strings.TrimSpace(l.AnchorText))
	}
	result.LinkDensity = round(ratio(float64(anchorLen), float64(len(in.TextContent))))

	result.Internal = a.checkInternal(internal)
	result.External = a.checkExternal(external, result)
	result.AnchorText = a.checkAnchorText(append(append([]parser.Link{}, internal...), external...))
	result.Accessibility = a.checkAccessibility(links, result.LinkDensity)
	result.Distribution = a.checkDistribution(len(internal), len(external))
	result.SEO = a.checkSEO(links, len(internal), external)
	result.Security = a.checkSecurity(links)

	checks := []struct {
		name  string
		check *Check
	}{
		{"internal", &result.Internal},
		{"external", &result.External},
		{"anchor_text", &result.AnchorText},
		{"accessibility", &result.Accessibility},
		{"distribution", &result.Distribution.Check},
		{"seo", &result.SEO.Check},
		{"security", &result.Security},
	}
	for _, c := range checks {
		c.check.Score = round(Clamp(c.check.Score))
		result.SubScores[c.name] = c.check.Score
		result.Issues = append(result.Issues, c.check.Issues...)
	}

	a.recommend(result, internal, external)
	a.scorer.Finalize(&result.ScoreResult)
	return result, nil
}

func (a *LinkAnalyzer) isDescriptive(anchor string) bool {
	return !a.is.IsGenericAnchor(anchor) && len(strings.Fields(anchor)) >= 2
}

func (a *LinkAnalyzer) checkInternal(links []parser.Link) Check {
	c := newCheck(100)
	targets := make(map[string]int)

	for _, l := range links {
		anchor := strings.TrimSpace(l.AnchorText)
		switch {
		case anchor == "":
			c.add(10, "Internal link to %s has no anchor text", l.Href)
		case !a.isDescriptive(anchor):
			c.add(5, "Internal link %q has non-descriptive anchor text", anchor)
		}
		if depth := pathDepth(l.Href); depth > a.cfg.MaxPathDepth {
			c.add(3, "Internal link %s is %d levels deep", l.Href, depth)
		}
		targets[strings.TrimSuffix(l.Href, "/")]++
	}

	hrefs := make([]string, 0, len(targets))
	for href := range targets {
		hrefs = append(hrefs, href)
	}
	sort.Strings(hrefs)
	for _, href := range hrefs {
		if n := targets[href]; n > a.cfg.MaxRepeatLinks {
			c.add(5, "%s is linked %d times", href, n)
		}
	}
	return c
}

func (a *LinkAnalyzer) checkExternal(links []parser.Link, r *LinkResult) Check {
	c := newCheck(100)
	seenSpam := make(map[string]bool)

	for _, l := range links {
		host := hostOf(l.Href)
		if opensNewTab(l) && !hasRel(l, "noopener") {
			c.add(8, "External link %s opens a new tab without noopener", l.Href)
		}
		if host != "" && a.is.IsSpamDomain(host) {
			c.add(15, "External link to suspicious domain %s", host)
			if !seenSpam[host] {
				seenSpam[host] = true
				r.SpamDomains = append(r.SpamDomains, host)
			}
		}
		if !l.IsNofollow && host != "" && !a.is.IsAuthorityDomain(host) {
			c.add(3, "Followed external link to non-authority domain %s", host)
		}
	}
	if len(links) > a.cfg.MaxExternal {
		c.add(10, "Page has %d external links", len(links))
	}
	return c
}

func (a *LinkAnalyzer) checkAnchorText(links []parser.Link) Check {
	c := newCheck(100)
	keywordAnchors := make(map[string]int)
	anchors := 0

	for _, l := range links {
		anchor := strings.TrimSpace(l.AnchorText)
		if anchor == "" {
			continue
		}
		anchors++
		if a.is.IsGenericAnchor(anchor) {
			c.add(5, "Generic anchor text %q", anchor)
		}
		switch n := len(anchor); {
		case n < 3:
			c.add(8, "Anchor text %q is too short", anchor)
		case n > 60:
			c.add(3, "Anchor text %q is too long", anchor)
		}
		for w := range wordSet(a.tokenizer.Tokenize(anchor)) {
			keywordAnchors[w]++
		}
	}

	if anchors > 5 {
		stuffed := []string{}
		for w, n := range keywordAnchors {
			if n > 3 {
				stuffed = append(stuffed, w)
			}
		}
		if len(stuffed) > 0 {
			sort.Strings(stuffed)
			c.add(10, "Anchor text stuffing risk: %s", strings.Join(stuffed, ", "))
		}
	}
	return c
}

func (a *LinkAnalyzer) checkAccessibility(links []parser.Link, density float64) Check {
	c := newCheck(100)
	if len(links) > 0 {
		total := 0.0
		for _, l := range links {
			anchor := strings.TrimSpace(l.AnchorText)
			total += percent(
				anchor != "" || strings.TrimSpace(l.Title) != "",
				len(strings.Fields(anchor)) >= 2,
				!a.is.IsGenericAnchor(anchor),
				!l.IsExternal || opensNewTab(l) || strings.TrimSpace(l.Title) != "",
				true,
			)
		}
		c.Score = total / float64(len(links))
		if c.Score < 80 {
			c.Issues = append(c.Issues, fmt.Sprintf("Link accessibility is %.0f%%", c.Score))
		}
	}
	if density > a.cfg.LinkDensityLimit {
		c.add(15, "Link text makes up %.0f%% of the content", density*100)
	}
	return c
}

func (a *LinkAnalyzer) checkDistribution(internal, external int) LinkDistribution {
	d := LinkDistribution{Check: newCheck(100)}

	if external == 0 {
		d.Ratio = float64(internal)
	} else {
		d.Ratio = round(float64(internal) / float64(external))
	}

	switch {
	case d.Ratio >= 1 && d.Ratio <= 5:
		d.Quality = BalanceGood
	case d.Ratio >= 0.5 && d.Ratio <= 10:
		d.Quality = BalanceFair
		d.Score = 80
	default:
		d.Quality = BalancePoor
		d.Score = 60
	}
	if d.Ratio < 0.5 || d.Ratio > 5 {
		d.add(20, "Internal to external link ratio %.2f is outside 0.5-5", d.Ratio)
	}
	return d
}

func (a *LinkAnalyzer) checkSEO(links []parser.Link, internal int, external []parser.Link) LinkSEO {
	s := LinkSEO{Check: newCheck(100), ManipulationRisk: RiskNone}

	switch {
	case internal == 0:
		s.add(30, "No internal links; the page is an orphan risk")
	case internal < a.cfg.MinInternal:
		s.add(20, "Only %d internal links", internal)
	case internal > a.cfg.MaxInternal:
		s.add(10, "Too many internal links (%d)", internal)
	}

	if len(external) > 0 {
		nofollow := 0
		for _, l := range external {
			if l.IsNofollow {
				nofollow++
			}
		}
		s.NofollowRatio = round(float64(nofollow) / float64(len(external)))
		if s.NofollowRatio < 0.5 {
			s.add(10, "Only %.0f%% of external links are nofollow", s.NofollowRatio*100)
		}
	}

	anchorUses := make(map[string]int)
	anchors := 0
	for _, l := range links {
		if t := normalizePhrase(l.AnchorText); t != "" {
			anchorUses[t]++
			anchors++
		}
	}
	repeated := false
	for _, n := range anchorUses {
		if n > 5 {
			repeated = true
		}
	}
	repeated = repeated && anchors > 10
	tooManyExternal := len(external) > 20

	switch {
	case repeated && tooManyExternal:
		s.ManipulationRisk = RiskHigh
	case repeated || tooManyExternal:
		s.ManipulationRisk = RiskMedium
	}
	if s.ManipulationRisk != RiskNone {
		s.add(25, "Link manipulation risk is %s", s.ManipulationRisk)
	}
	return s
}

func (a *LinkAnalyzer) checkSecurity(links []parser.Link) Check {
	c := newCheck(100)
	for _, l := range links {
		if opensNewTab(l) && !hasRel(l, "noopener") {
			c.add(15, "Link to %s uses target=\"_blank\" without rel=\"noopener\"", l.Href)
		}
		if !l.IsExternal {
			continue
		}
		host := hostOf(l.Href)
		switch {
		case host == "":
		case a.is.IsURLShortener(host):
			c.add(10, "Link to %s uses a URL shortener", l.Href)
		case isIPHost(host):
			c.add(10, "Link to %s points at a raw IP address", l.Href)
		case a.is.IsSpamDomain(host):
			c.add(10, "Link to %s matches a suspicious domain pattern", l.Href)
		}
	}
	return c
}

func (a *LinkAnalyzer) recommend(r *LinkResult, internal, external []parser.Link) {
	switch {
	case len(internal) == 0:
		r.AddRecommendation(TypeError, "links", ImpactHigh,
			"Page has no internal links",
			"Link to related pages on your site to help users and crawlers")
	case len(internal) < a.cfg.MinInternal:
		r.AddRecommendation(TypeWarning, "links", ImpactMedium,
			fmt.Sprintf("Only %d internal links", len(internal)),
			fmt.Sprintf("Add at least %d contextual internal links", a.cfg.MinInternal))
	case len(internal) > a.cfg.MaxInternal:
		r.AddRecommendation(TypeSuggestion, "links", ImpactLow,
			fmt.Sprintf("Page has %d internal links", len(internal)),
			"Keep navigation focused on the most relevant pages")
	}

	unsafe := 0
	for _, l := range append(append([]parser.Link{}, internal...), external...) {
		if opensNewTab(l) && !hasRel(l, "noopener") {
			unsafe++
		}
	}
	if unsafe > 0 {
		r.AddRecommendation(TypeError, "security", ImpactHigh,
			fmt.Sprintf("%d links open a new tab without rel=\"noopener\"", unsafe),
			"Add rel=\"noopener noreferrer\" to every target=\"_blank\" link")
	}

	if len(r.SpamDomains) > 0 {
		r.AddRecommendation(TypeError, "links", ImpactHigh,
			fmt.Sprintf("Links to suspicious domains: %s", strings.Join(r.SpamDomains, ", ")),
			"Remove or nofollow links to low-quality domains")
	}

	generic := 0
	for _, issue := range r.AnchorText.Issues {
		if strings.HasPrefix(issue, "Generic anchor text") {
			generic++
		}
	}
	if generic > 0 {
		r.AddRecommendation(TypeWarning, "links", ImpactMedium,
			fmt.Sprintf("%d links use generic anchor text", generic),
			"Replace phrases like \"click here\" with text that describes the target page")
	}

	if r.SEO.ManipulationRisk != RiskNone {
		r.AddRecommendation(TypeWarning, "links", ImpactHigh,
			fmt.Sprintf("Link pattern looks manipulative (%s risk)", r.SEO.ManipulationRisk),
			"Vary anchor text and limit the number of external links")
	}
	if len(external) > 0 && r.SEO.NofollowRatio < 0.5 {
		r.AddRecommendation(TypeSuggestion, "links", ImpactLow,
			"Most external links pass link equity",
			"Add rel=\"nofollow\" to external links you do not vouch for")
	}
	if r.Distribution.Quality == BalancePoor && r.TotalLinks > 0 {
		r.AddRecommendation(TypeSuggestion, "links", ImpactLow,
			"Internal and external links are unbalanced",
			"Aim for between one and five internal links per external link")
	}
	if r.LinkDensity > a.cfg.LinkDensityLimit {
		r.AddRecommendation(TypeWarning, "links", ImpactMedium,
			"Too much of the text is link text",
			"Add more body content or remove low-value links")
	}
}
