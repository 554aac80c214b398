package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/parser"
)

func runLinks(t *testing.T, links []parser.Link, textContent string) *LinkResult {
	t.Helper()
	s := DefaultSettings()
	res, err := NewLinkAnalyzer(s, NewHeuristics(s)).Analyze(context.Background(), &Input{
		TextContent: textContent,
		Content:     &parser.ParsedContent{Links: links},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res.(*LinkResult)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		link parser.Link
		want string
	}{
		{"fragment", parser.Link{Href: "#brewing"}, LinkAnchor},
		{"mail", parser.Link{Href: "mailto:hello@example.com"}, LinkMailto},
		{"phone", parser.Link{Href: "tel:+15550100"}, LinkTel},
		{"script", parser.Link{Href: "javascript:void(0)"}, LinkOther},
		{"empty", parser.Link{Href: ""}, LinkOther},
		{"external", parser.Link{Href: "https://wikipedia.org/wiki/Coffee", IsExternal: true}, LinkExternal},
		{"internal", parser.Link{Href: "/guides/espresso"}, LinkInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.link); got != tt.want {
				t.Errorf("Categorize(%q) = %s, want %s", tt.link.Href, got, tt.want)
			}
		})
	}
}

func TestLinkTargetBlankWithoutNoopener(t *testing.T) {
	links := []parser.Link{
		{Href: "/guides/espresso", AnchorText: "Espresso brewing guide"},
		{Href: "https://example.org/beans", AnchorText: "Bean sourcing notes", IsExternal: true, Target: "_blank"},
	}
	result := runLinks(t, links, strings.Repeat("coffee ", 200))

	found := false
	for _, issue := range result.Security.Issues {
		if strings.Contains(issue, "https://example.org/beans") && strings.Contains(issue, "noopener") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a noopener issue in security_analysis, got %v", result.Security.Issues)
	}
	if result.Security.Score >= 100 {
		t.Errorf("security score = %v, want below 100", result.Security.Score)
	}

	hasError := false
	for _, r := range result.Recommendations {
		if r.Category == "security" && r.Type == TypeError {
			hasError = true
		}
	}
	if !hasError {
		t.Errorf("expected a security error recommendation, got %+v", result.Recommendations)
	}
}

func TestLinkNoopenerPresent(t *testing.T) {
	links := []parser.Link{
		{Href: "https://example.org/beans", AnchorText: "Bean sourcing notes", IsExternal: true, Target: "_blank", Rel: "noopener noreferrer"},
	}
	result := runLinks(t, links, strings.Repeat("coffee ", 200))

	if len(result.Security.Issues) != 0 {
		t.Errorf("unexpected security issues: %v", result.Security.Issues)
	}
}

func TestLinkSpamDomain(t *testing.T) {
	links := []parser.Link{
		{Href: "https://cheap-beans.xyz/deal", AnchorText: "Cheap bean deals", IsExternal: true},
		{Href: "https://cheap-beans.xyz/other", AnchorText: "More cheap beans", IsExternal: true},
	}
	result := runLinks(t, links, strings.Repeat("coffee ", 200))

	if len(result.SpamDomains) != 1 || result.SpamDomains[0] != "cheap-beans.xyz" {
		t.Errorf("SpamDomains = %v, want [cheap-beans.xyz]", result.SpamDomains)
	}
}

func TestLinkNoInternalLinks(t *testing.T) {
	result := runLinks(t, nil, "plain text without links")

	if result.SEO.Score != 70 {
		t.Errorf("seo score = %v, want 70", result.SEO.Score)
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0].Message != "Page has no internal links" {
		t.Errorf("expected a missing internal links error, got %+v", result.Recommendations)
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score %v outside [0,100]", result.Score)
	}
}

func TestLinkGenericAnchors(t *testing.T) {
	links := []parser.Link{
		{Href: "/a", AnchorText: "click here"},
		{Href: "/b", AnchorText: "read more"},
		{Href: "/c", AnchorText: "Roasting profiles explained"},
	}
	result := runLinks(t, links, strings.Repeat("coffee ", 200))

	generic := 0
	for _, issue := range result.AnchorText.Issues {
		if strings.HasPrefix(issue, "Generic anchor text") {
			generic++
		}
	}
	if generic != 2 {
		t.Errorf("expected 2 generic anchors, got %d: %v", generic, result.AnchorText.Issues)
	}
}

func TestLinkDistributionBands(t *testing.T) {
	s := DefaultSettings()
	a := NewLinkAnalyzer(s, NewHeuristics(s))

	tests := []struct {
		name               string
		internal, external int
		ratio              float64
		quality            string
		score              float64
	}{
		{"balanced", 3, 1, 3, BalanceGood, 100},
		{"one to one", 1, 1, 1, BalanceGood, 100},
		{"upper good edge", 5, 1, 5, BalanceGood, 100},
		{"internal only", 4, 0, 4, BalanceGood, 100},
		{"lower fair edge", 1, 2, 0.5, BalanceFair, 80},
		{"fair but internal heavy", 8, 1, 8, BalanceFair, 60},
		{"internal dominated", 12, 1, 12, BalancePoor, 40},
		{"external dominated", 1, 4, 0.25, BalancePoor, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := a.checkDistribution(tt.internal, tt.external)
			if d.Ratio != tt.ratio || d.Quality != tt.quality || d.Score != tt.score {
				t.Errorf("checkDistribution(%d, %d) = ratio %v %s score %v, want ratio %v %s score %v",
					tt.internal, tt.external, d.Ratio, d.Quality, d.Score, tt.ratio, tt.quality, tt.score)
			}
		})
	}
}

func TestLinkManipulationRisk(t *testing.T) {
	external := func(n int, anchor func(i int) string) []parser.Link {
		links := make([]parser.Link, n)
		for i := range links {
			links[i] = parser.Link{
				Href:       fmt.Sprintf("https://roaster%d.example.com/beans", i),
				AnchorText: anchor(i),
				IsExternal: true,
				IsNofollow: true,
			}
		}
		return links
	}
	internal := func(n int, anchor func(i int) string) []parser.Link {
		links := make([]parser.Link, n)
		for i := range links {
			links[i] = parser.Link{Href: fmt.Sprintf("/guides/%d", i), AnchorText: anchor(i)}
		}
		return links
	}
	same := func(int) string { return "best coffee beans online" }
	distinct := func(i int) string { return fmt.Sprintf("roaster profile number %d", i) }

	tests := []struct {
		name  string
		links []parser.Link
		want  string
	}{
		{"varied anchors", append(internal(5, distinct), external(3, distinct)...), RiskNone},
		{"repeated anchors", internal(12, same), RiskMedium},
		{"repeated anchors on few links", internal(5, same), RiskNone},
		{"many external links", append(internal(5, distinct), external(21, distinct)...), RiskMedium},
		{"repeated anchors and many external links", append(internal(5, distinct), external(21, same)...), RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runLinks(t, tt.links, strings.Repeat("coffee ", 200))
			if result.SEO.ManipulationRisk != tt.want {
				t.Errorf("ManipulationRisk = %s, want %s", result.SEO.ManipulationRisk, tt.want)
			}
			flagged := false
			for _, issue := range result.SEO.Issues {
				if strings.HasPrefix(issue, "Link manipulation risk") {
					flagged = true
				}
			}
			if flagged != (tt.want != RiskNone) {
				t.Errorf("manipulation issue recorded = %v for risk %s", flagged, tt.want)
			}
		})
	}
}
