package parser

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

// ParsedContent is the structured view of a page consumed by the analyzers
type ParsedContent struct {
	Headings map[int][]Heading `json:"headings"`
	Images   []Image           `json:"images"`
	Links    []Link            `json:"links"`
	Meta     Meta              `json:"meta"`
	HTML     string            `json:"html,omitempty"`
	// TextContent is the page text with tags, scripts and styles removed and whitespace collapsed
	TextContent string `json:"text_content"`
}

// Heading is one H1-H6 element
type Heading struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
	// Position is the element's index in document order; consecutive elements differ by one
	Position int `json:"position"`
}

// Image represents an image on the page
type Image struct {
	Src          string `json:"src"`
	Alt          string `json:"alt"`
	Title        string `json:"title"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	IsDecorative bool   `json:"is_decorative"`
	Srcset       string `json:"srcset,omitempty"`
	Sizes        string `json:"sizes,omitempty"`
	Loading      string `json:"loading,omitempty"`
	InPicture    bool   `json:"in_picture,omitempty"`
	// FileSize is the measured byte size, zero when unknown
	FileSize int64 `json:"file_size,omitempty"`
}

// Link represents a hyperlink on the page
type Link struct {
	Href       string `json:"href"`
	AnchorText string `json:"anchor_text"`
	Title      string `json:"title"`
	Rel        string `json:"rel"`
	Target     string `json:"target"`
	IsExternal bool   `json:"is_external"`
	IsNofollow bool   `json:"is_nofollow"`
}

// Meta holds the page metadata used by the analyzers
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HeadingCount returns the total number of headings across all levels
func (p *ParsedContent) HeadingCount() int {
	total := 0
	for _, hs := range p.Headings {
		total += len(hs)
	}
	return total
}

// ParseHTML extracts headings, images, links, meta and text from raw markup.
// pageURL is used to decide whether links are external; it may be empty.
func ParseHTML(html, pageURL string) (*ParsedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var pageHost string
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			pageHost = strings.ToLower(u.Hostname())
		}
	}

	content := &ParsedContent{
		Headings: make(map[int][]Heading),
		Images:   []Image{},
		Links:    []Link{},
		HTML:     html,
	}

	content.Meta.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if content.Meta.Title == "" {
		content.Meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		content.Meta.Description = strings.TrimSpace(desc)
	}

	// Positions follow document order over every element in the body
	doc.Find("body *").Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(goquery.NodeName(s)[1] - '0')
			t := text.CollapseWhitespace(s.Text())
			content.Headings[level] = append(content.Headings[level], Heading{
				Text:     t,
				Length:   len(t),
				Position: i,
			})
		case "img":
			content.Images = append(content.Images, extractImage(s))
		case "a":
			if _, ok := s.Attr("href"); ok {
				content.Links = append(content.Links, extractLink(s, pageHost))
			}
		}
	})

	content.TextContent = text.StripHTML(html)
	return content, nil
}

func extractImage(s *goquery.Selection) Image {
	alt, _ := s.Attr("alt")
	role, _ := s.Attr("role")
	ariaHidden, _ := s.Attr("aria-hidden")

	img := Image{
		Src:       attr(s, "src"),
		Alt:       strings.TrimSpace(alt),
		Title:     attr(s, "title"),
		Width:     atoi(attr(s, "width")),
		Height:    atoi(attr(s, "height")),
		Srcset:    attr(s, "srcset"),
		Sizes:     attr(s, "sizes"),
		Loading:   strings.ToLower(attr(s, "loading")),
		InPicture: s.ParentsFiltered("picture").Length() > 0,
	}
	if img.Src == "" {
		img.Src = attr(s, "data-src")
	}

	// alt="" is the explicit decorative marker; a missing attribute is not
	_, hasAlt := s.Attr("alt")
	img.IsDecorative = (hasAlt && img.Alt == "") || role == "presentation" || role == "none" || ariaHidden == "true"
	return img
}

func extractLink(s *goquery.Selection, pageHost string) Link {
	href := attr(s, "href")
	rel := strings.ToLower(attr(s, "rel"))

	link := Link{
		Href:       href,
		AnchorText: text.CollapseWhitespace(s.Text()),
		Title:      attr(s, "title"),
		Rel:        rel,
		Target:     attr(s, "target"),
		IsNofollow: strings.Contains(rel, "nofollow"),
	}
	if link.AnchorText == "" {
		// Image links take their accessible name from the image alt
		if alt, ok := s.Find("img").First().Attr("alt"); ok {
			link.AnchorText = strings.TrimSpace(alt)
		}
	}

	if u, err := url.Parse(href); err == nil && u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") {
		host := strings.ToLower(u.Hostname())
		link.IsExternal = pageHost == "" || !sameSite(host, pageHost)
	}
	return link
}

// sameSite treats www.example.com and example.com as the same host
func sameSite(a, b string) bool {
	return strings.TrimPrefix(a, "www.") == strings.TrimPrefix(b, "www.")
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// maxDimension caps width and height attributes
const maxDimension = 100000

func atoi(v string) int {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	if n > maxDimension {
		return maxDimension
	}
	return n
}
