package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Page is a fetched document together with its parsed structure
type Page struct {
	URL        string         `json:"url"`
	HTML       string         `json:"html"`
	StatusCode int            `json:"status_code"`
	LoadTime   time.Duration  `json:"load_time"`
	Content    *ParsedContent `json:"content"`
}

// ParseOptions allows customizing the fetching behavior
type ParseOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultParseOptions returns the default fetching options
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Timeout:   30 * time.Second,
		UserAgent: "Mozilla/5.0 (compatible; ContentOptimizer/1.0)",
	}
}

// ErrEmptyDocument is returned when a fetch succeeded but produced no markup
var ErrEmptyDocument = errors.New("empty document")

// NormalizeURL adds a scheme when missing and validates the result
func NormalizeURL(targetURL string) (string, error) {
	targetURL = strings.TrimSpace(targetURL)
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		targetURL = "https://" + targetURL
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", targetURL)
	}
	return u.String(), nil
}

// ParseWebsite fetches a single page with colly and parses it
func ParseWebsite(ctx context.Context, targetURL string, options ...ParseOptions) (*Page, error) {
	opts := DefaultParseOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	targetURL, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	page := &Page{URL: targetURL}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)

	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	} else {
		extensions.RandomUserAgent(c)
	}
	c.SetRequestTimeout(opts.Timeout)

	startTime := time.Now()
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.LoadTime = time.Since(startTime)
		page.URL = r.Request.URL.String()
		page.HTML = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		page.StatusCode = r.StatusCode
		if r.StatusCode == 0 {
			page.StatusCode = http.StatusInternalServerError
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil {
		return page, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return page, fmt.Errorf("fetch %s: %w", targetURL, fetchErr)
	}
	if strings.TrimSpace(page.HTML) == "" {
		return page, ErrEmptyDocument
	}

	page.Content, err = ParseHTML(page.HTML, page.URL)
	if err != nil {
		return page, err
	}
	return page, nil
}
