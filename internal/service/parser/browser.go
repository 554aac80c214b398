package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderPage loads targetURL in headless Chrome and parses the rendered DOM.
// It is used for pages whose content only exists after JavaScript runs.
func RenderPage(ctx context.Context, targetURL string, options ...ParseOptions) (*Page, error) {
	opts := DefaultParseOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	targetURL, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(opts.UserAgent),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var html, finalURL string
	startTime := time.Now()

	err = chromedp.Run(browserCtx, chromedp.Tasks{
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", targetURL, err)
	}
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	page := &Page{
		URL:        finalURL,
		HTML:       html,
		StatusCode: 200,
		LoadTime:   time.Since(startTime),
	}
	page.Content, err = ParseHTML(html, finalURL)
	if err != nil {
		return nil, err
	}
	return page, nil
}
