package parser

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ImageSizeProber measures image byte sizes with HEAD requests.
// Requests are rate limited and bounded by the caller's context.
type ImageSizeProber struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgent   string
	concurrency int
}

// NewImageSizeProber creates a prober issuing at most rps requests per second
func NewImageSizeProber(timeout time.Duration, rps float64) *ImageSizeProber {
	if rps <= 0 {
		rps = 10
	}
	return &ImageSizeProber{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter:     rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		userAgent:   "Mozilla/5.0 (compatible; ContentOptimizer/1.0)",
		concurrency: 4,
	}
}

// ProbeSizes returns the Content-Length of every image that answered in time.
// Images missing from the result could not be measured.
func (p *ImageSizeProber) ProbeSizes(ctx context.Context, pageURL string, srcs []string) map[string]int64 {
	base, _ := url.Parse(pageURL)

	sizes := make(map[string]int64)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)

	for _, src := range srcs {
		target := resolve(base, src)
		if target == "" {
			continue
		}

		wg.Add(1)
		go func(src, target string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if err := p.limiter.Wait(ctx); err != nil {
				return
			}

			size, ok := p.head(ctx, target)
			if !ok {
				return
			}
			mu.Lock()
			sizes[src] = size
			mu.Unlock()
		}(src, target)
	}

	wg.Wait()
	return sizes
}

func (p *ImageSizeProber) head(ctx context.Context, target string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// resolve turns src into an absolute http(s) URL, or "" when it cannot be fetched
func resolve(base *url.URL, src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil || !base.IsAbs() {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
