// Package jobfetch downloads job postings and reduces them to plain
// text suitable for prompt input.
package jobfetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobpipe/jobpipe/internal/jobcache"
)

const defaultMaxTextLen = 15000

// Fetcher downloads job descriptions, consulting the cache first
type Fetcher struct {
	cache      *jobcache.Cache
	httpClient *http.Client
	maxTextLen int
	logger     *slog.Logger
}

// NewFetcher creates a fetcher backed by the given cache. The cache may
// be nil, in which case every call downloads.
func NewFetcher(cache *jobcache.Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		cache: cache,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxTextLen: defaultMaxTextLen,
		logger:     logger,
	}
}

// Description returns the plain-text description for a job URL
func (f *Fetcher) Description(ctx context.Context, url string) (string, error) {
	if f.cache != nil {
		if text, found, err := f.cache.Get(url); err != nil {
			f.logger.Warn("job cache read failed", "url", url, "error", err)
		} else if found {
			f.logger.Debug("job description from cache", "url", url)
			return text, nil
		}
	}

	text, err := f.download(ctx, url)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		if err := f.cache.Put(url, text); err != nil {
			f.logger.Warn("job cache write failed", "url", url, "error", err)
		}
	}

	return text, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; jobpipe)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch job page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("job page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse job page: %w", err)
	}

	text := ExtractText(doc)
	if len(text) > f.maxTextLen {
		text = text[:f.maxTextLen]
	}
	return text, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractText strips markup chrome from a job page and returns readable
// text with runs of blank lines collapsed.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var b strings.Builder
	doc.Find("body").Contents().Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
		b.WriteString("\n")
	})

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text := strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
