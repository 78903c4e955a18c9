package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/metrics"
	"github.com/deusflow/newsboard/internal/news"
	"github.com/deusflow/newsboard/internal/sources"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxItems = 15

	// Several upstream feeds reject Go's default client signature.
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptHeader   = "application/rss+xml, application/xml, text/xml, */*"
	acceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"

	maxFeedBytes = 10 << 20
)

// StrategySource lists the URLs to try for a source, in order.
type StrategySource interface {
	Strategies(src sources.NewsSource) []string
}

// Fetcher downloads a source's feed and normalizes its entries. It never
// returns an error: a source that cannot be fetched yields no items.
type Fetcher struct {
	client     *http.Client
	strategies StrategySource
	normalizer *news.Normalizer
	maxItems   int
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithMaxItems(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxItems = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

func NewFetcher(strategies StrategySource, normalizer *news.Normalizer, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		strategies: strategies,
		normalizer: normalizer,
		maxItems:   DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch tries each strategy URL of src in turn and returns the normalized
// items of the first feed that parses. Items are always attributed to src.
func (f *Fetcher) Fetch(ctx context.Context, src sources.NewsSource) []news.Item {
	urls := f.strategies.Strategies(src)
	log := logger.With("source", src.ID)

	var lastErr error
	for i, u := range urls {
		feed, err := f.FetchFeed(ctx, u)
		if err != nil {
			lastErr = err
			metrics.SourceFetchFailures.WithLabelValues(src.ID, strconv.Itoa(i)).Inc()
			log.Warn("feed fetch failed", "url", u, "strategy", i, "error", err)
			continue
		}
		if i > 0 {
			metrics.FallbackUsed.WithLabelValues(src.ID).Inc()
			log.Info("served from fallback feed", "url", u)
		}

		items := f.normalize(feed, src)
		log.Debug("feed loaded", "url", u, "entries", len(feed.Items), "items", len(items))
		return items
	}

	if len(urls) > 1 {
		log.Error("all feed strategies failed", "tried", len(urls))
	}
	if lastErr != nil {
		metrics.Global.SetError(fmt.Sprintf("%s: all %d strategies failed: %v", src.ID, len(urls), lastErr))
	}
	return []news.Item{}
}

// FetchFeed downloads and parses one feed URL.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	// gofeed parsers keep per-parse state, so each fetch gets its own.
	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return feed, nil
}

func (f *Fetcher) normalize(feed *gofeed.Feed, src sources.NewsSource) []news.Item {
	entries := feed.Items
	if len(entries) > f.maxItems {
		entries = entries[:f.maxItems]
	}

	items := make([]news.Item, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if item, ok := f.normalizer.Normalize(ToRawEntry(entry), src); ok {
			items = append(items, item)
		}
	}
	return items
}

// ToRawEntry maps a gofeed item onto the fields the normalizer understands.
func ToRawEntry(item *gofeed.Item) news.RawFeedEntry {
	raw := news.RawFeedEntry{
		Title:       item.Title,
		Link:        item.Link,
		GUID:        item.GUID,
		PubDate:     item.Published,
		Content:     item.Content,
		Description: item.Description,
		Categories:  item.Categories,
	}

	switch {
	case item.PublishedParsed != nil:
		raw.PubDateParsed = item.PublishedParsed
	case item.Published == "" && item.UpdatedParsed != nil:
		raw.PubDateParsed = item.UpdatedParsed
	}
	if raw.PubDate == "" {
		raw.PubDate = item.Updated
	}

	raw.ContentEncoded = extensionValue(item, "content", "encoded")

	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			raw.EnclosureURL = enc.URL
			break
		}
	}

	for _, ext := range item.Extensions["media"]["content"] {
		if u := ext.Attrs["url"]; u != "" {
			raw.MediaContentURLs = append(raw.MediaContentURLs, u)
		}
	}
	for _, group := range item.Extensions["media"]["group"] {
		for _, ext := range group.Children["content"] {
			if u := ext.Attrs["url"]; u != "" {
				raw.MediaContentURLs = append(raw.MediaContentURLs, u)
			}
		}
	}

	return raw
}

func extensionValue(item *gofeed.Item, ns, name string) string {
	for _, ext := range item.Extensions[ns][name] {
		if v := strings.TrimSpace(ext.Value); v != "" {
			return ext.Value
		}
	}
	return ""
}
