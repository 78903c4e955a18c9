// Package proxy re-serves allow-listed remote feeds and images.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/newsboard/internal/rss"
)

const (
	DefaultTimeout = 15 * time.Second
	MaxRedirects   = 5
	maxXMLBytes    = 10 << 20

	acceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
	acceptXML      = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptImage    = "image/*,*/*;q=0.8"

	ContentTypeFeed   = "application/rss+xml; charset=utf-8"
	ContentTypeHTML   = "text/html; charset=utf-8"
	ContentTypeText   = "text/plain; charset=utf-8"
	MediaCacheControl = "public, max-age=3600"
)

// UpstreamError means the target could not be fetched at all: timeout,
// connection failure, too many redirects or an oversized body.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// XMLResponse is an upstream feed or page read into memory.
type XMLResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Gateway performs the outbound side of the proxies. It has no state
// besides its HTTP client.
type Gateway struct {
	client *http.Client
}

func NewGateway(timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				if list, ok := allowListFrom(req.Context()); ok && !list.Allows(req.URL.Hostname()) {
					return fmt.Errorf("redirect to %s: %w", req.URL.Hostname(), ErrDomainNotAllowed)
				}
				return nil
			},
		},
	}
}

type allowListKey struct{}

// WithAllowList makes the gateway check every redirect hop of requests
// made with ctx against list.
func WithAllowList(ctx context.Context, list AllowList) context.Context {
	return context.WithValue(ctx, allowListKey{}, list)
}

func allowListFrom(ctx context.Context) (AllowList, bool) {
	list, ok := ctx.Value(allowListKey{}).(AllowList)
	return list, ok
}

func (g *Gateway) do(ctx context.Context, target *url.URL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &UpstreamError{URL: target.String(), Err: err}
	}
	req.Header.Set("User-Agent", rss.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: target.String(), Err: err}
	}
	return resp, nil
}

// FetchXML reads the target body. A 200 response is labelled as a feed or
// as HTML by looking for feed root tags; other statuses pass through as
// plain text.
func (g *Gateway) FetchXML(ctx context.Context, target *url.URL) (*XMLResponse, error) {
	resp, err := g.do(ctx, target, acceptXML)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxXMLBytes+1))
	if err != nil {
		return nil, &UpstreamError{URL: target.String(), Err: err}
	}
	if len(body) > maxXMLBytes {
		return nil, &UpstreamError{URL: target.String(), Err: errors.New("response body too large")}
	}

	out := &XMLResponse{Status: resp.StatusCode, Body: body, ContentType: ContentTypeText}
	if resp.StatusCode == http.StatusOK {
		out.ContentType = SniffFeed(body)
	}
	return out, nil
}

// SniffFeed returns the feed content type when body has an <rss> or
// <channel> element, and HTML otherwise.
func SniffFeed(body []byte) string {
	if bytes.Contains(body, []byte("<rss")) || bytes.Contains(body, []byte("<channel")) {
		return ContentTypeFeed
	}
	return ContentTypeHTML
}

// StreamMedia copies the upstream response to w as it arrives. If the
// upstream cannot be reached nothing is written and an *UpstreamError is
// returned; once headers are sent, copy errors are returned as is.
func (g *Gateway) StreamMedia(ctx context.Context, w http.ResponseWriter, target *url.URL) (int64, error) {
	resp, err := g.do(ctx, target, acceptImage)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", MediaCacheControl)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		h.Set("Content-Length", cl)
	}
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(flushWriter{w: w, rc: http.NewResponseController(w)}, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream %s: %w", target, err)
	}
	return n, nil
}

type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err == nil {
		_ = f.rc.Flush()
	}
	return n, err
}
