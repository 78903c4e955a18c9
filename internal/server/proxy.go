package server

import (
	"errors"
	"net/http"

	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/metrics"
	"github.com/deusflow/newsboard/internal/proxy"
)

// rejectTarget answers a failed allow-list check: 400 for a missing or
// malformed url, 403 for a host outside the list.
func rejectTarget(w http.ResponseWriter, r *http.Request, kind string, err error) {
	status := http.StatusBadRequest
	outcome := "bad_request"
	if errors.Is(err, proxy.ErrDomainNotAllowed) {
		status = http.StatusForbidden
		outcome = "forbidden"
	}
	metrics.ProxyRequests.WithLabelValues(kind, outcome).Inc()
	logger.Warn("proxy target rejected", "kind", kind, "url", r.URL.Query().Get("url"), "error", err)
	writeError(w, r, status, err.Error())
}

func upstreamFailed(w http.ResponseWriter, r *http.Request, kind string, err error) {
	if errors.Is(err, proxy.ErrDomainNotAllowed) {
		rejectTarget(w, r, kind, err)
		return
	}
	metrics.ProxyRequests.WithLabelValues(kind, "upstream_error").Inc()
	logger.Error("proxy upstream failed", "kind", kind, "error", err, "request_id", RequestID(r.Context()))
	writeError(w, r, http.StatusBadGateway, err.Error())
}

func (s *Server) handleRSSProxy(w http.ResponseWriter, r *http.Request) {
	target, err := proxy.Validate(r.URL.Query().Get("url"), s.rssHosts)
	if err != nil {
		rejectTarget(w, r, "rss", err)
		return
	}

	logger.Debug("proxying feed", "url", target.String())
	res, err := s.gateway.FetchXML(proxy.WithAllowList(r.Context(), s.rssHosts), target)
	if err != nil {
		upstreamFailed(w, r, "rss", err)
		return
	}
	if res.Status != http.StatusOK {
		logger.Warn("proxy upstream returned non-200", "url", target.String(), "status", res.Status)
	}

	metrics.ProxyRequests.WithLabelValues("rss", "ok").Inc()
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(res.Status)
	if _, err := w.Write(res.Body); err != nil {
		logger.Debug("client went away during feed proxy", "error", err)
	}
}

func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	target, err := proxy.Validate(r.URL.Query().Get("url"), s.imageHosts)
	if err != nil {
		rejectTarget(w, r, "image", err)
		return
	}

	n, err := s.gateway.StreamMedia(proxy.WithAllowList(r.Context(), s.imageHosts), w, target)
	var upErr *proxy.UpstreamError
	switch {
	case errors.As(err, &upErr):
		upstreamFailed(w, r, "image", err)
	case err != nil:
		// Headers are already out; all that is left is to record it.
		metrics.ProxyRequests.WithLabelValues("image", "aborted").Inc()
		logger.Warn("image stream interrupted", "url", target.String(), "bytes", n, "error", err)
	default:
		metrics.ProxyRequests.WithLabelValues("image", "ok").Inc()
	}
}
