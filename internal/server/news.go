package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/newsboard/internal/aggregator"
	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/metrics"
	"github.com/deusflow/newsboard/internal/news"
)

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if param := r.URL.Query().Get("sources"); param != "" {
		ids = strings.Split(param, ",")
	}

	resp, err := s.news.News(r.Context(), ids)
	if err != nil {
		logger.Error("GET /news failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	if s.imagePfx != "" {
		for i := range resp.Items {
			resp.Items[i].Thumbnail = news.ProxiedImageURL(s.imagePfx, resp.Items[i].Thumbnail)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.news.Refresh(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lastUpdated": lastUpdated(s.news.Snapshot()),
		"sources":     s.news.Counts(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lastUpdated": lastUpdated(s.news.Snapshot()),
		"sources":     s.news.Counts(),
		"refresh":     metrics.Global.GetStats(),
	})
}

type healthResponse struct {
	Status      string         `json:"status"`
	LastUpdated *time.Time     `json:"lastUpdated"`
	Sources     map[string]int `json:"sources"`
}

// handleHealth always answers 200; "degraded" means no refresh has
// completed yet or every source came back empty.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts := s.news.Counts()
	status := "ok"
	if !metrics.Global.IsHealthy(len(counts)) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      status,
		LastUpdated: lastUpdated(s.news.Snapshot()),
		Sources:     counts,
	})
}

// lastUpdated is nil until the first refresh completes.
func lastUpdated(snap aggregator.Snapshot) *time.Time {
	if snap.LastUpdated.IsZero() {
		return nil
	}
	t := snap.LastUpdated.UTC()
	return &t
}
