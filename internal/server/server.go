// Package server exposes the news feed, the proxies and the message board
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deusflow/newsboard/internal/aggregator"
	"github.com/deusflow/newsboard/internal/logger"
	"github.com/deusflow/newsboard/internal/proxy"
	"github.com/deusflow/newsboard/internal/ratelimit"
	"github.com/deusflow/newsboard/internal/storage"
	"github.com/deusflow/newsboard/internal/weather"
)

const shutdownTimeout = 10 * time.Second

// NewsService is the part of the aggregator the handlers use.
type NewsService interface {
	News(ctx context.Context, ids []string) (aggregator.Response, error)
	Refresh(ctx context.Context) error
	Counts() map[string]int
	Snapshot() aggregator.Snapshot
}

type Forecaster interface {
	Forecast(ctx context.Context) (weather.Forecast, error)
}

type Options struct {
	News       NewsService
	Gateway    *proxy.Gateway
	RSSHosts   []string
	ImageHosts []string
	Limiter    *ratelimit.Limiter
	Store      storage.Store
	Weather    Forecaster

	// ImageProxyPrefix, when set, rewrites /news thumbnails to go through
	// the image proxy.
	ImageProxyPrefix string
}

type Server struct {
	news       NewsService
	gateway    *proxy.Gateway
	rssHosts   proxy.AllowList
	imageHosts proxy.AllowList
	limiter    *ratelimit.Limiter
	store      storage.Store
	weather    Forecaster
	imagePfx   string
}

func New(opts Options) *Server {
	gw := opts.Gateway
	if gw == nil {
		gw = proxy.NewGateway(proxy.DefaultTimeout)
	}
	return &Server{
		news:       opts.News,
		gateway:    gw,
		rssHosts:   proxy.NewAllowList(opts.RSSHosts...),
		imageHosts: proxy.NewAllowList(opts.ImageHosts...),
		limiter:    opts.Limiter,
		store:      opts.Store,
		weather:    opts.Weather,
		imagePfx:   opts.ImageProxyPrefix,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /news", s.handleNews)
	mux.HandleFunc("POST /news/refresh", s.handleRefresh)
	mux.HandleFunc("GET /news/stats", s.handleStats)

	mux.Handle("GET /rss-proxy", s.limiter.Middleware(http.HandlerFunc(s.handleRSSProxy)))
	mux.Handle("GET /image-proxy", s.limiter.Middleware(http.HandlerFunc(s.handleImageProxy)))

	mux.HandleFunc("GET /messages", s.handleListMessages)
	mux.HandleFunc("POST /messages", s.handleCreateMessage)
	mux.HandleFunc("PUT /messages/{id}", s.handleUpdateMessage)
	mux.HandleFunc("DELETE /messages/{id}", s.handleDeleteMessage)

	mux.HandleFunc("GET /weather", s.handleWeather)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return requestID(recoverer(cors(accessLog(mux))))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorBody{
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: RequestID(r.Context()),
	})
}
