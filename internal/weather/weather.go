// Package weather serves a short daily forecast from the open-meteo API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deusflow/newsboard/internal/cache"
	"github.com/deusflow/newsboard/internal/logger"
)

const (
	DefaultBaseURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultTimezone = "America/Sao_Paulo"
	DefaultTTL      = 2 * time.Hour

	cacheKey = "weather"
)

type Day struct {
	Date           string `json:"date"`
	DateFormatted  string `json:"dateFormatted"`
	DayName        string `json:"dayName"`
	TemperatureMax int    `json:"temperatureMax"`
	TemperatureMin int    `json:"temperatureMin"`
	WeatherCode    int    `json:"weatherCode"`
	Description    string `json:"weatherDescription"`
	Icon           string `json:"weatherIcon"`
}

type Forecast struct {
	Location    string    `json:"location"`
	Days        []Day     `json:"days"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type Config struct {
	Latitude  float64
	Longitude float64
	Location  string
	Days      int
	TTL       time.Duration
	Timezone  string
	BaseURL   string
}

// Service fetches the forecast and keeps it cached for TTL. When the API
// fails, an expired forecast is served instead.
type Service struct {
	cfg    Config
	client *http.Client
	cache  *cache.Cache[Forecast]
	now    func() time.Time
}

func NewService(cfg Config, client *http.Client) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Days <= 0 {
		cfg.Days = 2
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Service{
		cfg:    cfg,
		client: client,
		cache:  cache.New[Forecast](24 * time.Hour),
		now:    time.Now,
	}
}

func (s *Service) Close() {
	s.cache.Close()
}

func (s *Service) Forecast(ctx context.Context) (Forecast, error) {
	if f, ok := s.cache.Get(cacheKey); ok {
		logger.Debug("weather served from cache")
		return f, nil
	}

	f, err := s.fetch(ctx)
	if err != nil {
		if stale, ok := s.cache.Stale(cacheKey); ok {
			logger.Warn("weather fetch failed, serving stale forecast", "error", err)
			return stale, nil
		}
		return Forecast{}, err
	}

	s.cache.Set(cacheKey, f, s.cfg.TTL)
	return f, nil
}

type apiResponse struct {
	Daily struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WeatherCode    []int     `json:"weathercode"`
	} `json:"daily"`
}

func (s *Service) requestURL() string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(s.cfg.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(s.cfg.Longitude, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode")
	q.Set("timezone", s.cfg.Timezone)
	q.Set("forecast_days", strconv.Itoa(s.cfg.Days))
	return s.cfg.BaseURL + "?" + q.Encode()
}

func (s *Service) fetch(ctx context.Context) (Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return Forecast{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	d := data.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) < n || len(d.TemperatureMin) < n || len(d.WeatherCode) < n {
		return Forecast{}, fmt.Errorf("weather response has mismatched daily arrays")
	}

	days := make([]Day, 0, n)
	for i, date := range d.Time {
		info := Describe(d.WeatherCode[i])
		days = append(days, Day{
			Date:           date,
			DateFormatted:  formatDate(date),
			DayName:        dayName(date, i),
			TemperatureMax: roundHalfUp(d.TemperatureMax[i]),
			TemperatureMin: roundHalfUp(d.TemperatureMin[i]),
			WeatherCode:    d.WeatherCode[i],
			Description:    info.Description,
			Icon:           info.Icon,
		})
	}

	logger.Info("weather forecast updated", "days", len(days), "location", s.cfg.Location)
	return Forecast{
		Location:    s.cfg.Location,
		Days:        days,
		LastUpdated: s.now().UTC(),
	}, nil
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func formatDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("02/01")
}

var weekdays = [...]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

func dayName(date string, index int) string {
	switch index {
	case 0:
		return "Hoje"
	case 1:
		return "Amanhã"
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return weekdays[t.Weekday()]
}
