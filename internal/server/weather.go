package server

import (
	"net/http"

	"github.com/deusflow/newsboard/internal/logger"
)

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	f, err := s.weather.Forecast(r.Context())
	if err != nil {
		logger.Error("weather unavailable", "error", err)
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}
