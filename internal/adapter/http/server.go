package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/advisory"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Advisor is the resolver surface served over HTTP.
type Advisor interface {
	sharedobs.ReadinessChecker
	GetWeather(ctx context.Context, query string) (domain.Result[domain.WeatherAdvisory], error)
	GetSoil(ctx context.Context, query string) (domain.Result[domain.SoilAdvisory], error)
	GetCropRecommendations(ctx context.Context, query string) (domain.Result[[]domain.CropRecommendation], error)
	GetFarmProfile(ctx context.Context, query string) (advisory.FarmProfile, error)
	LastQuery(ctx context.Context, kind domain.Kind) (string, bool, error)
	History(ctx context.Context, kind domain.Kind, limit int) ([]domain.Resolution, error)
}

// Server exposes the advisory API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	advisor    Advisor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1 advisory routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, advisor Advisor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		advisor: advisor,
		logger:  logger,
	}

	mux.HandleFunc("GET /v1/weather", s.handleWeather)
	mux.HandleFunc("GET /v1/soil", s.handleSoil)
	mux.HandleFunc("GET /v1/crops", s.handleCrops)
	mux.HandleFunc("GET /v1/farm", s.handleFarm)
	mux.HandleFunc("GET /v1/last/{kind}", s.handleLast)
	mux.HandleFunc("GET /v1/history/{kind}", s.handleHistory)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(advisor))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	res, err := s.advisor.GetWeather(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewWeatherReport(res))
}

func (s *Server) handleSoil(w http.ResponseWriter, r *http.Request) {
	res, err := s.advisor.GetSoil(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCrops(w http.ResponseWriter, r *http.Request) {
	res, err := s.advisor.GetCropRecommendations(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFarm(w http.ResponseWriter, r *http.Request) {
	p, err := s.advisor.GetFarmProfile(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	q, ok, err := s.advisor.LastQuery(r.Context(), kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no " + string(kind) + " query recorded yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "query": q})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
	}
	records, err := s.advisor.History(r.Context(), kind, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.Resolution{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "resolutions": records})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, advisory.ErrHistoryDisabled):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
