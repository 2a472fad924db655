// Package rest is the HTTP interface over the catalog service and the
// re-analysis orchestrator.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/services"
	"github.com/Shima-Rai/melixa/internal/reanalyze"
)

// Reanalyzer runs a full catalog re-analysis pass.
type Reanalyzer interface {
	Run(ctx context.Context) (reanalyze.Report, error)
}

// HealthChecker probes the remote extractor.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler routes HTTP requests to the core services.
type Handler struct {
	catalog    *services.Catalog
	reanalyzer Reanalyzer
	extractor  HealthChecker
	router     chi.Router
	logger     zerolog.Logger
}

// NewHandler wires the routes.
func NewHandler(catalog *services.Catalog, reanalyzer Reanalyzer, extractor HealthChecker, logger zerolog.Logger) *Handler {
	h := &Handler{
		catalog:    catalog,
		reanalyzer: reanalyzer,
		extractor:  extractor,
		router:     chi.NewRouter(),
		logger:     logger.With().Str("component", "rest").Logger(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(middleware.Recoverer)

	h.router.Get("/health", h.health)
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/tracks", h.listTracks)
		r.Get("/tracks/{id}", h.getTrack)
		r.Get("/tracks/{id}/similar", h.similarTracks)
		r.Post("/tracks/{id}/play", h.recordPlay)
		r.Get("/insights", h.insights)
		r.Post("/reanalyze", h.reanalyzeCatalog)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "extractor": "ok"}
	code := http.StatusOK
	if h.extractor != nil {
		if err := h.extractor.Health(r.Context()); err != nil {
			status["extractor"] = err.Error()
			// The API itself is still up; degraded, not down.
		}
	}
	h.respond(w, code, status)
}

func (h *Handler) listTracks(w http.ResponseWriter, r *http.Request) {
	recs, err := h.catalog.Tracks(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"tracks": recs, "count": len(recs)})
}

func (h *Handler) getTrack(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, rec)
}

func (h *Handler) similarTracks(w http.ResponseWriter, r *http.Request) {
	opts, err := parseRecommendOptions(r)
	if err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	recs, err := h.catalog.SimilarTracks(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

func (h *Handler) recordPlay(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.RecordPlay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int{"playCount": count})
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	summary, err := h.catalog.Insights(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, summary)
}

func (h *Handler) reanalyzeCatalog(w http.ResponseWriter, r *http.Request) {
	report, err := h.reanalyzer.Run(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

func parseRecommendOptions(r *http.Request) (domain.RecommendOptions, error) {
	var opts domain.RecommendOptions
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.Limit = limit
	}
	if raw := q.Get("min_similarity"); raw != "" {
		min, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("min_similarity must be a number")
		}
		opts.MinSimilarity = min
	}
	if raw := q.Get("same_mood"); raw != "" {
		sameMood, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New("same_mood must be a boolean")
		}
		opts.SameMoodOnly = sameMood
	}
	if raw := q.Get("exclude"); raw != "" {
		opts.ExcludeIDs = map[string]struct{}{}
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.ExcludeIDs[id] = struct{}{}
			}
		}
	}

	return opts, nil
}

func (h *Handler) respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.respond(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &verr):
		h.respond(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Error()})
	default:
		h.logger.Error().Err(err).Msg("request failed")
		h.respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
