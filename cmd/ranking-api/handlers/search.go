// Package handlers provides HTTP handlers for the ranking API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/ranking"
)

// Ranker runs ranking queries.
type Ranker interface {
	Rank(ctx context.Context, query ranking.Query) (*ranking.Result, error)
}

// SearchHandler handles place search requests.
type SearchHandler struct {
	logger *observability.Logger
	engine Ranker
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, engine Ranker) *SearchHandler {
	return &SearchHandler{logger: logger, engine: engine}
}

// SearchRequestDTO is the body of POST /search/places/keyword.
type SearchRequestDTO struct {
	Sentence string       `json:"sentence,omitempty"`
	Keywords []string     `json:"keywords,omitempty"`
	Position *PositionDTO `json:"position,omitempty"`
	RadiusKm *float64     `json:"radiusKm,omitempty"`
}

// PositionDTO is a coordinate pair in a request.
type PositionDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Search handles POST /search/places/keyword.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var reqDTO SearchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(reqDTO.Sentence) == "" && len(reqDTO.Keywords) == 0 {
		writeError(w, http.StatusBadRequest, "sentence or keywords is required", "")
		return
	}

	query := ranking.Query{
		Sentence: reqDTO.Sentence,
		Keywords: reqDTO.Keywords,
		RadiusKm: reqDTO.RadiusKm,
	}
	if reqDTO.Position != nil {
		query.Position = &ranking.Position{Lat: reqDTO.Position.Lat, Lon: reqDTO.Position.Lon}
	}

	h.run(w, r, query)
}

// SearchByQuery handles GET /search/places. It is the fast path: explicit
// keywords only, no free-text sentence.
func (h *SearchHandler) SearchByQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var keywords []string
	for _, part := range strings.Split(q.Get("keywords"), ",") {
		if s := strings.TrimSpace(part); s != "" {
			keywords = append(keywords, s)
		}
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "keywords query parameter is required", "")
		return
	}

	query := ranking.Query{Keywords: keywords}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			writeError(w, http.StatusBadRequest, "invalid lat/lon", "")
			return
		}
		query.Position = &ranking.Position{Lat: lat, Lon: lon}
	}

	if rangeStr := q.Get("range"); rangeStr != "" {
		radius, err := strconv.ParseFloat(rangeStr, 64)
		if err != nil || radius < 0 {
			writeError(w, http.StatusBadRequest, "invalid range", "")
			return
		}
		query.RadiusKm = &radius
	}

	h.run(w, r, query)
}

func (h *SearchHandler) run(w http.ResponseWriter, r *http.Request, query ranking.Query) {
	result, err := h.engine.Rank(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ranking query failed")
		writeError(w, http.StatusInternalServerError, "ranking query failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
