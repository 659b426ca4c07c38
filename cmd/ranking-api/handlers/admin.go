package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tastemap/ranking-engine/internal/observability"
)

// Rebuilder triggers a keyword index rebuild.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
	Len() int
}

// AdminHandler serves operational endpoints.
type AdminHandler struct {
	logger *observability.Logger
	index  Rebuilder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(logger *observability.Logger, index Rebuilder) *AdminHandler {
	return &AdminHandler{logger: logger, index: index}
}

// RebuildIndex handles POST /admin/index/rebuild.
func (h *AdminHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.index.Rebuild(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Index rebuild failed")
		writeError(w, http.StatusInternalServerError, "index rebuild failed", err.Error())
		return
	}

	elapsed := time.Since(start)
	h.logger.Info().Int("keywords", h.index.Len()).Dur("elapsed", elapsed).
		Msg("Index rebuild completed")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "rebuilt",
		"keywords":  h.index.Len(),
		"elapsedMs": elapsed.Milliseconds(),
	})
}
