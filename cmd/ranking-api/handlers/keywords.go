package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tastemap/ranking-engine/internal/observability"
)

const maxSuggestions = 10

// KeywordIndex is the index view the keyword handler reads.
type KeywordIndex interface {
	PrefixSearch(fragment string, limit int) []string
	Keys() []string
	Len() int
}

// Suggester supplements prefix matches with expanded keywords.
type Suggester interface {
	ExpandSentence(ctx context.Context, sentence string) []string
}

// KeywordHandler serves keyword autocomplete and listing.
type KeywordHandler struct {
	logger    *observability.Logger
	index     KeywordIndex
	suggester Suggester
}

// NewKeywordHandler creates a new keyword handler.
func NewKeywordHandler(logger *observability.Logger, index KeywordIndex, suggester Suggester) *KeywordHandler {
	return &KeywordHandler{logger: logger, index: index, suggester: suggester}
}

// KeywordsResponseDTO is the autocomplete response.
type KeywordsResponseDTO struct {
	Query    string   `json:"query,omitempty"`
	Keywords []string `json:"keywords"`
	Total    int      `json:"total"`
}

// Suggest handles GET /keywords. Without a query it lists the vocabulary;
// with one it merges index prefix matches with expansion output.
func (h *KeywordHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	if q == "" {
		keys := h.index.Keys()
		if len(keys) > maxSuggestions {
			keys = keys[:maxSuggestions]
		}
		writeJSON(w, http.StatusOK, KeywordsResponseDTO{
			Keywords: nonNil(keys),
			Total:    h.index.Len(),
		})
		return
	}

	suggestions := h.index.PrefixSearch(q, maxSuggestions)

	// Prefix misses get topped up from expansion, which also covers
	// vocabulary the index spells differently.
	if len(suggestions) < maxSuggestions && h.suggester != nil {
		seen := make(map[string]struct{}, len(suggestions))
		for _, s := range suggestions {
			seen[s] = struct{}{}
		}
		for _, kw := range h.suggester.ExpandSentence(r.Context(), q) {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			suggestions = append(suggestions, kw)
			if len(suggestions) >= maxSuggestions {
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, KeywordsResponseDTO{
		Query:    q,
		Keywords: nonNil(suggestions),
		Total:    len(suggestions),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
