package ranking

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tastemap/ranking-engine/internal/index"
	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/storage"
)

// noKeywordsMessage is returned when a query resolves to zero keywords.
// This is a well-formed empty result, not an error.
const noKeywordsMessage = "no usable keywords could be resolved for this query"

// Expander resolves unrecognized terms into indexed keywords.
type Expander interface {
	ExpandSentence(ctx context.Context, sentence string) []string
	ExpandUnknown(ctx context.Context, terms string) []string
}

// RestaurantStore provides candidate restaurant records.
type RestaurantStore interface {
	FindByIDs(ctx context.Context, ids []int64) ([]storage.Restaurant, error)
	FindByKeywordSubstring(ctx context.Context, text string) ([]storage.Restaurant, error)
}

// Weights are the composite-score coefficients. They are free-floating
// constants with no normalization; callers tune them to comparable scales.
type Weights struct {
	Match     float64
	Total     float64
	Review    float64
	Sentiment float64
}

// DefaultWeights returns the development defaults.
func DefaultWeights() Weights {
	return Weights{
		Match:     2.0,
		Total:     0.5,
		Review:    0.005,
		Sentiment: 1.0,
	}
}

// Config holds engine settings.
type Config struct {
	Weights Weights
	TopN    int
}

// Engine orchestrates keyword resolution, candidate gathering, scoring, and
// sorting. Safe for concurrent use; each Rank call reads one index snapshot
// throughout.
type Engine struct {
	logger   *observability.Logger
	index    *index.Index
	expander Expander
	store    RestaurantStore
	config   Config
}

// NewEngine creates a ranking engine.
func NewEngine(logger *observability.Logger, idx *index.Index, expander Expander, store RestaurantStore, cfg Config) *Engine {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}

	return &Engine{
		logger:   logger,
		index:    idx,
		expander: expander,
		store:    store,
		config:   cfg,
	}
}

// Rank resolves the query's keywords, gathers candidates, scores, filters,
// and sorts them into a stable top-N. A store failure is a hard error; every
// other degradation yields a well-formed (possibly empty) result.
func (e *Engine) Rank(ctx context.Context, query Query) (*Result, error) {
	log := e.logger.WithContext(ctx)

	// One snapshot for the whole operation: a rebuild completing mid-query
	// must not mix generations.
	snap := e.index.Snapshot()

	resolved := e.resolveKeywords(ctx, snap, query)

	meta := Meta{
		QueryID:          uuid.NewString(),
		Sentence:         strings.TrimSpace(query.Sentence),
		Keywords:         query.Keywords,
		ResolvedKeywords: resolved,
		Position:         query.Position,
		RadiusKm:         query.RadiusKm,
	}

	if len(resolved) == 0 {
		meta.Message = noKeywordsMessage
		log.Info().Str("sentence", meta.Sentence).Strs("keywords", query.Keywords).
			Msg("Query resolved to zero keywords")
		return &Result{Meta: meta, Candidates: []Candidate{}}, nil
	}

	candidates, err := e.gatherCandidates(ctx, snap, meta.Sentence, resolved)
	if err != nil {
		return nil, err
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, r := range candidates {
		scored = append(scored, e.score(&r, resolved, query.Position))
	}

	scored = e.filterByRadius(scored, query)
	e.sortCandidates(scored)

	if len(scored) > e.config.TopN {
		scored = scored[:e.config.TopN]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}

	meta.ResultCount = len(scored)

	log.Info().
		Strs("resolved_keywords", resolved).
		Int("candidates", len(candidates)).
		Int("results", len(scored)).
		Msg("Ranking query completed")

	return &Result{Meta: meta, Candidates: scored}, nil
}

// resolveKeywords turns the query's sentence or keyword list into indexed
// keywords. Explicit keywords are partitioned against the snapshot; only the
// unknown ones go to the expander.
func (e *Engine) resolveKeywords(ctx context.Context, snap *index.Snapshot, query Query) []string {
	var explicit []string
	for _, k := range query.Keywords {
		if s := strings.TrimSpace(k); s != "" {
			explicit = append(explicit, s)
		}
	}

	if len(explicit) > 0 {
		var known, unknown []string
		for _, k := range explicit {
			if len(snap.LookupExact(k)) > 0 {
				known = append(known, k)
			} else {
				unknown = append(unknown, k)
			}
		}

		resolved := known
		if len(unknown) > 0 {
			expanded := e.expander.ExpandUnknown(ctx, strings.Join(unknown, ", "))
			resolved = append(resolved, expanded...)
		}
		return dedupe(resolved)
	}

	if sentence := strings.TrimSpace(query.Sentence); sentence != "" {
		return dedupe(e.expander.ExpandSentence(ctx, sentence))
	}

	return nil
}

// gatherCandidates unions the id buckets of every resolved keyword and loads
// the records. An empty id set with a raw sentence falls back to a direct
// substring match against the stored keyword text.
func (e *Engine) gatherCandidates(ctx context.Context, snap *index.Snapshot, sentence string, resolved []string) ([]storage.Restaurant, error) {
	idSet := make(map[int64]struct{})
	for _, kw := range resolved {
		for _, id := range snap.LookupExact(kw) {
			idSet[id] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	var candidates []storage.Restaurant
	if len(ids) > 0 {
		var err error
		candidates, err = e.store.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
	}

	if len(candidates) == 0 && sentence != "" {
		var err error
		candidates, err = e.store.FindByKeywordSubstring(ctx, sentence)
		if err != nil {
			return nil, fmt.Errorf("keyword substring fallback: %w", err)
		}
	}

	return candidates, nil
}

// score computes the match, distance, and composite signals for one candidate.
func (e *Engine) score(r *storage.Restaurant, resolved []string, position *Position) Candidate {
	restaurantKeywords := index.ParseKeywordField(r.KeywordsRaw)
	matchScore, matched := matchKeywords(restaurantKeywords, resolved)

	var distanceKm *float64
	var coordinates *Position
	if r.HasPosition() {
		coordinates = &Position{Lat: *r.Lat, Lon: *r.Lon}
		if position != nil {
			d := Haversine(*position, *coordinates)
			distanceKm = &d
		}
	}

	w := e.config.Weights
	composite := float64(matchScore)*w.Match +
		r.TotalScore*w.Total +
		float64(r.ReviewCount)*w.Review +
		r.SentimentScore*w.Sentiment

	return Candidate{
		RestaurantID:    r.ID,
		Name:            r.Name,
		Address:         r.Address,
		MapURL:          mapURL(r),
		RelatedKeywords: restaurantKeywords,
		MatchedKeywords: matched,
		MatchScore:      matchScore,
		TotalScore:      r.TotalScore,
		ReviewCount:     r.ReviewCount,
		SentimentScore:  r.SentimentScore,
		NaverScore:      r.NaverScore,
		CompositeScore:  composite,
		Coordinates:     coordinates,
		DistanceKm:      distanceKm,
	}
}

// matchKeywords counts query keywords satisfied by the candidate's own
// keyword set. A hit is an exact match or a substring relationship in either
// direction; the over-matching tolerates partial and compound keyword
// strings.
func matchKeywords(restaurantKeywords, queryKeywords []string) (int, []string) {
	set := make(map[string]struct{}, len(restaurantKeywords))
	trimmed := make([]string, 0, len(restaurantKeywords))
	for _, rk := range restaurantKeywords {
		s := strings.TrimSpace(rk)
		set[s] = struct{}{}
		trimmed = append(trimmed, s)
	}

	score := 0
	matched := []string{}
	for _, qk := range queryKeywords {
		k := strings.TrimSpace(qk)
		hit := false
		if _, ok := set[k]; ok {
			hit = true
		} else {
			for _, rk := range trimmed {
				if strings.Contains(rk, k) || strings.Contains(k, rk) {
					hit = true
					break
				}
			}
		}
		if hit {
			score++
			matched = append(matched, k)
		}
	}
	return score, matched
}

// filterByRadius drops candidates without a distance or beyond the radius,
// when both a radius and a user position were supplied.
func (e *Engine) filterByRadius(candidates []Candidate, query Query) []Candidate {
	if query.RadiusKm == nil || query.Position == nil {
		return candidates
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.DistanceKm != nil && *c.DistanceKm <= *query.RadiusKm {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// sortCandidates orders by composite score descending, breaking ties by
// distance ascending with unknown distances last. The sort is stable, so
// remaining ties keep the deterministic id order of gathering.
func (e *Engine) sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].CompositeScore != candidates[b].CompositeScore {
			return candidates[a].CompositeScore > candidates[b].CompositeScore
		}
		da := math.Inf(1)
		if candidates[a].DistanceKm != nil {
			da = *candidates[a].DistanceKm
		}
		db := math.Inf(1)
		if candidates[b].DistanceKm != nil {
			db = *candidates[b].DistanceKm
		}
		return da < db
	})
}

// mapURL derives the Kakao map deep link for a restaurant with coordinates.
func mapURL(r *storage.Restaurant) string {
	if !r.HasPosition() {
		return ""
	}
	return fmt.Sprintf("https://map.kakao.com/link/to/%s,%v,%v",
		url.PathEscape(r.Name), *r.Lat, *r.Lon)
}

func dedupe(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	var out []string
	for _, k := range keywords {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
