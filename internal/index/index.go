// Package index maintains the in-memory keyword to restaurant-id inverted index.
//
// The index is a full-replace structure: Rebuild constructs a brand-new
// mapping and publishes it with a single atomic pointer swap, so in-flight
// readers never observe a partially populated map. Readers that need a
// consistent view across several lookups take a Snapshot once and use it
// throughout the operation.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/storage"
)

// Lister provides the restaurant records the index is rebuilt from.
type Lister interface {
	FindAll(ctx context.Context) ([]storage.Restaurant, error)
}

// Index owns the active keyword map and its rebuild lifecycle.
type Index struct {
	logger   *observability.Logger
	store    Lister
	snapshot atomic.Pointer[Snapshot]
}

// Snapshot is one immutable generation of the keyword map.
type Snapshot struct {
	byKeyword map[string][]int64
	keys      []string // sorted, for stable iteration within one generation
}

// New creates an index with an empty active snapshot.
func New(logger *observability.Logger, store Lister) *Index {
	idx := &Index{
		logger: logger,
		store:  store,
	}
	idx.snapshot.Store(emptySnapshot())
	return idx
}

func emptySnapshot() *Snapshot {
	return &Snapshot{byKeyword: map[string][]int64{}}
}

// Rebuild reads all restaurants and swaps in a freshly built keyword map.
// A store failure leaves the previously active snapshot untouched.
func (i *Index) Rebuild(ctx context.Context) error {
	restaurants, err := i.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}

	byKeyword := make(map[string][]int64)
	seen := make(map[string]map[int64]struct{})

	for _, r := range restaurants {
		for _, keyword := range ParseKeywordField(r.KeywordsRaw) {
			if seen[keyword] == nil {
				seen[keyword] = make(map[int64]struct{})
			}
			if _, dup := seen[keyword][r.ID]; dup {
				continue
			}
			seen[keyword][r.ID] = struct{}{}
			byKeyword[keyword] = append(byKeyword[keyword], r.ID)
		}
	}

	keys := make([]string, 0, len(byKeyword))
	for k := range byKeyword {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	i.snapshot.Store(&Snapshot{byKeyword: byKeyword, keys: keys})

	i.logger.Info().
		Int("restaurants", len(restaurants)).
		Int("keywords", len(keys)).
		Msg("Keyword index rebuilt")

	return nil
}

// Snapshot returns the active keyword map generation.
func (i *Index) Snapshot() *Snapshot {
	return i.snapshot.Load()
}

// LookupExact returns the restaurant ids for an exact keyword on the active snapshot.
func (i *Index) LookupExact(keyword string) []int64 {
	return i.Snapshot().LookupExact(keyword)
}

// Contains reports whether the keyword exists on the active snapshot.
func (i *Index) Contains(keyword string) bool {
	return i.Snapshot().Contains(keyword)
}

// Search returns up to limit keywords containing the fragment, on the active snapshot.
func (i *Index) Search(fragment string, limit int) []string {
	return i.Snapshot().Search(fragment, limit)
}

// PrefixSearch returns up to limit keywords starting with the fragment, on the active snapshot.
func (i *Index) PrefixSearch(fragment string, limit int) []string {
	return i.Snapshot().PrefixSearch(fragment, limit)
}

// Keys returns all indexed keywords on the active snapshot.
func (i *Index) Keys() []string {
	return i.Snapshot().Keys()
}

// Len returns the number of indexed keywords on the active snapshot.
func (i *Index) Len() int {
	return i.Snapshot().Len()
}

// LookupExact returns the restaurant ids for an exact (trimmed) keyword.
// Unknown keywords yield an empty set.
func (s *Snapshot) LookupExact(keyword string) []int64 {
	return s.byKeyword[strings.TrimSpace(keyword)]
}

// Contains reports whether the (trimmed) keyword is indexed.
func (s *Snapshot) Contains(keyword string) bool {
	_, ok := s.byKeyword[strings.TrimSpace(keyword)]
	return ok
}

// Search returns up to limit keywords containing the fragment,
// case-insensitively. Iteration order is stable within one snapshot.
func (s *Snapshot) Search(fragment string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" || limit <= 0 {
		return nil
	}

	var hits []string
	for _, k := range s.keys {
		if strings.Contains(strings.ToLower(k), needle) {
			hits = append(hits, k)
			if len(hits) >= limit {
				break
			}
		}
	}
	return hits
}

// PrefixSearch returns up to limit keywords starting with the fragment,
// case-insensitively.
func (s *Snapshot) PrefixSearch(fragment string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" || limit <= 0 {
		return nil
	}

	var hits []string
	for _, k := range s.keys {
		if strings.HasPrefix(strings.ToLower(k), needle) {
			hits = append(hits, k)
			if len(hits) >= limit {
				break
			}
		}
	}
	return hits
}

// Keys returns all indexed keywords in sorted order.
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of indexed keywords.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// ParseKeywordField tolerantly parses a stored keyword field. It accepts a
// JSON-encoded array string or a comma-separated string; anything
// unparsable or empty yields an empty list, never an error.
func ParseKeywordField(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		var out []string
		for _, v := range parsed {
			s := strings.TrimSpace(fmt.Sprint(v))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		s := strings.TrimSpace(part)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
