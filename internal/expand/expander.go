// Package expand resolves unrecognized query terms into indexed keywords,
// using an LLM as a best-effort enhancement with deterministic local
// fallbacks.
package expand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tastemap/ranking-engine/internal/cache"
	"github.com/tastemap/ranking-engine/internal/llm"
	"github.com/tastemap/ranking-engine/internal/observability"
)

// Mode selects the expansion entry point.
type Mode string

const (
	// ModeSentence expands a free-text sentence. The model may invent
	// keywords that are not in the index.
	ModeSentence Mode = "sentence"
	// ModeUnknown expands keywords absent from the index. The result is
	// filtered to keywords the index can resolve, so the ranking engine is
	// never handed vocabulary without restaurants behind it.
	ModeUnknown Mode = "unknown"
)

// errUnusableResponse marks a completion that produced no usable keywords.
var errUnusableResponse = errors.New("unusable completion response")

// KeywordSource is the index view the expander reads.
type KeywordSource interface {
	Search(fragment string, limit int) []string
	Contains(keyword string) bool
}

// Config holds expansion settings.
type Config struct {
	// MaxReturn bounds the number of keywords returned.
	MaxReturn int
	// CandidateLimit caps the candidate vocabulary sent to the model.
	CandidateLimit int
	// CacheTTL bounds staleness of cached expansions.
	CacheTTL time.Duration
	// CacheNamespace prefixes cache keys.
	CacheNamespace string
}

// DefaultConfig returns default expansion settings.
func DefaultConfig() Config {
	return Config{
		MaxReturn:      5,
		CandidateLimit: 50,
		CacheTTL:       time.Hour,
		CacheNamespace: "gpt:keywords",
	}
}

// Expander turns free text or unknown keywords into indexed keywords.
type Expander struct {
	logger    *observability.Logger
	cache     cache.Client
	completer llm.Completer
	source    KeywordSource
	config    Config
}

// New creates a keyword expander.
func New(logger *observability.Logger, cacheClient cache.Client, completer llm.Completer, source KeywordSource, cfg Config) *Expander {
	if cfg.MaxReturn <= 0 {
		cfg.MaxReturn = 5
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 50
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.CacheNamespace == "" {
		cfg.CacheNamespace = "gpt:keywords"
	}

	return &Expander{
		logger:    logger,
		cache:     cacheClient,
		completer: completer,
		source:    source,
		config:    cfg,
	}
}

// ExpandSentence expands a free-text sentence into up to MaxReturn keywords.
// The result may contain keywords not present in the index.
func (e *Expander) ExpandSentence(ctx context.Context, sentence string) []string {
	return e.expand(ctx, ModeSentence, sentence)
}

// ExpandUnknown expands keywords the index could not resolve, joined into a
// single term string. The result only contains keywords the index knows.
func (e *Expander) ExpandUnknown(ctx context.Context, terms string) []string {
	return e.expand(ctx, ModeUnknown, terms)
}

// strategy is one step of the ordered fallback policy. Each step either
// yields a usable keyword list or an error that sends the pipeline to the
// next step.
type strategy struct {
	name string
	run  func(ctx context.Context, input string) ([]string, error)
}

// strategies returns the fallback chain: LLM first, local substring search
// second. The final all-failed outcome is an empty list.
func (e *Expander) strategies() []strategy {
	return []strategy{
		{name: "llm", run: e.completeKeywords},
		{name: "index-substring", run: e.localSearch},
	}
}

func (e *Expander) expand(ctx context.Context, mode Mode, input string) []string {
	normalized := strings.TrimSpace(input)
	if normalized == "" {
		return nil
	}

	cacheKey := cache.Key(e.config.CacheNamespace, string(mode), normalized)
	if cached, ok := e.cacheGet(ctx, cacheKey); ok {
		e.logger.Debug().Str("key", cacheKey).Msg("Expansion cache hit")
		return cached
	}

	var keywords []string
	for _, s := range e.strategies() {
		result, err := s.run(ctx, normalized)
		if err != nil {
			e.logger.Warn().Err(err).Str("strategy", s.name).Str("input", normalized).
				Msg("Expansion strategy failed, trying next")
			continue
		}
		if len(result) > 0 {
			keywords = result
			break
		}
	}

	if mode == ModeUnknown {
		keywords = e.filterKnown(keywords)
	}

	keywords = dedupeKeywords(keywords, e.config.MaxReturn)

	e.cacheSet(ctx, cacheKey, keywords)

	return keywords
}

// completeKeywords asks the model to pick related keywords from a candidate
// vocabulary derived from the index.
func (e *Expander) completeKeywords(ctx context.Context, input string) ([]string, error) {
	system := "You are a food and restaurant keyword mapper."
	prompt := e.buildPrompt(input)

	raw, err := e.completer.Complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}

	keywords := ParseKeywordResponse(raw)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: raw=%q", errUnusableResponse, raw)
	}
	return keywords, nil
}

// localSearch is the deterministic fallback: substring search over the index.
func (e *Expander) localSearch(_ context.Context, input string) ([]string, error) {
	return e.candidates(input, e.config.MaxReturn), nil
}

// buildPrompt assembles the model prompt from the candidate vocabulary.
func (e *Expander) buildPrompt(input string) string {
	candidates := e.candidates(input, e.config.CandidateLimit)
	candidateJSON, err := json.Marshal(candidates)
	if err != nil {
		candidateJSON = []byte("[]")
	}

	return strings.Join([]string{
		"From the candidate keyword list below, choose the 1-5 keywords most related to the user input and output them as a JSON array.",
		"If the input itself appears in the list, you may select it directly.",
		"If nothing in the list is relevant, you may invent closely related new keywords.",
		`You must return only a JSON array, e.g. ["keyword1", "keyword2"].`,
		"Candidates: " + string(candidateJSON),
		fmt.Sprintf("User input: %q", input),
	}, "\n")
}

// candidates builds the candidate vocabulary. Any internal failure degrades
// to an empty list rather than aborting expansion.
func (e *Expander) candidates(input string, limit int) []string {
	if e.source == nil {
		return nil
	}
	return e.source.Search(input, limit)
}

// filterKnown drops keywords the index cannot resolve.
func (e *Expander) filterKnown(keywords []string) []string {
	if e.source == nil {
		return nil
	}

	var out []string
	for _, kw := range keywords {
		if e.source.Contains(kw) {
			out = append(out, kw)
		}
	}
	return out
}

func (e *Expander) cacheGet(ctx context.Context, key string) ([]string, bool) {
	if e.cache == nil {
		return nil, false
	}

	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Str("key", key).Msg("Expansion cache read failed")
		}
		return nil, false
	}

	var keywords []string
	if err := json.Unmarshal(data, &keywords); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("Corrupt expansion cache entry")
		return nil, false
	}
	return keywords, true
}

func (e *Expander) cacheSet(ctx context.Context, key string, keywords []string) {
	if e.cache == nil {
		return
	}

	data, err := json.Marshal(keywords)
	if err != nil {
		return
	}

	if err := e.cache.Set(ctx, key, data, e.config.CacheTTL); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("Expansion cache write failed")
	}
}
