package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/ranking"
)

type fakeRanker struct {
	lastQuery ranking.Query
	result    *ranking.Result
	err       error
}

func (f *fakeRanker) Rank(ctx context.Context, query ranking.Query) (*ranking.Result, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleResult() *ranking.Result {
	return &ranking.Result{
		Meta: ranking.Meta{QueryID: "test-id", ResolvedKeywords: []string{"삼겹살"}, ResultCount: 1},
		Candidates: []ranking.Candidate{
			{Rank: 1, RestaurantID: 1, Name: "신선삼겹살집", MatchScore: 1, CompositeScore: 8.0},
		},
	}
}

func TestSearchPost(t *testing.T) {
	ranker := &fakeRanker{result: sampleResult()}
	h := NewSearchHandler(observability.Nop(), ranker)

	body := `{"keywords": ["삼겹살"], "position": {"lat": 37.5, "lon": 127.0}, "radiusKm": 3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search/places/keyword", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, []string{"삼겹살"}, ranker.lastQuery.Keywords)
	require.NotNil(t, ranker.lastQuery.Position)
	assert.Equal(t, 37.5, ranker.lastQuery.Position.Lat)
	require.NotNil(t, ranker.lastQuery.RadiusKm)
	assert.Equal(t, 3.0, *ranker.lastQuery.RadiusKm)

	var got ranking.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "test-id", got.Meta.QueryID)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "신선삼겹살집", got.Candidates[0].Name)
}

func TestSearchPostSentence(t *testing.T) {
	ranker := &fakeRanker{result: sampleResult()}
	h := NewSearchHandler(observability.Nop(), ranker)

	req := httptest.NewRequest(http.MethodPost, "/v1/search/places/keyword",
		strings.NewReader(`{"sentence": "신선한 고기"}`))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "신선한 고기", ranker.lastQuery.Sentence)
	assert.Nil(t, ranker.lastQuery.Position)
}

func TestSearchPostValidation(t *testing.T) {
	h := NewSearchHandler(observability.Nop(), &fakeRanker{result: sampleResult()})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"keywords": [`},
		{"empty query", `{}`},
		{"blank sentence", `{"sentence": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/search/places/keyword", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Search(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearchPostEngineError(t *testing.T) {
	h := NewSearchHandler(observability.Nop(), &fakeRanker{err: errors.New("store down")})

	req := httptest.NewRequest(http.MethodPost, "/v1/search/places/keyword",
		strings.NewReader(`{"keywords": ["삼겹살"]}`))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ranking query failed")
}

func TestSearchByQuery(t *testing.T) {
	ranker := &fakeRanker{result: sampleResult()}
	h := NewSearchHandler(observability.Nop(), ranker)

	req := httptest.NewRequest(http.MethodGet,
		"/v1/search/places?keywords=%EC%82%BC%EA%B2%B9%EC%82%B4,%EA%B5%AD%EB%B0%A5&lat=37.5&lon=127.0&range=2.5", nil)
	rec := httptest.NewRecorder()

	h.SearchByQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"삼겹살", "국밥"}, ranker.lastQuery.Keywords)
	require.NotNil(t, ranker.lastQuery.Position)
	assert.Equal(t, 127.0, ranker.lastQuery.Position.Lon)
	require.NotNil(t, ranker.lastQuery.RadiusKm)
	assert.Equal(t, 2.5, *ranker.lastQuery.RadiusKm)
	assert.Empty(t, ranker.lastQuery.Sentence)
}

func TestSearchByQueryValidation(t *testing.T) {
	h := NewSearchHandler(observability.Nop(), &fakeRanker{result: sampleResult()})

	tests := []struct {
		name string
		url  string
	}{
		{"missing keywords", "/v1/search/places"},
		{"blank keywords", "/v1/search/places?keywords=%20,%20"},
		{"bad lat", "/v1/search/places?keywords=a&lat=abc&lon=127.0"},
		{"negative range", "/v1/search/places?keywords=a&range=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			h.SearchByQuery(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearchByQueryLatWithoutLonIgnored(t *testing.T) {
	ranker := &fakeRanker{result: sampleResult()}
	h := NewSearchHandler(observability.Nop(), ranker)

	req := httptest.NewRequest(http.MethodGet, "/v1/search/places?keywords=a&lat=37.5", nil)
	rec := httptest.NewRecorder()

	h.SearchByQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ranker.lastQuery.Position)
}
