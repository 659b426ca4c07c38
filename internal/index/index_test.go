package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastemap/ranking-engine/internal/observability"
	"github.com/tastemap/ranking-engine/internal/storage"
)

type fakeLister struct {
	restaurants []storage.Restaurant
	err         error
}

func (f *fakeLister) FindAll(ctx context.Context) ([]storage.Restaurant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.restaurants, nil
}

func testRestaurants() []storage.Restaurant {
	return []storage.Restaurant{
		{ID: 1, Name: "신선삼겹살", KeywordsRaw: `["삼겹살", "신선", " 고기 "]`},
		{ID: 2, Name: "부산삼겹살", KeywordsRaw: `삼겹살, 국밥`},
		{ID: 3, Name: "데이터없음", KeywordsRaw: ""},
		{ID: 4, Name: "망가진데이터", KeywordsRaw: `{"not":"an array"`},
	}
}

func TestRebuildAndLookupExact(t *testing.T) {
	idx := New(observability.Nop(), &fakeLister{restaurants: testRestaurants()})
	require.NoError(t, idx.Rebuild(context.Background()))

	assert.ElementsMatch(t, []int64{1, 2}, idx.LookupExact("삼겹살"))
	assert.ElementsMatch(t, []int64{1}, idx.LookupExact("신선"))
	assert.ElementsMatch(t, []int64{2}, idx.LookupExact("국밥"))

	// Keywords are trimmed on both sides.
	assert.ElementsMatch(t, []int64{1}, idx.LookupExact(" 고기 "))
	assert.ElementsMatch(t, []int64{1}, idx.LookupExact("고기"))

	assert.Empty(t, idx.LookupExact("없는키워드"))
}

func TestRebuildDeduplicatesIDs(t *testing.T) {
	lister := &fakeLister{restaurants: []storage.Restaurant{
		{ID: 7, KeywordsRaw: `["삼겹살", "삼겹살", " 삼겹살 "]`},
	}}
	idx := New(observability.Nop(), lister)
	require.NoError(t, idx.Rebuild(context.Background()))

	assert.Equal(t, []int64{7}, idx.LookupExact("삼겹살"))
	assert.Equal(t, 1, idx.Len())
}

func TestRebuildFailureKeepsPriorSnapshot(t *testing.T) {
	lister := &fakeLister{restaurants: testRestaurants()}
	idx := New(observability.Nop(), lister)
	require.NoError(t, idx.Rebuild(context.Background()))

	lister.err = errors.New("store unavailable")
	err := idx.Rebuild(context.Background())
	require.Error(t, err)

	// The previously active map stays serviceable.
	assert.ElementsMatch(t, []int64{1, 2}, idx.LookupExact("삼겹살"))
}

func TestSnapshotSurvivesRebuild(t *testing.T) {
	lister := &fakeLister{restaurants: testRestaurants()}
	idx := New(observability.Nop(), lister)
	require.NoError(t, idx.Rebuild(context.Background()))

	snap := idx.Snapshot()

	lister.restaurants = []storage.Restaurant{{ID: 9, KeywordsRaw: `["양꼬치"]`}}
	require.NoError(t, idx.Rebuild(context.Background()))

	// The old generation is unchanged; the active one reflects the rebuild.
	assert.ElementsMatch(t, []int64{1, 2}, snap.LookupExact("삼겹살"))
	assert.Empty(t, snap.LookupExact("양꼬치"))
	assert.Equal(t, []int64{9}, idx.LookupExact("양꼬치"))
	assert.Empty(t, idx.LookupExact("삼겹살"))
}

func TestSearchSubstring(t *testing.T) {
	idx := New(observability.Nop(), &fakeLister{restaurants: []storage.Restaurant{
		{ID: 1, KeywordsRaw: `["Pork Belly", "pork rib", "냉면"]`},
	}})
	require.NoError(t, idx.Rebuild(context.Background()))

	// Case-insensitive substring match.
	assert.ElementsMatch(t, []string{"Pork Belly", "pork rib"}, idx.Search("PORK", 10))
	assert.Equal(t, []string{"냉면"}, idx.Search("냉", 10))
	assert.Empty(t, idx.Search("pizza", 10))
	assert.Empty(t, idx.Search("", 10))

	// Limit is honored and order is stable within one snapshot.
	first := idx.Search("pork", 1)
	require.Len(t, first, 1)
	assert.Equal(t, first, idx.Search("pork", 1))
}

func TestPrefixSearch(t *testing.T) {
	idx := New(observability.Nop(), &fakeLister{restaurants: []storage.Restaurant{
		{ID: 1, KeywordsRaw: `["삼겹살", "삼계탕", "국밥"]`},
	}})
	require.NoError(t, idx.Rebuild(context.Background()))

	assert.ElementsMatch(t, []string{"삼겹살", "삼계탕"}, idx.PrefixSearch("삼", 10))
	assert.Empty(t, idx.PrefixSearch("밥", 10))
}

func TestKeysSorted(t *testing.T) {
	idx := New(observability.Nop(), &fakeLister{restaurants: testRestaurants()})
	require.NoError(t, idx.Rebuild(context.Background()))

	keys := idx.Keys()
	assert.Len(t, keys, idx.Len())
	assert.IsIncreasing(t, keys)
}

func TestEmptyIndexBeforeRebuild(t *testing.T) {
	idx := New(observability.Nop(), &fakeLister{})

	assert.Empty(t, idx.LookupExact("삼겹살"))
	assert.Empty(t, idx.Keys())
	assert.Equal(t, 0, idx.Len())
}

func TestParseKeywordField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "json array", raw: `["삼겹살", " 신선 "]`, want: []string{"삼겹살", "신선"}},
		{name: "json array mixed types", raw: `["삼겹살", 42]`, want: []string{"삼겹살", "42"}},
		{name: "comma separated", raw: "삼겹살, 신선 ,", want: []string{"삼겹살", "신선"}},
		{name: "single token", raw: "삼겹살", want: []string{"삼겹살"}},
		{name: "empty", raw: "", want: nil},
		{name: "whitespace", raw: "   ", want: nil},
		{name: "empty json array", raw: "[]", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywordField(tt.raw))
		})
	}
}
