package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeywordResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "clean json array",
			raw:  `["삼겹살", "신선"]`,
			want: []string{"삼겹살", "신선"},
		},
		{
			name: "json array embedded in prose",
			raw:  "Here are the keywords: [\"삼겹살\", \"고기\"] as requested.",
			want: []string{"삼겹살", "고기"},
		},
		{
			name: "nested brackets stay balanced",
			raw:  `[["삼겹살"], "신선"]`,
			want: []string{"[삼겹살]", "신선"},
		},
		{
			name: "bracket inside string literal",
			raw:  `["a[b", "c"]`,
			want: []string{"a[b", "c"},
		},
		{
			name: "malformed json falls back to comma split",
			raw:  `"삼겹살", "신선"`,
			want: []string{"삼겹살", "신선"},
		},
		{
			name: "plain comma list",
			raw:  "삼겹살, 신선, 고기",
			want: []string{"삼겹살", "신선", "고기"},
		},
		{
			name: "single quoted token",
			raw:  `"삼겹살"`,
			want: []string{"삼겹살"},
		},
		{
			name: "single token with brackets",
			raw:  `[삼겹살]`,
			want: []string{"삼겹살"},
		},
		{
			name: "whitespace only",
			raw:  "   ",
			want: nil,
		},
		{
			name: "empty string",
			raw:  "",
			want: nil,
		},
		{
			name: "empty array",
			raw:  "[]",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywordResponse(tt.raw))
		})
	}
}

func TestDedupeKeywords(t *testing.T) {
	in := []string{"삼겹살", " 삼겹살 ", "신선", "", "고기", "신선", "국밥", "냉면"}

	// First-seen order preserved, trimmed exact-match dedupe, truncation.
	assert.Equal(t, []string{"삼겹살", "신선", "고기", "국밥", "냉면"}, dedupeKeywords(in, 5))
	assert.Equal(t, []string{"삼겹살", "신선"}, dedupeKeywords(in, 2))
	assert.Empty(t, dedupeKeywords(nil, 5))
}
