package expand

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responseParsers is the ordered list of attempts applied to raw model
// output. Each parser is total: it returns keywords or nothing, never an
// error. The first non-empty result wins.
var responseParsers = []func(string) []string{
	parseJSONArray,
	parseCommaList,
	parseSingleToken,
}

// ParseKeywordResponse permissively extracts keywords from raw model output.
// An all-attempts-exhausted result is an empty list.
func ParseKeywordResponse(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, parse := range responseParsers {
		if out := parse(raw); len(out) > 0 {
			return out
		}
	}
	return nil
}

// parseJSONArray locates the first balanced [...] substring and parses it as
// a JSON array.
func parseJSONArray(raw string) []string {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return nil
	}

	end := balancedArrayEnd(raw, start)
	if end < 0 {
		return nil
	}

	var parsed []interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil
	}

	var out []string
	for _, v := range parsed {
		s := strings.TrimSpace(fmt.Sprint(v))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// balancedArrayEnd scans from the opening bracket and returns the position of
// its matching close bracket, honoring string literals. Returns -1 when the
// array never closes.
func balancedArrayEnd(raw string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseCommaList splits raw text on commas and strips surrounding quotes.
func parseCommaList(raw string) []string {
	if !strings.Contains(raw, ",") {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		s := stripQuotes(strings.TrimSpace(part))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseSingleToken treats the whole bracket-stripped text as one keyword.
func parseSingleToken(raw string) []string {
	s := strings.TrimPrefix(raw, "[")
	s = strings.TrimSuffix(s, "]")
	s = stripQuotes(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return []string{s}
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

// dedupeKeywords removes duplicates case-sensitively on trimmed strings,
// preserving first-seen order, and truncates to max entries.
func dedupeKeywords(keywords []string, max int) []string {
	seen := make(map[string]struct{}, len(keywords))
	var out []string
	for _, kw := range keywords {
		s := strings.TrimSpace(kw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
