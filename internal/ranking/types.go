// Package ranking orchestrates keyword resolution, candidate gathering,
// scoring, and result shaping for restaurant recommendation queries.
package ranking

// Position is a WGS84 coordinate pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query is one ranking request. All fields are optional, but at least a
// sentence or a keyword list is needed to resolve anything.
type Query struct {
	// Sentence is a free-text query, expanded via the LLM path.
	Sentence string
	// Keywords is an explicit keyword list, partitioned into known/unknown
	// against the index.
	Keywords []string
	// Position is the user location used for distances.
	Position *Position
	// RadiusKm drops candidates farther than this when Position is set.
	RadiusKm *float64
}

// Candidate is one ranked restaurant in a result. Ephemeral, never persisted.
type Candidate struct {
	Rank            int       `json:"rank"`
	RestaurantID    int64     `json:"restaurantId"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	MapURL          string    `json:"mapUrl,omitempty"`
	RelatedKeywords []string  `json:"relatedKeywords"`
	MatchedKeywords []string  `json:"matchedKeywords"`
	MatchScore      int       `json:"matchScore"`
	TotalScore      float64   `json:"totalScore"`
	ReviewCount     int       `json:"reviewCount"`
	SentimentScore  float64   `json:"sentimentScore"`
	NaverScore      float64   `json:"naverScore"`
	CompositeScore  float64   `json:"compositeScore"`
	Coordinates     *Position `json:"coordinates,omitempty"`
	DistanceKm      *float64  `json:"distanceKm,omitempty"`
}

// Meta describes how a query was resolved.
type Meta struct {
	QueryID          string    `json:"queryId"`
	Sentence         string    `json:"sentence,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	ResolvedKeywords []string  `json:"resolvedKeywords"`
	Position         *Position `json:"userPosition,omitempty"`
	RadiusKm         *float64  `json:"radiusKm,omitempty"`
	ResultCount      int       `json:"resultCount"`
	Message          string    `json:"message,omitempty"`
}

// Result is the ranked response for one query.
type Result struct {
	Meta       Meta        `json:"meta"`
	Candidates []Candidate `json:"data"`
}
