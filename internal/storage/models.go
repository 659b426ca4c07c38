// Package storage provides database models and repositories for the ranking engine.
package storage

import "time"

// Restaurant is the persisted restaurant record. The ranking core reads it
// and never mutates it; creation and updates belong to the management side.
type Restaurant struct {
	ID             int64
	Name           string
	Address        string
	Lat            *float64
	Lon            *float64
	KeywordsRaw    string // JSON array or comma-separated text, parsed tolerantly
	ReviewCount    int
	TotalScore     float64
	NaverScore     float64
	SentimentScore float64
	Preview        string
	URL            string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPosition reports whether the restaurant has usable coordinates.
func (r *Restaurant) HasPosition() bool {
	return r.Lat != nil && r.Lon != nil
}
