/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Song is a single playable track.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Year       int    `json:"year,omitempty"`
	CoverArt   string `json:"coverArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Movie      string `json:"movie,omitempty"`
	Trivia     string `json:"trivia,omitempty"`

	// StartCard marks the year card every timeline is seeded with.
	StartCard bool `json:"startCard,omitempty"`
}

// YearRange bounds the start years handed to new players.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultYearRange is used when a provider does not suggest one.
var DefaultYearRange = YearRange{Min: 1950, Max: 2020}

// Contains reports whether year lies within the range, inclusive.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// RoundResult is the outcome of one player's placement in one round.
type RoundResult struct {
	PlayerID string `json:"playerId"`
	Index    int    `json:"index"`
	Correct  bool   `json:"correct"`
	Song     Song   `json:"song"`
	Score    int    `json:"score"`
}
