/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package songs turns a free-text music preference into a queue of songs.
package songs

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Seednode/hitbox/internal/game"
)

const (
	// Songs outside this window are rejected as implausible release years.
	EarliestYear = 1950
	LatestYear   = 2024
)

// Selection is the output of a Provider.
type Selection struct {
	Songs      []game.Song
	StartYears game.YearRange
}

// Provider selects songs for a preference. Implementations may be slow and
// must honour ctx.
type Provider interface {
	Select(ctx context.Context, preference string) (Selection, error)
}

var decadePattern = regexp.MustCompile(`\b(19|20)?(\d)0s\b`)

// decade finds a decade reference such as "80s" or "1990s" in text. A bare
// "00s" to "20s" means this century. Decades outside EarliestYear to
// LatestYear are not reported; ranges that overlap it are clamped.
func decade(text string) (game.YearRange, bool) {
	m := decadePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return game.YearRange{}, false
	}

	d, _ := strconv.Atoi(m[2])

	var start int
	switch {
	case m[1] != "":
		century, _ := strconv.Atoi(m[1])
		start = century*100 + d*10
	case d <= 2:
		start = 2000 + d*10
	default:
		start = 1900 + d*10
	}

	r := game.YearRange{Min: max(start, EarliestYear), Max: min(start+9, LatestYear)}
	if r.Min > r.Max {
		return game.YearRange{}, false
	}

	return r, true
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slug(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "-"))

	return strings.Trim(slugPattern.ReplaceAllString(joined, "-"), "-")
}

// songKey identifies the same recording across releases.
func songKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(artist))
}
