/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package songs

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Seednode/hitbox/internal/game"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is one song in a catalog file.
type Entry struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Artist  string   `yaml:"artist"`
	Year    int      `yaml:"year"`
	Tags    []string `yaml:"tags"`
	Cover   string   `yaml:"cover,omitempty"`
	Preview string   `yaml:"preview,omitempty"`
	Movie   string   `yaml:"movie,omitempty"`
	Trivia  string   `yaml:"trivia,omitempty"`
}

type catalogFile struct {
	Songs []Entry `yaml:"songs"`
}

// Catalog is an offline Provider backed by a fixed song list. It never
// fails once loaded, which makes it the last link of a Fallback chain.
type Catalog struct {
	entries []Entry
	size    int
	minHits int
	shuffle func(n int, swap func(i, j int))
	logger  *zap.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithSize caps the number of songs per selection.
func WithSize(n int) CatalogOption {
	return func(c *Catalog) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithShuffle replaces the random shuffle, mainly for tests.
func WithShuffle(f func(n int, swap func(i, j int))) CatalogOption {
	return func(c *Catalog) {
		c.shuffle = f
	}
}

func WithCatalogLogger(l *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = l
	}
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte, opts ...CatalogOption) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		size:    20,
		minHits: 10,
		shuffle: rand.Shuffle,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	seen := make(map[string]bool, len(f.Songs))
	for i, e := range f.Songs {
		if e.Title == "" || e.Artist == "" {
			return nil, fmt.Errorf("catalog entry %d: title and artist are required", i)
		}
		if e.Year < EarliestYear || e.Year > LatestYear {
			return nil, fmt.Errorf("catalog entry %d (%s): year %d outside %d-%d", i, e.Title, e.Year, EarliestYear, LatestYear)
		}
		if e.ID == "" {
			e.ID = slug(e.Artist, e.Title, fmt.Sprint(e.Year))
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
		c.entries = append(c.entries, e)
	}

	if len(c.entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	return c, nil
}

// LoadCatalog reads a catalog file, or the built-in catalog when path is empty.
func LoadCatalog(path string, opts ...CatalogOption) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog, opts...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	return ParseCatalog(data, opts...)
}

// Len returns the number of songs in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Select picks songs whose tags, artist or title match words of the
// preference, topping up from the whole catalog when too few match.
func (c *Catalog) Select(_ context.Context, preference string) (Selection, error) {
	years, hasDecade := decade(preference)
	words := keywords(preference)

	var hits, rest []Entry
	for _, e := range c.entries {
		if (hasDecade && years.Contains(e.Year)) || e.matches(words) {
			hits = append(hits, e)
		} else {
			rest = append(rest, e)
		}
	}

	c.shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
	c.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	picked := hits
	if len(picked) < c.minHits {
		c.logger.Debug("few catalog matches, topping up",
			zap.String("preference", preference),
			zap.Int("matches", len(hits)),
		)
		picked = append(picked, rest...)
	}
	if len(picked) > c.size {
		picked = picked[:c.size]
	}

	sel := Selection{Songs: make([]game.Song, 0, len(picked))}
	for _, e := range picked {
		sel.Songs = append(sel.Songs, e.song())
	}

	if hasDecade {
		sel.StartYears = years
	} else {
		sel.StartYears = span(sel.Songs)
	}

	return sel, nil
}

func (e Entry) matches(words []string) bool {
	if len(words) == 0 {
		return false
	}

	haystack := strings.ToLower(e.Artist + " " + e.Title + " " + strings.Join(e.Tags, " "))
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}

	return false
}

func (e Entry) song() game.Song {
	return game.Song{
		ID:         e.ID,
		Title:      e.Title,
		Artist:     e.Artist,
		Year:       e.Year,
		CoverArt:   e.Cover,
		PreviewURL: e.Preview,
		Movie:      e.Movie,
		Trivia:     e.Trivia,
	}
}

var stopwords = map[string]bool{
	"and": true, "the": true, "with": true, "from": true, "music": true,
	"songs": true, "song": true, "some": true, "like": true, "please": true,
}

func keywords(text string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-')
	}) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		if _, isDecade := decade(w); isDecade {
			continue
		}
		out = append(out, w)
	}

	return out
}

// span returns the year range covered by songs, or the default range.
func span(songs []game.Song) game.YearRange {
	if len(songs) == 0 {
		return game.DefaultYearRange
	}

	r := game.YearRange{Min: songs[0].Year, Max: songs[0].Year}
	for _, s := range songs[1:] {
		r.Min = min(r.Min, s.Year)
		r.Max = max(r.Max, s.Year)
	}

	return r
}
