package songs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/hitbox/internal/game"
)

func noShuffle(int, func(i, j int)) {}

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 50)
}

func TestCatalogSelect_Decade(t *testing.T) {
	c, err := LoadCatalog("", WithShuffle(noShuffle))
	require.NoError(t, err)

	sel, err := c.Select(context.Background(), "80s")
	require.NoError(t, err)

	assert.Equal(t, game.YearRange{Min: 1980, Max: 1989}, sel.StartYears)
	require.NotEmpty(t, sel.Songs)
	for _, s := range sel.Songs {
		assert.True(t, sel.StartYears.Contains(s.Year), "%s (%d)", s.Title, s.Year)
	}
}

func TestCatalogSelect_KeywordsAndTopUp(t *testing.T) {
	data := []byte(`
songs:
  - {title: "A", artist: "Alpha", year: 1970, tags: [rock]}
  - {title: "B", artist: "Beta", year: 1980, tags: [pop]}
  - {title: "C", artist: "Gamma", year: 1990, tags: [rock]}
`)
	c, err := ParseCatalog(data, WithShuffle(noShuffle), WithSize(2))
	require.NoError(t, err)

	sel, err := c.Select(context.Background(), "rock")
	require.NoError(t, err)

	require.Len(t, sel.Songs, 2)
	assert.Equal(t, "A", sel.Songs[0].Title)
	assert.Equal(t, "C", sel.Songs[1].Title)
	assert.Equal(t, game.YearRange{Min: 1970, Max: 1990}, sel.StartYears)
	assert.Equal(t, "alpha-a-1970", sel.Songs[0].ID)
}

func TestCatalogSelect_NoMatchesUsesWholeCatalog(t *testing.T) {
	c, err := LoadCatalog("", WithSize(15))
	require.NoError(t, err)

	sel, err := c.Select(context.Background(), "zzzz qqqq")
	require.NoError(t, err)
	assert.Len(t, sel.Songs, 15)

	ids := make(map[string]bool)
	for _, s := range sel.Songs {
		assert.False(t, ids[s.ID], "duplicate %s", s.ID)
		ids[s.ID] = true
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "songs: [",
		"empty":         "songs: []",
		"missing title": `songs: [{artist: "X", year: 1990}]`,
		"bad year":      `songs: [{title: "T", artist: "X", year: 1900}]`,
		"duplicate id":  `songs: [{id: a, title: "T", artist: "X", year: 1990}, {id: a, title: "U", artist: "Y", year: 1991}]`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`songs: [{title: "T", artist: "X", year: 1990, preview: "https://example.test/t.mp3"}]`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	sel, err := c.Select(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, sel.Songs, 1)
	assert.Equal(t, "https://example.test/t.mp3", sel.Songs[0].PreviewURL)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecade(t *testing.T) {
	cases := map[string]game.YearRange{
		"80s":          {Min: 1980, Max: 1989},
		"the 1960s":    {Min: 1960, Max: 1969},
		"2000s pop":    {Min: 2000, Max: 2009},
		"2010s":        {Min: 2010, Max: 2019},
		"Nineties 90s": {Min: 1990, Max: 1999},
		"00s emo":      {Min: 2000, Max: 2009},
		"2020s":        {Min: 2020, Max: 2024},
		"20s hits":     {Min: 2020, Max: 2024},
	}
	for in, want := range cases {
		got, ok := decade(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"rock music", "1940s big band", "40s swing", "1930s jazz", "1900s"} {
		_, ok := decade(in)
		assert.False(t, ok, in)
	}
}

func TestCatalogSelect_EarlyDecadeKeepsStartYearsWithinSongs(t *testing.T) {
	c, err := LoadCatalog("", WithShuffle(noShuffle))
	require.NoError(t, err)

	for _, pref := range []string{"1940s big band", "40s swing", "1930s jazz"} {
		sel, err := c.Select(context.Background(), pref)
		require.NoError(t, err, pref)
		require.NotEmpty(t, sel.Songs, pref)

		assert.Equal(t, span(sel.Songs), sel.StartYears, pref)
		assert.GreaterOrEqual(t, sel.StartYears.Min, EarliestYear, pref)
		assert.LessOrEqual(t, sel.StartYears.Max, LatestYear, pref)
	}
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"swedish", "rock"}, keywords("Some Swedish rock, 80s music!"))
}
