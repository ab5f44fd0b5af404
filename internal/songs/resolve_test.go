package songs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/hitbox/internal/game"
)

type searchServer struct {
	*httptest.Server
	requests atomic.Int32
}

// newSearchServer answers every term starting with a key of results with
// the tracks listed for it.
func newSearchServer(t *testing.T, results map[string][]track) *searchServer {
	t.Helper()

	s := &searchServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		assert.Equal(t, "song", r.URL.Query().Get("entity"))
		assert.Equal(t, "SE", r.URL.Query().Get("country"))

		term := r.URL.Query().Get("term")
		resp := searchResponse{Results: []track{}}
		for prefix, tracks := range results {
			if strings.HasPrefix(term, prefix) {
				resp.Results = tracks
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.Close)

	return s
}

func twoSongs() *stubProvider {
	return &stubProvider{sel: Selection{
		Songs: []game.Song{
			{ID: "take-on-me", Title: "Take On Me", Artist: "a-ha", Year: 1985},
			{ID: "obscure", Title: "Obscure", Artist: "Nobody", Year: 1990},
		},
		StartYears: game.YearRange{Min: 1980, Max: 1989},
	}}
}

func TestResolver_FillsPreviewsAndDropsUnmatched(t *testing.T) {
	srv := newSearchServer(t, map[string][]track{
		"Take On Me": {
			{TrackID: 1, ReleaseDate: "2005-01-01T00:00:00Z", PreviewURL: "https://example.test/remaster.m4a"},
			{TrackID: 2, ReleaseDate: "1985-06-01T00:00:00Z", ArtworkURL: "https://example.test/100x100bb.jpg"},
			{TrackID: 3, ReleaseDate: "1986-06-01T00:00:00Z", PreviewURL: "https://example.test/take-on-me.m4a", ArtworkURL: "https://example.test/art/100x100bb.jpg"},
		},
		"Obscure": {
			{TrackID: 4, ReleaseDate: "2010-01-01T00:00:00Z", PreviewURL: "https://example.test/wrong.m4a"},
		},
	})

	r := &Resolver{Provider: twoSongs(), SearchURL: srv.URL, Country: "SE", MinSongs: 1, Client: srv.Client()}

	sel, err := r.Select(context.Background(), "80s")
	require.NoError(t, err)

	require.Len(t, sel.Songs, 1)
	got := sel.Songs[0]
	assert.Equal(t, "take-on-me", got.ID)
	assert.Equal(t, 1985, got.Year)
	assert.Equal(t, "https://example.test/take-on-me.m4a", got.PreviewURL)
	assert.Equal(t, "https://example.test/art/600x600bb.jpg", got.CoverArt)
	assert.Equal(t, game.YearRange{Min: 1980, Max: 1989}, sel.StartYears)
	assert.EqualValues(t, 2, srv.requests.Load())
}

func TestResolver_KeepsEverythingWhenTooFewPlayable(t *testing.T) {
	srv := newSearchServer(t, map[string][]track{
		"Take On Me": {{TrackID: 3, ReleaseDate: "1985", PreviewURL: "https://example.test/take-on-me.m4a"}},
	})

	r := &Resolver{Provider: twoSongs(), SearchURL: srv.URL, Country: "SE", MinSongs: 2, Client: srv.Client()}

	sel, err := r.Select(context.Background(), "80s")
	require.NoError(t, err)

	require.Len(t, sel.Songs, 2)
	assert.Equal(t, "https://example.test/take-on-me.m4a", sel.Songs[0].PreviewURL)
	assert.Empty(t, sel.Songs[1].PreviewURL)
}

func TestResolver_SearchOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	provider := twoSongs()
	r := &Resolver{Provider: provider, SearchURL: srv.URL, Client: srv.Client()}

	sel, err := r.Select(context.Background(), "80s")
	require.NoError(t, err)
	assert.Equal(t, provider.sel.Songs, sel.Songs)
}

func TestResolver_SkipsSongsThatAlreadyPlay(t *testing.T) {
	srv := newSearchServer(t, nil)

	provider := &stubProvider{sel: Selection{Songs: []game.Song{
		{ID: "a", Title: "A", Artist: "X", Year: 1990, PreviewURL: "https://example.test/a.mp3"},
	}}}
	r := &Resolver{Provider: provider, SearchURL: srv.URL, Country: "SE", Client: srv.Client()}

	sel, err := r.Select(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, provider.sel.Songs, sel.Songs)
	assert.Zero(t, srv.requests.Load())
}

func TestResolver_ProviderError(t *testing.T) {
	r := &Resolver{Provider: &stubProvider{err: assert.AnError}, SearchURL: "http://127.0.0.1:0"}

	_, err := r.Select(context.Background(), "80s")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolver_DefaultCatalogIsPlayable(t *testing.T) {
	catalog, err := LoadCatalog("", WithShuffle(noShuffle))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		for i, e := range catalog.entries {
			if term == e.Title+" "+e.Artist {
				_ = json.NewEncoder(w).Encode(searchResponse{Results: []track{{
					TrackID:     int64(i + 1),
					ReleaseDate: strconv.Itoa(e.Year),
					PreviewURL:  "https://example.test/" + e.ID + ".m4a",
				}}})

				return
			}
		}
		_ = json.NewEncoder(w).Encode(searchResponse{})
	}))
	t.Cleanup(srv.Close)

	r := &Resolver{Provider: catalog, SearchURL: srv.URL, MinSongs: 10, Client: srv.Client()}

	sel, err := r.Select(context.Background(), "80s")
	require.NoError(t, err)
	require.NotEmpty(t, sel.Songs)
	for _, s := range sel.Songs {
		assert.Equal(t, "https://example.test/"+s.ID+".m4a", s.PreviewURL, s.Title)
	}
}

func TestBestTrack(t *testing.T) {
	results := []track{
		{TrackID: 1, ReleaseDate: "1940-01-01"},
		{TrackID: 2, ReleaseDate: "1977-01-01"},
		{TrackID: 3, ReleaseDate: "1978-01-01"},
		{TrackID: 4, ReleaseDate: "1979-01-01", PreviewURL: "https://example.test/4.m4a"},
		{TrackID: 5, ReleaseDate: "bad"},
	}

	got, ok := bestTrack(results, 1980)
	require.True(t, ok)
	assert.EqualValues(t, 4, got.TrackID)

	got, ok = bestTrack(results[:3], 1976)
	require.True(t, ok)
	assert.EqualValues(t, 2, got.TrackID)

	_, ok = bestTrack(results, 2000)
	assert.False(t, ok)

	_, ok = bestTrack(nil, 1980)
	assert.False(t, ok)
}
