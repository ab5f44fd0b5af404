/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package songs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
)

// DefaultSearchURL is the public iTunes Search API, which needs no credentials
// and returns a 30 second preview clip for most tracks.
const DefaultSearchURL = "https://itunes.apple.com/search"

const (
	// A catalog track only stands in for a song when their years are this close.
	yearTolerance = 2
	searchLimit   = 15
	maxSearchBody = 1 << 20
)

type searchResponse struct {
	Results []track `json:"results"`
}

type track struct {
	TrackID     int64  `json:"trackId"`
	TrackName   string `json:"trackName"`
	ArtistName  string `json:"artistName"`
	PreviewURL  string `json:"previewUrl"`
	ArtworkURL  string `json:"artworkUrl100"`
	ReleaseDate string `json:"releaseDate"`
}

func (t track) year() int {
	if len(t.ReleaseDate) < 4 {
		return 0
	}

	y, err := strconv.Atoi(t.ReleaseDate[:4])
	if err != nil {
		return 0
	}

	return y
}

// cover asks for a larger rendition of the artwork than the thumbnail the
// search returns.
func (t track) cover() string {
	return strings.Replace(t.ArtworkURL, "100x100bb", "600x600bb", 1)
}

// bestTrack picks the result to use for a song released in year: only tracks
// within yearTolerance qualify, and one with a preview clip wins over one
// without.
func bestTrack(results []track, year int) (track, bool) {
	var fallback *track

	for i, t := range results {
		y := t.year()
		if y < EarliestYear || y > LatestYear || y < year-yearTolerance || y > year+yearTolerance {
			continue
		}
		if t.PreviewURL != "" {
			return t, true
		}
		if fallback == nil {
			fallback = &results[i]
		}
	}

	if fallback == nil {
		return track{}, false
	}

	return *fallback, true
}

// Resolver fills in preview clips and cover art for the songs another
// Provider selects, by looking each one up in a public music search.
//
// Release years always come from the wrapped Provider. Songs that cannot be
// matched to a playable track are dropped, unless that would leave fewer
// than MinSongs, in which case the full selection is kept with whatever was
// found.
type Resolver struct {
	Provider  Provider
	SearchURL string
	Country   string
	MinSongs  int
	Client    *http.Client
	Logger    *zap.Logger
}

func (r *Resolver) Select(ctx context.Context, preference string) (Selection, error) {
	sel, err := r.Provider.Select(ctx, preference)
	if err != nil {
		return Selection{}, err
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	startTime := time.Now()

	all := make([]game.Song, 0, len(sel.Songs))
	playable := make([]game.Song, 0, len(sel.Songs))
	seen := make(map[int64]bool)

	var missing, failed int

	for _, s := range sel.Songs {
		if s.PreviewURL != "" || ctx.Err() != nil {
			all = append(all, s)
			if s.PreviewURL != "" {
				playable = append(playable, s)
			}

			continue
		}

		t, found, err := r.lookup(ctx, s)
		switch {
		case err != nil:
			failed++
			logger.Debug("track lookup failed", zap.String("song", s.ID), zap.Error(err))
		case !found:
			missing++
		case seen[t.TrackID]:
			missing++
			found = false
		default:
			seen[t.TrackID] = true
			s.PreviewURL = t.PreviewURL
			if s.CoverArt == "" {
				s.CoverArt = t.cover()
			}
		}

		all = append(all, s)
		if found && s.PreviewURL != "" {
			playable = append(playable, s)
		}
	}

	logger.Info("tracks resolved",
		zap.String("preference", preference),
		zap.Int("songs", len(sel.Songs)),
		zap.Int("playable", len(playable)),
		zap.Int("missing", missing),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(startTime).Round(time.Millisecond)),
	)

	if len(playable) < max(r.MinSongs, 1) {
		logger.Warn("too few playable tracks, keeping songs without previews",
			zap.String("preference", preference),
			zap.Int("playable", len(playable)),
			zap.Error(&game.ExternalServiceError{Service: "track search", Err: fmt.Errorf("%d of %d songs playable", len(playable), len(sel.Songs))}),
		)
		sel.Songs = all

		return sel, nil
	}

	sel.Songs = playable

	return sel, nil
}

func (r *Resolver) lookup(ctx context.Context, s game.Song) (track, bool, error) {
	q := url.Values{}
	q.Set("term", s.Title+" "+s.Artist)
	q.Set("media", "music")
	q.Set("entity", "song")
	q.Set("limit", strconv.Itoa(searchLimit))
	if r.Country != "" {
		q.Set("country", r.Country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.SearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return track{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return track{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSearchBody))

		return track{}, false, fmt.Errorf("search returned %s", resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSearchBody)).Decode(&body); err != nil {
		return track{}, false, fmt.Errorf("decoding search results: %w", err)
	}

	t, ok := bestTrack(body.Results, s.Year)

	return t, ok, nil
}
