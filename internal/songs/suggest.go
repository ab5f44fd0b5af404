/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package songs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/llm"
)

// MaxSuggestions caps how many songs a single suggestion request may add.
const MaxSuggestions = 25

// ErrNoSuggestions is returned when the model reply contained no usable songs.
var ErrNoSuggestions = errors.New("songs: no usable suggestions")

const suggestPrompt = `You are a music expert. Based on the user's music preference, suggest %d popular, well-known songs that match their taste.

User preference: %q

Requirements:
- Choose popular songs released between %d and %d, using the original release year
- Include a mix of classic hits and recognizable tracks
- Ensure variety in years within the genre or style
- When a song is from a film soundtrack, name the film in "movie"
- Add one short piece of trivia per song in "trivia"
- Also determine an appropriate year range for player start years based on the preference (for "80s music", suggest 1980-1989)
- Respond with valid JSON only, no markdown or explanations

Return JSON in exactly this format:
{
  "songs": [
    {"title": "Song Name", "artist": "Artist Name", "year": 1985, "movie": "", "trivia": "..."}
  ],
  "startYearRange": {"min": 1980, "max": 1989}
}`

type suggestion struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   int    `json:"year"`
	Movie  string `json:"movie"`
	Trivia string `json:"trivia"`
}

type suggestionReply struct {
	Songs          []suggestion    `json:"songs"`
	StartYearRange *game.YearRange `json:"startYearRange"`
}

// Suggester asks a language model for songs matching the preference.
type Suggester struct {
	llm    llm.Completer
	logger *zap.Logger
}

func NewSuggester(c llm.Completer, logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Suggester{llm: c, logger: logger}
}

func (s *Suggester) Select(ctx context.Context, preference string) (Selection, error) {
	preference = strings.TrimSpace(preference)
	if preference == "" {
		return Selection{}, fmt.Errorf("songs: empty preference")
	}

	reply, err := s.llm.Complete(ctx, llm.Prompt{
		Messages:    llm.User(fmt.Sprintf(suggestPrompt, MaxSuggestions, preference, EarliestYear, LatestYear)),
		MaxTokens:   3000,
		Temperature: 1.0,
	})
	if err != nil {
		return Selection{}, fmt.Errorf("requesting suggestions: %w", err)
	}

	sel, err := parseSuggestions(reply)
	if err != nil {
		return Selection{}, err
	}

	s.logger.Info("songs suggested",
		zap.String("preference", preference),
		zap.Int("songs", len(sel.Songs)),
		zap.Int("start_min", sel.StartYears.Min),
		zap.Int("start_max", sel.StartYears.Max),
	)

	return sel, nil
}

func parseSuggestions(reply string) (Selection, error) {
	raw, ok := llm.ExtractJSON(reply)
	if !ok {
		return Selection{}, fmt.Errorf("songs: no JSON object in reply")
	}

	var parsed suggestionReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Selection{}, fmt.Errorf("songs: decoding suggestions: %w", err)
	}

	sel := Selection{StartYears: game.DefaultYearRange}
	if r := parsed.StartYearRange; r != nil && r.Min <= r.Max && r.Min >= EarliestYear && r.Max <= LatestYear {
		sel.StartYears = *r
	}

	seen := make(map[string]bool)
	for _, sg := range parsed.Songs {
		title, artist := strings.TrimSpace(sg.Title), strings.TrimSpace(sg.Artist)
		if title == "" || artist == "" || sg.Year < EarliestYear || sg.Year > LatestYear {
			continue
		}

		key := songKey(title, artist)
		if seen[key] {
			continue
		}
		seen[key] = true

		sel.Songs = append(sel.Songs, game.Song{
			ID:     slug(artist, title, strconv.Itoa(sg.Year)),
			Title:  title,
			Artist: artist,
			Year:   sg.Year,
			Movie:  strings.TrimSpace(sg.Movie),
			Trivia: strings.TrimSpace(sg.Trivia),
		})
		if len(sel.Songs) == MaxSuggestions {
			break
		}
	}

	if len(sel.Songs) == 0 {
		return Selection{}, ErrNoSuggestions
	}

	return sel, nil
}
