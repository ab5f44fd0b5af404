package songs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/llm"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt llm.Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, p llm.Prompt) (string, error) {
	f.prompt = p
	return f.reply, f.err
}

func TestSuggester_Select(t *testing.T) {
	c := &fakeCompleter{reply: "Here you go:\n```json\n" + `{
  "songs": [
    {"title": "Take On Me", "artist": "a-ha", "year": 1984, "trivia": "Rotoscoped video"},
    {"title": "take on me ", "artist": "A-HA", "year": 1985},
    {"title": "Too Old", "artist": "Someone", "year": 1901},
    {"title": "", "artist": "Nobody", "year": 1990},
    {"title": "Eye of the Tiger", "artist": "Survivor", "year": 1982, "movie": "Rocky III"}
  ],
  "startYearRange": {"min": 1980, "max": 1989}
}` + "\n```"}

	sel, err := NewSuggester(c, nil).Select(context.Background(), "80s movie hits")
	require.NoError(t, err)

	require.Len(t, sel.Songs, 2)
	assert.Equal(t, "Take On Me", sel.Songs[0].Title)
	assert.Equal(t, "Rotoscoped video", sel.Songs[0].Trivia)
	assert.Equal(t, "a-ha-take-on-me-1984", sel.Songs[0].ID)
	assert.Equal(t, "Rocky III", sel.Songs[1].Movie)
	assert.Equal(t, game.YearRange{Min: 1980, Max: 1989}, sel.StartYears)

	require.Len(t, c.prompt.Messages, 1)
	assert.Contains(t, c.prompt.Messages[0].Text, `"80s movie hits"`)
}

func TestSuggester_DefaultStartRange(t *testing.T) {
	c := &fakeCompleter{reply: `{"songs":[{"title":"T","artist":"A","year":1999}],"startYearRange":{"min":2000,"max":1990}}`}

	sel, err := NewSuggester(c, nil).Select(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, game.DefaultYearRange, sel.StartYears)
}

func TestSuggester_Errors(t *testing.T) {
	cases := map[string]*fakeCompleter{
		"transport": {err: errors.New("connection refused")},
		"no json":   {reply: "I cannot help with that."},
		"bad json":  {reply: `{"songs": [}`},
		"no songs":  {reply: `{"songs": []}`},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSuggester(c, nil).Select(context.Background(), "rock")
			assert.Error(t, err)
		})
	}

	_, err := NewSuggester(&fakeCompleter{}, nil).Select(context.Background(), "  ")
	assert.Error(t, err)
}

func TestParseSuggestions_Caps(t *testing.T) {
	reply := `{"songs":[`
	for i := 0; i < MaxSuggestions+5; i++ {
		if i > 0 {
			reply += ","
		}
		reply += `{"title":"T` + string(rune('a'+i)) + `","artist":"A","year":1990}`
	}
	reply += `]}`

	sel, err := parseSuggestions(reply)
	require.NoError(t, err)
	assert.Len(t, sel.Songs, MaxSuggestions)
}
