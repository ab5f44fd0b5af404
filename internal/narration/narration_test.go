package narration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/llm"
)

var song = game.Song{ID: "s", Title: "Take On Me", Artist: "a-ha", Year: 1984}

func TestNop(t *testing.T) {
	clip, err := Nop{}.Narrate(context.Background(), Cue{Song: song})
	require.NoError(t, err)
	assert.Nil(t, clip)
}

func TestTemplates(t *testing.T) {
	for i := range lines {
		clip, err := Templates{Pick: func(int) int { return i }}.Narrate(context.Background(), Cue{Song: song})
		require.NoError(t, err)
		assert.Contains(t, clip.Script, "Take On Me")
		assert.Contains(t, clip.Script, "1984")
	}

	clip, err := Templates{}.Narrate(context.Background(), Cue{Song: song, Finished: true, WinnerName: "Ana"})
	require.NoError(t, err)
	assert.Contains(t, clip.Script, "Ana")
	assert.Contains(t, clip.Script, "10 points")

	clip, err = Templates{}.Narrate(context.Background(), Cue{Song: song, Finished: true})
	require.NoError(t, err)
	assert.NotContains(t, clip.Script, "Congratulations")
}

type scriptedCompleter struct {
	replies []string
	err     error
	prompts []llm.Prompt
}

func (s *scriptedCompleter) Complete(_ context.Context, p llm.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]

	return reply, nil
}

func TestLLM_UsesHistoryPerSession(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"first", "second", "other"}}
	n := NewLLM(c, nil)
	ctx := context.Background()

	clip, err := n.Narrate(ctx, Cue{Code: "AAAAAA", Song: song, Theme: "80s"})
	require.NoError(t, err)
	assert.Equal(t, "first", clip.Script)
	assert.Contains(t, c.prompts[0].System, "80s")
	assert.Len(t, c.prompts[0].Messages, 1)

	_, err = n.Narrate(ctx, Cue{Code: "AAAAAA", Song: song})
	require.NoError(t, err)
	require.Len(t, c.prompts[1].Messages, 3)
	assert.Equal(t, "assistant", c.prompts[1].Messages[1].Role)
	assert.Equal(t, "first", c.prompts[1].Messages[1].Text)

	_, err = n.Narrate(ctx, Cue{Code: "BBBBBB", Song: song})
	require.NoError(t, err)
	assert.Len(t, c.prompts[2].Messages, 1)
}

func TestLLM_HistoryIsBounded(t *testing.T) {
	c := &scriptedCompleter{}
	for i := 0; i < HistoryRounds+4; i++ {
		c.replies = append(c.replies, fmt.Sprintf("line %d", i))
	}
	n := NewLLM(c, nil)

	for i := 0; i < HistoryRounds+4; i++ {
		_, err := n.Narrate(context.Background(), Cue{Code: "AAAAAA", Song: song})
		require.NoError(t, err)
	}

	last := c.prompts[len(c.prompts)-1]
	assert.Len(t, last.Messages, 2*HistoryRounds+1)

	n.Forget("AAAAAA")
	assert.Empty(t, n.history)
}

func TestLLM_FallsBackToTemplates(t *testing.T) {
	n := NewLLM(&scriptedCompleter{err: errors.New("rate limited")}, nil)

	clip, err := n.Narrate(context.Background(), Cue{Code: "AAAAAA", Song: song, Finished: true, WinnerName: "Ana"})
	require.NoError(t, err)
	assert.Contains(t, clip.Script, "Ana")
	assert.Empty(t, n.history)

	clip, err = NewLLM(&scriptedCompleter{replies: []string{"   "}}, nil).Narrate(context.Background(), Cue{Song: song})
	require.NoError(t, err)
	assert.Contains(t, clip.Script, "Take On Me")
}

func TestRequest(t *testing.T) {
	s := song
	s.Movie = "Some Film"
	s.Trivia = "Rotoscoped video"

	r := request(Cue{Song: s})
	assert.Contains(t, r, `"Some Film"`)
	assert.Contains(t, r, "Rotoscoped video")

	assert.Contains(t, request(Cue{Song: s, Finished: true, WinnerName: "Ana"}), "Ana has won")
}
