/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package narration

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/llm"
)

// HistoryRounds is how many earlier exchanges per session are replayed to
// the model so it varies its style between rounds.
const HistoryRounds = 6

const djSystem = `You are an energetic radio DJ commentating a party music game where players guess the release year of songs.%s

Your job is to:
- Comment on the song that just played in a fun, enthusiastic way
- Mention an interesting fact about the song, the artist, the film (for soundtracks) or the year
- Keep the energy up and the mood festive
- When the song comes from a film, always mention the film

Rules:
- Keep it short: 2-3 sentences, never more than 40 words
- Skip greetings, go straight to the song
- Vary your style between rounds`

// LLM asks a language model for DJ lines and falls back to Templates when
// the model is unavailable.
type LLM struct {
	llm      llm.Completer
	fallback Templates
	logger   *zap.Logger

	mu      sync.Mutex
	history map[string][]llm.Message
}

func NewLLM(c llm.Completer, logger *zap.Logger) *LLM {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLM{
		llm:     c,
		logger:  logger,
		history: make(map[string][]llm.Message),
	}
}

func (n *LLM) Narrate(ctx context.Context, cue Cue) (*Clip, error) {
	ask := request(cue)

	n.mu.Lock()
	messages := append(append([]llm.Message(nil), n.history[cue.Code]...), llm.Message{Role: "user", Text: ask})
	n.mu.Unlock()

	system := fmt.Sprintf(djSystem, "")
	if cue.Theme != "" {
		system = fmt.Sprintf(djSystem, "\n\nMusic theme for this game: "+cue.Theme)
	}

	script, err := n.llm.Complete(ctx, llm.Prompt{
		System:      system,
		Messages:    messages,
		MaxTokens:   150,
		Temperature: 0.8,
	})
	script = strings.TrimSpace(script)
	if err != nil || script == "" {
		if err == nil {
			err = llm.ErrEmptyCompletion
		}
		n.logger.Warn("dj script failed, using template",
			zap.String("code", cue.Code),
			zap.Error(&game.ExternalServiceError{Service: "narration", Err: err}),
		)

		return n.fallback.Narrate(ctx, cue)
	}

	n.remember(cue.Code, ask, script)

	return &Clip{Script: script}, nil
}

func (n *LLM) remember(code, ask, script string) {
	if code == "" {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	h := append(n.history[code],
		llm.Message{Role: "user", Text: ask},
		llm.Message{Role: "assistant", Text: script},
	)
	if len(h) > 2*HistoryRounds {
		h = h[len(h)-2*HistoryRounds:]
	}
	n.history[code] = h
}

// Forget drops the history kept for a session.
func (n *LLM) Forget(code string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.history, code)
}

func request(cue Cue) string {
	s := cue.Song

	info := fmt.Sprintf("%q by %s", s.Title, s.Artist)
	if s.Movie != "" {
		info += fmt.Sprintf(" from the film %q", s.Movie)
	}
	info += fmt.Sprintf(" (%d)", s.Year)

	if cue.Finished && cue.WinnerName != "" {
		return fmt.Sprintf("The last song was %s. %s has won the game with %d points! Congratulate the winner briefly and close the show. At most 30 words.",
			info, cue.WinnerName, game.WinningScore)
	}

	parts := []string{fmt.Sprintf("Comment on the song: %s.", info)}
	if s.Trivia != "" {
		parts = append(parts, "Background (use creatively): "+s.Trivia)
	}
	if s.Movie != "" {
		parts = append(parts, fmt.Sprintf("Mention the film %q!", s.Movie))
	}
	parts = append(parts, "At most 25 words.")

	return strings.Join(parts, " ")
}
