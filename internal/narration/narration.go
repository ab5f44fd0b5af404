/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package narration writes short radio-DJ lines announcing the song that was
// just revealed.
package narration

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Seednode/hitbox/internal/game"
)

// Cue describes the moment being narrated.
type Cue struct {
	Code       string
	Song       game.Song
	Round      int
	Finished   bool
	WinnerName string
	// Theme is the music preference the host entered.
	Theme string
}

// Clip is one piece of narration. Audio is empty when no speech backend is
// configured.
type Clip struct {
	Script string `json:"script"`
	Audio  []byte `json:"audio,omitempty"`
}

// Narrator produces a clip for a cue. A nil clip with a nil error means
// there is nothing to say.
type Narrator interface {
	Narrate(ctx context.Context, cue Cue) (*Clip, error)
}

// Forgetter is implemented by narrators that keep per-session state.
type Forgetter interface {
	Forget(code string)
}

// Nop never narrates.
type Nop struct{}

func (Nop) Narrate(context.Context, Cue) (*Clip, error) {
	return nil, nil
}

var lines = []string{
	"%[1]q by %[2]s, from %[3]d! What a hit!",
	"%[2]s with %[1]q, %[3]d. A classic!",
	"That was %[1]q from %[3]d. Next!",
}

// Templates narrates from a fixed set of lines.
type Templates struct {
	// Pick returns an index in [0, n). Defaults to rand.IntN.
	Pick func(n int) int
}

func (t Templates) Narrate(_ context.Context, cue Cue) (*Clip, error) {
	return &Clip{Script: t.script(cue)}, nil
}

func (t Templates) script(cue Cue) string {
	s := cue.Song

	if cue.Finished && cue.WinnerName != "" {
		return fmt.Sprintf("And there it is! %q from %d! Congratulations %s, winner with %d points! What a game!",
			s.Title, s.Year, cue.WinnerName, game.WinningScore)
	}
	if cue.Finished {
		return fmt.Sprintf("%q from %d closes the show. That's all the songs we had tonight!", s.Title, s.Year)
	}

	pick := t.Pick
	if pick == nil {
		pick = rand.IntN
	}

	return fmt.Sprintf(lines[pick(len(lines))], s.Title, s.Artist, s.Year)
}
