/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package songs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
)

// Fallback tries Primary and, when it fails or comes back short, serves the
// request from Secondary instead. Song selection therefore never blocks a
// game from starting as long as Secondary is an offline Catalog.
type Fallback struct {
	Primary   Provider
	Secondary Provider
	// MinSongs is the smallest primary result accepted.
	MinSongs int
	Logger   *zap.Logger
}

func (f *Fallback) Select(ctx context.Context, preference string) (Selection, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if f.Primary != nil {
		sel, err := f.Primary.Select(ctx, preference)
		if err == nil && len(sel.Songs) >= f.MinSongs {
			return sel, nil
		}
		if err == nil {
			err = fmt.Errorf("only %d songs, want at least %d", len(sel.Songs), f.MinSongs)
		}

		logger.Warn("song provider failed, using fallback",
			zap.String("preference", preference),
			zap.Error(&game.ExternalServiceError{Service: "song provider", Err: err}),
		)
	}

	sel, err := f.Secondary.Select(ctx, preference)
	if err != nil {
		return Selection{}, &game.ExternalServiceError{Service: "song catalog", Err: err}
	}

	return sel, nil
}
