/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/Seednode/hitbox/internal/game"
)

// Messages sent to clients. Every message carries a "type" field naming it.

// Sent only to the connection that created the session.
type sessionCreatedMessage struct {
	Type  string     `json:"type"` // "session_created"
	Code  string     `json:"code"`
	State game.State `json:"state"`
}

// Sent to a player after joining or rejoining, so the client can keep its
// player id for later reconnects.
type joinedMessage struct {
	Type   string           `json:"type"` // "joined"
	Code   string           `json:"code"`
	Player game.PlayerState `json:"player"`
}

// Broadcast whenever the session changes. The host's copy is unredacted.
type stateMessage struct {
	Type  string     `json:"type"` // "session_state"
	State game.State `json:"state"`
}

type placementAckMessage struct {
	Type  string `json:"type"` // "placement_ack"
	Round int    `json:"round"`
	Index int    `json:"index"`
}

type resultsMessage struct {
	Type    string             `json:"type"` // "results_revealed"
	Results []game.RoundResult `json:"results"`
	State   game.State         `json:"state"`
}

type narrationMessage struct {
	Type   string `json:"type"` // "narration"
	Round  int    `json:"round"`
	Script string `json:"script"`
	Audio  []byte `json:"audio,omitempty"`
}

// Sent only to the connection whose command failed.
type errorMessage struct {
	Type    string `json:"type"` // "error"
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type kickedMessage struct {
	Type    string `json:"type"` // "kicked"
	Message string `json:"message"`
}

type sessionEndedMessage struct {
	Type   string `json:"type"` // "session_ended"
	Reason string `json:"reason"`
}

func newErrorMessage(err error) errorMessage {
	kind := game.Kind(err)

	msg := err.Error()
	if kind == game.KindInternal {
		msg = "An internal error has occurred. Please try again."
	}

	return errorMessage{
		Type:    "error",
		Kind:    kind,
		Message: msg,
	}
}
