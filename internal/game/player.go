/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Player is one participant in a session. ID is stable across reconnects;
// ConnectionID changes every time the player's device reconnects.
type Player struct {
	ID           string
	ConnectionID string
	Name         string
	StageName    string
	Avatar       string
	StartYear    int
	Timeline     []Song
	Score        int
	Ready        bool
	Connected    bool
}

// Join carries what a player supplies when entering the lobby.
type Join struct {
	ConnectionID string
	Name         string
	StageName    string
	Avatar       string
}

// PlayerState is the broadcast view of a player.
type PlayerState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StageName string `json:"stageName,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	StartYear int    `json:"startYear"`
	Timeline  []Song `json:"timeline"`
	Score     int    `json:"score"`
	Ready     bool   `json:"isReady"`
	Connected bool   `json:"connected"`
}

func (p *Player) state() PlayerState {
	timeline := make([]Song, len(p.Timeline))
	copy(timeline, p.Timeline)

	return PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		StageName: p.StageName,
		Avatar:    p.Avatar,
		StartYear: p.StartYear,
		Timeline:  timeline,
		Score:     p.Score,
		Ready:     p.Ready,
		Connected: p.Connected,
	}
}

var folder = cases.Fold()

// foldName produces the comparison key used to reject duplicate display names.
func foldName(name string) string {
	return folder.String(norm.NFC.String(strings.TrimSpace(name)))
}
