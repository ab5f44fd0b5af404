/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "time"

// State is a point-in-time copy of a session, safe to serialize and broadcast.
type State struct {
	Code           string        `json:"code"`
	Phase          Phase         `json:"phase"`
	Preference     string        `json:"preference,omitempty"`
	Round          int           `json:"round"`
	SongsRemaining int           `json:"songsRemaining"`
	CurrentSong    *Song         `json:"currentSong"`
	YearRange      YearRange     `json:"yearRange"`
	Players        []PlayerState `json:"players"`
	WinnerID       string        `json:"winnerId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// State snapshots the session. While a round is playing, only the host view
// carries the song's identifying details.
func (s *Session) State(forHost bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Code:           s.code,
		Phase:          s.phase,
		Preference:     s.preference,
		Round:          s.round,
		SongsRemaining: len(s.queue),
		YearRange:      s.yearRange,
		Players:        make([]PlayerState, 0, len(s.players)),
		WinnerID:       s.winnerID,
		CreatedAt:      s.createdAt,
	}

	if s.current != nil {
		song := *s.current
		if s.phase == PhasePlaying && !forHost {
			song = Song{PreviewURL: song.PreviewURL}
		}
		st.CurrentSong = &song
	}

	for _, p := range s.players {
		st.Players = append(st.Players, p.state())
	}

	return st
}

func (s *Session) Code() string {
	return s.code
}

func (s *Session) HostConnectionID() string {
	return s.hostConnID
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.round
}

func (s *Session) Preference() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.preference
}

// CurrentSong returns the song in play, if any.
func (s *Session) CurrentSong() (Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Song{}, false
	}

	return *s.current, true
}

// Winner returns the winning player's id once the game has been won.
func (s *Session) Winner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.winnerID, s.winnerID != ""
}

// Player returns a copy of the player with the given id.
func (s *Session) Player(id string) (PlayerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.player(id)
	if p == nil {
		return PlayerState{}, false
	}

	return p.state(), true
}

// PlayerByConnection resolves the player currently bound to connID.
func (s *Session) PlayerByConnection(connID string) (PlayerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		if p.ConnectionID == connID {
			return p.state(), true
		}
	}

	return PlayerState{}, false
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.players)
}

// LastResults returns the results of the most recent reveal.
func (s *Session) LastResults() []RoundResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RoundResult, len(s.results))
	copy(out, s.results)

	return out
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

// Touch records activity that did not change game state, such as a new
// connection being bound.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
}
