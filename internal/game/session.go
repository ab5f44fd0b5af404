/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultMaxPlayers = 8
	WinningScore      = 10
	MaxNameLength     = 32
)

// Options tunes a new Session. Zero values select the defaults.
type Options struct {
	MaxPlayers int
	Now        func() time.Time
	// Intn returns a value in [0,n); used to draw start years.
	Intn  func(n int) int
	NewID func() string
}

// Session is the state machine of a single game. Every exported method runs
// to completion under the session lock, so callers never observe a partial
// transition.
type Session struct {
	mu sync.Mutex

	code       string
	hostConnID string
	phase      Phase
	preference string
	yearRange  YearRange
	queue      []Song
	round      int
	current    *Song
	players    []*Player
	staged     map[string]int
	results    []RoundResult
	winnerID   string
	createdAt  time.Time
	lastActive time.Time

	maxPlayers int
	now        func() time.Time
	intn       func(int) int
	newID      func() string
}

// NewSession creates a session in the setup phase, owned by hostConnID.
func NewSession(code, hostConnID string, opts Options) *Session {
	s := &Session{
		code:       code,
		hostConnID: hostConnID,
		phase:      PhaseSetup,
		staged:     make(map[string]int),
		maxPlayers: opts.MaxPlayers,
		now:        opts.Now,
		intn:       opts.Intn,
		newID:      opts.NewID,
	}

	if s.maxPlayers <= 0 {
		s.maxPlayers = DefaultMaxPlayers
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.intn == nil {
		s.intn = rand.IntN
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.createdAt = s.now()
	s.lastActive = s.createdAt

	return s
}

// ConfirmPreferences records the host's music preference together with the
// song queue and start-year range already produced for it, and opens the lobby.
func (s *Session) ConfirmPreferences(text string, queue []Song, years YearRange) error {
	const op = "confirm preferences"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseSetup {
		return wrongPhase(op, s.phase)
	}

	songs := make([]Song, 0, len(queue))
	seen := make(map[string]bool, len(queue))
	for _, song := range queue {
		if song.ID == "" || song.StartCard || seen[song.ID] {
			continue
		}
		seen[song.ID] = true
		songs = append(songs, song)
	}
	if len(songs) == 0 {
		return invalid(op, "song queue is empty")
	}

	if years == (YearRange{}) {
		years = DefaultYearRange
	}
	if years.Min > years.Max {
		return invalid(op, "start year range %d-%d is inverted", years.Min, years.Max)
	}

	s.preference = strings.TrimSpace(text)
	s.queue = songs
	s.yearRange = years
	s.advance(PhaseLobby)

	return nil
}

// AddPlayer admits a new player to the lobby and returns its state.
func (s *Session) AddPlayer(j Join) (PlayerState, error) {
	const op = "add player"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return PlayerState{}, wrongPhase(op, s.phase)
	}

	name := strings.TrimSpace(j.Name)
	switch {
	case name == "":
		return PlayerState{}, invalid(op, "name is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return PlayerState{}, invalid(op, "name is longer than %d characters", MaxNameLength)
	case len(s.players) >= s.maxPlayers:
		return PlayerState{}, invalid(op, "session is full (%d players)", s.maxPlayers)
	case j.ConnectionID != "" && j.ConnectionID == s.hostConnID:
		return PlayerState{}, invalid(op, "the host cannot join as a player")
	}

	key := foldName(name)
	for _, p := range s.players {
		if foldName(p.Name) == key {
			return PlayerState{}, invalid(op, "name %q is already taken", name)
		}
		if j.ConnectionID != "" && p.ConnectionID == j.ConnectionID {
			return PlayerState{}, invalid(op, "connection has already joined as %q", p.Name)
		}
	}

	id := s.newID()
	start := s.yearRange.Min + s.intn(s.yearRange.Max-s.yearRange.Min+1)

	p := &Player{
		ID:           id,
		ConnectionID: j.ConnectionID,
		Name:         name,
		StageName:    strings.TrimSpace(j.StageName),
		Avatar:       strings.TrimSpace(j.Avatar),
		StartYear:    start,
		Timeline:     []Song{{ID: "start:" + id, Year: start, StartCard: true}},
		Connected:    true,
	}
	s.players = append(s.players, p)
	s.touch()

	return p.state(), nil
}

// StartGame draws the first song and begins round one.
func (s *Session) StartGame() error {
	const op = "start game"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseLobby {
		return wrongPhase(op, s.phase)
	}
	if len(s.players) == 0 {
		return invalid(op, "at least one player is required")
	}

	s.round = 1
	s.beginRound()
	s.advance(PhasePlaying)

	return nil
}

// SubmitPlacement stages playerID's guess for the current song. A later
// submission in the same round replaces the earlier one.
func (s *Session) SubmitPlacement(playerID string, index int) error {
	const op = "submit placement"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return wrongPhase(op, s.phase)
	}

	p := s.player(playerID)
	if p == nil {
		return &NotFoundError{Kind: "player", ID: playerID}
	}
	if index < 0 || index > len(p.Timeline) {
		return invalid(op, "index %d outside [0,%d]", index, len(p.Timeline))
	}

	s.staged[p.ID] = index
	p.Ready = true
	s.touch()

	return nil
}

// RevealResults scores every staged placement in roster order. Players who
// did not submit are skipped: they get no RoundResult and keep their score.
// The first player in roster order to reach WinningScore wins the game.
func (s *Session) RevealResults() ([]RoundResult, error) {
	const op = "reveal results"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return nil, wrongPhase(op, s.phase)
	}

	song := *s.current
	results := make([]RoundResult, 0, len(s.staged))

	for _, p := range s.players {
		index, ok := s.staged[p.ID]
		if !ok {
			continue
		}

		correct := fits(p.Timeline, index, song.Year) && !containsSong(p.Timeline, song.ID)
		if correct {
			p.Timeline = insertAt(p.Timeline, index, song)
			if p.Score < WinningScore {
				p.Score++
			}
		}

		if p.Score >= WinningScore && s.winnerID == "" {
			s.winnerID = p.ID
		}

		results = append(results, RoundResult{
			PlayerID: p.ID,
			Index:    index,
			Correct:  correct,
			Song:     song,
			Score:    p.Score,
		})
	}

	s.staged = make(map[string]int)
	s.results = results
	s.touch()

	if s.winnerID != "" {
		s.current = nil
		s.advance(PhaseFinished)
	} else {
		s.advance(PhaseReveal)
	}

	out := make([]RoundResult, len(results))
	copy(out, results)

	return out, nil
}

// NextRound draws the next song, or finishes the game without a winner when
// the queue is exhausted.
func (s *Session) NextRound() error {
	const op = "next round"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseReveal {
		return wrongPhase(op, s.phase)
	}

	if len(s.queue) == 0 {
		s.current = nil
		s.touch()
		s.advance(PhaseFinished)

		return nil
	}

	s.round++
	s.beginRound()
	s.advance(PhasePlaying)

	return nil
}

// MarkDisconnected flags the player bound to connID as gone. Timeline and
// score are untouched so the player can pick up where they left off.
func (s *Session) MarkDisconnected(connID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID == s.hostConnID {
		return "", invalid("mark disconnected", "the host connection is not a player")
	}

	for _, p := range s.players {
		if p.ConnectionID == connID {
			p.Connected = false
			p.ConnectionID = ""
			s.touch()

			return p.ID, nil
		}
	}

	return "", &NotFoundError{Kind: "connection", ID: connID}
}

// MarkReconnected binds connID to an existing player.
func (s *Session) MarkReconnected(connID, playerID string) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.player(playerID)
	if p == nil {
		return PlayerState{}, &NotFoundError{Kind: "player", ID: playerID}
	}
	if connID == s.hostConnID {
		return PlayerState{}, invalid("mark reconnected", "the host connection is not a player")
	}

	p.ConnectionID = connID
	p.Connected = true
	s.touch()

	return p.state(), nil
}

// RemovePlayer drops a player from the roster along with any staged placement.
func (s *Session) RemovePlayer(playerID string) error {
	const op = "remove player"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseSetup || s.phase == PhaseFinished {
		return wrongPhase(op, s.phase)
	}

	for i, p := range s.players {
		if p.ID != playerID {
			continue
		}

		s.players = append(s.players[:i:i], s.players[i+1:]...)
		delete(s.staged, playerID)
		s.touch()

		return nil
	}

	return &NotFoundError{Kind: "player", ID: playerID}
}

// beginRound pops the next song and clears readiness. Caller holds s.mu.
func (s *Session) beginRound() {
	song := s.queue[0]
	s.queue = s.queue[1:]
	s.current = &song
	s.staged = make(map[string]int)
	s.results = nil

	for _, p := range s.players {
		p.Ready = false
	}

	s.touch()
}

// advance moves to next, which must be a legal edge. Caller holds s.mu.
func (s *Session) advance(next Phase) {
	if !s.phase.CanTransitionTo(next) {
		panic("game: illegal transition " + s.phase.String() + " -> " + next.String())
	}

	s.phase = next
}

func (s *Session) player(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (s *Session) touch() {
	s.lastActive = s.now()
}
