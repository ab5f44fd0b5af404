/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package registry tracks the live game sessions of one server process: it
// hands out join codes, maps connections to sessions and tears sessions down
// when their host leaves.
package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
)

// Registry is safe for concurrent use. Both tables are guarded by one lock
// so that a connection can never be bound to a session that is concurrently
// being deleted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session // code -> session
	conns    map[string]string        // connection id -> code

	newCode     func() string
	now         func() time.Time
	sessionOpts game.Options
	logger      *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithCodeGenerator replaces RandomCode, mainly for tests.
func WithCodeGenerator(f func() string) Option {
	return func(r *Registry) {
		r.newCode = f
	}
}

// WithClock sets the time source used by the registry and its sessions.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
		r.sessionOpts.Now = now
	}
}

// WithSessionOptions sets the options every new session is created with.
func WithSessionOptions(opts game.Options) Option {
	return func(r *Registry) {
		now := r.sessionOpts.Now
		r.sessionOpts = opts
		if r.sessionOpts.Now == nil {
			r.sessionOpts.Now = now
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*game.Session),
		conns:    make(map[string]string),
		newCode:  RandomCode,
		now:      time.Now,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Removal describes what RemoveConnection did.
type Removal struct {
	Session *game.Session
	Code    string
	// WasHost is true when the connection owned the session, which has
	// therefore been deleted.
	WasHost bool
	// PlayerID is the player marked disconnected, if any.
	PlayerID string
}

// CreateSession opens a new session in the setup phase owned by hostConnID.
func (r *Registry) CreateSession(hostConnID string) (*game.Session, error) {
	if hostConnID == "" {
		return nil, &game.ValidationError{Op: "create session", Reason: "connection id is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if code, ok := r.conns[hostConnID]; ok {
		return nil, &game.ValidationError{Op: "create session", Reason: "connection is already bound to session " + code}
	}

	code := r.newCode()
	for attempts := 1; r.sessions[code] != nil; attempts++ {
		r.logger.Debug("join code collision", zap.String("code", code), zap.Int("attempt", attempts))
		code = r.newCode()
	}

	s := game.NewSession(code, hostConnID, r.sessionOpts)
	r.sessions[code] = s
	r.conns[hostConnID] = code

	r.logger.Info("session created", zap.String("code", code), zap.Int("active", len(r.sessions)))

	return s, nil
}

// Get looks a session up by join code, ignoring case.
func (r *Registry) Get(code string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[NormalizeCode(code)]

	return s, ok
}

// GetByConnection returns the session connID is bound to.
func (r *Registry) GetByConnection(connID string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.conns[connID]
	if !ok {
		return nil, false
	}

	s, ok := r.sessions[code]

	return s, ok
}

// BindConnection associates a joining connection with a session whose lobby
// is open.
func (r *Registry) BindConnection(code, connID string) (*game.Session, error) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[code]
	if !ok {
		return nil, &game.NotFoundError{Kind: "session", ID: code}
	}
	if phase := s.Phase(); phase != game.PhaseLobby {
		return nil, &game.StateError{Op: "join session", Phase: phase}
	}
	if bound, ok := r.conns[connID]; ok && bound != code {
		return nil, &game.ValidationError{Op: "join session", Reason: "connection is already bound to session " + bound}
	}

	r.conns[connID] = code
	s.Touch()

	return s, nil
}

// Rejoin binds connID to an existing player of the session, in any phase
// before the game has finished.
func (r *Registry) Rejoin(code, connID, playerID string) (*game.Session, game.PlayerState, error) {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[code]
	if !ok {
		return nil, game.PlayerState{}, &game.NotFoundError{Kind: "session", ID: code}
	}
	if phase := s.Phase(); phase == game.PhaseFinished {
		return nil, game.PlayerState{}, &game.StateError{Op: "rejoin session", Phase: phase}
	}
	if bound, ok := r.conns[connID]; ok && bound != code {
		return nil, game.PlayerState{}, &game.ValidationError{Op: "rejoin session", Reason: "connection is already bound to session " + bound}
	}

	p, err := s.MarkReconnected(connID, playerID)
	if err != nil {
		return nil, game.PlayerState{}, err
	}

	r.conns[connID] = code
	r.logger.Debug("player reconnected", zap.String("code", code), zap.String("player", playerID))

	return s, p, nil
}

// RemoveConnection unbinds connID. When connID hosts its session, the whole
// session is deleted; otherwise its player is only marked disconnected and
// stays on the roster for a later Rejoin.
func (r *Registry) RemoveConnection(connID string) (Removal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.conns[connID]
	if !ok {
		return Removal{}, false
	}
	delete(r.conns, connID)

	s, ok := r.sessions[code]
	if !ok {
		return Removal{}, false
	}

	if s.HostConnectionID() == connID {
		r.deleteLocked(code)
		r.logger.Info("host left, session deleted", zap.String("code", code))

		return Removal{Session: s, Code: code, WasHost: true}, true
	}

	removal := Removal{Session: s, Code: code}
	if playerID, err := s.MarkDisconnected(connID); err == nil {
		removal.PlayerID = playerID
	}

	return removal, true
}

// Unbind drops the binding of connID without touching the session, used
// after a kicked player's connection is closed.
func (r *Registry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
}

// DeleteSession removes the session and every connection bound to it.
func (r *Registry) DeleteSession(code string) bool {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[code]; !ok {
		return false
	}

	r.deleteLocked(code)
	r.logger.Info("session deleted", zap.String("code", code))

	return true
}

// Sweep deletes sessions with no activity for longer than idle and returns
// their codes.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for code, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			r.deleteLocked(code)
			removed = append(removed, code)
		}
	}

	if len(removed) > 0 {
		r.logger.Info("idle sessions swept", zap.Strings("codes", removed))
	}

	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (r *Registry) deleteLocked(code string) {
	delete(r.sessions, code)

	for conn, bound := range r.conns {
		if bound == code {
			delete(r.conns, conn)
		}
	}
}
