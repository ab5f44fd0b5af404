/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/narration"
)

const inboxSize = 64

type envelope struct {
	client *client
	cmd    command
}

// hub serializes every command for one session on a single goroutine.
// clients and selecting are only touched from that goroutine.
type hub struct {
	g       *gateway
	code    string
	session *game.Session
	logger  *zap.Logger

	inbox     chan envelope
	clients   map[*client]bool
	selecting bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newHub(g *gateway, s *game.Session) *hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &hub{
		g:       g,
		code:    s.Code(),
		session: s,
		logger:  g.logger.With(zap.String("code", s.Code())),
		inbox:   make(chan envelope, inboxSize),
		clients: make(map[*client]bool),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case env := <-h.inbox:
			h.exec(env)
		case <-h.done:
			return
		}
	}
}

// post hands env to the hub, reporting false once the hub has stopped.
func (h *hub) post(env envelope) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.inbox <- env:
		return true
	case <-h.done:
		return false
	}
}

func (h *hub) stop() {
	h.once.Do(func() {
		h.cancel()
		close(h.done)
	})
}

func (h *hub) exec(env envelope) {
	select {
	case <-h.done:
		return
	default:
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("GAMES: command panicked",
				zap.String("command", env.cmd.name()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			if env.client != nil {
				env.client.deliver(newErrorMessage(fmt.Errorf("%s: %v", env.cmd.name(), r)))
			}
		}
	}()

	startTime := time.Now()

	if err := env.cmd.handle(h, env.client); err != nil {
		h.g.reject(env.client, err)

		return
	}

	h.logger.Debug("GAMES: handled command",
		zap.String("command", env.cmd.name()),
		zap.Duration("took", time.Since(startTime).Round(time.Microsecond)),
	)
}

func (h *hub) requireHost(c *client, op string) error {
	if c == nil || c.id != h.session.HostConnectionID() {
		return &game.ValidationError{Op: op, Reason: "only the host may do this"}
	}

	return nil
}

func (h *hub) send(c *client, msg any) {
	if !c.deliver(msg) {
		delete(h.clients, c)
	}
}

func (h *hub) sendHost(msg any) {
	host := h.session.HostConnectionID()
	for c := range h.clients {
		if c.id == host {
			h.send(c, msg)
		}
	}
}

func (h *hub) broadcast(msg any) {
	for c := range h.clients {
		h.send(c, msg)
	}
}

// broadcastState sends every client its view of the session.
func (h *hub) broadcastState() {
	hostView := stateMessage{Type: "session_state", State: h.session.State(true)}
	playerView := stateMessage{Type: "session_state", State: h.session.State(false)}

	h.fanOut(hostView, playerView)
}

func (h *hub) broadcastResults(results []game.RoundResult) {
	h.fanOut(
		resultsMessage{Type: "results_revealed", Results: results, State: h.session.State(true)},
		resultsMessage{Type: "results_revealed", Results: results, State: h.session.State(false)},
	)
}

func (h *hub) fanOut(hostMsg, playerMsg any) {
	host := h.session.HostConnectionID()
	for c := range h.clients {
		if c.id == host {
			h.send(c, hostMsg)
		} else {
			h.send(c, playerMsg)
		}
	}
}

// detach removes c from the hub after sending it a final message.
func (h *hub) detach(c *client, msg any) {
	delete(h.clients, c)
	c.unbind()
	c.deliver(msg)
	c.close()
}

// end tells every client the session is over, removes it everywhere and
// stops the hub.
func (h *hub) end(reason string) {
	for c := range h.clients {
		h.detach(c, sessionEndedMessage{Type: "session_ended", Reason: reason})
	}

	h.g.registry.DeleteSession(h.code)
	h.g.forget(h.code)
	h.stop()

	h.logger.Info("GAMES: session ended", zap.String("reason", reason))
}

// selectSongs runs outside the hub loop and posts its result back.
func (h *hub) selectSongs(preference string) {
	ctx, cancel := context.WithTimeout(h.ctx, h.g.cfg.providerTimeout)
	defer cancel()

	sel, err := h.g.songs.Select(ctx, preference)

	if !h.post(envelope{cmd: &songsReady{preference: preference, selection: sel, err: err}}) {
		h.logger.Debug("GAMES: session gone, dropping song selection")
	}
}

func (h *hub) narrate(song game.Song) {
	cue := narration.Cue{
		Code:     h.code,
		Song:     song,
		Round:    h.session.Round(),
		Finished: h.session.Phase() == game.PhaseFinished,
		Theme:    h.session.Preference(),
	}
	if id, ok := h.session.Winner(); ok {
		if p, ok := h.session.Player(id); ok {
			cue.WinnerName = p.Name
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(h.ctx, h.g.cfg.providerTimeout)
		defer cancel()

		clip, err := h.g.narrator.Narrate(ctx, cue)

		h.post(envelope{cmd: &narrationReady{round: cue.Round, clip: clip, err: err}})
	}()
}
