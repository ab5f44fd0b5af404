/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/narration"
	"github.com/Seednode/hitbox/internal/registry"
	"github.com/Seednode/hitbox/internal/songs"
)

const (
	maxPreferenceLength = 500
	maxAvatarLength     = 512
)

// command is anything a hub can execute. Wire commands are decoded from
// client messages; the rest are posted by the server itself.
type command interface {
	name() string
	handle(h *hub, c *client) error
}

// validator is implemented by wire commands whose payload needs checking
// before it reaches a session.
type validator interface {
	validate() error
}

// opener is implemented by commands that address a session by join code
// rather than through the connection's existing binding.
type opener interface {
	sessionCode() string
}

var wireCommands = map[string]func() command{
	"createSession":      func() command { return &createSession{} },
	"confirmPreferences": func() command { return &confirmPreferences{} },
	"joinSession":        func() command { return &joinSession{} },
	"rejoinSession":      func() command { return &rejoinSession{} },
	"startGame":          func() command { return &startGame{} },
	"submitPlacement":    func() command { return &submitPlacement{} },
	"revealResults":      func() command { return &revealResults{} },
	"nextRound":          func() command { return &nextRound{} },
	"kickPlayer":         func() command { return &kickPlayer{} },
	"endGame":            func() command { return &endGame{} },
}

// decodeCommand parses and validates one client message.
func decodeCommand(data []byte) (command, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &game.ValidationError{Op: "decode message", Reason: "malformed JSON"}
	}

	newCommand, ok := wireCommands[head.Type]
	if !ok {
		return nil, &game.ValidationError{Op: "decode message", Reason: "unknown message type " + quote(head.Type)}
	}

	cmd := newCommand()
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, &game.ValidationError{Op: head.Type, Reason: "malformed payload"}
	}

	if v, ok := cmd.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func quote(s string) string {
	if utf8.RuneCountInString(s) > 32 {
		s = string([]rune(s)[:32]) + "..."
	}

	b, _ := json.Marshal(s)

	return string(b)
}

func invalid(op, reason string) error {
	return &game.ValidationError{Op: op, Reason: reason}
}

func checkName(op, field, value string, required bool) error {
	value = strings.TrimSpace(value)
	switch {
	case value == "" && required:
		return invalid(op, field+" is required")
	case utf8.RuneCountInString(value) > game.MaxNameLength:
		return invalid(op, field+" is too long")
	}

	return nil
}

func checkCode(op, code string) error {
	if !registry.ValidCode(registry.NormalizeCode(code)) {
		return invalid(op, "join code must be 6 letters or digits")
	}

	return nil
}

type createSession struct{}

func (*createSession) name() string { return "createSession" }

func (*createSession) handle(h *hub, c *client) error {
	h.clients[c] = true

	h.send(c, sessionCreatedMessage{
		Type:  "session_created",
		Code:  h.code,
		State: h.session.State(true),
	})

	return nil
}

type confirmPreferences struct {
	Preference string `json:"preference"`
}

func (*confirmPreferences) name() string { return "confirmPreferences" }

func (cmd *confirmPreferences) validate() error {
	cmd.Preference = strings.TrimSpace(cmd.Preference)

	switch {
	case cmd.Preference == "":
		return invalid(cmd.name(), "music preference is required")
	case utf8.RuneCountInString(cmd.Preference) > maxPreferenceLength:
		return invalid(cmd.name(), "music preference is too long")
	}

	return nil
}

func (cmd *confirmPreferences) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}
	if phase := h.session.Phase(); phase != game.PhaseSetup {
		return &game.StateError{Op: cmd.name(), Phase: phase}
	}
	if h.selecting {
		return invalid(cmd.name(), "songs are already being selected")
	}

	h.selecting = true
	go h.selectSongs(cmd.Preference)

	return nil
}

type joinSession struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	StageName string `json:"stageName"`
	Avatar    string `json:"avatar"`
}

func (*joinSession) name() string { return "joinSession" }

func (cmd *joinSession) sessionCode() string { return cmd.Code }

func (cmd *joinSession) validate() error {
	if err := checkCode(cmd.name(), cmd.Code); err != nil {
		return err
	}
	if err := checkName(cmd.name(), "name", cmd.Name, true); err != nil {
		return err
	}
	if err := checkName(cmd.name(), "stage name", cmd.StageName, false); err != nil {
		return err
	}
	if len(cmd.Avatar) > maxAvatarLength {
		return invalid(cmd.name(), "avatar is too long")
	}

	return nil
}

func (cmd *joinSession) handle(h *hub, c *client) error {
	if code, _ := c.session(); code != "" {
		return invalid(cmd.name(), "connection is already in session "+code)
	}

	if _, err := h.g.registry.BindConnection(h.code, c.id); err != nil {
		return err
	}

	p, err := h.session.AddPlayer(game.Join{
		ConnectionID: c.id,
		Name:         cmd.Name,
		StageName:    cmd.StageName,
		Avatar:       cmd.Avatar,
	})
	if err != nil {
		h.g.registry.Unbind(c.id)

		return err
	}

	if !c.bindOpen(h.code, p.ID) {
		_ = h.session.RemovePlayer(p.ID)
		h.g.registry.Unbind(c.id)

		return nil
	}
	h.clients[c] = true

	h.logger.Info("GAMES: player joined", zap.String("player", p.ID), zap.String("name", p.Name), zap.Int("start_year", p.StartYear))

	h.send(c, joinedMessage{Type: "joined", Code: h.code, Player: p})
	h.broadcastState()

	return nil
}

type rejoinSession struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

func (*rejoinSession) name() string { return "rejoinSession" }

func (cmd *rejoinSession) sessionCode() string { return cmd.Code }

func (cmd *rejoinSession) validate() error {
	if err := checkCode(cmd.name(), cmd.Code); err != nil {
		return err
	}
	if _, err := uuid.Parse(cmd.PlayerID); err != nil {
		return invalid(cmd.name(), "player id is malformed")
	}

	return nil
}

func (cmd *rejoinSession) handle(h *hub, c *client) error {
	if code, _ := c.session(); code != "" {
		return invalid(cmd.name(), "connection is already in session "+code)
	}

	_, p, err := h.g.registry.Rejoin(h.code, c.id, cmd.PlayerID)
	if err != nil {
		return err
	}

	for other := range h.clients {
		if _, playerID := other.session(); playerID == p.ID {
			h.g.registry.Unbind(other.id)
			h.detach(other, kickedMessage{Type: "kicked", Message: "You have rejoined from another device."})
		}
	}

	if !c.bindOpen(h.code, p.ID) {
		_, _ = h.session.MarkDisconnected(c.id)
		h.g.registry.Unbind(c.id)

		return nil
	}
	h.clients[c] = true

	h.logger.Info("GAMES: player rejoined", zap.String("player", p.ID), zap.String("name", p.Name))

	h.send(c, joinedMessage{Type: "joined", Code: h.code, Player: p})
	h.broadcastState()

	if h.session.Phase() == game.PhaseReveal {
		h.send(c, resultsMessage{
			Type:    "results_revealed",
			Results: h.session.LastResults(),
			State:   h.session.State(false),
		})
	}

	return nil
}

type startGame struct{}

func (*startGame) name() string { return "startGame" }

func (cmd *startGame) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}
	if err := h.session.StartGame(); err != nil {
		return err
	}

	h.logger.Info("GAMES: game started", zap.Int("players", h.session.PlayerCount()))
	h.broadcastState()

	return nil
}

type submitPlacement struct {
	Index *int `json:"index"`
}

func (*submitPlacement) name() string { return "submitPlacement" }

func (cmd *submitPlacement) validate() error {
	if cmd.Index == nil {
		return invalid(cmd.name(), "index is required")
	}
	if *cmd.Index < 0 {
		return invalid(cmd.name(), "index must not be negative")
	}

	return nil
}

func (cmd *submitPlacement) handle(h *hub, c *client) error {
	_, playerID := c.session()
	if playerID == "" {
		return invalid(cmd.name(), "only players may place songs")
	}

	if err := h.session.SubmitPlacement(playerID, *cmd.Index); err != nil {
		return err
	}

	h.send(c, placementAckMessage{Type: "placement_ack", Round: h.session.Round(), Index: *cmd.Index})

	// Only the host sees who is ready; players learn nothing until reveal.
	h.sendHost(stateMessage{Type: "session_state", State: h.session.State(true)})

	return nil
}

type revealResults struct{}

func (*revealResults) name() string { return "revealResults" }

func (cmd *revealResults) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}

	song, _ := h.session.CurrentSong()

	results, err := h.session.RevealResults()
	if err != nil {
		return err
	}

	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	h.logger.Info("GAMES: results revealed",
		zap.Int("round", h.session.Round()),
		zap.String("song", song.ID),
		zap.Int("placements", len(results)),
		zap.Int("correct", correct),
	)

	h.broadcastResults(results)
	h.narrate(song)

	return nil
}

type nextRound struct{}

func (*nextRound) name() string { return "nextRound" }

func (cmd *nextRound) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}
	if err := h.session.NextRound(); err != nil {
		return err
	}

	if h.session.Phase() == game.PhaseFinished {
		h.logger.Info("GAMES: song queue exhausted, game finished without a winner")
	}

	h.broadcastState()

	return nil
}

type kickPlayer struct {
	PlayerID string `json:"playerId"`
}

func (*kickPlayer) name() string { return "kickPlayer" }

func (cmd *kickPlayer) validate() error {
	if strings.TrimSpace(cmd.PlayerID) == "" {
		return invalid(cmd.name(), "player id is required")
	}

	return nil
}

func (cmd *kickPlayer) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}
	if err := h.session.RemovePlayer(cmd.PlayerID); err != nil {
		return err
	}

	for other := range h.clients {
		if _, playerID := other.session(); playerID == cmd.PlayerID {
			h.g.registry.Unbind(other.id)
			h.detach(other, kickedMessage{Type: "kicked", Message: "You have been removed by the host."})
		}
	}

	h.logger.Info("GAMES: player kicked", zap.String("player", cmd.PlayerID))
	h.broadcastState()

	return nil
}

type endGame struct{}

func (*endGame) name() string { return "endGame" }

func (cmd *endGame) handle(h *hub, c *client) error {
	if err := h.requireHost(c, cmd.name()); err != nil {
		return err
	}

	h.end("The host ended the game.")

	return nil
}

// songsReady carries the result of a song selection back into the hub.
type songsReady struct {
	preference string
	selection  songs.Selection
	err        error
}

func (*songsReady) name() string { return "songsReady" }

func (cmd *songsReady) handle(h *hub, _ *client) error {
	h.selecting = false

	if phase := h.session.Phase(); phase != game.PhaseSetup {
		h.logger.Debug("GAMES: discarding song selection", zap.Stringer("phase", phase))

		return nil
	}

	if cmd.err != nil {
		err := cmd.err
		var external *game.ExternalServiceError
		if !errors.As(err, &external) {
			err = &game.ExternalServiceError{Service: "song selection", Err: err}
		}

		h.logger.Warn("GAMES: song selection failed", zap.Error(err))
		h.sendHost(newErrorMessage(err))

		return nil
	}

	sel := cmd.selection
	if err := h.session.ConfirmPreferences(cmd.preference, sel.Songs, sel.StartYears); err != nil {
		h.sendHost(newErrorMessage(err))

		return nil
	}

	h.logger.Info("GAMES: lobby opened",
		zap.String("preference", cmd.preference),
		zap.Int("songs", len(sel.Songs)),
		zap.Int("start_min", sel.StartYears.Min),
		zap.Int("start_max", sel.StartYears.Max),
	)
	h.broadcastState()

	return nil
}

// narrationReady carries a finished narration clip back into the hub.
type narrationReady struct {
	round int
	clip  *narration.Clip
	err   error
}

func (*narrationReady) name() string { return "narrationReady" }

func (cmd *narrationReady) handle(h *hub, _ *client) error {
	switch {
	case cmd.err != nil:
		h.logger.Warn("GAMES: narration failed", zap.Error(&game.ExternalServiceError{Service: "narration", Err: cmd.err}))

		return nil
	case cmd.clip == nil:
		return nil
	case h.session.Round() != cmd.round:
		h.logger.Debug("GAMES: discarding stale narration", zap.Int("round", cmd.round))

		return nil
	}

	h.broadcast(narrationMessage{
		Type:   "narration",
		Round:  cmd.round,
		Script: cmd.clip.Script,
		Audio:  cmd.clip.Audio,
	})

	return nil
}

// disconnect is posted when a client's connection closes.
type disconnect struct{}

func (*disconnect) name() string { return "disconnect" }

func (*disconnect) handle(h *hub, c *client) error {
	delete(h.clients, c)
	c.unbind()
	c.close()

	removal, ok := h.g.registry.RemoveConnection(c.id)
	if !ok {
		return nil
	}

	if removal.WasHost {
		h.end("The host has left the game.")

		return nil
	}

	if removal.PlayerID != "" {
		h.logger.Info("GAMES: player disconnected", zap.String("player", removal.PlayerID))
		h.broadcastState()
	}

	return nil
}

// expire is posted when the registry swept the session for inactivity.
type expire struct{}

func (*expire) name() string { return "expire" }

func (*expire) handle(h *hub, _ *client) error {
	h.end("The game was closed after a period of inactivity.")

	return nil
}
