/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Hitbox game gateway
//
// The host opens the root page on a shared screen and creates a session; the
// server answers with a six-character join code and a QR code pointing at
// /join/:code. Players open that page on their phones and join the lobby.
//
// Every browser talks to the server over one websocket at /ws. Messages are
// JSON objects with a "type" field. Each session has its own hub goroutine,
// so commands for one session are applied strictly one at a time while
// sessions never wait on each other.

package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/Seednode/hitbox/internal/game"
	"github.com/Seednode/hitbox/internal/narration"
	"github.com/Seednode/hitbox/internal/registry"
	"github.com/Seednode/hitbox/internal/songs"
)

type gateway struct {
	cfg      *Config
	registry *registry.Registry
	songs    songs.Provider
	narrator narration.Narrator
	logger   *zap.Logger

	mu   sync.Mutex
	hubs map[string]*hub
}

func newGateway(cfg *Config, reg *registry.Registry, provider songs.Provider, narrator narration.Narrator, logger *zap.Logger) *gateway {
	if narrator == nil {
		narrator = narration.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &gateway{
		cfg:      cfg,
		registry: reg,
		songs:    provider,
		narrator: narrator,
		logger:   logger,
		hubs:     make(map[string]*hub),
	}
}

// dispatch routes a decoded command to the hub of the session it targets.
func (g *gateway) dispatch(c *client, cmd command) {
	var h *hub

	switch cmd := cmd.(type) {
	case *createSession:
		var err error
		if h, err = g.open(c); err != nil {
			g.reject(c, err)

			return
		}
	case opener:
		code := registry.NormalizeCode(cmd.sessionCode())
		if h = g.hub(code); h == nil {
			g.reject(c, &game.NotFoundError{Kind: "session", ID: code})

			return
		}
	default:
		code, _ := c.session()
		if code == "" {
			g.reject(c, &game.ValidationError{Op: cmd.name(), Reason: "not in a session"})

			return
		}
		if h = g.hub(code); h == nil {
			g.reject(c, &game.NotFoundError{Kind: "session", ID: code})

			return
		}
	}

	if !h.post(envelope{client: c, cmd: cmd}) {
		g.reject(c, &game.NotFoundError{Kind: "session", ID: h.code})
	}
}

// open creates a session hosted by c and starts its hub.
func (g *gateway) open(c *client) (*hub, error) {
	if code, _ := c.session(); code != "" {
		return nil, &game.ValidationError{Op: "createSession", Reason: "connection is already in session " + code}
	}

	s, err := g.registry.CreateSession(c.id)
	if err != nil {
		return nil, err
	}

	c.bind(s.Code(), "")
	h := newHub(g, s)

	g.mu.Lock()
	g.hubs[h.code] = h
	g.mu.Unlock()

	go h.run()

	h.logger.Info("GAMES: session created", zap.Int("active", g.registry.Len()))

	return h, nil
}

func (g *gateway) hub(code string) *hub {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.hubs[code]
}

// forget drops everything the gateway keeps for a session.
func (g *gateway) forget(code string) {
	g.mu.Lock()
	delete(g.hubs, code)
	g.mu.Unlock()

	if f, ok := g.narrator.(narration.Forgetter); ok {
		f.Forget(code)
	}
}

// reject reports err to c alone.
func (g *gateway) reject(c *client, err error) {
	kind := game.Kind(err)

	switch kind {
	case game.KindInternal, game.KindExternal:
		g.logger.Warn("GAMES: command failed", zap.String("kind", kind), zap.Error(err))
	default:
		g.logger.Debug("GAMES: command rejected", zap.String("kind", kind), zap.Error(err))
	}

	if c != nil {
		c.deliver(newErrorMessage(err))
	}
}

func (g *gateway) disconnect(c *client) {
	code, closed := c.closeUnbound()
	if !closed {
		if h := g.hub(code); h != nil && h.post(envelope{client: c, cmd: &disconnect{}}) {
			return
		}
	}

	g.registry.Unbind(c.id)
	c.close()
}

// sweep ends sessions that have been idle longer than the session timeout.
func (g *gateway) sweep() {
	for _, code := range g.registry.Sweep(g.cfg.sessionTimeout) {
		if h := g.hub(code); h != nil {
			h.post(envelope{cmd: &expire{}})
		}
	}
}

func (g *gateway) reaperLoop(ctx context.Context) {
	if g.cfg.sessionTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(g.cfg.sessionTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// shutdown ends every live session.
func (g *gateway) shutdown() {
	g.mu.Lock()
	hubs := make([]*hub, 0, len(g.hubs))
	for _, h := range g.hubs {
		hubs = append(hubs, h)
	}
	g.mu.Unlock()

	for _, h := range hubs {
		h.post(envelope{cmd: &shutdown{}})
	}
}

// shutdown is posted to every hub when the server stops.
type shutdown struct{}

func (*shutdown) name() string { return "shutdown" }

func (*shutdown) handle(h *hub, _ *client) error {
	h.end("The server is shutting down.")

	return nil
}

func (g *gateway) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.logger.Debug("SERVE: websocket upgrade failed", zap.String("ip", realIP(r)), zap.Error(err))

			return
		}

		c := newClient(conn)

		g.logger.Debug("SERVE: websocket connected", zap.String("conn", c.id), zap.String("ip", realIP(r)))

		go c.writePump()
		c.readPump(g)
	}
}

// serveQR generates a PNG QR code pointing at a session's join page.
func (g *gateway) serveQR() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := registry.NormalizeCode(ps.ByName("code"))
		if !registry.ValidCode(code) {
			http.Error(w, "invalid join code", http.StatusBadRequest)

			return
		}

		if _, ok := g.registry.Get(code); !ok {
			http.Error(w, "no such game", http.StatusNotFound)

			return
		}

		png, err := qrcode.Encode(joinURL(g.cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(g.cfg, w)

		_, _ = w.Write(png)
	}
}

const qrSize = 320

// joinURL derives the public join URL of a session, respecting TLS and
// X-Forwarded-Proto if present.
func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + cfg.prefix + "/join/" + code
}

func (g *gateway) register(mux *httprouter.Router) {
	mux.GET(g.cfg.prefix+"/ws", g.serveWS())
	mux.GET(g.cfg.prefix+"/join/:code", serveIndex(g.cfg, g.logger))
	mux.GET(g.cfg.prefix+"/join/:code/qr", g.serveQR())
}
