/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 16 << 10
	sendBuffer     = 16
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket connection. Its id is the connection id the
// registry and sessions know it by.
type client struct {
	id   string
	conn *websocket.Conn
	send chan any

	mu       sync.Mutex
	code     string
	playerID string
	closed   bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, sendBuffer),
	}
}

// deliver queues msg without blocking. A client whose buffer is full is
// considered dead and closed.
func (c *client) deliver(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.closed = true
		close(c.send)

		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) bind(code, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.code, c.playerID = code, playerID
}

// bindOpen binds c unless it has already been closed.
func (c *client) bindOpen(code, playerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.code, c.playerID = code, playerID

	return true
}

// closeUnbound closes c if it is not bound to a session. Otherwise it
// returns the code of the session c is bound to.
func (c *client) closeUnbound() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.code != "" {
		return c.code, false
	}
	if !c.closed {
		c.closed = true
		close(c.send)
	}

	return "", true
}

func (c *client) unbind() {
	c.bind("", "")
}

// session returns the session code and player id the client is bound to.
func (c *client) session() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.code, c.playerID
}

func (c *client) readPump(g *gateway) {
	defer func() {
		g.disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("GAMES: connection dropped", zap.String("conn", c.id), zap.Error(err))
			}

			return
		}

		cmd, err := decodeCommand(data)
		if err != nil {
			g.reject(c, err)

			continue
		}

		g.dispatch(c, cmd)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
