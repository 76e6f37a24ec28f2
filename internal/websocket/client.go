package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 32
	pingInterval   = 30 * time.Second
)

// Client represents a single WebSocket connection. The feed is one-way:
// incoming frames are read only to detect disconnects.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	send     chan []byte
	entities map[string]struct{} // nil means all entities
}

// NewClient creates a Client tied to the given hub and connection. A
// non-empty entities list narrows the feed to those entity types.
func NewClient(hub *Hub, conn *ws.Conn, entities []string) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	if len(entities) > 0 {
		c.entities = make(map[string]struct{}, len(entities))
		for _, e := range entities {
			c.entities[e] = struct{}{}
		}
	}
	return c
}

func (c *Client) wants(entity string) bool {
	if c.entities == nil {
		return true
	}
	_, ok := c.entities[entity]
	return ok
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards incoming messages until the connection closes, which
// triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel — connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
