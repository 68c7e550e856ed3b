package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	// sendBufferSize bounds the per-client queue of change notifications. A
	// client that cannot drain its queue has events dropped rather than
	// backing up the hub (see Hub.Broadcast).
	sendBufferSize = 16

	keepAliveInterval = 30 * time.Second
)

// Client is one connected browser session receiving family and invite
// change notifications.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run registers the client with the hub and pumps the connection until it
// closes, then unregisters. Notifications flow one way, hub to client;
// anything the client sends is read and discarded to keep the connection's
// control frames serviced.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump writes queued notifications to the connection and pings on an
// interval so dead peers are noticed and reaped.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Unregister closed the channel.
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
