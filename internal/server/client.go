package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	pingInterval = 15 * time.Second
)

// Client is one websocket connection bound to a seat. A player may attach
// any number of clients; each gets the same frames.
type Client struct {
	tableID  string
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

// NewClient wraps an accepted connection for the given seat.
func NewClient(tableID, playerID string, conn *websocket.Conn) *Client {
	return &Client{
		tableID:  tableID,
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It owns closing the connection.
func (c *Client) writePump(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump decodes client frames and hands intents to the room. It returns
// when the connection drops. Intent handling runs under a background
// context so an automated-seat drive outlives the client that triggered it.
func (c *Client) readPump(ctx context.Context, room *Room) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.WithFields(log.Fields{"table": c.tableID, "player": c.playerID}).
				WithError(err).Warn("bad client frame")
			continue
		}
		switch frame.Type {
		case FrameIntent:
			if frame.Intent == nil {
				continue
			}
			room.HandleIntent(context.Background(), c.playerID, *frame.Intent)
		case FrameHello:
			// Already authenticated; treat a repeat hello as a sync request.
			room.SyncPlayer(c.playerID)
		}
	}
}
