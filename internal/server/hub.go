package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/baizegames/parlor/engine"
)

// Hub owns every open room and the websocket clients attached to them.
// It never calls into a room while holding its own lock; rooms call back
// into the hub (via SendFn) while holding theirs.
type Hub struct {
	reg  *engine.Registry
	deps Deps

	mu      sync.RWMutex
	rooms   map[string]*Room
	clients map[string]map[*Client]struct{} // table id -> attached clients
}

// NewHub returns a hub creating rooms from the given registry.
func NewHub(reg *engine.Registry, deps Deps) *Hub {
	return &Hub{
		reg:     reg,
		deps:    deps,
		rooms:   make(map[string]*Room),
		clients: make(map[string]map[*Client]struct{}),
	}
}

// CreateRoom opens a table for gameKind and starts it. All-automated
// tables play out on a background goroutine.
func (h *Hub) CreateRoom(gameKind string, players []engine.Player) (*Room, error) {
	mod, ok := h.reg.Lookup(gameKind)
	if !ok {
		return nil, fmt.Errorf("unknown game kind %q", gameKind)
	}
	id := uuid.NewString()
	room, err := NewRoom(id, mod, players, h.deps)
	if err != nil {
		return nil, err
	}
	room.SendFn = func(playerID string, frame ServerFrame) {
		h.sendToPlayer(id, playerID, frame)
	}

	h.mu.Lock()
	h.rooms[id] = room
	h.mu.Unlock()

	allBots := len(players) > 0
	for _, p := range players {
		if !p.Automated {
			allBots = false
			break
		}
	}
	if allBots {
		go room.Start(context.Background())
	} else {
		room.Start(context.Background())
	}
	return room, nil
}

// Room returns the open room with the given id.
func (h *Hub) Room(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	return room, ok
}

// Rooms snapshots the open rooms.
func (h *Hub) Rooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		out = append(out, room)
	}
	return out
}

// Attach registers the client, syncs it, and serves its read loop until
// the connection drops.
func (h *Hub) Attach(ctx context.Context, c *Client) error {
	room, ok := h.Room(c.tableID)
	if !ok {
		return fmt.Errorf("no such table %q", c.tableID)
	}
	if !room.Seated(c.playerID) {
		return fmt.Errorf("player %q is not seated at table %q", c.playerID, c.tableID)
	}

	h.mu.Lock()
	set := h.clients[c.tableID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.tableID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	log.WithFields(log.Fields{"table": c.tableID, "player": c.playerID}).Info("client attached")
	defer h.detach(c)

	go c.writePump(ctx)
	room.SyncPlayer(c.playerID)
	c.readPump(ctx, room)
	return nil
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	if set := h.clients[c.tableID]; set != nil {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.tableID)
		}
	}
	h.mu.Unlock()
	log.WithFields(log.Fields{"table": c.tableID, "player": c.playerID}).Info("client detached")
}

// sendToPlayer fans one frame out to every client the player has attached
// to the table. Slow clients drop frames rather than block the room.
func (h *Hub) sendToPlayer(tableID, playerID string, frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.WithFields(log.Fields{"table": tableID, "player": playerID}).
			WithError(err).Error("frame marshal failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[tableID] {
		if c.playerID != playerID {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}
