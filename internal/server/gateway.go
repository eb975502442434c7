package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/internal/auth"
	"github.com/baizegames/parlor/internal/history"
)

// helloTimeout bounds how long an accepted socket may wait before its
// hello frame arrives.
const helloTimeout = 10 * time.Second

// Gateway exposes the REST surface and the websocket endpoint. Sessions
// are authenticated with the hello frame's token before a client attaches
// to its room.
type Gateway struct {
	hub      *Hub
	sessions *auth.Service
	hist     *history.Historian // nil disables the history endpoint
}

// NewGateway wires the HTTP layer to the hub.
func NewGateway(hub *Hub, sessions *auth.Service, hist *history.Historian) *Gateway {
	return &Gateway{hub: hub, sessions: sessions, hist: hist}
}

// Routes returns the gateway's handler.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tables", g.handleCreateTable)
	mux.HandleFunc("GET /tables", g.handleListTables)
	mux.HandleFunc("GET /tables/{id}/history", g.handleHistory)
	mux.HandleFunc("GET /ws", g.handleWS)
	mux.HandleFunc("GET /health", g.handleHealth)
	return mux
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createTableRequest struct {
	GameKind string          `json:"gameKind"`
	Players  []engine.Player `json:"players"`
}

type createTableResponse struct {
	TableID  string            `json:"tableId"`
	GameKind string            `json:"gameKind"`
	Tokens   map[string]string `json:"tokens,omitempty"`
}

func (g *Gateway) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	room, err := g.hub.CreateRoom(req.GameKind, req.Players)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := createTableResponse{TableID: room.ID, GameKind: room.GameKind()}
	for _, p := range req.Players {
		if p.Automated {
			continue
		}
		token, err := g.sessions.Issue(room.ID, p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session issue failed")
			return
		}
		if resp.Tokens == nil {
			resp.Tokens = make(map[string]string)
		}
		resp.Tokens[p.ID] = token
	}
	writeJSON(w, http.StatusCreated, resp)
}

type tableSummary struct {
	ID       string          `json:"id"`
	GameKind string          `json:"gameKind"`
	Players  []engine.Player `json:"players"`
}

func (g *Gateway) handleListTables(w http.ResponseWriter, r *http.Request) {
	rooms := g.hub.Rooms()
	out := make([]tableSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, tableSummary{
			ID:       room.ID,
			GameKind: room.GameKind(),
			Players:  room.Players(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	if g.hist == nil {
		writeError(w, http.StatusNotFound, "history is not configured")
		return
	}
	id := r.PathValue("id")
	if _, ok := g.hub.Room(id); !ok {
		writeError(w, http.StatusNotFound, "no such table")
		return
	}
	n := int64(100)
	if q := r.URL.Query().Get("n"); q != "" {
		if parsed, err := strconv.ParseInt(q, 10, 64); err == nil && parsed > 0 {
			n = parsed
		}
	}
	entries, err := g.hist.Recent(r.Context(), id, n)
	if err != nil {
		writeError(w, http.StatusBadGateway, "history read failed")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	helloCtx, cancel := context.WithTimeout(r.Context(), helloTimeout)
	claims, err := g.readHello(helloCtx, conn)
	cancel()
	if err != nil {
		log.WithError(err).Info("websocket hello rejected")
		_ = conn.Close(websocket.StatusPolicyViolation, "authentication required")
		return
	}

	client := NewClient(claims.TableID, claims.PlayerID, conn)
	if err := g.hub.Attach(r.Context(), client); err != nil {
		log.WithError(err).Info("websocket attach rejected")
		_ = conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
}

// readHello waits for the hello frame and verifies its session token.
func (g *Gateway) readHello(ctx context.Context, conn *websocket.Conn) (*auth.SessionClaims, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	if frame.Type != FrameHello {
		return nil, auth.ErrInvalidToken
	}
	return g.sessions.Verify(frame.Token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
