package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/baizegames/parlor/candidates"
	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/internal/history"
	"github.com/baizegames/parlor/internal/store"
	"github.com/baizegames/parlor/policy"
	"github.com/baizegames/parlor/view"
)

// maxDriveMoves stops a drive loop whose module never reaches a human seat
// or an ending.
const maxDriveMoves = 10000

// Deps carries the shared collaborators a room needs. Store may be nil and
// History may be nil; the room then plays without persistence.
type Deps struct {
	Salt           string
	History        history.Appender
	Store          *store.Store
	Chooser        policy.Chooser
	FirstCandidate bool
	AITimeout      time.Duration
}

// Room hosts one table. All intent handling for the table funnels through
// its mutex; views and candidate lists leave the room already remapped into
// each viewer's token space.
type Room struct {
	ID  string
	mod engine.Ruleset

	// SendFn delivers one frame to one player. The hub wires it to the
	// player's websocket clients; nil drops every frame.
	SendFn func(playerID string, frame ServerFrame)

	mu       sync.Mutex
	table    *engine.Table
	remap    map[string]*view.Remapper
	recorder *history.Recorder
	results  *store.Store
	pipeline *policy.Pipeline
	handNo   int
}

// NewRoom opens a table for the given module and seats.
func NewRoom(id string, mod engine.Ruleset, players []engine.Player, deps Deps) (*Room, error) {
	table, err := engine.NewTable(id, players, mod)
	if err != nil {
		return nil, err
	}
	r := &Room{
		ID:       id,
		mod:      mod,
		table:    table,
		remap:    make(map[string]*view.Remapper, len(players)),
		recorder: history.NewRecorder(deps.History, id),
		results:  deps.Store,
	}
	// The card set is fixed at setup, so each seat's remapper is built once.
	for _, p := range players {
		r.remap[p.ID] = view.RemapperForTable(deps.Salt, table, p.ID)
	}
	r.pipeline = &policy.Pipeline{
		Chooser:        deps.Chooser,
		Auditor:        r.recorder,
		FirstCandidate: deps.FirstCandidate,
		Timeout:        deps.AITimeout,
	}
	r.recorder.Record("", "table_open", map[string]any{
		"gameKind": table.GameKind,
		"players":  players,
	})
	log.WithFields(log.Fields{"table": id, "gameKind": table.GameKind}).Info("table opened")
	return r, nil
}

// GameKind returns the table's game kind.
func (r *Room) GameKind() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.GameKind
}

// Players snapshots the seats.
func (r *Room) Players() []engine.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Player(nil), r.table.Players...)
}

// Seated reports whether playerID holds a seat.
func (r *Room) Seated(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Seated(playerID)
}

// Start broadcasts the opening state and, on an all-automated table, plays
// it to completion.
func (r *Room) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast()
	r.driveAutomated(ctx)
}

// SyncPlayer resends the current view and candidates to one player, e.g.
// after a reconnect.
func (r *Room) SyncPlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table.FatalMessage != "" {
		r.send(playerID, fatalFrame(r.table.FatalMessage))
		return
	}
	p, ok := r.table.PlayerByID(playerID)
	if !ok {
		return
	}
	r.syncSeat(p)
}

// HandleIntent validates and applies one intent from a connected player.
// The intent arrives in the player's token space; the room translates it
// and stamps the authenticated seat over whatever ids the client wrote.
func (r *Room) HandleIntent(ctx context.Context, playerID string, in engine.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table.FatalMessage != "" {
		r.send(playerID, fatalFrame(r.table.FatalMessage))
		return
	}
	if r.table.Winner != "" {
		r.send(playerID, errorFrame("the match is already decided"))
		return
	}
	rm := r.remap[playerID]
	if rm == nil {
		r.send(playerID, errorFrame("you are not seated at this table"))
		return
	}
	real, err := rm.UnmapIntent(in)
	if err != nil {
		r.send(playerID, errorFrame("intent names a card you cannot see"))
		return
	}
	real.GameID = r.ID
	real.PlayerID = playerID

	verdict, applied := r.resolve(playerID, real)
	if !applied {
		if r.table.FatalMessage == "" {
			r.send(playerID, errorFrame(verdict.Reason))
		}
		return
	}
	r.driveAutomated(ctx)
}

// resolve validates in and, when legal, applies its events, records them
// and broadcasts the new state. A structural failure marks the table fatal.
// Lock held by caller.
func (r *Room) resolve(actorID string, in engine.Intent) (engine.Verdict, bool) {
	verdict, err := r.mod.Validate(r.table, in)
	if err != nil {
		r.fatal(err)
		return engine.Verdict{}, false
	}
	if !verdict.Valid {
		r.recorder.Record(actorID, "rejected", map[string]any{
			"intent": in,
			"reason": verdict.Reason,
		})
		return verdict, false
	}

	prevWinner := r.table.Winner
	if err := r.table.Apply(verdict.Events); err != nil {
		r.fatal(err)
		return engine.Verdict{}, false
	}
	r.recorder.Record(actorID, "intent", map[string]any{"intent": in})
	r.persistBoundaries(verdict.Events, prevWinner)
	r.broadcast()
	return verdict, true
}

// driveAutomated lets automated seats act until a human holds the turn,
// the match ends, or the table fails. Lock held by caller.
func (r *Room) driveAutomated(ctx context.Context) {
	for moves := 0; moves < maxDriveMoves; moves++ {
		if r.table.Winner != "" || r.table.FatalMessage != "" {
			return
		}
		actor, ok := r.nextAutomatedActor()
		if !ok {
			return
		}
		in, err := r.pipeline.SelectIntent(ctx, r.mod, r.table, actor)
		if err != nil {
			r.fatal(fmt.Errorf("automated seat %s: %w", actor, err))
			return
		}
		if verdict, applied := r.resolve(actor, in); !applied {
			if r.table.FatalMessage == "" {
				r.fatal(fmt.Errorf("automated seat %s: selected intent rejected: %s", actor, verdict.Reason))
			}
			return
		}
	}
	r.fatal(fmt.Errorf("automated drive exceeded %d moves", maxDriveMoves))
}

// nextAutomatedActor picks the automated seat that should act now, if any.
// With a live turn that is the current player; between hands on an
// all-automated table it is the first seat with something to do.
// Lock held by caller.
func (r *Room) nextAutomatedActor() (string, bool) {
	if cur := r.table.CurrentPlayer; cur != "" {
		p, ok := r.table.PlayerByID(cur)
		return cur, ok && p.Automated
	}
	if !r.table.AllAutomated() {
		return "", false
	}
	for _, p := range r.table.Players {
		ins, err := candidates.Enumerate(r.mod, r.table, p.ID)
		if err != nil {
			r.fatal(err)
			return "", false
		}
		if len(ins) > 0 {
			return p.ID, true
		}
	}
	return "", false
}

// persistBoundaries saves hand and match results when the applied events
// cross those lines: a cleared turn plus fresh scoreboards end a hand, a
// winner ends the match. Lock held by caller.
func (r *Room) persistBoundaries(events []engine.Event, prevWinner string) {
	cleared, scored := false, false
	for _, ev := range events {
		switch ev.Type {
		case engine.EventSetCurrentPlayer:
			if ev.PlayerID == "" {
				cleared = true
			}
		case engine.EventSetScoreboards:
			scored = true
		}
	}

	if cleared && scored {
		r.handNo++
		res := store.HandResult{
			TableID:     r.ID,
			GameKind:    r.table.GameKind,
			HandNo:      r.handNo,
			Scoreboards: append([]engine.Scoreboard(nil), r.table.Scoreboards...),
		}
		if r.results != nil {
			s := r.results
			store.SaveAsync(r.ID, func(ctx context.Context) error {
				return s.SaveHandResult(ctx, res)
			})
		}
		r.recorder.Record("", "hand_result", map[string]any{"handNo": r.handNo})
	}

	if prevWinner == "" && r.table.Winner != "" {
		res := store.MatchResult{
			TableID:     r.ID,
			GameKind:    r.table.GameKind,
			Winner:      r.table.Winner,
			Scoreboards: append([]engine.Scoreboard(nil), r.table.Scoreboards...),
		}
		if r.results != nil {
			s := r.results
			store.SaveAsync(r.ID, func(ctx context.Context) error {
				return s.SaveMatchResult(ctx, res)
			})
		}
		r.recorder.Record("", "match_result", map[string]any{"winner": r.table.Winner})
		log.WithFields(log.Fields{"table": r.ID, "winner": r.table.Winner}).Info("match decided")
	}
}

// broadcast sends each human seat its view and candidate list. Lock held
// by caller.
func (r *Room) broadcast() {
	for _, p := range r.table.Players {
		if p.Automated {
			continue
		}
		r.syncSeat(p)
		if r.table.FatalMessage != "" {
			return
		}
	}
}

// syncSeat sends one seat's view and candidates. Lock held by caller.
func (r *Room) syncSeat(p engine.Player) {
	rm := r.remap[p.ID]
	v := view.Render(r.table, r.mod, p.ID, rm)
	r.send(p.ID, ServerFrame{Type: FrameView, View: &v})

	cands, err := candidates.List(r.mod, r.table, p.ID, rm)
	if err != nil {
		r.fatal(err)
		return
	}
	for i := range cands {
		mapped, err := rm.RemapIntent(cands[i].Intent)
		if err != nil {
			r.fatal(err)
			return
		}
		cands[i].Intent = mapped
	}
	r.send(p.ID, ServerFrame{Type: FrameCandidates, Candidates: cands})
}

// fatal marks the table failed and tells every seat. Lock held by caller.
func (r *Room) fatal(cause error) {
	if r.table.FatalMessage != "" {
		return
	}
	msg := cause.Error()
	if err := r.table.Apply([]engine.Event{engine.FatalError(msg)}); err != nil {
		r.table.FatalMessage = msg
	}
	r.recorder.Record("", "fatal", map[string]any{"message": msg})
	log.WithFields(log.Fields{"table": r.ID}).WithError(cause).Error("table failed")
	for _, p := range r.table.Players {
		r.send(p.ID, fatalFrame(msg))
	}
}

func (r *Room) send(playerID string, frame ServerFrame) {
	if r.SendFn == nil {
		return
	}
	r.SendFn(playerID, frame)
}
