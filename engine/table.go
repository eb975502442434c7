// Package engine implements the event-sourced core of the parlor platform.
// A Table holds the authoritative state of one game: piles of cards, seats,
// scoreboards and an opaque per-module rules-state blob. Rule modules never
// mutate a table; they validate intents and return ordered events, which the
// caller applies with Table.Apply. Projection replays move events against a
// snapshot without touching authoritative state.
package engine

import (
	"encoding/json"
	"fmt"
)

// Player is one seat at a table. Automated seats are driven by the AI
// policy pipeline instead of a human.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated"`
}

// Table is the authoritative state of one running game. It is owned by the
// caller; rule modules receive it read-only and all mutation goes through
// Apply. Intents for one table must be serialized by the caller.
type Table struct {
	GameKind      string          `json:"gameKind"`
	ID            string          `json:"id"`
	Players       []Player        `json:"players"`
	Piles         []*Pile         `json:"piles"`
	Cards         map[int]Card    `json:"cards"`
	CurrentPlayer string          `json:"currentPlayer,omitempty"`
	Winner        string          `json:"winner,omitempty"`
	RulesState    json.RawMessage `json:"rulesState,omitempty"`
	Scoreboards   []Scoreboard    `json:"scoreboards,omitempty"`
	Actions       []ActionSpec    `json:"actions,omitempty"`
	Visuals       []CardVisual    `json:"visuals,omitempty"`
	FatalMessage  string          `json:"fatalMessage,omitempty"`
}

// NewTable opens a table for the given rule module: seats are bound, the
// module lays out its piles and cards, and the result is checked for
// structural sanity (unique pile ids, every card in exactly one pile).
func NewTable(id string, players []Player, mod Ruleset) (*Table, error) {
	meta := mod.Meta()
	if n := len(players); n < meta.MinPlayers || n > meta.MaxPlayers {
		return nil, fmt.Errorf("%s seats %d-%d players, got %d", meta.Name, meta.MinPlayers, meta.MaxPlayers, n)
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("player with empty id")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		seen[p.ID] = true
	}

	piles, cards, err := mod.Setup(players)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", meta.Key, err)
	}

	t := &Table{
		GameKind: meta.Key,
		ID:       id,
		Players:  append([]Player(nil), players...),
		Piles:    piles,
		Cards:    make(map[int]Card, len(cards)),
	}
	for _, c := range cards {
		if _, dup := t.Cards[c.ID]; dup {
			return nil, fmt.Errorf("setup %s: duplicate card id %d", meta.Key, c.ID)
		}
		t.Cards[c.ID] = c
	}

	placed := make(map[int]string, len(cards))
	pileIDs := make(map[string]bool, len(piles))
	for _, p := range piles {
		if pileIDs[p.ID] {
			return nil, fmt.Errorf("setup %s: duplicate pile id %q", meta.Key, p.ID)
		}
		pileIDs[p.ID] = true
		for _, cid := range p.CardIDs {
			if _, ok := t.Cards[cid]; !ok {
				return nil, fmt.Errorf("setup %s: pile %q holds unknown card %d", meta.Key, p.ID, cid)
			}
			if other, dup := placed[cid]; dup {
				return nil, fmt.Errorf("setup %s: card %d in piles %q and %q", meta.Key, cid, other, p.ID)
			}
			placed[cid] = p.ID
		}
	}
	if len(placed) != len(t.Cards) {
		return nil, fmt.Errorf("setup %s: %d cards defined but %d placed in piles", meta.Key, len(t.Cards), len(placed))
	}
	return t, nil
}

// Pile returns the pile with the given id.
func (t *Table) Pile(id string) (*Pile, bool) {
	for _, p := range t.Piles {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Card returns the card with the given id from the authoritative card table.
func (t *Table) Card(id int) (Card, bool) {
	c, ok := t.Cards[id]
	return c, ok
}

// PlayerByID returns the seated player with the given id.
func (t *Table) PlayerByID(id string) (Player, bool) {
	for _, p := range t.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Seated reports whether the player id occupies a seat.
func (t *Table) Seated(id string) bool {
	_, ok := t.PlayerByID(id)
	return ok
}

// AllAutomated reports whether every seat is automated.
func (t *Table) AllAutomated() bool {
	for _, p := range t.Players {
		if !p.Automated {
			return false
		}
	}
	return len(t.Players) > 0
}

// CardCount returns the total number of cards across all piles.
func (t *Table) CardCount() int {
	n := 0
	for _, p := range t.Piles {
		n += len(p.CardIDs)
	}
	return n
}

// PileViews snapshots every pile with full card detail, in table order.
func (t *Table) PileViews() []PileView {
	out := make([]PileView, 0, len(t.Piles))
	for _, p := range t.Piles {
		out = append(out, PileView{
			ID:         p.ID,
			Owner:      p.Owner,
			Visibility: p.Visibility,
			CardIDs:    append([]int(nil), p.CardIDs...),
			Count:      len(p.CardIDs),
		})
	}
	return out
}

// Clone returns an independent deep copy of the table.
func (t *Table) Clone() *Table {
	cp := *t
	cp.Players = append([]Player(nil), t.Players...)
	cp.Piles = make([]*Pile, len(t.Piles))
	for i, p := range t.Piles {
		cp.Piles[i] = p.clone()
	}
	cp.Cards = make(map[int]Card, len(t.Cards))
	for id, c := range t.Cards {
		cp.Cards[id] = c
	}
	cp.RulesState = append(json.RawMessage(nil), t.RulesState...)
	cp.Scoreboards = cloneScoreboards(t.Scoreboards)
	cp.Actions = append([]ActionSpec(nil), t.Actions...)
	cp.Visuals = append([]CardVisual(nil), t.Visuals...)
	return &cp
}

func cloneScoreboards(boards []Scoreboard) []Scoreboard {
	if boards == nil {
		return nil
	}
	out := make([]Scoreboard, len(boards))
	for i, b := range boards {
		out[i] = Scoreboard{PlayerID: b.PlayerID, Rows: append([]ScoreRow(nil), b.Rows...)}
	}
	return out
}
