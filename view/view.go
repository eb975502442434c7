// Package view renders per-viewer snapshots of a table. A View is safe to
// hand to the seat it was rendered for: pile contents are redacted by
// visibility tier, card visuals are filtered to the viewer, and card ids can
// be rewritten through a salted Remapper so two viewers of the same game
// never hold comparable handles for the same card. The authoritative table
// itself never crosses a trust boundary.
package view

import "github.com/baizegames/parlor/engine"

// Card is one revealed card.
type Card struct {
	ID    int    `json:"id"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
	Label string `json:"label"`
}

// Pile is one pile as the viewer sees it. Cards is populated only when the
// pile's contents are visible to the viewer; Count is always accurate.
type Pile struct {
	ID         string            `json:"id"`
	Owner      string            `json:"owner,omitempty"`
	Visibility engine.Visibility `json:"visibility"`
	Count      int               `json:"count"`
	Cards      []Card            `json:"cards,omitempty"`
}

// Revealed reports whether the pile's contents are visible to this viewer.
func (p *Pile) Revealed() bool { return p.Cards != nil }

// Player is one seat.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated"`
}

// View is the per-viewer projection of one table.
type View struct {
	GameKind      string              `json:"gameKind"`
	GameID        string              `json:"gameId"`
	ViewerID      string              `json:"viewerId"`
	Players       []Player            `json:"players"`
	Piles         []Pile              `json:"piles"`
	CurrentPlayer string              `json:"currentPlayer,omitempty"`
	Winner        string              `json:"winner,omitempty"`
	Actions       []engine.ActionSpec `json:"actions,omitempty"`
	Scoreboards   []engine.Scoreboard `json:"scoreboards,omitempty"`
	Visuals       []engine.CardVisual `json:"visuals,omitempty"`
	FatalMessage  string              `json:"fatalMessage,omitempty"`
}

// Pile returns the viewed pile with the given id.
func (v *View) Pile(id string) (*Pile, bool) {
	for i := range v.Piles {
		if v.Piles[i].ID == id {
			return &v.Piles[i], true
		}
	}
	return nil, false
}

// Render projects the table for one viewer. Scoreboards come from the
// module's viewer-aware derivation when mod is non-nil, otherwise from the
// table's stored boards. A nil Remapper renders real card ids; the legal
// intent enumerator relies on that to synthesize validate-ready intents.
func Render(t *engine.Table, mod engine.Ruleset, viewerID string, rm *Remapper) View {
	v := View{
		GameKind:      t.GameKind,
		GameID:        t.ID,
		ViewerID:      viewerID,
		CurrentPlayer: t.CurrentPlayer,
		Winner:        t.Winner,
		FatalMessage:  t.FatalMessage,
	}

	v.Players = make([]Player, len(t.Players))
	for i, p := range t.Players {
		v.Players[i] = Player{ID: p.ID, Name: p.Name, Automated: p.Automated}
	}

	// Cards the viewer can see, by real id. Visual tags on anything else
	// are withheld even when addressed to this viewer.
	seen := make(map[int]bool)

	v.Piles = make([]Pile, len(t.Piles))
	for i, p := range t.Piles {
		vp := Pile{ID: p.ID, Owner: p.Owner, Visibility: p.Visibility, Count: p.Size()}
		if contentsVisible(p, viewerID) {
			vp.Cards = make([]Card, 0, p.Size())
			for _, id := range p.CardIDs {
				c, ok := t.Card(id)
				if !ok {
					continue
				}
				wire := Card{ID: id, Rank: c.Rank.String(), Suit: c.Suit.Name(), Label: c.String()}
				if rm != nil {
					tok, ok := rm.MapCard(id)
					if !ok {
						continue
					}
					wire.ID = tok
				}
				seen[id] = true
				vp.Cards = append(vp.Cards, wire)
			}
		}
		v.Piles[i] = vp
	}

	for _, a := range t.Actions {
		if a.PlayerID == "" || a.PlayerID == viewerID {
			v.Actions = append(v.Actions, a)
		}
	}

	if mod != nil {
		v.Scoreboards = mod.ScoreboardsFor(t, viewerID)
	} else {
		v.Scoreboards = append([]engine.Scoreboard(nil), t.Scoreboards...)
	}

	for _, vis := range t.Visuals {
		if vis.PlayerID != "" && vis.PlayerID != viewerID {
			continue
		}
		if !seen[vis.CardID] {
			continue
		}
		out := vis
		if rm != nil {
			tok, ok := rm.MapCard(vis.CardID)
			if !ok {
				continue
			}
			out.CardID = tok
		}
		v.Visuals = append(v.Visuals, out)
	}

	return v
}

func contentsVisible(p *engine.Pile, viewerID string) bool {
	switch p.Visibility {
	case engine.VisibilityPublic:
		return true
	case engine.VisibilityOwner:
		return p.Owner == viewerID
	default:
		return false
	}
}
