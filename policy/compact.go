package policy

import (
	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/view"
)

// CompactCard is one visible card under a request-scoped id.
type CompactCard struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// CompactPile is one pile with its visible contents, if any.
type CompactPile struct {
	ID    string        `json:"id"`
	Owner string        `json:"owner,omitempty"`
	Count int           `json:"count"`
	Cards []CompactCard `json:"cards,omitempty"`
}

// CompactAction is an available button.
type CompactAction struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// CompactVisual is a display tag on a visible card.
type CompactVisual struct {
	CardID int    `json:"cardId"`
	Tag    string `json:"tag"`
}

// CompactView is the chooser-facing projection of one seat's view: visible
// cards only, under small sequential ids that exist for this request alone.
type CompactView struct {
	Game          string              `json:"game"`
	You           string              `json:"you"`
	CurrentPlayer string              `json:"currentPlayer,omitempty"`
	Winner        string              `json:"winner,omitempty"`
	Players       []view.Player       `json:"players"`
	Piles         []CompactPile       `json:"piles"`
	Actions       []CompactAction     `json:"actions,omitempty"`
	Visuals       []CompactVisual     `json:"visuals,omitempty"`
	Scoreboards   []engine.Scoreboard `json:"scoreboards,omitempty"`
}

// Compactor holds the request-scoped id assignment. It satisfies
// candidates.Mapper, so candidate handles and the compact view agree on
// card ids within one request.
type Compactor struct {
	fwd map[int]int
}

// MapCard returns the request-scoped id for a real card id.
func (c *Compactor) MapCard(id int) (int, bool) {
	tok, ok := c.fwd[id]
	return tok, ok
}

func (c *Compactor) assign(realID int) int {
	if tok, ok := c.fwd[realID]; ok {
		return tok
	}
	tok := len(c.fwd) + 1
	c.fwd[realID] = tok
	return tok
}

// Compact rewrites a rendered view into the chooser payload and returns the
// id mapping used. Ids are assigned in encounter order, so the result is
// deterministic for a given view. The view must have been rendered without
// a salted remapper; the compaction is the only id indirection a chooser
// ever sees.
func Compact(v view.View) (CompactView, *Compactor) {
	c := &Compactor{fwd: make(map[int]int)}
	out := CompactView{
		Game:          v.GameKind,
		You:           v.ViewerID,
		CurrentPlayer: v.CurrentPlayer,
		Winner:        v.Winner,
		Players:       v.Players,
		Scoreboards:   v.Scoreboards,
	}

	out.Piles = make([]CompactPile, len(v.Piles))
	for i, p := range v.Piles {
		cp := CompactPile{ID: p.ID, Owner: p.Owner, Count: p.Count}
		for _, card := range p.Cards {
			cp.Cards = append(cp.Cards, CompactCard{ID: c.assign(card.ID), Label: card.Label})
		}
		out.Piles[i] = cp
	}

	for _, a := range v.Actions {
		out.Actions = append(out.Actions, CompactAction{Name: a.Name, Label: a.Label})
	}

	for _, vis := range v.Visuals {
		tok, ok := c.MapCard(vis.CardID)
		if !ok {
			continue
		}
		out.Visuals = append(out.Visuals, CompactVisual{CardID: tok, Tag: vis.Tag})
	}

	return out, c
}
