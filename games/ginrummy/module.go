// Package ginrummy implements two-player gin rummy as an engine ruleset.
//
// A match is a sequence of hands played to a point goal. Each hand walks
// dealing, the first-upcard offers, the draw/discard loop, and (after a
// knock) a layoff window before scoring. All rule decisions live in
// Validate; the table is never mutated here.
package ginrummy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/baizegames/parlor/engine"
)

// GameKey registers the module.
const GameKey = "gin-rummy"

const (
	actionStartGame = engine.ActionStartGame
	actionPass      = engine.ActionPass
	actionFinish    = "finish"
)

// Module is the gin rummy ruleset.
type Module struct {
	rules Rules
}

// New returns the module with standard rules.
func New() *Module { return NewWithRules(DefaultRules()) }

// NewWithRules returns the module with the given tunables.
func NewWithRules(r Rules) *Module { return &Module{rules: r} }

func (m *Module) Meta() engine.Meta {
	return engine.Meta{
		Key:        GameKey,
		Name:       "Gin Rummy",
		MinPlayers: 2,
		MaxPlayers: 2,
	}
}

const (
	pileDeck    = "deck"
	pileDiscard = "discard"
)

func handPile(playerID string) string { return "hand:" + playerID }

func meldPile(playerID string, slot int) string {
	return fmt.Sprintf("melds:%s:%d", playerID, slot)
}

// meldSlot parses a meld pile id back into its owner and slot index.
func meldSlot(pileID string) (owner string, slot int, ok bool) {
	rest, found := strings.CutPrefix(pileID, "melds:")
	if !found {
		return "", 0, false
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", 0, false
	}
	slot, err := strconv.Atoi(rest[i+1:])
	if err != nil || slot < 0 {
		return "", 0, false
	}
	return rest[:i], slot, true
}

// Setup lays out the table for a fresh match: the full deck face down,
// an empty discard, a hand per player, and a bank of meld slots each.
// Cards stay in the deck until the first start-game deals them.
func (m *Module) Setup(players []engine.Player) ([]*engine.Pile, []engine.Card, error) {
	if len(players) != 2 {
		return nil, nil, fmt.Errorf("gin rummy seats exactly 2 players, got %d", len(players))
	}
	cards := engine.StandardDeck(1)
	deck := &engine.Pile{ID: pileDeck, Visibility: engine.VisibilityHidden}
	for _, c := range cards {
		deck.CardIDs = append(deck.CardIDs, c.ID)
	}
	piles := []*engine.Pile{
		deck,
		{ID: pileDiscard, Visibility: engine.VisibilityPublic},
	}
	for _, p := range players {
		piles = append(piles, &engine.Pile{
			ID:         handPile(p.ID),
			Owner:      p.ID,
			Visibility: engine.VisibilityOwner,
		})
		for slot := 0; slot < m.rules.MeldSlots; slot++ {
			piles = append(piles, &engine.Pile{
				ID:         meldPile(p.ID, slot),
				Owner:      p.ID,
				Visibility: engine.VisibilityPublic,
			})
		}
	}
	return piles, cards, nil
}

// Validate judges one intent against the current table. It returns a
// verdict carrying the events to apply; invalid intents carry a reason
// instead. State problems surface as errors, never as rejections.
func (m *Module) Validate(t *engine.Table, intent engine.Intent) (engine.Verdict, error) {
	if t.FatalMessage != "" {
		return engine.Reject("table is in a fatal state"), nil
	}
	if !t.Seated(intent.PlayerID) {
		return engine.Reject("player %q is not seated at this table", intent.PlayerID), nil
	}

	s := loadState(t)

	switch intent.Type {
	case engine.IntentAction:
		return m.validateAction(t, s, intent)
	case engine.IntentMove:
		return m.validateMove(t, s, intent)
	default:
		return engine.Reject("unknown intent type %q", intent.Type), nil
	}
}

func (m *Module) validateAction(t *engine.Table, s *handState, intent engine.Intent) (engine.Verdict, error) {
	switch intent.Action {
	case actionStartGame:
		return m.startGame(t, s, intent)
	case actionPass:
		return m.passAction(t, s, intent)
	case actionFinish:
		return m.finishLayoff(t, s, intent)
	default:
		return engine.Reject("unknown action %q", intent.Action), nil
	}
}

func (m *Module) validateMove(t *engine.Table, s *handState, intent engine.Intent) (engine.Verdict, error) {
	switch s.Phase {
	case PhaseUpcardNonDealer, PhaseUpcardDealer:
		return m.firstUpcardMove(t, s, intent)
	case PhasePlaying:
		switch s.Turn {
		case TurnMustDraw:
			return m.drawMove(t, s, intent)
		case TurnMustDiscard:
			return m.discardOrMeldMove(t, s, intent)
		}
		return engine.Verdict{}, corrupt("turn", "unknown turn phase %q", s.Turn)
	case PhaseLayoff:
		return m.layoffMove(t, s, intent)
	case PhaseDealing, PhaseEnded:
		return engine.Reject("no card moves are legal right now"), nil
	default:
		return engine.Verdict{}, corrupt("phase", "unknown phase %q", s.Phase)
	}
}

// handCards resolves a player's current hand to cards, in pile order.
func handCards(t *engine.Table, playerID string) ([]engine.Card, error) {
	pile, ok := t.Pile(handPile(playerID))
	if !ok {
		return nil, corrupt("hand", "missing hand pile for %q", playerID)
	}
	cards := make([]engine.Card, 0, len(pile.CardIDs))
	for _, id := range pile.CardIDs {
		c, ok := t.Card(id)
		if !ok {
			return nil, corrupt("hand", "card %d not in table card set", id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func corrupt(op, format string, args ...any) error {
	return &engine.StateError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
