package ginrummy

import (
	"sort"

	"github.com/baizegames/parlor/engine"
)

// LegalIntents enumerates every intent Validate would accept for the
// player. Candidates are generated per phase and then filtered through
// Validate itself, so the list can never disagree with the validator.
// Ordering is deliberate: progress-making moves come first, with deck
// draws ahead of discard draws and melds ahead of discards, so a policy
// that always takes the first candidate still drives hands to an end.
func (m *Module) LegalIntents(t *engine.Table, playerID string) []engine.Intent {
	if t.FatalMessage != "" || !t.Seated(playerID) {
		return nil
	}
	s := loadState(t)
	if s.MatchWinner != "" {
		return nil
	}

	var cands []engine.Intent
	switch s.Phase {
	case PhaseDealing:
		cands = append(cands, engine.NewAction(t.ID, playerID, actionStartGame))

	case PhaseUpcardNonDealer, PhaseUpcardDealer:
		if playerID != t.CurrentPlayer {
			break
		}
		if discard, ok := t.Pile(pileDiscard); ok {
			if top, ok := discard.Top(); ok {
				cands = append(cands, engine.NewMove(t.ID, playerID, pileDiscard, handPile(playerID), top))
			}
		}
		cands = append(cands, engine.NewAction(t.ID, playerID, actionPass))

	case PhasePlaying:
		if playerID != t.CurrentPlayer {
			break
		}
		switch s.Turn {
		case TurnMustDraw:
			cands = append(cands, engine.NewMove(t.ID, playerID, pileDeck, handPile(playerID)))
			if !s.DeckOnlyDraw {
				if discard, ok := t.Pile(pileDiscard); ok {
					if top, ok := discard.Top(); ok {
						cands = append(cands, engine.NewMove(t.ID, playerID, pileDiscard, handPile(playerID), top))
					}
				}
			}
		case TurnMustDiscard:
			cands = append(cands, m.discardTurnCandidates(t, s, playerID)...)
		}

	case PhaseLayoff:
		if playerID != s.defender() {
			break
		}
		cands = append(cands, m.layoffCandidates(t, s, playerID)...)
	}

	var legal []engine.Intent
	for _, in := range cands {
		if v, err := m.Validate(t, in); err == nil && v.Valid {
			legal = append(legal, in)
		}
	}
	return legal
}

// discardTurnCandidates proposes melds from the hand's best partition,
// then every discard ranked by the deadwood it leaves behind.
func (m *Module) discardTurnCandidates(t *engine.Table, s *handState, playerID string) []engine.Intent {
	hand, err := handCards(t, playerID)
	if err != nil {
		return nil
	}
	var cands []engine.Intent

	if slot, ok := m.firstEmptySlot(t, playerID); ok {
		for _, meld := range Analyze(hand).Melds {
			cands = append(cands, engine.NewMove(t.ID, playerID, handPile(playerID), slot, meld.CardIDs...))
		}
	}

	type ranked struct {
		id int
		dw int
	}
	discards := make([]ranked, 0, len(hand))
	rest := make([]engine.Card, 0, len(hand)-1)
	for drop, c := range hand {
		rest = rest[:0]
		for i, o := range hand {
			if i != drop {
				rest = append(rest, o)
			}
		}
		discards = append(discards, ranked{id: c.ID, dw: Analyze(rest).Deadwood})
	}
	sort.SliceStable(discards, func(a, b int) bool { return discards[a].dw < discards[b].dw })
	for _, d := range discards {
		cands = append(cands, engine.NewMove(t.ID, playerID, handPile(playerID), pileDiscard, d.id))
	}
	return cands
}

// layoffCandidates proposes lay-offs onto the knocker's melds, the
// defender's own melds, the finish action, and finally reclaims and
// trims. Finish before the undo moves keeps a first-candidate policy
// from cycling.
func (m *Module) layoffCandidates(t *engine.Table, s *handState, playerID string) []engine.Intent {
	hand, err := handCards(t, playerID)
	if err != nil {
		return nil
	}
	var cands []engine.Intent

	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		pile, ok := t.Pile(meldPile(s.Knocker, slot))
		if !ok || pile.Size() == 0 {
			continue
		}
		base, err := pileCards(t, pile)
		if err != nil {
			continue
		}
		for _, c := range hand {
			if validMeld(append(append([]engine.Card(nil), base...), c)) {
				cands = append(cands, engine.NewMove(t.ID, playerID, handPile(playerID), pile.ID, c.ID))
			}
		}
	}

	if slot, ok := m.firstEmptySlot(t, playerID); ok {
		for _, meld := range Analyze(hand).Melds {
			cands = append(cands, engine.NewMove(t.ID, playerID, handPile(playerID), slot, meld.CardIDs...))
		}
	}

	cands = append(cands, engine.NewAction(t.ID, playerID, actionFinish))

	for _, id := range s.LayoffCards {
		if pile, ok := m.slotHolding(t, s.Knocker, id); ok {
			cands = append(cands, engine.NewMove(t.ID, playerID, pile, handPile(playerID), id))
		}
	}
	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		pile, ok := t.Pile(meldPile(playerID, slot))
		if !ok || pile.Size() == 0 {
			continue
		}
		cands = append(cands, engine.NewMove(t.ID, playerID, pile.ID, handPile(playerID), append([]int(nil), pile.CardIDs...)...))
	}
	return cands
}

// firstEmptySlot returns the player's lowest unoccupied meld pile.
func (m *Module) firstEmptySlot(t *engine.Table, playerID string) (string, bool) {
	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		if p, ok := t.Pile(meldPile(playerID, slot)); ok && p.Size() == 0 {
			return p.ID, true
		}
	}
	return "", false
}

// slotHolding finds which of a player's meld piles currently holds a card.
func (m *Module) slotHolding(t *engine.Table, playerID string, cardID int) (string, bool) {
	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		if p, ok := t.Pile(meldPile(playerID, slot)); ok && p.Contains(cardID) {
			return p.ID, true
		}
	}
	return "", false
}
