package ginrummy

import (
	"fmt"

	"github.com/baizegames/parlor/engine"
)

// layoffMove serves the defender's window after a knock. Four moves are
// legal: extending one of the knocker's melds with hand cards, laying or
// extending the defender's own melds, trimming an own meld back to hand,
// and reclaiming cards previously laid onto the knocker's melds.
func (m *Module) layoffMove(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	defender := s.defender()
	if in.PlayerID != defender {
		return engine.Reject("only %s may rearrange cards during the layoff", seatName(t, defender)), nil
	}
	if len(in.CardIDs) == 0 {
		return engine.Reject("name the cards you want to move"), nil
	}

	handID := handPile(defender)
	if in.FromPile == handID {
		owner, _, ok := meldSlot(in.ToPile)
		if !ok {
			return engine.Reject("lay cards onto a meld pile"), nil
		}
		switch owner {
		case defender:
			return m.layOwnMeld(t, s, in)
		case s.Knocker:
			return m.layOff(t, s, in)
		}
		return engine.Reject("lay cards onto your own or the knocker's melds"), nil
	}
	if in.ToPile == handID {
		owner, _, ok := meldSlot(in.FromPile)
		if !ok {
			return engine.Reject("take cards back from a meld pile"), nil
		}
		switch owner {
		case defender:
			return m.trimOwnMeld(t, s, in)
		case s.Knocker:
			return m.reclaimLayoff(t, s, in)
		}
	}
	return engine.Reject("move cards between your hand and the meld piles"), nil
}

// layOwnMeld starts a new meld in an empty own slot or extends an
// occupied one. New melds must arrive whole.
func (m *Module) layOwnMeld(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	slot, ok := t.Pile(in.ToPile)
	if !ok {
		return engine.Reject("there is no meld pile %q", in.ToPile), nil
	}
	hand, err := handCards(t, in.PlayerID)
	if err != nil {
		return engine.Verdict{}, err
	}
	picked, _, verdict := splitHand(hand, in.CardIDs)
	if !verdict.Valid {
		return verdict, nil
	}
	combined, err := pileCards(t, slot)
	if err != nil {
		return engine.Verdict{}, err
	}
	combined = append(combined, picked...)
	if !validMeld(combined) {
		if slot.Size() == 0 {
			return engine.Reject("those cards do not form a set or a run"), nil
		}
		return engine.Reject("those cards do not extend that meld"), nil
	}

	s.addRecap(fmt.Sprintf("%s melds %s", seatName(t, in.PlayerID), cardList(picked)))
	return engine.Accept(
		engine.MoveCards(in.FromPile, in.ToPile, in.CardIDs...),
		engine.SetRulesState(s.save()),
	), nil
}

// layOff extends one of the knocker's melds with defender hand cards,
// excluding them from the defender's deadwood.
func (m *Module) layOff(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	slot, ok := t.Pile(in.ToPile)
	if !ok {
		return engine.Reject("there is no meld pile %q", in.ToPile), nil
	}
	if slot.Size() == 0 {
		return engine.Reject("you can only lay off onto the knocker's existing melds"), nil
	}
	hand, err := handCards(t, in.PlayerID)
	if err != nil {
		return engine.Verdict{}, err
	}
	picked, _, verdict := splitHand(hand, in.CardIDs)
	if !verdict.Valid {
		return verdict, nil
	}
	combined, err := pileCards(t, slot)
	if err != nil {
		return engine.Verdict{}, err
	}
	combined = append(combined, picked...)
	if !validMeld(combined) {
		return engine.Reject("those cards do not extend that meld"), nil
	}

	s.LayoffCards = append(s.LayoffCards, in.CardIDs...)
	s.addRecap(fmt.Sprintf("%s lays off %s", seatName(t, in.PlayerID), cardList(picked)))
	return engine.Accept(
		engine.MoveCards(in.FromPile, in.ToPile, in.CardIDs...),
		engine.SetRulesState(s.save()),
		engine.SetCardVisuals(m.layoffVisuals(s)...),
	), nil
}

// trimOwnMeld takes cards back from an own meld. The slot may be emptied
// outright; anything left behind must still be a valid meld.
func (m *Module) trimOwnMeld(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	slot, ok := t.Pile(in.FromPile)
	if !ok {
		return engine.Reject("there is no meld pile %q", in.FromPile), nil
	}
	remainder, verdict, err := slotRemainder(t, slot, in.CardIDs)
	if err != nil || !verdict.Valid {
		return verdict, err
	}
	if len(remainder) != 0 && !validMeld(remainder) {
		return engine.Reject("taking those back would break the meld"), nil
	}

	s.addRecap(fmt.Sprintf("%s takes back %s", seatName(t, in.PlayerID), cardList(pickCards(t, in.CardIDs))))
	return engine.Accept(
		engine.MoveCards(in.FromPile, in.ToPile, in.CardIDs...),
		engine.SetRulesState(s.save()),
	), nil
}

// reclaimLayoff withdraws previously laid-off cards from a knocker meld.
// Only cards the defender laid may come back, and the meld must survive.
func (m *Module) reclaimLayoff(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	slot, ok := t.Pile(in.FromPile)
	if !ok {
		return engine.Reject("there is no meld pile %q", in.FromPile), nil
	}
	laid := make(map[int]bool, len(s.LayoffCards))
	for _, id := range s.LayoffCards {
		laid[id] = true
	}
	for _, id := range in.CardIDs {
		if !laid[id] {
			return engine.Reject("card %d was not laid off by you", id), nil
		}
	}
	remainder, verdict, err := slotRemainder(t, slot, in.CardIDs)
	if err != nil || !verdict.Valid {
		return verdict, err
	}
	if !validMeld(remainder) {
		return engine.Reject("taking those back would break the knocker's meld"), nil
	}

	taking := make(map[int]bool, len(in.CardIDs))
	for _, id := range in.CardIDs {
		taking[id] = true
	}
	kept := s.LayoffCards[:0]
	for _, id := range s.LayoffCards {
		if !taking[id] {
			kept = append(kept, id)
		}
	}
	s.LayoffCards = kept

	s.addRecap(fmt.Sprintf("%s takes back %s", seatName(t, in.PlayerID), cardList(pickCards(t, in.CardIDs))))
	return engine.Accept(
		engine.MoveCards(in.FromPile, in.ToPile, in.CardIDs...),
		engine.SetRulesState(s.save()),
		engine.SetCardVisuals(m.layoffVisuals(s)...),
	), nil
}

// finishLayoff closes the defender's window and settles the hand.
func (m *Module) finishLayoff(t *engine.Table, s *handState, intent engine.Intent) (engine.Verdict, error) {
	if s.Phase != PhaseLayoff {
		return engine.Reject("there is no layoff to finish"), nil
	}
	defender := s.defender()
	if intent.PlayerID != defender {
		return engine.Reject("only %s may finish the layoff", seatName(t, defender)), nil
	}
	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		p, ok := t.Pile(meldPile(defender, slot))
		if !ok || p.Size() == 0 {
			continue
		}
		cards, err := pileCards(t, p)
		if err != nil {
			return engine.Verdict{}, err
		}
		if !validMeld(cards) {
			return engine.Reject("your meld pile %q is not a valid meld", p.ID), nil
		}
	}

	knockerHand, err := handCards(t, s.Knocker)
	if err != nil {
		return engine.Verdict{}, err
	}
	return m.settleHand(t, s, nil, knockerHand)
}

// slotRemainder checks the named cards against the slot and returns the
// cards that would stay behind.
func slotRemainder(t *engine.Table, slot *engine.Pile, ids []int) ([]engine.Card, engine.Verdict, error) {
	named := make(map[int]bool, len(ids))
	for _, id := range ids {
		if named[id] {
			return nil, engine.Reject("card %d is named twice", id), nil
		}
		named[id] = true
		if !slot.Contains(id) {
			return nil, engine.Reject("card %d is not in that meld pile", id), nil
		}
	}
	var remainder []engine.Card
	for _, id := range slot.CardIDs {
		if named[id] {
			continue
		}
		c, ok := t.Card(id)
		if !ok {
			return nil, engine.Verdict{}, corrupt("layoff", "card %d not in table card set", id)
		}
		remainder = append(remainder, c)
	}
	return remainder, engine.Verdict{Valid: true}, nil
}

// pileCards resolves a pile's ids against the card table.
func pileCards(t *engine.Table, p *engine.Pile) ([]engine.Card, error) {
	cards := make([]engine.Card, 0, len(p.CardIDs))
	for _, id := range p.CardIDs {
		c, ok := t.Card(id)
		if !ok {
			return nil, corrupt("pile", "card %d not in table card set", id)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// pickCards resolves ids best-effort for recap text.
func pickCards(t *engine.Table, ids []int) []engine.Card {
	cards := make([]engine.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := t.Card(id); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// layoffVisuals tags every currently laid-off card so viewers can tell
// them apart from the knocker's own meld cards.
func (m *Module) layoffVisuals(s *handState) []engine.CardVisual {
	out := make([]engine.CardVisual, 0, len(s.LayoffCards))
	for _, id := range s.LayoffCards {
		out = append(out, engine.CardVisual{CardID: id, Tag: "layoff", PlayerID: s.defender()})
	}
	return out
}
