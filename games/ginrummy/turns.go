package ginrummy

import (
	"fmt"
	"strings"

	"github.com/baizegames/parlor/engine"
)

// passAction declines the first upcard. The non-dealer passes first; once
// the dealer passes too, play opens with the non-dealer forced to draw
// from the deck.
func (m *Module) passAction(t *engine.Table, s *handState, intent engine.Intent) (engine.Verdict, error) {
	switch s.Phase {
	case PhaseUpcardNonDealer, PhaseUpcardDealer:
	default:
		return engine.Reject("there is nothing to pass on right now"), nil
	}
	if intent.PlayerID != t.CurrentPlayer {
		return engine.Reject("it is not your turn"), nil
	}

	name := seatName(t, intent.PlayerID)
	if s.Phase == PhaseUpcardNonDealer {
		s.Phase = PhaseUpcardDealer
		s.addRecap(fmt.Sprintf("%s passes the upcard", name))
		return engine.Accept(
			engine.SetRulesState(s.save()),
			engine.SetCurrentPlayer(s.Dealer),
			engine.SetActions(engine.ActionSpec{PlayerID: s.Dealer, Name: actionPass, Label: "Pass"}),
		), nil
	}

	s.Phase = PhasePlaying
	s.Turn = TurnMustDraw
	s.DeckOnlyDraw = true
	s.addRecap(fmt.Sprintf("%s passes too, play opens on a deck draw", name))
	return engine.Accept(
		engine.SetRulesState(s.save()),
		engine.SetCurrentPlayer(s.nonDealer()),
		engine.SetActions(),
	), nil
}

// firstUpcardMove takes the face-up card during an upcard phase. Taking it
// starts the taker's turn at must-discard.
func (m *Module) firstUpcardMove(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	if in.PlayerID != t.CurrentPlayer {
		return engine.Reject("it is not your turn"), nil
	}
	if in.FromPile != pileDiscard || in.ToPile != handPile(in.PlayerID) {
		return engine.Reject("only taking the upcard into your hand is legal right now"), nil
	}
	top, verdict, err := discardTop(t, in.CardIDs)
	if err != nil || !verdict.Valid {
		return verdict, err
	}

	c, _ := t.Card(top)
	s.Phase = PhasePlaying
	s.Turn = TurnMustDiscard
	s.LastDrawSource = DrawDiscard
	s.LastDrawCard = top
	s.addRecap(fmt.Sprintf("%s takes the %s upcard", seatName(t, in.PlayerID), c))
	return engine.Accept(
		engine.MoveCards(pileDiscard, handPile(in.PlayerID), top),
		engine.SetRulesState(s.save()),
		engine.SetActions(),
	), nil
}

// discardTop resolves "the top of the discard pile" against the intent's
// card ids: empty means the top, an explicit id must match it.
func discardTop(t *engine.Table, cardIDs []int) (int, engine.Verdict, error) {
	discard, ok := t.Pile(pileDiscard)
	if !ok {
		return 0, engine.Verdict{}, corrupt("discard", "missing discard pile")
	}
	top, ok := discard.Top()
	if !ok {
		return 0, engine.Reject("the discard pile is empty"), nil
	}
	if len(cardIDs) > 1 || (len(cardIDs) == 1 && cardIDs[0] != top) {
		return 0, engine.Reject("only the top card of the discard pile may be taken"), nil
	}
	return top, engine.Verdict{Valid: true}, nil
}

// drawMove serves the must-draw half of a turn: the deck's top card sight
// unseen, or the discard's top card.
func (m *Module) drawMove(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	if in.PlayerID != t.CurrentPlayer {
		return engine.Reject("it is not your turn"), nil
	}
	if in.ToPile != handPile(in.PlayerID) {
		return engine.Reject("draws go to your own hand"), nil
	}

	name := seatName(t, in.PlayerID)
	switch in.FromPile {
	case pileDeck:
		deck, ok := t.Pile(pileDeck)
		if !ok {
			return engine.Verdict{}, corrupt("draw", "missing deck pile")
		}
		if len(in.CardIDs) != 0 {
			return engine.Reject("the deck is face down, draw without naming a card"), nil
		}
		top, ok := deck.Top()
		if !ok {
			return engine.Verdict{}, corrupt("draw", "deck empty on a draw turn")
		}
		s.Turn = TurnMustDiscard
		s.DeckOnlyDraw = false
		s.LastDrawSource = DrawDeck
		s.LastDrawCard = top
		s.addRecap(fmt.Sprintf("%s draws from the deck", name))
		return engine.Accept(
			engine.MoveCards(pileDeck, handPile(in.PlayerID), top),
			engine.SetRulesState(s.save()),
		), nil

	case pileDiscard:
		if s.DeckOnlyDraw {
			return engine.Reject("after both upcard passes the first draw must come from the deck"), nil
		}
		top, verdict, err := discardTop(t, in.CardIDs)
		if err != nil || !verdict.Valid {
			return verdict, err
		}
		c, _ := t.Card(top)
		s.Turn = TurnMustDiscard
		s.DeckOnlyDraw = false
		s.LastDrawSource = DrawDiscard
		s.LastDrawCard = top
		s.addRecap(fmt.Sprintf("%s takes the %s from the discard pile", name, c))
		return engine.Accept(
			engine.MoveCards(pileDiscard, handPile(in.PlayerID), top),
			engine.SetRulesState(s.save()),
		), nil

	default:
		return engine.Reject("draw from the deck or the discard pile"), nil
	}
}

// discardOrMeldMove serves the must-discard half: lay a meld into one of
// your own slots, or discard one card to end the turn (possibly as a
// knock or gin).
func (m *Module) discardOrMeldMove(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	if in.PlayerID != t.CurrentPlayer {
		return engine.Reject("it is not your turn"), nil
	}
	if in.FromPile != handPile(in.PlayerID) {
		return engine.Reject("play cards from your own hand"), nil
	}
	if _, _, ok := meldSlot(in.ToPile); ok {
		return m.layMeld(t, s, in)
	}
	if in.ToPile == pileDiscard {
		return m.discard(t, s, in)
	}
	return engine.Reject("discard one card or lay a meld into one of your meld piles"), nil
}

// layMeld moves a complete meld from hand into an empty own slot. Laying
// is gated on the knock staying reachable, which also commits the player
// to knocking on this turn's discard.
func (m *Module) layMeld(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	owner, _, _ := meldSlot(in.ToPile)
	if owner != in.PlayerID {
		return engine.Reject("meld into your own meld piles"), nil
	}
	slot, ok := t.Pile(in.ToPile)
	if !ok {
		return engine.Reject("there is no meld pile %q", in.ToPile), nil
	}
	if slot.Size() != 0 {
		return engine.Reject("that meld pile is already in use"), nil
	}
	if len(in.CardIDs) == 0 {
		return engine.Reject("name the cards you want to meld"), nil
	}

	hand, err := handCards(t, in.PlayerID)
	if err != nil {
		return engine.Verdict{}, err
	}
	cards, rest, verdict := splitHand(hand, in.CardIDs)
	if !verdict.Valid {
		return verdict, nil
	}
	if !validMeld(cards) {
		return engine.Reject("those cards do not form a set or a run"), nil
	}
	if len(rest) == 0 {
		return engine.Reject("melding all your cards would leave nothing to discard"), nil
	}
	banned := 0
	if s.LastDrawSource == DrawDiscard {
		banned = s.LastDrawCard
	}
	if bestDiscardDeadwood(rest, banned) > m.rules.KnockThreshold {
		return engine.Reject("melding now would leave you unable to knock"), nil
	}

	s.addRecap(fmt.Sprintf("%s melds %s", seatName(t, in.PlayerID), cardList(cards)))
	return engine.Accept(
		engine.MoveCards(in.FromPile, in.ToPile, in.CardIDs...),
		engine.SetRulesState(s.save()),
	), nil
}

// discard ends the turn. Deadwood zero is gin; with melds laid the
// discard must complete the knock; otherwise play passes, or the hand
// blocks when the deck is nearly out.
func (m *Module) discard(t *engine.Table, s *handState, in engine.Intent) (engine.Verdict, error) {
	if len(in.CardIDs) != 1 {
		return engine.Reject("discard exactly one card"), nil
	}
	hand, err := handCards(t, in.PlayerID)
	if err != nil {
		return engine.Verdict{}, err
	}
	cards, rest, verdict := splitHand(hand, in.CardIDs)
	if !verdict.Valid {
		return verdict, nil
	}
	id := in.CardIDs[0]
	if s.LastDrawSource == DrawDiscard && id == s.LastDrawCard {
		return engine.Reject("you cannot discard the card you just took from the discard pile"), nil
	}

	analysis := Analyze(rest)
	name := seatName(t, in.PlayerID)
	c := cards[0]
	move := engine.MoveCards(in.FromPile, pileDiscard, id)

	if analysis.Deadwood == 0 {
		s.Knocker = in.PlayerID
		s.Knock = KnockGin
		s.addRecap(fmt.Sprintf("%s discards the %s and goes gin", name, c))
		return m.settleHand(t, s, []engine.Event{move}, rest)
	}

	if m.laidMeldCount(t, in.PlayerID) > 0 {
		if analysis.Deadwood > m.rules.KnockThreshold {
			return engine.Reject("your laid melds commit you to a knock, and this discard leaves %d deadwood", analysis.Deadwood), nil
		}
		s.Knocker = in.PlayerID
		s.Knock = KnockPlain
		s.Phase = PhaseLayoff
		s.Turn = ""
		s.LayoffCards = nil
		s.addRecap(fmt.Sprintf("%s discards the %s and knocks with %d", name, c, analysis.Deadwood))
		defender := s.defender()
		return engine.Accept(
			move,
			engine.SetPileVisibility(handPile(in.PlayerID), engine.VisibilityPublic),
			engine.SetRulesState(s.save()),
			engine.SetCurrentPlayer(defender),
			engine.SetActions(engine.ActionSpec{PlayerID: defender, Name: actionFinish, Label: "Finish laying off"}),
			engine.SetScoreboards(m.scoreboards(t, s, "")...),
		), nil
	}

	deck, ok := t.Pile(pileDeck)
	if !ok {
		return engine.Verdict{}, corrupt("discard", "missing deck pile")
	}
	if deck.Size() <= m.rules.DeckStop {
		s.collapseRecap(fmt.Sprintf("hand %d: blocked with %d cards left in the deck", s.HandNumber, deck.Size()))
		s.endHand()
		return engine.Accept(
			move,
			engine.SetRulesState(s.save()),
			engine.SetCurrentPlayer(""),
			engine.SetActions(engine.ActionSpec{Name: actionStartGame, Label: "Deal the next hand"}),
			engine.SetScoreboards(m.scoreboards(t, s, "")...),
		), nil
	}

	s.Turn = TurnMustDraw
	s.addRecap(fmt.Sprintf("%s discards the %s", name, c))
	return engine.Accept(
		move,
		engine.SetRulesState(s.save()),
		engine.SetCurrentPlayer(s.opponent(in.PlayerID)),
	), nil
}

// splitHand partitions the hand into the named cards and the rest,
// rejecting ids that are not actually held or named twice.
func splitHand(hand []engine.Card, ids []int) (picked, rest []engine.Card, verdict engine.Verdict) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		if want[id] {
			return nil, nil, engine.Reject("card %d is named twice", id)
		}
		want[id] = true
	}
	byID := make(map[int]engine.Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	for _, id := range ids {
		c, held := byID[id]
		if !held {
			return nil, nil, engine.Reject("card %d is not in your hand", id)
		}
		picked = append(picked, c)
	}
	for _, c := range hand {
		if !want[c.ID] {
			rest = append(rest, c)
		}
	}
	return picked, rest, engine.Verdict{Valid: true}
}

// laidMeldCount counts the player's occupied meld slots.
func (m *Module) laidMeldCount(t *engine.Table, playerID string) int {
	n := 0
	for slot := 0; slot < m.rules.MeldSlots; slot++ {
		if p, ok := t.Pile(meldPile(playerID, slot)); ok && p.Size() > 0 {
			n++
		}
	}
	return n
}

// cardList renders cards as a spaced list, e.g. "5♣ 5♦ 5♥".
func cardList(cards []engine.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
