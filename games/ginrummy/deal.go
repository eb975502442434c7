package ginrummy

import (
	"fmt"
	"hash/fnv"

	"github.com/baizegames/parlor/engine"
)

// dealSeed derives the shuffle seed for one hand. Seeding from the game
// tag and the hand number alone keeps every deal reproducible from the
// rules-state blob.
func dealSeed(hand int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(GameKey))
	seed := h.Sum64() ^ uint64(hand)*0x9e3779b97f4a7c15
	if seed == 0 {
		seed = 0x2545f4914f6cdd1d
	}
	return seed
}

func nextRand(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x
}

// shuffled returns a Fisher-Yates permutation of ids driven by the seed.
func shuffled(ids []int, seed uint64) []int {
	out := append([]int(nil), ids...)
	x := seed
	for i := len(out) - 1; i > 0; i-- {
		x = nextRand(x)
		j := int(x % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// startGame deals the next hand. All cards are gathered back into the
// deck, the deck is reshuffled in place with a deterministic self-move,
// and hands plus the first upcard are dealt from the top. Legal only
// between hands; any seated player may trigger it.
func (m *Module) startGame(t *engine.Table, s *handState, intent engine.Intent) (engine.Verdict, error) {
	if s.Dealt {
		return engine.Reject("the hand is already under way"), nil
	}
	if s.MatchWinner != "" {
		return engine.Reject("the match is over"), nil
	}

	deck, ok := t.Pile(pileDeck)
	if !ok {
		return engine.Verdict{}, corrupt("deal", "missing deck pile")
	}

	// Gather everything back into the deck, in table pile order.
	var events []engine.Event
	gathered := append([]int(nil), deck.CardIDs...)
	for _, p := range t.Piles {
		if p.ID == pileDeck || len(p.CardIDs) == 0 {
			continue
		}
		ids := append([]int(nil), p.CardIDs...)
		gathered = append(gathered, ids...)
		events = append(events, engine.MoveCards(p.ID, pileDeck, ids...))
	}

	need := len(s.Players)*m.rules.HandSize + 1
	if len(gathered) <= need {
		return engine.Verdict{}, corrupt("deal", "%d cards on the table, need more than %d", len(gathered), need)
	}

	if s.Dealer == "" {
		s.Dealer = s.Players[0]
	}
	hand := s.HandNumber + 1

	// A full self-move reorders the deck into the shuffled permutation.
	perm := shuffled(gathered, dealSeed(hand))
	events = append(events, engine.MoveCards(pileDeck, pileDeck, perm...))

	// Deal from the top, one card at a time, non-dealer first.
	nonDealer := s.nonDealer()
	idx := len(perm) - 1
	hands := map[string][]int{}
	for i := 0; i < m.rules.HandSize; i++ {
		hands[nonDealer] = append(hands[nonDealer], perm[idx])
		idx--
		hands[s.Dealer] = append(hands[s.Dealer], perm[idx])
		idx--
	}
	upcard := perm[idx]
	events = append(events,
		engine.MoveCards(pileDeck, handPile(nonDealer), hands[nonDealer]...),
		engine.MoveCards(pileDeck, handPile(s.Dealer), hands[s.Dealer]...),
		engine.MoveCards(pileDeck, pileDiscard, upcard),
	)

	// Hands were exposed for scoring at the end of the previous hand.
	for _, id := range s.Players {
		events = append(events, engine.SetPileVisibility(handPile(id), engine.VisibilityOwner))
	}

	s.Dealt = true
	s.HandNumber = hand
	s.Phase = PhaseUpcardNonDealer
	s.Turn = ""
	s.DeckOnlyDraw = false
	s.LastDrawSource = ""
	s.LastDrawCard = 0
	s.Knocker = ""
	s.Knock = ""
	s.LayoffCards = nil
	s.markRecap()

	up, _ := t.Card(upcard)
	dealerName := seatName(t, s.Dealer)
	s.addRecap(fmt.Sprintf("hand %d: %s deals, %s is the upcard", hand, dealerName, up))

	events = append(events,
		engine.SetRulesState(s.save()),
		engine.SetCurrentPlayer(nonDealer),
		engine.SetActions(engine.ActionSpec{PlayerID: nonDealer, Name: actionPass, Label: "Pass"}),
		engine.SetScoreboards(m.scoreboards(t, s, "")...),
		engine.SetCardVisuals(),
	)
	return engine.Accept(events...), nil
}

// seatName resolves a player id to its display name, falling back to the id.
func seatName(t *engine.Table, playerID string) string {
	if p, ok := t.PlayerByID(playerID); ok && p.Name != "" {
		return p.Name
	}
	return playerID
}
