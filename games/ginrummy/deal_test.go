package ginrummy

import (
	"testing"

	"github.com/baizegames/parlor/engine"
)

// TestShuffleDeterminism verifies equal seeds reproduce the permutation
// and successive hands use different ones.
func TestShuffleDeterminism(t *testing.T) {
	ids := make([]int, 52)
	for i := range ids {
		ids[i] = i + 1
	}
	a := shuffled(ids, dealSeed(1))
	b := shuffled(ids, dealSeed(1))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %d vs %d", i, a[i], b[i])
		}
	}
	c := shuffled(ids, dealSeed(2))
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("hand 1 and hand 2 shuffled identically")
	}
}

// TestStartGameDeals verifies the opening layout of a hand.
func TestStartGameDeals(t *testing.T) {
	mod, tab := newMatch(t)
	mustPlay(t, mod, tab, engine.NewAction("t1", "alice", actionStartGame))

	wantSizes := map[string]int{
		pileDeck:          31,
		pileDiscard:       1,
		handPile("alice"): 10,
		handPile("bob"):   10,
	}
	for id, want := range wantSizes {
		p, _ := tab.Pile(id)
		if p.Size() != want {
			t.Errorf("pile %s size = %d, want %d", id, p.Size(), want)
		}
	}
	if got := tab.CardCount(); got != 52 {
		t.Errorf("card count = %d, want 52", got)
	}

	s := loadState(tab)
	if s.Phase != PhaseUpcardNonDealer || !s.Dealt || s.HandNumber != 1 {
		t.Fatalf("state after deal = %+v", s)
	}
	if s.Dealer != "alice" {
		t.Fatalf("dealer = %q, want the first seat", s.Dealer)
	}
	if tab.CurrentPlayer != "bob" {
		t.Fatalf("current = %q, want the non-dealer", tab.CurrentPlayer)
	}
	if len(tab.Actions) != 1 || tab.Actions[0].Name != actionPass || tab.Actions[0].PlayerID != "bob" {
		t.Fatalf("actions = %+v, want pass for bob", tab.Actions)
	}
	if len(tab.Scoreboards) != 2 {
		t.Fatalf("scoreboards = %+v", tab.Scoreboards)
	}

	mustReject(t, mod, tab, engine.NewAction("t1", "alice", actionStartGame), "already under way")
}

// TestDealMatchesAcrossTables verifies dealing is a pure function of the
// hand number, not the table.
func TestDealMatchesAcrossTables(t *testing.T) {
	modA, tabA := newMatch(t)
	modB, tabB := newMatch(t)
	mustPlay(t, modA, tabA, engine.NewAction("t1", "alice", actionStartGame))
	mustPlay(t, modB, tabB, engine.NewAction("t1", "bob", actionStartGame))

	for _, id := range []string{pileDeck, pileDiscard, handPile("alice"), handPile("bob")} {
		a, _ := tabA.Pile(id)
		b, _ := tabB.Pile(id)
		if a.Size() != b.Size() {
			t.Fatalf("pile %s sizes differ: %d vs %d", id, a.Size(), b.Size())
		}
		for i := range a.CardIDs {
			if a.CardIDs[i] != b.CardIDs[i] {
				t.Fatalf("pile %s diverges at %d: %d vs %d", id, i, a.CardIDs[i], b.CardIDs[i])
			}
		}
	}
}

// TestUpcardPassFlow verifies both players passing forces a deck draw.
func TestUpcardPassFlow(t *testing.T) {
	mod, tab := newMatch(t)
	mustPlay(t, mod, tab, engine.NewAction("t1", "alice", actionStartGame))

	mustReject(t, mod, tab, engine.NewAction("t1", "alice", actionPass), "not your turn")
	mustPlay(t, mod, tab, engine.NewAction("t1", "bob", actionPass))

	s := loadState(tab)
	if s.Phase != PhaseUpcardDealer || tab.CurrentPlayer != "alice" {
		t.Fatalf("after first pass: phase %q current %q", s.Phase, tab.CurrentPlayer)
	}

	mustPlay(t, mod, tab, engine.NewAction("t1", "alice", actionPass))
	s = loadState(tab)
	if s.Phase != PhasePlaying || s.Turn != TurnMustDraw || !s.DeckOnlyDraw {
		t.Fatalf("after both passes = %+v", s)
	}
	if tab.CurrentPlayer != "bob" {
		t.Fatalf("current = %q, want the non-dealer opening", tab.CurrentPlayer)
	}

	mustReject(t, mod, tab, engine.NewMove("t1", "bob", pileDiscard, handPile("bob")), "must come from the deck")
	mustReject(t, mod, tab, engine.NewMove("t1", "bob", pileDeck, handPile("bob"), 1), "without naming")

	mustPlay(t, mod, tab, engine.NewMove("t1", "bob", pileDeck, handPile("bob")))
	s = loadState(tab)
	if s.Turn != TurnMustDiscard || s.DeckOnlyDraw {
		t.Fatalf("after the deck draw = %+v", s)
	}
	hand, _ := tab.Pile(handPile("bob"))
	if hand.Size() != 11 {
		t.Fatalf("hand size = %d, want 11", hand.Size())
	}
	deck, _ := tab.Pile(pileDeck)
	if deck.Size() != 30 {
		t.Fatalf("deck size = %d, want 30", deck.Size())
	}
}

// TestUpcardTaken verifies taking the first upcard and the rule against
// throwing back the card just taken.
func TestUpcardTaken(t *testing.T) {
	mod, tab := newMatch(t)
	mustPlay(t, mod, tab, engine.NewAction("t1", "alice", actionStartGame))

	discard, _ := tab.Pile(pileDiscard)
	up, _ := discard.Top()

	mustReject(t, mod, tab, engine.NewMove("t1", "bob", pileDeck, handPile("bob")), "taking the upcard")
	mustPlay(t, mod, tab, engine.NewMove("t1", "bob", pileDiscard, handPile("bob"), up))

	s := loadState(tab)
	if s.Phase != PhasePlaying || s.Turn != TurnMustDiscard || tab.CurrentPlayer != "bob" {
		t.Fatalf("after taking the upcard = %+v current %q", s, tab.CurrentPlayer)
	}
	hand, _ := tab.Pile(handPile("bob"))
	if hand.Size() != 11 || !hand.Contains(up) {
		t.Fatalf("hand = %+v, want the upcard in it", hand.CardIDs)
	}

	mustReject(t, mod, tab, engine.NewMove("t1", "bob", handPile("bob"), pileDiscard, up), "just took")

	// Throwing any other card passes the turn.
	other := hand.CardIDs[0]
	if other == up {
		other = hand.CardIDs[1]
	}
	mustPlay(t, mod, tab, engine.NewMove("t1", "bob", handPile("bob"), pileDiscard, other))
	s = loadState(tab)
	if s.Turn != TurnMustDraw || tab.CurrentPlayer != "alice" {
		t.Fatalf("after the discard = %+v current %q", s, tab.CurrentPlayer)
	}
}
