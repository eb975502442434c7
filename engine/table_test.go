package engine

import (
	"testing"
)

// stubModule is a minimal Ruleset for exercising table plumbing: a hidden
// stock, a public board, and one owner-visible hand per player.
type stubModule struct {
	deckSize int
}

func (m *stubModule) Meta() Meta {
	return Meta{Key: "stub", Name: "Stub", MinPlayers: 1, MaxPlayers: 4}
}

func (m *stubModule) Setup(players []Player) ([]*Pile, []Card, error) {
	cards := StandardDeck(1)[:m.deckSize]
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	piles := []*Pile{
		{ID: "stock", Visibility: VisibilityHidden, CardIDs: ids},
		{ID: "board", Visibility: VisibilityPublic, CardIDs: []int{}},
	}
	for _, p := range players {
		piles = append(piles, &Pile{ID: "hand:" + p.ID, Owner: p.ID, Visibility: VisibilityOwner, CardIDs: []int{}})
	}
	return piles, cards, nil
}

func (m *stubModule) Validate(t *Table, in Intent) (Verdict, error) {
	return Reject("stub accepts nothing"), nil
}

func (m *stubModule) ScoreboardsFor(t *Table, viewerID string) []Scoreboard {
	return nil
}

// newStubTable builds a dealt-nothing two-player stub table.
func newStubTable(t *testing.T, deckSize int) *Table {
	t.Helper()
	players := []Player{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob", Automated: true},
	}
	tbl, err := NewTable("t1", players, &stubModule{deckSize: deckSize})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return tbl
}

// TestNewTablePlacesEveryCard verifies setup sanity checks pass for a clean
// layout and every card lands in exactly one pile.
func TestNewTablePlacesEveryCard(t *testing.T) {
	tbl := newStubTable(t, 12)

	if got := tbl.CardCount(); got != 12 {
		t.Errorf("CardCount: want 12, got %d", got)
	}
	stock, ok := tbl.Pile("stock")
	if !ok {
		t.Fatal("stock pile missing")
	}
	if stock.Size() != 12 {
		t.Errorf("stock size: want 12, got %d", stock.Size())
	}
	if len(tbl.Piles) != 4 {
		t.Errorf("pile count: want 4, got %d", len(tbl.Piles))
	}
}

// TestNewTableRejectsBadSeatCounts verifies the seat bounds from module meta.
func TestNewTableRejectsBadSeatCounts(t *testing.T) {
	if _, err := NewTable("t1", nil, &stubModule{deckSize: 4}); err == nil {
		t.Error("expected error for zero players")
	}
	five := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	if _, err := NewTable("t1", five, &stubModule{deckSize: 4}); err == nil {
		t.Error("expected error for five players at a four-seat game")
	}
	dup := []Player{{ID: "a"}, {ID: "a"}}
	if _, err := NewTable("t1", dup, &stubModule{deckSize: 4}); err == nil {
		t.Error("expected error for duplicate player ids")
	}
}

// TestCloneIsIndependent verifies mutating a clone leaves the original alone.
func TestCloneIsIndependent(t *testing.T) {
	tbl := newStubTable(t, 8)
	cp := tbl.Clone()

	ev := []Event{MoveCards("stock", "board", 1, 2)}
	if err := cp.Apply(ev); err != nil {
		t.Fatalf("Apply on clone failed: %v", err)
	}

	stock, _ := tbl.Pile("stock")
	if stock.Size() != 8 {
		t.Errorf("original stock size: want 8, got %d", stock.Size())
	}
	cpStock, _ := cp.Pile("stock")
	if cpStock.Size() != 6 {
		t.Errorf("clone stock size: want 6, got %d", cpStock.Size())
	}
}

// TestAllAutomated verifies the all-seats-automated predicate.
func TestAllAutomated(t *testing.T) {
	tbl := newStubTable(t, 4)
	if tbl.AllAutomated() {
		t.Error("AllAutomated: want false with a human seat")
	}
	for i := range tbl.Players {
		tbl.Players[i].Automated = true
	}
	if !tbl.AllAutomated() {
		t.Error("AllAutomated: want true with every seat automated")
	}
}
