package scripted

import (
	"errors"
	"strings"
	"testing"

	"github.com/baizegames/parlor/candidates"
	"github.com/baizegames/parlor/engine"
)

func warModule(t *testing.T) *Module {
	t.Helper()
	mod, err := War()
	if err != nil {
		t.Fatalf("load war script: %v", err)
	}
	return mod
}

func warTable(t *testing.T) (*Module, *engine.Table) {
	t.Helper()
	mod := warModule(t)
	tab, err := engine.NewTable("war-1", []engine.Player{
		{ID: "p1", Name: "One"},
		{ID: "p2", Name: "Two"},
	}, mod)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return mod, tab
}

func flip(tableID, player string) engine.Intent {
	return engine.NewMove(tableID, player, "stack:"+player, "field:"+player)
}

func mustPlay(t *testing.T, mod *Module, tab *engine.Table, in engine.Intent) {
	t.Helper()
	v, err := mod.Validate(tab, in)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.Valid {
		t.Fatalf("intent rejected: %s", v.Reason)
	}
	if err := tab.Apply(v.Events); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func mustReject(t *testing.T, mod *Module, tab *engine.Table, in engine.Intent, wantSub string) {
	t.Helper()
	v, err := mod.Validate(tab, in)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v.Valid {
		t.Fatalf("intent unexpectedly valid: %+v", in)
	}
	if wantSub != "" && !strings.Contains(v.Reason, wantSub) {
		t.Fatalf("reason %q does not mention %q", v.Reason, wantSub)
	}
}

func TestWarMeta(t *testing.T) {
	meta := warModule(t).Meta()
	if meta.Key != "war" || meta.Name != "War" {
		t.Fatalf("meta = %+v", meta)
	}
	if meta.MinPlayers != 2 || meta.MaxPlayers != 2 {
		t.Fatalf("player range = %d-%d, want 2-2", meta.MinPlayers, meta.MaxPlayers)
	}
}

func TestWarSetupSplitsDeck(t *testing.T) {
	_, tab := warTable(t)
	if got := len(tab.Piles); got != 7 {
		t.Fatalf("pile count = %d, want 7", got)
	}
	for _, id := range []string{"stack:p1", "stack:p2"} {
		p, ok := tab.Pile(id)
		if !ok {
			t.Fatalf("no pile %q", id)
		}
		if p.Size() != 26 {
			t.Fatalf("%s size = %d, want 26", id, p.Size())
		}
		if p.Visibility != engine.VisibilityHidden {
			t.Fatalf("%s visibility = %s, want hidden", id, p.Visibility)
		}
	}
	for _, id := range []string{"field:p1", "field:p2", "spoils:p1", "spoils:p2", "limbo"} {
		p, ok := tab.Pile(id)
		if !ok {
			t.Fatalf("no pile %q", id)
		}
		if p.Size() != 0 {
			t.Fatalf("%s starts with %d cards, want empty", id, p.Size())
		}
	}
}

func TestWarTurnGuards(t *testing.T) {
	mod, tab := warTable(t)

	mustReject(t, mod, tab, flip("war-1", "p2"), "not your turn")
	mustReject(t, mod, tab, engine.NewAction("war-1", "p1", "pass"), "no buttons")
	mustReject(t, mod, tab, engine.NewMove("war-1", "p1", "stack:p1", "spoils:p1"), "flip the top card")

	stack, _ := tab.Pile("stack:p1")
	bottom := stack.CardIDs[0]
	mustReject(t, mod, tab, engine.NewMove("war-1", "p1", "stack:p1", "field:p1", bottom), "top card")
}

func TestWarFlipAndResolve(t *testing.T) {
	mod, tab := warTable(t)

	mustPlay(t, mod, tab, flip("war-1", "p1"))
	field1, _ := tab.Pile("field:p1")
	if field1.Size() != 1 {
		t.Fatalf("field:p1 size = %d, want 1", field1.Size())
	}
	if tab.CurrentPlayer != "p2" {
		t.Fatalf("current = %q, want p2", tab.CurrentPlayer)
	}

	// p1 flipped Q♠ and p2 answers with K♠, so both cards land in p2's
	// spoils and the boards update.
	mustPlay(t, mod, tab, flip("war-1", "p2"))
	for _, id := range []string{"field:p1", "field:p2"} {
		p, _ := tab.Pile(id)
		if p.Size() != 0 {
			t.Fatalf("%s not cleared after the round", id)
		}
	}
	spoils2, _ := tab.Pile("spoils:p2")
	if spoils2.Size() != 2 {
		t.Fatalf("spoils:p2 size = %d, want 2", spoils2.Size())
	}
	if tab.CurrentPlayer != "p1" {
		t.Fatalf("current = %q, want p1", tab.CurrentPlayer)
	}
	if len(tab.Scoreboards) != 2 {
		t.Fatalf("scoreboards = %d, want one per seat", len(tab.Scoreboards))
	}
	for _, b := range tab.Scoreboards {
		want := "0"
		if b.PlayerID == "p2" {
			want = "2"
		}
		if len(b.Rows) != 1 || b.Rows[0].Value != want {
			t.Fatalf("board %s = %+v, want spoils %s", b.PlayerID, b.Rows, want)
		}
	}
}

func TestWarTieGoesToLimbo(t *testing.T) {
	mod := warModule(t)
	deck := engine.StandardDeck(1)
	tab := &engine.Table{
		GameKind: "war",
		ID:       "war-tie",
		Players:  []engine.Player{{ID: "p1"}, {ID: "p2"}},
		Piles: []*engine.Pile{
			{ID: "stack:p1", Owner: "p1", Visibility: engine.VisibilityHidden, CardIDs: []int{1}},
			{ID: "stack:p2", Owner: "p2", Visibility: engine.VisibilityHidden, CardIDs: []int{14}},
			{ID: "field:p1", Owner: "p1", Visibility: engine.VisibilityPublic},
			{ID: "field:p2", Owner: "p2", Visibility: engine.VisibilityPublic},
			{ID: "spoils:p1", Owner: "p1", Visibility: engine.VisibilityPublic},
			{ID: "spoils:p2", Owner: "p2", Visibility: engine.VisibilityPublic},
			{ID: "limbo", Visibility: engine.VisibilityPublic},
		},
		// Two aces: equal rank on the only round.
		Cards: map[int]engine.Card{1: deck[0], 14: deck[13]},
	}

	mustPlay(t, mod, tab, flip("war-tie", "p1"))
	mustPlay(t, mod, tab, flip("war-tie", "p2"))

	limbo, _ := tab.Pile("limbo")
	if limbo.Size() != 2 {
		t.Fatalf("limbo size = %d, want 2", limbo.Size())
	}
	// Dead stacks with equal spoils: the first seat takes the tie.
	if tab.Winner != "p1" || tab.CurrentPlayer != "" {
		t.Fatalf("winner %q current %q, want p1 and no turn", tab.Winner, tab.CurrentPlayer)
	}
}

func TestWarFallbackServesFlips(t *testing.T) {
	mod, tab := warTable(t)

	ins, err := candidates.Enumerate(mod, tab, "p1")
	if err != nil {
		t.Fatalf("enumerate p1: %v", err)
	}
	if len(ins) != 1 {
		t.Fatalf("p1 candidates = %d, want 1", len(ins))
	}
	got := ins[0]
	if got.FromPile != "stack:p1" || got.ToPile != "field:p1" || len(got.CardIDs) != 0 {
		t.Fatalf("candidate = %+v, want an unnamed top-card flip", got)
	}

	ins, err = candidates.Enumerate(mod, tab, "p2")
	if err != nil {
		t.Fatalf("enumerate p2: %v", err)
	}
	if len(ins) != 0 {
		t.Fatalf("p2 candidates = %d, want 0 while waiting", len(ins))
	}
}

// TestWarPlaysToCompletion drives the whole match through the generic
// enumerator: every turn yields exactly one candidate and every candidate
// validates, so the fallback alone can play the game out.
func TestWarPlaysToCompletion(t *testing.T) {
	mod, tab := warTable(t)

	for moves := 0; tab.Winner == ""; moves++ {
		if moves >= 200 {
			t.Fatal("game did not finish in 200 moves")
		}
		cur := tab.CurrentPlayer
		if cur == "" {
			cur = "p1"
		}
		ins, err := candidates.Enumerate(mod, tab, cur)
		if err != nil {
			t.Fatalf("enumerate after %d moves: %v", moves, err)
		}
		if len(ins) > candidates.Cap {
			t.Fatalf("enumeration over cap: %d", len(ins))
		}
		if len(ins) != 1 {
			t.Fatalf("candidates after %d moves = %d, want 1", moves, len(ins))
		}
		mustPlay(t, mod, tab, ins[0])
	}

	// Interleaved halves give p2 the higher rank in 24 of 26 rounds.
	if tab.Winner != "p2" {
		t.Fatalf("winner = %q, want p2", tab.Winner)
	}
	for _, id := range []string{"stack:p1", "stack:p2", "field:p1", "field:p2"} {
		p, _ := tab.Pile(id)
		if p.Size() != 0 {
			t.Fatalf("%s still holds cards at the end", id)
		}
	}
	s1, _ := tab.Pile("spoils:p1")
	s2, _ := tab.Pile("spoils:p2")
	limbo, _ := tab.Pile("limbo")
	if s1.Size() != 4 || s2.Size() != 48 || limbo.Size() != 0 {
		t.Fatalf("final split = %d/%d/%d, want 4/48/0", s1.Size(), s2.Size(), limbo.Size())
	}
}

const crashSource = `
meta = { key = "crash", name = "Crash", min_players = 2, max_players = 2 }
function setup(players, deck)
  local ids = {}
  for _, c in ipairs(deck) do ids[#ids + 1] = c.id end
  return { { id = "all", visibility = "public", cards = ids } }
end
function validate(state, intent)
  error("kaboom")
end
`

func TestScriptCrashIsStateError(t *testing.T) {
	mod, err := New("crash.lua", crashSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	tab, err := engine.NewTable("c1", []engine.Player{{ID: "a"}, {ID: "b"}}, mod)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	_, err = mod.Validate(tab, engine.NewAction("c1", "a", "x"))
	var se *engine.StateError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a state error", err)
	}
	if !strings.Contains(se.Detail, "kaboom") {
		t.Fatalf("detail %q does not carry the script message", se.Detail)
	}
}

const badVerdictSource = `
meta = { key = "bad", name = "Bad", min_players = 2, max_players = 2 }
function setup(players, deck)
  local ids = {}
  for _, c in ipairs(deck) do ids[#ids + 1] = c.id end
  return { { id = "all", visibility = "public", cards = ids } }
end
function validate(state, intent)
  return 42
end
`

func TestMalformedVerdictIsStateError(t *testing.T) {
	mod, err := New("bad.lua", badVerdictSource)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	tab, err := engine.NewTable("b1", []engine.Player{{ID: "a"}, {ID: "b"}}, mod)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	_, err = mod.Validate(tab, engine.NewAction("b1", "a", "x"))
	var se *engine.StateError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a state error", err)
	}
	if !strings.Contains(se.Detail, "verdict") {
		t.Fatalf("detail %q does not name the verdict shape", se.Detail)
	}
}

func TestNewRejectsBrokenScripts(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"syntax", "function (", "compile"},
		{"no meta", "function setup() end\nfunction validate() end", "meta"},
		{"no validate", "meta = { key = 'x', name = 'X', min_players = 2, max_players = 2 }\nfunction setup() end", "validate"},
		{"bad range", "meta = { key = 'x', name = 'X', min_players = 0, max_players = 2 }\nfunction setup() end\nfunction validate() end", "player range"},
	}
	for _, tc := range cases {
		_, err := New(tc.name, tc.source)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}
