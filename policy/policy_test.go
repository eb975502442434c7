package policy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/baizegames/parlor/engine"
)

// listStub is a ruleset with a fixed enumeration, accepting whatever it
// listed.
type listStub struct {
	intents []engine.Intent
}

func (s *listStub) Meta() engine.Meta {
	return engine.Meta{Key: "list-stub", Name: "List Stub", MinPlayers: 1, MaxPlayers: 2}
}

func (s *listStub) Setup(players []engine.Player) ([]*engine.Pile, []engine.Card, error) {
	return nil, nil, nil
}

func (s *listStub) Validate(t *engine.Table, in engine.Intent) (engine.Verdict, error) {
	return engine.Accept(), nil
}

func (s *listStub) ScoreboardsFor(t *engine.Table, viewerID string) []engine.Scoreboard {
	return nil
}

func (s *listStub) LegalIntents(t *engine.Table, playerID string) []engine.Intent {
	return s.intents
}

// advisedStub adds the AI-support extension.
type advisedStub struct {
	listStub
	recap []string
	rules string
}

func (s *advisedStub) Recap(t *engine.Table) []string { return s.recap }
func (s *advisedStub) RulesDoc() string               { return s.rules }

type stubChooser struct {
	id    string
	err   error
	calls int
	last  Request
}

func (c *stubChooser) Choose(ctx context.Context, req Request) (string, error) {
	c.calls++
	c.last = req
	if c.err != nil {
		return "", c.err
	}
	return c.id, nil
}

type memAuditor struct {
	kinds []string
}

func (a *memAuditor) Append(ctx context.Context, gameID, kind string, payload any) {
	a.kinds = append(a.kinds, kind)
}

// policyTable seats one automated player with a visible hand and board.
func policyTable() *engine.Table {
	deck := engine.StandardDeck(1)
	return &engine.Table{
		GameKind:      "list-stub",
		ID:            "g1",
		Players:       []engine.Player{{ID: "bot", Name: "Bot", Automated: true}},
		CurrentPlayer: "bot",
		Piles: []*engine.Pile{
			{ID: "hand:bot", Owner: "bot", Visibility: engine.VisibilityOwner, CardIDs: []int{5, 18}},
			{ID: "board", Visibility: engine.VisibilityPublic, CardIDs: []int{40}},
		},
		Cards: map[int]engine.Card{5: deck[4], 18: deck[17], 40: deck[39]},
	}
}

// TestZeroCandidatesIsFatal verifies an empty enumeration is a typed policy
// error and no chooser call is made.
func TestZeroCandidatesIsFatal(t *testing.T) {
	ch := &stubChooser{}
	p := &Pipeline{Chooser: ch}

	_, err := p.SelectIntent(context.Background(), &listStub{}, policyTable(), "bot")
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("error type: want *PolicyError, got %v", err)
	}
	if ch.calls != 0 {
		t.Errorf("chooser calls: want 0, got %d", ch.calls)
	}
}

// TestSingleCandidateSkipsChooser verifies the one-candidate shortcut.
func TestSingleCandidateSkipsChooser(t *testing.T) {
	in := engine.NewMove("g1", "bot", "hand:bot", "board", 5)
	ch := &stubChooser{}
	p := &Pipeline{Chooser: ch}

	got, err := p.SelectIntent(context.Background(), &listStub{intents: []engine.Intent{in}}, policyTable(), "bot")
	if err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("intent: want %+v, got %+v", in, got)
	}
	if ch.calls != 0 {
		t.Errorf("chooser calls: want 0, got %d", ch.calls)
	}
}

// TestFirstCandidateMode verifies the deterministic test mode prefers the
// first non-pass candidate and never consults the chooser.
func TestFirstCandidateMode(t *testing.T) {
	pass := engine.NewAction("g1", "bot", engine.ActionPass)
	move := engine.NewMove("g1", "bot", "hand:bot", "board", 5)
	ch := &stubChooser{}
	p := &Pipeline{Chooser: ch, FirstCandidate: true}

	got, err := p.SelectIntent(context.Background(), &listStub{intents: []engine.Intent{pass, move}}, policyTable(), "bot")
	if err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	if got.Type != engine.IntentMove {
		t.Errorf("pick: want the move over the pass, got %+v", got)
	}

	onlyPass, err := p.SelectIntent(context.Background(), &listStub{intents: []engine.Intent{pass}}, policyTable(), "bot")
	if err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	if onlyPass.Action != engine.ActionPass {
		t.Errorf("pick: want pass when passing is all there is, got %+v", onlyPass)
	}
	if ch.calls != 0 {
		t.Errorf("chooser calls: want 0, got %d", ch.calls)
	}
}

// TestChooserSelection verifies the chooser path: compact-id candidates out,
// real-id intent back, recap and rules attached.
func TestChooserSelection(t *testing.T) {
	mod := &advisedStub{
		listStub: listStub{intents: []engine.Intent{
			engine.NewMove("g1", "bot", "hand:bot", "board", 5),
			engine.NewMove("g1", "bot", "hand:bot", "board", 18),
		}},
		recap: []string{"hand 1 underway"},
		rules: "# House Rules",
	}
	ch := &stubChooser{id: "m:hand:bot>board:2"}
	p := &Pipeline{Chooser: ch}

	got, err := p.SelectIntent(context.Background(), mod, policyTable(), "bot")
	if err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	if len(got.CardIDs) != 1 || got.CardIDs[0] != 18 {
		t.Errorf("chosen intent: want real card id 18, got %v", got.CardIDs)
	}
	if ch.calls != 1 {
		t.Fatalf("chooser calls: want 1, got %d", ch.calls)
	}
	if len(ch.last.Candidates) != 2 || ch.last.Candidates[0].ID != "m:hand:bot>board:1" {
		t.Errorf("candidates shown: got %+v", ch.last.Candidates)
	}
	if ch.last.View.You != "bot" {
		t.Errorf("view seat: want bot, got %q", ch.last.View.You)
	}
	if len(ch.last.Context.Recap) != 1 || ch.last.Context.Recap[0] != "hand 1 underway" {
		t.Errorf("recap: got %+v", ch.last.Context.Recap)
	}
	if ch.last.RulesMarkdown != "# House Rules" {
		t.Errorf("rules markdown: got %q", ch.last.RulesMarkdown)
	}
}

// TestChooserFailureIsPolicyError verifies chooser errors wrap into the
// typed error and stay reachable through errors.Is.
func TestChooserFailureIsPolicyError(t *testing.T) {
	boom := errors.New("boom")
	mod := &listStub{intents: []engine.Intent{
		engine.NewAction("g1", "bot", "wave"),
		engine.NewAction("g1", "bot", "poke"),
	}}
	p := &Pipeline{Chooser: &stubChooser{err: boom}}

	_, err := p.SelectIntent(context.Background(), mod, policyTable(), "bot")
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("error type: want *PolicyError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("wrapped chooser error lost")
	}
}

// TestUnknownChoiceIsPolicyError verifies an id outside the candidate list
// is a policy failure, not a silent fallback.
func TestUnknownChoiceIsPolicyError(t *testing.T) {
	mod := &listStub{intents: []engine.Intent{
		engine.NewAction("g1", "bot", "wave"),
		engine.NewAction("g1", "bot", "poke"),
	}}
	p := &Pipeline{Chooser: &stubChooser{id: "a:shrug"}}

	_, err := p.SelectIntent(context.Background(), mod, policyTable(), "bot")
	var pe *PolicyError
	if !errors.As(err, &pe) {
		t.Fatalf("error type: want *PolicyError, got %v", err)
	}
}

// TestAuditTrail verifies the append order for both the shortcut and the
// chooser path.
func TestAuditTrail(t *testing.T) {
	single := &listStub{intents: []engine.Intent{engine.NewAction("g1", "bot", "wave")}}
	aud := &memAuditor{}
	p := &Pipeline{Chooser: &stubChooser{}, Auditor: aud}
	if _, err := p.SelectIntent(context.Background(), single, policyTable(), "bot"); err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	want := []string{"candidates", "outcome"}
	if !reflect.DeepEqual(aud.kinds, want) {
		t.Errorf("audit kinds: want %v, got %v", want, aud.kinds)
	}

	double := &listStub{intents: []engine.Intent{
		engine.NewAction("g1", "bot", "wave"),
		engine.NewAction("g1", "bot", "poke"),
	}}
	aud = &memAuditor{}
	p = &Pipeline{Chooser: &stubChooser{id: "a:wave"}, Auditor: aud}
	if _, err := p.SelectIntent(context.Background(), double, policyTable(), "bot"); err != nil {
		t.Fatalf("SelectIntent failed: %v", err)
	}
	want = []string{"candidates", "prompt", "outcome"}
	if !reflect.DeepEqual(aud.kinds, want) {
		t.Errorf("audit kinds: want %v, got %v", want, aud.kinds)
	}
}
