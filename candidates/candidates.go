// Package candidates enumerates and labels the legal intents one player can
// submit on a table. Rule modules that implement engine.IntentLister supply
// their own enumeration; every other module is served by a generic fallback
// that synthesizes moves from the player's rendered view and keeps only what
// the module validates.
package candidates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/view"
)

// Cap bounds the fallback enumeration. Downstream consumers, the AI chooser
// prompt in particular, degrade badly past this many options.
const Cap = 120

// Candidate is one legal intent with a stable consumer-facing handle.
// Intent always carries real card ids, ready for Validate; ID and Summary
// are built through the optional Mapper so exposed handles never leak raw
// ids. Whoever serializes a candidate outward remaps the intent field at
// that boundary.
type Candidate struct {
	ID      string        `json:"id"`
	Summary string        `json:"summary"`
	Intent  engine.Intent `json:"intent"`
}

// Mapper rewrites real card ids into the tokens one consumer is allowed to
// see. *view.Remapper and the policy pipeline's per-request compaction both
// satisfy it.
type Mapper interface {
	MapCard(id int) (int, bool)
}

// Enumerate returns the legal intents for one player: rule-provided when the
// module implements engine.IntentLister, synthesized otherwise. Both paths
// withhold start-game unless every seat is automated; a table with a human
// seat waits for that human to press it.
func Enumerate(mod engine.Ruleset, t *engine.Table, playerID string) ([]engine.Intent, error) {
	var (
		intents []engine.Intent
		err     error
	)
	if lister, ok := mod.(engine.IntentLister); ok {
		intents = lister.LegalIntents(t, playerID)
	} else {
		intents, err = fallback(mod, t, playerID)
		if err != nil {
			return nil, err
		}
	}

	out := make([]engine.Intent, 0, len(intents))
	for _, in := range intents {
		if in.Type == engine.IntentAction && in.Action == engine.ActionStartGame && !t.AllAutomated() {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

// List enumerates and labels in one step.
func List(mod engine.Ruleset, t *engine.Table, playerID string, m Mapper) ([]Candidate, error) {
	intents, err := Enumerate(mod, t, playerID)
	if err != nil {
		return nil, err
	}
	return Build(t, intents, m), nil
}

// fallback synthesizes intents purely from the player's rendered view: each
// enabled action button, each visible card to every other pile, and the
// unnamed top card of each unseen pile to every other pile. The top-card
// shorthand keeps deck draws expressible without naming a hidden face. Every
// synthesized intent is checked against the module; a corrupt-state error
// aborts the whole enumeration.
func fallback(mod engine.Ruleset, t *engine.Table, playerID string) ([]engine.Intent, error) {
	v := view.Render(t, mod, playerID, nil)

	var tried []engine.Intent
	for _, a := range v.Actions {
		tried = append(tried, engine.NewAction(t.ID, playerID, a.Name))
	}
	for _, from := range v.Piles {
		if from.Count == 0 {
			continue
		}
		for _, to := range v.Piles {
			if to.ID == from.ID {
				continue
			}
			if !from.Revealed() {
				tried = append(tried, engine.NewMove(t.ID, playerID, from.ID, to.ID))
				continue
			}
			for _, c := range from.Cards {
				tried = append(tried, engine.NewMove(t.ID, playerID, from.ID, to.ID, c.ID))
			}
		}
	}

	out := make([]engine.Intent, 0, Cap)
	for _, in := range tried {
		if len(out) == Cap {
			break
		}
		verdict, err := mod.Validate(t, in)
		if err != nil {
			return nil, err
		}
		if verdict.Valid {
			out = append(out, in)
		}
	}
	return out, nil
}

// Build labels intents as candidates. Ids derive from the intent shape as
// exposed through m, so every consumer comparing candidates by card id sees
// the same tokens. An id seen before in this batch gains an incrementing #n
// suffix, and so does a summary that reads identically to an earlier one.
func Build(t *engine.Table, intents []engine.Intent, m Mapper) []Candidate {
	out := make([]Candidate, 0, len(intents))
	ids := make(map[string]int, len(intents))
	sums := make(map[string]int, len(intents))
	for _, in := range intents {
		id := intentID(in, m)
		if n := ids[id]; n > 0 {
			ids[id] = n + 1
			id = fmt.Sprintf("%s#%d", id, n+1)
		} else {
			ids[id] = 1
		}

		sum := summarize(t, in)
		if n := sums[sum]; n > 0 {
			sums[sum] = n + 1
			sum = fmt.Sprintf("%s #%d", sum, n+1)
		} else {
			sums[sum] = 1
		}

		out = append(out, Candidate{ID: id, Summary: sum, Intent: in})
	}
	return out
}

func intentID(in engine.Intent, m Mapper) string {
	if in.Type == engine.IntentAction {
		return "a:" + in.Action
	}
	var b strings.Builder
	b.WriteString("m:")
	b.WriteString(in.FromPile)
	b.WriteString(">")
	b.WriteString(in.ToPile)
	for i, id := range in.CardIDs {
		if i == 0 {
			b.WriteString(":")
		} else {
			b.WriteString("+")
		}
		b.WriteString(strconv.Itoa(exposeID(id, m)))
	}
	return b.String()
}

func exposeID(id int, m Mapper) int {
	if m == nil {
		return id
	}
	tok, ok := m.MapCard(id)
	if !ok {
		return 0
	}
	return tok
}

func summarize(t *engine.Table, in engine.Intent) string {
	if in.Type == engine.IntentAction {
		if label, ok := actionLabel(t, in); ok {
			return label
		}
		return in.Action
	}
	if len(in.CardIDs) == 0 {
		return fmt.Sprintf("top card of %s to %s", in.FromPile, in.ToPile)
	}
	names := make([]string, len(in.CardIDs))
	for i, id := range in.CardIDs {
		c, ok := t.Card(id)
		if !ok {
			names[i] = fmt.Sprintf("card %d", id)
			continue
		}
		names[i] = c.String()
	}
	return fmt.Sprintf("%s from %s to %s", strings.Join(names, " "), in.FromPile, in.ToPile)
}

// actionLabel resolves the button label announced for this action and
// player, when there is one.
func actionLabel(t *engine.Table, in engine.Intent) (string, bool) {
	for _, a := range t.Actions {
		if a.Name != in.Action {
			continue
		}
		if a.PlayerID != "" && a.PlayerID != in.PlayerID {
			continue
		}
		if a.Label != "" {
			return a.Label, true
		}
	}
	return "", false
}
