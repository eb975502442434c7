package engine

import "fmt"

// StateError signals a structurally impossible table mutation: a move
// naming a card its source pile does not hold, an unknown pile, a count
// underflow. These are programmer-error conditions outside normal play,
// never player-facing rejections, and callers should abort the operation
// rather than continue with inconsistent piles.
type StateError struct {
	Op     string
	Detail string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("corrupt state in %s: %s", e.Op, e.Detail)
}

func corruptf(op, format string, args ...any) *StateError {
	return &StateError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Apply mutates the table by the given events, in order. It stops at the
// first structural failure and returns a *StateError; events already applied
// stay applied, so callers treating the error as fatal should discard the
// table.
func (t *Table) Apply(events []Event) error {
	for i := range events {
		if err := t.applyOne(&events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) applyOne(ev *Event) error {
	switch ev.Type {
	case EventMoveCards:
		return t.applyMove(ev)

	case EventSetCurrentPlayer:
		// Empty clears the turn, e.g. between hands.
		if ev.PlayerID != "" && !t.Seated(ev.PlayerID) {
			return corruptf("apply", "set-current-player names unseated player %q", ev.PlayerID)
		}
		t.CurrentPlayer = ev.PlayerID
		return nil

	case EventSetWinner:
		if ev.PlayerID != "" && !t.Seated(ev.PlayerID) {
			return corruptf("apply", "set-winner names unseated player %q", ev.PlayerID)
		}
		t.Winner = ev.PlayerID
		return nil

	case EventSetRulesState:
		t.RulesState = append(t.RulesState[:0], ev.RulesState...)
		return nil

	case EventSetScoreboards:
		t.Scoreboards = cloneScoreboards(ev.Scoreboards)
		return nil

	case EventSetActions:
		t.Actions = append([]ActionSpec(nil), ev.Actions...)
		return nil

	case EventSetPileVisibility:
		p, ok := t.Pile(ev.PileID)
		if !ok {
			return corruptf("apply", "set-pile-visibility names unknown pile %q", ev.PileID)
		}
		if ev.Visibility == nil {
			return corruptf("apply", "set-pile-visibility for %q carries no tier", ev.PileID)
		}
		p.Visibility = *ev.Visibility
		return nil

	case EventSetCardVisuals:
		for _, v := range ev.Visuals {
			if _, ok := t.Cards[v.CardID]; !ok {
				return corruptf("apply", "set-card-visuals names unknown card %d", v.CardID)
			}
		}
		t.Visuals = append([]CardVisual(nil), ev.Visuals...)
		return nil

	case EventFatalError:
		t.FatalMessage = ev.Message
		return nil

	default:
		return corruptf("apply", "unknown event type %q", ev.Type)
	}
}

func (t *Table) applyMove(ev *Event) error {
	if len(ev.CardIDs) == 0 {
		return corruptf("apply", "move-cards from %q to %q names no cards", ev.FromPile, ev.ToPile)
	}
	from, ok := t.Pile(ev.FromPile)
	if !ok {
		return corruptf("apply", "move-cards from unknown pile %q", ev.FromPile)
	}
	to, ok := t.Pile(ev.ToPile)
	if !ok {
		return corruptf("apply", "move-cards to unknown pile %q", ev.ToPile)
	}
	for _, id := range ev.CardIDs {
		if _, known := t.Cards[id]; !known {
			return corruptf("apply", "move-cards names unknown card %d", id)
		}
	}
	if err := from.take(ev.CardIDs); err != nil {
		return corruptf("apply", "%v", err)
	}
	to.put(ev.CardIDs)
	return nil
}
