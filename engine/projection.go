package engine

// PileView is a snapshot of one pile as some viewer knows it. A tracked
// view carries the full ordered card-id list; an untracked view (a hidden
// or redacted pile) carries only the count and a nil CardIDs.
type PileView struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner,omitempty"`
	Visibility Visibility `json:"visibility"`
	CardIDs    []int      `json:"cardIds,omitempty"`
	Count      int        `json:"count"`
}

// Tracked reports whether the view carries per-card detail.
func (v *PileView) Tracked() bool { return v.CardIDs != nil }

// ProjectedPile is one pile of a projection result.
type ProjectedPile struct {
	ID      string
	Count   int
	tracked bool
	// CardIDs is the predicted order for tracked piles, nil otherwise.
	CardIDs []int
	// Cards holds resolved card objects for tracked piles when the caller
	// supplied a card table; identities are only ever looked up, never
	// invented.
	Cards []Card
}

// Tracked reports whether the projected pile carries per-card detail.
func (p *ProjectedPile) Tracked() bool { return p.tracked }

// Projection is the hypothetical pile layout after replaying move events
// against a snapshot.
type Projection struct {
	Piles []*ProjectedPile

	index map[string]*ProjectedPile
	// location tracks which pile currently holds each tracked card id.
	location map[int]string
}

// Pile returns the projected pile with the given id.
func (pr *Projection) Pile(id string) (*ProjectedPile, bool) {
	p, ok := pr.index[id]
	return p, ok
}

// TotalCount returns the number of cards across all projected piles.
func (pr *Projection) TotalCount() int {
	n := 0
	for _, p := range pr.Piles {
		n += p.Count
	}
	return n
}

// Project replays the move-type events, in order, against the pile snapshot
// and returns the predicted layout. Authoritative state is never touched:
// the snapshot is copied before replay. Events of non-move type are
// ignored. cards may be nil; when present it is used to resolve card
// objects for tracked piles. Structural impossibilities return a
// *StateError.
func Project(piles []PileView, cards map[int]Card, events []Event) (*Projection, error) {
	pr := &Projection{
		index:    make(map[string]*ProjectedPile, len(piles)),
		location: make(map[int]string),
	}
	for i := range piles {
		v := &piles[i]
		if _, dup := pr.index[v.ID]; dup {
			return nil, corruptf("projection", "duplicate pile %q in snapshot", v.ID)
		}
		p := &ProjectedPile{ID: v.ID, Count: v.Count, tracked: v.Tracked()}
		if p.tracked {
			p.CardIDs = append([]int(nil), v.CardIDs...)
			if p.Count != len(p.CardIDs) {
				return nil, corruptf("projection", "pile %q count %d contradicts its %d recorded card ids", v.ID, v.Count, len(v.CardIDs))
			}
			for _, id := range p.CardIDs {
				if prev, dup := pr.location[id]; dup {
					return nil, corruptf("projection", "card %d in piles %q and %q", id, prev, v.ID)
				}
				pr.location[id] = v.ID
			}
		}
		pr.Piles = append(pr.Piles, p)
		pr.index[v.ID] = p
	}

	for i := range events {
		ev := &events[i]
		if ev.Type != EventMoveCards {
			continue
		}
		if err := pr.replayMove(ev); err != nil {
			return nil, err
		}
	}

	if cards != nil {
		for _, p := range pr.Piles {
			if !p.tracked {
				continue
			}
			p.Cards = make([]Card, 0, len(p.CardIDs))
			for _, id := range p.CardIDs {
				c, ok := cards[id]
				if !ok {
					return nil, corruptf("projection", "pile %q holds card %d missing from the card table", p.ID, id)
				}
				p.Cards = append(p.Cards, c)
			}
		}
	}
	return pr, nil
}

func (pr *Projection) replayMove(ev *Event) error {
	if len(ev.CardIDs) == 0 {
		return corruptf("projection", "move from %q to %q names no cards", ev.FromPile, ev.ToPile)
	}
	from, ok := pr.index[ev.FromPile]
	if !ok {
		return corruptf("projection", "move from unknown pile %q", ev.FromPile)
	}
	to, ok := pr.index[ev.ToPile]
	if !ok {
		return corruptf("projection", "move to unknown pile %q", ev.ToPile)
	}

	if from.tracked {
		if err := pr.takeTracked(from, ev.CardIDs); err != nil {
			return err
		}
	} else {
		// Only the size is known; identities come from the event.
		if from.Count < len(ev.CardIDs) {
			return corruptf("projection", "pile %q holds %d cards, cannot move %d", from.ID, from.Count, len(ev.CardIDs))
		}
		for _, id := range ev.CardIDs {
			if prev, tracked := pr.location[id]; tracked && prev != from.ID {
				return corruptf("projection", "card %d recorded in pile %q but moved from %q", id, prev, from.ID)
			}
		}
		from.Count -= len(ev.CardIDs)
	}

	if to.tracked {
		to.CardIDs = append(to.CardIDs, ev.CardIDs...)
		to.Count = len(to.CardIDs)
		for _, id := range ev.CardIDs {
			pr.location[id] = to.ID
		}
	} else {
		to.Count += len(ev.CardIDs)
		for _, id := range ev.CardIDs {
			delete(pr.location, id)
		}
	}
	return nil
}

func (pr *Projection) takeTracked(from *ProjectedPile, ids []int) error {
	// Self-moves pass through here too: removal first, the caller appends.
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		if pr.location[id] != from.ID {
			return corruptf("projection", "card %d is not in pile %q", id, from.ID)
		}
		if drop[id] {
			return corruptf("projection", "card %d named twice in one move", id)
		}
		drop[id] = true
	}
	kept := make([]int, 0, len(from.CardIDs)-len(ids))
	for _, id := range from.CardIDs {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	from.CardIDs = kept
	from.Count = len(kept)
	for _, id := range ids {
		delete(pr.location, id)
	}
	return nil
}
