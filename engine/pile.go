package engine

import (
	"encoding/json"
	"fmt"
)

// Visibility is a pile's exposure tier.
type Visibility uint8

const (
	// VisibilityPublic piles show their full contents to every viewer.
	VisibilityPublic Visibility = iota
	// VisibilityOwner piles show contents to the owning player only;
	// everyone else sees the count.
	VisibilityOwner
	// VisibilityHidden piles conceal their composition from everyone,
	// including the owner; only the count is visible.
	VisibilityHidden
)

var visibilityNames = [3]string{"public", "owner", "hidden"}

func (v Visibility) String() string {
	if int(v) >= len(visibilityNames) {
		return "unknown"
	}
	return visibilityNames[v]
}

// MarshalJSON encodes the tier as its lowercase name.
func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a lowercase tier name.
func (v *Visibility) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range visibilityNames {
		if s == name {
			*v = Visibility(i)
			return nil
		}
	}
	return fmt.Errorf("unknown visibility %q", s)
}

// Pile is an ordered stack of cards identified by id. The last element of
// CardIDs is the top of the pile.
type Pile struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner,omitempty"`
	Visibility Visibility `json:"visibility"`
	CardIDs    []int      `json:"cardIds"`
}

// Size returns the number of cards in the pile.
func (p *Pile) Size() int { return len(p.CardIDs) }

// Top returns the id of the top card, or false when the pile is empty.
func (p *Pile) Top() (int, bool) {
	if len(p.CardIDs) == 0 {
		return 0, false
	}
	return p.CardIDs[len(p.CardIDs)-1], true
}

// Contains reports whether the pile holds the card id.
func (p *Pile) Contains(id int) bool {
	for _, c := range p.CardIDs {
		if c == id {
			return true
		}
	}
	return false
}

// take removes the given card ids from the pile, preserving the relative
// order of the cards left behind. It fails if any id is absent.
func (p *Pile) take(ids []int) error {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !p.Contains(id) {
			return fmt.Errorf("card %d is not in pile %q", id, p.ID)
		}
		if drop[id] {
			return fmt.Errorf("card %d named twice in a move from pile %q", id, p.ID)
		}
		drop[id] = true
	}
	kept := p.CardIDs[:0]
	for _, c := range p.CardIDs {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	p.CardIDs = kept
	return nil
}

// put appends the given card ids to the top of the pile in order.
func (p *Pile) put(ids []int) {
	p.CardIDs = append(p.CardIDs, ids...)
}

// clone returns an independent deep copy of the pile.
func (p *Pile) clone() *Pile {
	cp := *p
	cp.CardIDs = append([]int(nil), p.CardIDs...)
	return &cp
}
