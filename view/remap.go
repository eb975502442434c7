package view

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/baizegames/parlor/engine"
)

// tokenSpace bounds viewer tokens. Wide enough that probing past a hash
// collision stays short for any realistic table.
const tokenSpace = 1 << 20

// Remapper translates a table's real card ids into per-viewer tokens and
// back. Tokens come from a blake2b hash keyed by (salt, game id, viewer id),
// so two viewers of one game hold unrelated handles for the same card and
// cannot correlate ids across seats. The mapping covers the table's whole
// card set at construction and is deterministic for identical inputs.
type Remapper struct {
	forward map[int]int
	reverse map[int]int
}

// NewRemapper builds the token mapping for one viewer of one game. The salt
// is an explicit input and must stay constant for the life of the game;
// cardIDs must name every card the table will ever expose.
func NewRemapper(salt, gameID, viewerID string, cardIDs []int) *Remapper {
	key := blake2b.Sum256([]byte(salt + "\x1f" + gameID + "\x1f" + viewerID))

	ids := append([]int(nil), cardIDs...)
	sort.Ints(ids)

	rm := &Remapper{
		forward: make(map[int]int, len(ids)),
		reverse: make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		if _, dup := rm.forward[id]; dup {
			continue
		}
		// Token 0 is never assigned; it reads as an unset id on the wire.
		tok := int(cardHash(key[:], id) % tokenSpace)
		for {
			_, taken := rm.reverse[tok]
			if !taken && tok != 0 {
				break
			}
			tok = (tok + 1) % tokenSpace
		}
		rm.forward[id] = tok
		rm.reverse[tok] = id
	}
	return rm
}

// RemapperForTable builds the viewer's mapping over every card at the table.
func RemapperForTable(salt string, t *engine.Table, viewerID string) *Remapper {
	ids := make([]int, 0, len(t.Cards))
	for id := range t.Cards {
		ids = append(ids, id)
	}
	return NewRemapper(salt, t.ID, viewerID, ids)
}

func cardHash(key []byte, cardID int) uint64 {
	h, _ := blake2b.New256(key)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(cardID))
	h.Write(buf[:])
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// MapCard returns the viewer token for a real card id.
func (rm *Remapper) MapCard(id int) (int, bool) {
	tok, ok := rm.forward[id]
	return tok, ok
}

// UnmapCard returns the real card id behind a viewer token.
func (rm *Remapper) UnmapCard(token int) (int, bool) {
	id, ok := rm.reverse[token]
	return id, ok
}

// RemapIntent rewrites an intent's card ids into viewer tokens. Pile and
// player ids stay as they are; only card ids are viewer-scoped.
func (rm *Remapper) RemapIntent(in engine.Intent) (engine.Intent, error) {
	return rm.rewrite(in, rm.forward, "card id")
}

// UnmapIntent rewrites a viewer-submitted intent's tokens back into real
// card ids. An unknown token is an error; callers reject the intent rather
// than guess.
func (rm *Remapper) UnmapIntent(in engine.Intent) (engine.Intent, error) {
	return rm.rewrite(in, rm.reverse, "card token")
}

func (rm *Remapper) rewrite(in engine.Intent, table map[int]int, what string) (engine.Intent, error) {
	if len(in.CardIDs) == 0 {
		return in, nil
	}
	out := in
	out.CardIDs = make([]int, len(in.CardIDs))
	for i, id := range in.CardIDs {
		mapped, ok := table[id]
		if !ok {
			return engine.Intent{}, fmt.Errorf("unknown %s %d", what, id)
		}
		out.CardIDs[i] = mapped
	}
	return out, nil
}
