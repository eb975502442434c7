package ginrummy

import (
	"sort"

	"github.com/baizegames/parlor/engine"
)

// MeldKind distinguishes rank sets from suit runs.
type MeldKind uint8

const (
	MeldSet MeldKind = iota
	MeldRun
)

// Meld is one melded group, by card id.
type Meld struct {
	Kind    MeldKind
	CardIDs []int
}

// Analysis is a minimum-deadwood partition of a hand.
type Analysis struct {
	Melds       []Meld
	Deadwood    int
	DeadwoodIDs []int
}

// deadwoodValue returns a rank's deadwood points: face value for 2-10, 10
// for court cards, 1 for the ace.
func deadwoodValue(r engine.Rank) int {
	if r >= engine.Jack {
		return 10
	}
	return int(r)
}

func handValue(cards []engine.Card) int {
	total := 0
	for _, c := range cards {
		total += deadwoodValue(c.Rank)
	}
	return total
}

// validMeld reports whether the cards form one legal meld: a 3-4 card set
// of one rank, or a 3+ card same-suit run of consecutive ranks, ace low.
// This also decides layoff legality: a lay-off extends a meld exactly when
// the union is still valid (sets cap at four, runs grow only at the ends).
func validMeld(cards []engine.Card) bool {
	n := len(cards)
	if n < 3 {
		return false
	}

	set := true
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			set = false
			break
		}
	}
	if set {
		return n <= 4
	}

	suit := cards[0].Suit
	ranks := make([]int, 0, n)
	for _, c := range cards {
		if c.Suit != suit {
			return false
		}
		ranks = append(ranks, int(c.Rank))
	}
	sort.Ints(ranks)
	for i := 1; i < n; i++ {
		if ranks[i] != ranks[i-1]+1 {
			return false
		}
	}
	return true
}

// candidateMeld is one possible meld over hand positions, as a bitmask.
type candidateMeld struct {
	kind MeldKind
	mask uint16
}

// candidateMelds enumerates every possible meld in the hand: all 3- and
// 4-card same-rank subsets, and every contiguous same-suit run window of
// length ≥ 3. Enumeration order is deterministic so tied partitions always
// resolve the same way.
func candidateMelds(cards []engine.Card) []candidateMeld {
	var out []candidateMeld

	// Sets: positions grouped by rank.
	byRank := make(map[engine.Rank][]int)
	for i, c := range cards {
		byRank[c.Rank] = append(byRank[c.Rank], i)
	}
	for r := engine.Ace; r <= engine.King; r++ {
		pos := byRank[r]
		if len(pos) < 3 {
			continue
		}
		// All 3-subsets, then the full 4-set when present.
		for a := 0; a < len(pos); a++ {
			for b := a + 1; b < len(pos); b++ {
				for c := b + 1; c < len(pos); c++ {
					out = append(out, candidateMeld{MeldSet, 1<<pos[a] | 1<<pos[b] | 1<<pos[c]})
				}
			}
		}
		if len(pos) == 4 {
			out = append(out, candidateMeld{MeldSet, 1<<pos[0] | 1<<pos[1] | 1<<pos[2] | 1<<pos[3]})
		}
	}

	// Runs: per suit, positions ordered by rank, windows over consecutive
	// stretches.
	for s := engine.Clubs; s <= engine.Spades; s++ {
		var pos []int
		for i, c := range cards {
			if c.Suit == s {
				pos = append(pos, i)
			}
		}
		sort.Slice(pos, func(a, b int) bool { return cards[pos[a]].Rank < cards[pos[b]].Rank })
		for lo := 0; lo < len(pos); lo++ {
			hi := lo
			for hi+1 < len(pos) && cards[pos[hi+1]].Rank == cards[pos[hi]].Rank+1 {
				hi++
			}
			// pos[lo..hi] is a maximal stretch; emit every window ≥ 3.
			for start := lo; start+2 <= hi; start++ {
				for end := start + 2; end <= hi; end++ {
					var mask uint16
					for i := start; i <= end; i++ {
						mask |= 1 << pos[i]
					}
					out = append(out, candidateMeld{MeldRun, mask})
				}
			}
			lo = hi
		}
	}
	return out
}

// Analyze finds a partition of the hand into melds that minimizes leftover
// deadwood. Exhaustive backtracking over a bitmask of used positions;
// hands never exceed eleven cards so the state space stays tiny. Ties keep
// the first partition the search completes.
func Analyze(cards []engine.Card) Analysis {
	n := len(cards)
	if n == 0 {
		return Analysis{}
	}

	cands := candidateMelds(cards)
	values := make([]int, n)
	total := 0
	for i, c := range cards {
		values[i] = deadwoodValue(c.Rank)
		total += values[i]
	}
	maskValue := func(mask uint16) int {
		v := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				v += values[i]
			}
		}
		return v
	}

	bestSaved := -1
	var bestChoice []int
	visited := make(map[uint32]bool)
	choice := make([]int, 0, 4)

	var search func(idx int, used uint16, saved int)
	search = func(idx int, used uint16, saved int) {
		if idx == len(cands) {
			if saved > bestSaved {
				bestSaved = saved
				bestChoice = append(bestChoice[:0], choice...)
			}
			return
		}
		key := uint32(idx)<<16 | uint32(used)
		if visited[key] {
			return
		}
		visited[key] = true

		if c := cands[idx]; c.mask&used == 0 {
			choice = append(choice, idx)
			search(idx+1, used|c.mask, saved+maskValue(c.mask))
			choice = choice[:len(choice)-1]
		}
		search(idx+1, used, saved)
	}
	search(0, 0, 0)

	out := Analysis{Deadwood: total - bestSaved}
	var usedAll uint16
	for _, ci := range bestChoice {
		c := cands[ci]
		meld := Meld{Kind: c.kind}
		for i := 0; i < n; i++ {
			if c.mask&(1<<i) != 0 {
				meld.CardIDs = append(meld.CardIDs, cards[i].ID)
			}
		}
		out.Melds = append(out.Melds, meld)
		usedAll |= c.mask
	}
	for i := 0; i < n; i++ {
		if usedAll&(1<<i) == 0 {
			out.DeadwoodIDs = append(out.DeadwoodIDs, cards[i].ID)
		}
	}
	return out
}

// bestDiscardDeadwood returns the lowest deadwood reachable by discarding
// exactly one card from the hand. A banned id (the card just taken from
// the discard pile, which may not go straight back) is never considered;
// zero bans nothing. With every discard banned there is no legal play,
// reported as an unreachable deadwood.
func bestDiscardDeadwood(cards []engine.Card, banned int) int {
	best := -1
	rest := make([]engine.Card, 0, len(cards))
	for drop := range cards {
		if cards[drop].ID == banned {
			continue
		}
		rest = rest[:0]
		for i, c := range cards {
			if i != drop {
				rest = append(rest, c)
			}
		}
		if dw := Analyze(rest).Deadwood; best < 0 || dw < best {
			best = dw
		}
	}
	if best < 0 {
		return 1 << 30
	}
	return best
}
