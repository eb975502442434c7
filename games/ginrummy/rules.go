package ginrummy

// Rules holds the tunable parameters of a Gin Rummy match.
type Rules struct {
	HandSize       int // cards dealt to each player
	KnockThreshold int // maximum deadwood allowed to knock
	MatchGoal      int // match ends when a player reaches this score
	DeckStop       int // hand blocks when the deck is at or below this after a discard
	MeldSlots      int // meld piles laid out per player
	GinBonus       int
	UndercutBonus  int
	MatchBonus     int // awarded to the match winner
	HandBonus      int // per hand won, awarded with the match bonus
}

// DefaultRules returns standard two-player Gin Rummy.
func DefaultRules() Rules {
	return Rules{
		HandSize:       10,
		KnockThreshold: 10,
		MatchGoal:      100,
		DeckStop:       2,
		MeldSlots:      4,
		GinBonus:       25,
		UndercutBonus:  25,
		MatchBonus:     100,
		HandBonus:      25,
	}
}
