package ginrummy

import "github.com/baizegames/parlor/engine"

// Recap returns the running natural-language log: one line per completed
// hand plus the turn lines of the hand in progress. Lines never name
// face-down cards, so the recap is safe to show any viewer.
func (m *Module) Recap(t *engine.Table) []string {
	s := loadState(t)
	return append([]string(nil), s.Recap...)
}

// RulesDoc returns the rules as markdown for policy prompts.
func (m *Module) RulesDoc() string { return rulesMarkdown }

const rulesMarkdown = `# Gin Rummy

Two players, 52-card deck, ace low. Card points: ace 1, number cards
face value, courts 10. A meld is a set of 3-4 cards of one rank or a run
of 3+ consecutive cards in one suit. Deadwood is the point total of your
unmelded cards.

## A hand

1. Each player is dealt 10 cards; one card is turned up on the discard
   pile.
2. First the non-dealer, then the dealer, may take that upcard or pass.
   If both pass, the non-dealer must start by drawing from the deck.
3. On your turn, draw one card from the deck or the top of the discard
   pile, then discard one card. You may not discard the card you just
   took from the discard pile.
4. To knock, first move complete melds from your hand to your meld
   piles, then discard; your remaining deadwood must be 10 or less.
   Melding is only allowed when a knock is reachable, and laid melds
   commit you to knocking with that discard.
5. A discard that leaves you with zero deadwood is gin and scores
   immediately.
6. After a knock (not gin) the opponent may lay off cards that extend
   your melds, meld their own cards, and then finish.
7. If only two cards remain in the deck after a discard, the hand is
   blocked and nobody scores.

## Scoring

- Knock: the difference in deadwood, if yours is lower.
- Undercut: if the defender's deadwood is equal or lower, the defender
  scores 25 plus the difference.
- Gin: 25 plus the opponent's deadwood; no layoffs are allowed.
- First to 100 wins the match and banks 100 plus 25 per hand won,
  doubled if the loser never won a hand.
`
