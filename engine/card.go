package engine

import "fmt"

// Suit identifies one of the four French suits.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitGlyphs = [4]string{"♣", "♦", "♥", "♠"}
var suitNames = [4]string{"clubs", "diamonds", "hearts", "spades"}

// String returns the suit's glyph, e.g. "♠".
func (s Suit) String() string {
	if int(s) >= len(suitGlyphs) {
		return "?"
	}
	return suitGlyphs[s]
}

// Name returns the suit's full lowercase name, e.g. "spades".
func (s Suit) Name() string {
	if int(s) >= len(suitNames) {
		return "unknown"
	}
	return suitNames[s]
}

// Rank runs ace-low: Ace is 1, King is 13.
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [14]string{"?", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the short rank name, e.g. "A", "7", "Q".
func (r Rank) String() string {
	if r == 0 || int(r) >= len(rankNames) {
		return "?"
	}
	return rankNames[r]
}

// Card is one physical card at a table. The id is assigned once at table
// setup and never changes as the card moves between piles; rank and suit are
// immutable.
type Card struct {
	ID   int  `json:"id"`
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// String renders the card as rank followed by suit glyph, e.g. "Q♠".
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// StandardDeck returns the 52 cards of a French deck with ids assigned
// sequentially from firstID, suit-major and ace-low within each suit.
func StandardDeck(firstID int) []Card {
	deck := make([]Card, 0, 52)
	id := firstID
	for s := Clubs; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{ID: id, Rank: r, Suit: s})
			id++
		}
	}
	return deck
}
