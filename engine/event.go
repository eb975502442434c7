package engine

import "encoding/json"

// EventType tags the atomic state changes a rule module may emit.
type EventType string

const (
	EventMoveCards         EventType = "move-cards"
	EventSetCurrentPlayer  EventType = "set-current-player"
	EventSetWinner         EventType = "set-winner"
	EventSetRulesState     EventType = "set-rules-state"
	EventSetScoreboards    EventType = "set-scoreboards"
	EventSetActions        EventType = "set-actions"
	EventSetPileVisibility EventType = "set-pile-visibility"
	EventSetCardVisuals    EventType = "set-card-visuals"
	EventFatalError        EventType = "fatal-error"
)

// ScoreRow is one labelled line of a player's scoreboard.
type ScoreRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Scoreboard groups score rows for one player. Scoreboards are rebuilt
// wholesale by every set-scoreboards event.
type Scoreboard struct {
	PlayerID string     `json:"playerId"`
	Rows     []ScoreRow `json:"rows"`
}

// ActionSpec announces a named action button. An empty PlayerID offers the
// button to every seat.
type ActionSpec struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name"`
	Label    string `json:"label"`
}

// CardVisual attaches a display tag to a card, optionally scoped to a single
// viewer.
type CardVisual struct {
	CardID   int    `json:"cardId"`
	Tag      string `json:"tag"`
	PlayerID string `json:"playerId,omitempty"`
}

// Event is the smallest unit of authoritative state change. A validate call
// never mutates the table; it returns an ordered list of events which the
// caller applies in sequence. Only the fields belonging to the tagged type
// are set.
type Event struct {
	Type EventType `json:"type"`

	// move-cards
	FromPile string `json:"fromPileId,omitempty"`
	ToPile   string `json:"toPileId,omitempty"`
	CardIDs  []int  `json:"cardIds,omitempty"`

	// set-current-player / set-winner
	PlayerID string `json:"playerId,omitempty"`

	// set-rules-state
	RulesState json.RawMessage `json:"rulesState,omitempty"`

	// set-scoreboards
	Scoreboards []Scoreboard `json:"scoreboards,omitempty"`

	// set-actions
	Actions []ActionSpec `json:"actions,omitempty"`

	// set-pile-visibility
	PileID     string      `json:"pileId,omitempty"`
	Visibility *Visibility `json:"visibility,omitempty"`

	// set-card-visuals
	Visuals []CardVisual `json:"visuals,omitempty"`

	// fatal-error
	Message string `json:"message,omitempty"`
}

// MoveCards builds a move-cards event. A move from a pile to itself is a
// reorder: the named cards are removed and re-appended in the given order.
func MoveCards(fromPile, toPile string, cardIDs ...int) Event {
	return Event{Type: EventMoveCards, FromPile: fromPile, ToPile: toPile, CardIDs: cardIDs}
}

// SetCurrentPlayer builds a set-current-player event.
func SetCurrentPlayer(playerID string) Event {
	return Event{Type: EventSetCurrentPlayer, PlayerID: playerID}
}

// SetWinner builds a set-winner event.
func SetWinner(playerID string) Event {
	return Event{Type: EventSetWinner, PlayerID: playerID}
}

// SetRulesState builds a set-rules-state event carrying the module's
// serialized blob.
func SetRulesState(blob json.RawMessage) Event {
	return Event{Type: EventSetRulesState, RulesState: blob}
}

// SetScoreboards builds a set-scoreboards event replacing all scoreboards.
func SetScoreboards(boards ...Scoreboard) Event {
	return Event{Type: EventSetScoreboards, Scoreboards: boards}
}

// SetActions builds a set-actions event replacing all announced buttons.
func SetActions(actions ...ActionSpec) Event {
	return Event{Type: EventSetActions, Actions: actions}
}

// SetPileVisibility builds a set-pile-visibility event.
func SetPileVisibility(pileID string, v Visibility) Event {
	return Event{Type: EventSetPileVisibility, PileID: pileID, Visibility: &v}
}

// SetCardVisuals builds a set-card-visuals event replacing all visual tags.
func SetCardVisuals(visuals ...CardVisual) Event {
	return Event{Type: EventSetCardVisuals, Visuals: visuals}
}

// FatalError builds a fatal-error event. Applying it marks the table failed.
func FatalError(message string) Event {
	return Event{Type: EventFatalError, Message: message}
}
