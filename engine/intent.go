package engine

import "encoding/json"

// IntentType tags the two kinds of player input.
type IntentType string

const (
	// IntentAction is a named button press, e.g. "pass" or "start-game".
	IntentAction IntentType = "action"
	// IntentMove transfers one or more cards between two piles.
	IntentMove IntentType = "move"
)

const (
	// ActionStartGame is the platform-wide name of the deal/start button.
	// Enumerators only offer it when every seat is automated; a table with
	// a human seat waits for that human to press it.
	ActionStartGame = "start-game"
	// ActionPass is the platform-wide name for declining a turn. The AI
	// pipeline's first-candidate mode prefers anything else.
	ActionPass = "pass"
)

// Intent is a single player input submitted for validation. For moves, an
// empty CardIDs list means "the top card of the source pile", the only way
// to name a card the actor cannot see.
type Intent struct {
	Type     IntentType `json:"type"`
	GameID   string     `json:"gameId"`
	PlayerID string     `json:"playerId"`
	Action   string     `json:"action,omitempty"`
	FromPile string     `json:"fromPileId,omitempty"`
	ToPile   string     `json:"toPileId,omitempty"`
	CardIDs  []int      `json:"cardIds,omitempty"`
}

// NewAction builds an action intent.
func NewAction(gameID, playerID, action string) Intent {
	return Intent{Type: IntentAction, GameID: gameID, PlayerID: playerID, Action: action}
}

// NewMove builds a move intent. Passing no card ids means the top card of
// the source pile.
func NewMove(gameID, playerID, fromPile, toPile string, cardIDs ...int) Intent {
	return Intent{
		Type:     IntentMove,
		GameID:   gameID,
		PlayerID: playerID,
		FromPile: fromPile,
		ToPile:   toPile,
		CardIDs:  cardIDs,
	}
}

// UnmarshalJSON accepts both the plural cardIds list and the single-card
// cardId shorthand used by clients dragging one card.
func (in *Intent) UnmarshalJSON(b []byte) error {
	type alias Intent
	aux := struct {
		*alias
		CardID *int `json:"cardId"`
	}{alias: (*alias)(in)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.CardID != nil && len(in.CardIDs) == 0 {
		in.CardIDs = []int{*aux.CardID}
	}
	return nil
}
