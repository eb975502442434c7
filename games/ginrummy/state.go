package ginrummy

import (
	"encoding/json"

	"github.com/baizegames/parlor/engine"
)

// Phase is the hand-level position of the state machine.
type Phase string

const (
	PhaseDealing         Phase = "dealing"
	PhaseUpcardNonDealer Phase = "first-upcard-non-dealer"
	PhaseUpcardDealer    Phase = "first-upcard-dealer"
	PhasePlaying         Phase = "playing"
	PhaseLayoff          Phase = "layoff"
	PhaseEnded           Phase = "ended"
)

// TurnPhase splits a playing turn into its two halves.
type TurnPhase string

const (
	TurnMustDraw    TurnPhase = "must-draw"
	TurnMustDiscard TurnPhase = "must-discard"
)

// DrawSource records where the last draw came from.
type DrawSource string

const (
	DrawDeck    DrawSource = "deck"
	DrawDiscard DrawSource = "discard"
)

// KnockKind distinguishes a plain knock from gin.
type KnockKind string

const (
	KnockPlain KnockKind = "knock"
	KnockGin   KnockKind = "gin"
)

// handState is this module's rules-state blob: everything Gin Rummy must
// remember between validate calls. The caller round-trips it verbatim and
// never interprets it.
type handState struct {
	Phase      Phase     `json:"phase"`
	Turn       TurnPhase `json:"turnPhase,omitempty"`
	Players    []string  `json:"players"`
	Dealer     string    `json:"dealer,omitempty"`
	HandNumber int       `json:"handNumber"`
	Dealt      bool      `json:"dealt"`

	// DeckOnlyDraw forces the first draw after a double upcard pass to
	// come from the deck.
	DeckOnlyDraw   bool       `json:"deckOnlyDraw,omitempty"`
	LastDrawSource DrawSource `json:"lastDrawSource,omitempty"`
	LastDrawCard   int        `json:"lastDrawCard,omitempty"`

	Knocker     string    `json:"knocker,omitempty"`
	Knock       KnockKind `json:"knockKind,omitempty"`
	LayoffCards []int     `json:"layoffCards,omitempty"`

	Scores      map[string]int `json:"scores"`
	HandWins    map[string]int `json:"handWins"`
	MatchWinner string         `json:"matchWinner,omitempty"`

	// Recap is the running natural-language log. Lines before RecapMark
	// are one-line summaries of completed hands; lines after it belong to
	// the hand in progress and are collapsed when it ends.
	Recap     []string `json:"recap,omitempty"`
	RecapMark int      `json:"recapMark,omitempty"`
}

// loadState decodes the table's blob, rebuilding sane defaults when it is
// missing or partial.
func loadState(t *engine.Table) *handState {
	s := &handState{}
	if len(t.RulesState) > 0 {
		// A malformed blob degrades to defaults instead of failing the
		// validate call.
		_ = json.Unmarshal(t.RulesState, s)
	}
	if len(s.Players) == 0 {
		for _, p := range t.Players {
			s.Players = append(s.Players, p.ID)
		}
	}
	if s.Phase == "" {
		s.Phase = PhaseDealing
	}
	if s.Scores == nil {
		s.Scores = make(map[string]int, len(s.Players))
	}
	if s.HandWins == nil {
		s.HandWins = make(map[string]int, len(s.Players))
	}
	return s
}

// save serializes the blob for a set-rules-state event.
func (s *handState) save() json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// endHand resets per-hand fields and passes the deal to the other seat.
func (s *handState) endHand() {
	s.Phase = PhaseDealing
	s.Turn = ""
	s.Dealt = false
	s.Dealer = s.opponent(s.Dealer)
	s.DeckOnlyDraw = false
	s.LastDrawSource = ""
	s.LastDrawCard = 0
	s.Knocker = ""
	s.Knock = ""
	s.LayoffCards = nil
}

// opponent returns the other seat.
func (s *handState) opponent(playerID string) string {
	for _, id := range s.Players {
		if id != playerID {
			return id
		}
	}
	return ""
}

// nonDealer returns the seat opposite the dealer.
func (s *handState) nonDealer() string { return s.opponent(s.Dealer) }

// defender returns the seat laying off against the knocker.
func (s *handState) defender() string { return s.opponent(s.Knocker) }

// addRecap appends one turn line to the in-progress hand's log.
func (s *handState) addRecap(line string) {
	s.Recap = append(s.Recap, line)
}

// collapseRecap replaces the in-progress hand's turn lines with a single
// summary, bounding log growth to one line per completed hand.
func (s *handState) collapseRecap(summary string) {
	s.Recap = append(s.Recap[:s.RecapMark], summary)
	s.RecapMark = len(s.Recap)
}

// markRecap records the boundary of a freshly dealt hand.
func (s *handState) markRecap() {
	s.RecapMark = len(s.Recap)
}
