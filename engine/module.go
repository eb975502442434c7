package engine

import "fmt"

// Meta describes a rule module to the platform.
type Meta struct {
	// Key is the stable game kind used for registry lookup, e.g. "gin-rummy".
	Key  string
	Name string
	// Seat count bounds, inclusive.
	MinPlayers int
	MaxPlayers int
}

// Verdict is the outcome of validating one intent. Invalid intents carry a
// player-readable reason and no events; valid intents carry the ordered
// events the caller must apply. Verdicts never signal state corruption:
// a corrupt table surfaces as a *StateError from Validate, Apply or
// Project instead.
type Verdict struct {
	Valid  bool    `json:"valid"`
	Reason string  `json:"reason,omitempty"`
	Events []Event `json:"engineEvents,omitempty"`
}

// Accept builds a valid verdict carrying the given events.
func Accept(events ...Event) Verdict {
	return Verdict{Valid: true, Events: events}
}

// Reject builds an invalid verdict with a formatted reason.
func Reject(format string, args ...any) Verdict {
	return Verdict{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// Ruleset is the contract every rule module implements. Validate must be a
// pure function of the table and intent: no hidden side effects, no
// wall-clock reads, dealing randomness seeded only from data reachable
// through the rules-state blob.
type Ruleset interface {
	Meta() Meta

	// Setup lays out the module's piles and cards for a fresh table.
	// Events never create piles or cards, so everything the game will
	// ever touch must exist here.
	Setup(players []Player) ([]*Pile, []Card, error)

	// Validate judges one intent against the current table and, when
	// legal, returns the ordered events that realize it. Rejections are
	// verdicts, not errors; a non-nil error means the table itself is
	// structurally broken and the attempt must abort.
	Validate(t *Table, in Intent) (Verdict, error)

	// ScoreboardsFor produces viewer-appropriate score displays, redacting
	// whatever the viewer is not entitled to see yet.
	ScoreboardsFor(t *Table, viewerID string) []Scoreboard
}

// IntentLister is the optional enumeration extension. Modules that
// implement it promise that every returned intent passes Validate on the
// same table; modules that do not are served by the generic fallback
// enumerator.
type IntentLister interface {
	LegalIntents(t *Table, playerID string) []Intent
}

// Adviser is the optional AI-support extension consumed by the policy
// pipeline.
type Adviser interface {
	// Recap returns a short natural-language log of recent play.
	Recap(t *Table) []string
	// RulesDoc returns the game's rules as markdown.
	RulesDoc() string
}
