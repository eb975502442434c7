// Package history records an append-only action log per game. The log is
// advisory: rooms keep playing when an append fails, and the daemon runs
// without a backend at all when Redis is not configured.
package history

import "context"

// Entry is one recorded action. Index orders entries within a game;
// Timestamp is unix milliseconds.
type Entry struct {
	GameID    string `json:"gameId"`
	Index     int    `json:"index"`
	ActorID   string `json:"actorId,omitempty"`
	Kind      string `json:"kind"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"ts"`
}

// Appender persists entries.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

// Nop discards every entry. Used by tests and by the CLI.
type Nop struct{}

// Append implements Appender.
func (Nop) Append(context.Context, Entry) error { return nil }
