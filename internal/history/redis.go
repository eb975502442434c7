package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "parlor:history:"

// Bounds for a game's list. Old entries roll off the front once Max is
// reached, and an idle game's log expires after TTL.
const (
	DefaultTTL = 24 * time.Hour
	DefaultMax = 10000
)

// Historian stores each game's entries in a Redis list.
type Historian struct {
	rdb *redis.Client
	TTL time.Duration
	Max int64
}

// NewHistorian wraps rdb with the default bounds.
func NewHistorian(rdb *redis.Client) *Historian {
	return &Historian{rdb: rdb, TTL: DefaultTTL, Max: DefaultMax}
}

// Append pushes e onto its game's list, trims the list to Max entries and
// refreshes the TTL, all in one pipeline.
func (h *Historian) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("history: marshal entry: %w", err)
	}
	key := keyPrefix + e.GameID
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -h.Max, -1)
	pipe.Expire(ctx, key, h.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: append %s: %w", e.GameID, err)
	}
	return nil
}

// Recent returns up to n of the newest entries for gameID, oldest first.
func (h *Historian) Recent(ctx context.Context, gameID string, n int64) ([]Entry, error) {
	if n <= 0 {
		n = DefaultMax
	}
	vals, err := h.rdb.LRange(ctx, keyPrefix+gameID, -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", gameID, err)
	}
	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
