package history

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const appendTimeout = 2 * time.Second

// Recorder binds an Appender to one game and hands out ordered entries.
// Writes happen on a background goroutine with a short deadline so a slow
// or absent backend never stalls a turn. Failures are logged and dropped.
type Recorder struct {
	appender Appender
	gameID   string

	mu    sync.Mutex
	index int
}

// NewRecorder returns a recorder for gameID. A nil appender records nothing.
func NewRecorder(a Appender, gameID string) *Recorder {
	if a == nil {
		a = Nop{}
	}
	return &Recorder{appender: a, gameID: gameID}
}

// Record appends one entry asynchronously. actorID may be empty for
// game-level events.
func (r *Recorder) Record(actorID, kind string, payload any) {
	r.mu.Lock()
	r.index++
	e := Entry{
		GameID:    r.gameID,
		Index:     r.index,
		ActorID:   actorID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()
		if err := r.appender.Append(ctx, e); err != nil {
			log.WithFields(log.Fields{
				"game":  e.GameID,
				"kind":  e.Kind,
				"index": e.Index,
			}).WithError(err).Warn("history append failed")
		}
	}()
}

// Append lets a Recorder serve as the AI pipeline's audit sink. The game id
// argument is ignored; the recorder is already bound to one game.
func (r *Recorder) Append(_ context.Context, _, kind string, payload any) {
	r.Record("", kind, payload)
}
