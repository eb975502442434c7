package history

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureAppender struct {
	ch chan Entry
}

func (c *captureAppender) Append(_ context.Context, e Entry) error {
	c.ch <- e
	return nil
}

func collect(t *testing.T, ch chan Entry, n int) []Entry {
	t.Helper()
	out := make([]Entry, 0, n)
	for len(out) < n {
		select {
		case e := <-ch:
			out = append(out, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for entry %d of %d", len(out)+1, n)
		}
	}
	return out
}

func TestRecorderOrdersEntries(t *testing.T) {
	sink := &captureAppender{ch: make(chan Entry, 8)}
	rec := NewRecorder(sink, "game-9")

	rec.Record("alice", "intent", map[string]any{"action": "draw"})
	rec.Record("", "phase", nil)
	rec.Record("bob", "intent", nil)

	got := collect(t, sink.ch, 3)
	sort.Slice(got, func(i, j int) bool { return got[i].Index < got[j].Index })

	require.Equal(t, []int{1, 2, 3}, []int{got[0].Index, got[1].Index, got[2].Index})
	require.Equal(t, "alice", got[0].ActorID)
	require.Equal(t, "game-9", got[0].GameID)
	require.Equal(t, "phase", got[1].Kind)
	require.NotZero(t, got[0].Timestamp)
}

func TestRecorderServesAsAuditSink(t *testing.T) {
	sink := &captureAppender{ch: make(chan Entry, 4)}
	rec := NewRecorder(sink, "game-9")

	rec.Append(context.Background(), "ignored-id", "candidates", []string{"a:pass"})

	got := collect(t, sink.ch, 1)
	require.Equal(t, "game-9", got[0].GameID)
	require.Equal(t, "candidates", got[0].Kind)
	require.Empty(t, got[0].ActorID)
}

type failAppender struct{ done chan struct{} }

func (f *failAppender) Append(context.Context, Entry) error {
	close(f.done)
	return errors.New("backend down")
}

func TestRecorderSwallowsAppendFailure(t *testing.T) {
	f := &failAppender{done: make(chan struct{})}
	rec := NewRecorder(f, "game-9")

	rec.Record("alice", "intent", nil)

	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("append never attempted")
	}
	// A second record still goes through.
	rec2 := NewRecorder(Nop{}, "game-9")
	rec2.Record("alice", "intent", nil)
}

func TestNilAppenderRecordsNothing(t *testing.T) {
	rec := NewRecorder(nil, "game-9")
	rec.Record("alice", "intent", nil)
	require.NoError(t, Nop{}.Append(context.Background(), Entry{}))
}
