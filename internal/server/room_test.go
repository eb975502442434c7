package server

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/internal/history"
)

// countdown is a two-seat module for room tests: seats alternate taking the
// top card of a shared stock, and when the stock empties the seat holding
// more cards wins. It implements no IntentLister, so rooms exercise the
// generic enumerator, which finds exactly one legal move per turn.
type countdown struct {
	cards int
	// corruptOn names an action that fakes a structural failure.
	corruptOn string
}

func (m *countdown) Meta() engine.Meta {
	return engine.Meta{Key: "countdown", Name: "Countdown", MinPlayers: 2, MaxPlayers: 2}
}

func (m *countdown) Setup(players []engine.Player) ([]*engine.Pile, []engine.Card, error) {
	deck := engine.StandardDeck(1)[:m.cards]
	ids := make([]int, len(deck))
	for i, c := range deck {
		ids[i] = c.ID
	}
	piles := []*engine.Pile{
		{ID: "stock", Visibility: engine.VisibilityPublic, CardIDs: ids},
	}
	for _, p := range players {
		piles = append(piles, &engine.Pile{ID: "won:" + p.ID, Owner: p.ID, Visibility: engine.VisibilityPublic})
	}
	return piles, deck, nil
}

func (m *countdown) current(t *engine.Table) string {
	if t.CurrentPlayer != "" {
		return t.CurrentPlayer
	}
	return t.Players[0].ID
}

func (m *countdown) Validate(t *engine.Table, in engine.Intent) (engine.Verdict, error) {
	if in.Type == engine.IntentAction {
		if m.corruptOn != "" && in.Action == m.corruptOn {
			return engine.Verdict{}, &engine.StateError{Op: "countdown", Detail: "forced failure"}
		}
		return engine.Reject("countdown has no buttons"), nil
	}
	cur := m.current(t)
	if in.PlayerID != cur {
		return engine.Reject("not your turn"), nil
	}
	stock, ok := t.Pile("stock")
	if !ok {
		return engine.Verdict{}, &engine.StateError{Op: "countdown", Detail: "stock pile is missing"}
	}
	top, ok := stock.Top()
	if !ok {
		return engine.Reject("the stock is empty"), nil
	}
	if in.FromPile != "stock" || in.ToPile != "won:"+cur {
		return engine.Reject("take the top stock card into your own pile"), nil
	}
	if len(in.CardIDs) > 1 || (len(in.CardIDs) == 1 && in.CardIDs[0] != top) {
		return engine.Reject("only the top card may be taken"), nil
	}

	events := []engine.Event{engine.MoveCards("stock", in.ToPile, top)}
	if stock.Size() == 1 {
		events = append(events,
			engine.SetCurrentPlayer(""),
			engine.SetScoreboards(m.boards(t, cur)...),
			engine.SetWinner(m.leader(t, cur)),
		)
	} else {
		events = append(events, engine.SetCurrentPlayer(m.next(t, cur)))
	}
	return engine.Accept(events...), nil
}

func (m *countdown) next(t *engine.Table, after string) string {
	for i, p := range t.Players {
		if p.ID == after {
			return t.Players[(i+1)%len(t.Players)].ID
		}
	}
	return t.Players[0].ID
}

// counts tallies won cards per seat as they will stand once taker's move
// applies.
func (m *countdown) counts(t *engine.Table, taker string) map[string]int {
	out := make(map[string]int, len(t.Players))
	for _, p := range t.Players {
		n := 0
		if pile, ok := t.Pile("won:" + p.ID); ok {
			n = pile.Size()
		}
		if p.ID == taker {
			n++
		}
		out[p.ID] = n
	}
	return out
}

func (m *countdown) leader(t *engine.Table, taker string) string {
	counts := m.counts(t, taker)
	best, bestN := "", -1
	for _, p := range t.Players {
		if counts[p.ID] > bestN {
			best, bestN = p.ID, counts[p.ID]
		}
	}
	return best
}

func (m *countdown) boards(t *engine.Table, taker string) []engine.Scoreboard {
	counts := m.counts(t, taker)
	out := make([]engine.Scoreboard, 0, len(t.Players))
	for _, p := range t.Players {
		out = append(out, engine.Scoreboard{
			PlayerID: p.ID,
			Rows:     []engine.ScoreRow{{Label: "cards", Value: strconv.Itoa(counts[p.ID])}},
		})
	}
	return out
}

func (m *countdown) ScoreboardsFor(t *engine.Table, viewerID string) []engine.Scoreboard {
	return t.Scoreboards
}

// mockSender captures frames per player in delivery order.
type mockSender struct {
	mu     sync.Mutex
	frames map[string][]ServerFrame
}

func newMockSender() *mockSender {
	return &mockSender{frames: make(map[string][]ServerFrame)}
}

func (m *mockSender) send(playerID string, frame ServerFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[playerID] = append(m.frames[playerID], frame)
}

func (m *mockSender) all(playerID string) []ServerFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ServerFrame(nil), m.frames[playerID]...)
}

func (m *mockSender) byType(playerID, typ string) []ServerFrame {
	var out []ServerFrame
	for _, f := range m.all(playerID) {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func (m *mockSender) last(playerID, typ string) (ServerFrame, bool) {
	frames := m.byType(playerID, typ)
	if len(frames) == 0 {
		return ServerFrame{}, false
	}
	return frames[len(frames)-1], true
}

type captureAppender struct {
	ch chan history.Entry
}

func (c *captureAppender) Append(_ context.Context, e history.Entry) error {
	c.ch <- e
	return nil
}

// awaitKinds drains entries until every wanted kind reached its count,
// ignoring kinds the caller did not ask about.
func awaitKinds(t *testing.T, ch chan history.Entry, want map[string]int) {
	t.Helper()
	got := make(map[string]int)
	deadline := time.After(5 * time.Second)
	for {
		done := true
		for kind, n := range want {
			if got[kind] < n {
				done = false
				break
			}
		}
		if done {
			return
		}
		select {
		case e := <-ch:
			got[e.Kind]++
		case <-deadline:
			t.Fatalf("history incomplete: want %v, got %v", want, got)
		}
	}
}

func TestRoomPlaysOutAllAutomatedTable(t *testing.T) {
	sink := &captureAppender{ch: make(chan history.Entry, 256)}
	room, err := NewRoom("t-auto", &countdown{cards: 5}, []engine.Player{
		{ID: "ann", Name: "Ann", Automated: true},
		{ID: "ben", Name: "Ben", Automated: true},
	}, Deps{Salt: "room-test", History: sink, FirstCandidate: true})
	require.NoError(t, err)
	ms := newMockSender()
	room.SendFn = ms.send

	room.Start(context.Background())

	require.Empty(t, room.table.FatalMessage)
	// ann opens and the seats alternate, so five cards split 3-2.
	assert.Equal(t, "ann", room.table.Winner)
	stock, ok := room.table.Pile("stock")
	require.True(t, ok)
	assert.Zero(t, stock.Size())
	wonAnn, _ := room.table.Pile("won:ann")
	wonBen, _ := room.table.Pile("won:ben")
	assert.Equal(t, 3, wonAnn.Size())
	assert.Equal(t, 2, wonBen.Size())
	assert.Equal(t, 1, room.handNo)

	// Automated seats get no frames.
	assert.Empty(t, ms.all("ann"))
	assert.Empty(t, ms.all("ben"))

	// Intents after the match decides bounce with a reason.
	room.HandleIntent(context.Background(), "ann", engine.NewMove("", "", "stock", "won:ann"))
	ef, ok := ms.last("ann", FrameError)
	require.True(t, ok)
	assert.Contains(t, ef.Reason, "already decided")

	awaitKinds(t, sink.ch, map[string]int{
		"table_open":   1,
		"intent":       5,
		"hand_result":  1,
		"match_result": 1,
	})
}

func TestRoomHumanAndAutomatedSeatAlternate(t *testing.T) {
	room, err := NewRoom("t-mixed", &countdown{cards: 5}, []engine.Player{
		{ID: "hum", Name: "Hum"},
		{ID: "bot", Name: "Bot", Automated: true},
	}, Deps{Salt: "room-test", FirstCandidate: true})
	require.NoError(t, err)
	ms := newMockSender()
	room.SendFn = ms.send

	room.Start(context.Background())

	// The human holds the opening turn; nothing drives until they act.
	vf, ok := ms.last("hum", FrameView)
	require.True(t, ok)
	require.NotNil(t, vf.View)
	assert.Equal(t, "hum", vf.View.ViewerID)
	stockView, ok := vf.View.Pile("stock")
	require.True(t, ok)
	assert.Equal(t, 5, stockView.Count)
	assert.True(t, stockView.Revealed())

	cf, ok := ms.last("hum", FrameCandidates)
	require.True(t, ok)
	require.Len(t, cf.Candidates, 1)
	first := cf.Candidates[0].Intent
	assert.Equal(t, "stock", first.FromPile)
	assert.Equal(t, "won:hum", first.ToPile)

	// The candidate intent left the room in hum's token space; it still
	// unmaps to the real top of the stock.
	require.Len(t, first.CardIDs, 1)
	stock, ok := room.table.Pile("stock")
	require.True(t, ok)
	top, ok := stock.Top()
	require.True(t, ok)
	realID, ok := room.remap["hum"].UnmapCard(first.CardIDs[0])
	require.True(t, ok)
	assert.Equal(t, top, realID)

	room.HandleIntent(context.Background(), "hum", first)

	// The bot follows immediately, then play waits on the human again.
	require.Empty(t, room.table.FatalMessage)
	assert.Equal(t, 3, stock.Size())
	wonHum, _ := room.table.Pile("won:hum")
	wonBot, _ := room.table.Pile("won:bot")
	assert.Equal(t, 1, wonHum.Size())
	assert.Equal(t, 1, wonBot.Size())
	assert.Equal(t, "hum", room.table.CurrentPlayer)

	// Broadcasts: opening, after hum's move, after the bot's move. The
	// middle candidate list is empty because the turn was the bot's.
	views := ms.byType("hum", FrameView)
	require.Len(t, views, 3)
	cands := ms.byType("hum", FrameCandidates)
	require.Len(t, cands, 3)
	assert.Empty(t, cands[1].Candidates)
	assert.Len(t, cands[2].Candidates, 1)

	// Replaying the stale candidate is a plain rejection, not a fatal.
	room.HandleIntent(context.Background(), "hum", first)
	ef, ok := ms.last("hum", FrameError)
	require.True(t, ok)
	assert.Contains(t, ef.Reason, "top card")
	assert.Empty(t, room.table.FatalMessage)
}

func TestRoomStampsAuthenticatedSeat(t *testing.T) {
	room, err := NewRoom("t-spoof", &countdown{cards: 5}, []engine.Player{
		{ID: "hum", Name: "Hum"},
		{ID: "pal", Name: "Pal"},
	}, Deps{Salt: "room-test"})
	require.NoError(t, err)
	ms := newMockSender()
	room.SendFn = ms.send
	room.Start(context.Background())

	cf, ok := ms.last("hum", FrameCandidates)
	require.True(t, ok)
	require.Len(t, cf.Candidates, 1)

	// hum rewrites the candidate to pose as pal. The room stamps the
	// authenticated seat back on before validating, so the move targets
	// the wrong pile and bounces instead of playing for pal.
	spoofed := cf.Candidates[0].Intent
	spoofed.PlayerID = "pal"
	spoofed.ToPile = "won:pal"
	room.HandleIntent(context.Background(), "hum", spoofed)

	ef, ok := ms.last("hum", FrameError)
	require.True(t, ok)
	assert.NotEmpty(t, ef.Reason)
	stock, _ := room.table.Pile("stock")
	assert.Equal(t, 5, stock.Size())
	wonPal, _ := room.table.Pile("won:pal")
	assert.Zero(t, wonPal.Size())
}

func TestRoomFatalOnStructuralFailure(t *testing.T) {
	sink := &captureAppender{ch: make(chan history.Entry, 64)}
	room, err := NewRoom("t-fatal", &countdown{cards: 3, corruptOn: "boom"}, []engine.Player{
		{ID: "hum", Name: "Hum"},
		{ID: "pal", Name: "Pal"},
	}, Deps{Salt: "room-test", History: sink})
	require.NoError(t, err)
	ms := newMockSender()
	room.SendFn = ms.send
	room.Start(context.Background())

	room.HandleIntent(context.Background(), "hum", engine.NewAction("", "", "boom"))

	require.NotEmpty(t, room.table.FatalMessage)
	require.Len(t, ms.byType("hum", FrameFatal), 1)
	require.Len(t, ms.byType("pal", FrameFatal), 1)

	// Every further intent is answered with the fatal frame, never an
	// error frame.
	cf, ok := ms.last("hum", FrameCandidates)
	require.True(t, ok)
	require.Len(t, cf.Candidates, 1)
	room.HandleIntent(context.Background(), "hum", cf.Candidates[0].Intent)
	require.Len(t, ms.byType("hum", FrameFatal), 2)
	assert.Empty(t, ms.byType("hum", FrameError))

	awaitKinds(t, sink.ch, map[string]int{"fatal": 1})
}

func TestRoomGuardsSeatsAndTokens(t *testing.T) {
	room, err := NewRoom("t-guard", &countdown{cards: 3}, []engine.Player{
		{ID: "hum", Name: "Hum"},
		{ID: "pal", Name: "Pal"},
	}, Deps{Salt: "room-test"})
	require.NoError(t, err)
	ms := newMockSender()
	room.SendFn = ms.send

	room.HandleIntent(context.Background(), "eve", engine.NewMove("", "eve", "stock", "won:eve"))
	ef, ok := ms.last("eve", FrameError)
	require.True(t, ok)
	assert.Contains(t, ef.Reason, "not seated")

	// A card token outside the viewer's map cannot be translated.
	room.HandleIntent(context.Background(), "hum", engine.NewMove("", "hum", "stock", "won:hum", 999999999))
	ef, ok = ms.last("hum", FrameError)
	require.True(t, ok)
	assert.Contains(t, ef.Reason, "cannot see")

	room.SyncPlayer("hum")
	require.Len(t, ms.byType("hum", FrameView), 1)
	require.Len(t, ms.byType("hum", FrameCandidates), 1)

	// Unknown seats sync to nothing.
	room.SyncPlayer("ghost")
	assert.Empty(t, ms.all("ghost"))
}
