package ginrummy

import (
	"strconv"

	"github.com/baizegames/parlor/engine"
)

// ScoreboardsFor renders one board per seat for the given viewer. Match
// totals are always public; live deadwood shows only for hands the viewer
// is entitled to see.
func (m *Module) ScoreboardsFor(t *engine.Table, viewerID string) []engine.Scoreboard {
	return m.scoreboards(t, loadState(t), viewerID)
}

func (m *Module) scoreboards(t *engine.Table, s *handState, viewerID string) []engine.Scoreboard {
	boards := make([]engine.Scoreboard, 0, len(t.Players))
	for _, p := range t.Players {
		rows := []engine.ScoreRow{
			{Label: "Match score", Value: strconv.Itoa(s.Scores[p.ID])},
			{Label: "Hands won", Value: strconv.Itoa(s.HandWins[p.ID])},
		}
		if m.deadwoodVisible(t, s, viewerID, p.ID) {
			if hand, err := handCards(t, p.ID); err == nil && len(hand) > 0 {
				rows = append(rows, engine.ScoreRow{
					Label: "Deadwood",
					Value: strconv.Itoa(Analyze(hand).Deadwood),
				})
			}
		}
		boards = append(boards, engine.Scoreboard{PlayerID: p.ID, Rows: rows})
	}
	return boards
}

// deadwoodVisible decides whether the viewer may see a seat's live
// deadwood count. Owners always see their own; everyone sees a hand that
// is face up, which covers the knocker during the layoff and both seats
// once a hand has settled.
func (m *Module) deadwoodVisible(t *engine.Table, s *handState, viewerID, playerID string) bool {
	if viewerID == playerID {
		return true
	}
	if p, ok := t.Pile(handPile(playerID)); ok && p.Visibility == engine.VisibilityPublic {
		return true
	}
	switch s.Phase {
	case PhaseLayoff:
		return playerID == s.Knocker
	case PhaseDealing, PhaseEnded:
		return true
	}
	return false
}
