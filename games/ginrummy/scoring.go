package ginrummy

import (
	"fmt"

	"github.com/baizegames/parlor/engine"
)

// settleHand scores a finished hand and either tees up the next deal or
// ends the match. knockerRest is the knocker's hand after their final
// discard; lead events (e.g. that discard) are emitted first.
func (m *Module) settleHand(t *engine.Table, s *handState, lead []engine.Event, knockerRest []engine.Card) (engine.Verdict, error) {
	defender := s.defender()
	defenderHand, err := handCards(t, defender)
	if err != nil {
		return engine.Verdict{}, err
	}
	knockerDW := Analyze(knockerRest).Deadwood
	defenderDW := Analyze(defenderHand).Deadwood

	var winner string
	var points int
	var line string
	knockerName := seatName(t, s.Knocker)
	defenderName := seatName(t, defender)

	if s.Knock == KnockGin {
		winner = s.Knocker
		points = m.rules.GinBonus + defenderDW
		line = fmt.Sprintf("hand %d: %s goes gin against %d deadwood, scoring %d",
			s.HandNumber, knockerName, defenderDW, points)
	} else if diff := defenderDW - knockerDW; diff > 0 {
		winner = s.Knocker
		points = diff
		line = fmt.Sprintf("hand %d: %s knocks with %d against %d, scoring %d",
			s.HandNumber, knockerName, knockerDW, defenderDW, points)
	} else {
		winner = defender
		points = m.rules.UndercutBonus - diff
		line = fmt.Sprintf("hand %d: %s undercuts %s, %d against %d, scoring %d",
			s.HandNumber, defenderName, knockerName, defenderDW, knockerDW, points)
	}

	s.Scores[winner] += points
	s.HandWins[winner]++

	matchOver := s.Scores[winner] >= m.rules.MatchGoal
	if matchOver {
		bonus := m.rules.MatchBonus + m.rules.HandBonus*s.HandWins[winner]
		if s.HandWins[s.opponent(winner)] == 0 {
			bonus *= 2
		}
		s.Scores[winner] += bonus
		s.MatchWinner = winner
		line += fmt.Sprintf("; %s takes the match with %d", seatName(t, winner), s.Scores[winner])
	}
	s.collapseRecap(line)
	s.endHand()
	if matchOver {
		s.Phase = PhaseEnded
	}

	events := append([]engine.Event(nil), lead...)
	for _, id := range s.Players {
		events = append(events, engine.SetPileVisibility(handPile(id), engine.VisibilityPublic))
	}
	events = append(events,
		engine.SetRulesState(s.save()),
		engine.SetCurrentPlayer(""),
	)
	if matchOver {
		events = append(events,
			engine.SetWinner(winner),
			engine.SetActions(),
		)
	} else {
		events = append(events,
			engine.SetActions(engine.ActionSpec{Name: actionStartGame, Label: "Deal the next hand"}),
		)
	}
	events = append(events,
		engine.SetScoreboards(m.scoreboards(t, s, "")...),
		engine.SetCardVisuals(),
	)
	return engine.Accept(events...), nil
}
