package scripted

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/baizegames/parlor/engine"
)

func decodePiles(v lua.LValue) ([]*engine.Pile, error) {
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("setup returned %s, want a pile list", v.Type())
	}
	n := arr.Len()
	piles := make([]*engine.Pile, 0, n)
	for i := 1; i <= n; i++ {
		tbl, ok := arr.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("pile %d is not a table", i)
		}
		p := &engine.Pile{
			ID:    lua.LVAsString(tbl.RawGetString("id")),
			Owner: lua.LVAsString(tbl.RawGetString("owner")),
		}
		if p.ID == "" {
			return nil, fmt.Errorf("pile %d has no id", i)
		}
		vis, err := parseVisibility(lua.LVAsString(tbl.RawGetString("visibility")))
		if err != nil {
			return nil, fmt.Errorf("pile %q: %w", p.ID, err)
		}
		p.Visibility = vis
		ids, err := decodeCardIDs(tbl.RawGetString("cards"))
		if err != nil {
			return nil, fmt.Errorf("pile %q: %w", p.ID, err)
		}
		p.CardIDs = ids
		piles = append(piles, p)
	}
	if len(piles) == 0 {
		return nil, errors.New("setup returned no piles")
	}
	return piles, nil
}

func parseVisibility(s string) (engine.Visibility, error) {
	switch s {
	case "public":
		return engine.VisibilityPublic, nil
	case "owner":
		return engine.VisibilityOwner, nil
	case "hidden":
		return engine.VisibilityHidden, nil
	}
	return 0, fmt.Errorf("unknown visibility %q", s)
}

func decodeCardIDs(v lua.LValue) ([]int, error) {
	switch tv := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		n := tv.Len()
		ids := make([]int, 0, n)
		for i := 1; i <= n; i++ {
			num, ok := tv.RawGetInt(i).(lua.LNumber)
			if !ok {
				return nil, fmt.Errorf("card %d is not a number", i)
			}
			ids = append(ids, int(num))
		}
		return ids, nil
	}
	return nil, fmt.Errorf("cards is %s, want a list", v.Type())
}

func decodeVerdict(v lua.LValue) (engine.Verdict, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return engine.Verdict{}, fmt.Errorf("validate returned %s, want a verdict table", v.Type())
	}
	if !lua.LVAsBool(tbl.RawGetString("ok")) {
		reason := lua.LVAsString(tbl.RawGetString("reason"))
		if reason == "" {
			reason = "the rules forbid that"
		}
		return engine.Reject("%s", reason), nil
	}
	events, err := decodeEvents(tbl.RawGetString("events"))
	if err != nil {
		return engine.Verdict{}, err
	}
	return engine.Accept(events...), nil
}

func decodeEvents(v lua.LValue) ([]engine.Event, error) {
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("events is %s, want a list", v.Type())
	}
	n := arr.Len()
	events := make([]engine.Event, 0, n)
	for i := 1; i <= n; i++ {
		tbl, ok := arr.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("event %d is not a table", i)
		}
		ev, err := decodeEvent(tbl)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeEvent(tbl *lua.LTable) (engine.Event, error) {
	switch kind := lua.LVAsString(tbl.RawGetString("type")); kind {
	case "move":
		ids, err := decodeCardIDs(tbl.RawGetString("cards"))
		if err != nil {
			return engine.Event{}, err
		}
		return engine.MoveCards(
			lua.LVAsString(tbl.RawGetString("from")),
			lua.LVAsString(tbl.RawGetString("to")),
			ids...), nil
	case "current":
		return engine.SetCurrentPlayer(lua.LVAsString(tbl.RawGetString("player"))), nil
	case "winner":
		return engine.SetWinner(lua.LVAsString(tbl.RawGetString("player"))), nil
	case "scoreboards":
		boards, err := decodeBoards(tbl.RawGetString("boards"))
		if err != nil {
			return engine.Event{}, err
		}
		return engine.SetScoreboards(boards...), nil
	case "actions":
		actions, err := decodeActions(tbl.RawGetString("actions"))
		if err != nil {
			return engine.Event{}, err
		}
		return engine.SetActions(actions...), nil
	case "visibility":
		vis, err := parseVisibility(lua.LVAsString(tbl.RawGetString("visibility")))
		if err != nil {
			return engine.Event{}, err
		}
		return engine.SetPileVisibility(lua.LVAsString(tbl.RawGetString("pile")), vis), nil
	default:
		return engine.Event{}, fmt.Errorf("unknown event type %q", kind)
	}
}

func decodeBoards(v lua.LValue) ([]engine.Scoreboard, error) {
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("boards is %s, want a list", v.Type())
	}
	n := arr.Len()
	boards := make([]engine.Scoreboard, 0, n)
	for i := 1; i <= n; i++ {
		tbl, ok := arr.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("board %d is not a table", i)
		}
		b := engine.Scoreboard{PlayerID: lua.LVAsString(tbl.RawGetString("player"))}
		rows, ok := tbl.RawGetString("rows").(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("board %d has no rows", i)
		}
		rn := rows.Len()
		for j := 1; j <= rn; j++ {
			row, ok := rows.RawGetInt(j).(*lua.LTable)
			if !ok {
				return nil, fmt.Errorf("board %d row %d is not a table", i, j)
			}
			b.Rows = append(b.Rows, engine.ScoreRow{
				Label: lua.LVAsString(row.RawGetString("label")),
				Value: lua.LVAsString(row.RawGetString("value")),
			})
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func decodeActions(v lua.LValue) ([]engine.ActionSpec, error) {
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("actions is %s, want a list", v.Type())
	}
	n := arr.Len()
	actions := make([]engine.ActionSpec, 0, n)
	for i := 1; i <= n; i++ {
		tbl, ok := arr.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("action %d is not a table", i)
		}
		actions = append(actions, engine.ActionSpec{
			PlayerID: lua.LVAsString(tbl.RawGetString("player")),
			Name:     lua.LVAsString(tbl.RawGetString("name")),
			Label:    lua.LVAsString(tbl.RawGetString("label")),
		})
	}
	return actions, nil
}
