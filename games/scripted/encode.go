package scripted

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/baizegames/parlor/engine"
)

func playersToLua(L *lua.LState, players []engine.Player) *lua.LTable {
	arr := L.NewTable()
	for _, p := range players {
		tbl := L.NewTable()
		L.SetField(tbl, "id", lua.LString(p.ID))
		L.SetField(tbl, "name", lua.LString(p.Name))
		L.SetField(tbl, "automated", lua.LBool(p.Automated))
		arr.Append(tbl)
	}
	return arr
}

func deckToLua(L *lua.LState, deck []engine.Card) *lua.LTable {
	arr := L.NewTable()
	for _, c := range deck {
		tbl := L.NewTable()
		L.SetField(tbl, "id", lua.LNumber(c.ID))
		L.SetField(tbl, "rank", lua.LNumber(c.Rank))
		L.SetField(tbl, "suit", lua.LString(c.Suit.Name()))
		arr.Append(tbl)
	}
	return arr
}

// stateToLua encodes the table for the script: piles keyed by id, seat
// order as a plain id list, and rank/suit lookups keyed by card id. The
// encoding is a copy; scripts may scribble on it freely.
func stateToLua(L *lua.LState, t *engine.Table) *lua.LTable {
	st := L.NewTable()
	L.SetField(st, "current_player", lua.LString(t.CurrentPlayer))
	L.SetField(st, "winner", lua.LString(t.Winner))

	players := L.NewTable()
	for _, p := range t.Players {
		players.Append(lua.LString(p.ID))
	}
	L.SetField(st, "players", players)

	piles := L.NewTable()
	for _, p := range t.Piles {
		tbl := L.NewTable()
		L.SetField(tbl, "owner", lua.LString(p.Owner))
		L.SetField(tbl, "visibility", lua.LString(p.Visibility.String()))
		cards := L.NewTable()
		for _, id := range p.CardIDs {
			cards.Append(lua.LNumber(id))
		}
		L.SetField(tbl, "cards", cards)
		L.SetField(piles, p.ID, tbl)
	}
	L.SetField(st, "piles", piles)

	rank := L.NewTable()
	suit := L.NewTable()
	for id, c := range t.Cards {
		rank.RawSetInt(id, lua.LNumber(c.Rank))
		suit.RawSetInt(id, lua.LString(c.Suit.Name()))
	}
	L.SetField(st, "rank", rank)
	L.SetField(st, "suit", suit)
	return st
}

func intentToLua(L *lua.LState, in engine.Intent) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "type", lua.LString(string(in.Type)))
	L.SetField(tbl, "player", lua.LString(in.PlayerID))
	L.SetField(tbl, "action", lua.LString(in.Action))
	L.SetField(tbl, "from", lua.LString(in.FromPile))
	L.SetField(tbl, "to", lua.LString(in.ToPile))
	cards := L.NewTable()
	for _, id := range in.CardIDs {
		cards.Append(lua.LNumber(id))
	}
	L.SetField(tbl, "cards", cards)
	return tbl
}
