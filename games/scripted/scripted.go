// Package scripted runs rule modules written in Lua. A script declares a
// meta table (key, name, min_players, max_players) and two global
// functions:
//
//	setup(players, deck) -> pile list
//	validate(state, intent) -> verdict
//
// setup receives the seats and one standard 52-card deck and distributes
// every card id into the piles it returns ({id, owner, visibility,
// cards}). validate receives the table ({players, current_player, winner,
// piles, rank, suit}) and one intent ({type, player, action, from, to,
// cards}; an empty cards list means the top of the source pile) and
// returns either {ok=false, reason=...} or {ok=true, events={...}} using
// the event types move, current, winner, scoreboards, actions and
// visibility.
//
// Every call runs the compiled chunk in a fresh interpreter with only the
// base, table, string and math libraries open, so scripts cannot carry
// state between calls or reach the host environment. Script failures and
// malformed returns surface as state errors, not rejections. Scripted
// modules deliberately implement no enumerator; candidate listing for
// their tables rides the generic fallback.
package scripted

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/baizegames/parlor/engine"
)

//go:embed scripts/war.lua
var warSource string

// Module is one compiled Lua rule module.
type Module struct {
	meta  engine.Meta
	proto *lua.FunctionProto
	chunk string
}

// New compiles source as a rule module. The chunk name appears in script
// error messages.
func New(chunk, source string) (*Module, error) {
	ast, err := parse.Parse(strings.NewReader(source), chunk)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", chunk, err)
	}
	proto, err := lua.Compile(ast, chunk)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", chunk, err)
	}
	m := &Module{proto: proto, chunk: chunk}
	if err := m.probe(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and compiles a script file.
func Load(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(filepath.Base(path), string(src))
}

// War returns the bundled two-seat example module.
func War() (*Module, error) {
	return New("war.lua", warSource)
}

// newState builds an interpreter with the safe library subset and runs the
// chunk, leaving its globals defined.
func (m *Module) newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, err
		}
	}
	L.Push(L.NewFunctionFromProto(m.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, err
	}
	return L, nil
}

// probe checks the script's surface once at compile time.
func (m *Module) probe() error {
	L, err := m.newState()
	if err != nil {
		return fmt.Errorf("%s: %w", m.chunk, err)
	}
	defer L.Close()

	metaTbl, ok := L.GetGlobal("meta").(*lua.LTable)
	if !ok {
		return fmt.Errorf("%s: script defines no meta table", m.chunk)
	}
	meta := engine.Meta{
		Key:        lua.LVAsString(metaTbl.RawGetString("key")),
		Name:       lua.LVAsString(metaTbl.RawGetString("name")),
		MinPlayers: int(lua.LVAsNumber(metaTbl.RawGetString("min_players"))),
		MaxPlayers: int(lua.LVAsNumber(metaTbl.RawGetString("max_players"))),
	}
	if meta.Key == "" || meta.Name == "" || meta.MinPlayers < 1 || meta.MaxPlayers < meta.MinPlayers {
		return fmt.Errorf("%s: meta needs key, name and a sane player range", m.chunk)
	}
	for _, fn := range []string{"setup", "validate"} {
		if _, ok := L.GetGlobal(fn).(*lua.LFunction); !ok {
			return fmt.Errorf("%s: script defines no %s function", m.chunk, fn)
		}
	}
	m.meta = meta
	return nil
}

func (m *Module) Meta() engine.Meta { return m.meta }

// Setup hands the script one standard deck and decodes the pile layout it
// returns. Structural checks (every card in exactly one pile) are the
// table constructor's job.
func (m *Module) Setup(players []engine.Player) ([]*engine.Pile, []engine.Card, error) {
	L, err := m.newState()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", m.chunk, err)
	}
	defer L.Close()

	deck := engine.StandardDeck(1)
	err = L.CallByParam(lua.P{Fn: L.GetGlobal("setup"), NRet: 1, Protect: true},
		playersToLua(L, players), deckToLua(L, deck))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: setup: %w", m.chunk, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	piles, err := decodePiles(ret)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: setup: %w", m.chunk, err)
	}
	return piles, deck, nil
}

// Validate runs the script's validate function. A script crash or a
// malformed return is a state error; only an explicit ok=false is a
// rejection.
func (m *Module) Validate(t *engine.Table, in engine.Intent) (engine.Verdict, error) {
	L, err := m.newState()
	if err != nil {
		return engine.Verdict{}, m.corrupt("interpreter: %v", err)
	}
	defer L.Close()

	err = L.CallByParam(lua.P{Fn: L.GetGlobal("validate"), NRet: 1, Protect: true},
		stateToLua(L, t), intentToLua(L, in))
	if err != nil {
		return engine.Verdict{}, m.corrupt("validate: %v", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	verdict, err := decodeVerdict(ret)
	if err != nil {
		return engine.Verdict{}, m.corrupt("%v", err)
	}
	return verdict, nil
}

// ScoreboardsFor returns the stored boards; scripted games show every seat
// the same scores.
func (m *Module) ScoreboardsFor(t *engine.Table, viewerID string) []engine.Scoreboard {
	return t.Scoreboards
}

func (m *Module) corrupt(format string, args ...any) *engine.StateError {
	return &engine.StateError{Op: m.meta.Key, Detail: fmt.Sprintf(format, args...)}
}
