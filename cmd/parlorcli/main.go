// Command parlorcli plays one table in the terminal: you take the first
// seat, automated opponents fill the rest, and the same enumerator and
// policy pipeline the service uses drive the menus and the bots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/baizegames/parlor/candidates"
	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/games/ginrummy"
	"github.com/baizegames/parlor/games/scripted"
	"github.com/baizegames/parlor/internal/config"
	"github.com/baizegames/parlor/policy"
	"github.com/baizegames/parlor/view"
)

const humanID = "you"

func main() {
	gameFlag := flag.String("game", ginrummy.GameKey, "game kind to play")
	scriptFlag := flag.String("script", "", "path to a Lua rule script (overrides -game)")
	nameFlag := flag.String("name", "You", "your seat name")
	flag.Parse()

	mod, err := pickModule(*gameFlag, *scriptFlag)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	cfg := config.Load()
	pipeline := &policy.Pipeline{FirstCandidate: cfg.FirstCandidate, Timeout: cfg.AITimeout}
	if cfg.OpenAIKey != "" {
		pipeline.Chooser = policy.NewOpenAIChooser(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		pipeline.FirstCandidate = true
	}

	meta := mod.Meta()
	players := []engine.Player{{ID: humanID, Name: *nameFlag}}
	for i := 1; i < meta.MinPlayers; i++ {
		players = append(players, engine.Player{
			ID:        fmt.Sprintf("bot%d", i),
			Name:      fmt.Sprintf("Bot %d", i),
			Automated: true,
		})
	}

	tab, err := engine.NewTable("local", players, mod)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	splash(meta.Name)
	if err := play(context.Background(), mod, tab, pipeline); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func pickModule(game, script string) (engine.Ruleset, error) {
	if script != "" {
		mod, err := scripted.Load(script)
		if err != nil {
			return nil, err
		}
		return mod, nil
	}
	switch game {
	case ginrummy.GameKey:
		return ginrummy.New(), nil
	case "war":
		mod, err := scripted.War()
		if err != nil {
			return nil, err
		}
		return mod, nil
	default:
		return nil, fmt.Errorf("unknown game kind %q (have %s, war)", game, ginrummy.GameKey)
	}
}

func play(ctx context.Context, mod engine.Ruleset, tab *engine.Table, pipeline *policy.Pipeline) error {
	for {
		if tab.FatalMessage != "" {
			return errors.New("table failed: " + tab.FatalMessage)
		}
		if tab.Winner != "" {
			renderView(view.Render(tab, mod, humanID, nil))
			crownWinner(tab)
			return nil
		}
		actor, opts, err := nextActor(mod, tab)
		if err != nil {
			return err
		}
		switch {
		case actor == humanID:
			if err := humanTurn(mod, tab, opts); err != nil {
				return err
			}
		case actor == "":
			return errors.New("no seat has a legal intent and the match is undecided")
		default:
			if err := botTurn(ctx, mod, tab, pipeline, actor); err != nil {
				return err
			}
		}
	}
}

// nextActor picks the seat to prompt. The current player goes first; between
// hands, when no seat holds the turn, the human gets the deal button before
// any bot is polled.
func nextActor(mod engine.Ruleset, tab *engine.Table) (string, []candidates.Candidate, error) {
	order := []string{tab.CurrentPlayer}
	if tab.CurrentPlayer == "" {
		order = order[:0]
		order = append(order, humanID)
		for _, p := range tab.Players {
			if p.ID != humanID {
				order = append(order, p.ID)
			}
		}
	}
	for _, id := range order {
		opts, err := menuFor(mod, tab, id)
		if err != nil {
			return "", nil, err
		}
		if len(opts) > 0 {
			return id, opts, nil
		}
	}
	return "", nil, nil
}

// menuFor lists the player's candidates, restoring the start-game button the
// enumerator holds back for human tables.
func menuFor(mod engine.Ruleset, tab *engine.Table, playerID string) ([]candidates.Candidate, error) {
	opts, err := candidates.List(mod, tab, playerID, nil)
	if err != nil {
		return nil, err
	}
	if playerID != humanID {
		return opts, nil
	}
	deal := engine.NewAction(tab.ID, playerID, engine.ActionStartGame)
	verdict, err := mod.Validate(tab, deal)
	if err != nil {
		return nil, err
	}
	if verdict.Valid {
		opts = append(candidates.Build(tab, []engine.Intent{deal}, nil), opts...)
	}
	return opts, nil
}

func humanTurn(mod engine.Ruleset, tab *engine.Table, opts []candidates.Candidate) error {
	renderView(view.Render(tab, mod, humanID, nil))

	labels := make([]string, len(opts))
	byLabel := make(map[string]candidates.Candidate, len(opts))
	for i, c := range opts {
		labels[i] = c.Summary
		byLabel[c.Summary] = c
	}
	pick, err := pterm.DefaultInteractiveSelect.
		WithDefaultText("Your move").
		WithOptions(labels).
		WithMaxHeight(12).
		Show()
	if err != nil {
		return err
	}

	chosen := byLabel[pick]
	verdict, err := mod.Validate(tab, chosen.Intent)
	if err != nil {
		return err
	}
	if !verdict.Valid {
		pterm.Error.Println(verdict.Reason)
		return nil
	}
	return tab.Apply(verdict.Events)
}

func botTurn(ctx context.Context, mod engine.Ruleset, tab *engine.Table, pipeline *policy.Pipeline, botID string) error {
	spinner, _ := pterm.DefaultSpinner.Start(seatLabel(tab, botID) + " is thinking...")
	in, err := pipeline.SelectIntent(ctx, mod, tab, botID)
	if err != nil {
		spinner.Fail()
		return err
	}
	verdict, err := mod.Validate(tab, in)
	if err != nil {
		spinner.Fail()
		return err
	}
	if !verdict.Valid {
		spinner.Fail()
		return errors.New("bot move rejected: " + verdict.Reason)
	}
	if err := tab.Apply(verdict.Events); err != nil {
		spinner.Fail()
		return err
	}
	done := candidates.Build(tab, []engine.Intent{in}, nil)
	spinner.Success(seatLabel(tab, botID) + ": " + done[0].Summary)
	return nil
}

func seatLabel(tab *engine.Table, playerID string) string {
	if p, ok := tab.PlayerByID(playerID); ok && p.Name != "" {
		return p.Name
	}
	return playerID
}
