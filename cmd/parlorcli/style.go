package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/baizegames/parlor/engine"
	"github.com/baizegames/parlor/view"
)

// splash prints the one-time banner.
func splash(gameName string) {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Par", pterm.FgLightCyan.ToStyle()),
		putils.LettersFromStringWithStyle("lor", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}
	pterm.Info.Printfln("Table for %s. Your opponents are automated.", gameName)
	pterm.Println()
}

// renderView draws the viewer's snapshot: one box per seat with its piles,
// a board box for unowned piles, and the scoreboards underneath.
func renderView(v view.View) {
	seatPanels := make([]pterm.Panel, 0, len(v.Players))
	for _, p := range v.Players {
		seatPanels = append(seatPanels, pterm.Panel{Data: seatBox(v, p)})
	}
	rows := [][]pterm.Panel{seatPanels}
	if board := boardBox(v); board != "" {
		rows = append(rows, []pterm.Panel{{Data: board}})
	}
	_ = pterm.DefaultPanel.WithPanels(rows).Render()

	if len(v.Scoreboards) > 0 {
		printScoreboards(v.Scoreboards)
	}
}

func seatBox(v view.View, p view.Player) string {
	box := pterm.DefaultBox.WithHorizontalPadding(2).WithTopPadding(1).WithBottomPadding(1)
	title := p.Name
	if title == "" {
		title = p.ID
	}
	if p.ID == v.CurrentPlayer {
		title = pterm.LightGreen(title + " *")
	}
	var lines []string
	for _, pile := range v.Piles {
		if pile.Owner != p.ID {
			continue
		}
		lines = append(lines, pileLine(v, pile))
	}
	if len(lines) == 0 {
		lines = append(lines, "no piles")
	}
	return box.WithTitle(title).WithTitleTopLeft().Sprint(strings.Join(lines, "\n"))
}

func boardBox(v view.View) string {
	var lines []string
	for _, pile := range v.Piles {
		if pile.Owner != "" {
			continue
		}
		lines = append(lines, pileLine(v, pile))
	}
	if len(lines) == 0 {
		return ""
	}
	box := pterm.DefaultBox.WithHorizontalPadding(2).WithTopPadding(1).WithBottomPadding(1)
	return box.WithTitle("board").WithTitleTopLeft().Sprint(strings.Join(lines, "\n"))
}

// pileLine shows a pile as the viewer is allowed to see it: full contents
// when revealed, a count otherwise. Visual tags ride along in brackets.
func pileLine(v view.View, p view.Pile) string {
	if !p.Revealed() {
		return pterm.Sprintf("%s: %d face down", p.ID, p.Count)
	}
	if len(p.Cards) == 0 {
		return p.ID + ": empty"
	}
	tags := visualTags(v)
	names := make([]string, len(p.Cards))
	for i, c := range p.Cards {
		names[i] = c.Label
		if tag, ok := tags[c.ID]; ok {
			names[i] += " [" + tag + "]"
		}
	}
	return pterm.Sprintf("%s: %s", p.ID, strings.Join(names, " "))
}

func visualTags(v view.View) map[int]string {
	if len(v.Visuals) == 0 {
		return nil
	}
	out := make(map[int]string, len(v.Visuals))
	for _, vis := range v.Visuals {
		out[vis.CardID] = vis.Tag
	}
	return out
}

func printScoreboards(boards []engine.Scoreboard) {
	data := pterm.TableData{{"player", "score"}}
	for _, b := range boards {
		rows := make([]string, 0, len(b.Rows))
		for _, r := range b.Rows {
			rows = append(rows, r.Label+" "+r.Value)
		}
		data = append(data, []string{b.PlayerID, strings.Join(rows, ", ")})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Println()
}

func crownWinner(tab *engine.Table) {
	if tab.Winner == humanID {
		pterm.Success.Println("You win the match!")
		return
	}
	pterm.Info.Printfln("%s wins the match.", seatLabel(tab, tab.Winner))
}
