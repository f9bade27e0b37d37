package main

import (
	"fmt"
	"strings"

	"github.com/DoyleJ11/football-auction-backend/internal/catalog"
	cl "github.com/DoyleJ11/football-auction-backend/internal/cli"
	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderLobby(lb cl.Lobby) {
	accent.Printf("\n== LOBBY %s (v%d, %d watching) ==\n", lb.Code, lb.Version, lb.NumClients)
	st := lb.State
	if len(st.Participants) == 0 {
		printInfo("No participants yet.")
	} else {
		fmt.Printf("%-4s %-18s %10s %6s %8s\n", "ID", "NAME", "BUDGET", "OWNED", "STARTERS")
		for _, p := range st.Participants {
			fmt.Printf("%-4d %-18s %10s %6d %5d/%d\n", p.ID, p.Name, p.Budget.StringFixed(1), len(p.Inventory), len(p.Roster), len(engine.Formation))
		}
	}
	fmt.Printf("Players shown: %d\n", st.PlayersShown)

	r := st.Round
	if r == nil {
		printInfo("No player up for auction.")
		return
	}
	accent.Printf("\n-- %s (%s, tier %s) --\n", r.Offer.Name, r.Offer.Position, r.Offer.Tier)
	fmt.Printf("Value:    %s %s\n", r.Offer.DynamicValue.StringFixed(1), trendMark(r.Offer.Trend))
	fmt.Printf("Min bid:  %s\n", r.MinimumBid.StringFixed(1))
	if r.Leader != nil {
		success.Printf("Leader:   %s at %s\n", r.Leader.ParticipantName, r.Leader.Amount.StringFixed(1))
	} else {
		printWarn("No bids yet.")
	}
	clock := fmt.Sprintf("%ds left", r.Remaining)
	if r.State == engine.SchedulerPaused {
		clock = "paused"
	}
	if r.CurrentName != "" {
		fmt.Printf("Turn:     %s (%s)\n", r.CurrentName, clock)
	}
}

func trendMark(t engine.Trend) string {
	switch t {
	case engine.TrendUp:
		return color.GreenString("▲")
	case engine.TrendDown:
		return color.RedString("▼")
	default:
		return ""
	}
}

func renderPlayers(players []catalog.Player) {
	fmt.Printf("%-24s %-5s %-5s %-20s %-16s %8s\n", "NAME", "POS", "TIER", "CLUB", "LEAGUE", "VALUE")
	for _, p := range players {
		renderPlayerRow(p)
	}
}

func renderPlayerRow(p catalog.Player) {
	fmt.Printf("%-24s %-5s %-5s %-20s %-16s %8s\n",
		truncate(p.Name, 24), p.Position, strings.ToUpper(p.Tier), truncate(p.Club, 20), truncate(p.League, 16), p.MarketValue.StringFixed(1))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
