package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "github.com/DoyleJ11/football-auction-backend/internal/cli"
	"github.com/DoyleJ11/football-auction-backend/internal/config"
	"github.com/DoyleJ11/football-auction-backend/internal/engine"
	"github.com/DoyleJ11/football-auction-backend/internal/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "auctionctl",
		Short:        "Drive a football auction server from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "server base URL")

	root.AddCommand(
		newLobbyCmd(&apiBase),
		newJoinCmd(&apiBase),
		newOfferCmd(&apiBase),
		newBidCmd(&apiBase),
		newMoveCmd(&apiBase),
		newParticipantCmd(&apiBase, "leave", "Remove a participant", "Deregister"),
		newUnslotCmd(&apiBase),
		newItemCmd(&apiBase, "resell", "Sell an owned player back for part of its price", "SellItem"),
		newItemCmd(&apiBase, "autofill", "Put an owned player into the first free slot that fits", "Autofill"),
		newSimpleCmd(&apiBase, "pass", "Give the turn away", "Pass"),
		newSimpleCmd(&apiBase, "pause", "Pause the turn countdown", "Pause"),
		newSimpleCmd(&apiBase, "resume", "Resume the turn countdown", "Resume"),
		newSimpleCmd(&apiBase, "sell", "Sell the current item to the leading bidder", "SellNow"),
		newSimpleCmd(&apiBase, "cancel", "Close the current round without a sale", "CancelRound"),
		newSimpleCmd(&apiBase, "reset", "Start a new session with fresh budgets", "Reset"),
		newSimpleCmd(&apiBase, "reload", "Re-read persisted participants", "Reload"),
		newPlayersCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		printError(fmt.Sprintf("error: %v", err))
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func send(cmd *cobra.Command, apiBase *string, code string, msg types.ClientMessage) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	lb, err := newClient(apiBase).Send(ctx, strings.ToUpper(code), msg)
	if err != nil {
		return err
	}
	renderLobby(lb)
	return nil
}

func newLobbyCmd(apiBase *string) *cobra.Command {
	lobbyCmd := &cobra.Command{
		Use:   "lobby",
		Short: "Create, list, show and close lobbies",
	}
	lobbyCmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create a lobby and print its code",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				code, err := newClient(apiBase).CreateLobby(ctx)
				if err != nil {
					return err
				}
				printSuccess("Lobby created: " + code)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List open lobbies",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				codes, err := newClient(apiBase).ListLobbies(ctx)
				if err != nil {
					return err
				}
				if len(codes) == 0 {
					printInfo("No lobbies.")
					return nil
				}
				for _, c := range codes {
					fmt.Println(c)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show CODE",
			Short: "Show a lobby's participants and round",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				lb, err := newClient(apiBase).GetLobby(ctx, strings.ToUpper(args[0]))
				if err != nil {
					return err
				}
				renderLobby(lb)
				return nil
			},
		},
		&cobra.Command{
			Use:   "close CODE",
			Short: "Shut a lobby down",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				if err := newClient(apiBase).DeleteLobby(ctx, strings.ToUpper(args[0])); err != nil {
					return err
				}
				printSuccess("Lobby closed.")
				return nil
			},
		},
	)
	return lobbyCmd
}

func newJoinCmd(apiBase *string) *cobra.Command {
	var budget string
	cmd := &cobra.Command{
		Use:   "join CODE NAME",
		Short: "Register a participant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := types.ClientMessage{Type: "Register", Name: args[1]}
			if budget != "" {
				d, err := decimal.NewFromString(budget)
				if err != nil {
					return fmt.Errorf("invalid budget %q", budget)
				}
				msg.Budget = decimal.NewNullDecimal(d)
			}
			return send(cmd, apiBase, args[0], msg)
		},
	}
	cmd.Flags().StringVar(&budget, "budget", "", "starting budget (server default when empty)")
	return cmd
}

func newOfferCmd(apiBase *string) *cobra.Command {
	var f engine.Filter
	cmd := &cobra.Command{
		Use:   "offer CODE",
		Short: "Put the next player up for auction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: "OfferNext", Filter: f})
		},
	}
	cmd.Flags().StringVar(&f.Era, "era", "", "era filter")
	cmd.Flags().StringVar(&f.League, "league", "", "league filter")
	cmd.Flags().StringVar(&f.Position, "position", "", "GK, DEF, MID, FWD or a concrete position")
	cmd.Flags().StringVar(&f.Tier, "tier", "", "tier filter")
	cmd.Flags().StringSliceVar(&f.Clubs, "club", nil, "club filter, repeatable")
	return cmd
}

func newBidCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bid CODE PARTICIPANT AMOUNT",
		Short: "Place a bid for the participant whose turn it is",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[2])
			}
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: "PlaceBid", ParticipantID: id, Amount: amount})
		},
	}
}

func newMoveCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move CODE PARTICIPANT ITEM SLOT",
		Short: "Place an owned player into a formation slot",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			item, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid item index %q", args[2])
			}
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: "Move", ParticipantID: id, ItemIndex: &item, Slot: strings.ToLower(args[3])})
		},
	}
}

func newUnslotCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unslot CODE PARTICIPANT SLOT",
		Short: "Send a slotted player back to the bench",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: "RemoveFromSlot", ParticipantID: id, Slot: strings.ToLower(args[2])})
		},
	}
}

func newItemCmd(apiBase *string, use, short, msgType string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CODE PARTICIPANT ITEM",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			item, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid item index %q", args[2])
			}
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: msgType, ParticipantID: id, ItemIndex: &item})
		},
	}
}

func newParticipantCmd(apiBase *string, use, short, msgType string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CODE PARTICIPANT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: msgType, ParticipantID: id})
		},
	}
}

func newSimpleCmd(apiBase *string, use, short, msgType string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " CODE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, apiBase, args[0], types.ClientMessage{Type: msgType})
		},
	}
}

func newPlayersCmd(apiBase *string) *cobra.Command {
	var q cl.PlayerQuery
	addFilters := func(c *cobra.Command) {
		c.Flags().StringVar(&q.Era, "era", "", "era filter")
		c.Flags().StringVar(&q.League, "league", "", "league filter")
		c.Flags().StringVar(&q.Position, "position", "", "GK, DEF, MID, FWD or a concrete position")
		c.Flags().StringVar(&q.Tier, "tier", "", "tier filter")
		c.Flags().StringSliceVar(&q.Clubs, "club", nil, "club filter, repeatable")
		c.Flags().StringSliceVar(&q.Exclude, "exclude", nil, "player names to skip, repeatable")
	}

	playersCmd := &cobra.Command{
		Use:   "players",
		Short: "Browse the player catalog",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List players matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			players, err := newClient(apiBase).ListPlayers(ctx, q)
			if err != nil {
				return err
			}
			renderPlayers(players)
			return nil
		},
	}
	randomCmd := &cobra.Command{
		Use:   "random",
		Short: "Draw one random player matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			p, remaining, err := newClient(apiBase).RandomPlayer(ctx, q)
			if err != nil {
				return err
			}
			renderPlayers(nil)
			renderPlayerRow(p)
			printInfo(fmt.Sprintf("%d players matched.", remaining))
			return nil
		},
	}
	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count players matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			n, err := newClient(apiBase).CountPlayers(ctx, q)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	for _, c := range []*cobra.Command{listCmd, randomCmd, countCmd} {
		addFilters(c)
	}

	clubsCmd := &cobra.Command{
		Use:   "clubs",
		Short: "List every club in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			clubs, err := newClient(apiBase).Clubs(ctx)
			if err != nil {
				return err
			}
			for _, c := range clubs {
				fmt.Println(c)
			}
			return nil
		},
	}

	playersCmd.AddCommand(listCmd, randomCmd, countCmd, clubsCmd)
	return playersCmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid participant id %q", s)
	}
	return id, nil
}
