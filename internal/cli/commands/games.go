package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/party"
)

// NewGamesCmd creates the games command group
func NewGamesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List, start and join games",
	}

	cmd.AddCommand(newGamesListCmd(env))
	cmd.AddCommand(newGamesShowCmd(env))
	cmd.AddCommand(newGamesStartCmd(env))
	cmd.AddCommand(newGamesAcceptCmd(env))
	cmd.AddCommand(newGamesDeleteCmd(env))

	return cmd
}

func newGamesListCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your games",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := env.Party()
			if err != nil {
				return err
			}
			externalID, err := env.ExternalID()
			if err != nil {
				return err
			}

			var games []party.GameSummary
			err = env.call(cmd.Context(), func(ctx context.Context) error {
				var callErr error
				games, callErr = svc.ListGames(ctx, externalID)
				return callErr
			})
			if err != nil {
				return fmt.Errorf("failed to list games: %w", err)
			}
			if games == nil {
				games = []party.GameSummary{}
			}

			return env.render(games, func(w io.Writer) {
				if len(games) == 0 {
					fmt.Fprintln(w, "No games found.")
					fmt.Fprintln(w, "\nStart one with: uptome games start --deck <deck-id>")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tDECK\tOWNER\tACCEPTED\tPLAYERS\tCREATED AT")
				fmt.Fprintln(tw, "──\t────\t─────\t────────\t───────\t──────────")
				for _, g := range games {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						g.IDGame,
						g.Deck,
						g.Owner,
						yesNo(g.Accepted),
						strings.Join(g.Participants, ", "),
						g.CreatedTime,
					)
				}
				tw.Flush()
			})
		},
	}, auth.RoleUser)
}

type gameView struct {
	Game  party.Game                      `json:"game" yaml:"game"`
	Piles map[party.Pile][]party.GameCard `json:"piles" yaml:"piles"`
}

func newGamesShowCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:   "show <game-id>",
		Short: "Show a game and your cards in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			svc, err := env.Party()
			if err != nil {
				return err
			}
			externalID, err := env.ExternalID()
			if err != nil {
				return err
			}

			var info *party.GameInfo
			err = env.call(cmd.Context(), func(ctx context.Context) error {
				var callErr error
				info, callErr = svc.GetGame(ctx, externalID, id)
				return callErr
			})
			if err != nil {
				return fmt.Errorf("failed to load game %d: %w", id, err)
			}

			view := gameView{Game: info.Game, Piles: info.Piles()}
			return env.render(view, func(w io.Writer) {
				printGame(w, view)
			})
		},
	}, auth.RoleUser)
}

func printGame(w io.Writer, view gameView) {
	g := view.Game
	fmt.Fprintf(w, "Game %d (started: %s, wildcards: %d, skips: %d)\n\n", g.IDGame, yesNo(g.Started), g.WildcardsCount, g.SkipsCount)

	names := make([]string, 0, len(g.Participants))
	for name := range g.Participants {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(w)
	fmt.Fprintln(tw, "PLAYER\tACCEPTED\tSKIPS LEFT")
	for _, name := range names {
		p := g.Participants[name]
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, yesNo(p.Accepted), p.SkipsLeft)
	}
	tw.Flush()

	for _, pile := range []party.Pile{party.PileToPlay, party.PileInPlay, party.PileDone} {
		cards := view.Piles[pile]
		fmt.Fprintf(w, "\n%s (%d)\n", pileTitle(pile), len(cards))
		for _, c := range cards {
			line := "  - " + c.Title
			if c.PerformerName != "" {
				line += " → " + c.PerformerName
			}
			if c.Wildcard {
				line += " [wildcard]"
			}
			fmt.Fprintln(w, line)
		}
	}
}

func pileTitle(p party.Pile) string {
	switch p {
	case party.PileInPlay:
		return "In play"
	case party.PileDone:
		return "Done"
	default:
		return "To play"
	}
}

func newGamesStartCmd(env *Env) *cobra.Command {
	var deckID int
	var participants []int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a game with friends",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckID <= 0 {
				return fmt.Errorf("--deck is required")
			}
			return runWrite(cmd, env, "Game started.", func(ctx context.Context, svc *party.Service, externalID string) error {
				_, err := svc.StartGame(ctx, externalID, deckID, participants)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&deckID, "deck", 0, "Deck to play with")
	cmd.Flags().IntSliceVar(&participants, "with", nil, "App user ids of the friends to invite")

	return protect(cmd, auth.RoleUser)
}

func newGamesAcceptCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:   "accept <game-id>",
		Short: "Accept a game invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, env, fmt.Sprintf("Joined game %d.", id), func(ctx context.Context, svc *party.Service, externalID string) error {
				_, err := svc.AcceptGame(ctx, externalID, id)
				return err
			})
		},
	}, auth.RoleUser)
}

func newGamesDeleteCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:     "rm <game-id>",
		Aliases: []string{"resign"},
		Short:   "Leave and delete a game",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, env, fmt.Sprintf("Game %d deleted.", id), func(ctx context.Context, svc *party.Service, _ string) error {
				return svc.DeleteGame(ctx, id)
			})
		},
	}, auth.RoleUser)
}
