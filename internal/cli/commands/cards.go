package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/party"
)

// NewCardsCmd creates the cards command group
func NewCardsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List and manage cards",
	}

	cmd.AddCommand(newCardsListCmd(env))
	cmd.AddCommand(newCardsAddCmd(env))
	cmd.AddCommand(newCardsDeleteCmd(env))

	return cmd
}

func newCardsListCmd(env *Env) *cobra.Command {
	var deckID int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := env.Party()
			if err != nil {
				return err
			}
			externalID, err := env.ExternalID()
			if err != nil {
				return err
			}

			var cards []party.Card
			err = env.call(cmd.Context(), func(ctx context.Context) error {
				var callErr error
				cards, callErr = svc.ListCards(ctx, externalID, deckID)
				return callErr
			})
			if err != nil {
				return fmt.Errorf("failed to list cards: %w", err)
			}
			if cards == nil {
				cards = []party.Card{}
			}

			return env.render(cards, func(w io.Writer) {
				if len(cards) == 0 {
					fmt.Fprintln(w, "No cards found.")
					fmt.Fprintln(w, "\nAdd one with: uptome cards add --title <title>")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tTITLE\tMINE\tDESCRIPTION")
				fmt.Fprintln(tw, "──\t─────\t────\t───────────")
				for _, c := range cards {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.IDCard, c.Title, yesNo(c.UserCard), c.Description)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&deckID, "deck", 0, "Only list cards of this deck")

	return protect(cmd, auth.RoleUser)
}

func newCardsAddCmd(env *Env) *cobra.Command {
	var title, description string
	var deckID int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a card",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			return runWrite(cmd, env, "Card created.", func(ctx context.Context, svc *party.Service, externalID string) error {
				_, err := svc.CreateCard(ctx, externalID, title, description, deckID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Card title")
	cmd.Flags().StringVar(&description, "description", "", "Card description")
	cmd.Flags().IntVar(&deckID, "deck", 0, "Deck to add the card to")

	return protect(cmd, auth.RoleUser)
}

func newCardsDeleteCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:     "rm <card-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("card", args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, env, fmt.Sprintf("Card %d deleted.", id), func(ctx context.Context, svc *party.Service, _ string) error {
				return svc.DeleteCard(ctx, id)
			})
		},
	}, auth.RoleUser)
}
