package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/party"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration commands",
	}

	cmd.AddCommand(protect(&cobra.Command{
		Use:   "decks",
		Short: "List every shared deck with its cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminDecks(cmd, env)
		},
	}, auth.RoleAdmin))

	return cmd
}

func runAdminDecks(cmd *cobra.Command, env *Env) error {
	svc, err := env.Party()
	if err != nil {
		return err
	}
	externalID, err := env.ExternalID()
	if err != nil {
		return err
	}

	var decks []party.Deck
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		decks, callErr = svc.DecksWithCards(ctx, externalID)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	if decks == nil {
		decks = []party.Deck{}
	}

	return env.render(decks, func(w io.Writer) {
		if len(decks) == 0 {
			fmt.Fprintln(w, "No decks found.")
			return
		}
		for i, d := range decks {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%d  %s (%d cards)\n", d.IDDeck, d.Title, len(d.Cards))
			for _, c := range d.Cards {
				fmt.Fprintf(w, "    %d  %s\n", c.IDCard, c.Title)
			}
		}
	})
}
