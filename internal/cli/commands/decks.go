package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/party"
)

// NewDecksCmd creates the decks command group
func NewDecksCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List and manage decks",
	}

	cmd.AddCommand(newDecksListCmd(env))
	cmd.AddCommand(newDecksCreateCmd(env))
	cmd.AddCommand(newDecksDeleteCmd(env))

	return cmd
}

func newDecksListCmd(env *Env) *cobra.Command {
	return protectWithFallback(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List decks (shared decks only when signed out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecksList(cmd, env)
		},
	}, auth.RoleUser)
}

func runDecksList(cmd *cobra.Command, env *Env) error {
	svc, err := env.Party()
	if err != nil {
		return err
	}

	var externalID string
	if !isFallback(cmd) {
		if externalID, err = env.ExternalID(); err != nil {
			return err
		}
	}

	var decks []party.Deck
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		decks, callErr = svc.ListDecks(ctx, externalID)
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
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tTITLE\tMINE\tDESCRIPTION")
		fmt.Fprintln(tw, "──\t─────\t────\t───────────")
		for _, d := range decks {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.IDDeck, d.Title, yesNo(d.UserDeck), d.Description)
		}
		tw.Flush()
		if isFallback(cmd) {
			fmt.Fprintln(w, "\nShowing shared decks. Run 'uptome login' to see your own.")
		}
	})
}

func newDecksCreateCmd(env *Env) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			return runWrite(cmd, env, "Deck created.", func(ctx context.Context, svc *party.Service, externalID string) error {
				_, err := svc.CreateDeck(ctx, externalID, title, description)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Deck title")
	cmd.Flags().StringVar(&description, "description", "", "Deck description")

	return protect(cmd, auth.RoleUser)
}

func newDecksDeleteCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:     "rm <deck-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a deck",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("deck", args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, env, fmt.Sprintf("Deck %d deleted.", id), func(ctx context.Context, svc *party.Service, _ string) error {
				return svc.DeleteDeck(ctx, id)
			})
		},
	}, auth.RoleUser)
}

// runWrite runs a backend write for the signed-in user and reports done.
func runWrite(cmd *cobra.Command, env *Env, done string, fn func(ctx context.Context, svc *party.Service, externalID string) error) error {
	svc, err := env.Party()
	if err != nil {
		return err
	}
	externalID, err := env.ExternalID()
	if err != nil {
		return err
	}

	if err := env.call(cmd.Context(), func(ctx context.Context) error {
		return fn(ctx, svc, externalID)
	}); err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "✓ %s\n", done)
	return nil
}

func parseID(kind, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, value)
	}
	return id, nil
}
