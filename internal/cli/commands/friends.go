package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/party"
)

// NewFriendsCmd creates the friends command group
func NewFriendsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage friendships",
	}

	cmd.AddCommand(protect(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List friends and pending requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFriendsList(cmd, env)
		},
	}, auth.RoleUser))

	cmd.AddCommand(protect(&cobra.Command{
		Use:   "add <username>",
		Short: "Send a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, env, "Friend request sent to "+args[0]+".", func(ctx context.Context, svc *party.Service, externalID string) error {
				return svc.RequestFriendship(ctx, externalID, args[0])
			})
		},
	}, auth.RoleUser))

	cmd.AddCommand(protect(&cobra.Command{
		Use:   "accept <username>",
		Short: "Accept a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, env, "You and "+args[0]+" are now friends.", func(ctx context.Context, svc *party.Service, externalID string) error {
				return svc.AcceptFriendship(ctx, externalID, args[0])
			})
		},
	}, auth.RoleUser))

	return cmd
}

func runFriendsList(cmd *cobra.Command, env *Env) error {
	svc, err := env.Party()
	if err != nil {
		return err
	}
	externalID, err := env.ExternalID()
	if err != nil {
		return err
	}

	var friendships *party.Friendships
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		friendships, callErr = svc.ListFriendships(ctx, externalID)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("failed to list friends: %w", err)
	}

	return env.render(friendships, func(w io.Writer) {
		if len(friendships.Friends) == 0 && len(friendships.Pending) == 0 {
			fmt.Fprintln(w, "No friends yet.")
			fmt.Fprintln(w, "\nFind people with: uptome users search <name>")
			return
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "USERNAME\tSTATUS")
		fmt.Fprintln(tw, "────────\t──────")
		for _, f := range friendships.Pending {
			fmt.Fprintf(tw, "%s\twaiting for you\n", f.Username)
		}
		for _, f := range friendships.Friends {
			status := "friend"
			if !f.Accepted {
				status = "pending"
			}
			fmt.Fprintf(tw, "%s\t%s\n", f.Username, status)
		}
		tw.Flush()
	})
}

// NewUsersCmd creates the users command group
func NewUsersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Find other players",
	}

	cmd.AddCommand(protect(&cobra.Command{
		Use:   "search <term>",
		Short: "Search users by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersSearch(cmd, env, args[0])
		},
	}, auth.RoleUser))

	return cmd
}

func runUsersSearch(cmd *cobra.Command, env *Env, term string) error {
	svc, err := env.Party()
	if err != nil {
		return err
	}
	externalID, err := env.ExternalID()
	if err != nil {
		return err
	}

	var matches []party.UserMatch
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		matches, callErr = svc.SearchAppUsers(ctx, externalID, term)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("failed to search users: %w", err)
	}
	if matches == nil {
		matches = []party.UserMatch{}
	}

	return env.render(matches, func(w io.Writer) {
		if len(matches) == 0 {
			fmt.Fprintf(w, "No users match %q.\n", term)
			return
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tUSERNAME\tFRIEND")
		for _, m := range matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.IDAppUser, m.Username, yesNo(m.Friend))
		}
		tw.Flush()
	})
}
