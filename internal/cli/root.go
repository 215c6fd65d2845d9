package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the uptome command tree around env.
func NewRootCmd(env *commands.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uptome",
		Short: "up to me - party card games with friends",
		Long: `uptome CLI - Play "up to me" from the terminal.

Sign in with a passwordless login token, build decks and cards, and start
games with your friends.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: env.Authorize,
	}

	rootCmd.PersistentFlags().StringVarP(&env.Output, "output", "o", "table", "Output format: table, json or yaml")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uptome version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewDecksCmd(env))
	rootCmd.AddCommand(commands.NewCardsCmd(env))
	rootCmd.AddCommand(commands.NewGamesCmd(env))
	rootCmd.AddCommand(commands.NewFriendsCmd(env))
	rootCmd.AddCommand(commands.NewUsersCmd(env))
	rootCmd.AddCommand(commands.NewAdminCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(commands.NewEnv()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
