package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/client"
	"github.com/uptome-dev/uptome/internal/cli/userconfig"
)

var validate = validator.New()

type registerInput struct {
	Username  string `validate:"required,min=3,max=32"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var in registerInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and get a passwordless registration token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, env, in)
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "Username (defaults to the last one registered)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")

	return cmd
}

func runRegister(cmd *cobra.Command, env *Env, in registerInput) error {
	if in.Username == "" {
		if cfg, err := userconfig.Load(); err == nil {
			in.Username = cfg.LastUsername
		}
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid registration: %s", describeValidation(err))
	}

	c, err := env.Client()
	if err != nil {
		return err
	}

	var token *client.RegistrationToken
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		token, callErr = c.Register(ctx, in.Username, in.Email, in.FirstName, in.LastName)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := userconfig.SetLastUsername(in.Username); err != nil {
		env.Log.Warn().Err(err).Msg("Failed to remember username")
	}

	return env.render(token, func(w io.Writer) {
		fmt.Fprintln(w, "✓ Account created!")
		fmt.Fprintf(w, "  Registration token: %s\n", token.Token)
		fmt.Fprintln(w, "\nEnrol a passkey with this token, then run: uptome login --token <login-token>")
	})
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, ", ")
}

type loginResult struct {
	UserID   string      `json:"user_id" yaml:"user_id"`
	Nickname string      `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Roles    []auth.Role `json:"roles" yaml:"roles"`
}

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a passwordless login token for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, env, token)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "One-time login token (or set UPTOME_TOKEN, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, token string) error {
	// Check for environment variables (useful for CI/CD)
	if token == "" {
		token = os.Getenv("UPTOME_TOKEN")
	}

	if token == "" {
		// Check if stdin is a terminal (not piped)
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("login token is required in non-interactive mode (use --token flag or UPTOME_TOKEN env var)")
		}
		fmt.Fprint(env.ErrOut, "Login token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(env.ErrOut)
		if err != nil {
			return fmt.Errorf("failed to read login token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
		if token == "" {
			return fmt.Errorf("login token is required")
		}
	}

	c, err := env.Client()
	if err != nil {
		return err
	}

	var session *client.VerifiedSession
	err = env.call(cmd.Context(), func(ctx context.Context) error {
		var callErr error
		session, callErr = c.SignIn(ctx, token)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Save token
	if err := env.Store.SaveToken(env.Origin(), session.JWT); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}

	out := loginResult{Nickname: session.Nickname, Roles: []auth.Role{}}
	if claims, err := auth.DecodeToken(session.JWT); err == nil {
		out.UserID = claims.UserID
		if claims.Roles != nil {
			out.Roles = claims.Roles
		}
	}

	return env.render(out, func(w io.Writer) {
		fmt.Fprintln(w, "✓ Login successful!")
		if out.Nickname != "" {
			fmt.Fprintf(w, "  User: %s\n", out.Nickname)
		}
		for _, role := range out.Roles {
			if role == auth.RoleAdmin {
				fmt.Fprintln(w, "  Role: Admin")
			}
		}
	})
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Store.DeleteToken(env.Origin()); err != nil {
				return fmt.Errorf("failed to delete session token: %w", err)
			}
			fmt.Fprintln(env.Out, "Signed out.")
			return nil
		},
	}
}

type whoami struct {
	ExternalID string      `json:"external_id" yaml:"external_id"`
	Roles      []auth.Role `json:"roles" yaml:"roles"`
	ExpiresAt  string      `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Username   string      `json:"username" yaml:"username"`
	Email      string      `json:"email" yaml:"email"`
	FirstName  string      `json:"firstname" yaml:"firstname"`
	LastName   string      `json:"lastname" yaml:"lastname"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return protect(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, env)
		},
	}, auth.RoleUser)
}

func runWhoami(cmd *cobra.Command, env *Env) error {
	claims, err := env.Resolver().CurrentClaims()
	if err != nil {
		return err
	}

	svc, err := env.Party()
	if err != nil {
		return err
	}

	out := whoami{ExternalID: claims.UserID, Roles: claims.Roles}
	if out.Roles == nil {
		out.Roles = []auth.Role{}
	}
	if exp, ok := claims.ExpiresAtTime(); ok {
		out.ExpiresAt = exp.Format(time.RFC3339)
	}

	err = env.call(cmd.Context(), func(ctx context.Context) error {
		user, err := svc.GetAppUser(ctx, claims.UserID)
		if err != nil {
			return err
		}
		out.Username = user.Username
		out.Email = user.Email
		out.FirstName = user.FirstName
		out.LastName = user.LastName
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	return env.render(out, func(w io.Writer) {
		tw := newTable(w)
		fmt.Fprintf(tw, "USER\t%s\n", out.Username)
		fmt.Fprintf(tw, "NAME\t%s %s\n", out.FirstName, out.LastName)
		fmt.Fprintf(tw, "EMAIL\t%s\n", out.Email)
		fmt.Fprintf(tw, "ROLES\t%s\n", joinRoles(out.Roles))
		if out.ExpiresAt != "" {
			fmt.Fprintf(tw, "EXPIRES\t%s\n", out.ExpiresAt)
		}
		tw.Flush()
	})
}

func joinRoles(roles []auth.Role) string {
	if len(roles) == 0 {
		return "-"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
