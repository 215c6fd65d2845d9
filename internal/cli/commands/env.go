package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	coreauth "github.com/uptome-dev/uptome/internal/auth"
	cliauth "github.com/uptome-dev/uptome/internal/cli/auth"
	"github.com/uptome-dev/uptome/internal/client"
	"github.com/uptome-dev/uptome/internal/config"
	"github.com/uptome-dev/uptome/internal/guard"
	"github.com/uptome-dev/uptome/internal/logger"
	"github.com/uptome-dev/uptome/internal/longtask"
	"github.com/uptome-dev/uptome/internal/party"
)

// Env carries everything a command needs. Zero fields are filled from the
// environment the first time a command runs.
type Env struct {
	Config     *config.Config
	Store      cliauth.TokenStore
	HTTPClient *http.Client
	Out        io.Writer
	ErrOut     io.Writer
	Log        zerolog.Logger

	// Output is the --output flag value.
	Output string

	loaded bool
}

// NewEnv creates an Env writing to stdout and stderr.
func NewEnv() *Env {
	return &Env{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Log:    zerolog.Nop(),
		Output: "table",
	}
}

func (e *Env) load() error {
	if e.loaded {
		return nil
	}

	if e.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		e.Config = cfg
		logger.InitWithWriter(cfg.Logging.Level, "console", e.ErrOut)
		e.Log = logger.Component("cli")
	}

	if e.Store == nil {
		store, err := cliauth.StoreFor(e.Config.Session.TokenStore)
		if err != nil {
			return err
		}
		e.Store = store
	}

	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.ErrOut == nil {
		e.ErrOut = os.Stderr
	}

	e.loaded = true
	return nil
}

// Origin is the backend the session token belongs to.
func (e *Env) Origin() string {
	return e.Config.API.URL
}

// Client returns a REST client for the configured backend.
func (e *Env) Client() (*client.Client, error) {
	if err := e.Config.RequireAPI(); err != nil {
		return nil, err
	}
	opts := []client.Option{
		client.WithTimeout(e.Config.API.Timeout),
		client.WithLogger(e.Log),
	}
	if e.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(e.HTTPClient))
	}
	return client.New(e.Config.API.URL, e.Config.API.Key, opts...), nil
}

// Party returns the typed backend API.
func (e *Env) Party() (*party.Service, error) {
	c, err := e.Client()
	if err != nil {
		return nil, err
	}
	return party.NewService(c), nil
}

// Resolver reads the stored session for the configured backend.
func (e *Env) Resolver() *coreauth.Resolver {
	var opts []coreauth.ResolverOption
	if e.Config.Session.JWTSecret != "" {
		opts = append(opts, coreauth.WithVerificationKey([]byte(e.Config.Session.JWTSecret)))
	}
	return coreauth.NewResolver(cliauth.Source(e.Store, e.Origin()), opts...)
}

// Guard builds a guard whose login "view" is the login command.
func (e *Env) Guard() *guard.Guard {
	opts := guard.Options{
		LoginPath: loginCommand,
		Logger:    e.Log,
	}
	if e.Config.Web.UnauthorizedView != "" {
		opts.UnauthorizedPath = unauthorizedTarget
	}
	return guard.New(e.Resolver(), opts)
}

// ExternalID returns the signed-in user's external id.
func (e *Env) ExternalID() (string, error) {
	id, err := e.Resolver().CurrentExternalID()
	if errors.Is(err, coreauth.ErrNoToken) {
		return "", fmt.Errorf("not signed in. Run 'uptome login' first")
	}
	return id, err
}

// call runs fn with the slow-call notice. Errors returned by fn come back
// unchanged.
func (e *Env) call(ctx context.Context, fn func(context.Context) error) error {
	return longtask.Do(ctx, e.Config.API.SlowAfter, e.notifySlow, fn)
}

func (e *Env) notifySlow() {
	fmt.Fprintln(e.ErrOut, "Still working, the server is taking longer than usual...")
}

// Authorize evaluates the guard rule attached to cmd. It is the root
// command's PersistentPreRunE.
func (e *Env) Authorize(cmd *cobra.Command, args []string) error {
	if err := e.load(); err != nil {
		return err
	}
	if err := validateOutput(e.Output); err != nil {
		return err
	}

	rule, fallback, guarded := ruleFor(cmd)
	if !guarded {
		return nil
	}

	g := e.Guard()
	d := g.Decide(rule, cmd.CommandPath(), fallback)
	switch d.Action {
	case guard.ActionRender:
		return nil
	case guard.ActionRenderFallback:
		cmd.SetContext(withFallback(cmd.Context()))
		return nil
	}

	if d.Target == g.LoginPath() {
		if d.Outcome == guard.DeniedWrongRole {
			return fmt.Errorf("your account lacks the role %q needs. Run 'uptome login' with an account that has it", d.From)
		}
		return fmt.Errorf("%q requires a signed-in session. Run 'uptome login' and try again", d.From)
	}
	return fmt.Errorf("your account is not allowed to run %q", d.From)
}
