// Package guard decides whether the current session may open a protected
// view and what happens when it may not.
//
// The decision is a UX gate derived from an unverified token unless the
// resolver was built with a verification key. The backend stays the
// authority for every request that matters.
package guard

import (
	"errors"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/uptome-dev/uptome/internal/auth"
)

const DefaultLoginPath = "/login"

// Outcome is the authorization state of one navigation.
type Outcome int

const (
	Unresolved Outcome = iota
	Allowed
	DeniedAnonymous
	DeniedWrongRole
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case DeniedAnonymous:
		return "denied_anonymous"
	case DeniedWrongRole:
		return "denied_wrong_role"
	default:
		return "unresolved"
	}
}

// Rule is the allow-list attached to a protected view. An empty list only
// asks for nothing; the view is open to everyone.
type Rule struct {
	AllowedRoles []auth.Role
}

// Roles builds a Rule from a list of roles.
func Roles(roles ...auth.Role) Rule {
	return Rule{AllowedRoles: roles}
}

// IdentityResolver is the part of auth.Resolver the guard needs.
type IdentityResolver interface {
	CurrentIdentity() (*auth.Identity, error)
}

// Action says what the caller should do with a view.
type Action int

const (
	ActionRender Action = iota
	ActionRenderFallback
	ActionRedirect
)

// Decision is the resolved result of one navigation.
type Decision struct {
	Outcome Outcome
	Action  Action
	// Target is set for ActionRedirect.
	Target string
	// From is the location the user was trying to reach.
	From string
}

// RedirectURL returns Target with the originating location attached as
// the "from" query parameter.
func (d Decision) RedirectURL() string {
	if d.Action != ActionRedirect {
		return ""
	}
	if d.From == "" {
		return d.Target
	}
	u, err := url.Parse(d.Target)
	if err != nil {
		return d.Target
	}
	q := u.Query()
	q.Set("from", d.From)
	u.RawQuery = q.Encode()
	return u.String()
}

// Options configures a Guard.
type Options struct {
	LoginPath string
	// UnauthorizedPath receives users whose roles do not match. When empty
	// they are sent through the same path as anonymous users.
	UnauthorizedPath string
	Logger           zerolog.Logger
}

// Guard evaluates route rules against the current identity.
type Guard struct {
	resolver IdentityResolver
	opts     Options
}

// New creates a guard that asks resolver for the identity on every call.
func New(resolver IdentityResolver, opts Options) *Guard {
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	return &Guard{resolver: resolver, opts: opts}
}

// Evaluate computes the outcome of rule for the current identity. It never
// fails: an unreadable or malformed token counts as no token.
func (g *Guard) Evaluate(rule Rule) Outcome {
	if len(rule.AllowedRoles) == 0 {
		return Allowed
	}

	identity, err := g.resolver.CurrentIdentity()
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			g.opts.Logger.Warn().Err(err).Msg("Treating unreadable session as anonymous")
		}
		return DeniedAnonymous
	}

	if identity.HasAnyRole(rule.AllowedRoles) {
		return Allowed
	}
	return DeniedWrongRole
}

// Decide evaluates rule and maps the outcome to an action. from is the
// location being opened; hasFallback reports whether the view offers a
// public fallback for anonymous users.
func (g *Guard) Decide(rule Rule, from string, hasFallback bool) Decision {
	outcome := g.Evaluate(rule)
	d := Decision{Outcome: outcome, From: from}

	switch outcome {
	case Allowed:
		d.Action = ActionRender
	case DeniedWrongRole:
		if g.opts.UnauthorizedPath != "" {
			d.Action = ActionRedirect
			d.Target = g.opts.UnauthorizedPath
			break
		}
		g.denyAnonymous(&d, hasFallback)
	default:
		g.denyAnonymous(&d, hasFallback)
	}

	g.opts.Logger.Debug().
		Str("from", from).
		Str("outcome", outcome.String()).
		Str("target", d.Target).
		Msg("Route guard decision")

	return d
}

func (g *Guard) denyAnonymous(d *Decision, hasFallback bool) {
	if hasFallback {
		d.Action = ActionRenderFallback
		return
	}
	d.Action = ActionRedirect
	d.Target = g.opts.LoginPath
}

// LoginPath returns the configured login view.
func (g *Guard) LoginPath() string {
	return g.opts.LoginPath
}
