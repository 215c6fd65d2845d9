package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/auth/authtest"
	"github.com/uptome-dev/uptome/internal/guard"
)

func newGuard(token string, opts guard.Options) *guard.Guard {
	return guard.New(auth.NewResolver(auth.StaticToken(token)), opts)
}

func TestEvaluate_EmptyRuleAlwaysAllows(t *testing.T) {
	tokens := map[string]string{
		"anonymous": "",
		"malformed": "not.a.token",
		"user":      authtest.Token(t, "u1", auth.RoleUser),
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			g := newGuard(token, guard.Options{})
			assert.Equal(t, guard.Allowed, g.Evaluate(guard.Rule{}))
		})
	}
}

func TestEvaluate_RoleMatrix(t *testing.T) {
	tests := []struct {
		name    string
		roles   []auth.Role
		allowed []auth.Role
		want    guard.Outcome
	}{
		{name: "user on user route", roles: []auth.Role{auth.RoleUser}, allowed: []auth.Role{auth.RoleUser}, want: guard.Allowed},
		{name: "admin+user on user route", roles: []auth.Role{auth.RoleAdmin, auth.RoleUser}, allowed: []auth.Role{auth.RoleUser}, want: guard.Allowed},
		{name: "user on admin route", roles: []auth.Role{auth.RoleUser}, allowed: []auth.Role{auth.RoleAdmin}, want: guard.DeniedWrongRole},
		{name: "admin only on user route", roles: []auth.Role{auth.RoleAdmin}, allowed: []auth.Role{auth.RoleUser}, want: guard.DeniedWrongRole},
		{name: "no roles", roles: nil, allowed: []auth.Role{auth.RoleUser}, want: guard.DeniedWrongRole},
		{name: "either role", roles: []auth.Role{auth.RoleAdmin}, allowed: []auth.Role{auth.RoleUser, auth.RoleAdmin}, want: guard.Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGuard(authtest.Token(t, "u1", tt.roles...), guard.Options{})
			assert.Equal(t, tt.want, g.Evaluate(guard.Roles(tt.allowed...)))
		})
	}
}

func TestEvaluate_AnonymousAndMalformed(t *testing.T) {
	rule := guard.Roles(auth.RoleUser)

	assert.Equal(t, guard.DeniedAnonymous, newGuard("", guard.Options{}).Evaluate(rule))
	assert.NotPanics(t, func() {
		assert.Equal(t, guard.DeniedAnonymous, newGuard("garbage", guard.Options{}).Evaluate(rule))
	})
}

func TestDecide_WrongRoleGoesToLoginWithOrigin(t *testing.T) {
	g := newGuard(authtest.Token(t, "u1", auth.RoleUser), guard.Options{})

	d := g.Decide(guard.Roles(auth.RoleAdmin), "/admin", false)

	assert.Equal(t, guard.DeniedWrongRole, d.Outcome)
	assert.Equal(t, guard.ActionRedirect, d.Action)
	assert.Equal(t, "/login", d.Target)
	assert.Equal(t, "/admin", d.From)
	assert.Equal(t, "/login?from=%2Fadmin", d.RedirectURL())
}

func TestDecide_WrongRoleWithUnauthorizedView(t *testing.T) {
	g := newGuard(authtest.Token(t, "u1", auth.RoleUser), guard.Options{UnauthorizedPath: "/unauthorized"})

	d := g.Decide(guard.Roles(auth.RoleAdmin), "/admin", true)

	assert.Equal(t, guard.ActionRedirect, d.Action)
	assert.Equal(t, "/unauthorized", d.Target)
}

func TestDecide_AnonymousUsesFallback(t *testing.T) {
	g := newGuard("", guard.Options{UnauthorizedPath: "/unauthorized"})

	d := g.Decide(guard.Roles(auth.RoleUser), "/games", true)
	assert.Equal(t, guard.DeniedAnonymous, d.Outcome)
	assert.Equal(t, guard.ActionRenderFallback, d.Action)
	assert.Empty(t, d.RedirectURL())

	d = g.Decide(guard.Roles(auth.RoleUser), "/games", false)
	assert.Equal(t, guard.ActionRedirect, d.Action)
	assert.Equal(t, "/login?from=%2Fgames", d.RedirectURL())
}

func TestDecide_Allowed(t *testing.T) {
	g := newGuard(authtest.Token(t, "u1", auth.RoleAdmin, auth.RoleUser), guard.Options{LoginPath: "/signin"})

	d := g.Decide(guard.Roles(auth.RoleUser), "/games", false)
	assert.Equal(t, guard.Allowed, d.Outcome)
	assert.Equal(t, guard.ActionRender, d.Action)
	assert.Equal(t, "/signin", g.LoginPath())
}

func TestDecision_RedirectURLKeepsExistingQuery(t *testing.T) {
	d := guard.Decision{Action: guard.ActionRedirect, Target: "/login?mode=otp", From: "/user/bob"}
	assert.Equal(t, "/login?from=%2Fuser%2Fbob&mode=otp", d.RedirectURL())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unresolved", guard.Unresolved.String())
	assert.Equal(t, "allowed", guard.Allowed.String())
	assert.Equal(t, "denied_anonymous", guard.DeniedAnonymous.String())
	assert.Equal(t, "denied_wrong_role", guard.DeniedWrongRole.String())
}
