package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/guard"
)

const (
	annotationRoles    = "uptome/roles"
	annotationFallback = "uptome/fallback"

	loginCommand       = "login"
	unauthorizedTarget = "unauthorized"
)

// protect attaches a guard rule to cmd. Commands without one are public.
func protect(cmd *cobra.Command, roles ...auth.Role) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	cmd.Annotations[annotationRoles] = strings.Join(names, ",")
	return cmd
}

// protectWithFallback is protect for commands that still run, in a reduced
// form, for anonymous users.
func protectWithFallback(cmd *cobra.Command, roles ...auth.Role) *cobra.Command {
	protect(cmd, roles...)
	cmd.Annotations[annotationFallback] = "true"
	return cmd
}

func ruleFor(cmd *cobra.Command) (rule guard.Rule, fallback, guarded bool) {
	value, ok := cmd.Annotations[annotationRoles]
	if !ok {
		return guard.Rule{}, false, false
	}
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			rule.AllowedRoles = append(rule.AllowedRoles, auth.Role(name))
		}
	}
	return rule, cmd.Annotations[annotationFallback] == "true", true
}

type fallbackKey struct{}

func withFallback(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, fallbackKey{}, true)
}

// isFallback reports whether the guard let cmd run in its anonymous form.
func isFallback(cmd *cobra.Command) bool {
	ctx := cmd.Context()
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(fallbackKey{}).(bool)
	return v
}
