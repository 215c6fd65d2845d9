package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/guard"
)

const (
	sessionCookie   = "jwt"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	identityKey     = "identity"
)

func setIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity returns the identity the guard admitted for this request.
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}

	identity, ok := value.(*auth.Identity)
	return identity, ok && identity != nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// requestIDMiddleware tags every request with a ULID, reusing a valid one
// sent by the caller.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := ulid.ParseStrict(id); err != nil {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// resolver reads the session cookie of one request.
func (s *Server) resolver(c *gin.Context) *auth.Resolver {
	token, _ := c.Cookie(sessionCookie)
	return auth.NewResolver(auth.StaticToken(token), s.resolverOpts...)
}

// guard is rebuilt per request; nothing is cached between navigations.
func (s *Server) guard(resolver *auth.Resolver) *guard.Guard {
	return guard.New(resolver, guard.Options{
		UnauthorizedPath: s.config.Web.UnauthorizedView,
		Logger:           s.logger,
	})
}

// requireRoles gates a route on roles. Denied visitors are redirected to
// the login view (or the unauthorized view) unless fallback is given, in
// which case fallback handles the request instead.
func (s *Server) requireRoles(fallback gin.HandlerFunc, roles ...auth.Role) gin.HandlerFunc {
	rule := guard.Roles(roles...)

	return func(c *gin.Context) {
		resolver := s.resolver(c)
		decision := s.guard(resolver).Decide(rule, c.Request.URL.RequestURI(), fallback != nil)

		switch decision.Action {
		case guard.ActionRender:
			identity, err := resolver.CurrentIdentity()
			if err != nil {
				respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid session")
				return
			}
			setIdentity(c, identity)
			c.Next()
		case guard.ActionRenderFallback:
			fallback(c)
			c.Abort()
		default:
			c.Redirect(http.StatusFound, decision.RedirectURL())
			c.Abort()
		}
	}
}

// optionalIdentity resolves the visitor on public routes. Anonymous and
// unreadable sessions both yield nil.
func (s *Server) optionalIdentity(c *gin.Context) *auth.Identity {
	identity, err := s.resolver(c).CurrentIdentity()
	if err != nil {
		return nil
	}
	return identity
}
