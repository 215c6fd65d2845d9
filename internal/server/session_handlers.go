package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/client"
	"github.com/uptome-dev/uptome/internal/longtask"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=32,username"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// LoginRequest carries the one-time passwordless token
type LoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginResponse tells the front end where to go after signing in
type LoginResponse struct {
	Success  bool        `json:"success"`
	UserID   string      `json:"user_id"`
	Nickname string      `json:"nickname,omitempty"`
	Roles    []auth.Role `json:"roles"`
	Redirect string      `json:"redirect"`
}

// @Summary Register
// @Description Creates an account and returns a passwordless registration token
// @Tags session
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 200 {object} client.RegistrationToken
// @Failure 400 {object} map[string]interface{}
// @Router /register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var token *client.RegistrationToken
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		token, callErr = s.client.Register(ctx, req.Username, req.Email, req.FirstName, req.LastName)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	s.logger.Info().Str("username", req.Username).Msg("User registered")
	c.JSON(http.StatusOK, token)
}

// @Summary Login view
// @Description Describes the login view and where the user came from
// @Tags session
// @Produce json
// @Param from query string false "Location to return to after login"
// @Router /login [get]
func (s *Server) loginView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"view":      "login",
		"from":      safeRedirect(c.Query("from")),
		"signed_in": s.optionalIdentity(c) != nil,
	})
}

// @Summary Login
// @Description Exchanges a passwordless token for a session cookie
// @Tags session
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Param from query string false "Location to return to after login"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session *client.VerifiedSession
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		session, callErr = s.client.SignIn(ctx, req.Token)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	claims, err := auth.DecodeToken(session.JWT)
	if err != nil {
		respondWithError(c, s.logger, http.StatusBadGateway, err, "Backend returned an unreadable session token")
		return
	}

	maxAge := 0
	if exp, ok := claims.ExpiresAtTime(); ok {
		if remaining := time.Until(exp); remaining > 0 {
			maxAge = int(remaining.Seconds())
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, session.JWT, maxAge, "/", "", s.config.Web.SecureCookies, true)

	roles := claims.Roles
	if roles == nil {
		roles = []auth.Role{}
	}

	s.logger.Info().Str("user_id", claims.UserID).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Success:  true,
		UserID:   claims.UserID,
		Nickname: session.Nickname,
		Roles:    roles,
		Redirect: safeRedirect(c.Query("from")),
	})
}

// @Summary Logout
// @Tags session
// @Router /logout [post]
func (s *Server) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.config.Web.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) unauthorizedView(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"view":  "unauthorized",
		"error": "You do not have access to the requested page.",
	})
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	return from
}

// respondBackendError maps a failed backend call to a response
func (s *Server) respondBackendError(c *gin.Context, err error) {
	if errors.Is(err, longtask.ErrBusy) {
		respondWithError(c, s.logger, http.StatusConflict, err, err.Error())
		return
	}

	var problem *client.ProblemError
	if errors.As(err, &problem) {
		status := problem.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		respondWithError(c, s.logger, status, err, problem.Error())
		return
	}

	var failed *client.ResultError
	if errors.As(err, &failed) {
		respondWithError(c, s.logger, http.StatusBadGateway, err, failed.Message)
		return
	}

	respondWithError(c, s.logger, http.StatusBadGateway, err, err.Error())
}
