package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const unknownRegistrationError = "An unknown error prevented us from obtaining a registration token."

// ErrNoSessionToken is returned when a sign-in succeeds without a token.
var ErrNoSessionToken = errors.New("sign-in response did not include a session token")

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	DeviceName string `json:"deviceName"`
}

// RegistrationToken is handed to the passwordless provider to enrol a
// passkey for the new account.
type RegistrationToken struct {
	Token string `json:"token"`
}

// VerifiedSession represents the sign-in response
type VerifiedSession struct {
	JWT       string `json:"jwt"`
	Success   bool   `json:"success,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// ProblemError is a failed auth call described by the backend. Its message
// is the server-provided detail when there is one.
type ProblemError struct {
	Status int
	Title  string
	Detail string
	Body   string
}

func (e *ProblemError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Title != "" {
		return e.Title
	}
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Register asks the backend for a registration token for a new user.
func (c *Client) Register(ctx context.Context, username, email, firstName, lastName string) (*RegistrationToken, error) {
	reqBody := RegisterRequest{
		Username:   username,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		DeviceName: username,
	}

	data, status, err := c.call(ctx, http.MethodPost, "/passwordless/register", reqBody)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		problem := parseProblem(status, data)
		if problem.Detail == "" {
			problem.Detail = unknownRegistrationError
		}
		return nil, problem
	}

	var token RegistrationToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &token, nil
}

// SignIn exchanges a one-time passwordless token for a session token.
func (c *Client) SignIn(ctx context.Context, token string) (*VerifiedSession, error) {
	path := "/passwordless/login?token=" + url.QueryEscape(token)

	data, status, err := c.call(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, parseProblem(status, data)
	}

	var session VerifiedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if session.JWT == "" {
		return nil, ErrNoSessionToken
	}

	return &session, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	resp, result := c.send(ctx, method, path, body)
	if resp == nil {
		return nil, 0, result.Err()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("API auth request")

	return data, resp.StatusCode, nil
}

// parseProblem reads an RFC 7807 style body. The backend wraps provider
// problems, so "detail" may itself be a problem object.
func parseProblem(status int, data []byte) *ProblemError {
	problem := &ProblemError{Status: status, Body: string(data)}

	var raw struct {
		Title  string          `json:"title"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return problem
	}
	problem.Title = raw.Title

	var detail string
	if err := json.Unmarshal(raw.Detail, &detail); err == nil {
		problem.Detail = detail
		return problem
	}

	var nested struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw.Detail, &nested); err == nil {
		problem.Detail = nested.Detail
		if problem.Detail == "" {
			problem.Detail = nested.Title
		}
	}

	return problem
}
