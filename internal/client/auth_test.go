package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/passwordless/register", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RegisterRequest{
			Username:   "alice",
			Email:      "a@x.com",
			FirstName:  "Alice",
			LastName:   "A",
			DeviceName: "alice",
		}, req)

		w.Write([]byte(`{"token":"register_abc"}`))
	})

	token, err := c.Register(context.Background(), "alice", "a@x.com", "Alice", "A")

	require.NoError(t, err)
	assert.Equal(t, "register_abc", token.Token)
}

func TestRegister_ProblemDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"email taken"}`))
	})

	token, err := c.Register(context.Background(), "alice", "a@x.com", "Alice", "A")

	assert.Nil(t, token)
	require.Error(t, err)
	assert.Equal(t, "email taken", err.Error())

	var problem *ProblemError
	require.True(t, errors.As(err, &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
}

func TestRegister_NestedProblemDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":{"type":"alias_conflict","title":"Alias in use","detail":"alias already registered"}}`))
	})

	_, err := c.Register(context.Background(), "alice", "a@x.com", "Alice", "A")
	assert.EqualError(t, err, "alias already registered")
}

func TestRegister_UnknownError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	})

	_, err := c.Register(context.Background(), "alice", "a@x.com", "Alice", "A")
	assert.EqualError(t, err, unknownRegistrationError)
}

func TestSignIn_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/passwordless/login", r.URL.Path)
		assert.Equal(t, "verify_x+y", r.URL.Query().Get("token"))
		w.Write([]byte(`{"jwt":"header.payload.sig","success":true,"userId":"ext-1"}`))
	})

	session, err := c.SignIn(context.Background(), "verify_x+y")

	require.NoError(t, err)
	assert.Equal(t, "header.payload.sig", session.JWT)
	assert.Equal(t, "ext-1", session.UserID)
}

func TestSignIn_ChecksStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":{"title":"The token is invalid"}}`))
	})

	session, err := c.SignIn(context.Background(), "expired")

	assert.Nil(t, session)
	assert.EqualError(t, err, "The token is invalid")
}

func TestSignIn_MissingJWT(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	})

	_, err := c.SignIn(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNoSessionToken)
}

func TestSignIn_TransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", "k")

	_, err := c.SignIn(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestProblemError_Fallbacks(t *testing.T) {
	assert.Equal(t, "plain text", (&ProblemError{Status: 502, Body: "plain text"}).Error())
	assert.Equal(t, "request failed with status 502", (&ProblemError{Status: 502}).Error())
	assert.Equal(t, "Bad", parseProblem(400, []byte(`{"title":"Bad"}`)).Error())
}
