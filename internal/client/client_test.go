package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL, "test-key")
}

func TestClient_GetSuccessPassesPayloadThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/deck/", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("external_id"))
		assert.Equal(t, "test-key", r.Header.Get(APIKeyHeader))
		w.Write([]byte(`{"decks":[{"iddeck":1,"title":"Party"}]}`))
	})

	result := c.Get(context.Background(), "/deck/?external_id=7")

	require.True(t, result.OK())
	assert.JSONEq(t, `{"decks":[{"iddeck":1,"title":"Party"}]}`, string(result.Payload))
}

func TestClient_GetIsRepeatable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cards":[{"idcard":3}]}`))
	})

	first := c.Get(context.Background(), "/card/")
	second := c.Get(context.Background(), "/card/")

	assert.Equal(t, first, second)
}

func TestClient_HTTPErrorReturnsBodyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	result := c.Get(context.Background(), "/deck/?external_id=7")

	assert.False(t, result.OK())
	assert.Equal(t, "boom", result.Error)
	assert.Nil(t, result.Payload)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(data))
}

func TestClient_ErrorNormalizationAcrossVerbs(t *testing.T) {
	statuses := []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict, http.StatusBadGateway}

	for _, status := range statuses {
		status := status
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"nope"}`))
		})

		calls := map[string]func() Result{
			"get":    func() Result { return c.Get(context.Background(), "/x") },
			"put":    func() Result { return c.Put(context.Background(), "/x", map[string]int{"game": 1}) },
			"post":   func() Result { return c.Post(context.Background(), "/x", map[string]int{"game": 1}) },
			"delete": func() Result { return c.Delete(context.Background(), "/x") },
		}
		for name, call := range calls {
			t.Run(http.StatusText(status)+"/"+name, func(t *testing.T) {
				var result Result
				assert.NotPanics(t, func() { result = call() })
				assert.Equal(t, `{"detail":"nope"}`, result.Error)
				assert.Error(t, result.Err())
			})
		}
	}
}

func TestClient_EmptyErrorBodyStillFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result := c.Delete(context.Background(), "/game/?idgame=1")

	assert.False(t, result.OK())
	assert.Equal(t, "request failed with status 503", result.Error)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := New(url, "k").Get(context.Background(), "/deck/")

	assert.False(t, result.OK())
	assert.Contains(t, result.Error, "failed to send request")
}

func TestClient_InvalidJSONIsAFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	})

	result := c.Get(context.Background(), "/")

	assert.Equal(t, "failed to decode response: invalid JSON", result.Error)
}

func TestClient_EmptySuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	result := c.Put(context.Background(), "/friendship/accept", nil)

	require.True(t, result.OK())
	assert.Equal(t, "null", string(result.Payload))
}

func TestClient_SendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"external_id":"u1","username":"bob"}`, string(body))
		w.Write([]byte(`{"message":"ok"}`))
	})

	result := c.Post(context.Background(), "/friendship/create", map[string]string{
		"external_id": "u1",
		"username":    "bob",
	})

	require.True(t, result.OK())
	msg, err := DecodeResult[map[string]string](result)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg["message"])
}

func TestClient_UnmarshalableBody(t *testing.T) {
	c := New("http://127.0.0.1:0", "k")

	result := c.Post(context.Background(), "/card/", map[string]any{"bad": make(chan int)})

	assert.Contains(t, result.Error, "failed to marshal request")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k", WithTimeout(50*time.Millisecond))
	result := c.Get(context.Background(), "/slow")

	assert.False(t, result.OK())
	assert.Contains(t, result.Error, "failed to send request")
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Get(ctx, "/deck/")
	assert.False(t, result.OK())
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := New("https://api.example.com/", "k")
	assert.Equal(t, "https://api.example.com", c.BaseURL())
	assert.Equal(t, "https://api.example.com/deck/", c.url("deck/"))
}

func TestResult_Decode(t *testing.T) {
	ok := Result{Payload: json.RawMessage(`{"games":[{"idgame":9}]}`)}
	var body struct {
		Games []struct {
			IDGame int `json:"idgame"`
		} `json:"games"`
	}
	require.NoError(t, ok.Decode(&body))
	assert.Equal(t, 9, body.Games[0].IDGame)

	failed := Result{Error: "boom"}
	err := failed.Decode(&body)
	var resultErr *ResultError
	require.ErrorAs(t, err, &resultErr)
	assert.Equal(t, "boom", resultErr.Message)

	data, err := json.Marshal(Result{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
