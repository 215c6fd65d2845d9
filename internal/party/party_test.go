package party

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptome-dev/uptome/internal/client"
)

type call struct {
	Method string
	Path   string
	Body   any
}

// fakeAPI records calls and answers with a canned result per path.
type fakeAPI struct {
	calls     []call
	responses map[string]client.Result
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: make(map[string]client.Result)}
}

func (f *fakeAPI) respond(path, payload string) {
	f.responses[path] = client.Result{Payload: json.RawMessage(payload)}
}

func (f *fakeAPI) fail(path, msg string) {
	f.responses[path] = client.Result{Error: msg}
}

func (f *fakeAPI) record(method, path string, body any) client.Result {
	f.calls = append(f.calls, call{Method: method, Path: path, Body: body})
	if r, ok := f.responses[path]; ok {
		return r
	}
	return client.Result{Payload: json.RawMessage(`{"success":true}`)}
}

func (f *fakeAPI) Get(_ context.Context, path string) client.Result {
	return f.record(http.MethodGet, path, nil)
}

func (f *fakeAPI) Put(_ context.Context, path string, body any) client.Result {
	return f.record(http.MethodPut, path, body)
}

func (f *fakeAPI) Post(_ context.Context, path string, body any) client.Result {
	return f.record(http.MethodPost, path, body)
}

func (f *fakeAPI) Delete(_ context.Context, path string) client.Result {
	return f.record(http.MethodDelete, path, nil)
}

func TestListDecks(t *testing.T) {
	api := newFakeAPI()
	api.respond("/deck/?external_id=u1", `{"decks":[{"iddeck":1,"title":"Classics","description":"d","userdeck":false},{"iddeck":2,"title":"Mine","description":"","userdeck":true}]}`)
	api.respond("/deck/", `{"decks":[{"iddeck":1,"title":"Classics"}]}`)
	svc := NewService(api)

	decks, err := svc.ListDecks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.True(t, decks[1].UserDeck)

	public, err := svc.ListDecks(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, public, 1)
}

func TestListDecks_ErrorResult(t *testing.T) {
	api := newFakeAPI()
	api.fail("/deck/?external_id=u1", "boom")

	_, err := NewService(api).ListDecks(context.Background(), "u1")

	var resultErr *client.ResultError
	require.ErrorAs(t, err, &resultErr)
	assert.Equal(t, "boom", resultErr.Message)
}

func TestCardsCalls(t *testing.T) {
	api := newFakeAPI()
	api.respond("/card/?external_id=u1&iddeck=4", `{"cards":[{"idcard":9,"title":"Sing","description":"a song","usercard":true}]}`)
	svc := NewService(api)
	ctx := context.Background()

	cards, err := svc.ListCards(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, []Card{{IDCard: 9, Title: "Sing", Description: "a song", UserCard: true}}, cards)

	_, err = svc.CreateCard(ctx, "u1", "Dance", "", 0)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCard(ctx, 9))

	require.Len(t, api.calls, 3)
	created := api.calls[1].Body.(CreateCardRequest)
	assert.Nil(t, created.Deck)
	assert.Equal(t, "u1", created.ExternalID)
	assert.Equal(t, call{Method: http.MethodDelete, Path: "/card/?idcard=9"}, api.calls[2])
}

func TestGameCalls(t *testing.T) {
	api := newFakeAPI()
	svc := NewService(api)
	ctx := context.Background()

	_, err := svc.StartGame(ctx, "u1", 3, nil)
	require.NoError(t, err)
	_, err = svc.AcceptGame(ctx, "u1", 12)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteGame(ctx, 12))

	assert.Equal(t, StartGameRequest{ExternalID: "u1", Deck: 3, Participants: []int{}}, api.calls[0].Body)
	assert.Equal(t, http.MethodPut, api.calls[1].Method)
	assert.Equal(t, "/game/accept", api.calls[1].Path)
	assert.Equal(t, AcceptGameRequest{ExternalID: "u1", Game: 12}, api.calls[1].Body)
	assert.Equal(t, "/game/?idgame=12", api.calls[2].Path)
}

func TestGetGame_Piles(t *testing.T) {
	api := newFakeAPI()
	api.respond("/game/5?external_id=u1", `{
		"game": {"idgame":5,"deck":2,"wildcards_count":1,"skips_count":2,
			"participants":{"bob":{"name":"bob","accepted":true,"skips_left":2}}},
		"cards": [
			{"idgame_card":1,"title":"a","played_time":"","finished_time":""},
			{"idgame_card":2,"title":"b","played_time":"2024-01-01 10:00","finished_time":""},
			{"idgame_card":3,"title":"c","played_time":"2024-01-01 10:00","finished_time":"2024-01-01 10:05"},
			{"idgame_card":4,"title":"d","played_time":"","finished_time":""}
		]
	}`)

	info, err := NewService(api).GetGame(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Game.SkipsCount)
	assert.True(t, info.Game.Participants["bob"].Accepted)

	piles := info.Piles()
	assert.Len(t, piles[PileToPlay], 2)
	assert.Len(t, piles[PileInPlay], 1)
	assert.Len(t, piles[PileDone], 1)
	assert.Equal(t, 4, piles[PileToPlay][1].IDGameCard)
}

func TestFriendsAndUsers(t *testing.T) {
	api := newFakeAPI()
	api.respond("/friendships/?external_id=u1", `{"pending":[{"username":"carol"}],"friends":[{"username":"bob","accepted":true}]}`)
	api.respond("/appuser/search?external_id=u1&term=bo", `{"appusers":[{"idappuser":7,"username":"bob","friend":true}]}`)
	api.respond("/appuser/?external_id=u1", `{"idappuser":1,"username":"alice","email":"a@x.com","firstname":"Alice","lastname":"A","onesignal_id":null,"statistics":{"games":3}}`)
	svc := NewService(api)
	ctx := context.Background()

	friendships, err := svc.ListFriendships(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "carol", friendships.Pending[0].Username)
	assert.True(t, friendships.Friends[0].Accepted)

	matches, err := svc.SearchAppUsers(ctx, "u1", "bo")
	require.NoError(t, err)
	assert.Equal(t, 7, matches[0].IDAppUser)

	user, err := svc.GetAppUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.OneSignalID)

	require.NoError(t, svc.RequestFriendship(ctx, "u1", "dave"))
	require.NoError(t, svc.AcceptFriendship(ctx, "u1", "carol"))
	assert.Equal(t, FriendshipRequest{ExternalID: "u1", Username: "carol"}, api.calls[len(api.calls)-1].Body)
}

func TestService_ThroughRealClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get(client.APIKeyHeader))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/deck/":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"title":"Road trip","description":"car games","external_id":"u1"}`, string(body))
			w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/deck/":
			assert.Equal(t, "8", r.URL.Query().Get("iddeck"))
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Database error"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := NewService(client.New(srv.URL, "key"))

	ok, err := svc.CreateDeck(context.Background(), "u1", "Road trip", "car games")
	require.NoError(t, err)
	assert.True(t, ok.Success)

	err = svc.DeleteDeck(context.Background(), 8)
	assert.EqualError(t, err, "Database error")
}
