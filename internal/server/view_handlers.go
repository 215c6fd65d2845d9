package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uptome-dev/uptome/internal/client"
	"github.com/uptome-dev/uptome/internal/longtask"
	"github.com/uptome-dev/uptome/internal/party"
)

// CreateDeckRequest represents a deck creation request
type CreateDeckRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateCardRequest represents a card creation request
type CreateCardRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Deck        int    `json:"deck" binding:"min=0"`
}

// StartGameRequest represents a game creation request
type StartGameRequest struct {
	Deck         int   `json:"deck" binding:"required,min=1"`
	Participants []int `json:"participants"`
}

// FriendRequest names the user a friendship is requested from
type FriendRequest struct {
	Username string `json:"username" binding:"required"`
}

// GameResponse is a game with the caller's cards grouped by pile
type GameResponse struct {
	Game  party.Game                      `json:"game"`
	Piles map[party.Pile][]party.GameCard `json:"piles"`
}

// call runs a backend call bound to the request, logging when it is slow.
func (s *Server) call(c *gin.Context, fn func(ctx context.Context) error) error {
	onSlow := func() {
		s.logger.Warn().
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("Backend call is taking longer than expected")
	}
	return longtask.Do(c.Request.Context(), s.config.API.SlowAfter, onSlow, fn)
}

// callOnce is call for write actions. A repeat of the same action by the
// same user while the first is still running fails with longtask.ErrBusy.
// The entry is dropped once the call that created it returns.
func (s *Server) callOnce(c *gin.Context, action string, fn func(ctx context.Context) error) error {
	key := action + ":" + externalID(c)
	guarded := &longtask.Guarded{}
	value, loaded := s.inflight.LoadOrStore(key, guarded)
	if !loaded {
		defer s.inflight.CompareAndDelete(key, guarded)
	}

	var err error
	_, busy := value.(*longtask.Guarded).Run(c.Request.Context(), func(context.Context) client.Result {
		err = s.call(c, fn)
		return client.Result{}
	})
	if busy != nil {
		return busy
	}
	return err
}

// externalID is the caller's id on routes behind requireRoles.
func externalID(c *gin.Context) string {
	identity, ok := GetIdentity(c)
	if !ok {
		return ""
	}
	return identity.ExternalUserID
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// @Summary List decks
// @Description Shared decks plus the caller's own
// @Tags decks
// @Produce json
// @Router /decks [get]
func (s *Server) listDecks(c *gin.Context) {
	s.renderDecks(c, externalID(c))
}

// listSharedDecks is the signed-out form of listDecks.
func (s *Server) listSharedDecks(c *gin.Context) {
	s.renderDecks(c, "")
}

func (s *Server) renderDecks(c *gin.Context, extID string) {
	var decks []party.Deck
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		decks, callErr = s.party.ListDecks(ctx, extID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if decks == nil {
		decks = []party.Deck{}
	}

	c.JSON(http.StatusOK, gin.H{
		"decks":     decks,
		"signed_in": extID != "",
	})
}

// @Summary Create deck
// @Tags decks
// @Accept json
// @Param request body CreateDeckRequest true "Deck"
// @Router /decks [post]
func (s *Server) createDeck(c *gin.Context) {
	extID := externalID(c)
	var req CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp *party.Success
	err := s.callOnce(c, "create-deck", func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.party.CreateDeck(ctx, extID, req.Title, req.Description)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) deleteDeck(c *gin.Context) {
	id, ok := paramID(c, "iddeck")
	if !ok {
		return
	}

	if err := s.call(c, func(ctx context.Context) error {
		return s.party.DeleteDeck(ctx, id)
	}); err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary List cards
// @Description Cards visible to the visitor, optionally limited to one deck
// @Tags cards
// @Produce json
// @Param iddeck path int false "Deck id"
// @Router /cards/{iddeck} [get]
func (s *Server) listCards(c *gin.Context) {
	deckID := 0
	if c.Param("iddeck") != "" {
		id, ok := paramID(c, "iddeck")
		if !ok {
			return
		}
		deckID = id
	}

	extID := ""
	if identity := s.optionalIdentity(c); identity != nil {
		extID = identity.ExternalUserID
	}

	var cards []party.Card
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		cards, callErr = s.party.ListCards(ctx, extID, deckID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if cards == nil {
		cards = []party.Card{}
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (s *Server) createCard(c *gin.Context) {
	extID := externalID(c)
	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp *party.Success
	err := s.callOnce(c, "create-card", func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.party.CreateCard(ctx, extID, req.Title, req.Description, req.Deck)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) deleteCard(c *gin.Context) {
	id, ok := paramID(c, "idcard")
	if !ok {
		return
	}

	if err := s.call(c, func(ctx context.Context) error {
		return s.party.DeleteCard(ctx, id)
	}); err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Start game view
// @Description Decks a game can be started with and the friends to invite
// @Tags games
// @Produce json
// @Router /startgame [get]
func (s *Server) startGameView(c *gin.Context) {
	extID := externalID(c)

	var decks []party.Deck
	var friendships *party.Friendships
	err := s.call(c, func(ctx context.Context) error {
		var err error
		if decks, err = s.party.ListPlayableDecks(ctx, extID); err != nil {
			return err
		}
		friendships, err = s.party.ListFriendships(ctx, extID)
		return err
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if decks == nil {
		decks = []party.Deck{}
	}

	friends := []party.Friend{}
	for _, f := range friendships.Friends {
		if f.Accepted {
			friends = append(friends, f)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"decks":   decks,
		"friends": friends,
	})
}

// @Summary Start game
// @Tags games
// @Accept json
// @Param request body StartGameRequest true "Game"
// @Router /startgame [post]
func (s *Server) startGame(c *gin.Context) {
	extID := externalID(c)
	var req StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp *party.Success
	err := s.callOnce(c, "start-game", func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.party.StartGame(ctx, extID, req.Deck, req.Participants)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary My games
// @Tags games
// @Produce json
// @Router /games [get]
func (s *Server) listGames(c *gin.Context) {
	extID := externalID(c)
	var games []party.GameSummary
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		games, callErr = s.party.ListGames(ctx, extID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if games == nil {
		games = []party.GameSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}

// @Summary Game
// @Tags games
// @Produce json
// @Param idgame path int true "Game id"
// @Success 200 {object} GameResponse
// @Router /games/{idgame} [get]
func (s *Server) getGame(c *gin.Context) {
	extID := externalID(c)
	id, ok := paramID(c, "idgame")
	if !ok {
		return
	}

	var info *party.GameInfo
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		info, callErr = s.party.GetGame(ctx, extID, id)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, GameResponse{Game: info.Game, Piles: info.Piles()})
}

func (s *Server) acceptGame(c *gin.Context) {
	extID := externalID(c)
	id, ok := paramID(c, "idgame")
	if !ok {
		return
	}

	var resp *party.Success
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		resp, callErr = s.party.AcceptGame(ctx, extID, id)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteGame(c *gin.Context) {
	id, ok := paramID(c, "idgame")
	if !ok {
		return
	}

	if err := s.call(c, func(ctx context.Context) error {
		return s.party.DeleteGame(ctx, id)
	}); err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary User page
// @Description The caller's profile and statistics
// @Tags users
// @Produce json
// @Router /user [get]
func (s *Server) userView(c *gin.Context) {
	extID := externalID(c)
	var user *party.AppUser
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		user, callErr = s.party.GetAppUser(ctx, extID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	identity, _ := GetIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"roles": identity.Roles,
	})
}

func (s *Server) listFriends(c *gin.Context) {
	extID := externalID(c)
	var friendships *party.Friendships
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		friendships, callErr = s.party.ListFriendships(ctx, extID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, friendships)
}

func (s *Server) requestFriend(c *gin.Context) {
	extID := externalID(c)
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.callOnce(c, "request-friend", func(ctx context.Context) error {
		return s.party.RequestFriendship(ctx, extID, req.Username)
	}); err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) acceptFriend(c *gin.Context) {
	extID := externalID(c)
	username := c.Param("username")

	if err := s.call(c, func(ctx context.Context) error {
		return s.party.AcceptFriendship(ctx, extID, username)
	}); err != nil {
		s.respondBackendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) searchUsers(c *gin.Context) {
	extID := externalID(c)
	term := c.Query("term")
	if term == "" {
		c.JSON(http.StatusOK, gin.H{"appusers": []party.UserMatch{}})
		return
	}

	var matches []party.UserMatch
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		matches, callErr = s.party.SearchAppUsers(ctx, extID, term)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if matches == nil {
		matches = []party.UserMatch{}
	}

	c.JSON(http.StatusOK, gin.H{"appusers": matches})
}

// @Summary Admin page
// @Description Every shared deck with its cards
// @Tags admin
// @Produce json
// @Router /admin [get]
func (s *Server) adminView(c *gin.Context) {
	extID := externalID(c)
	var decks []party.Deck
	err := s.call(c, func(ctx context.Context) error {
		var callErr error
		decks, callErr = s.party.DecksWithCards(ctx, extID)
		return callErr
	})
	if err != nil {
		s.respondBackendError(c, err)
		return
	}
	if decks == nil {
		decks = []party.Deck{}
	}

	c.JSON(http.StatusOK, gin.H{"decks": decks})
}
