package party

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GameSummary is one entry of the caller's game list.
type GameSummary struct {
	IDGame       int      `json:"idgame"`
	CreatedTime  string   `json:"createdtime"`
	Owner        string   `json:"appuser"`
	Deck         string   `json:"deck"`
	Accepted     bool     `json:"accepted"`
	Participants []string `json:"participants"`
}

// GameParticipant is the per-player state of a game.
type GameParticipant struct {
	Name      string `json:"name"`
	Accepted  bool   `json:"accepted"`
	SkipsLeft int    `json:"skips_left"`
}

// Game represents a game with its settings
type Game struct {
	IDGame         int                        `json:"idgame"`
	CreatedTime    string                     `json:"createdtime"`
	UpdatedTime    string                     `json:"updatedtime"`
	AppUser        int                        `json:"appuser"`
	Deck           int                        `json:"deck"`
	Participants   map[string]GameParticipant `json:"participants"`
	Started        bool                       `json:"started"`
	WildcardsCount int                        `json:"wildcards_count"`
	SkipsCount     int                        `json:"skips_count"`
}

// GameCard is a card dealt to a player in a game.
type GameCard struct {
	IDGameCard    int    `json:"idgame_card"`
	Game          int    `json:"game"`
	Player        int    `json:"player"`
	Performer     *int   `json:"performer"`
	PerformerName string `json:"performer_name"`
	Wildcard      bool   `json:"wildcard"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PlayedTime    string `json:"played_time"`
	FinishedTime  string `json:"finished_time"`
	Card          *int   `json:"card"`
	MyCard        bool   `json:"mycard"`
}

// Pile is where a game card currently sits.
type Pile string

const (
	PileToPlay Pile = "to_play"
	PileInPlay Pile = "in_play"
	PileDone   Pile = "done"
)

// Pile derives the card's pile from its played and finished times.
func (c GameCard) Pile() Pile {
	switch {
	case c.FinishedTime != "":
		return PileDone
	case c.PlayedTime != "":
		return PileInPlay
	default:
		return PileToPlay
	}
}

// GameInfo is a game with the caller's cards.
type GameInfo struct {
	Game  Game       `json:"game"`
	Cards []GameCard `json:"cards"`
}

// Piles groups the caller's cards by pile, keeping backend order.
func (g *GameInfo) Piles() map[Pile][]GameCard {
	piles := map[Pile][]GameCard{
		PileToPlay: {},
		PileInPlay: {},
		PileDone:   {},
	}
	for _, card := range g.Cards {
		piles[card.Pile()] = append(piles[card.Pile()], card)
	}
	return piles
}

// StartGameRequest represents the game creation request
type StartGameRequest struct {
	ExternalID   string `json:"external_id"`
	Deck         int    `json:"deck"`
	Participants []int  `json:"participants"`
}

// AcceptGameRequest represents the game invitation acceptance request
type AcceptGameRequest struct {
	ExternalID string `json:"external_id"`
	Game       int    `json:"game"`
}

type gamesResponse struct {
	Games []GameSummary `json:"games"`
}

// ListGames returns the games the caller takes part in.
func (s *Service) ListGames(ctx context.Context, externalID string) ([]GameSummary, error) {
	params := url.Values{"external_id": {externalID}}
	resp, err := decode[gamesResponse](s.api.Get(ctx, withQuery("/games/", params)))
	if err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// GetGame returns a game and the caller's cards in it.
func (s *Service) GetGame(ctx context.Context, externalID string, gameID int) (*GameInfo, error) {
	params := url.Values{"external_id": {externalID}}
	path := withQuery(fmt.Sprintf("/game/%d", gameID), params)
	info, err := decode[GameInfo](s.api.Get(ctx, path))
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// StartGame creates a game on deckID with the given participants. The
// caller joins automatically.
func (s *Service) StartGame(ctx context.Context, externalID string, deckID int, participants []int) (*Success, error) {
	if participants == nil {
		participants = []int{}
	}
	req := StartGameRequest{ExternalID: externalID, Deck: deckID, Participants: participants}
	resp, err := decode[Success](s.api.Post(ctx, "/game/", req))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AcceptGame accepts an invitation to gameID.
func (s *Service) AcceptGame(ctx context.Context, externalID string, gameID int) (*Success, error) {
	req := AcceptGameRequest{ExternalID: externalID, Game: gameID}
	resp, err := decode[Success](s.api.Put(ctx, "/game/accept", req))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteGame removes a game, which is how a player resigns.
func (s *Service) DeleteGame(ctx context.Context, gameID int) error {
	params := url.Values{"idgame": {strconv.Itoa(gameID)}}
	return s.api.Delete(ctx, withQuery("/game/", params)).Err()
}
