package party

import (
	"context"
	"net/url"
	"strconv"
)

// Deck represents a deck of cards
type Deck struct {
	IDDeck      int    `json:"iddeck"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// UserDeck is true when the deck belongs to the caller rather than
	// being one of the shared decks.
	UserDeck bool   `json:"userdeck"`
	Cards    []Card `json:"cards,omitempty"`
}

// CreateDeckRequest represents the deck creation request
type CreateDeckRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ExternalID  string `json:"external_id"`
}

type decksResponse struct {
	Decks []Deck `json:"decks"`
}

// ListDecks returns the shared decks plus the caller's own. An empty
// externalID lists only the shared decks.
func (s *Service) ListDecks(ctx context.Context, externalID string) ([]Deck, error) {
	params := url.Values{}
	if externalID != "" {
		params.Set("external_id", externalID)
	}
	resp, err := decode[decksResponse](s.api.Get(ctx, withQuery("/deck/", params)))
	if err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

// ListPlayableDecks returns the decks a game can be started with.
func (s *Service) ListPlayableDecks(ctx context.Context, externalID string) ([]Deck, error) {
	params := url.Values{"external_id": {externalID}}
	resp, err := decode[decksResponse](s.api.Get(ctx, withQuery("/decks/", params)))
	if err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

// DecksWithCards returns every shared deck with its cards. The backend
// only answers this for admins.
func (s *Service) DecksWithCards(ctx context.Context, externalID string) ([]Deck, error) {
	params := url.Values{"external_id": {externalID}}
	resp, err := decode[decksResponse](s.api.Get(ctx, withQuery("/decks/cards", params)))
	if err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

// CreateDeck creates a deck owned by the caller.
func (s *Service) CreateDeck(ctx context.Context, externalID, title, description string) (*Success, error) {
	req := CreateDeckRequest{Title: title, Description: description, ExternalID: externalID}
	resp, err := decode[Success](s.api.Post(ctx, "/deck/", req))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteDeck deletes a deck by id.
func (s *Service) DeleteDeck(ctx context.Context, deckID int) error {
	params := url.Values{"iddeck": {strconv.Itoa(deckID)}}
	return s.api.Delete(ctx, withQuery("/deck/", params)).Err()
}
