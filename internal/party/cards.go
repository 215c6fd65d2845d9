package party

import (
	"context"
	"net/url"
	"strconv"
)

// Card represents a card that can be placed in decks
type Card struct {
	IDCard      int    `json:"idcard"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserCard    bool   `json:"usercard"`
}

// CreateCardRequest represents the card creation request
type CreateCardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ExternalID  string `json:"external_id,omitempty"`
	Deck        *int   `json:"deck,omitempty"`
}

type cardsResponse struct {
	Cards []Card `json:"cards"`
}

// ListCards returns the cards visible to the caller, optionally limited to
// one deck (deckID > 0).
func (s *Service) ListCards(ctx context.Context, externalID string, deckID int) ([]Card, error) {
	params := url.Values{}
	if externalID != "" {
		params.Set("external_id", externalID)
	}
	if deckID > 0 {
		params.Set("iddeck", strconv.Itoa(deckID))
	}
	resp, err := decode[cardsResponse](s.api.Get(ctx, withQuery("/card/", params)))
	if err != nil {
		return nil, err
	}
	return resp.Cards, nil
}

// CreateCard creates a card owned by the caller. deckID <= 0 creates a
// card outside any deck.
func (s *Service) CreateCard(ctx context.Context, externalID, title, description string, deckID int) (*Success, error) {
	req := CreateCardRequest{Title: title, Description: description, ExternalID: externalID}
	if deckID > 0 {
		req.Deck = &deckID
	}
	resp, err := decode[Success](s.api.Post(ctx, "/card/", req))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteCard deletes a card by id.
func (s *Service) DeleteCard(ctx context.Context, cardID int) error {
	params := url.Values{"idcard": {strconv.Itoa(cardID)}}
	return s.api.Delete(ctx, withQuery("/card/", params)).Err()
}
