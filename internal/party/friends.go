package party

import (
	"context"
	"net/url"
)

// Friend is one friendship of the caller.
type Friend struct {
	Username string `json:"username"`
	Accepted bool   `json:"accepted"`
}

// Friendships is the caller's friend list. Pending holds requests waiting
// for the caller's answer; Friends also lists requests the caller sent that
// are not accepted yet.
type Friendships struct {
	Pending []Friend `json:"pending"`
	Friends []Friend `json:"friends"`
}

// FriendshipRequest is the body of friendship create/accept calls.
type FriendshipRequest struct {
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
}

// ListFriendships returns the caller's friendships.
func (s *Service) ListFriendships(ctx context.Context, externalID string) (*Friendships, error) {
	params := url.Values{"external_id": {externalID}}
	resp, err := decode[Friendships](s.api.Get(ctx, withQuery("/friendships/", params)))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestFriendship sends a friend request to username.
func (s *Service) RequestFriendship(ctx context.Context, externalID, username string) error {
	req := FriendshipRequest{ExternalID: externalID, Username: username}
	return s.api.Post(ctx, "/friendship/create", req).Err()
}

// AcceptFriendship accepts the pending request from username.
func (s *Service) AcceptFriendship(ctx context.Context, externalID, username string) error {
	req := FriendshipRequest{ExternalID: externalID, Username: username}
	return s.api.Put(ctx, "/friendship/accept", req).Err()
}
