package party

import (
	"context"
	"net/url"
)

// AppUser represents the caller's profile
type AppUser struct {
	IDAppUser   int            `json:"idappuser"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FirstName   string         `json:"firstname"`
	LastName    string         `json:"lastname"`
	OneSignalID string         `json:"onesignal_id,omitempty"`
	Statistics  map[string]any `json:"statistics,omitempty"`
}

// UserMatch is a search hit. Friend is true when the hit is already a
// friend of the caller.
type UserMatch struct {
	IDAppUser int    `json:"idappuser"`
	Username  string `json:"username"`
	Friend    bool   `json:"friend"`
}

type userSearchResponse struct {
	AppUsers []UserMatch `json:"appusers"`
}

// GetAppUser returns the caller's profile. The backend creates it on
// first access.
func (s *Service) GetAppUser(ctx context.Context, externalID string) (*AppUser, error) {
	params := url.Values{"external_id": {externalID}}
	user, err := decode[AppUser](s.api.Get(ctx, withQuery("/appuser/", params)))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchAppUsers finds other users whose username starts with term.
func (s *Service) SearchAppUsers(ctx context.Context, externalID, term string) ([]UserMatch, error) {
	params := url.Values{"term": {term}, "external_id": {externalID}}
	resp, err := decode[userSearchResponse](s.api.Get(ctx, withQuery("/appuser/search", params)))
	if err != nil {
		return nil, err
	}
	return resp.AppUsers, nil
}
