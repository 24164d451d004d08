package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}

// CreateSession starts a voting session, optionally inside roomID.
func (c *Client) CreateSession(ctx context.Context, roomID string) (*models.VotingSession, error) {
	var body any
	if roomID != "" {
		body = models.CreateSessionRequest{RoomID: roomID}
	}

	var session models.VotingSession
	if err := c.Do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches session metadata.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.VotingSession, error) {
	if err := requireID("session id", sessionID); err != nil {
		return nil, err
	}

	var session models.VotingSession
	if err := c.Do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SubmitVote records a vote. The result reports whether it completed a match.
func (c *Client) SubmitVote(ctx context.Context, sessionID string, vote models.Vote) (*models.VoteResult, error) {
	if err := requireID("session id", sessionID); err != nil {
		return nil, err
	}

	var result models.VoteResult
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/vote"
	if err := c.Do(ctx, http.MethodPost, path, vote, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMatches fetches the session's matches. A missing list is empty.
func (c *Client) GetMatches(ctx context.Context, sessionID string) ([]models.Match, error) {
	if err := requireID("session id", sessionID); err != nil {
		return nil, err
	}

	var list models.MatchList
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/matches"
	if err := c.Do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// SearchMedia searches movies by title. A missing result list is empty.
func (c *Client) SearchMedia(ctx context.Context, query string) ([]models.Movie, error) {
	var results models.SearchResults
	path := "/api/media/search?q=" + url.QueryEscape(query)
	if err := c.Do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results.Items(), nil
}

// ListRooms fetches the rooms the user belongs to.
func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	var list models.RoomList
	if err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// CreateRoom creates a room. The name is sent as given; trimming is the caller's job.
func (c *Client) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error) {
	var room models.Room
	if err := c.Do(ctx, http.MethodPost, "/api/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// InviteToRoom adds userID to roomID.
func (c *Client) InviteToRoom(ctx context.Context, roomID, userID string) error {
	if err := requireID("room id", roomID); err != nil {
		return err
	}
	if err := requireID("user id", userID); err != nil {
		return err
	}

	path := "/api/rooms/" + url.PathEscape(roomID) + "/invite"
	return c.Do(ctx, http.MethodPost, path, models.InviteRequest{UserID: userID}, nil)
}

// GetProfile fetches the caller's profile with defaults applied.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.Do(ctx, http.MethodGet, "/api/me/profile", nil, &profile); err != nil {
		return nil, err
	}
	p := profile.Normalized()
	return &p, nil
}

// UpdateProfile saves username and invite preference.
func (c *Client) UpdateProfile(ctx context.Context, profile models.Profile) error {
	return c.Do(ctx, http.MethodPut, "/api/me/profile", profile, nil)
}

// UpdatePrivacy saves only the invite preference.
func (c *Client) UpdatePrivacy(ctx context.Context, pref models.InvitePreference) error {
	return c.Do(ctx, http.MethodPut, "/api/me/privacy", models.PrivacyRequest{InvitePreference: pref}, nil)
}

// SearchUsers searches other users by name or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	var list models.UserList
	path := "/api/users/search?q=" + url.QueryEscape(query)
	if err := c.Do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return nonNil(list.Users), nil
}

// Follow follows userID.
func (c *Client) Follow(ctx context.Context, userID string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPost, "/api/follows/"+url.PathEscape(userID), nil, nil)
}

// Unfollow stops following userID.
func (c *Client) Unfollow(ctx context.Context, userID string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	return c.Do(ctx, http.MethodDelete, "/api/follows/"+url.PathEscape(userID), nil, nil)
}

// Following lists the users the caller follows.
func (c *Client) Following(ctx context.Context) ([]models.UserSummary, error) {
	var list models.UserList
	if err := c.Do(ctx, http.MethodGet, "/api/me/following", nil, &list); err != nil {
		return nil, err
	}
	return nonNil(list.Following), nil
}

// Followers lists the users following the caller.
func (c *Client) Followers(ctx context.Context) ([]models.UserSummary, error) {
	var list models.UserList
	if err := c.Do(ctx, http.MethodGet, "/api/me/followers", nil, &list); err != nil {
		return nil, err
	}
	return nonNil(list.Followers), nil
}

func nonNil(users []models.UserSummary) []models.UserSummary {
	if users == nil {
		return []models.UserSummary{}
	}
	return users
}
