package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
	tu "github.com/desertthunder/wouldwatch/internal/testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(shared.APIConfig{BaseURL: srv.URL}, tu.StaticTokens{Token: "tok"}, nil, nil)
}

func TestClientDo(t *testing.T) {
	ctx := context.Background()

	t.Run("no token sends nothing", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.NewResponse(http.StatusOK, `{}`), nil)
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tu.StaticTokens{}, &http.Client{Transport: rt}, nil)

		_, err := c.ListRooms(ctx)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, 0, rt.Calls())
	})

	t.Run("token source failure is not authenticated", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.NewResponse(http.StatusOK, `{}`), nil)
		tokens := tu.StaticTokens{Err: errors.New("refresh failed")}
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tokens, &http.Client{Transport: rt}, nil)

		err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, nil)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, 0, rt.Calls())
	})

	t.Run("headers", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.NewResponse(http.StatusOK, `{"rooms":[]}`), nil)
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test/"}, tu.StaticTokens{Token: "abc"}, &http.Client{Transport: rt}, nil)

		_, err := c.ListRooms(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, rt.Calls())

		req := rt.Requests()[0]
		assert.Equal(t, "http://api.test/api/rooms", req.URL.String())
		assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		_, err = uuid.Parse(req.Header.Get("X-Request-Id"))
		assert.NoError(t, err)
	})

	t.Run("rejections are logged with the request id", func(t *testing.T) {
		var logs bytes.Buffer
		rt := tu.NewMockRoundTripper(tu.NewResponse(http.StatusBadGateway, ""), nil)
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tu.StaticTokens{Token: "t"}, &http.Client{Transport: rt}, log.New(&logs))

		err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, nil)
		require.Error(t, err)
		require.Equal(t, 1, rt.Calls())

		out := logs.String()
		assert.Contains(t, out, "request rejected")
		assert.Contains(t, out, "/api/rooms")
		assert.Contains(t, out, rt.Requests()[0].Header.Get("X-Request-Id"))
	})

	t.Run("error body becomes the message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, "You are not a member of this room")
		})

		_, err := c.GetSession(ctx, "s-1")
		require.Error(t, err)
		assert.Equal(t, "You are not a member of this room", err.Error())
		assert.ErrorIs(t, err, shared.ErrRequestFailed)

		var rf *RequestFailed
		require.ErrorAs(t, err, &rf)
		assert.Equal(t, http.StatusForbidden, rf.Status)
	})

	t.Run("empty error body falls back to status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, nil)
		assert.EqualError(t, err, "API request failed: 500")
	})

	t.Run("transport failure is unexpected", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection reset"))
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tu.StaticTokens{Token: "t"}, &http.Client{Transport: rt}, nil)

		err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, nil)
		assert.ErrorIs(t, err, shared.ErrUnexpected)
		assert.NotErrorIs(t, err, shared.ErrRequestFailed)
	})

	t.Run("unreadable body is unexpected", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}
		rt := tu.NewMockRoundTripper(resp, nil)
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tu.StaticTokens{Token: "t"}, &http.Client{Transport: rt}, nil)

		err := c.Do(ctx, http.MethodGet, "/api/rooms", nil, &models.RoomList{})
		assert.ErrorIs(t, err, shared.ErrUnexpected)
	})

	t.Run("invalid JSON is unexpected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "<html>")
		})

		_, err := c.ListRooms(ctx)
		assert.ErrorIs(t, err, shared.ErrUnexpected)
	})

	t.Run("empty success body with output", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		var out models.VoteResult
		require.NoError(t, c.Do(ctx, http.MethodPost, "/api/x", nil, &out))
		assert.False(t, out.Match)
	})

	t.Run("default base URL", func(t *testing.T) {
		c := NewClient(shared.APIConfig{}, tu.StaticTokens{}, nil, nil)
		assert.Equal(t, "http://localhost:8080", c.BaseURL())
	})

	t.Run("rate limit", func(t *testing.T) {
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test", RateLimit: 0.5}, tu.StaticTokens{Token: "t"}, nil, nil)
		require.NotNil(t, c.limiter)
		assert.Equal(t, 1, c.limiter.Burst())

		unlimited := NewClient(shared.APIConfig{BaseURL: "http://api.test"}, tu.StaticTokens{Token: "t"}, nil, nil)
		assert.Nil(t, unlimited.limiter)
	})

	t.Run("rate limit honours context", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(tu.NewResponse(http.StatusOK, `{}`), nil)
		c := NewClient(shared.APIConfig{BaseURL: "http://api.test", RateLimit: 0.001}, tu.StaticTokens{Token: "t"}, &http.Client{Transport: rt}, nil)

		require.NoError(t, c.Do(ctx, http.MethodGet, "/a", nil, nil))

		short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		err := c.Do(short, http.MethodGet, "/b", nil, nil)
		assert.ErrorIs(t, err, shared.ErrUnexpected)
		assert.Equal(t, 1, rt.Calls())
	})
}

func TestRequestFailed(t *testing.T) {
	assert.Equal(t, "nope", (&RequestFailed{Status: 400, Body: " nope\n"}).Error())
	assert.Equal(t, "API request failed: 404", (&RequestFailed{Status: 404}).Error())
	assert.True(t, errors.Is(&RequestFailed{Status: 500}, shared.ErrRequestFailed))
}

func TestShareLink(t *testing.T) {
	assert.Equal(t, "http://localhost:5173/session/abc", ShareLink("http://localhost:5173/", "abc"))
}

func TestEndpoints(t *testing.T) {
	ctx := context.Background()

	type captured struct {
		method string
		uri    string
		body   map[string]any
	}

	serve := func(t *testing.T, status int, response string) (*Client, *[]captured) {
		var calls []captured
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			calls = append(calls, captured{method: r.Method, uri: r.URL.RequestURI(), body: body})
			w.WriteHeader(status)
			io.WriteString(w, response)
		})
		return c, &calls
	}

	t.Run("CreateSession", func(t *testing.T) {
		c, calls := serve(t, http.StatusCreated, `{"id":"s-1","room_id":"r-1","status":"lobby"}`)

		s, err := c.CreateSession(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "s-1", s.ID)
		assert.Equal(t, "lobby", s.Status)
		assert.Equal(t, "POST", (*calls)[0].method)
		assert.Equal(t, "/api/sessions", (*calls)[0].uri)
		assert.Equal(t, "r-1", (*calls)[0].body["room_id"])
	})

	t.Run("CreateSession without room", func(t *testing.T) {
		c, calls := serve(t, http.StatusCreated, `{"id":"s-2"}`)

		_, err := c.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, (*calls)[0].body)
	})

	t.Run("SubmitVote", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{"match":true}`)

		res, err := c.SubmitVote(ctx, "s 1", models.Vote{MediaID: 603, Vote: models.Yes})
		require.NoError(t, err)
		assert.True(t, res.Match)
		assert.Equal(t, "/api/sessions/s%201/vote", (*calls)[0].uri)
		assert.Equal(t, float64(603), (*calls)[0].body["media_id"])
		assert.Equal(t, "yes", (*calls)[0].body["vote"])
	})

	t.Run("SubmitVote requires session", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{}`)
		_, err := c.SubmitVote(ctx, " ", models.Vote{MediaID: 1, Vote: models.No})
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
		assert.Empty(t, *calls)
	})

	t.Run("GetMatches defaults to empty", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{}`)

		matches, err := c.GetMatches(ctx, "s-1")
		require.NoError(t, err)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
		assert.Equal(t, "/api/sessions/s-1/matches", (*calls)[0].uri)
	})

	t.Run("SearchMedia", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{"results":[{"id":1,"title":"Heat"},{"id":2,"title":"Ronin"}]}`)

		movies, err := c.SearchMedia(ctx, "heist & co")
		require.NoError(t, err)
		require.Len(t, movies, 2)
		assert.Equal(t, "Heat", movies[0].Title)
		assert.Equal(t, "/api/media/search?q=heist+%26+co", (*calls)[0].uri)
	})

	t.Run("SearchMedia missing results", func(t *testing.T) {
		c, _ := serve(t, http.StatusOK, `{"page":1}`)
		movies, err := c.SearchMedia(ctx, "x")
		require.NoError(t, err)
		assert.Empty(t, movies)
	})

	t.Run("ListRooms", func(t *testing.T) {
		c, _ := serve(t, http.StatusOK, `{"rooms":[{"id":"r-1","name":"Friday","is_public":true,"member_count":3}]}`)

		rooms, err := c.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, "Friday", rooms[0].Name)
		assert.Equal(t, 3, rooms[0].MemberCount)
	})

	t.Run("CreateRoom", func(t *testing.T) {
		c, calls := serve(t, http.StatusCreated, `{"id":"r-9","name":"Movie Night"}`)

		room, err := c.CreateRoom(ctx, models.CreateRoomRequest{Name: "Movie Night"})
		require.NoError(t, err)
		assert.Equal(t, "r-9", room.ID)
		assert.Equal(t, map[string]any{"name": "Movie Night", "is_public": false}, (*calls)[0].body)
	})

	t.Run("InviteToRoom", func(t *testing.T) {
		c, calls := serve(t, http.StatusNoContent, ``)

		require.NoError(t, c.InviteToRoom(ctx, "r-1", "u-2"))
		assert.Equal(t, "/api/rooms/r-1/invite", (*calls)[0].uri)
		assert.Equal(t, "u-2", (*calls)[0].body["user_id"])
	})

	t.Run("GetProfile normalizes", func(t *testing.T) {
		c, _ := serve(t, http.StatusOK, `{"username":"kit"}`)

		p, err := c.GetProfile(ctx)
		require.NoError(t, err)
		assert.Equal(t, "kit", p.Username)
		assert.Equal(t, models.InviteEveryone, p.InvitePreference)
	})

	t.Run("UpdateProfile and privacy", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{}`)

		require.NoError(t, c.UpdateProfile(ctx, models.Profile{Username: "kit", InvitePreference: models.InviteFollowing}))
		require.NoError(t, c.UpdatePrivacy(ctx, models.InviteNone))

		assert.Equal(t, "PUT", (*calls)[0].method)
		assert.Equal(t, "/api/me/profile", (*calls)[0].uri)
		assert.Equal(t, "following", (*calls)[0].body["invite_preference"])
		assert.Equal(t, "/api/me/privacy", (*calls)[1].uri)
		assert.Equal(t, map[string]any{"invite_preference": "none"}, (*calls)[1].body)
	})

	t.Run("Social", func(t *testing.T) {
		c, calls := serve(t, http.StatusOK, `{"users":[{"id":"u-1","email":"a@example.com"}],"following":[{"id":"u-2"}]}`)

		users, err := c.SearchUsers(ctx, "a")
		require.NoError(t, err)
		assert.Len(t, users, 1)

		following, err := c.Following(ctx)
		require.NoError(t, err)
		assert.Len(t, following, 1)

		followers, err := c.Followers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, followers)
		assert.Empty(t, followers)

		require.NoError(t, c.Follow(ctx, "u-1"))
		require.NoError(t, c.Unfollow(ctx, "u-1"))

		n := len(*calls)
		assert.Equal(t, "POST", (*calls)[n-2].method)
		assert.Equal(t, "/api/follows/u-1", (*calls)[n-2].uri)
		assert.Equal(t, "DELETE", (*calls)[n-1].method)
	})
}
