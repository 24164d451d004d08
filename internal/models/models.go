package models

import (
	"fmt"
	"strings"
	"time"
)

// PosterBaseURL prefixes a movie's poster path.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// Direction is a yes/no vote.
type Direction string

const (
	Yes Direction = "yes"
	No  Direction = "no"
)

// ParseDirection accepts "yes"/"no" and the y/n shorthands.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return Yes, nil
	case "no", "n":
		return No, nil
	}
	return "", fmt.Errorf("invalid vote %q: want yes or no", s)
}

// Room is a group container under which voting sessions occur.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
}

// CreateRoomRequest is the body of POST /api/rooms.
type CreateRoomRequest struct {
	Name           string   `json:"name"`
	IsPublic       bool     `json:"is_public"`
	InitialMembers []string `json:"initial_members,omitempty"`
}

// RoomList is the GET /api/rooms envelope.
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Items returns the rooms, never nil.
func (l *RoomList) Items() []Room {
	if l == nil || l.Rooms == nil {
		return []Room{}
	}
	return l.Rooms
}

// InviteRequest is the body of POST /api/rooms/{id}/invite.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// VotingSession is a bounded voting activity.
//
// Status is defined by the backend (lobby/active/closed) and treated as opaque.
type VotingSession struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSessionRequest is the optional body of POST /api/sessions.
type CreateSessionRequest struct {
	RoomID string `json:"room_id,omitempty"`
}

// Movie is a voting candidate.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

// PosterURL returns the full poster URL, or "" when the movie has none.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return PosterBaseURL + m.PosterPath
}

// Year extracts the release year from the release date, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	if t, err := time.Parse("2006-01-02", m.ReleaseDate); err == nil {
		return fmt.Sprint(t.Year())
	}
	return m.ReleaseDate[:4]
}

// Synopsis returns the overview or a placeholder.
func (m Movie) Synopsis() string {
	if m.Overview == "" {
		return "No description available."
	}
	return m.Overview
}

// SearchResults is the GET /api/media/search envelope.
type SearchResults struct {
	Results []Movie `json:"results"`
}

// Items returns the results, never nil.
func (r *SearchResults) Items() []Movie {
	if r == nil || r.Results == nil {
		return []Movie{}
	}
	return r.Results
}

// Vote is the body of POST /api/sessions/{id}/vote.
type Vote struct {
	MediaID int64     `json:"media_id"`
	Vote    Direction `json:"vote"`
}

// VoteResult is the vote response; Match is set when the backend declares a mutual yes.
type VoteResult struct {
	Match bool `json:"match"`
}

// Match is a movie every participant agreed on.
type Match struct {
	Movie
	MatchedAt *time.Time `json:"matched_at,omitempty"`
}

// MatchList is the GET /api/sessions/{id}/matches envelope.
type MatchList struct {
	Matches []Match `json:"matches"`
}

// Items returns the matches, never nil.
func (l *MatchList) Items() []Match {
	if l == nil || l.Matches == nil {
		return []Match{}
	}
	return l.Matches
}
