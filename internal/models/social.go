package models

import "fmt"

// InvitePreference controls who may invite the user to rooms.
type InvitePreference string

const (
	InviteEveryone  InvitePreference = "everyone"
	InviteFollowing InvitePreference = "following"
	InviteNone      InvitePreference = "none"
)

// InvitePreferences lists the accepted values in display order.
var InvitePreferences = []InvitePreference{InviteEveryone, InviteFollowing, InviteNone}

// Label is the human readable form of the preference.
func (p InvitePreference) Label() string {
	switch p {
	case InviteFollowing:
		return "People I Follow"
	case InviteNone:
		return "No One"
	default:
		return "Everyone"
	}
}

// ParseInvitePreference validates s, defaulting "" to everyone.
func ParseInvitePreference(s string) (InvitePreference, error) {
	if s == "" {
		return InviteEveryone, nil
	}
	for _, p := range InvitePreferences {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid invite preference %q", s)
}

// Profile is the GET/PUT /api/me/profile body.
type Profile struct {
	Username         string           `json:"username"`
	InvitePreference InvitePreference `json:"invite_preference"`
}

// Normalized fills defaults the backend may omit for a fresh profile.
func (p Profile) Normalized() Profile {
	if p.InvitePreference == "" {
		p.InvitePreference = InviteEveryone
	}
	return p
}

// PrivacyRequest is the PUT /api/me/privacy body.
type PrivacyRequest struct {
	InvitePreference InvitePreference `json:"invite_preference"`
}

// UserSummary is an entry in user search results and follow lists.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	IsFollowing bool   `json:"is_following"`
}

// DisplayName prefers the username over the email.
func (u UserSummary) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// UserList is the envelope shared by users/search, me/following and me/followers.
type UserList struct {
	Users     []UserSummary `json:"users,omitempty"`
	Following []UserSummary `json:"following,omitempty"`
	Followers []UserSummary `json:"followers,omitempty"`
}

// FollowLists is every user list a view holds locally.
type FollowLists struct {
	Search    []UserSummary
	Following []UserSummary
	Followers []UserSummary
}

// FollowAction names a completed follow-graph mutation.
type FollowAction int

const (
	Followed FollowAction = iota
	Unfollowed
)

// ReduceFollow returns the lists after action on userID succeeded.
//
// It never mutates its input: search results flip is_following, an unfollow drops the user
// from Following, a follow adds them to Following when the search results know who they are.
// Followers is never changed by the caller's own actions.
func ReduceFollow(lists FollowLists, action FollowAction, userID string) FollowLists {
	following := action == Followed

	next := FollowLists{
		Search:    make([]UserSummary, len(lists.Search)),
		Followers: append([]UserSummary(nil), lists.Followers...),
	}

	var subject *UserSummary
	for i, u := range lists.Search {
		if u.ID == userID {
			u.IsFollowing = following
			subject = &u
		}
		next.Search[i] = u
	}

	for _, u := range lists.Following {
		if u.ID == userID {
			continue
		}
		next.Following = append(next.Following, u)
	}

	if following && subject != nil {
		next.Following = append(next.Following, *subject)
	}

	return next
}
