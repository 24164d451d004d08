package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

var (
	_ list.Item = roomItem{}
	_ list.Item = userItem{}
	_ list.Item = matchItem{}
)

// roomItem wraps [models.Room] to implement [list.Item].
type roomItem struct {
	room models.Room
}

func (i roomItem) FilterValue() string { return i.room.Name }
func (i roomItem) Title() string       { return i.room.Name }
func (i roomItem) Description() string {
	parts := []string{shared.VisibilityString(i.room.IsPublic)}
	if i.room.MemberCount > 0 {
		parts = append(parts, fmt.Sprintf("%s members", humanize.Comma(int64(i.room.MemberCount))))
	}
	if !i.room.CreatedAt.IsZero() {
		parts = append(parts, "created "+humanize.Time(i.room.CreatedAt))
	}
	return strings.Join(parts, " • ")
}

// userItem wraps [models.UserSummary] to implement [list.Item].
type userItem struct {
	user      models.UserSummary
	showState bool
}

func (i userItem) FilterValue() string { return i.user.DisplayName() }
func (i userItem) Title() string {
	name := i.user.Username
	if name == "" {
		name = "Anonymous"
	}
	if i.showState && i.user.IsFollowing {
		name += " ✓ following"
	}
	return name
}
func (i userItem) Description() string { return i.user.Email }

// matchItem wraps [models.Match] to implement [list.Item].
type matchItem struct {
	match models.Match
}

func (i matchItem) FilterValue() string { return i.match.Title }
func (i matchItem) Title() string {
	if y := i.match.Year(); y != "" {
		return fmt.Sprintf("%s (%s)", i.match.Title, y)
	}
	return i.match.Title
}
func (i matchItem) Description() string {
	if i.match.MatchedAt != nil {
		return "matched " + humanize.Time(*i.match.MatchedAt)
	}
	if u := i.match.PosterURL(); u != "" {
		return u
	}
	return "No Image"
}

func roomItems(rooms []models.Room) []list.Item {
	items := make([]list.Item, len(rooms))
	for i, r := range rooms {
		items[i] = roomItem{room: r}
	}
	return items
}

func userItems(users []models.UserSummary, showState bool) []list.Item {
	items := make([]list.Item, len(users))
	for i, u := range users {
		items[i] = userItem{user: u, showState: showState}
	}
	return items
}

func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	return l
}
