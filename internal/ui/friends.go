package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/guard"
	"github.com/desertthunder/wouldwatch/internal/models"
)

type friendsTab int

const (
	searchTab friendsTab = iota
	followingTab
	followersTab
)

var tabNames = []string{"Search", "Following", "Followers"}

type usersLoaded struct {
	tab   friendsTab
	users []models.UserSummary
}

type followDone struct {
	action models.FollowAction
	userID string
}

type friendsView struct {
	base
	tab     friendsTab
	query   textinput.Model
	list    list.Model
	lists   models.FollowLists
	loading bool
	err     string
}

func newFriendsView(b base) *friendsView {
	query := textinput.New()
	query.Placeholder = "Search by username or email..."
	query.Prompt = "🔍 "

	w, h := b.app.width-4, b.app.height-12
	return &friendsView{
		base:  b,
		query: query,
		list:  newList("Friends", nil, max(w, 20), max(h, 8)),
	}
}

func (v *friendsView) Init() tea.Cmd {
	return v.query.Focus()
}

func (v *friendsView) users() []models.UserSummary {
	switch v.tab {
	case followingTab:
		return v.lists.Following
	case followersTab:
		return v.lists.Followers
	default:
		return v.lists.Search
	}
}

func (v *friendsView) refreshItems() tea.Cmd {
	v.list.Title = tabNames[v.tab]
	return v.list.SetItems(userItems(v.users(), v.tab == searchTab))
}

func (v *friendsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		switch msg.kind {
		case MsgUsersLoaded:
			v.loading = false
			loaded, err := payload[usersLoaded](msg)
			if err != nil {
				v.err = loadFailure(loaded.tab)
				return nil
			}
			switch loaded.tab {
			case searchTab:
				v.lists.Search = loaded.users
			case followingTab:
				v.lists.Following = loaded.users
			case followersTab:
				v.lists.Followers = loaded.users
			}
			return v.refreshItems()
		case MsgFollowDone:
			done, err := payload[followDone](msg)
			if err != nil {
				v.err = "Failed to follow user"
				if done.action == models.Unfollowed {
					v.err = "Failed to unfollow user"
				}
				return nil
			}
			v.lists = models.ReduceFollow(v.lists, done.action, done.userID)
			return v.refreshItems()
		}
		return nil

	case tea.WindowSizeMsg:
		v.list.SetSize(msg.Width-4, msg.Height-12)
		return nil

	case tea.KeyMsg:
		k := v.keys()
		if key.Matches(msg, k.tab) {
			return v.switchTab()
		}

		if v.query.Focused() {
			switch {
			case key.Matches(msg, k.enter):
				return v.search()
			case key.Matches(msg, k.back):
				v.query.Blur()
				return nil
			}
			var cmd tea.Cmd
			v.query, cmd = v.query.Update(msg)
			return cmd
		}

		if v.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, searchKey) && v.tab == searchTab:
			return v.query.Focus()
		case key.Matches(msg, k.enter):
			return v.toggleFollow()
		case key.Matches(msg, k.back):
			return v.navigate(guard.DashboardPath)
		case key.Matches(msg, k.quit):
			return tea.Quit
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	cmds = append(cmds, cmd)
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		v.query, cmd = v.query.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func loadFailure(tab friendsTab) string {
	switch tab {
	case followingTab:
		return "Failed to load following list"
	case followersTab:
		return "Failed to load followers list"
	default:
		return "Failed to search users"
	}
}

func (v *friendsView) switchTab() tea.Cmd {
	v.tab = (v.tab + 1) % friendsTab(len(tabNames))
	v.err = ""
	v.query.Blur()

	cmds := []tea.Cmd{v.refreshItems()}
	switch v.tab {
	case followingTab:
		cmds = append(cmds, v.load(followingTab))
	case followersTab:
		cmds = append(cmds, v.load(followersTab))
	case searchTab:
		cmds = append(cmds, v.query.Focus())
	}
	return tea.Batch(cmds...)
}

func (v *friendsView) load(tab friendsTab) tea.Cmd {
	v.loading = true
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		var users []models.UserSummary
		var err error
		if tab == followingTab {
			users, err = backend.Following(ctx)
		} else {
			users, err = backend.Followers(ctx)
		}
		return resultMsg(MsgUsersLoaded, id, usersLoaded{tab, users}, err)
	}
}

func (v *friendsView) search() tea.Cmd {
	query := strings.TrimSpace(v.query.Value())
	if query == "" {
		return nil
	}
	v.loading = true
	v.err = ""
	v.query.Blur()

	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		users, err := backend.SearchUsers(ctx, query)
		return resultMsg(MsgUsersLoaded, id, usersLoaded{searchTab, users}, err)
	}
}

func (v *friendsView) toggleFollow() tea.Cmd {
	item, ok := v.list.SelectedItem().(userItem)
	if !ok || v.tab == followersTab {
		return nil
	}

	action := models.Followed
	if v.tab == followingTab || item.user.IsFollowing {
		action = models.Unfollowed
	}

	backend, ctx, id, userID := v.api(), v.ctx(), v.id, item.user.ID
	return func() tea.Msg {
		var err error
		if action == models.Followed {
			err = backend.Follow(ctx, userID)
		} else {
			err = backend.Unfollow(ctx, userID)
		}
		return resultMsg(MsgFollowDone, id, followDone{action, userID}, err)
	}
}

func (v *friendsView) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Friends"))
	b.WriteString("\n")

	for i, name := range tabNames {
		if friendsTab(i) == v.tab {
			b.WriteString(styles.focus.Render("["+name+"]") + " ")
		} else {
			b.WriteString(" " + name + "  ")
		}
	}
	b.WriteString("\n\n")

	if v.tab == searchTab {
		b.WriteString(v.query.View() + "\n\n")
	}
	if v.err != "" {
		b.WriteString(styles.err.Render(v.err) + "\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(styles.help.Render("Loading..."))
	case len(v.users()) == 0 && v.tab == searchTab:
		b.WriteString("Search for users to connect")
	case len(v.users()) == 0:
		b.WriteString("No users yet")
	default:
		b.WriteString(v.list.View())
	}

	k := v.keys()
	follow := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "follow/unfollow"))
	b.WriteString("\n\n")
	b.WriteString(v.helpView(k.tab, searchKey, follow, k.back, k.quit))
	return b.String()
}
