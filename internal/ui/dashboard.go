package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/guard"
	"github.com/desertthunder/wouldwatch/internal/models"
)

const (
	roomsEmpty        = "No active rooms yet. Create one to get started!"
	roomNameRequired  = "Room name is required"
	createRoomFailed  = "Failed to create room. Please try again."
	loadRoomsFailed   = "Failed to load rooms"
	startSessionError = "Failed to start session"
)

type dashboardView struct {
	base
	rooms   list.Model
	loading bool
	opening bool
	err     string
	modal   *createRoomModal
}

func newDashboardView(b base) *dashboardView {
	w, h := b.app.width-4, b.app.height-10
	return &dashboardView{
		base:    b,
		rooms:   newList("Your Rooms", nil, max(w, 20), max(h, 10)),
		loading: true,
	}
}

func (v *dashboardView) Init() tea.Cmd {
	return v.loadRooms()
}

func (v *dashboardView) loadRooms() tea.Cmd {
	v.loading = true
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		rooms, err := backend.ListRooms(ctx)
		return resultMsg(MsgRoomsLoaded, id, rooms, err)
	}
}

func (v *dashboardView) Update(msg tea.Msg) tea.Cmd {
	if v.modal != nil {
		if cmd, handled := v.updateModal(msg); handled {
			return cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.rooms.SetSize(msg.Width-4, msg.Height-10)
		return nil

	case Msg:
		switch msg.kind {
		case MsgRoomsLoaded:
			v.loading = false
			rooms, err := payload[[]models.Room](msg)
			if err != nil {
				v.app.logger.Warn("failed to load rooms", "error", err)
				v.err = loadRoomsFailed
				return nil
			}
			v.err = ""
			return v.rooms.SetItems(roomItems(rooms))
		case MsgSessionCreated:
			v.opening = false
			session, err := payload[*models.VotingSession](msg)
			if err != nil || session == nil {
				v.app.logger.Warn("failed to start session", "error", err)
				v.err = startSessionError
				return nil
			}
			return v.navigate(SessionPath(session.ID))
		case MsgRoomCreated:
			return v.roomCreated(msg)
		case MsgSignedOut:
			return v.navigate(guard.LoginPath)
		}
		return nil

	case tea.KeyMsg:
		if v.rooms.FilterState() == list.Filtering {
			break
		}
		k := v.keys()
		switch {
		case key.Matches(msg, k.quit):
			return tea.Quit
		case key.Matches(msg, k.enter):
			if item, ok := v.rooms.SelectedItem().(roomItem); ok {
				return v.startSession(item.room.ID)
			}
			return nil
		case key.Matches(msg, k.session):
			return v.startSession("")
		case key.Matches(msg, k.create):
			v.modal = newCreateRoomModal()
			return v.modal.name.Focus()
		case key.Matches(msg, k.refresh):
			return v.loadRooms()
		case key.Matches(msg, k.settings):
			return v.navigate(SettingsPath)
		case key.Matches(msg, k.friends):
			return v.navigate(FriendsPath)
		case key.Matches(msg, k.logout):
			return v.signOut()
		}
	}

	var cmd tea.Cmd
	v.rooms, cmd = v.rooms.Update(msg)
	return cmd
}

// startSession opens a voting session, scoped to roomID when it is set.
func (v *dashboardView) startSession(roomID string) tea.Cmd {
	if v.opening {
		return nil
	}
	v.opening = true
	v.err = ""
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		session, err := backend.CreateSession(ctx, roomID)
		return resultMsg(MsgSessionCreated, id, session, err)
	}
}

func (v *dashboardView) signOut() tea.Cmd {
	a, ctx, id := v.app.deps.Auth, v.ctx(), v.id
	return func() tea.Msg {
		a.SignOut(ctx)
		return resultMsg(MsgSignedOut, id, struct{}{}, nil)
	}
}

func (v *dashboardView) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Would Watch"))
	b.WriteString("\n")
	if u := v.app.deps.Auth.User(); u != nil {
		b.WriteString(styles.help.Render(fmt.Sprintf("You are logged in as: %s", u.Email)))
		b.WriteString("\n\n")
	}

	if v.modal != nil {
		b.WriteString(v.modal.View())
		return b.String()
	}

	if v.err != "" {
		b.WriteString(styles.err.Render(v.err) + "\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(styles.help.Render("Loading rooms..."))
	case len(v.rooms.Items()) == 0:
		b.WriteString(roomsEmpty)
	default:
		b.WriteString(v.rooms.View())
	}
	if v.opening {
		b.WriteString("\n" + styles.help.Render("Starting session..."))
	}

	k := v.keys()
	b.WriteString("\n\n")
	b.WriteString(v.helpView(k.enter, k.create, k.session, k.settings, k.friends, k.logout, k.quit))
	return b.String()
}

// createRoomModal collects a room name and visibility.
type createRoomModal struct {
	name     textinput.Model
	public   bool
	focusVis bool
	busy     bool
	err      string
}

func newCreateRoomModal() *createRoomModal {
	name := textinput.New()
	name.Placeholder = "e.g. Movie Night 🍿"
	name.Prompt = "Room Name "
	name.CharLimit = 100
	return &createRoomModal{name: name}
}

// updateModal reports handled=false for messages the dashboard itself must see.
func (v *dashboardView) updateModal(msg tea.Msg) (tea.Cmd, bool) {
	m := v.modal

	switch msg := msg.(type) {
	case Msg:
		return nil, false

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys().back):
			v.modal = nil
			return nil, true
		case key.Matches(msg, v.keys().tab):
			m.focusVis = !m.focusVis
			if m.focusVis {
				m.name.Blur()
				return nil, true
			}
			return m.name.Focus(), true
		case m.focusVis && msg.String() == " ":
			m.public = !m.public
			return nil, true
		case key.Matches(msg, v.keys().enter):
			return v.createRoom(), true
		}
	}

	var cmd tea.Cmd
	if !m.focusVis {
		m.name, cmd = m.name.Update(msg)
	}
	return cmd, true
}

// roomCreated settles a create request. The list is refetched after every successful create,
// including when the modal was dismissed while the request was in flight.
func (v *dashboardView) roomCreated(msg Msg) tea.Cmd {
	m := v.modal
	if m != nil && !m.busy {
		m = nil
	}

	if _, err := payload[*models.Room](msg); err != nil {
		v.app.logger.Warn("failed to create room", "error", err)
		if m != nil {
			m.busy = false
			m.err = createRoomFailed
		} else {
			v.err = createRoomFailed
		}
		return nil
	}

	if m != nil {
		v.modal = nil
	}
	return v.loadRooms()
}

func (v *dashboardView) createRoom() tea.Cmd {
	m := v.modal
	if m.busy {
		return nil
	}

	name := strings.TrimSpace(m.name.Value())
	if name == "" {
		m.err = roomNameRequired
		return nil
	}

	m.busy = true
	m.err = ""

	req := models.CreateRoomRequest{Name: name, IsPublic: m.public}
	backend, ctx, id := v.api(), v.ctx(), v.id
	return func() tea.Msg {
		room, err := backend.CreateRoom(ctx, req)
		return resultMsg(MsgRoomCreated, id, room, err)
	}
}

func (m *createRoomModal) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Create New Room"))
	b.WriteString("\n")
	b.WriteString(m.name.View() + "\n\n")

	check := "[ ]"
	if m.public {
		check = "[x]"
	}
	label := fmt.Sprintf("%s Public Room", check)
	if m.focusVis {
		label = styles.focus.Render(label)
	}
	b.WriteString(label + "\n")
	b.WriteString(styles.help.Render("Public rooms can be seen by anyone. Private rooms are invite-only.") + "\n")

	if m.err != "" {
		b.WriteString("\n" + styles.err.Render(m.err) + "\n")
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString("Creating...")
	} else {
		b.WriteString(styles.help.Render("enter create room • tab switch field • space toggle • esc cancel"))
	}
	return styles.box.Render(b.String())
}
