package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/wouldwatch/internal/auth"
	"github.com/desertthunder/wouldwatch/internal/guard"
	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/voting"
)

const (
	CopiedDuration = 2 * time.Second
	SavedDuration  = 3 * time.Second

	// maxRedirects bounds a chain of guard redirects during one navigation.
	maxRedirects = 4
)

// Backend is the part of the API gateway the views call.
type Backend interface {
	voting.Searcher
	voting.Voter
	CreateSession(ctx context.Context, roomID string) (*models.VotingSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.VotingSession, error)
	GetMatches(ctx context.Context, sessionID string) ([]models.Match, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error)
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) error
	SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	Following(ctx context.Context) ([]models.UserSummary, error)
	Followers(ctx context.Context) ([]models.UserSummary, error)
}

// Deps are the collaborators handed to the TUI from main.
type Deps struct {
	Auth   auth.Authenticator
	API    Backend
	AppURL string
	// Mount runs the auth client's initial session probe. Optional.
	Mount func(ctx context.Context) error
	// Clipboard defaults to the system clipboard.
	Clipboard func(text string) error
	Logger    *log.Logger
}

// view is a routed screen. Every instance gets a fresh id when it is mounted.
type view interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	guard  *guard.Guard
	logger *log.Logger

	path        string
	current     view
	viewID      uint64
	placeholder bool

	width  int
	height int
	help   help.Model
	keys   keyMap
	after  func(d time.Duration, msg Msg) tea.Cmd
}

// NewModel creates a new TUI model starting at path.
func NewModel(ctx context.Context, deps Deps, path string) *Model {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.WriteAll
	}
	if path == "" {
		path = guard.RootPath
	}
	return &Model{
		ctx:    ctx,
		deps:   deps,
		guard:  guard.New(deps.Auth),
		logger: deps.Logger,
		path:   guard.Normalize(path),
		help:   help.New(),
		keys:   newKeyMap(),
		after: func(d time.Duration, msg Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
}

// Run starts the TUI, forwarding auth events into the program until it exits.
func Run(ctx context.Context, deps Deps, path string) error {
	m := NewModel(ctx, deps, path)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := deps.Auth.Subscribe(func(event auth.Event, user *auth.User) {
		p.Send(authChangedMsg(event, user))
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

// Path is the current route.
func (m *Model) Path() string { return m.path }

// Init resolves the starting route and runs the initial session probe.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.navigate(m.path)}
	if m.deps.Mount != nil {
		mount, ctx := m.deps.Mount, m.ctx
		cmds = append(cmds, func() tea.Msg { return mountedMsg(mount(ctx)) })
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case Msg:
		switch msg.kind {
		case MsgMounted:
			if err, _ := msg.data.(error); err != nil {
				m.logger.Warn("auth mount failed", "error", err)
			}
			return m, m.reevaluate()
		case MsgAuthChanged:
			m.logger.Debug("auth event", "path", m.path)
			return m, m.reevaluate()
		}
		if msg.view != m.viewID {
			m.logger.Debug("dropping message for unmounted view", "kind", msg.kind, "view", msg.view)
			return m, nil
		}
	}

	if m.current == nil {
		return m, nil
	}
	return m, m.current.Update(msg)
}

// View renders the current route.
func (m *Model) View() string {
	if m.placeholder {
		return styles.help.Render("Loading...")
	}
	if m.current == nil {
		return ""
	}
	return m.current.View()
}

// navigate moves to path, applying the route guard.
func (m *Model) navigate(path string) tea.Cmd {
	return m.resolve(guard.Normalize(path), true, 0)
}

// reevaluate re-applies the guard to the current route without remounting a rendered view.
func (m *Model) reevaluate() tea.Cmd {
	return m.resolve(m.path, false, 0)
}

func (m *Model) resolve(path string, remount bool, depth int) tea.Cmd {
	m.path = path

	decision := m.guard.Decide(path)
	switch {
	case decision.Placeholder:
		m.unmount()
		m.placeholder = true
		return nil
	case decision.Redirect != "":
		if depth >= maxRedirects {
			m.logger.Error("redirect loop", "path", path, "to", decision.Redirect)
			return nil
		}
		m.logger.Debug("guard redirect", "from", path, "to", decision.Redirect)
		return m.resolve(decision.Redirect, true, depth+1)
	}

	m.placeholder = false
	if m.current != nil && !remount {
		return nil
	}

	m.viewID++
	m.current = m.build(path, m.viewID)
	return m.current.Init()
}

func (m *Model) unmount() {
	m.current = nil
	m.viewID++
}

func (m *Model) build(path string, id uint64) view {
	b := base{app: m, id: id}

	switch path {
	case guard.LoginPath:
		return newLoginView(b)
	case guard.DashboardPath:
		return newDashboardView(b)
	case SettingsPath:
		return newSettingsView(b)
	case FriendsPath:
		return newFriendsView(b)
	}

	if sessionID, sub, ok := matchSessionRoute(path); ok {
		switch sub {
		case "":
			return newLobbyView(b, sessionID)
		case "vote":
			return newVoteView(b, sessionID)
		case "matches":
			return newMatchesView(b, sessionID)
		}
	}
	return &notFoundView{base: b, path: path}
}

const (
	SettingsPath = "/settings"
	FriendsPath  = "/friends"
)

// SessionPath returns the lobby route for a session, optionally with a sub-route.
func SessionPath(id string, sub ...string) string {
	return strings.Join(append([]string{"/session", id}, sub...), "/")
}

// matchSessionRoute splits /session/:id[/vote|/matches].
func matchSessionRoute(path string) (id, sub string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "session" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		sub = parts[2]
	}
	return parts[1], sub, true
}

// base is embedded by every view: it knows its instance id and the app it belongs to.
type base struct {
	app *Model
	id  uint64
}

func (b base) ctx() context.Context { return b.app.ctx }
func (b base) api() Backend         { return b.app.deps.API }
func (b base) keys() keyMap         { return b.app.keys }

func (b base) navigate(path string) tea.Cmd { return b.app.navigate(path) }

// later delivers a timer message to this view after d.
func (b base) later(d time.Duration, kind MsgKind, occurrence uint64) tea.Cmd {
	return b.app.after(d, timerMsg(kind, b.id, occurrence))
}

func (b base) helpView(bindings ...key.Binding) string {
	return b.app.help.ShortHelpView(bindings)
}

type notFoundView struct {
	base
	path string
}

func (v *notFoundView) Init() tea.Cmd { return nil }

func (v *notFoundView) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && (key.Matches(k, v.keys().back) || key.Matches(k, v.keys().enter)) {
		return v.navigate(guard.DashboardPath)
	}
	return nil
}

func (v *notFoundView) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		styles.title.Render("Page not found"),
		styles.warn.Render(v.path),
		v.helpView(v.keys().back))
}
