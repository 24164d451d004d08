// Package guard decides what a route may show for the current auth state.
//
// A guard is a pure function of (loading, user). It is re-evaluated on every auth event and
// no state is terminal.
package guard

import (
	"strings"

	"github.com/desertthunder/wouldwatch/internal/auth"
)

// State is the auth gate's view of the world.
type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "AUTHENTICATED"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "LOADING"
	}
}

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	RootPath      = "/"
)

// Decision says what a view should do right now.
//
// At most one of Placeholder, Redirect and Render is set.
type Decision struct {
	Placeholder bool
	Redirect    string
	Render      bool
}

// Evaluate maps the auth client's loading flag and user to a [State].
func Evaluate(loading bool, user *auth.User) State {
	switch {
	case loading:
		return Loading
	case user != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Protected gates content that needs a signed-in user.
//
// While loading it shows only a placeholder; signed out it redirects to the login route and
// renders nothing.
func Protected(state State) Decision {
	switch state {
	case Authenticated:
		return Decision{Render: true}
	case Unauthenticated:
		return Decision{Redirect: LoginPath}
	default:
		return Decision{Placeholder: true}
	}
}

// PublicOnly gates the login route: signed-in users are sent to the dashboard.
func PublicOnly(state State) Decision {
	switch state {
	case Authenticated:
		return Decision{Redirect: DashboardPath}
	case Unauthenticated:
		return Decision{Render: true}
	default:
		return Decision{Placeholder: true}
	}
}

// Root resolves the bare "/" route once loading has finished.
func Root(state State) Decision {
	switch state {
	case Authenticated:
		return Decision{Redirect: DashboardPath}
	case Unauthenticated:
		return Decision{Redirect: LoginPath}
	default:
		return Decision{Placeholder: true}
	}
}

// Decide applies the guard that owns path. Unknown paths are protected.
func Decide(path string, state State) Decision {
	switch {
	case path == RootPath || path == "":
		return Root(state)
	case path == LoginPath:
		return PublicOnly(state)
	default:
		return Protected(state)
	}
}

// Guard tracks the state for an [auth.Authenticator].
type Guard struct {
	auth auth.Authenticator
}

// New creates a guard reading from a.
func New(a auth.Authenticator) *Guard {
	return &Guard{auth: a}
}

// State evaluates the current auth state.
func (g *Guard) State() State {
	return Evaluate(g.auth.Loading(), g.auth.User())
}

// Decide evaluates the guard for path against the current auth state.
func (g *Guard) Decide(path string) Decision {
	return Decide(Normalize(path), g.State())
}

// Normalize strips a trailing slash and query string from a route path.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return RootPath
	}
	return path
}
