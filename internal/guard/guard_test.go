package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/desertthunder/wouldwatch/internal/auth"
)

type stubAuth struct {
	auth.Authenticator
	loading bool
	user    *auth.User
}

func (s *stubAuth) Loading() bool    { return s.loading }
func (s *stubAuth) User() *auth.User { return s.user }

func TestEvaluate(t *testing.T) {
	u := &auth.User{ID: "u-1"}

	assert.Equal(t, Loading, Evaluate(true, nil))
	assert.Equal(t, Loading, Evaluate(true, u))
	assert.Equal(t, Unauthenticated, Evaluate(false, nil))
	assert.Equal(t, Authenticated, Evaluate(false, u))
}

func TestProtected(t *testing.T) {
	t.Run("loading shows placeholder only", func(t *testing.T) {
		d := Protected(Loading)
		assert.True(t, d.Placeholder)
		assert.False(t, d.Render)
		assert.Empty(t, d.Redirect)
	})

	t.Run("signed out redirects without content", func(t *testing.T) {
		d := Protected(Unauthenticated)
		assert.Equal(t, LoginPath, d.Redirect)
		assert.False(t, d.Render)
		assert.False(t, d.Placeholder)
	})

	t.Run("signed in renders", func(t *testing.T) {
		assert.Equal(t, Decision{Render: true}, Protected(Authenticated))
	})
}

func TestDecide(t *testing.T) {
	tests := []struct {
		path  string
		state State
		want  Decision
	}{
		{"/", Loading, Decision{Placeholder: true}},
		{"/", Authenticated, Decision{Redirect: DashboardPath}},
		{"/", Unauthenticated, Decision{Redirect: LoginPath}},
		{"/login", Loading, Decision{Placeholder: true}},
		{"/login", Authenticated, Decision{Redirect: DashboardPath}},
		{"/login", Unauthenticated, Decision{Render: true}},
		{"/dashboard", Unauthenticated, Decision{Redirect: LoginPath}},
		{"/session/abc/vote", Authenticated, Decision{Render: true}},
		{"/anything", Loading, Decision{Placeholder: true}},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.path, tt.state))
		})
	}
}

func TestGuard(t *testing.T) {
	a := &stubAuth{loading: true}
	g := New(a)

	assert.Equal(t, Loading, g.State())
	assert.True(t, g.Decide("/dashboard").Placeholder)

	a.loading = false
	assert.Equal(t, Decision{Redirect: LoginPath}, g.Decide("/dashboard/"))

	a.user = &auth.User{ID: "u-1"}
	assert.Equal(t, Decision{Render: true}, g.Decide("/dashboard"))
	assert.Equal(t, Decision{Redirect: DashboardPath}, g.Decide("/login?next=x"))

	a.user = nil
	assert.Equal(t, Unauthenticated, g.State())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("/"))
	assert.Equal(t, "/dashboard", Normalize("/dashboard/"))
	assert.Equal(t, "/login", Normalize("/login?x=1"))
	assert.Equal(t, "/session/a", Normalize("/session/a#top"))
}
