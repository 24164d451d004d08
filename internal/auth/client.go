package auth

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/wouldwatch/internal/shared"
)

var ErrAlreadyMounted = fmt.Errorf("auth client already mounted")

// Subscriber is notified of every auth event with the resulting current user.
type Subscriber func(event Event, user *User)

// Result is the outcome of a credential sign-in or sign-up.
//
// Err is a [*ProviderError] when the auth service declined the request; any other error is unexpected.
type Result struct {
	User *User
	// ConfirmationPending is set when sign-up succeeded but no session was issued yet.
	ConfirmationPending bool
	Err                 error
}

// Authenticator is the capability handed to views and commands.
type Authenticator interface {
	User() *User
	Loading() bool
	Subscribe(fn Subscriber) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) Result
	SignUp(ctx context.Context, email, password string) Result
	SignInWithOAuth(ctx context.Context, provider string) (string, error)
	SignOut(ctx context.Context)
	AccessToken(ctx context.Context) (string, error)
}

// Client mirrors the provider's session into a current user and loading flag.
type Client struct {
	provider Provider
	logger   *log.Logger

	mu          sync.Mutex
	user        *User
	loading     bool
	mounted     bool
	unsubscribe func()
	subscribers map[uint64]Subscriber
	nextID      uint64
}

// NewClient creates a [Client]. It reports loading until [Client.Mount] resolves.
func NewClient(provider Provider, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		provider:    provider,
		logger:      logger,
		loading:     true,
		subscribers: make(map[uint64]Subscriber),
	}
}

// Mount registers the provider listener and performs the initial session probe.
//
// Subscribers receive [EventInitialSession] once the probe resolves, whether or not a session exists.
func (c *Client) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.mounted = true
	c.loading = true
	c.mu.Unlock()

	unsubscribe := c.provider.OnAuthStateChange(c.handle)

	session, err := c.provider.GetSession(ctx)
	if err != nil {
		c.logger.Warn("failed to restore session", "error", err)
	}

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.user = nil
	if session != nil {
		u := session.User
		c.user = &u
	}
	c.loading = false
	c.mu.Unlock()

	c.notify(EventInitialSession)
	return nil
}

// Close releases the provider listener. A closed client may be mounted again.
func (c *Client) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mounted = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Client) handle(event Event, session *Session) {
	switch event {
	case EventSignedOut:
		c.setUser(nil)
	default:
		if session == nil {
			return
		}
		u := session.User
		c.setUser(&u)
	}
	c.logger.Debug("auth state changed", "event", event)
	c.notify(event)
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

func (c *Client) notify(event Event) {
	c.mu.Lock()
	user := c.userLocked()
	fns := make([]Subscriber, 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, user)
	}
}

func (c *Client) userLocked() *User {
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// User returns the current user, or nil when signed out. It has no side effects.
func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userLocked()
}

// Loading reports whether the initial session probe is still running.
func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Subscribe registers fn for auth events and returns its deregistration func.
func (c *Client) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

// SignIn authenticates with email and password. Failure leaves the current user untouched.
func (c *Client) SignIn(ctx context.Context, email, password string) Result {
	session, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Result{Err: err}
	}

	u := session.User
	c.setUser(&u)
	return Result{User: &u}
}

// SignUp provisions a new identity. When confirmation is pending the client stays signed out.
func (c *Client) SignUp(ctx context.Context, email, password string) Result {
	user, session, err := c.provider.SignUp(ctx, email, password)
	if err != nil {
		return Result{Err: err}
	}

	if session == nil {
		return Result{User: user, ConfirmationPending: true}
	}

	u := session.User
	c.setUser(&u)
	return Result{User: &u}
}

// SignInWithOAuth starts a browser sign-in. Completion arrives as [EventSignedIn].
func (c *Client) SignInWithOAuth(ctx context.Context, provider string) (string, error) {
	return c.provider.SignInWithOAuth(ctx, provider)
}

// SignOut clears the current user unconditionally.
//
// A failed remote logout is only logged so it never blocks navigation.
func (c *Client) SignOut(ctx context.Context) {
	err := c.provider.SignOut(ctx)
	c.setUser(nil)
	if err != nil {
		c.logger.Warn("remote sign out failed", "error", err)
	}
}

// AccessToken returns a usable access token, refreshing it through the provider when needed.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	session, err := c.provider.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil || session.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	return session.AccessToken, nil
}
