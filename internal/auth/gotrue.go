package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/wouldwatch/internal/server"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

const defaultFlowTimeout = 5 * time.Minute

// Provider is the auth service adapter used by [Client].
type Provider interface {
	// GetSession returns the current session, restoring it from storage and refreshing it when expired.
	// A nil session with a nil error means nobody is signed in.
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers a listener and returns its deregistration func.
	OnAuthStateChange(fn Listener) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp returns a nil session when the service requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*User, *Session, error)
	// SignInWithOAuth starts a browser sign-in and returns the authorize URL without waiting for it.
	SignInWithOAuth(ctx context.Context, provider string) (string, error)
	SignOut(ctx context.Context) error
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`

	// Sign-up without auto-confirmation returns the bare user object.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// GoTrueProvider implements [Provider] against a GoTrue-compatible auth service.
type GoTrueProvider struct {
	baseURL      string
	anonKey      string
	redirectURL  string
	callbackAddr string
	httpClient   *http.Client
	store        SessionStore
	logger       *log.Logger
	opener       shared.URLOpener

	mu         sync.Mutex
	session    *Session
	restored   bool
	refreshing chan struct{}
	listeners  map[uint64]Listener
	nextID     uint64
}

// NewGoTrueProvider creates a provider for the auth service described by cfg.
func NewGoTrueProvider(cfg shared.AuthConfig, store SessionStore, logger *log.Logger) *GoTrueProvider {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &GoTrueProvider{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		anonKey:      cfg.AnonKey,
		redirectURL:  cfg.RedirectURL(),
		callbackAddr: cfg.CallbackAddr(),
		httpClient:   http.DefaultClient,
		store:        store,
		logger:       logger,
		opener:       shared.OpenBrowser,
		listeners:    make(map[uint64]Listener),
	}
}

// SetHTTPClient replaces the HTTP client used for auth service calls.
func (p *GoTrueProvider) SetHTTPClient(c *http.Client) {
	p.httpClient = c
}

// SetURLOpener replaces how the authorize URL is opened. A nil opener leaves it to the caller.
func (p *GoTrueProvider) SetURLOpener(opener shared.URLOpener) {
	p.opener = opener
}

// OnAuthStateChange implements [Provider].
func (p *GoTrueProvider) OnAuthStateChange(fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *GoTrueProvider) emit(event Event, session *Session) {
	p.mu.Lock()
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(event, session.clone())
	}
}

// GetSession implements [Provider].
//
// An expired session is refreshed once. When the service rejects the refresh token the session is
// dropped and listeners see [EventSignedOut]; transport failures keep it for a later attempt.
// The refresh runs without holding the lock and concurrent callers wait for the one in flight.
func (p *GoTrueProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	var current *Session
	for {
		p.restoreLocked()

		current = p.session
		if current == nil || current.Valid() {
			p.mu.Unlock()
			return current.clone(), nil
		}

		if current.RefreshToken == "" {
			p.dropLocked()
			p.mu.Unlock()
			p.emit(EventSignedOut, nil)
			return nil, nil
		}

		if p.refreshing == nil {
			break
		}
		done := p.refreshing
		p.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, ctx.Err())
		}
		p.mu.Lock()
	}

	done := make(chan struct{})
	p.refreshing = done
	p.mu.Unlock()

	refreshed, err := p.refresh(ctx, current.RefreshToken)

	p.mu.Lock()
	p.refreshing = nil
	close(done)

	// A sign-in or sign-out during the refresh wins over its result.
	if p.session != current {
		latest := p.session
		p.mu.Unlock()
		return latest.clone(), nil
	}

	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			p.dropLocked()
			p.mu.Unlock()
			p.logger.Warn("session refresh rejected", "error", err)
			p.emit(EventSignedOut, nil)
			return nil, nil
		}
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	p.session = refreshed
	p.persist(refreshed)
	p.mu.Unlock()

	p.emit(EventTokenRefreshed, refreshed)
	return refreshed.clone(), nil
}

func (p *GoTrueProvider) restoreLocked() {
	if p.restored {
		return
	}
	p.restored = true

	stored, err := p.store.Load()
	switch {
	case err == nil:
		p.session = stored
	case errors.Is(err, shared.ErrNoSession):
	default:
		p.logger.Warn("failed to load stored session", "error", err)
	}
}

func (p *GoTrueProvider) dropLocked() {
	p.session = nil
	if err := p.store.Clear(); err != nil {
		p.logger.Warn("failed to clear stored session", "error", err)
	}
}

func (p *GoTrueProvider) persist(session *Session) {
	if err := p.store.Save(session); err != nil {
		p.logger.Warn("failed to persist session", "error", err)
	}
}

func (p *GoTrueProvider) setSession(session *Session) {
	p.mu.Lock()
	p.session = session
	p.restored = true
	p.persist(session)
	p.mu.Unlock()
}

// SignInWithPassword implements [Provider].
func (p *GoTrueProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	session, err := p.token(ctx, "password", body)
	if err != nil {
		return nil, err
	}

	p.setSession(session)
	p.emit(EventSignedIn, session)
	return session.clone(), nil
}

// SignUp implements [Provider].
func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := p.post(ctx, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken == "" {
		user := &User{ID: resp.ID, Email: resp.Email}
		if user.Email == "" {
			user.Email = email
		}
		return user, nil, nil
	}

	session := resp.session(time.Now())
	p.setSession(session)
	p.emit(EventSignedIn, session)

	user := session.User
	return &user, session.clone(), nil
}

// SignInWithOAuth implements [Provider].
//
// It binds the loopback callback, opens the browser and returns. The code exchange runs in the
// background and ends in [EventSignedIn]; a failed or abandoned flow only logs.
func (p *GoTrueProvider) SignInWithOAuth(ctx context.Context, provider string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	}

	verifier := oauth2.GenerateVerifier()
	state := shared.GenerateID()

	flowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFlowTimeout)
	handler := server.NewCallbackHandler(state)

	results, err := server.Listen(flowCtx, p.callbackAddr, handler, p.logger)
	if err != nil {
		cancel()
		return "", err
	}

	authURL := p.AuthorizeURL(provider, state, verifier)

	go func() {
		defer cancel()
		result := <-results
		if result.Err != nil {
			p.logger.Warn("browser sign-in did not complete", "provider", provider, "error", result.Err)
			return
		}

		session, err := p.ExchangeCode(flowCtx, result.Code, verifier)
		if err != nil {
			p.logger.Error("failed to exchange authorization code", "provider", provider, "error", err)
			return
		}

		p.setSession(session)
		p.emit(EventSignedIn, session)
	}()

	if p.opener != nil {
		if err := p.opener(authURL); err != nil {
			p.logger.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
		}
	}

	return authURL, nil
}

// AuthorizeURL builds the provider authorize URL with an S256 PKCE challenge.
//
// state travels inside redirect_to so the callback can be matched to this attempt.
func (p *GoTrueProvider) AuthorizeURL(provider, state, verifier string) string {
	redirect := p.redirectURL + "?state=" + url.QueryEscape(state)

	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirect)
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	q.Set("code_challenge_method", "s256")

	return p.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code and its verifier for a session.
func (p *GoTrueProvider) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	return p.token(ctx, "pkce", map[string]string{"auth_code": code, "code_verifier": verifier})
}

func (p *GoTrueProvider) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return p.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignOut implements [Provider].
//
// Local state is cleared before the remote call, so the returned error is informational.
func (p *GoTrueProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.restoreLocked()
	current := p.session
	p.dropLocked()
	p.mu.Unlock()

	var err error
	if current != nil {
		err = p.post(ctx, "/auth/v1/logout", current.AccessToken, nil, nil)
	}

	p.emit(EventSignedOut, nil)
	return err
}

func (p *GoTrueProvider) token(ctx context.Context, grantType string, body any) (*Session, error) {
	var resp tokenResponse
	if err := p.post(ctx, "/auth/v1/token?grant_type="+grantType, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access token", shared.ErrAuthFailed)
	}
	return resp.session(time.Now()), nil
}

func (r tokenResponse) session(now time.Time) *Session {
	s := &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
	}

	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	if r.User != nil {
		s.User = User{ID: r.User.ID, Email: r.User.Email}
	}
	s.fillFromClaims()
	return s
}

// post sends a JSON request to the auth service. Non-2xx responses become [*ProviderError].
func (p *GoTrueProvider) post(ctx context.Context, path, bearer string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)

		msg := e.text()
		if msg == "" {
			msg = fmt.Sprintf("auth request failed: %d", resp.StatusCode)
		}
		return &ProviderError{Status: resp.StatusCode, Code: e.ErrorCode, Message: msg}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
