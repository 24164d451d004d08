package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrCallbackTimeout is returned when no redirect arrives before the context ends.
var ErrCallbackTimeout = errors.New("timed out waiting for OAuth callback")

// CallbackResult carries the authorization code from the provider redirect.
type CallbackResult struct {
	Code string
	Err  error
}

// CallbackHandler handles the OAuth redirect for the authorization code (PKCE) flow.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler that accepts only redirects carrying state.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the redirect and forwards the code or the provider's error.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()

	if query.Get("state") != h.state {
		h.Send(CallbackResult{Err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))
		h.Send(CallbackResult{Err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{Code: code})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Would Watch</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh;">
    <h1>✓ Signed in</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// Send delivers the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// Listen serves handler on addr until it produces a result or ctx is done.
//
// The listener is bound before Listen returns so the caller can open the browser immediately;
// the returned channel yields the single callback result.
func Listen(ctx context.Context, addr string, handler *CallbackHandler, logger *log.Logger) (<-chan CallbackResult, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback address %s: %w", addr, err)
	}

	router := NewBasicRouter()
	if logger != nil {
		router.Use(RequestLogger(logger))
	}
	for _, route := range handler.Routes() {
		router.Handle(http.MethodGet, route, handler)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Warn("callback server stopped", "error", err)
		}
	}()

	out := make(chan CallbackResult, 1)
	go func() {
		defer close(out)

		var result CallbackResult
		select {
		case r, ok := <-handler.Result():
			if ok {
				result = r
			}
		case <-ctx.Done():
			result = CallbackResult{Err: fmt.Errorf("%w: %v", ErrCallbackTimeout, ctx.Err())}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)

		out <- result
	}()

	return out, nil
}
