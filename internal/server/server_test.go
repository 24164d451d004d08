package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		h := NewCallbackHandler("state")
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("expected [/callback], got %v", routes)
		}
	})

	t.Run("Valid Callback", func(t *testing.T) {
		h := NewCallbackHandler("abc")
		req := httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=the-code", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in") {
			t.Errorf("expected success page, got %q", rec.Body.String())
		}

		result := <-h.Result()
		if result.Err != nil {
			t.Fatalf("expected no error, got %v", result.Err)
		}
		if result.Code != "the-code" {
			t.Errorf("expected code 'the-code', got %q", result.Code)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		h := NewCallbackHandler("expected")
		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=x", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		result := <-h.Result()
		if result.Err == nil || !strings.Contains(result.Err.Error(), "state") {
			t.Errorf("expected state error, got %v", result.Err)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		h := NewCallbackHandler("s")
		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied&error_description=User+cancelled", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		result := <-h.Result()
		if result.Err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(result.Err.Error(), "access_denied") || !strings.Contains(result.Err.Error(), "User cancelled") {
			t.Errorf("expected provider error details, got %v", result.Err)
		}
	})

	t.Run("Rejects Replay", func(t *testing.T) {
		h := NewCallbackHandler("s")
		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=one", nil))

		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=two", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", second.Code)
		}

		result := <-h.Result()
		if result.Code != "one" {
			t.Errorf("expected first code to win, got %q", result.Code)
		}
		if _, ok := <-h.Result(); ok {
			t.Error("expected channel to be closed after one result")
		}
	})

	t.Run("Send Only Once", func(t *testing.T) {
		h := NewCallbackHandler("s")
		h.Send(CallbackResult{Code: "a"})
		h.Send(CallbackResult{Code: "b"})

		if got := (<-h.Result()).Code; got != "a" {
			t.Errorf("expected 'a', got %q", got)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/submit", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/submit", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		want := "first,second,handler"
		if got := strings.Join(order, ","); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("RequestLogger Omits Query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

		r := NewBasicRouter()
		r.Use(RequestLogger(logger))
		r.Handle(http.MethodGet, "/callback", NewCallbackHandler("s"))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "/callback") {
			t.Errorf("expected path in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("expected code to be absent from log, got %q", out)
		}
	})
}

func TestListen(t *testing.T) {
	freeAddr := func(t *testing.T) string {
		t.Helper()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()
		return addr
	}

	t.Run("Delivers Code", func(t *testing.T) {
		addr := freeAddr(t)
		h := NewCallbackHandler("xyz")

		results, err := Listen(context.Background(), addr, h, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		resp, err := http.Get(fmt.Sprintf("http://%s/callback?state=xyz&code=abc", addr))
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case result := <-results:
			if result.Err != nil || result.Code != "abc" {
				t.Errorf("expected code 'abc', got %+v", result)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for result")
		}
	})

	t.Run("Only GET Reaches The Handler", func(t *testing.T) {
		addr := freeAddr(t)
		h := NewCallbackHandler("xyz")

		results, err := Listen(context.Background(), addr, h, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		url := fmt.Sprintf("http://%s/callback?state=xyz&code=abc", addr)
		resp, err := http.Post(url, "text/plain", nil)
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}

		resp, err = http.Get(url)
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()

		select {
		case result := <-results:
			if result.Err != nil || result.Code != "abc" {
				t.Errorf("expected code 'abc', got %+v", result)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for result")
		}
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		results, err := Listen(ctx, freeAddr(t), NewCallbackHandler("s"), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		cancel()

		select {
		case result := <-results:
			if !errors.Is(result.Err, ErrCallbackTimeout) {
				t.Errorf("expected ErrCallbackTimeout, got %v", result.Err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for result")
		}
	})

	t.Run("Address In Use", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to bind: %v", err)
		}
		defer ln.Close()

		if _, err := Listen(context.Background(), ln.Addr().String(), NewCallbackHandler("s"), nil); err == nil {
			t.Error("expected bind error")
		}
	})
}
