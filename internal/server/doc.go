// Package server provides the loopback HTTP server that receives OAuth redirects.
//
// # Router Infrastructure
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// [BasicRouter] uses [http.ServeMux] internally with method filtering. The callback routes accept GET only.
//
// # OAuth Callback Handler
//
// [CallbackHandler] receives the provider's redirect after a browser sign-in.
//
// The handler validates the state parameter (CSRF protection) and sends the authorization code, or the
// provider's error, through a channel. The code exchange itself belongs to the auth package, which holds the
// PKCE verifier.
//
// It only processes one callback to prevent replay attacks.
//
// # Lifecycle
//
// [Listen] binds the callback address and serves until the first result arrives or the context ends,
// then shuts the server down. Sign-in with an external provider therefore holds the port only for the
// duration of one browser round trip.
package server
