// Package api is the authenticated gateway to the Would Watch backend.
//
// Every request goes through [Client.Do], which fetches a fresh access token from a [TokenSource],
// attaches it as a bearer token and decodes the JSON response. A request without a token is never sent.
//
// Failures come in three shapes:
//   - shared.ErrNotAuthenticated when no token is available
//   - [*RequestFailed] for any non-2xx response, carrying the backend's body as its message
//   - errors wrapping shared.ErrUnexpected for transport and decoding failures
//
// There are no retries. The typed endpoint methods map one-to-one onto backend routes.
package api
