// Package repositories implements SQLite persistence for the client's local state.
//
// The backend owns rooms, sessions, votes and matches, so the only thing stored locally is the auth
// provider's session: the terminal counterpart of the browser SDK's local storage.
//
// Key Implementations:
//   - [SessionRepository] : the single current auth session, satisfying auth.SessionStore
package repositories
