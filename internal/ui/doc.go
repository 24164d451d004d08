// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a routed set of views mirroring the service's web pages:
//  1. login : email/password sign in or sign up, or browser sign in with Google
//  2. /dashboard : list rooms, create a room, start a session
//  3. /session/:id : the lobby with the share link and its QR code
//  4. /session/:id/vote : search for movies and vote yes/no on each in turn
//  5. /session/:id/matches : movies every participant said yes to
//  6. /settings and /friends : profile, invite privacy and the follow graph
//
// Every navigation goes through [guard.Decide]: while the auth client is loading only a placeholder is
// drawn, signed-out users are sent to /login, and the guard is re-applied on every auth event.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the
// Msg union type. Each mounted view gets a fresh id that every command it issues carries back, so results for
// a view the user has navigated away from are dropped.
package ui
