// Package auth owns the signed-in identity of the terminal client.
//
// Two layers mirror how a browser app talks to a hosted auth service:
//
//   - [Provider] is the SDK-level adapter. [GoTrueProvider] speaks the auth service's REST API, keeps the
//     current [Session] (persisted through a [SessionStore]) and pushes [Event]s to listeners registered
//     with [Provider.OnAuthStateChange].
//   - [Client] is what the rest of the program sees, through the narrow [Authenticator] interface. It mirrors
//     the provider's user into a current-user value plus a loading flag, and fans events out to its own
//     subscribers (views, commands).
//
// # Lifecycle
//
// [Client.Mount] performs the initial session probe. Loading is true from construction until that probe
// resolves and never becomes true again for the same mount. [Client.Close] releases the provider listener.
//
// # External providers
//
// [GoTrueProvider.SignInWithOAuth] uses the authorization code flow with PKCE. The redirect lands on a
// loopback server (see the server package); the call returns as soon as the browser is opened and the
// sign-in completes later with a [EventSignedIn] event.
package auth
