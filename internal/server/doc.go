// Package server runs the short-lived HTTP listener used by the login flow.
//
// # Routing
//
// [NewRouter] mounts each [Handler]'s routes on a chi router for GET requests, behind chi's
// panic recoverer and the debug-level [Logging] middleware.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter,
// exchanges the code through an [Exchanger] and sends the result through a channel.
// It processes only the first callback.
//
// # Usage
//
// `spotifly auth login` binds a [CallbackServer] on the configured host and port, opens the
// authorization URL in a browser and waits for the handler's result before shutting the server down.
package server
