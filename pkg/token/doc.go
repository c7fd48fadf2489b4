// Package token defines where the client gets its access token from.
//
// The notification client never stores credentials itself; it asks a
// Provider right before dialing the socket or issuing a REST call. Static,
// Env and KeyringProvider cover the common cases and Chain combines them:
//
//	ring, err := token.OpenKeyring(token.DefaultService, "~/.config/questnotify")
//	tokens := token.Chain(token.Env("QUESTNOTIFY_TOKEN"), token.NewKeyringProvider(ring, "access_token"))
//
// Providers report a missing token with ErrNoToken.
package token
