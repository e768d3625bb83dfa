// Package provider describes the identity provider capability the auth façade drives.
//
// The shape follows the provider's client library: a Global that loads modules and
// initialises a client, an AuthInstance that signs users in and out, and a User that
// exposes the current user's tokens and profile.
package provider

import (
	"context"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
)

// Module names accepted by Global.Load.
const (
	ModuleClient = "client"
	ModuleAuth2  = "auth2"
)

// Global is the provider library entry point.
type Global interface {
	// Load makes the named modules available. It must be called before InitClient.
	Load(ctx context.Context, modules ...string) error

	// InitClient initialises the provider client. cfg is passed through untouched.
	InitClient(ctx context.Context, cfg ClientConfig) error

	// AuthInstance returns the auth handle of an initialised client.
	AuthInstance() (AuthInstance, error)
}

// AuthInstance signs the current user in and out.
type AuthInstance interface {
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error

	// Disconnect revokes every scope granted to the client and signs the user out.
	Disconnect(ctx context.Context) error

	// GrantOfflineAccess asks the user for offline access and returns a one-time code.
	GrantOfflineAccess(ctx context.Context) (oauthmodel.OfflineAccessResponse, error)

	CurrentUser() User

	// ListenSignedIn calls listener on every later sign-in state change. It is not
	// called for the state at registration time. The returned func unregisters it.
	ListenSignedIn(listener func(signedIn bool)) (unsubscribe func())
}

// User is the provider's view of the current user.
type User interface {
	// BasicProfile returns nil when no user is signed in.
	BasicProfile() *oauthmodel.BasicProfile

	// AuthResponse returns the current token set. includeAuthorizationData adds the
	// access token and refresh token to the ID token data.
	AuthResponse(includeAuthorizationData bool) oauthmodel.AuthResponse

	// ReloadAuthResponse forces a token refresh and returns the new token set.
	ReloadAuthResponse(ctx context.Context) (oauthmodel.AuthResponse, error)

	IsSignedIn() bool
}
