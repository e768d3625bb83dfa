package oauthmodel

// AuthResponse is the token set the identity provider returns for the current user.
// It mirrors the provider's auth response shape so it can be decoded straight from
// a token endpoint body.
type AuthResponse struct {
	// AccessToken is the bearer token used to call provider APIs.
	// Example: "ya29.a0AfH6SMB..."
	// Security: Never log this value
	AccessToken string `json:"access_token"`

	// IDToken is the OpenID Connect ID token for the signed-in user.
	// Example: "eyJhbGciOiJSUzI1NiIsImtpZCI6..."
	// Only present: When "openid" scope was requested
	IDToken string `json:"id_token"`

	// ExpiresIn is the lifetime in seconds of the access token, relative to when the
	// response was received.
	// Example: 3599
	ExpiresIn int64 `json:"expires_in"`

	// Scope lists the granted scopes, space separated.
	Scope string `json:"scope,omitempty"`

	// TokenType is normally "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is only included when authorization data was requested and the
	// provider issued one.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// OfflineAccessResponse is the result of an offline access grant.
type OfflineAccessResponse struct {
	// Code is a one-time authorization code meant to be exchanged server side.
	Code string `json:"code"`
}

// Validate checks the fields every successful provider response must carry.
func (a AuthResponse) Validate() error {
	if a.AccessToken == "" {
		return ErrMissingAccessToken
	}
	return nil
}
