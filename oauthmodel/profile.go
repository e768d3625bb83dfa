package oauthmodel

// BasicProfile holds the identity claims the provider exposes for the current user.
type BasicProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	ImageURL   string `json:"image_url"`
	Email      string `json:"email"`
}
