package oauthmodel

// UserData is the externally visible snapshot of the persisted session.
// Values are returned exactly as stored; ExpiresAt is epoch milliseconds as a string.
type UserData struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	ImageURL    string `json:"imageUrl"`
	ExpiresAt   string `json:"expiresAt"`
	AccessToken string `json:"accessToken"`
	IDToken     string `json:"idToken"`
}
