package session

import "github.com/jrsteele09/go-gapi-session/oauthmodel"

// Record is the flat, string-valued session as it sits in storage.
// A field that was never written (or was cleared) is the empty string.
type Record struct {
	AccessToken string
	IDToken     string
	ExpiresAt   string // epoch milliseconds
	ID          string
	FullName    string
	FirstName   string
	LastName    string
	ImageURL    string
	Email       string
}

// UserData relabels the record into the external user data shape.
func (r Record) UserData() oauthmodel.UserData {
	return oauthmodel.UserData{
		ID:          r.ID,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		FullName:    r.FullName,
		Email:       r.Email,
		ImageURL:    r.ImageURL,
		ExpiresAt:   r.ExpiresAt,
		AccessToken: r.AccessToken,
		IDToken:     r.IDToken,
	}
}

// IsEmpty reports whether no field of the record is set.
func (r Record) IsEmpty() bool {
	return r == Record{}
}
