package session

// Storage keys for the persisted session record.
const (
	KeyAccessToken = "gapi.access_token"
	KeyIDToken     = "gapi.id_token"
	KeyExpiresAt   = "gapi.expires_at"
	KeyID          = "gapi.id"
	KeyFullName    = "gapi.full_name"
	KeyFirstName   = "gapi.first_name"
	KeyLastName    = "gapi.last_name"
	KeyImageURL    = "gapi.image_url"
	KeyEmail       = "gapi.email"
)

// Keys lists every key owned by the session record, tokens first.
var Keys = []string{
	KeyAccessToken,
	KeyIDToken,
	KeyExpiresAt,
	KeyID,
	KeyFullName,
	KeyFirstName,
	KeyLastName,
	KeyImageURL,
	KeyEmail,
}
