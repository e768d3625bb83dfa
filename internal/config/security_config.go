package config

type SecurityConfig interface {
	// GetStoragePassphrase is the passphrase the securefile store derives its key from.
	GetStoragePassphrase() string
}

type Security struct {
	StoragePassphrase string `env:"GAPI_SESSION_PASSPHRASE"`
}

var _ SecurityConfig = Security{}

func (s Security) GetStoragePassphrase() string {
	return s.StoragePassphrase
}
