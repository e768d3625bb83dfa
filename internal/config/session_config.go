package config

import "time"

type SessionConfig interface {
	GetInitTimeout() time.Duration
}

type Session struct {
	InitTimeout time.Duration `env:"GAPI_SESSION_INIT_TIMEOUT" envDefault:"30s"`
}

var _ SessionConfig = Session{}

// GetInitTimeout bounds provider client initialisation.
func (s Session) GetInitTimeout() time.Duration {
	return s.InitTimeout
}
