// Package session persists the authenticated user's tokens and profile through a storage.Store
// and answers whether the cached session is still valid.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store reads and writes the session record. It holds no session state of its own.
type Store struct {
	kv      storage.Store
	nowTime func() time.Time
	logger  zerolog.Logger
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for storage failures that are not returned to the caller.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a session Store on top of kv.
func New(kv storage.Store, options ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("[session.New] storage is required")
	}
	s := &Store{
		kv:      kv,
		nowTime: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ComputeExpiry converts a token lifetime in seconds to an absolute expiry in epoch
// milliseconds, encoded as a decimal string. The lifetime is not validated.
func (s *Store) ComputeExpiry(expiresIn int64) string {
	return strconv.FormatInt(expiresIn*1000+s.nowTime().UnixMilli(), 10)
}

// Save writes the token fields and their expiry. Profile fields are only written when
// profile is non-nil, so a token refresh leaves the stored profile untouched.
// Every key is attempted even if an earlier write fails.
func (s *Store) Save(authResult oauthmodel.AuthResponse, profile *oauthmodel.BasicProfile) error {
	values := []struct{ key, value string }{
		{KeyAccessToken, authResult.AccessToken},
		{KeyIDToken, authResult.IDToken},
		{KeyExpiresAt, s.ComputeExpiry(authResult.ExpiresIn)},
	}
	if profile != nil {
		values = append(values, []struct{ key, value string }{
			{KeyID, profile.ID},
			{KeyFullName, profile.Name},
			{KeyFirstName, profile.GivenName},
			{KeyLastName, profile.FamilyName},
			{KeyImageURL, profile.ImageURL},
			{KeyEmail, profile.Email},
		}...)
	}

	var errs []error
	for _, v := range values {
		if err := s.kv.Set(v.key, v.value); err != nil {
			errs = append(errs, fmt.Errorf("set %s: %w", v.key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[session.Save] %w", err)
	}
	return nil
}

// Clear removes every session key whether or not it is present.
func (s *Store) Clear() error {
	var errs []error
	for _, key := range Keys {
		if err := s.kv.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[session.Clear] %w", err)
	}
	return nil
}

// IsValid reports whether the stored expiry lies strictly in the future.
// A missing or unparseable expiry is not valid.
func (s *Store) IsValid() bool {
	expiresAt, err := strconv.ParseInt(s.get(KeyExpiresAt), 10, 64)
	if err != nil {
		return false
	}
	return s.nowTime().UnixMilli() < expiresAt
}

// ReadAll returns the stored fields verbatim. It does not check validity.
func (s *Store) ReadAll() Record {
	return Record{
		AccessToken: s.get(KeyAccessToken),
		IDToken:     s.get(KeyIDToken),
		ExpiresAt:   s.get(KeyExpiresAt),
		ID:          s.get(KeyID),
		FullName:    s.get(KeyFullName),
		FirstName:   s.get(KeyFirstName),
		LastName:    s.get(KeyLastName),
		ImageURL:    s.get(KeyImageURL),
		Email:       s.get(KeyEmail),
	}
}

func (s *Store) get(key string) string {
	value, err := s.kv.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Err(err).Str("key", key).Msg("Failed to read session value")
		}
		return ""
	}
	return value
}
