package gapi

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/jrsteele09/go-gapi-session/session"
	"github.com/pkg/errors"
)

// AuthService drives the provider auth instance and keeps the session store in step with it.
//
// Every provider-backed method fails with ErrNotInitialized until the client loader has
// handed over the auth instance. Provider failures come back as *ProviderError.
// No locking is applied across provider calls: concurrent Login and Logout complete in
// whatever order the provider completes them.
type AuthService struct {
	sessions *session.Store

	// authenticated is seeded from the stored session at construction and afterwards
	// only changed by Login, Logout and Disconnect.
	authenticated atomic.Bool

	lock              sync.RWMutex
	authInstance      provider.AuthInstance
	offlineAccessCode string
}

// NewAuthService creates an AuthService over an existing session store.
func NewAuthService(sessions *session.Store) (*AuthService, error) {
	if sessions == nil {
		return nil, errors.New("[NewAuthService] session store is required")
	}
	s := &AuthService{sessions: sessions}
	s.authenticated.Store(sessions.IsValid())
	return s, nil
}

func (s *AuthService) setAuthInstance(instance provider.AuthInstance) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.authInstance = instance
}

func (s *AuthService) instance() (provider.AuthInstance, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.authInstance == nil {
		return nil, ErrNotInitialized
	}
	return s.authInstance, nil
}

// Login signs the user in and persists their tokens and profile.
func (s *AuthService) Login(ctx context.Context) error {
	instance, err := s.instance()
	if err != nil {
		return err
	}
	if err := instance.SignIn(ctx); err != nil {
		return &ProviderError{Op: "signIn", Err: err}
	}
	if err := s.setSession(instance); err != nil {
		return errors.Wrap(err, "[AuthService.Login] setSession")
	}
	return nil
}

func (s *AuthService) setSession(instance provider.AuthInstance) error {
	user := instance.CurrentUser()
	profile := user.BasicProfile()
	authResult := user.AuthResponse(true)
	if err := s.sessions.Save(authResult, profile); err != nil {
		return err
	}
	s.authenticated.Store(true)
	return nil
}

// Logout signs the user out and clears the stored session.
func (s *AuthService) Logout(ctx context.Context) error {
	instance, err := s.instance()
	if err != nil {
		return err
	}
	if err := instance.SignOut(ctx); err != nil {
		return &ProviderError{Op: "signOut", Err: err}
	}
	return s.clearSession("[AuthService.Logout] sessions.Clear")
}

// Disconnect revokes the scopes granted to the client and clears the stored session.
func (s *AuthService) Disconnect(ctx context.Context) error {
	instance, err := s.instance()
	if err != nil {
		return err
	}
	if err := instance.Disconnect(ctx); err != nil {
		return &ProviderError{Op: "disconnect", Err: err}
	}
	return s.clearSession("[AuthService.Disconnect] sessions.Clear")
}

func (s *AuthService) clearSession(where string) error {
	s.authenticated.Store(false)
	if err := s.sessions.Clear(); err != nil {
		return errors.Wrap(err, where)
	}
	return nil
}

// RefreshToken reloads the current user's tokens and stores them. The stored profile and
// the authenticated flag are left alone.
func (s *AuthService) RefreshToken(ctx context.Context) error {
	instance, err := s.instance()
	if err != nil {
		return err
	}
	authResult, err := instance.CurrentUser().ReloadAuthResponse(ctx)
	if err != nil {
		return &ProviderError{Op: "reloadAuthResponse", Err: err}
	}
	if err := s.sessions.Save(authResult, nil); err != nil {
		return errors.Wrap(err, "[AuthService.RefreshToken] sessions.Save")
	}
	return nil
}

// GrantOfflineAccess asks the provider for an offline access code and keeps it in memory.
// A result without a code fails with ErrMissingOfflineCode and leaves the previous code.
func (s *AuthService) GrantOfflineAccess(ctx context.Context) (string, error) {
	instance, err := s.instance()
	if err != nil {
		return "", err
	}
	result, err := instance.GrantOfflineAccess(ctx)
	if err != nil {
		return "", &ProviderError{Op: "grantOfflineAccess", Err: err}
	}
	if result.Code == "" {
		return "", ErrMissingOfflineCode
	}

	s.lock.Lock()
	s.offlineAccessCode = result.Code
	s.lock.Unlock()
	return result.Code, nil
}

// GetOfflineAccessCode returns the last granted code, or "" if none was granted.
func (s *AuthService) GetOfflineAccessCode() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.offlineAccessCode
}

// IsSignedIn asks the provider whether the current user is signed in.
func (s *AuthService) IsSignedIn() (bool, error) {
	instance, err := s.instance()
	if err != nil {
		return false, err
	}
	return instance.CurrentUser().IsSignedIn(), nil
}

// IsAuthenticated reports whether the stored session has not yet expired.
// It never consults the provider.
func (s *AuthService) IsAuthenticated() bool {
	return s.sessions.IsValid()
}

// Authenticated returns the cached flag set by Login, Logout and Disconnect.
func (s *AuthService) Authenticated() bool {
	return s.authenticated.Load()
}

// ListenUserSignIn registers callback for every later sign-in state change. It also
// returns the stored user data and true when the user is signed in right now; callback
// is not called for that initial state.
func (s *AuthService) ListenUserSignIn(callback func(signedIn bool)) (oauthmodel.UserData, bool, error) {
	instance, err := s.instance()
	if err != nil {
		return oauthmodel.UserData{}, false, err
	}
	if callback == nil {
		return oauthmodel.UserData{}, false, errors.New("[AuthService.ListenUserSignIn] callback is required")
	}
	instance.ListenSignedIn(callback)
	if instance.CurrentUser().IsSignedIn() {
		return s.GetUserData(), true, nil
	}
	return oauthmodel.UserData{}, false, nil
}

// GetUserData returns the stored session as user data without checking its validity.
func (s *AuthService) GetUserData() oauthmodel.UserData {
	return s.sessions.ReadAll().UserData()
}
