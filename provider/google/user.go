package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/storage"
	"golang.org/x/oauth2"
)

// TokenStoreKey is the key the signed-in user is kept under in the token store.
const TokenStoreKey = "google.token"

type storedUser struct {
	Token   *oauth2.Token            `json:"token"`
	IDToken string                   `json:"id_token"`
	Scope   string                   `json:"scope,omitempty"`
	Profile *oauthmodel.BasicProfile `json:"profile,omitempty"`
}

// User holds the signed-in user's tokens. The zero state is signed out. With a store the
// user survives the process: every change is written through and InitClient restores it.
type User struct {
	oauthConfig   *oauth2.Config
	nowTime       func() time.Time
	clientContext func(context.Context) context.Context
	store         storage.Store

	lock    sync.RWMutex
	token   *oauth2.Token
	idToken string
	scope   string
	profile *oauthmodel.BasicProfile
}

// set replaces the signed-in user. Memory is only changed once the store accepted the user.
func (u *User) set(token *oauth2.Token, idToken string, profile *oauthmodel.BasicProfile) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	scope, _ := token.Extra("scope").(string)
	if profile == nil {
		profile = u.profile
	}
	if err := u.save(storedUser{Token: token, IDToken: idToken, Scope: scope, Profile: profile}); err != nil {
		return err
	}
	u.token = token
	u.idToken = idToken
	u.scope = scope
	u.profile = profile
	return nil
}

// save must be called with the write lock held.
func (u *User) save(record storedUser) error {
	if u.store == nil {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("google: encoding stored user: %w", err)
	}
	if err := u.store.Set(TokenStoreKey, string(raw)); err != nil {
		return fmt.Errorf("google: storing user: %w", err)
	}
	return nil
}

// restore loads the user kept by an earlier process. A missing record leaves the user
// signed out.
func (u *User) restore() error {
	if u.store == nil {
		return nil
	}
	raw, err := u.store.Get(TokenStoreKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("google: reading stored user: %w", err)
	}

	var record storedUser
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("google: decoding stored user: %w", err)
	}
	if record.Token == nil || record.Token.AccessToken == "" {
		return nil
	}

	u.lock.Lock()
	defer u.lock.Unlock()
	u.token = record.Token
	u.idToken = record.IDToken
	u.scope = record.Scope
	u.profile = record.Profile
	return nil
}

// clear signs the user out and reports whether they were signed in. Memory is cleared
// even when the store fails.
func (u *User) clear() (bool, error) {
	u.lock.Lock()
	defer u.lock.Unlock()
	wasSignedIn := u.token != nil
	u.token = nil
	u.idToken = ""
	u.scope = ""
	u.profile = nil

	if u.store == nil {
		return wasSignedIn, nil
	}
	if err := u.store.Remove(TokenStoreKey); err != nil {
		return wasSignedIn, fmt.Errorf("google: removing stored user: %w", err)
	}
	return wasSignedIn, nil
}

func (u *User) revocableToken() string {
	u.lock.RLock()
	defer u.lock.RUnlock()
	if u.token == nil {
		return ""
	}
	if u.token.RefreshToken != "" {
		return u.token.RefreshToken
	}
	return u.token.AccessToken
}

func (u *User) BasicProfile() *oauthmodel.BasicProfile {
	u.lock.RLock()
	defer u.lock.RUnlock()
	if u.profile == nil {
		return nil
	}
	p := *u.profile
	return &p
}

func (u *User) AuthResponse(includeAuthorizationData bool) oauthmodel.AuthResponse {
	u.lock.RLock()
	defer u.lock.RUnlock()

	if u.token == nil {
		return oauthmodel.AuthResponse{}
	}
	resp := oauthmodel.AuthResponse{
		IDToken:   u.idToken,
		TokenType: u.token.TokenType,
		Scope:     u.scope,
	}
	if !u.token.Expiry.IsZero() {
		resp.ExpiresIn = int64(u.token.Expiry.Sub(u.nowTime()) / time.Second)
	}
	if includeAuthorizationData {
		resp.AccessToken = u.token.AccessToken
		resp.RefreshToken = u.token.RefreshToken
	}
	return resp
}

// ReloadAuthResponse redeems the refresh token for a fresh access token. The ID token
// is kept when the refresh response does not carry a new one. A user signed out while
// the refresh was in flight stays signed out.
func (u *User) ReloadAuthResponse(ctx context.Context) (oauthmodel.AuthResponse, error) {
	u.lock.RLock()
	var refreshToken string
	if u.token != nil {
		refreshToken = u.token.RefreshToken
	}
	u.lock.RUnlock()

	if refreshToken == "" {
		return oauthmodel.AuthResponse{}, ErrNoRefreshToken
	}

	ts := u.oauthConfig.TokenSource(u.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return oauthmodel.AuthResponse{}, fmt.Errorf("google: refresh: %w", err)
	}

	if err := u.applyRefresh(token); err != nil {
		return oauthmodel.AuthResponse{}, err
	}

	resp := u.AuthResponse(true)
	if err := resp.Validate(); err != nil {
		return oauthmodel.AuthResponse{}, err
	}
	return resp, nil
}

func (u *User) applyRefresh(token *oauth2.Token) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	if u.token == nil {
		return ErrNotSignedIn
	}
	idToken := u.idToken
	if fresh, ok := token.Extra("id_token").(string); ok && fresh != "" {
		idToken = fresh
	}
	scope := u.scope
	if fresh, ok := token.Extra("scope").(string); ok && fresh != "" {
		scope = fresh
	}
	if err := u.save(storedUser{Token: token, IDToken: idToken, Scope: scope, Profile: u.profile}); err != nil {
		return err
	}
	u.token = token
	u.idToken = idToken
	u.scope = scope
	return nil
}

func (u *User) IsSignedIn() bool {
	u.lock.RLock()
	defer u.lock.RUnlock()
	return u.token != nil
}
