// Package providerfake is an in-memory identity provider for tests and local development.
package providerfake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/provider"
)

var (
	_ provider.Global       = (*FakeGlobal)(nil)
	_ provider.AuthInstance = (*FakeAuthInstance)(nil)
	_ provider.User         = (*FakeUser)(nil)
)

// FakeGlobal records how often it was loaded and initialised. InitGate, when set, blocks
// InitClient until it is closed so tests can hold initialisation in flight.
type FakeGlobal struct {
	LoadErr error
	InitErr error

	// InitGate blocks InitClient until closed.
	InitGate chan struct{}
	// InitStarted is closed (once) when InitClient is entered.
	InitStarted chan struct{}

	Instance *FakeAuthInstance

	loadCalls  atomic.Int32
	initCalls  atomic.Int32
	startOnce  sync.Once
	lastConfig atomic.Value
}

func NewFakeGlobal() *FakeGlobal {
	return &FakeGlobal{
		Instance:    NewFakeAuthInstance(),
		InitStarted: make(chan struct{}),
	}
}

func (g *FakeGlobal) Load(ctx context.Context, modules ...string) error {
	g.loadCalls.Add(1)
	return g.LoadErr
}

func (g *FakeGlobal) InitClient(ctx context.Context, cfg provider.ClientConfig) error {
	g.initCalls.Add(1)
	g.lastConfig.Store(cfg)
	g.startOnce.Do(func() {
		if g.InitStarted != nil {
			close(g.InitStarted)
		}
	})
	if g.InitGate != nil {
		select {
		case <-g.InitGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.InitErr
}

func (g *FakeGlobal) AuthInstance() (provider.AuthInstance, error) {
	if g.Instance == nil {
		return nil, errors.New("no auth instance")
	}
	return g.Instance, nil
}

func (g *FakeGlobal) LoadCalls() int { return int(g.loadCalls.Load()) }
func (g *FakeGlobal) InitCalls() int { return int(g.initCalls.Load()) }

// LastConfig returns the config passed to the most recent InitClient call.
func (g *FakeGlobal) LastConfig() provider.ClientConfig {
	cfg, _ := g.lastConfig.Load().(provider.ClientConfig)
	return cfg
}

// FakeAuthInstance signs its single user in and out. Errors set on it are returned by the
// matching call and leave the state untouched.
type FakeAuthInstance struct {
	SignInErr     error
	SignOutErr    error
	DisconnectErr error
	GrantErr      error
	GrantResponse oauthmodel.OfflineAccessResponse

	User *FakeUser

	listeners      provider.Listeners
	disconnected   atomic.Bool
	signInCalls    atomic.Int32
	signOutCalls   atomic.Int32
	disconnectCall atomic.Int32
}

func NewFakeAuthInstance() *FakeAuthInstance {
	return &FakeAuthInstance{
		User: &FakeUser{},
	}
}

func (a *FakeAuthInstance) SignIn(ctx context.Context) error {
	a.signInCalls.Add(1)
	if a.SignInErr != nil {
		return a.SignInErr
	}
	a.SetSignedIn(true)
	return nil
}

func (a *FakeAuthInstance) SignOut(ctx context.Context) error {
	a.signOutCalls.Add(1)
	if a.SignOutErr != nil {
		return a.SignOutErr
	}
	a.SetSignedIn(false)
	return nil
}

func (a *FakeAuthInstance) Disconnect(ctx context.Context) error {
	a.disconnectCall.Add(1)
	if a.DisconnectErr != nil {
		return a.DisconnectErr
	}
	a.disconnected.Store(true)
	a.SetSignedIn(false)
	return nil
}

func (a *FakeAuthInstance) GrantOfflineAccess(ctx context.Context) (oauthmodel.OfflineAccessResponse, error) {
	if a.GrantErr != nil {
		return oauthmodel.OfflineAccessResponse{}, a.GrantErr
	}
	return a.GrantResponse, nil
}

func (a *FakeAuthInstance) CurrentUser() provider.User {
	return a.User
}

func (a *FakeAuthInstance) ListenSignedIn(listener func(signedIn bool)) func() {
	return a.listeners.Add(listener)
}

// SetSignedIn changes the user's state and notifies listeners if it changed, the way an
// external sign-in (another tab, an expired grant) would.
func (a *FakeAuthInstance) SetSignedIn(signedIn bool) {
	if a.User.signedIn.Swap(signedIn) != signedIn {
		a.listeners.Notify(signedIn)
	}
}

func (a *FakeAuthInstance) Disconnected() bool { return a.disconnected.Load() }
func (a *FakeAuthInstance) SignInCalls() int   { return int(a.signInCalls.Load()) }
func (a *FakeAuthInstance) SignOutCalls() int  { return int(a.signOutCalls.Load()) }
func (a *FakeAuthInstance) DisconnectCalls() int {
	return int(a.disconnectCall.Load())
}
func (a *FakeAuthInstance) ListenerCount() int { return a.listeners.Len() }

// FakeUser returns the configured profile and tokens.
type FakeUser struct {
	Profile  *oauthmodel.BasicProfile
	Response oauthmodel.AuthResponse

	ReloadResponse oauthmodel.AuthResponse
	ReloadErr      error

	signedIn atomic.Bool
	lock     sync.RWMutex
}

func (u *FakeUser) BasicProfile() *oauthmodel.BasicProfile {
	if !u.IsSignedIn() {
		return nil
	}
	u.lock.RLock()
	defer u.lock.RUnlock()
	return u.Profile
}

func (u *FakeUser) AuthResponse(includeAuthorizationData bool) oauthmodel.AuthResponse {
	u.lock.RLock()
	defer u.lock.RUnlock()

	resp := u.Response
	if !includeAuthorizationData {
		resp.AccessToken = ""
		resp.RefreshToken = ""
	}
	return resp
}

func (u *FakeUser) ReloadAuthResponse(ctx context.Context) (oauthmodel.AuthResponse, error) {
	if u.ReloadErr != nil {
		return oauthmodel.AuthResponse{}, u.ReloadErr
	}
	u.lock.Lock()
	defer u.lock.Unlock()
	u.Response = u.ReloadResponse
	return u.ReloadResponse, nil
}

func (u *FakeUser) IsSignedIn() bool {
	return u.signedIn.Load()
}
