package gapi_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-gapi-session/gapi"
	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/jrsteele09/go-gapi-session/provider/providerfake"
	"github.com/jrsteele09/go-gapi-session/session"
	"github.com/jrsteele09/go-gapi-session/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var testClientConfig = provider.ClientConfig{
	provider.ConfigClientID: "test-client-1.apps.example.com",
	provider.ConfigScope:    "openid profile email",
}

// testFixture holds all test dependencies
type testFixture struct {
	global *providerfake.FakeGlobal
	kv     *memory.Store
	plugin *gapi.Plugin
}

func setupTestFixture(t *testing.T, options ...gapi.Option) *testFixture {
	t.Helper()

	f := &testFixture{
		global: providerfake.NewFakeGlobal(),
		kv:     memory.New(),
	}
	options = append([]gapi.Option{
		gapi.WithNowTime(func() time.Time { return testNow }),
		gapi.WithLogger(zerolog.Nop()),
	}, options...)

	p, err := gapi.New(f.global, f.kv, testClientConfig, options...)
	require.NoError(t, err)
	f.plugin = p
	return f
}

func (f *testFixture) user() *providerfake.FakeUser {
	return f.global.Instance.User
}

func defaultProfile() *oauthmodel.BasicProfile {
	return &oauthmodel.BasicProfile{
		ID:         "u1",
		Name:       "John Doe",
		GivenName:  "John",
		FamilyName: "Doe",
		ImageURL:   "https://example.com/john.png",
		Email:      "john.doe@example.com",
	}
}

func expiryAfter(seconds int64) string {
	return strconv.FormatInt(testNow.UnixMilli()+seconds*1000, 10)
}

func TestPlugin_GetGapiClientConcurrentCallersShareOneInit(t *testing.T) {
	f := setupTestFixture(t)
	f.global.InitGate = make(chan struct{})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]provider.Global, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.plugin.GetGapiClient(context.Background())
		}(i)
	}

	<-f.global.InitStarted
	require.Equal(t, gapi.StateInitializing, f.plugin.State())
	require.False(t, f.plugin.IsGapiLoaded())

	close(f.global.InitGate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, f.global, results[i])
	}
	require.Equal(t, 1, f.global.LoadCalls())
	require.Equal(t, 1, f.global.InitCalls())
	require.Equal(t, gapi.StateReady, f.plugin.State())
	require.True(t, f.plugin.IsGapiLoaded())
	require.Equal(t, testClientConfig, f.global.LastConfig())

	_, err := f.plugin.GetGapiClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.global.InitCalls())
}

func TestPlugin_InitFailure(t *testing.T) {
	f := setupTestFixture(t)
	initErr := errors.New("idpiframe_initialization_failed")
	f.global.InitErr = initErr

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.plugin.Login(context.Background(), nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, gapi.ErrProviderInit)
		require.ErrorIs(t, err, initErr)
		var initError *gapi.ProviderInitError
		require.ErrorAs(t, err, &initError)
		require.Equal(t, "client.init", initError.Step)
	}
	require.Equal(t, gapi.StateFailed, f.plugin.State())
	require.False(t, f.plugin.IsGapiLoaded())
	require.Equal(t, 0, f.global.Instance.SignInCalls())

	t.Run("next call starts a new attempt", func(t *testing.T) {
		f.global.InitErr = nil
		_, err := f.plugin.GetGapiClient(context.Background())
		require.NoError(t, err)
		require.Equal(t, gapi.StateReady, f.plugin.State())
		require.GreaterOrEqual(t, f.global.InitCalls(), 2)
	})
}

func TestPlugin_LoadFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.global.LoadErr = errors.New("script blocked")

	_, err := f.plugin.GetGapiClient(context.Background())
	require.ErrorIs(t, err, gapi.ErrProviderInit)
	require.Equal(t, 0, f.global.InitCalls())
}

func TestPlugin_MissingGlobal(t *testing.T) {
	p, err := gapi.New(nil, memory.New(), testClientConfig, gapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = p.GetGapiClient(context.Background())
	require.ErrorIs(t, err, gapi.ErrProviderInit)
	require.ErrorIs(t, err, gapi.ErrMissingGlobal)
}

func TestPlugin_InitTimeout(t *testing.T) {
	f := setupTestFixture(t, gapi.WithInitTimeout(20*time.Millisecond))
	f.global.InitGate = make(chan struct{}) // never released

	_, err := f.plugin.GetGapiClient(context.Background())
	require.ErrorIs(t, err, gapi.ErrProviderInit)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, gapi.StateFailed, f.plugin.State())
}

func TestPlugin_CallerContextCancelled(t *testing.T) {
	f := setupTestFixture(t)
	f.global.InitGate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.plugin.GetGapiClient(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The shared attempt keeps going for other callers.
	close(f.global.InitGate)
	_, err = f.plugin.GetGapiClient(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.global.InitCalls())
}

func TestNew_Validation(t *testing.T) {
	_, err := gapi.New(providerfake.NewFakeGlobal(), nil, testClientConfig)
	require.Error(t, err)

	_, err = gapi.New(providerfake.NewFakeGlobal(), memory.New(), testClientConfig, gapi.WithInitTimeout(0))
	require.Error(t, err)
}

type fakeHost struct {
	provided map[string]*gapi.Plugin
	err      error
}

func (h *fakeHost) Provide(namespace string, p *gapi.Plugin) error {
	if h.err != nil {
		return h.err
	}
	h.provided[namespace] = p
	return nil
}

func TestInstall(t *testing.T) {
	host := &fakeHost{provided: map[string]*gapi.Plugin{}}

	p, err := gapi.Install(host, providerfake.NewFakeGlobal(), memory.New(), testClientConfig, gapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Same(t, p, host.provided[gapi.Namespace])

	_, err = gapi.Install(nil, providerfake.NewFakeGlobal(), memory.New(), testClientConfig)
	require.Error(t, err)

	host.err = errors.New("namespace taken")
	_, err = gapi.Install(host, providerfake.NewFakeGlobal(), memory.New(), testClientConfig)
	require.ErrorIs(t, err, host.err)
}

func TestPlugin_Login(t *testing.T) {
	f := setupTestFixture(t)
	f.user().Profile = defaultProfile()
	f.user().Response = oauthmodel.AuthResponse{AccessToken: "A", IDToken: "I", ExpiresIn: 100}

	called := false
	err := f.plugin.Login(context.Background(), func() { called = true })
	require.NoError(t, err)
	require.True(t, called)

	require.Equal(t, oauthmodel.UserData{
		ID:          "u1",
		FirstName:   "John",
		LastName:    "Doe",
		FullName:    "John Doe",
		Email:       "john.doe@example.com",
		ImageURL:    "https://example.com/john.png",
		ExpiresAt:   expiryAfter(100),
		AccessToken: "A",
		IDToken:     "I",
	}, f.plugin.GetUserData())

	v, err := f.kv.Get(session.KeyExpiresAt)
	require.NoError(t, err)
	require.Equal(t, expiryAfter(100), v)

	require.True(t, f.plugin.Service().Authenticated())
	require.True(t, f.plugin.IsAuthenticated())
}

func TestPlugin_LoginProviderFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.global.Instance.SignInErr = errors.New("popup_closed_by_user")

	called := false
	err := f.plugin.Login(context.Background(), func() { called = true })
	require.ErrorIs(t, err, gapi.ErrProviderOperation)
	require.ErrorIs(t, err, f.global.Instance.SignInErr)

	var providerErr *gapi.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "signIn", providerErr.Op)

	require.False(t, called)
	require.False(t, f.plugin.Service().Authenticated())
	require.Equal(t, 0, f.kv.Len())
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()
	f.user().Profile = defaultProfile()
	f.user().Response = oauthmodel.AuthResponse{AccessToken: "A", IDToken: "I", ExpiresIn: 3600}
	require.NoError(t, f.plugin.Login(context.Background(), nil))
}

func TestPlugin_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	called := false
	require.NoError(t, f.plugin.Logout(context.Background(), func() { called = true }))
	require.True(t, called)
	require.Equal(t, oauthmodel.UserData{}, f.plugin.GetUserData())
	require.False(t, f.plugin.Service().Authenticated())
	require.False(t, f.plugin.IsAuthenticated())
	require.False(t, f.global.Instance.Disconnected())
	require.Equal(t, 1, f.global.Instance.SignOutCalls())
	require.Equal(t, 0, f.global.Instance.DisconnectCalls())

	t.Run("init failure makes no provider call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.global.InitErr = errors.New("idpiframe_initialization_failed")

		called := false
		err := f.plugin.Logout(context.Background(), func() { called = true })
		require.ErrorIs(t, err, gapi.ErrProviderInit)
		require.False(t, called)
		require.Equal(t, 0, f.global.Instance.SignOutCalls())
	})

	t.Run("provider failure keeps session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.global.Instance.SignOutErr = errors.New("network")

		called := false
		err := f.plugin.Logout(context.Background(), func() { called = true })
		require.ErrorIs(t, err, gapi.ErrProviderOperation)
		require.False(t, called)
		require.True(t, f.plugin.Service().Authenticated())
		require.Equal(t, "u1", f.plugin.GetUserData().ID)
	})
}

func TestPlugin_Disconnect(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	require.NoError(t, f.plugin.Disconnect(context.Background(), nil))
	require.True(t, f.global.Instance.Disconnected())
	require.Equal(t, oauthmodel.UserData{}, f.plugin.GetUserData())
	require.False(t, f.plugin.Service().Authenticated())
	require.Equal(t, 1, f.global.Instance.DisconnectCalls())
	require.Equal(t, 0, f.global.Instance.SignOutCalls())

	t.Run("init failure makes no provider call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.global.InitErr = errors.New("idpiframe_initialization_failed")

		err := f.plugin.Disconnect(context.Background(), nil)
		require.ErrorIs(t, err, gapi.ErrProviderInit)
		require.Equal(t, 0, f.global.Instance.DisconnectCalls())
	})

	t.Run("provider failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)
		f.global.Instance.DisconnectErr = errors.New("revoke failed")

		err := f.plugin.Disconnect(context.Background(), nil)
		var providerErr *gapi.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, "disconnect", providerErr.Op)
		require.True(t, f.plugin.IsAuthenticated())
	})
}

func TestPlugin_RefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.user().ReloadResponse = oauthmodel.AuthResponse{AccessToken: "A2", IDToken: "I2", ExpiresIn: 60}

	require.NoError(t, f.plugin.RefreshToken(context.Background()))

	data := f.plugin.GetUserData()
	require.Equal(t, "A2", data.AccessToken)
	require.Equal(t, "I2", data.IDToken)
	require.Equal(t, expiryAfter(60), data.ExpiresAt)
	require.Equal(t, "u1", data.ID)
	require.Equal(t, "john.doe@example.com", data.Email)
	require.True(t, f.plugin.Service().Authenticated())

	t.Run("provider failure", func(t *testing.T) {
		f.user().ReloadErr = errors.New("invalid_grant")
		err := f.plugin.RefreshToken(context.Background())
		require.ErrorIs(t, err, gapi.ErrProviderOperation)
		require.ErrorIs(t, err, f.user().ReloadErr)
		require.Equal(t, "A2", f.plugin.GetUserData().AccessToken)
	})
}

func TestPlugin_GrantOfflineAccess(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, "", f.plugin.GetOfflineAccessCode())

	f.global.Instance.GrantResponse = oauthmodel.OfflineAccessResponse{Code: "XYZ"}
	code, err := f.plugin.GrantOfflineAccess(context.Background())
	require.NoError(t, err)
	require.Equal(t, "XYZ", code)
	require.Equal(t, "XYZ", f.plugin.GetOfflineAccessCode())

	f.global.Instance.GrantResponse = oauthmodel.OfflineAccessResponse{}
	_, err = f.plugin.GrantOfflineAccess(context.Background())
	require.ErrorIs(t, err, gapi.ErrMissingOfflineCode)
	require.Equal(t, "XYZ", f.plugin.GetOfflineAccessCode())

	f.global.Instance.GrantErr = errors.New("access_denied")
	_, err = f.plugin.GrantOfflineAccess(context.Background())
	require.ErrorIs(t, err, gapi.ErrProviderOperation)
	require.Equal(t, "XYZ", f.plugin.GetOfflineAccessCode())

	// The code lives in memory only.
	require.Equal(t, 0, f.kv.Len())
}

func TestPlugin_ListenUserSignIn(t *testing.T) {
	t.Run("signed in returns snapshot without calling back", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t)

		var calls []bool
		data, signedIn, err := f.plugin.ListenUserSignIn(context.Background(), func(v bool) { calls = append(calls, v) })
		require.NoError(t, err)
		require.True(t, signedIn)
		require.Equal(t, f.plugin.GetUserData(), data)
		require.Empty(t, calls)

		f.global.Instance.SetSignedIn(false)
		f.global.Instance.SetSignedIn(true)
		require.Equal(t, []bool{false, true}, calls)
	})

	t.Run("signed out returns false", func(t *testing.T) {
		f := setupTestFixture(t)

		data, signedIn, err := f.plugin.ListenUserSignIn(context.Background(), func(bool) {})
		require.NoError(t, err)
		require.False(t, signedIn)
		require.Equal(t, oauthmodel.UserData{}, data)
		require.Equal(t, 1, f.global.Instance.ListenerCount())
	})

	t.Run("nil callback", func(t *testing.T) {
		f := setupTestFixture(t)
		_, _, err := f.plugin.ListenUserSignIn(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestPlugin_IsSignedInAndIsAuthenticatedAreIndependent(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	// The provider drops the user but the stored session has not expired.
	f.global.Instance.SetSignedIn(false)

	signedIn, err := f.plugin.IsSignedIn(context.Background())
	require.NoError(t, err)
	require.False(t, signedIn)
	require.True(t, f.plugin.IsAuthenticated())
}

func TestPlugin_IsAuthenticatedDoesNotInitialise(t *testing.T) {
	f := setupTestFixture(t)

	require.False(t, f.plugin.IsAuthenticated())
	require.Equal(t, oauthmodel.UserData{}, f.plugin.GetUserData())
	require.Equal(t, gapi.StateUninitialized, f.plugin.State())
	require.Equal(t, 0, f.global.LoadCalls())
}
