// Package gapi exposes the identity provider to a host application as a small set of
// session operations under the "$gapi" namespace.
//
// A Plugin owns one lazily initialised provider client and one session store. Every
// provider-backed operation first waits for the client to be ready, then delegates to
// the AuthService.
package gapi

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/jrsteele09/go-gapi-session/session"
	"github.com/jrsteele09/go-gapi-session/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Namespace is the name the plugin registers its operations under.
const Namespace = "$gapi"

const defaultInitTimeout = 30 * time.Second

// Host is the application the plugin installs itself into.
type Host interface {
	Provide(namespace string, plugin *Plugin) error
}

type pluginOptions struct {
	initTimeout time.Duration
	logger      zerolog.Logger
	nowTime     func() time.Time
}

// Option defines a function type to modify the Plugin configuration.
type Option func(*pluginOptions)

// WithInitTimeout bounds provider client initialisation. Waiters get a *ProviderInitError
// when it expires.
func WithInitTimeout(d time.Duration) Option {
	return func(o *pluginOptions) {
		o.initTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *pluginOptions) {
		o.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *pluginOptions) {
		o.nowTime = nowFunc
	}
}

// Plugin is the operation set handed to the host.
type Plugin struct {
	service *AuthService
	loader  *clientLoader
}

// New builds a Plugin. global may be nil, in which case initialisation fails with
// ErrMissingGlobal when first attempted.
func New(global provider.Global, store storage.Store, clientConfig provider.ClientConfig, options ...Option) (*Plugin, error) {
	opts := pluginOptions{
		initTimeout: defaultInitTimeout,
		logger:      log.Logger,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.initTimeout <= 0 {
		return nil, errors.New("[gapi.New] init timeout must be positive")
	}

	sessions, err := session.New(store, session.WithNowTime(opts.nowTime), session.WithLogger(opts.logger))
	if err != nil {
		return nil, err
	}
	service, err := NewAuthService(sessions)
	if err != nil {
		return nil, err
	}

	return &Plugin{
		service: service,
		loader: &clientLoader{
			global:  global,
			config:  clientConfig,
			timeout: opts.initTimeout,
			onReady: service.setAuthInstance,
			logger:  opts.logger.With().Str("component", "gapi").Logger(),
		},
	}, nil
}

// Install builds a Plugin and registers it with host under Namespace.
func Install(host Host, global provider.Global, store storage.Store, clientConfig provider.ClientConfig, options ...Option) (*Plugin, error) {
	if host == nil {
		return nil, errors.New("[gapi.Install] host is required")
	}
	p, err := New(global, store, clientConfig, options...)
	if err != nil {
		return nil, err
	}
	if err := host.Provide(Namespace, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Service returns the underlying AuthService.
func (p *Plugin) Service() *AuthService {
	return p.service
}

// State reports the provider client lifecycle state.
func (p *Plugin) State() State {
	return p.loader.State()
}

// GetGapiClient waits for the provider client to be ready and returns the provider global.
func (p *Plugin) GetGapiClient(ctx context.Context) (provider.Global, error) {
	return p.loader.ensureReady(ctx)
}

// IsGapiLoaded reports whether the provider client has finished initialising.
func (p *Plugin) IsGapiLoaded() bool {
	return p.loader.State() == StateReady
}

// Login signs the user in. onSuccess, if set, runs only after the session was stored.
func (p *Plugin) Login(ctx context.Context, onSuccess func()) error {
	return p.withClient(ctx, onSuccess, p.service.Login)
}

// Logout signs the user out. onSuccess, if set, runs only after the session was cleared.
func (p *Plugin) Logout(ctx context.Context, onSuccess func()) error {
	return p.withClient(ctx, onSuccess, p.service.Logout)
}

// Disconnect revokes the user's grant. onSuccess, if set, runs only after the session was cleared.
func (p *Plugin) Disconnect(ctx context.Context, onSuccess func()) error {
	return p.withClient(ctx, onSuccess, p.service.Disconnect)
}

func (p *Plugin) RefreshToken(ctx context.Context) error {
	return p.withClient(ctx, nil, p.service.RefreshToken)
}

func (p *Plugin) GrantOfflineAccess(ctx context.Context) (string, error) {
	if _, err := p.loader.ensureReady(ctx); err != nil {
		return "", err
	}
	return p.service.GrantOfflineAccess(ctx)
}

func (p *Plugin) ListenUserSignIn(ctx context.Context, callback func(signedIn bool)) (oauthmodel.UserData, bool, error) {
	if _, err := p.loader.ensureReady(ctx); err != nil {
		return oauthmodel.UserData{}, false, err
	}
	return p.service.ListenUserSignIn(callback)
}

func (p *Plugin) IsSignedIn(ctx context.Context) (bool, error) {
	if _, err := p.loader.ensureReady(ctx); err != nil {
		return false, err
	}
	return p.service.IsSignedIn()
}

// IsAuthenticated checks the stored session only and never initialises the client.
func (p *Plugin) IsAuthenticated() bool {
	return p.service.IsAuthenticated()
}

func (p *Plugin) GetUserData() oauthmodel.UserData {
	return p.service.GetUserData()
}

func (p *Plugin) GetOfflineAccessCode() string {
	return p.service.GetOfflineAccessCode()
}

func (p *Plugin) withClient(ctx context.Context, onSuccess func(), op func(context.Context) error) error {
	if _, err := p.loader.ensureReady(ctx); err != nil {
		return err
	}
	if err := op(ctx); err != nil {
		return err
	}
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}
