// Package google implements the provider capability on top of Google's OpenID Connect
// endpoints using golang.org/x/oauth2 and go-oidc.
//
// Sign-in runs the authorization code flow with PKCE. The host supplies an Authorizer
// that takes the user to the consent URL and hands back the code and state it received.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/jrsteele09/go-gapi-session/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultIssuer        = "https://accounts.google.com"
	defaultRevocationURL = "https://oauth2.googleapis.com/revoke"
)

var (
	ErrModuleNotLoaded = errors.New("google: module not loaded")
	ErrUnknownModule   = errors.New("google: unknown module")
	ErrNotInitialised  = errors.New("google: client not initialised")
	ErrStateMismatch   = errors.New("google: authorization state mismatch")
	ErrNonceMismatch   = errors.New("google: id token nonce mismatch")
	ErrNotSignedIn     = errors.New("google: no user signed in")
	ErrNoRefreshToken  = errors.New("google: no refresh token to reload with")
	ErrHostedDomain    = errors.New("google: user not in hosted domain")
)

var (
	_ provider.Global       = (*Global)(nil)
	_ provider.AuthInstance = (*AuthInstance)(nil)
	_ provider.User         = (*User)(nil)
)

// Authorizer sends the user to authURL and returns the code and state from the
// authorization response.
type Authorizer func(ctx context.Context, authURL string) (code, state string, err error)

// Global is the provider entry point: load modules, initialise the client, hand out the
// auth instance.
type Global struct {
	authorizer Authorizer
	httpClient *http.Client
	tokenStore storage.Store
	nowTime    func() time.Time
	logger     zerolog.Logger

	lock     sync.Mutex
	loaded   map[string]bool
	instance *AuthInstance
}

type Option func(*Global)

// WithHTTPClient sets the client used for discovery, token and revocation requests.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Global) {
		g.httpClient = client
	}
}

// WithTokenStore keeps the signed-in user in store under TokenStoreKey so a later
// process starts signed in.
func WithTokenStore(store storage.Store) Option {
	return func(g *Global) {
		g.tokenStore = store
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Global) {
		g.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Global) {
		g.logger = logger
	}
}

func New(authorizer Authorizer, options ...Option) (*Global, error) {
	if authorizer == nil {
		return nil, errors.New("[google.New] authorizer is required")
	}
	g := &Global{
		authorizer: authorizer,
		nowTime:    time.Now,
		logger:     log.Logger,
		loaded:     make(map[string]bool),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Load accepts module names individually or colon separated ("client:auth2").
func (g *Global) Load(ctx context.Context, modules ...string) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	for _, m := range modules {
		for _, name := range strings.Split(m, ":") {
			switch name {
			case provider.ModuleClient, provider.ModuleAuth2:
				g.loaded[name] = true
			default:
				return fmt.Errorf("%w: %q", ErrUnknownModule, name)
			}
		}
	}
	return nil
}

// InitClient runs OIDC discovery against the configured issuer and prepares the
// auth instance.
func (g *Global) InitClient(ctx context.Context, cfg provider.ClientConfig) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	for _, m := range []string{provider.ModuleClient, provider.ModuleAuth2} {
		if !g.loaded[m] {
			return fmt.Errorf("%w: %s", ErrModuleNotLoaded, m)
		}
	}

	clientID := cfg.String(provider.ConfigClientID)
	if clientID == "" {
		return errors.New("google: client_id is required")
	}
	issuer := cfg.String(provider.ConfigIssuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	scopes := cfg.Scopes()
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	ctx = g.clientContext(ctx)
	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return fmt.Errorf("google: oidc discovery: %w", err)
	}

	var discovery struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := oidcProvider.Claims(&discovery); err != nil {
		return fmt.Errorf("google: reading discovery document: %w", err)
	}
	revocationURL := discovery.RevocationEndpoint
	if revocationURL == "" {
		revocationURL = defaultRevocationURL
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: cfg.String(provider.ConfigClientSecret),
		RedirectURL:  cfg.String(provider.ConfigRedirectURI),
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       scopes,
	}

	user := &User{
		oauthConfig:   oauthCfg,
		nowTime:       g.nowTime,
		clientContext: g.clientContext,
		store:         g.tokenStore,
	}
	if err := user.restore(); err != nil {
		g.logger.Warn().Err(err).Msg("Ignoring stored google user")
	}

	g.instance = &AuthInstance{
		global:        g,
		oauthConfig:   oauthCfg,
		revocationURL: revocationURL,
		hostedDomain:  cfg.String(provider.ConfigHostedDomain),
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
			Now:      g.nowTime,
		}),
		user: user,
	}

	g.logger.Info().Str("issuer", issuer).Strs("scopes", scopes).Bool("restored", user.IsSignedIn()).Msg("google client initialised")
	return nil
}

func (g *Global) AuthInstance() (provider.AuthInstance, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.instance == nil {
		return nil, ErrNotInitialised
	}
	return g.instance, nil
}

func (g *Global) clientContext(ctx context.Context) context.Context {
	if g.httpClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, g.httpClient)
}
