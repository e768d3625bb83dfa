package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-gapi-session/oauthmodel"
	"github.com/jrsteele09/go-gapi-session/provider"
	"golang.org/x/oauth2"
)

type AuthInstance struct {
	global        *Global
	oauthConfig   *oauth2.Config
	verifier      *oidc.IDTokenVerifier
	revocationURL string
	hostedDomain  string

	user      *User
	listeners provider.Listeners
}

type idTokenClaims struct {
	Subject    string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	Email      string `json:"email"`
	Nonce      string `json:"nonce"`
	HD         string `json:"hd"`
}

type authorization struct {
	code     string
	verifier string
	nonce    string
}

// authorize runs the front channel of the authorization code flow. With pkce false the
// code is meant for another party to redeem, so no verifier is attached.
func (a *AuthInstance) authorize(ctx context.Context, pkce bool, opts ...oauth2.AuthCodeOption) (authorization, error) {
	state := uuid.NewString()
	auth := authorization{nonce: uuid.NewString()}

	opts = append(opts, oidc.Nonce(auth.nonce))
	if pkce {
		auth.verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(auth.verifier))
	}
	if a.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", a.hostedDomain))
	}

	code, gotState, err := a.global.authorizer(ctx, a.oauthConfig.AuthCodeURL(state, opts...))
	if err != nil {
		return authorization{}, fmt.Errorf("google: authorization: %w", err)
	}
	if gotState != state {
		return authorization{}, ErrStateMismatch
	}
	auth.code = code
	return auth, nil
}

// SignIn authorizes the user, redeems the code and verifies the returned ID token.
func (a *AuthInstance) SignIn(ctx context.Context) error {
	auth, err := a.authorize(ctx, true)
	if err != nil {
		return err
	}

	ctx = a.global.clientContext(ctx)
	token, err := a.oauthConfig.Exchange(ctx, auth.code, oauth2.VerifierOption(auth.verifier))
	if err != nil {
		return fmt.Errorf("google: token exchange: %w", err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return oauthmodel.ErrMissingIDToken
	}
	profile, err := a.verifyIDToken(ctx, rawIDToken, auth.nonce)
	if err != nil {
		return err
	}

	wasSignedIn := a.user.IsSignedIn()
	if err := a.user.set(token, rawIDToken, profile); err != nil {
		return err
	}
	if !wasSignedIn {
		a.listeners.Notify(true)
	}
	return nil
}

func (a *AuthInstance) verifyIDToken(ctx context.Context, rawIDToken, nonce string) (*oauthmodel.BasicProfile, error) {
	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google: id token verification: %w", err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google: id token claims: %w", err)
	}
	if claims.Nonce != nonce {
		return nil, ErrNonceMismatch
	}
	if claims.Subject == "" {
		return nil, oauthmodel.ErrMissingSubject
	}
	if a.hostedDomain != "" && claims.HD != a.hostedDomain {
		return nil, ErrHostedDomain
	}

	a.global.logger.Debug().
		Str("issuer", idToken.Issuer).
		Bool("email_present", claims.Email != "").
		Time("expiry", idToken.Expiry).
		Msg("google id token verified")

	return &oauthmodel.BasicProfile{
		ID:         claims.Subject,
		Name:       claims.Name,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		ImageURL:   claims.Picture,
		Email:      claims.Email,
	}, nil
}

// SignOut forgets the current user's tokens. Nothing is revoked at the provider.
func (a *AuthInstance) SignOut(ctx context.Context) error {
	wasSignedIn, err := a.user.clear()
	if wasSignedIn {
		a.listeners.Notify(false)
	}
	return err
}

// Disconnect revokes the user's grant at the provider, then signs out.
func (a *AuthInstance) Disconnect(ctx context.Context) error {
	token := a.user.revocableToken()
	if token == "" {
		return ErrNotSignedIn
	}
	if err := a.revoke(ctx, token); err != nil {
		return err
	}
	return a.SignOut(ctx)
}

func (a *AuthInstance) revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("google: revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := a.global.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("google: revoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("google: revoke: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// GrantOfflineAccess asks for offline access with forced consent and returns the code
// without redeeming it.
func (a *AuthInstance) GrantOfflineAccess(ctx context.Context) (oauthmodel.OfflineAccessResponse, error) {
	auth, err := a.authorize(ctx, false, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err != nil {
		return oauthmodel.OfflineAccessResponse{}, err
	}
	return oauthmodel.OfflineAccessResponse{Code: auth.code}, nil
}

func (a *AuthInstance) CurrentUser() provider.User {
	return a.user
}

func (a *AuthInstance) ListenSignedIn(listener func(signedIn bool)) func() {
	return a.listeners.Add(listener)
}
