package provider

import "github.com/jrsteele09/go-gapi-session/internal/utils"

// Well known ClientConfig keys.
const (
	ConfigClientID     = "client_id"
	ConfigClientSecret = "client_secret"
	ConfigScope        = "scope"
	ConfigRedirectURI  = "redirect_uri"
	ConfigIssuer       = "issuer"
	ConfigHostedDomain = "hosted_domain"
)

// ClientConfig is the provider client configuration. Nothing outside the provider
// interprets it.
type ClientConfig map[string]any

// String returns the value under key if it is a string.
func (c ClientConfig) String(key string) string {
	if s, ok := c[key].(string); ok {
		return s
	}
	return ""
}

// Scopes returns the configured scopes. The value may be a space separated string or a list.
func (c ClientConfig) Scopes() []string {
	return utils.ToStringSlice(c[ConfigScope])
}
