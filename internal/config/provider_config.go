package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/go-gapi-session/provider"
	"gopkg.in/yaml.v3"
)

type ProviderConfig interface {
	// GetClientConfig returns the provider client configuration: the YAML file named by
	// GAPI_SESSION_CLIENT_CONFIG, if any, with individual environment values on top.
	GetClientConfig() (provider.ClientConfig, error)
}

type Provider struct {
	ClientConfigFile string   `env:"GAPI_SESSION_CLIENT_CONFIG"`
	ClientID         string   `env:"GAPI_SESSION_CLIENT_ID"`
	ClientSecret     string   `env:"GAPI_SESSION_CLIENT_SECRET"`
	Issuer           string   `env:"GAPI_SESSION_ISSUER"`
	RedirectURI      string   `env:"GAPI_SESSION_REDIRECT_URI" envDefault:"http://127.0.0.1:8085/callback"`
	HostedDomain     string   `env:"GAPI_SESSION_HOSTED_DOMAIN"`
	Scopes           []string `env:"GAPI_SESSION_SCOPES" envSeparator:","`
}

var _ ProviderConfig = Provider{}

func (p Provider) GetClientConfig() (provider.ClientConfig, error) {
	cfg := provider.ClientConfig{}
	if p.ClientConfigFile != "" {
		raw, err := os.ReadFile(p.ClientConfigFile)
		if err != nil {
			return nil, fmt.Errorf("reading client config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parsing client config %s: %w", p.ClientConfigFile, err)
		}
		if cfg == nil {
			cfg = provider.ClientConfig{}
		}
	}

	overrides := map[string]string{
		provider.ConfigClientID:     p.ClientID,
		provider.ConfigClientSecret: p.ClientSecret,
		provider.ConfigIssuer:       p.Issuer,
		provider.ConfigHostedDomain: p.HostedDomain,
		provider.ConfigScope:        strings.Join(p.Scopes, " "),
	}
	for k, v := range overrides {
		if v != "" {
			cfg[k] = v
		}
	}
	if cfg.String(provider.ConfigRedirectURI) == "" {
		cfg[provider.ConfigRedirectURI] = p.RedirectURI
	}

	if cfg.String(provider.ConfigClientID) == "" {
		return nil, fmt.Errorf("client config: %s is required", provider.ConfigClientID)
	}
	return cfg, nil
}
