package provider_test

import (
	"testing"

	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/stretchr/testify/require"
)

func TestClientConfig(t *testing.T) {
	cfg := provider.ClientConfig{
		provider.ConfigClientID: "client-1",
		provider.ConfigScope:    "openid  profile email",
		"fetch_basic_profile":   true,
	}
	require.Equal(t, "client-1", cfg.String(provider.ConfigClientID))
	require.Equal(t, "", cfg.String("fetch_basic_profile"))
	require.Equal(t, []string{"openid", "profile", "email"}, cfg.Scopes())

	cfg[provider.ConfigScope] = []any{"openid", 3, "email"}
	require.Equal(t, []string{"openid", "email"}, cfg.Scopes())

	require.Nil(t, provider.ClientConfig{}.Scopes())
}

func TestListeners(t *testing.T) {
	var l provider.Listeners
	var got []bool

	unsubscribe := l.Add(func(signedIn bool) { got = append(got, signedIn) })
	l.Add(func(bool) {})
	require.Equal(t, 2, l.Len())

	l.Notify(true)
	l.Notify(false)
	require.Equal(t, []bool{true, false}, got)

	unsubscribe()
	require.Equal(t, 1, l.Len())
	l.Notify(true)
	require.Equal(t, []bool{true, false}, got)
}
