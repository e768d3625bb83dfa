package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-gapi-session/internal/config"
	"github.com/jrsteele09/go-gapi-session/provider"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("GAPI_SESSION_CLIENT_ID", "client-1")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "GAPI Session", c.GetAppName())
	require.Equal(t, 30*time.Second, c.GetInitTimeout())
	require.Equal(t, config.StorageSecureFile, c.GetStorageDriver())
	require.Equal(t, 0, c.GetRedisDB())

	cfg, err := c.GetClientConfig()
	require.NoError(t, err)
	require.Equal(t, "client-1", cfg.String(provider.ConfigClientID))
	require.Equal(t, "http://127.0.0.1:8085/callback", cfg.String(provider.ConfigRedirectURI))
	require.Nil(t, cfg.Scopes())
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("GAPI_SESSION_INIT_TIMEOUT", "soon")
	_, err := config.New()
	require.Error(t, err)
}

func TestGetClientConfig_FileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client_id: from-file
scope: openid email
fetch_basic_profile: true
redirect_uri: http://localhost:9000/cb
`), 0o600))

	t.Setenv("GAPI_SESSION_CLIENT_CONFIG", path)
	t.Setenv("GAPI_SESSION_SCOPES", "openid,profile")

	c, err := config.New()
	require.NoError(t, err)

	cfg, err := c.GetClientConfig()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.String(provider.ConfigClientID))
	require.Equal(t, []string{"openid", "profile"}, cfg.Scopes())
	require.Equal(t, "http://localhost:9000/cb", cfg.String(provider.ConfigRedirectURI))
	require.Equal(t, true, cfg["fetch_basic_profile"])
}

func TestGetClientConfig_RequiresClientID(t *testing.T) {
	t.Setenv("GAPI_SESSION_CLIENT_ID", "")
	t.Setenv("GAPI_SESSION_CLIENT_CONFIG", "")

	c, err := config.New()
	require.NoError(t, err)

	_, err = c.GetClientConfig()
	require.Error(t, err)
}
