package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpkit-go/mcpkit/pkg/auth"
)

func TestResolveAuthPrefersBearerTokenEnvVar(t *testing.T) {
	t.Setenv("WEATHER_TOKEN", "tok-123")
	t.Setenv("WEATHER_API_KEY", "should-not-be-used")

	provider, err := ResolveAuth(RemoteServer{Name: "weather"})
	require.NoError(t, err)
	require.NotNil(t, provider)

	bearer, ok := provider.(*auth.BearerProvider)
	require.True(t, ok)
	assert.Equal(t, "tok-123", bearer.Token)
}

func TestResolveAuthFallsBackToAPIKey(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "key-456")

	provider, err := ResolveAuth(RemoteServer{Name: "weather"})
	require.NoError(t, err)

	apiKey, ok := provider.(*auth.APIKeyProvider)
	require.True(t, ok)
	assert.Equal(t, "key-456", apiKey.Key)
}

func TestResolveAuthFallsBackToBasic(t *testing.T) {
	t.Setenv("WEATHER_USERNAME", "alice")
	t.Setenv("WEATHER_PASSWORD", "hunter2")

	provider, err := ResolveAuth(RemoteServer{Name: "weather"})
	require.NoError(t, err)

	basic, ok := provider.(*auth.BasicProvider)
	require.True(t, ok)
	assert.Equal(t, "alice", basic.Username)
	assert.Equal(t, "hunter2", basic.Password)
}

func TestResolveAuthReturnsNilWhenNothingConfigured(t *testing.T) {
	provider, err := ResolveAuth(RemoteServer{Name: "ghost-server-no-env"})
	require.NoError(t, err)
	assert.Nil(t, provider)
}

func TestResolveAuthBasicRequiresBothUsernameAndPassword(t *testing.T) {
	t.Setenv("WEATHER_USERNAME", "alice")

	provider, err := ResolveAuth(RemoteServer{Name: "weather"})
	require.NoError(t, err)
	assert.Nil(t, provider)
}

func TestResolveAuthExplicitAuthTypeBypassesEnvProbe(t *testing.T) {
	t.Setenv("WEATHER_TOKEN", "should-not-be-used")

	provider, err := ResolveAuth(RemoteServer{
		Name:       "weather",
		AuthType:   "apiKey",
		AuthConfig: map[string]string{"key": "configured-key", "header": "X-Custom"},
	})
	require.NoError(t, err)

	apiKey, ok := provider.(*auth.APIKeyProvider)
	require.True(t, ok)
	assert.Equal(t, "configured-key", apiKey.Key)
	assert.Equal(t, "X-Custom", apiKey.Header)
}

func TestResolveAuthRejectsUnknownAuthType(t *testing.T) {
	_, err := ResolveAuth(RemoteServer{Name: "weather", AuthType: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestResolveAuthRejectsOAuthAsStaticProvider(t *testing.T) {
	_, err := ResolveAuth(RemoteServer{Name: "weather", AuthType: "oauth"})
	assert.Error(t, err)
}

func TestEnvPrefixNormalizesNonAlphanumerics(t *testing.T) {
	assert.Equal(t, "MY_SERVER_PROD", envPrefix("my-server.prod"))
}
