package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mcpkit-go/mcpkit/pkg/auth"
)

// ResolveAuth builds the auth.Provider for a RemoteServer. If server.AuthType
// is set, it builds that provider from server.AuthConfig. If unset, it
// probes environment variables named after the server, in order:
// <NAME>_TOKEN (bearer), <NAME>_API_KEY (API key on X-API-Key), then
// <NAME>_USERNAME + <NAME>_PASSWORD (basic). The first match wins; if none
// match, ResolveAuth returns (nil, nil) and the caller connects without
// authentication.
func ResolveAuth(server RemoteServer) (auth.Provider, error) {
	if server.AuthType != "" {
		return buildConfiguredAuth(server.AuthType, server.AuthConfig)
	}
	return probeEnvAuth(server.Name), nil
}

func buildConfiguredAuth(authType string, cfg map[string]string) (auth.Provider, error) {
	switch authType {
	case "bearer":
		return &auth.BearerProvider{Token: cfg["token"]}, nil
	case "apiKey":
		return &auth.APIKeyProvider{
			Header: cfg["header"],
			Prefix: cfg["prefix"],
			Key:    cfg["key"],
		}, nil
	case "basic":
		return &auth.BasicProvider{
			Username: cfg["username"],
			Password: cfg["password"],
		}, nil
	case "oauth":
		// OAuth needs a discovery round-trip and a persistent token
		// store; building it is the caller's job (see pkg/auth/oauth.go
		// and pkg/auth/discovery.go). ResolveAuth only recognizes the
		// name here so a host's config validation can accept it.
		return nil, fmt.Errorf("config: auth_type %q requires an auth.OAuthProvider or auth.OAuthDiscoveryProvider, not a static provider", authType)
	default:
		return nil, fmt.Errorf("config: unknown auth_type %q", authType)
	}
}

func probeEnvAuth(serverName string) auth.Provider {
	prefix := envPrefix(serverName)

	if token := os.Getenv(prefix + "_TOKEN"); token != "" {
		return &auth.BearerProvider{Token: token}
	}
	if key := os.Getenv(prefix + "_API_KEY"); key != "" {
		return &auth.APIKeyProvider{Key: key}
	}
	username := os.Getenv(prefix + "_USERNAME")
	password := os.Getenv(prefix + "_PASSWORD")
	if username != "" && password != "" {
		return &auth.BasicProvider{Username: username, Password: password}
	}
	return nil
}

// envPrefix uppercases a server name and replaces characters that can't
// appear in a shell environment variable name with underscores, so
// "my-server.prod" probes MY_SERVER_PROD_TOKEN and friends.
func envPrefix(name string) string {
	upper := strings.ToUpper(name)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
