package oauthflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDoer is the subset of *http.Client (and httpclient.Client) the
// discovery and registration calls need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DiscoverProtectedResource fetches the RFC 9728 protected-resource
// metadata document. If resourceMetadataURL is non-empty (taken from a 401
// challenge's resource_metadata parameter) it is fetched directly;
// otherwise the well-known probes are tried in order against
// resourceBaseURL.
func DiscoverProtectedResource(ctx context.Context, doer HTTPDoer, resourceBaseURL, resourceMetadataURL string) (ProtectedResourceMetadata, error) {
	urls := []string{resourceMetadataURL}
	if resourceMetadataURL == "" {
		base := strings.TrimSuffix(resourceBaseURL, "/")
		urls = []string{
			base + "/.well-known/oauth-protected-resource/mcp",
			base + "/.well-known/oauth-protected-resource",
		}
	}

	var lastErr error
	for _, u := range urls {
		if u == "" {
			continue
		}
		var meta ProtectedResourceMetadata
		if err := fetchJSON(ctx, doer, u, &meta); err != nil {
			lastErr = err
			continue
		}
		if meta.Resource == "" || len(meta.AuthorizationServers) == 0 {
			lastErr = fmt.Errorf("%w: %s missing resource or authorization_servers", ErrDiscoveryFailed, u)
			continue
		}
		return meta, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no protected-resource metadata URL to probe", ErrDiscoveryFailed)
	}
	return ProtectedResourceMetadata{}, lastErr
}

// DiscoverAuthServer fetches an authorization server's metadata, trying
// OIDC discovery first and falling back to RFC 8414. It rejects servers
// that do not advertise S256 PKCE support.
func DiscoverAuthServer(ctx context.Context, doer HTTPDoer, authServerURL string) (AuthServerMetadata, error) {
	base := strings.TrimSuffix(authServerURL, "/")
	urls := []string{
		base + "/.well-known/openid-configuration",
		base + "/.well-known/oauth-authorization-server",
	}

	var meta AuthServerMetadata
	var lastErr error
	found := false
	for _, u := range urls {
		if err := fetchJSON(ctx, doer, u, &meta); err != nil {
			lastErr = err
			continue
		}
		if meta.Issuer == "" || meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" {
			lastErr = fmt.Errorf("%w: %s missing required fields", ErrDiscoveryFailed, u)
			continue
		}
		found = true
		break
	}
	if !found {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no authorization-server metadata URL succeeded", ErrDiscoveryFailed)
		}
		return AuthServerMetadata{}, lastErr
	}

	if !meta.SupportsS256() {
		return AuthServerMetadata{}, ErrPKCENotSupported
	}
	return meta, nil
}

// RegisterClient performs RFC 7591 dynamic client registration against
// meta.RegistrationEndpoint, if advertised. Callers should skip this step
// entirely when they already hold a pre-registered client id.
func RegisterClient(ctx context.Context, doer HTTPDoer, meta AuthServerMetadata, redirectURIs []string, scope string) (string, error) {
	if meta.RegistrationEndpoint == "" {
		return "", fmt.Errorf("%w: no registration_endpoint advertised", ErrRegistrationFailed)
	}

	payload := RegistrationRequest{
		ApplicationType:         "native",
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "none",
		RedirectURIs:            redirectURIs,
		Scope:                   scope,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode registration request: %v", ErrRegistrationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, meta.RegistrationEndpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRegistrationFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrRegistrationFailed, resp.StatusCode, string(respBody))
	}

	var reg RegistrationResponse
	if err := json.Unmarshal(respBody, &reg); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRegistrationFailed, err)
	}
	if reg.ClientID == "" {
		return "", fmt.Errorf("%w: response missing client_id", ErrRegistrationFailed)
	}
	return reg.ClientID, nil
}

func fetchJSON(ctx context.Context, doer HTTPDoer, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiscoveryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiscoveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrDiscoveryFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrDiscoveryFailed, url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDiscoveryFailed, url, err)
	}
	return nil
}
