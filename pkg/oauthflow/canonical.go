// Package oauthflow implements the RFC 8707 / RFC 9728 / RFC 8414 discovery
// chain, PKCE code generation, and dynamic client registration an OAuth 2.1
// MCP client needs to authenticate against a protected resource server.
package oauthflow

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize derives the canonical form of a resource URI: lowercase
// scheme and host, no fragment, no trailing slash unless the path is
// exactly "/", and default ports omitted. Canonicalize is idempotent:
// canonicalizing an already-canonical URI returns it unchanged.
//
// The OAuth discovery flow (auth.OAuthDiscoveryProvider) calls this to
// derive its "resource" parameter. The remote transport does not call it:
// it attaches RemoteTransport.ResourceParam to each request as given.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResourceURI, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidResourceURI, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidResourceURI)
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}

	hostport := host
	if port != "" {
		hostport = host + ":" + port
	}

	path := u.Path
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	canonical := url.URL{
		Scheme:   scheme,
		Host:     hostport,
		Path:     path,
		RawQuery: u.RawQuery,
	}
	return canonical.String(), nil
}
