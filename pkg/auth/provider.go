package auth

import "context"

// Challenge carries the parsed WWW-Authenticate challenge a 401 response
// raised.
type Challenge struct {
	Scheme              string
	ResourceMetadataURL string
	Raw                 string
}

// Provider attaches outbound credentials to requests. All three operations
// are safe to call concurrently.
type Provider interface {
	// Headers returns the headers to attach to an outbound request. It
	// returns an *AuthenticationFailedError if it cannot produce a usable
	// authorization.
	Headers(ctx context.Context) (map[string]string, error)

	// HandleChallenge reacts to a 401 response, returning headers to
	// retry with if it can recover (e.g. a just-completed token refresh),
	// or an error describing why it cannot.
	HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error)

	// Cleanup releases any resources the provider holds (cached tokens,
	// in-flight refreshes).
	Cleanup() error
}
