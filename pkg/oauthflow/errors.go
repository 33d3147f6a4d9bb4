package oauthflow

import "errors"

// Sentinel errors for the discovery and registration chain. Callers compare
// with errors.Is; each carries additional context via %w wrapping at the
// call site.
var (
	ErrInvalidResourceURI  = errors.New("oauthflow: invalid resource URI")
	ErrDiscoveryFailed     = errors.New("oauthflow: discovery failed")
	ErrPKCENotSupported    = errors.New("oauthflow: authorization server does not support PKCE (S256)")
	ErrRegistrationFailed  = errors.New("oauthflow: dynamic client registration failed")
	ErrStateMismatch       = errors.New("oauthflow: authorization response state mismatch")
	ErrTokenExchangeFailed = errors.New("oauthflow: token exchange failed")
	ErrRefreshFailed       = errors.New("oauthflow: token refresh failed")
)
