// Package auth implements the outbound credential providers the remote MCP
// transport attaches to every request: static Bearer/API-key/Basic
// credentials, and the full OAuth 2.1 PKCE flow with discovery.
package auth

import "errors"

// AuthenticationFailedError is raised by any provider whose Headers call
// cannot produce a usable authorization. The transport surfaces this to
// the caller rather than silently proceeding.
type AuthenticationFailedError struct {
	Reason string
}

func (e *AuthenticationFailedError) Error() string {
	return "authentication failed: " + e.Reason
}

// OAuthDiscoveryRequiredError signals that a 401 carried a recoverable
// OAuth challenge and the caller should run discovery (§4.6) rather than
// treat the request as a hard authentication failure.
type OAuthDiscoveryRequiredError struct {
	ResourceMetadataURL string
}

func (e *OAuthDiscoveryRequiredError) Error() string {
	return "OAuth discovery required: " + e.ResourceMetadataURL
}

// OAuthDiscoveryFailedError is what OAuthDiscoveryProvider surfaces when any
// step of its discovery chain fails (resource canonicalization,
// protected-resource or authorization-server metadata, dynamic client
// registration, or the code exchange). Reason carries the underlying
// error's text; the failed step is not reported separately.
type OAuthDiscoveryFailedError struct {
	Reason string
}

func (e *OAuthDiscoveryFailedError) Error() string {
	return "OAuth discovery failed: " + e.Reason
}

// ErrNoRefreshToken indicates a challenge arrived but no refresh token is
// available to recover with; the caller must restart the authorization
// code flow.
var ErrNoRefreshToken = errors.New("auth: no refresh token available")
