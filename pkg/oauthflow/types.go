package oauthflow

import (
	"time"

	"golang.org/x/oauth2"
)

// Tokens is the OAuth state an MCP client persists for a connection:
// access and optional refresh tokens, token type, expiry, and granted
// scope.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	Scope        []string
}

// Expired reports whether the token is expired, or will expire within the
// given skew window (the MCP auth provider refreshes 30s early).
func (t Tokens) Expired(skew time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return !time.Now().Before(t.Expiry.Add(-skew))
}

// ToOAuth2Token converts Tokens to the golang.org/x/oauth2 representation,
// for callers that want to drive requests through an oauth2.TokenSource.
func (t Tokens) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// TokensFromOAuth2 builds Tokens from an *oauth2.Token, preserving scope
// separately since oauth2.Token has no native scope field.
func TokensFromOAuth2(tok *oauth2.Token, scope []string) Tokens {
	return Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scope:        scope,
	}
}

// ProtectedResourceMetadata is the RFC 9728 protected-resource metadata
// document.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

// AuthServerMetadata is the RFC 8414 / OIDC discovery authorization-server
// metadata document.
type AuthServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	DeviceAuthorizationEndpoint       string   `json:"device_authorization_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// SupportsS256 reports whether the authorization server advertises the
// S256 PKCE code challenge method, required by this client.
func (m AuthServerMetadata) SupportsS256() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == "S256" {
			return true
		}
	}
	return false
}

// DefaultScopes are the scopes requested when the caller does not specify
// its own.
func DefaultScopes() []string {
	return []string{"mcp:tools", "mcp:resources", "mcp:prompts"}
}

// RegistrationRequest is the MCP-optimized dynamic client registration
// payload (RFC 7591), sent when the authorization server advertises a
// registration_endpoint and the caller did not pre-register a client id.
type RegistrationRequest struct {
	ApplicationType         string   `json:"application_type"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	RedirectURIs            []string `json:"redirect_uris"`
	Scope                   string   `json:"scope"`
}

// RegistrationResponse is the dynamic client registration response,
// honoring the snake_case field names RFC 7591 specifies.
type RegistrationResponse struct {
	ClientID              string `json:"client_id"`
	ClientIDIssuedAt      int64  `json:"client_id_issued_at"`
	ClientSecret          string `json:"client_secret,omitempty"`
	ClientSecretExpiresAt int64  `json:"client_secret_expires_at,omitempty"`
}
