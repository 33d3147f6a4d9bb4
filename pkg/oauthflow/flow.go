package oauthflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthorizationRequest holds what's needed to build the authorization URL
// for the PKCE authorization-code flow.
type AuthorizationRequest struct {
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
	Resource    string
	PKCE        PKCEPair
}

// BuildAuthorizationURL constructs the browser-facing authorization URL.
func BuildAuthorizationURL(meta AuthServerMetadata, req AuthorizationRequest) string {
	q := url.Values{}
	q.Set("client_id", req.ClientID)
	q.Set("redirect_uri", req.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", req.Scope)
	q.Set("code_challenge", req.PKCE.Challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", req.State)
	q.Set("resource", req.Resource)

	sep := "?"
	if strings.Contains(meta.AuthorizationEndpoint, "?") {
		sep = "&"
	}
	return meta.AuthorizationEndpoint + sep + q.Encode()
}

// ExchangeCode exchanges an authorization code for tokens at the token
// endpoint, carrying the PKCE verifier and the RFC 8707 resource
// parameter.
func ExchangeCode(ctx context.Context, doer HTTPDoer, meta AuthServerMetadata, clientID, code, redirectURI, verifier, resource string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", clientID)
	form.Set("code_verifier", verifier)
	form.Set("resource", resource)

	return postTokenRequest(ctx, doer, meta.TokenEndpoint, form, ErrTokenExchangeFailed)
}

// RefreshToken exchanges a refresh token for a new access token at the
// token endpoint, carrying the RFC 8707 resource parameter.
func RefreshToken(ctx context.Context, doer HTTPDoer, meta AuthServerMetadata, clientID, refreshToken, resource string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", clientID)
	form.Set("resource", resource)

	return postTokenRequest(ctx, doer, meta.TokenEndpoint, form, ErrRefreshFailed)
}

func postTokenRequest(ctx context.Context, doer HTTPDoer, tokenEndpoint string, form url.Values, failureSentinel error) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", failureSentinel, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", failureSentinel, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: read response: %v", failureSentinel, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Tokens{}, fmt.Errorf("%w: HTTP %d: %s", failureSentinel, resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    any    `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Tokens{}, fmt.Errorf("%w: decode response: %v", failureSentinel, err)
	}
	if payload.AccessToken == "" {
		return Tokens{}, fmt.Errorf("%w: response missing access_token", failureSentinel)
	}

	tok := Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if payload.Scope != "" {
		tok.Scope = strings.Fields(payload.Scope)
	}
	if seconds, ok := expiresInSeconds(payload.ExpiresIn); ok {
		tok.Expiry = time.Now().Add(time.Duration(seconds) * time.Second)
	}
	return tok, nil
}

func expiresInSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
