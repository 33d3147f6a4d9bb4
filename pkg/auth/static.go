package auth

import (
	"context"
	"encoding/base64"
)

// BearerProvider attaches a static bearer token.
type BearerProvider struct {
	Token string
}

func (p *BearerProvider) Headers(ctx context.Context) (map[string]string, error) {
	if p.Token == "" {
		return nil, &AuthenticationFailedError{Reason: "no bearer token configured"}
	}
	return map[string]string{"Authorization": "Bearer " + p.Token}, nil
}

// HandleChallenge returns no new headers; the caller is expected to
// rotate the static token out of band.
func (p *BearerProvider) HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error) {
	return nil, nil
}

func (p *BearerProvider) Cleanup() error { return nil }

// APIKeyProvider attaches an API key under a configurable header name,
// with an optional value prefix (e.g. "Bearer ").
type APIKeyProvider struct {
	Header string
	Prefix string
	Key    string
}

func (p *APIKeyProvider) Headers(ctx context.Context) (map[string]string, error) {
	if p.Key == "" {
		return nil, &AuthenticationFailedError{Reason: "no API key configured"}
	}
	header := p.Header
	if header == "" {
		header = "X-API-Key"
	}
	return map[string]string{header: p.Prefix + p.Key}, nil
}

func (p *APIKeyProvider) HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error) {
	return nil, nil
}

func (p *APIKeyProvider) Cleanup() error { return nil }

// BasicProvider attaches RFC 7617 HTTP Basic credentials.
type BasicProvider struct {
	Username string
	Password string
}

func (p *BasicProvider) Headers(ctx context.Context) (map[string]string, error) {
	if p.Username == "" {
		return nil, &AuthenticationFailedError{Reason: "no basic auth username configured"}
	}
	raw := p.Username + ":" + p.Password
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	return map[string]string{"Authorization": "Basic " + encoded}, nil
}

func (p *BasicProvider) HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error) {
	return nil, nil
}

func (p *BasicProvider) Cleanup() error { return nil }
