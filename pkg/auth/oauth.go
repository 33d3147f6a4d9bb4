package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mcpkit-go/mcpkit/pkg/oauthflow"
)

// refreshSkew is how far ahead of expiry Headers proactively refreshes,
// per the access-token refresh rule ("now >= expiry - 30s").
const refreshSkew = 30 * time.Second

// OAuthProvider manages an OAuth 2.1 PKCE token set, refreshing the access
// token through the authorization server's token endpoint as it nears
// expiry. Concurrent refreshes for the same provider are collapsed onto a
// single in-flight request via singleflight, so a burst of requests that
// all observe an expired token triggers exactly one refresh.
type OAuthProvider struct {
	Doer     oauthflow.HTTPDoer
	Meta     oauthflow.AuthServerMetadata
	ClientID string
	Resource string

	mu     sync.Mutex
	tokens oauthflow.Tokens
	group  singleflight.Group
}

// NewOAuthProvider returns an OAuthProvider seeded with an already-issued
// token set (e.g. from a completed authorization-code exchange).
func NewOAuthProvider(doer oauthflow.HTTPDoer, meta oauthflow.AuthServerMetadata, clientID, resource string, tokens oauthflow.Tokens) *OAuthProvider {
	return &OAuthProvider{
		Doer:     doer,
		Meta:     meta,
		ClientID: clientID,
		Resource: resource,
		tokens:   tokens,
	}
}

// Headers returns the current bearer header, refreshing first if the
// access token is expired or within refreshSkew of expiring.
func (p *OAuthProvider) Headers(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	tokens := p.tokens
	p.mu.Unlock()

	if tokens.AccessToken == "" || tokens.Expired(refreshSkew) {
		refreshed, err := p.refresh(ctx)
		if err != nil {
			return nil, err
		}
		tokens = refreshed
	}

	return map[string]string{"Authorization": tokens.TokenType + " " + tokens.AccessToken}, nil
}

// HandleChallenge invalidates the current access token and attempts a
// refresh. If no refresh token is available, it signals that a new
// authorization-code exchange is needed rather than failing silently.
func (p *OAuthProvider) HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error) {
	p.mu.Lock()
	p.tokens.AccessToken = ""
	hasRefresh := p.tokens.RefreshToken != ""
	p.mu.Unlock()

	if !hasRefresh {
		return nil, &AuthenticationFailedError{Reason: ErrNoRefreshToken.Error()}
	}

	tokens, err := p.refresh(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": tokens.TokenType + " " + tokens.AccessToken}, nil
}

// Cleanup invalidates the cached token set.
func (p *OAuthProvider) Cleanup() error {
	p.mu.Lock()
	p.tokens = oauthflow.Tokens{}
	p.mu.Unlock()
	return nil
}

func (p *OAuthProvider) refresh(ctx context.Context) (oauthflow.Tokens, error) {
	v, err, _ := p.group.Do("refresh", func() (any, error) {
		p.mu.Lock()
		refreshToken := p.tokens.RefreshToken
		p.mu.Unlock()

		if refreshToken == "" {
			return oauthflow.Tokens{}, &AuthenticationFailedError{Reason: ErrNoRefreshToken.Error()}
		}

		tokens, err := oauthflow.RefreshToken(ctx, p.Doer, p.Meta, p.ClientID, refreshToken, p.Resource)
		if err != nil {
			p.mu.Lock()
			p.tokens = oauthflow.Tokens{}
			p.mu.Unlock()
			return oauthflow.Tokens{}, &AuthenticationFailedError{Reason: fmt.Sprintf("refresh failed: %v", err)}
		}

		if tokens.RefreshToken == "" {
			tokens.RefreshToken = refreshToken
		}

		p.mu.Lock()
		p.tokens = tokens
		p.mu.Unlock()
		return tokens, nil
	})
	if err != nil {
		return oauthflow.Tokens{}, err
	}
	return v.(oauthflow.Tokens), nil
}
