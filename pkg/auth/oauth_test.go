package auth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpkit-go/mcpkit/pkg/oauthflow"
)

func TestOAuthProviderHeadersReturnsCurrentTokenWhenFresh(t *testing.T) {
	p := NewOAuthProvider(http.DefaultClient, oauthflow.AuthServerMetadata{}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken: "at-1",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	headers, err := p.Headers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer at-1", headers["Authorization"])
}

func TestOAuthProviderHeadersRefreshesExpiredToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewOAuthProvider(server.Client(), oauthflow.AuthServerMetadata{TokenEndpoint: server.URL}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	})

	headers, err := p.Headers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer at-new", headers["Authorization"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOAuthProviderHeadersFailsWithoutRefreshTokenWhenExpired(t *testing.T) {
	p := NewOAuthProvider(http.DefaultClient, oauthflow.AuthServerMetadata{}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken: "at-old",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(-time.Minute),
	})

	_, err := p.Headers(t.Context())
	require.Error(t, err)
	var authErr *AuthenticationFailedError
	require.ErrorAs(t, err, &authErr)
}

func TestOAuthProviderHandleChallengeInvalidatesAndRefreshes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-recovered","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewOAuthProvider(server.Client(), oauthflow.AuthServerMetadata{TokenEndpoint: server.URL}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken:  "at-challenged",
		RefreshToken: "rt-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	})

	headers, err := p.HandleChallenge(t.Context(), Challenge{Scheme: "Bearer"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer at-recovered", headers["Authorization"])
}

func TestOAuthProviderHandleChallengeFailsWithoutRefreshToken(t *testing.T) {
	p := NewOAuthProvider(http.DefaultClient, oauthflow.AuthServerMetadata{}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken: "at-1",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	_, err := p.HandleChallenge(t.Context(), Challenge{Scheme: "Bearer"})
	require.Error(t, err)
	var authErr *AuthenticationFailedError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorContains(t, err, ErrNoRefreshToken.Error())
}

func TestOAuthProviderConcurrentRefreshesAreSingleFlighted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := NewOAuthProvider(server.Client(), oauthflow.AuthServerMetadata{TokenEndpoint: server.URL}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	})

	const n = 10
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := p.Headers(t.Context())
			results <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-results)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOAuthProviderCleanupClearsTokens(t *testing.T) {
	p := NewOAuthProvider(http.DefaultClient, oauthflow.AuthServerMetadata{}, "client-1", "https://example.com/mcp", oauthflow.Tokens{
		AccessToken: "at-1",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})
	require.NoError(t, p.Cleanup())

	_, err := p.Headers(t.Context())
	require.Error(t, err)
}
