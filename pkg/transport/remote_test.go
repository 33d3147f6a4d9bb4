package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpkit-go/mcpkit/pkg/auth"
)

func TestRemoteTransportConnectAndSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%v,"result":{}}`, req["id"])
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", &auth.BearerProvider{Token: "tok-1"}, nil)
	require.NoError(t, tr.Connect(t.Context()))
	defer tr.Disconnect()

	require.NoError(t, tr.Send(t.Context(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)))

	select {
	case got := <-tr.Receive():
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}
}

func TestRemoteTransportAttachesBearerHeader(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":{}}`))
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", &auth.BearerProvider{Token: "secret-token"}, nil)
	require.NoError(t, tr.Connect(t.Context()))
	defer tr.Disconnect()

	assert.Equal(t, "Bearer secret-token", seenAuth)
}

func TestRemoteTransportRaisesOAuthDiscoveryRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer resource_metadata="https://example.com/.well-known/oauth-protected-resource"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", nil, nil)
	err := tr.Connect(t.Context())
	require.Error(t, err)

	var challengeErr *AuthChallengeError
	require.ErrorAs(t, err, &challengeErr)
	var discErr *auth.OAuthDiscoveryRequiredError
	require.ErrorAs(t, challengeErr.Err, &discErr)
	assert.Equal(t, "https://example.com/.well-known/oauth-protected-resource", discErr.ResourceMetadataURL)
}

func TestRemoteTransportRaisesAuthenticationFailedWithoutChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", nil, nil)
	err := tr.Connect(t.Context())
	require.Error(t, err)

	var challengeErr *AuthChallengeError
	require.ErrorAs(t, err, &challengeErr)
	var authErr *auth.AuthenticationFailedError
	require.ErrorAs(t, challengeErr.Err, &authErr)
}

func TestRemoteTransportSurfacesServerErrorForNon5xxFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", nil, nil)
	err := tr.Connect(t.Context())
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, KindServerError, terr.Kind)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
}

func TestRemoteTransportRetriesOn5xxThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":{}}`))
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", nil, nil)
	tr.MaxRetries = 3
	require.NoError(t, tr.Connect(t.Context()))
	defer tr.Disconnect()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(3))
}

func TestRemoteTransportAppendsResourceParam(t *testing.T) {
	var sawResource string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawResource = r.URL.Query().Get("resource")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":0,"result":{}}`))
	}))
	defer server.Close()

	tr := NewRemoteTransport(server.URL, "", nil, nil)
	tr.ResourceParam = "https://example.com/mcp"
	require.NoError(t, tr.Connect(t.Context()))
	defer tr.Disconnect()
	assert.Equal(t, "https://example.com/mcp", sawResource)
}
