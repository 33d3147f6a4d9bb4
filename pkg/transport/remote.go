package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"

	"github.com/mcpkit-go/mcpkit/pkg/auth"
	"github.com/mcpkit-go/mcpkit/pkg/httpclient"
	"github.com/mcpkit-go/mcpkit/pkg/observability"
)

// AuthChallengeError is raised by Connect/Send when a response carries a
// 401 the caller must react to: either OAuthDiscoveryRequired (a
// recoverable WWW-Authenticate challenge naming a resource_metadata URL)
// or a hard AuthenticationFailed.
type AuthChallengeError struct {
	Err error
}

func (e *AuthChallengeError) Error() string { return e.Err.Error() }
func (e *AuthChallengeError) Unwrap() error { return e.Err }

// RemoteTransport speaks MCP over a request/response HTTP endpoint plus an
// optional SSE endpoint for server-to-client pushes. Every outbound
// request acquires headers from Auth; a 401 triggers challenge parsing
// rather than a blind retry.
type RemoteTransport struct {
	BaseURL string // JSON-RPC POST endpoint
	SSEURL  string // optional server-push stream; empty disables SSE

	Auth auth.Provider

	// ResourceParam, when non-empty, is attached as a "resource" query
	// parameter on every request — set by callers wiring an OAuth
	// provider (§4.4's resource-parameter propagation rule).
	ResourceParam string

	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	MaxRetries        int

	// TLS configures the underlying HTTP client's transport, e.g. to trust
	// a private CA for a self-hosted MCP endpoint. Nil uses Go's default
	// root trust store.
	TLS *httpclient.TLSConfig

	Logger  *slog.Logger
	Metrics *observability.Metrics

	httpClient *httpclient.Client
	sseClient  *sse.Client

	recvCh chan []byte
	errCh  chan error

	sendMu    sync.Mutex
	closeOnce sync.Once
	cancelSSE context.CancelFunc
	wg        sync.WaitGroup
}

// NewRemoteTransport builds a RemoteTransport. SSEURL may be empty for
// servers that only speak request/response JSON-RPC.
func NewRemoteTransport(baseURL, sseURL string, authProvider auth.Provider, logger *slog.Logger) *RemoteTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteTransport{
		BaseURL:           baseURL,
		SSEURL:            sseURL,
		Auth:              authProvider,
		ConnectionTimeout: 30 * time.Second,
		RequestTimeout:    60 * time.Second,
		MaxRetries:        3,
		Logger:            logger,
		recvCh:            make(chan []byte, 64),
		errCh:             make(chan error, 1),
	}
}

func (t *RemoteTransport) Connect(ctx context.Context) error {
	t.httpClient = httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: t.RequestTimeout}),
		httpclient.WithMaxRetries(t.MaxRetries),
		httpclient.WithHeaderParser(httpclient.ParseRetryAfter),
		httpclient.WithTLSConfig(t.TLS),
	)

	probeCtx, cancel := context.WithTimeout(ctx, t.ConnectionTimeout)
	defer cancel()

	probe := []byte(`{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`)
	if _, err := t.post(probeCtx, probe); err != nil {
		t.observeTransportResult("error")
		return err
	}
	t.observeTransportResult("ok")

	if t.SSEURL != "" {
		sseCtx, cancelSSE := context.WithCancel(context.Background())
		t.cancelSSE = cancelSSE
		if err := t.startSSE(sseCtx); err != nil {
			cancelSSE()
			return err
		}
	}

	return nil
}

func (t *RemoteTransport) Send(ctx context.Context, message []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	reqCtx := ctx
	if t.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, t.RequestTimeout)
		defer cancel()
	}

	body, err := t.post(reqCtx, message)
	if err != nil {
		var challengeErr *AuthChallengeError
		if t.Auth != nil && asAuthChallengeError(err, &challengeErr) {
			if recovered := t.recoverFromChallenge(reqCtx, challengeErr); recovered {
				body, err = t.post(reqCtx, message)
			}
		}
	}
	if err != nil {
		t.observeTransportResult("error")
		return err
	}
	t.observeTransportResult("ok")

	if len(body) > 0 {
		t.deliver(body)
	}
	return nil
}

// recoverFromChallenge asks the auth provider to handle the parsed
// challenge once. A true result means the provider recovered (e.g.
// refreshed its token) and the caller should retry the request.
func (t *RemoteTransport) recoverFromChallenge(ctx context.Context, challengeErr *AuthChallengeError) bool {
	var discErr *auth.OAuthDiscoveryRequiredError
	if !asOAuthDiscoveryRequired(challengeErr.Err, &discErr) {
		return false
	}
	_, err := t.Auth.HandleChallenge(ctx, auth.Challenge{ResourceMetadataURL: discErr.ResourceMetadataURL})
	return err == nil
}

func asAuthChallengeError(err error, target **AuthChallengeError) bool {
	ce, ok := err.(*AuthChallengeError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

func asOAuthDiscoveryRequired(err error, target **auth.OAuthDiscoveryRequiredError) bool {
	de, ok := err.(*auth.OAuthDiscoveryRequiredError)
	if !ok {
		return false
	}
	*target = de
	return true
}

func (t *RemoteTransport) Receive() <-chan []byte { return t.recvCh }

func (t *RemoteTransport) Errors() <-chan error { return t.errCh }

func (t *RemoteTransport) Disconnect() error {
	t.closeOnce.Do(func() {
		if t.cancelSSE != nil {
			t.cancelSSE()
		}
		t.wg.Wait()
		close(t.recvCh)
	})
	return nil
}

func (t *RemoteTransport) post(ctx context.Context, payload []byte) ([]byte, error) {
	reqURL := t.BaseURL
	if t.ResourceParam != "" {
		reqURL = appendQueryParam(reqURL, "resource", t.ResourceParam)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	if t.Auth != nil {
		headers, err := t.Auth.Headers(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.httpClient.Do(req)
	if resp == nil {
		return nil, newError(KindNetworkError, err)
	}
	defer resp.Body.Close()

	// httpclient.Client.Do returns a *RetryableError once its own retry
	// budget is exhausted; fold it into this package's taxonomy instead of
	// falling through to the generic status-code handling below, so the
	// RetryAfter hint the server gave survives past the retry client.
	var retryErr *httpclient.RetryableError
	if errors.As(err, &retryErr) {
		body, _ := io.ReadAll(resp.Body)
		if retryErr.StatusCode == 0 || retryErr.StatusCode >= 500 {
			return nil, newError(KindNetworkError, fmt.Errorf("%w: %s", retryErr, body))
		}
		return nil, &Error{
			Kind:       KindServerError,
			StatusCode: retryErr.StatusCode,
			Body:       string(body),
			RetryAfter: retryErr.RetryAfter,
			Err:        retryErr,
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, t.handleUnauthorized(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return nil, newError(KindNetworkError, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
		}
		return nil, &Error{Kind: KindServerError, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}

// handleUnauthorized implements §4.4's 401 handling: search
// WWW-Authenticate case-insensitively; a Bearer/OAuth challenge carrying
// resource_metadata="<url>" raises OAuthDiscoveryRequired, everything else
// raises AuthenticationFailed.
func (t *RemoteTransport) handleUnauthorized(resp *http.Response) error {
	challengeHeader := resp.Header.Get("WWW-Authenticate")
	if challengeHeader == "" {
		for k, v := range resp.Header {
			if strings.EqualFold(k, "WWW-Authenticate") && len(v) > 0 {
				challengeHeader = v[0]
				break
			}
		}
	}

	scheme, metadataURL := parseChallenge(challengeHeader)

	if (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "OAuth")) && metadataURL != "" {
		return &AuthChallengeError{Err: &auth.OAuthDiscoveryRequiredError{ResourceMetadataURL: metadataURL}}
	}

	reason := "401 response with no usable WWW-Authenticate challenge"
	if challengeHeader != "" {
		reason = fmt.Sprintf("401 response with unusable challenge: %s", challengeHeader)
	}
	return &AuthChallengeError{Err: &auth.AuthenticationFailedError{Reason: reason}}
}

// parseChallenge extracts the auth scheme and resource_metadata parameter
// from a WWW-Authenticate header value.
func parseChallenge(header string) (scheme, resourceMetadataURL string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ""
	}
	fields := strings.SplitN(header, " ", 2)
	scheme = fields[0]
	if len(fields) < 2 {
		return scheme, ""
	}

	const marker = `resource_metadata="`
	idx := strings.Index(fields[1], marker)
	if idx < 0 {
		return scheme, ""
	}
	rest := fields[1][idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return scheme, ""
	}
	return scheme, rest[:end]
}

func appendQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func (t *RemoteTransport) startSSE(ctx context.Context) error {
	client := sse.NewClient(t.SSEURL)
	if t.Auth != nil {
		headers, err := t.Auth.Headers(ctx)
		if err != nil {
			return err
		}
		client.Headers = headers
	}
	t.sseClient = client

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		err := client.SubscribeRawWithContext(ctx, func(ev *sse.Event) {
			if len(ev.Data) == 0 {
				return
			}
			t.deliver(ev.Data)
		})
		if err != nil && ctx.Err() == nil {
			t.emitErr(newError(KindNetworkError, fmt.Errorf("sse stream: %w", err)))
		}
	}()
	return nil
}

func (t *RemoteTransport) deliver(msg []byte) {
	select {
	case t.recvCh <- msg:
	default:
		t.Logger.Warn("remote transport: receive channel full, dropping message")
	}
}

func (t *RemoteTransport) emitErr(err error) {
	select {
	case t.errCh <- err:
	default:
	}
}

func (t *RemoteTransport) observeTransportResult(outcome string) {
	if t.Metrics == nil {
		return
	}
	t.Metrics.ObserveTransportRequest("remote", outcome)
}
