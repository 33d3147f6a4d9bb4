package auth

import (
	"context"
	"sync"

	"github.com/mcpkit-go/mcpkit/pkg/oauthflow"
)

// DiscoveryOptions configures the lazy discovery chain an
// OAuthDiscoveryProvider runs on first use.
type DiscoveryOptions struct {
	Doer                oauthflow.HTTPDoer
	ResourceBaseURL     string
	ResourceMetadataURL string
	RedirectURIs        []string
	Scope               string

	// ExchangeCode performs the authorization-code exchange once the
	// authorization server is known, returning the first token set.
	// Callers own the interactive part of the flow (opening a browser,
	// running the local redirect listener); this hook is invoked with
	// the discovered metadata and client id once they are available.
	ExchangeCode func(ctx context.Context, meta oauthflow.AuthServerMetadata, clientID, resource string) (oauthflow.Tokens, error)
}

// OAuthDiscoveryProvider wraps OAuthProvider, running the protected-resource
// and authorization-server discovery chain and dynamic client registration
// lazily on the first Headers call rather than eagerly at construction.
// Registration always runs: an authorization server that advertises no
// registration endpoint fails discovery, and there is no option to supply a
// pre-registered client id.
type OAuthDiscoveryProvider struct {
	opts DiscoveryOptions

	mu    sync.Mutex
	ready *OAuthProvider
	err   error
}

// NewOAuthDiscoveryProvider returns a provider that performs discovery on
// first use.
func NewOAuthDiscoveryProvider(opts DiscoveryOptions) *OAuthDiscoveryProvider {
	return &OAuthDiscoveryProvider{opts: opts}
}

func (p *OAuthDiscoveryProvider) Headers(ctx context.Context) (map[string]string, error) {
	provider, err := p.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Headers(ctx)
}

func (p *OAuthDiscoveryProvider) HandleChallenge(ctx context.Context, challenge Challenge) (map[string]string, error) {
	provider, err := p.ensureReady(ctx)
	if err != nil {
		return nil, err
	}
	return provider.HandleChallenge(ctx, challenge)
}

func (p *OAuthDiscoveryProvider) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready != nil {
		return p.ready.Cleanup()
	}
	return nil
}

func (p *OAuthDiscoveryProvider) ensureReady(ctx context.Context) (*OAuthProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready != nil {
		return p.ready, nil
	}
	if p.err != nil {
		return nil, p.err
	}

	provider, err := p.discover(ctx)
	if err != nil {
		p.err = &OAuthDiscoveryFailedError{Reason: err.Error()}
		return nil, p.err
	}
	p.ready = provider
	return provider, nil
}

func (p *OAuthDiscoveryProvider) discover(ctx context.Context) (*OAuthProvider, error) {
	resource, err := oauthflow.Canonicalize(p.opts.ResourceBaseURL)
	if err != nil {
		return nil, err
	}

	resourceMeta, err := oauthflow.DiscoverProtectedResource(ctx, p.opts.Doer, resource, p.opts.ResourceMetadataURL)
	if err != nil {
		return nil, err
	}
	if len(resourceMeta.AuthorizationServers) == 0 {
		return nil, oauthflow.ErrDiscoveryFailed
	}

	authMeta, err := oauthflow.DiscoverAuthServer(ctx, p.opts.Doer, resourceMeta.AuthorizationServers[0])
	if err != nil {
		return nil, err
	}

	clientID, err := oauthflow.RegisterClient(ctx, p.opts.Doer, authMeta, p.opts.RedirectURIs, p.opts.Scope)
	if err != nil {
		return nil, err
	}

	if p.opts.ExchangeCode == nil {
		return nil, oauthflow.ErrDiscoveryFailed
	}
	tokens, err := p.opts.ExchangeCode(ctx, authMeta, clientID, resource)
	if err != nil {
		return nil, err
	}

	return NewOAuthProvider(p.opts.Doer, authMeta, clientID, resource, tokens), nil
}
