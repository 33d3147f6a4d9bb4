// Package transport implements the two wire-level MCP transports: stdio
// (subprocess pipes with length-agnostic framing and log filtering) and
// remote (authenticated HTTP + SSE streaming).
package transport

import (
	"context"
	"fmt"
	"time"
)

// Transport is the narrow surface every consumer above the wire sees:
// connect, send, receive, disconnect. MCP clients and servers hold exactly
// one Transport for their lifetime.
type Transport interface {
	// Connect establishes the underlying connection (spawns a child
	// process for stdio, probes the endpoint for remote).
	Connect(ctx context.Context) error

	// Send writes a single JSON-RPC message. Send calls on the same
	// Transport are serialized by the implementation.
	Send(ctx context.Context, message []byte) error

	// Receive returns the channel of complete, filtered JSON-RPC
	// messages, in the order they finish reassembly.
	Receive() <-chan []byte

	// Errors returns the channel of terminal errors (connection loss, such
	// as a failed write to the child or a broken SSE stream). A value here
	// means the transport is no longer usable. Auth failures are returned
	// from Connect and Send, not sent on this channel.
	Errors() <-chan error

	// Disconnect closes the connection and releases owned resources.
	// Idempotent.
	Disconnect() error
}

// Kind distinguishes the taxonomy of transport-level failures so callers
// can branch on what went wrong instead of pattern-matching error strings.
type Kind string

const (
	KindNotConnected   Kind = "not_connected"
	KindConnectionFail Kind = "connection_failed"
	KindNetworkError   Kind = "network_error"
	KindInvalidResp    Kind = "invalid_response"
	KindServerError    Kind = "server_error"
	KindInvalidURL     Kind = "invalid_url"
)

// Error is the typed transport failure every Transport surfaces instead of
// a generic "transport error" string, so callers can distinguish "wrong
// URL" from "network unreachable" from "server returned garbage".
type Error struct {
	Kind       Kind
	StatusCode int           // set for KindServerError
	Body       string        // set for KindServerError
	RetryAfter time.Duration // set for KindServerError when the server sent a Retry-After hint
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServerError:
		return fmt.Sprintf("transport: server error %d: %s", e.StatusCode, e.Body)
	case KindNetworkError:
		return fmt.Sprintf("transport: network error: %v", e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("transport: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
