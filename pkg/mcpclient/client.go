package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcpkit-go/mcpkit/pkg/observability"
	"github.com/mcpkit-go/mcpkit/pkg/transport"
)

// Client is a JSON-RPC 2.0 MCP client over a single transport.Transport.
// Only the Initialized state permits tool/resource/prompt calls.
type Client struct {
	Transport         transport.Transport
	ClientName        string
	ClientVersion     string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	Logger            *slog.Logger
	Metrics           *observability.Metrics

	pending *pendingTable

	stateMu    sync.RWMutex
	state      State
	serverInfo ServerInfo
	caps       json.RawMessage

	notifications chan json.RawMessage

	readDone chan struct{}
}

// NewClient builds a Client bound to tr. Connect must be called before any
// tool/resource/prompt operation.
func NewClient(tr transport.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Transport:         tr,
		ClientName:        "mcpkit",
		ClientVersion:     "0.1.0",
		ConnectionTimeout: 30 * time.Second,
		RequestTimeout:    60 * time.Second,
		Logger:            logger,
		pending:           newPendingTable(),
		notifications:     make(chan json.RawMessage, 32),
		readDone:          make(chan struct{}),
	}
}

func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// ServerInfo returns the connected server's identity, populated after a
// successful Connect.
func (c *Client) ServerInfo() ServerInfo { return c.serverInfo }

// Notifications returns the channel of server-initiated notifications
// received after initialization (e.g. resources/list_changed pushes).
func (c *Client) Notifications() <-chan json.RawMessage { return c.notifications }

// Connect performs the transport connection and the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	if c.State() != NotConnected {
		return fmt.Errorf("mcp: connect called in state %s", c.State())
	}
	c.setState(Connecting)

	connectCtx, cancel := context.WithTimeout(ctx, c.ConnectionTimeout)
	defer cancel()

	if err := c.Transport.Connect(connectCtx); err != nil {
		c.setState(NotConnected)
		return fmt.Errorf("mcp: transport connect: %w", err)
	}

	go c.readLoop()

	params, _ := json.Marshal(map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.ClientName,
			"version": c.ClientVersion,
		},
	})

	result, err := c.call(connectCtx, "initialize", params)
	if err != nil {
		c.setState(NotConnected)
		_ = c.Transport.Disconnect()
		return fmt.Errorf("mcp: initialize: %w", err)
	}

	var initResult InitializeResult
	if err := json.Unmarshal(result, &initResult); err != nil {
		c.setState(NotConnected)
		_ = c.Transport.Disconnect()
		return fmt.Errorf("mcp: parse initialize result: %w", err)
	}
	if initResult.ProtocolVersion != ProtocolVersion {
		c.setState(NotConnected)
		_ = c.Transport.Disconnect()
		return &ProtocolMismatchError{Got: initResult.ProtocolVersion}
	}

	c.serverInfo = initResult.ServerInfo
	c.caps = initResult.Capabilities
	c.setState(Initialized)

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		c.Logger.Warn("mcp: failed to send initialized notification", "error", err)
	}

	return nil
}

// Disconnect tears down the transport and fails every outstanding call.
func (c *Client) Disconnect() error {
	c.setState(Disconnected)
	err := c.Transport.Disconnect()
	<-c.readDone
	c.pending.abortAll()
	return err
}

func (c *Client) ToolsList(ctx context.Context) ([]ToolDefinition, error) {
	result, err := c.callInitialized(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var resp listToolsResult
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("mcp: parse tools/list result: %w", err)
	}
	return resp.Tools, nil
}

func (c *Client) ToolsCall(ctx context.Context, name string, arguments any) (ToolCallResult, error) {
	params, err := json.Marshal(map[string]any{"name": name, "arguments": arguments})
	if err != nil {
		return ToolCallResult{}, fmt.Errorf("mcp: marshal tools/call params: %w", err)
	}
	result, err := c.callInitialized(ctx, "tools/call", params)
	if err != nil {
		return ToolCallResult{}, err
	}
	var callResult ToolCallResult
	if err := json.Unmarshal(result, &callResult); err != nil {
		return ToolCallResult{}, fmt.Errorf("mcp: parse tools/call result: %w", err)
	}
	return callResult, nil
}

func (c *Client) ResourcesList(ctx context.Context) ([]Resource, error) {
	result, err := c.callInitialized(ctx, "resources/list", nil)
	if err != nil {
		return nil, err
	}
	var resp listResourcesResult
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("mcp: parse resources/list result: %w", err)
	}
	return resp.Resources, nil
}

func (c *Client) ResourcesRead(ctx context.Context, uri string) ([]ResourceContent, error) {
	params, _ := json.Marshal(map[string]any{"uri": uri})
	result, err := c.callInitialized(ctx, "resources/read", params)
	if err != nil {
		return nil, err
	}
	var resp readResourceResult
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("mcp: parse resources/read result: %w", err)
	}
	return resp.Contents, nil
}

func (c *Client) ResourcesSubscribe(ctx context.Context, uri string) error {
	params, _ := json.Marshal(map[string]any{"uri": uri})
	_, err := c.callInitialized(ctx, "resources/subscribe", params)
	return err
}

func (c *Client) PromptsList(ctx context.Context) ([]Prompt, error) {
	result, err := c.callInitialized(ctx, "prompts/list", nil)
	if err != nil {
		return nil, err
	}
	var resp listPromptsResult
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("mcp: parse prompts/list result: %w", err)
	}
	return resp.Prompts, nil
}

func (c *Client) callInitialized(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	if c.State() != Initialized {
		return nil, fmt.Errorf("mcp: %s called in state %s", method, c.State())
	}
	return c.call(ctx, method, params)
}

func (c *Client) call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	ctx, span := observability.StartSpan(ctx, "mcpkit/mcpclient", "mcp."+method)
	defer span.End()

	reqCtx := ctx
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	id, waiter := c.pending.register()

	req := jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		c.pending.forget(id)
		return nil, fmt.Errorf("mcp: marshal %s request: %w", method, err)
	}

	start := time.Now()
	if err := c.Transport.Send(reqCtx, data); err != nil {
		c.pending.forget(id)
		return nil, fmt.Errorf("mcp: send %s: %w", method, err)
	}

	select {
	case resp, ok := <-waiter:
		if c.Metrics != nil {
			c.Metrics.ObserveMCPRequestDuration(method, time.Since(start).Seconds())
		}
		if !ok {
			return nil, fmt.Errorf("mcp: transport disconnected while awaiting %s", method)
		}
		if resp.Error != nil {
			return nil, &RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	case <-reqCtx.Done():
		c.pending.forget(id)
		c.cancelRequest(id)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RequestTimeoutError{Method: method}
	}
}

// cancelRequest best-effort notifies the server that a request was
// abandoned, per the notifications/cancelled convention.
func (c *Client) cancelRequest(id int64) {
	params, _ := json.Marshal(map[string]any{"requestId": id})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.notify(ctx, "notifications/cancelled", params); err != nil {
		c.Logger.Debug("mcp: failed to send cancellation notification", "error", err)
	}
}

func (c *Client) notify(ctx context.Context, method string, params json.RawMessage) error {
	notif := jsonrpcNotification{JSONRPC: "2.0", Method: method, Params: params}
	data, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("mcp: marshal %s notification: %w", method, err)
	}
	return c.Transport.Send(ctx, data)
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	for raw := range c.Transport.Receive() {
		var peek jsonrpcPeek
		if err := json.Unmarshal(raw, &peek); err != nil {
			c.Logger.Warn("mcp: dropped unparseable message", "error", err)
			continue
		}

		if len(peek.ID) == 0 || string(peek.ID) == "null" {
			if peek.Method != "" {
				c.deliverNotification(raw)
			}
			continue
		}

		var id int64
		if err := json.Unmarshal(peek.ID, &id); err != nil {
			c.Logger.Warn("mcp: dropped response with unrecognized id", "id", string(peek.ID))
			continue
		}

		var resp jsonrpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			c.Logger.Warn("mcp: dropped unparseable response", "error", err)
			continue
		}

		if !c.pending.resolve(id, &resp) {
			c.Logger.Warn("mcp: dropped orphan response", "id", id)
		}
	}
}

func (c *Client) deliverNotification(raw json.RawMessage) {
	select {
	case c.notifications <- raw:
	default:
		c.Logger.Warn("mcp: notification channel full, dropping")
	}
}
