package a2a

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/a2aproject/a2a-go/a2aclient/agentcard"
)

// ClientConfig configures a connection to a remote A2A agent.
type ClientConfig struct {
	// URL is the base URL of the remote agent. The well-known agent card
	// path is derived from it unless CardURL is set.
	URL string

	// CardURL overrides the agent card location (a URL).
	CardURL string

	// HTTPClient is used to fetch the agent card; the a2a-go client opened
	// from the resolved card does not use it. When nil, the agentcard
	// package's DefaultResolver fetches the card.
	HTTPClient *http.Client

	// Timeout bounds agent card resolution. Default 30s.
	Timeout time.Duration
}

// Client talks to one remote A2A agent: sending messages, streaming task
// updates, and querying or cancelling tasks by ID.
type Client struct {
	raw  *a2aclient.Client
	card *a2a.AgentCard
}

// Dial resolves cfg.URL's agent card and opens a client against it.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" && cfg.CardURL == "" {
		return nil, fmt.Errorf("a2a: URL or CardURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	cardURL := cfg.CardURL
	if cardURL == "" {
		cardURL = strings.TrimSuffix(cfg.URL, "/") + "/.well-known/agent.json"
	}

	resolver := agentcard.DefaultResolver
	if cfg.HTTPClient != nil {
		resolver = agentcard.NewResolver(cfg.HTTPClient)
	}

	resolveCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	card, err := resolver.Resolve(resolveCtx, cardURL)
	if err != nil {
		return nil, fmt.Errorf("a2a: resolve agent card from %s: %w", cardURL, err)
	}

	return FromCard(ctx, card)
}

// FromCard opens a client against an already-resolved agent card.
func FromCard(ctx context.Context, card *a2a.AgentCard) (*Client, error) {
	raw, err := a2aclient.NewFromCard(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("a2a: create client: %w", err)
	}
	return &Client{raw: raw, card: card}, nil
}

// AgentCard returns the agent card this client was opened against.
func (c *Client) AgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	if c.card != nil {
		return c.card, nil
	}
	return c.raw.GetAgentCard(ctx)
}

// SendMessage sends a single message and returns the resulting task. The
// remote agent may still be working when this returns — check the task's
// status before treating it as a final answer.
func (c *Client) SendMessage(ctx context.Context, msg *a2a.Message) (*a2a.Task, error) {
	result, err := c.raw.SendMessage(ctx, &a2a.MessageSendParams{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("a2a: send message: %w", err)
	}
	taskInfo := result.TaskInfo()
	if taskInfo.TaskID == "" {
		return nil, fmt.Errorf("a2a: send message result carried no task id")
	}
	return c.GetTask(ctx, taskInfo.TaskID)
}

// StreamMessage sends a message and returns a channel of task lifecycle
// events as the remote agent works. The channel closes when the remote
// stream ends or ctx is cancelled.
func (c *Client) StreamMessage(ctx context.Context, msg *a2a.Message) (<-chan a2a.Event, <-chan error) {
	events := make(chan a2a.Event)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		for event, err := range c.raw.SendStreamingMessage(ctx, &a2a.MessageSendParams{Message: msg}) {
			if err != nil {
				errs <- err
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

// GetTask fetches the current state of a previously-submitted task.
func (c *Client) GetTask(ctx context.Context, taskID a2a.TaskID) (*a2a.Task, error) {
	task, err := c.raw.GetTask(ctx, &a2a.TaskQueryParams{ID: taskID})
	if err != nil {
		return nil, fmt.Errorf("a2a: get task %s: %w", taskID, err)
	}
	return task, nil
}

// CancelTask requests cancellation of a non-terminal task.
func (c *Client) CancelTask(ctx context.Context, taskID a2a.TaskID) (*a2a.Task, error) {
	task, err := c.raw.CancelTask(ctx, &a2a.TaskIDParams{ID: taskID})
	if err != nil {
		return nil, fmt.Errorf("a2a: cancel task %s: %w", taskID, err)
	}
	return task, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.raw.Destroy()
}
