package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpkit-go/mcpkit/pkg/frame"
)

// runServer feeds requests (already framed or bare JSON lines) through
// Serve and returns the decoded responses in order.
func runServer(t *testing.T, s *Server, requests []string) []jsonrpcResponse {
	t.Helper()
	var out bytes.Buffer
	in := bytes.NewBufferString("")
	for _, r := range requests {
		in.WriteString(r)
		in.WriteByte('\n')
	}

	require.NoError(t, s.Serve(context.Background(), in, &out))

	var responses []jsonrpcResponse
	scanner := bufio.NewScanner(&out)
	reassembler := frame.NewReassembler()
	for scanner.Scan() {
		line := scanner.Bytes()
		f, err := frame.Parse(line)
		if err != nil {
			var resp jsonrpcResponse
			require.NoError(t, json.Unmarshal(line, &resp))
			responses = append(responses, resp)
			continue
		}
		if msg, ok := reassembler.Feed(f); ok {
			var resp jsonrpcResponse
			require.NoError(t, json.Unmarshal(msg, &resp))
			responses = append(responses, resp)
		}
	}
	return responses
}

func TestServerInitializeHandshake(t *testing.T) {
	s := NewServer("test-server", "1.2.3", nil)
	resps := runServer(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`})
	require.Len(t, resps, 1)

	var result initializeResult
	data, _ := json.Marshal(resps[0].Result)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "test-server", result.ServerInfo.Name)
}

func TestServerToolsListReturnsRegisteredTools(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	s.RegisterTool(ToolDefinition{Name: "echo", Description: "echoes input"}, func(ctx context.Context, args json.RawMessage) (any, error) {
		return "ok", nil
	})

	resps := runServer(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`})
	require.Len(t, resps, 1)

	data, _ := json.Marshal(resps[0].Result)
	var listed struct {
		Tools []ToolDefinition `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(data, &listed))
	require.Len(t, listed.Tools, 1)
	assert.Equal(t, "echo", listed.Tools[0].Name)
}

func TestServerToolsCallDispatchesToHandler(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	s.RegisterTool(ToolDefinition{Name: "add"}, func(ctx context.Context, args json.RawMessage) (any, error) {
		var params struct {
			A int `json:"a"`
			B int `json:"b"`
		}
		require.NoError(t, json.Unmarshal(args, &params))
		assert.Equal(t, 2, params.A)
		assert.Equal(t, 3, params.B)
		return []map[string]any{{"type": "text", "text": "5"}}, nil
	})

	req := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"add","arguments":{"a":2,"b":3}}}`
	resps := runServer(t, s, []string{req})
	require.Len(t, resps, 1)

	data, _ := json.Marshal(resps[0].Result)
	var result toolsCallResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "5", result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestServerToolsCallUnknownToolReturnsError(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	req := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"missing","arguments":{}}}`
	resps := runServer(t, s, []string{req})
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, errCodeMethodNotFound, resps[0].Error.Code)
}

func TestServerToolsCallHandlerErrorBecomesErrorContent(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	s.RegisterTool(ToolDefinition{Name: "fails"}, func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})

	req := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"fails","arguments":{}}}`
	resps := runServer(t, s, []string{req})
	require.Len(t, resps, 1)

	data, _ := json.Marshal(resps[0].Result)
	var result toolsCallResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.True(t, result.IsError)
	assert.Equal(t, "boom", result.Content[0].Text)
}

func TestServerNotificationsProduceNoResponse(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	resps := runServer(t, s, []string{`{"jsonrpc":"2.0","method":"notifications/initialized"}`})
	assert.Empty(t, resps)
}

func TestServerUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := NewServer("s", "0.1", nil)
	resps := runServer(t, s, []string{`{"jsonrpc":"2.0","id":1,"method":"bogus/method"}`})
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, errCodeMethodNotFound, resps[0].Error.Code)
}
