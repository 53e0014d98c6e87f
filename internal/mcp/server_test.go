package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/api"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	r.add(Tool{
		Name:        "echo",
		Description: "Echo the arguments back.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in map[string]any
			_ = json.Unmarshal(args, &in)
			return in, nil
		},
	})
	r.add(Tool{
		Name:        "fail",
		Description: "Always fails.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, api.Errorf(api.KindUpstream, "backend exploded")
		},
	})
	return r
}

type frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// runServer feeds the input lines through a server and decodes every
// response frame it writes.
func runServer(t *testing.T, registry *Registry, input string) []frame {
	t.Helper()

	var out bytes.Buffer
	server := NewServer(registry, strings.NewReader(input), &out, testLogger())
	require.NoError(t, server.Run(context.Background()))

	var frames []frame
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var f frame
		require.NoError(t, json.Unmarshal([]byte(line), &f), line)
		frames = append(frames, f)
	}
	return frames
}

func TestServer_Initialize(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {"protocolVersion": "2024-11-05"}}`+"\n")

	require.Len(t, frames, 1)
	require.Nil(t, frames[0].Error)

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(frames[0].Result, &result))
	assert.Equal(t, protocolVersion, result.ProtocolVersion)
	assert.Equal(t, "etrade-mcp", result.ServerInfo.Name)
}

func TestServer_InitializedNotificationGetsNoReply(t *testing.T) {
	input := `{"jsonrpc": "2.0", "method": "notifications/initialized"}` + "\n" +
		`{"jsonrpc": "2.0", "id": 2, "method": "ping"}` + "\n"

	frames := runServer(t, testRegistry(), input)

	require.Len(t, frames, 1, "notification must not produce a response")
	assert.Equal(t, json.RawMessage("2"), frames[0].ID)
}

func TestServer_ToolsList(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`+"\n")

	require.Len(t, frames, 1)
	var result struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(frames[0].Result, &result))
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "echo", result.Tools[0].Name)
	assert.NotEmpty(t, result.Tools[0].InputSchema)
}

func toolText(t *testing.T, f frame) (string, bool) {
	t.Helper()
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(f.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result.Content[0].Text, result.IsError
}

func TestServer_ToolsCall(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 3, "method": "tools/call", "params": {"name": "echo", "arguments": {"hello": "world"}}}`+"\n")

	require.Len(t, frames, 1)
	require.Nil(t, frames[0].Error)

	text, isError := toolText(t, frames[0])
	assert.False(t, isError)
	assert.JSONEq(t, `{"hello": "world"}`, text)
}

func TestServer_ToolFailureIsPayloadNotProtocolError(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 4, "method": "tools/call", "params": {"name": "fail", "arguments": {}}}`+"\n")

	require.Len(t, frames, 1)
	require.Nil(t, frames[0].Error, "handler failures must not surface as JSON-RPC errors")

	text, isError := toolText(t, frames[0])
	assert.True(t, isError)
	assert.Contains(t, text, `"error"`)
	assert.Contains(t, text, "backend exploded")
}

func TestServer_UnknownTool(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 5, "method": "tools/call", "params": {"name": "no_such_tool"}}`+"\n")

	require.Len(t, frames, 1)
	require.NotNil(t, frames[0].Error)
	assert.Equal(t, codeInvalidParams, frames[0].Error.Code)
}

func TestServer_UnknownMethod(t *testing.T) {
	frames := runServer(t, testRegistry(), `{"jsonrpc": "2.0", "id": 6, "method": "resources/list"}`+"\n")

	require.Len(t, frames, 1)
	require.NotNil(t, frames[0].Error)
	assert.Equal(t, codeMethodNotFound, frames[0].Error.Code)
}

func TestServer_ParseError(t *testing.T) {
	input := "this is not json\n" +
		`{"jsonrpc": "2.0", "id": 7, "method": "ping"}` + "\n"

	frames := runServer(t, testRegistry(), input)

	require.Len(t, frames, 2, "a bad line must not stop the loop")
	require.NotNil(t, frames[0].Error)
	assert.Equal(t, codeParseError, frames[0].Error.Code)
	assert.Nil(t, frames[1].Error)
}

func TestRegistry_FullToolSet(t *testing.T) {
	registry := NewRegistry(Deps{
		Client: api.NewUnsignedClient("http://unused", "key"),
		Log:    testLogger(),
	})

	names := make([]string, 0, len(registry.List()))
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.True(t, json.Valid(tool.InputSchema), tool.Name)
	}

	assert.Equal(t, []string{
		"get_accounts",
		"get_account_balance",
		"get_quote",
		"get_options_chain",
		"get_spx_options_chain",
		"place_order",
		"get_orders",
		"get_order",
		"cancel_order",
	}, names)
}

func TestRegistry_GetAccountsEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/list.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AccountListResponse": {"Accounts": {"Account": [
			{"accountId": "840104290", "accountIdKey": "abc123", "accountStatus": "ACTIVE"},
			{"accountId": "840104291", "accountIdKey": "def456", "accountStatus": "CLOSED"}
		]}}}`))
	}))
	defer server.Close()

	registry := NewRegistry(Deps{
		Client: api.NewUnsignedClient(server.URL, "key"),
		Log:    testLogger(),
	})

	frames := runServer(t, registry, `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "get_accounts", "arguments": {}}}`+"\n")
	require.Len(t, frames, 1)

	text, isError := toolText(t, frames[0])
	assert.False(t, isError)
	assert.Contains(t, text, "abc123")
	assert.NotContains(t, text, "def456", "closed accounts are filtered out")
	assert.Contains(t, text, "formatted_display")
}
