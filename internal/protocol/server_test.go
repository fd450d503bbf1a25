package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-mcp/internal/dispatch"
	"github.com/quantfolio/portfolio-mcp/internal/session"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires a registry with an echo tool (auth-gated when withAuth is
// true) behind a protocol server, and returns the session id the server
// dispatches under.
func fixture(t *testing.T, withAuth bool) (*Server, string) {
	t.Helper()

	log := nopLogger()
	registry := tool.NewRegistry()
	sessions := session.NewStore(log, 0)

	require.NoError(t, registry.Register(&tool.Definition{
		Name:         "echo",
		Description:  "Returns its input",
		Schema:       tool.SimpleSchema(map[string]string{"text": "string"}),
		Category:     "testing",
		RiskLevel:    tool.RiskLow,
		RequiresAuth: withAuth,
		Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
			return args, nil
		}),
	}))

	require.NoError(t, registry.Register(&tool.Definition{
		Name:        "fail",
		Description: "Always fails",
		Category:    "testing",
		Handler: tool.HandlerFunc(func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		}),
	}))

	sessionID := sessions.Create("t")
	dispatcher := dispatch.NewDispatcher(log, registry, sessions, 0)
	server := NewServer(log, ServerInfo{Name: "portfolio-mcp", Version: "1.0.0"}, registry, dispatcher, sessionID)

	return server, sessionID
}

// serve feeds input lines through the server and returns one decoded
// response per output line.
func serve(t *testing.T, server *Server, input string) []map[string]any {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, server.Serve(context.Background(), strings.NewReader(input), &out))

	var responses []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}

		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "response line must be valid JSON: %s", line)
		responses = append(responses, resp)
	}

	return responses
}

// envelopeOf extracts the dispatch envelope serialized into a call-tool
// response's result content.
func envelopeOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()

	result, ok := resp["result"].(map[string]any)
	require.True(t, ok, "call-tool response must carry a result")

	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)

	block := content[0].(map[string]any)
	require.Equal(t, "text", block["type"])

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &env))

	return env
}

func TestServeInitialize(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server, `{"id":1,"method":"initialize","params":{}}`+"\n")
	require.Len(t, responses, 1)
	require.Equal(t, float64(1), responses[0]["id"])

	result := responses[0]["result"].(map[string]any)
	require.Equal(t, Version, result["protocolVersion"])
	require.Equal(t, map[string]any{"tools": map[string]any{}}, result["capabilities"])
	require.Equal(t, map[string]any{"name": "portfolio-mcp", "version": "1.0.0"}, result["serverInfo"])
}

func TestServeListTools(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server, `{"id":"a","method":"list-tools"}`+"\n")
	require.Len(t, responses, 1)
	require.Equal(t, "a", responses[0]["id"])

	result := responses[0]["result"].(map[string]any)
	tools := result["tools"].([]any)
	require.Len(t, tools, 2)

	first := tools[0].(map[string]any)
	require.Equal(t, "echo", first["name"])
	require.NotEmpty(t, first["description"])

	schema := first["inputSchema"].(map[string]any)
	require.Equal(t, "object", schema["type"])
	require.Equal(t, []any{"text"}, schema["required"])
}

func TestServeCallToolSuccess(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server,
		`{"id":7,"method":"call-tool","params":{"name":"echo","arguments":{"text":"hi"}}}`+"\n")
	require.Len(t, responses, 1)
	require.Equal(t, float64(7), responses[0]["id"])
	require.NotContains(t, responses[0], "error")

	env := envelopeOf(t, responses[0])
	require.Equal(t, true, env["success"])
	require.Equal(t, map[string]any{"text": "hi"}, env["data"])
	require.NotEmpty(t, env["timestamp"])
}

func TestServeCallToolMissingParameter(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server,
		`{"id":8,"method":"call-tool","params":{"name":"echo","arguments":{}}}`+"\n")
	require.Len(t, responses, 1)

	env := envelopeOf(t, responses[0])
	require.Equal(t, false, env["success"])
	require.Equal(t, "Required parameter 'text' missing", env["error"])

	// Failure is mirrored at the transport error level.
	outer := responses[0]["error"].(map[string]any)
	require.Equal(t, float64(CodeDispatchFailed), outer["code"])
	require.Equal(t, "Required parameter 'text' missing", outer["message"])
}

func TestServeCallToolAuthGate(t *testing.T) {
	server := func() *Server {
		log := nopLogger()
		registry := tool.NewRegistry()
		sessions := session.NewStore(log, 0)

		_ = registry.Register(&tool.Definition{
			Name:         "echo",
			Description:  "Returns its input",
			Schema:       tool.SimpleSchema(map[string]string{"text": "string"}),
			RequiresAuth: true,
			Handler: tool.HandlerFunc(func(_ context.Context, args map[string]any) (any, error) {
				return args, nil
			}),
		})

		// No session created: the connection dispatches with an empty id.
		dispatcher := dispatch.NewDispatcher(log, registry, sessions, 0)

		return NewServer(log, ServerInfo{Name: "s", Version: "1"}, registry, dispatcher, "")
	}()

	responses := serve(t, server,
		`{"id":9,"method":"call-tool","params":{"name":"echo","arguments":{"text":"hi"}}}`+"\n")
	require.Len(t, responses, 1)

	env := envelopeOf(t, responses[0])
	require.Equal(t, false, env["success"])
	require.Equal(t, "Authentication required", env["error"])
}

func TestServeHandlerFailureDoesNotStopLoop(t *testing.T) {
	server, _ := fixture(t, false)

	input := `{"id":1,"method":"call-tool","params":{"name":"fail","arguments":{}}}` + "\n" +
		`{"id":2,"method":"call-tool","params":{"name":"echo","arguments":{"text":"still here"}}}` + "\n"

	responses := serve(t, server, input)
	require.Len(t, responses, 2)

	env := envelopeOf(t, responses[0])
	require.Equal(t, "Tool execution failed: boom", env["error"])

	env = envelopeOf(t, responses[1])
	require.Equal(t, true, env["success"])
	require.Equal(t, map[string]any{"text": "still here"}, env["data"])
}

func TestServeMalformedLineIsDropped(t *testing.T) {
	server, _ := fixture(t, false)

	input := "this is not json\n" + `{"id":3,"method":"list-tools"}` + "\n"

	responses := serve(t, server, input)
	require.Len(t, responses, 1, "the unparseable line gets no response")
	require.Equal(t, float64(3), responses[0]["id"])
	require.Contains(t, responses[0], "result")
}

func TestServeBlankLinesIgnored(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server, "\n\n"+`{"id":4,"method":"initialize"}`+"\n\n")
	require.Len(t, responses, 1)
}

func TestServeUnknownMethod(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server, `{"id":5,"method":"shutdown"}`+"\n")
	require.Len(t, responses, 1)
	require.Equal(t, float64(5), responses[0]["id"])
	require.NotContains(t, responses[0], "result")

	outer := responses[0]["error"].(map[string]any)
	require.Equal(t, float64(CodeMethodNotFound), outer["code"])
	require.Equal(t, "Method not found: shutdown", outer["message"])
}

func TestServeMalformedParamsIsInternalError(t *testing.T) {
	server, _ := fixture(t, false)

	responses := serve(t, server, `{"id":6,"method":"call-tool","params":[1,2]}`+"\n")
	require.Len(t, responses, 1)
	require.Equal(t, float64(6), responses[0]["id"])

	outer := responses[0]["error"].(map[string]any)
	require.Equal(t, float64(CodeInternalError), outer["code"])
	require.Contains(t, outer["message"], "Internal error")
}

func TestServeEmptyInputTerminatesCleanly(t *testing.T) {
	server, _ := fixture(t, false)

	var out bytes.Buffer
	require.NoError(t, server.Serve(context.Background(), strings.NewReader(""), &out))
	require.Zero(t, out.Len())
}
