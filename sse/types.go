package main

import "encoding/json"

// JSON-RPC error codes used by the dispatcher.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

const protocolVersion = "2025-06-18"

// Request is the inbound JSON-RPC envelope. JSONRPC and ID are optional;
// when both are present the response is JSON-RPC enveloped, otherwise bare
// results and errors are emitted.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// enveloped reports whether responses to this request carry the JSON-RPC
// envelope.
func (r *Request) enveloped() bool {
	return r.JSONRPC == "2.0" && len(r.ID) > 0 && string(r.ID) != "null"
}

// rpcError is the JSON-RPC error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is the outbound JSON-RPC envelope. Exactly one of Result and
// Error is set.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// toolCallParams is the params shape for tools/call.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// cancelParams is the params shape for notifications/cancelled.
type cancelParams struct {
	RequestID json.RawMessage `json:"requestId"`
	Reason    string          `json:"reason"`
}

// searchArguments are the web_search tool arguments. Pointers distinguish
// "absent" from zero values where the default matters.
type searchArguments struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results"`
	AllResults bool   `json:"all_results"`
	Region     string `json:"region"`
	SafeSearch string `json:"safesearch"`
	TimeLimit  string `json:"timelimit"`
}

// textContent is one content block of a tool result.
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolResult is the tools/call result payload. IsError marks structured
// failures such as an unreachable search backend, distinct from an empty
// result set.
type toolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func textResult(text string, isErr bool) toolResult {
	return toolResult{
		Content: []textContent{{Type: "text", Text: text}},
		IsError: isErr,
	}
}

// webSearchTool is the static schema advertised by tools/list.
func webSearchTool() map[string]any {
	return map[string]any{
		"name":        "web_search",
		"description": "Search the web using DuckDuckGo",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (capped at 10)",
					"default":     defaultMaxResults,
					"minimum":     1,
					"maximum":     maxResultsCap,
				},
				"all_results": map[string]any{
					"type":        "boolean",
					"description": "Fetch maximum results (capped at 10)",
					"default":     false,
				},
				"region": map[string]any{
					"type":        "string",
					"description": "Search region, e.g., wt-wt (global), us-en, uk-en",
					"default":     "wt-wt",
				},
				"safesearch": map[string]any{
					"type":        "string",
					"description": "SafeSearch level: off | moderate | strict",
					"default":     "moderate",
					"enum":        []string{"off", "moderate", "strict"},
				},
				"timelimit": map[string]any{
					"type":        "string",
					"description": "Time limit for results: d (day), w (week), m (month), y (year)",
					"enum":        []string{"d", "w", "m", "y"},
				},
			},
			"required": []string{"query"},
		},
	}
}
