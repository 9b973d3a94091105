package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/websearch/ddg-mcp/search"
)

const (
	serverName        = "DuckDuckGo Web Search"
	defaultMaxResults = 5
	// maxResultsCap is the single ceiling applied to both the plain and
	// all_results paths.
	maxResultsCap = 10
)

// Dispatcher routes one parsed JSON-RPC request to its handler and produces
// the SSE frames for the reply. It holds no state across requests.
type Dispatcher struct {
	searcher search.Searcher
	version  string
}

// NewDispatcher creates a dispatcher backed by the given searcher.
func NewDispatcher(searcher search.Searcher, version string) *Dispatcher {
	return &Dispatcher{searcher: searcher, version: version}
}

// Dispatch handles a single request. The returned frames always end with a
// done frame; errors are turned into error frames, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) []Frame {
	log := zerolog.Ctx(ctx)

	var frames []Frame
	switch req.Method {
	case "initialize":
		frames = []Frame{resultFrame(req, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": d.version,
			},
		})}

	case "resources/list":
		// Declared in initialize but unimplemented.
		frames = []Frame{resultFrame(req, map[string]any{"resources": []any{}})}

	case "tools/list":
		frames = []Frame{resultFrame(req, map[string]any{"tools": []any{webSearchTool()}})}

	case "notifications/initialized":
		log.Info().Msg("Client initialized")

	case "notifications/cancelled":
		var p cancelParams
		if err := json.Unmarshal(req.Params, &p); err == nil {
			log.Debug().
				RawJSON("cancelled_id", nonEmptyJSON(p.RequestID)).
				Str("reason", p.Reason).
				Msg("Request cancelled by client")
		}

	case "tools/call":
		frames = d.handleToolCall(ctx, req)

	case "":
		frames = []Frame{errorFrame(req, codeInvalidRequest, "no method specified in request")}

	default:
		frames = []Frame{errorFrame(req, codeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))}
	}

	return append(frames, doneFrame())
}

func (d *Dispatcher) handleToolCall(ctx context.Context, req *Request) []Frame {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return []Frame{errorFrame(req, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))}
	}
	if params.Name != "web_search" {
		return []Frame{errorFrame(req, codeMethodNotFound, fmt.Sprintf("unknown tool: %s", params.Name))}
	}

	var args searchArguments
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return []Frame{errorFrame(req, codeInvalidParams, fmt.Sprintf("invalid arguments: %v", err))}
		}
	}
	if args.Query == "" {
		return []Frame{errorFrame(req, codeInvalidParams, "query parameter is required")}
	}

	max, opts := searchOptions(args)
	log := zerolog.Ctx(ctx)
	log.Info().
		Str("query", args.Query).
		Int("max_results", max).
		Bool("all_results", args.AllResults).
		Str("region", opts.Region).
		Str("safesearch", opts.SafeSearch).
		Str("timelimit", opts.TimeLimit).
		Msg("Searching")

	hits, err := d.searcher.Search(ctx, args.Query, opts)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// Client went away mid-search; nothing left to say.
		return nil
	case errors.Is(err, search.ErrResultMarkup):
		// DuckDuckGo has shipped result-page markup the parser does not
		// recognize before; degrade to an empty result set instead of
		// failing the call.
		log.Warn().Msg("Result markup not recognized, returning empty results")
		hits = nil
	case search.IsUnavailable(err):
		log.Warn().Err(err).Msg("Search backend unreachable")
		return []Frame{resultFrame(req, textResult(
			fmt.Sprintf("Search is currently unreachable: %v", err), true))}
	default:
		log.Error().Err(err).Msg("Search failed")
		return []Frame{errorFrame(req, codeInternalError, fmt.Sprintf("search failed: %v", err))}
	}

	return []Frame{resultFrame(req, textResult(search.FormatMarkdown(hits, max), false))}
}

// searchOptions normalizes tool arguments into an effective result bound and
// collaborator options.
func searchOptions(args searchArguments) (int, search.Options) {
	max := defaultMaxResults
	if args.AllResults {
		max = maxResultsCap
	} else if args.MaxResults != nil {
		max = *args.MaxResults
		if max < 1 {
			max = 1
		}
		if max > maxResultsCap {
			max = maxResultsCap
		}
	}

	region := strings.TrimSpace(args.Region)
	if region == "" {
		region = "wt-wt"
	}

	safesearch := strings.ToLower(args.SafeSearch)
	switch safesearch {
	case search.SafeSearchOff, search.SafeSearchModerate, search.SafeSearchStrict:
	default:
		safesearch = search.SafeSearchModerate
	}

	timelimit := strings.ToLower(args.TimeLimit)
	switch timelimit {
	case "d", "w", "m", "y":
	default:
		timelimit = ""
	}

	return max, search.Options{
		MaxResults: max,
		Region:     region,
		SafeSearch: safesearch,
		TimeLimit:  timelimit,
	}
}

func nonEmptyJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
