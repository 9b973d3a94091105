package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/websearch/ddg-mcp/search"
)

// Input are the web_search tool arguments.
type Input struct {
	Query      string `json:"query" jsonschema:"the search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, 1 to 10, default 5"`
	AllResults bool   `json:"all_results,omitempty" jsonschema:"fetch the maximum number of results (capped at 10)"`
	Region     string `json:"region,omitempty" jsonschema:"search region such as wt-wt, us-en, uk-en"`
	SafeSearch string `json:"safesearch,omitempty" jsonschema:"safesearch level: off, moderate or strict"`
	TimeLimit  string `json:"timelimit,omitempty" jsonschema:"time limit for results: d, w, m or y"`
}

// Output carries the rendered Markdown result list.
type Output struct {
	Result string `json:"result" jsonschema:"search results as a Markdown list"`
}

const maxResultsCap = 10

var defaultMaxResults = 5

var client = search.NewClient()

func init() {
	if v, err := strconv.Atoi(os.Getenv("MAX_RESULTS")); err == nil && v >= 1 && v <= maxResultsCap {
		defaultMaxResults = v
	}
}

// WebSearch runs a DuckDuckGo search and formats the hits.
func WebSearch(ctx context.Context, req *mcp.CallToolRequest, input Input) (
	*mcp.CallToolResult,
	Output,
	error,
) {
	max := defaultMaxResults
	switch {
	case input.AllResults:
		max = maxResultsCap
	case input.MaxResults > 0:
		max = input.MaxResults
		if max > maxResultsCap {
			max = maxResultsCap
		}
	}

	region := strings.TrimSpace(input.Region)
	if region == "" {
		region = "wt-wt"
	}
	safesearch := strings.ToLower(input.SafeSearch)
	switch safesearch {
	case search.SafeSearchOff, search.SafeSearchModerate, search.SafeSearchStrict:
	default:
		safesearch = search.SafeSearchModerate
	}
	timelimit := strings.ToLower(input.TimeLimit)
	switch timelimit {
	case "d", "w", "m", "y":
	default:
		timelimit = ""
	}

	hits, err := client.Search(ctx, input.Query, search.Options{
		MaxResults: max,
		Region:     region,
		SafeSearch: safesearch,
		TimeLimit:  timelimit,
	})
	if err != nil {
		return nil, Output{Result: "Error searching the web"}, err
	}

	return nil, Output{Result: search.FormatMarkdown(hits, max)}, nil
}

func main() {
	// Create a server with a single tool.
	server := mcp.NewServer(&mcp.Implementation{Name: "duckduckgo", Version: "v1.2.1"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "web_search", Description: "Search the web using DuckDuckGo"}, WebSearch)
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
