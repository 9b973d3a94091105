package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultBaseURL   = "https://html.duckduckgo.com/html/"
	defaultUserAgent = "ddg-mcp/1.0 (+https://github.com/websearch/ddg-mcp)"
	defaultTimeout   = 30 * time.Second
)

// Client queries the DuckDuckGo HTML endpoint and parses result markup into
// structured hits. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a DuckDuckGo search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs the query against DuckDuckGo and returns up to
// opts.MaxResults raw hits in page order.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	form := url.Values{"q": {query}}
	if opts.Region != "" {
		form.Set("kl", opts.Region)
	}
	if kp := safeSearchParam(opts.SafeSearch); kp != "" {
		form.Set("kp", kp)
	}
	if opts.TimeLimit != "" {
		form.Set("df", opts.TimeLimit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// The results live under #links as .result blocks. When DuckDuckGo
	// changes this markup (it has before), every selector below goes
	// quiet at once; report that distinctly so callers can degrade to an
	// empty result set instead of serving a misleading hard error.
	container := doc.Find("#links")
	if container.Length() == 0 {
		return nil, ErrResultMarkup
	}

	var results []Result
	container.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
			return false
		}
		anchor := sel.Find(".result__a").First()
		href, _ := anchor.Attr("href")
		results = append(results, Result{
			Title:   strings.TrimSpace(anchor.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return true
	})

	return results, nil
}

// safeSearchParam maps a safesearch level to DuckDuckGo's kp parameter.
func safeSearchParam(level string) string {
	switch level {
	case SafeSearchStrict:
		return "1"
	case SafeSearchOff:
		return "-2"
	case SafeSearchModerate:
		return "-1"
	default:
		return ""
	}
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links to
// the destination URL. Direct links pass through unchanged.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path != "/l/" {
		return href
	}
	target := u.Query().Get("uddg")
	if target == "" {
		return href
	}
	return target
}
