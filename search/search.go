// Package search provides the DuckDuckGo web search client and the Markdown
// result formatter shared by the SSE and stdio servers.
package search

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Result is a single raw search hit. Any field may be empty; the formatter
// decides what is renderable.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SafeSearch levels accepted by DuckDuckGo.
const (
	SafeSearchOff      = "off"
	SafeSearchModerate = "moderate"
	SafeSearchStrict   = "strict"
)

// Options are the tuning parameters for a search query.
type Options struct {
	// MaxResults bounds how many hits are returned. Zero means the
	// provider default.
	MaxResults int
	// Region is a DuckDuckGo region code such as "wt-wt" or "us-en".
	Region string
	// SafeSearch is one of off, moderate, strict.
	SafeSearch string
	// TimeLimit restricts result age: d, w, m or y. Empty means no limit.
	TimeLimit string
}

// Searcher executes a web search query.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// ErrResultMarkup reports that DuckDuckGo responded but the result markup
// had no recognizable result container. Upstream changes its HTML from time
// to time; callers that want to stay up across such drift can treat this as
// an empty result set.
var ErrResultMarkup = errors.New("unrecognized result markup")

// ErrUnavailable marks failures where DuckDuckGo could not be reached or
// refused to serve the query.
var ErrUnavailable = errors.New("search unavailable")

// IsUnavailable reports whether err is a network-level failure reaching
// DuckDuckGo (DNS, refused connection, timeout, upstream 5xx), as opposed to
// a search that ran and found nothing.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
