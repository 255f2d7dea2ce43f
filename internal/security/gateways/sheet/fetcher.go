package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

const (
	errURLRequired    = "block list URL is required"
	errBuildRequest   = "build request: %w"
	errRequestFailed  = "request failed: %w"
	errUnexpectedCode = "unexpected status %d"
	errReadBody       = "read body: %w"
)

// Fetcher downloads the published block list. Every call performs a fresh
// GET; nothing is cached and nothing is retried.
type Fetcher struct {
	url    string
	client *http.Client
	logger log.Logger
}

// Options configures a Fetcher.
type Options struct {
	URL string
	// Timeout applies only when Client is nil. Zero means no timeout.
	Timeout time.Duration
	// options to inject for testing purposes
	Client *http.Client
	Logger log.Logger
}

// NewFetcher validates opts and returns a Fetcher.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf(errURLRequired)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	return &Fetcher{url: opts.URL, client: opts.Client, logger: opts.Logger}, nil
}

// Fetch returns the current block list. Any transport failure yields an
// empty list, which the evaluator treats as "nothing matches".
func (f *Fetcher) Fetch(ctx context.Context) domain.BlockList {
	body, err := f.get(ctx)
	if err != nil {
		f.logger.Error(map[string]any{"url": f.url, "error": err.Error()}, "Failed to fetch block list")
		return domain.BlockList{}
	}

	list := ParseBlockList(body, f.logger)
	f.logger.Info(map[string]any{"count": list.Len(), "entries": list}, "Block list fetched")
	return list
}

func (f *Fetcher) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf(errBuildRequest, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf(errRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf(errUnexpectedCode, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf(errReadBody, err)
	}
	return string(b), nil
}
