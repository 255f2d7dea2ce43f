package releases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/haukened/cd-security/internal/security/domain"
)

const (
	errURLRequired    = "release endpoint URL is required"
	errBuildRequest   = "build request: %w"
	errRequestFailed  = "request failed: %w"
	errUnexpectedCode = "unexpected status %d"
	errDecode         = "decode release: %w"
	maxBodyBytes      = 1 << 20
)

// Client reads the latest release metadata from the update endpoint.
type Client struct {
	url    string
	client *http.Client
}

// Options configures a Client.
type Options struct {
	URL    string
	Client *http.Client
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf(errURLRequired)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &Client{url: opts.URL, client: opts.Client}, nil
}

// URL returns the endpoint the client polls.
func (c *Client) URL() string { return c.url }

// Latest fetches and validates the release document. Anything other than a
// 200 with a JSON body carrying a version is an error.
func (c *Client) Latest(ctx context.Context) (domain.Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Release{}, fmt.Errorf(errBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Release{}, fmt.Errorf(errRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Release{}, fmt.Errorf(errUnexpectedCode, resp.StatusCode)
	}

	var rel domain.Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&rel); err != nil {
		return domain.Release{}, fmt.Errorf(errDecode, err)
	}
	if err := rel.Validate(); err != nil {
		return domain.Release{}, fmt.Errorf(errDecode, err)
	}
	return rel, nil
}
