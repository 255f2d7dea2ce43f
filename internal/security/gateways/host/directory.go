package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haukened/cd-security/internal/security/domain"
	"github.com/haukened/cd-security/internal/security/services/guard"
)

const (
	errBaseURLRequired = "host base URL is required"
	errBadBaseURL      = "invalid host base URL: %w"
	errBuildRequest    = "build request: %w"
	errRequestFailed   = "request failed: %w"
	errUnexpectedCode  = "unexpected status %d: %s"
	errDecode          = "decode user: %w"
	defaultTimeout     = 10 * time.Second
)

// Directory talks to the host site's user endpoints:
//
//	GET    {base}/users/{id}  -> {"id":..,"login":..,"email":..,"registered":..}
//	DELETE {base}/users/{id}
type Directory struct {
	base   *url.URL
	token  string
	client *http.Client
}

// Options configures a Directory.
type Options struct {
	BaseURL string
	// Token is sent as a bearer credential when set.
	Token  string
	Client *http.Client
}

// NewDirectory validates opts and returns a Directory.
func NewDirectory(opts Options) (*Directory, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf(errBaseURLRequired)
	}
	u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf(errBadBaseURL, err)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: defaultTimeout}
	}
	return &Directory{base: u, token: opts.Token, client: opts.Client}, nil
}

// Lookup fetches the user record for id.
func (d *Directory) Lookup(ctx context.Context, id uint64) (domain.User, error) {
	resp, err := d.do(ctx, http.MethodGet, id)
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	var u domain.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return domain.User{}, fmt.Errorf(errDecode, err)
	}
	if u.ID == 0 {
		u.ID = id
	}
	return u, nil
}

// Delete permanently removes the user account.
func (d *Directory) Delete(ctx context.Context, id uint64) error {
	resp, err := d.do(ctx, http.MethodDelete, id)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (d *Directory) do(ctx context.Context, method string, id uint64) (*http.Response, error) {
	endpoint := d.base.JoinPath("users", strconv.FormatUint(id, 10))
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf(errBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf(errRequestFailed, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, guard.ErrUserNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf(errUnexpectedCode, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

var _ guard.UserDirectory = (*Directory)(nil)
