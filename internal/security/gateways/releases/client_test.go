package releases

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/cd-security/internal/security/domain"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{URL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestLatest_OK(t *testing.T) {
	c := serve(t, http.StatusOK, `{"version":"1.2","download_url":"https://dl.example.test/cd-security.zip"}`)
	rel, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Release{Version: "1.2", DownloadURL: "https://dl.example.test/cd-security.zip"}, rel)
}

func TestLatest_MissingDownloadURLIsAllowed(t *testing.T) {
	c := serve(t, http.StatusOK, `{"version":"1.3"}`)
	rel, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rel.DownloadURL)
}

func TestLatest_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusNotFound, `{"version":"9.9"}`},
		{"no content", http.StatusNoContent, ``},
		{"malformed json", http.StatusOK, `{"version":`},
		{"missing version", http.StatusOK, `{"download_url":"https://x"}`},
		{"null body", http.StatusOK, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, tt.status, tt.body)
			_, err := c.Latest(context.Background())
			assert.Error(t, err)
		})
	}
}
