package transport

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/cd-security/internal/security/common/log"
)

func TestHTTPTransport_Lifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	tr := NewHTTPTransport("127.0.0.1:0", handler, log.NewNoopLogger())
	assert.Equal(t, "127.0.0.1:0", tr.Address())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tr.Start(ctx))
	assert.Error(t, tr.Start(ctx), "second start must fail")

	resp, err := http.Get("http://" + tr.Address() + "/ping")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(b))

	require.NoError(t, tr.Stop())
	require.NoError(t, tr.Stop(), "stop is idempotent")

	client := &http.Client{Timeout: 500 * time.Millisecond}
	_, err = client.Get("http://" + tr.Address() + "/ping")
	assert.Error(t, err)
}

func TestHTTPTransport_StopsOnContextCancel(t *testing.T) {
	tr := NewHTTPTransport("127.0.0.1:0", http.NotFoundHandler(), log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tr.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		tr.mu.RLock()
		defer tr.mu.RUnlock()
		return !tr.running
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHTTPTransport_BadAddress(t *testing.T) {
	tr := NewHTTPTransport("256.0.0.1:99999", http.NotFoundHandler(), log.NewNoopLogger())
	assert.Error(t, tr.Start(context.Background()))
}
