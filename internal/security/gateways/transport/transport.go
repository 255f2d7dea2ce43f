// Package transport exposes the daemon over HTTP: the registration hook the
// host calls, the settings page, and the admin API.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haukened/cd-security/internal/security/common/log"
)

// ServerTransport is the lifecycle contract cmd/cd-securityd drives.
type ServerTransport interface {
	// Start binds the listener and serves in the background until Stop or
	// until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts the server down.
	Stop() error

	// Address returns the bound address.
	Address() string
}

// HTTPTransport serves an http.Handler on a TCP address.
type HTTPTransport struct {
	addr            string
	server          *http.Server
	logger          log.Logger
	shutdownTimeout time.Duration

	mu       sync.RWMutex
	listener net.Listener
	running  bool
}

// NewHTTPTransport creates a stopped transport for handler.
func NewHTTPTransport(addr string, handler http.Handler, logger log.Logger) *HTTPTransport {
	return &HTTPTransport{
		addr: addr,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger,
		shutdownTimeout: 10 * time.Second,
	}
}

func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("HTTP transport already running")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.addr, err)
	}
	t.listener = ln
	t.running = true

	t.logger.Info(map[string]any{"transport": "http", "address": ln.Addr().String()}, "HTTP transport started")

	go func() {
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error(map[string]any{"error": err.Error()}, "HTTP server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}
	t.running = false

	ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer cancel()
	err := t.server.Shutdown(ctx)
	if err != nil {
		t.logger.Warn(map[string]any{"error": err.Error()}, "Error during HTTP shutdown")
	}
	t.logger.Info(map[string]any{"transport": "http", "address": t.addressLocked()}, "HTTP transport stopped")
	return err
}

func (t *HTTPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.addressLocked()
}

func (t *HTTPTransport) addressLocked() string {
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

var _ ServerTransport = (*HTTPTransport)(nil)
