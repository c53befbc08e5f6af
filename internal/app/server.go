// Package app hosts the scene server runtime: storage, sessions, and the
// websocket API behind a single HTTP listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/netutil"

	"github.com/lukeharby/wildspace/internal/api/ws"
	"github.com/lukeharby/wildspace/internal/game"
	"github.com/lukeharby/wildspace/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Options configures a scene server.
type Options struct {
	// Addr is the listen address, e.g. ":8082".
	Addr string
	// DatabasePath locates the sqlite database file.
	DatabasePath string
	// TokenSecret signs and verifies scene join tokens.
	TokenSecret []byte
	// MaxConns caps concurrent accepted connections. Zero means no cap.
	MaxConns int
}

// Server hosts the Wildspace scene server.
type Server struct {
	listener net.Listener
	http     *http.Server
	store    *sqlite.Store
	registry *game.Registry
}

// New creates a configured scene server listening on the given address.
func New(opts Options) (*Server, error) {
	if len(opts.TokenSecret) == 0 {
		return nil, errors.New("token secret is required")
	}
	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}
	if opts.MaxConns > 0 {
		listener = netutil.LimitListener(listener, opts.MaxConns)
	}
	store, err := openSceneStore(opts.DatabasePath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	registry := game.NewRegistry(store, store)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(registry, opts.TokenSecret))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		listener: listener,
		http:     &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		store:    store,
		registry: registry,
	}, nil
}

// Addr returns the listener address for the scene server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve starts the scene server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("scene server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.http.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		s.registry.Shutdown()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		s.registry.Shutdown()
		return handleErr(err)
	}
}

// Run creates and serves a scene server until the context ends.
func Run(ctx context.Context, opts Options) error {
	server, err := New(opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

func openSceneStore(path string) (*sqlite.Store, error) {
	if path == "" {
		path = filepath.Join("data", "scenes.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close scene store: %v", err)
	}
}
