package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"mcphub-mcp/internal/config"
)

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// Run serves the configured transport and blocks until ctx is done or the
// transport stops.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		return s.RunStdio(ctx)
	case config.TransportHTTP:
		return s.RunHTTP(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", s.cfg.Transport)
	}
}

// RunStdio runs a single MCP session over standard input and output until the
// peer disconnects or ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	log.Println("Starting stdio transport...")
	return s.serveSession(ctx, &mcp.StdioTransport{})
}

// serveSession runs one MCP session on transport. Cancellation and EOF are a
// normal end of session.
func (s *Server) serveSession(ctx context.Context, transport mcp.Transport) error {
	err := s.mcp.Run(ctx, transport)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		log.Println("MCP session closed")
		return nil
	}
	return fmt.Errorf("serve MCP: %w", err)
}

// RunHTTP listens on the configured host and port and serves the HTTP routes
// until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.serveHTTP(ctx, ln)
}

// serveHTTP serves on ln. On cancellation it stops accepting connections, lets
// in-flight requests finish within the shutdown timeout, then closes whatever
// SSE streams remain.
func (s *Server) serveHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Printf("Starting MCP HTTP server on %s", ln.Addr())
	log.Printf("SSE endpoint: http://%s%s", ln.Addr(), ssePath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown incomplete: %v; closing open streams", err)
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}
