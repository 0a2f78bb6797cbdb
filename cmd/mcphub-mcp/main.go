// Command mcphub-mcp exposes the MCP Hub catalog as read-only MCP tools over
// stdio or HTTP/SSE.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcphub-mcp/internal/config"
	"mcphub-mcp/internal/hub"
	"mcphub-mcp/internal/server"
	"mcphub-mcp/internal/telemetry"
	"mcphub-mcp/internal/tools"
)

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	// Logs go to stderr; stdout carries protocol frames in stdio mode.
	log.SetOutput(os.Stderr)
	log.SetPrefix("[MCP] ")
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
	log.Println("Server stopped")
}

// run wires the catalog client, tool dispatcher and transport, then serves until
// ctx is cancelled.
func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    cfg.ServerName,
		ServiceVersion: server.Version,
		Endpoint:       cfg.OTelEndpoint,
		Enabled:        bool(cfg.OTelEnabled),
	})
	if err != nil {
		log.Printf("WARN: tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("flush traces: %v", err)
		}
	}()

	client := hub.New(cfg.HubURL, nil, hub.Options{
		Timeout:   cfg.APITimeout,
		VerifySSL: bool(cfg.VerifySSL),
		Debug:     cfg.Debug(),
	})
	defer client.Close()

	log.Printf("MCP Hub API: %s", cfg.HubURL)
	srv := server.New(cfg, tools.NewDispatcher(client, tools.NewRegistry()))
	return srv.Run(ctx)
}
