// Command demoserver serves a local copy of the tenant verification form so
// the submitter can be exercised without touching the live portal.
// Usage: go run ./cmd/demoserver [port] [mode]
// Default port: 9999, mode: accept (accept | reject | noref | hang).
// Point the API at it with POLICEFORM_FORM_URL=http://localhost:9999/old/verificationform.aspx.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/policeform/internal/demoserver"
	"github.com/raysh454/policeform/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if len(os.Args) > 2 {
		cfg.Mode = demoserver.Mode(os.Args[2])
		if !cfg.Mode.Valid() {
			log.Fatalf("Invalid mode: %s", os.Args[2])
		}
	}

	logger := logging.NewZapLogger(logging.Config{Level: "info", Format: "console", ServiceName: "demoserver"})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := demoserver.NewDemoServer(cfg, logger)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
