package main

import (
	"log"
	"os"

	mcpadapter "github.com/pongchanan/Healthcare-AI/internal/adapters/mcp"
	"github.com/pongchanan/Healthcare-AI/internal/bootstrap"
	"github.com/pongchanan/Healthcare-AI/internal/config"
	"github.com/pongchanan/Healthcare-AI/internal/observability/logging"
)

// The MCP binary exposes the retrieval tools over stdio. Logs go to stderr so
// stdout stays reserved for the protocol stream.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.NewWithWriter(os.Stderr, "mcp", cfg.LogLevel)
	app, err := bootstrap.New(cfg, logger, nil)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	server := mcpadapter.NewServer(app.Live, app.Tabular, app.Vector, cfg.RAGTopK)
	logger.Info("mcp serving on stdio")
	if err := server.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
