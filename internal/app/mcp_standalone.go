package app

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"sqlpad/internal/bridge"
	mcpserver "sqlpad/internal/mcp"
	"sqlpad/internal/session"
	"sqlpad/internal/sqlexec"
	"sqlpad/internal/storage"
)

// noopEmitter is a no-op Emitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no
// GUI. It loads the same persisted connection registry the desktop app uses.
func ServeMCP() {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "sqlpad")
	dbPath := filepath.Join(dataDir, "sqlpad.db")

	db, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	bus := bridge.New()
	defer bus.Close()
	sqlexec.New(bus)

	sess := session.New(noopEmitter{}, bus, storage.NewStateStore(db))
	sess.RestoreState()

	srv := mcpserver.New(sess)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("MCP server: %v", err)
	}
}
