// Package app is the Wails application layer. It wires the session core,
// the execution engine, storage, and the file watcher together, and exposes
// the frontend bindings.
package app

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sqlpad/internal/bridge"
	"sqlpad/internal/session"
	"sqlpad/internal/sqlexec"
	"sqlpad/internal/storage"
	"sqlpad/internal/watcher"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	db      *storage.DB
	bus     *bridge.Bus
	session *session.Session
	engine  *sqlexec.Engine
	files   *watcher.Watcher
	cron    *cron.Cron
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Emit implements session.Emitter by forwarding to the Wails event runtime.
func (a *App) Emit(ctx context.Context, event string, data any) {
	if ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "sqlpad")
	dbPath := filepath.Join(dataDir, "sqlpad.db")

	db, err := storage.New(dbPath)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db

	a.bus = bridge.New()
	a.engine = sqlexec.New(a.bus)
	a.session = session.New(a, a.bus, storage.NewStateStore(db))
	a.session.SetContext(ctx)
	a.session.RestoreState()

	files, err := watcher.New(func(instanceID, path string) {
		a.session.NotifyFileChanged(instanceID)
	})
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to create file watcher: %v", err)
	} else {
		a.files = files
		for _, inst := range a.session.Instances() {
			if inst.Path != "" {
				files.Watch(inst.ID, inst.Path)
			}
		}
	}

	// periodic autosave catches state mutations that bypass the
	// per-operation persistence (editor keystrokes mostly)
	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@every 1m", a.session.SaveState); err != nil {
		log.Printf("[app] schedule autosave: %v", err)
	}
	a.cron.Start()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.session != nil {
		a.session.SaveState()
	}
	if a.files != nil {
		a.files.Close()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
