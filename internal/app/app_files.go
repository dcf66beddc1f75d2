package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sqlpad/internal/bridge"
	"sqlpad/internal/domain"
	"sqlpad/internal/export"
	"sqlpad/internal/session"
)

// ============================================================
// Script files
// ============================================================

// OpenScriptFiles shows a native picker for SQL scripts and opens each
// selected file as a new instance. The dialog outcome is also replayed on
// the bridge so the session can forward it to the frontend.
func (a *App) OpenScriptFiles() error {
	paths, err := wailsRuntime.OpenMultipleFilesDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Open SQL Script",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "SQL Scripts", Pattern: "*.sql"},
			{DisplayName: "All Files", Pattern: "*.*"},
		},
	})
	if err != nil {
		a.bus.Emit(bridge.FileDialogClosed, bridge.DialogClosed{Err: err})
		return err
	}
	return a.openScriptPaths(paths)
}

// openScriptPaths opens each picked script as a new instance. Every path
// through here reports the dialog outcome on the bridge, so the frontend
// always learns the dialog finished even when a file turns out unreadable.
func (a *App) openScriptPaths(paths []string) error {
	if len(paths) == 0 {
		a.bus.Emit(bridge.FileDialogClosed, bridge.DialogClosed{Canceled: true})
		return nil
	}

	files := make([]bridge.FileInfo, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			err = fmt.Errorf("stat %s: %w", path, err)
			a.bus.Emit(bridge.FileDialogClosed, bridge.DialogClosed{Err: err})
			return err
		}
		files = append(files, bridge.FileInfo{
			Name:       info.Name(),
			Path:       path,
			Size:       info.Size(),
			Type:       "file",
			ModifiedMs: info.ModTime().UnixMilli(),
		})

		if err := a.openScript(path); err != nil {
			a.bus.Emit(bridge.FileDialogClosed, bridge.DialogClosed{Err: err})
			return err
		}
	}

	a.bus.Emit(bridge.FileDialogClosed, bridge.DialogClosed{Files: files})
	return nil
}

// OpenScriptPath opens one script file as a new active instance.
func (a *App) OpenScriptPath(path string) error {
	return a.openScript(path)
}

func (a *App) openScript(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	code := string(content)
	inst := a.session.CreateInstance(&domain.Instance{
		Name:     filepath.Base(path),
		Path:     path,
		Code:     code,
		Original: session.ContentHash(code),
	})
	a.session.SwitchInstance(session.InstanceByValue(inst))

	if a.files != nil {
		if err := a.files.Watch(inst.ID, path); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "Failed to watch %s: %v", path, err)
		}
	}
	return nil
}

// SaveInstanceFile writes an instance's content to disk. With saveAs, or
// when the instance has no backing file yet, a native save dialog picks the
// target. The outcome is reported on the bridge so the session can update
// the instance's name, path and dirty state.
func (a *App) SaveInstanceFile(instanceID string, saveAs bool) error {
	file, ok := a.session.InstanceFileState(instanceID)
	if !ok {
		return fmt.Errorf("instance %s not found", instanceID)
	}

	path := file.Path
	if saveAs || path == "" {
		name := file.Name
		if filepath.Ext(name) == "" {
			name += ".sql"
		}
		picked, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
			Title:           "Save SQL Script",
			DefaultFilename: name,
			Filters: []wailsRuntime.FileFilter{
				{DisplayName: "SQL Scripts", Pattern: "*.sql"},
			},
		})
		if err != nil {
			return err
		}
		if picked == "" {
			return nil
		}
		path = picked
	}

	if err := os.WriteFile(path, []byte(file.Code), 0o644); err != nil {
		a.bus.Emit(bridge.DownloadCompleted, bridge.DownloadDone{InstanceID: instanceID})
		return fmt.Errorf("write %s: %w", path, err)
	}

	a.bus.Emit(bridge.DownloadCompleted, bridge.DownloadDone{
		Success:    true,
		Path:       path,
		InstanceID: instanceID,
	})

	if a.files != nil {
		if err := a.files.Watch(instanceID, path); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "Failed to watch %s: %v", path, err)
		}
	}
	return nil
}

// PickDirectory opens a native directory picker.
func (a *App) PickDirectory() (string, error) {
	return wailsRuntime.OpenDirectoryDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Select Folder",
	})
}

// ============================================================
// Result export
// ============================================================

// ExportResultsCSV writes the active instance's results for one database
// (or for every database when dbID is empty) to a CSV file chosen by the
// user.
func (a *App) ExportResultsCSV(dbID string) error {
	rows, err := a.session.ExportRows(dbID)
	if err != nil {
		return err
	}

	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export Results",
		DefaultFilename: fmt.Sprintf("results-%s.csv", time.Now().Format("20060102150405")),
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "CSV Files", Pattern: "*.csv"},
		},
	})
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return export.Write(f, rows)
}
