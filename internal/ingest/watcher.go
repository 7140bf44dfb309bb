package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/records-ingest/constants"
)

// FileEvent is a file that appeared under a category folder.
type FileEvent struct {
	Path     string
	Category constants.Category
}

type WatchConfig struct {
	Root        string        // upload root laid out as <root>/<category>/...
	InitialScan bool          // if true, walk Root and emit existing files
	Debounce    time.Duration // coalesce rapid write bursts
	Logger      *slog.Logger
}

// StartWatcher watches Root recursively and emits files dropped into
// category folders. Hidden entries are ignored. Both channels close when
// ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan FileEvent, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		logger.Error("watcher start failed: no root provided")
		return nil, nil, errors.New("no root provided")
	}
	evCh := make(chan FileEvent, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []FileEvent
	addTree := func(dir string, scan bool) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != cfg.Root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if scan {
				if ev, ok := classify(cfg.Root, path); ok {
					initial = append(initial, ev)
				}
			}
			return nil
		})
	}
	if err := addTree(cfg.Root, cfg.InitialScan); err != nil {
		logger.Error("failed to add root directory", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(ev FileEvent) bool {
			select {
			case evCh <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, ev := range initial {
			if !emit(ev) {
				return
			}
		}

		pending := map[string]FileEvent{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		flush := func() bool {
			for p, ev := range pending {
				delete(pending, p)
				if !emit(ev) {
					return false
				}
			}
			return true
		}
		// schedule flushes now without a debounce, otherwise once writes settle.
		schedule := func() bool {
			if len(pending) == 0 {
				return true
			}
			if cfg.Debounce <= 0 {
				return flush()
			}
			timer.Reset(cfg.Debounce)
			return true
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if IsHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						// files dropped together with the folder are picked up by the walk
						before := len(initial)
						if err := addTree(e.Name, true); err != nil {
							logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
						}
						for _, ev := range initial[before:] {
							pending[ev.Path] = ev
						}
						initial = initial[:before]
						if !schedule() {
							return
						}
						continue
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
					continue
				}
				ev, ok := classify(cfg.Root, e.Name)
				if !ok {
					continue
				}
				pending[ev.Path] = ev
				if !schedule() {
					return
				}
			case <-timer.C:
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// classify keeps ingestible files that sit inside a known category folder.
func classify(root, path string) (FileEvent, bool) {
	if !AllowedExt(filepath.Ext(path)) {
		return FileEvent{}, false
	}
	cat, err := CategoryFromPath(root, path)
	if err != nil {
		return FileEvent{}, false
	}
	return FileEvent{Path: path, Category: cat}, true
}
