package module

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/getmockd/mockgate/pkg/logging"
)

// Watcher evicts registry entries whose definition files change on disk.
type Watcher struct {
	registry *Registry
	loader   *FileLoader
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	// OnEvict, when set, is called with each identity evicted by an event.
	OnEvict func(identity string)
}

// NewWatcher watches every directory below the loader root.
func NewWatcher(registry *Registry, loader *FileLoader, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{registry: registry, loader: loader, logger: logger, fsw: fsw}
	if err := w.addTree(loader.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("module watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("module watcher could not add directory", "dir", ev.Name, "error", err)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	evicted := w.registry.EvictSource(ev.Name)
	if id, ok := w.loader.IdentityFor(ev.Name); ok {
		if w.registry.Evict(id) {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		w.logger.Debug("mock module evicted", "identity", id, "file", ev.Name, "op", ev.Op.String())
		if w.OnEvict != nil {
			w.OnEvict(id)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}
