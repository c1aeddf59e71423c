package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	reloadDebounce = 100 * time.Millisecond
	pollInterval   = 60 * time.Second
)

// Watch calls onChange with a freshly loaded config whenever the file at path
// changes. A reload that fails to parse or validate is logged and skipped.
// When fsnotify is unavailable it falls back to polling the modification time.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func(*Config)) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config")

	w := &watcher{path: path, log: log, onChange: onChange}
	w.lastMod = w.modTime()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify unavailable, falling back to polling", zap.Error(err))
		go w.poll(ctx)
		return
	}
	// Watch the directory: editors often replace the file rather than write to it.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		log.Warn("cannot watch config directory, falling back to polling", zap.String("path", path), zap.Error(err))
		fw.Close()
		go w.poll(ctx)
		return
	}
	go w.notify(ctx, fw)
}

type watcher struct {
	path     string
	log      *zap.Logger
	onChange func(*Config)
	lastMod  time.Time
}

func (w *watcher) notify(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	target := filepath.Clean(w.path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}
		case <-debounce:
			debounce = nil
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *watcher) poll(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if mod := w.modTime(); !mod.Equal(w.lastMod) {
				w.reload()
			}
		}
	}
}

func (w *watcher) modTime() time.Time {
	fi, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

func (w *watcher) reload() {
	w.lastMod = w.modTime()
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Error("config reload rejected", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.log.Info("config reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
