// Package watch reports debounced content changes to a fixed set of input
// files, such as the model, dictionary and rule catalog of a check run.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDebounce is how long changes are collected before a batch is sent.
	DefaultDebounce = 500 * time.Millisecond

	changeChannelBuffer = 16
)

// Watcher watches input files and emits the batch of files whose content
// changed since the last batch.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]bool

	// Content hashes by absolute path
	hashes map[string]string

	changes chan []string
}

// New creates a watcher over files. Empty paths are ignored.
func New(files []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		files:    make(map[string]bool),
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]bool),
		hashes:   make(map[string]string),
		changes:  make(chan []string, changeChannelBuffer),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true
	}
	return w, nil
}

// Changes returns the channel of changed file batches. It is closed when the
// watcher stops.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start records the current content of every file and begins watching their
// directories. Editors often replace files, so directories are watched
// rather than the files themselves.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for f := range w.files {
		if hash, err := fileHash(f); err == nil {
			w.hashes[f] = hash
		}
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.logger.Debug("Watching directory", "path", dir)
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"files", len(w.files),
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path, err := filepath.Abs(event.Name)
	if err != nil || !w.files[path] {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = true
	w.pendingMu.Unlock()

	w.logger.Debug("Input change detected", "path", path, "op", event.Op.String())
}

// flushPending sends the pending files whose content actually changed.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	hashes := make(map[string]string, len(toProcess))
	var changed []string
	for path := range toProcess {
		hash, err := fileHash(path)
		if err != nil {
			// Removed mid-save; the following create will be seen.
			if !os.IsNotExist(err) {
				w.logger.Warn("Failed to read changed file", "path", path, "error", err)
			}
			continue
		}
		if w.hashes[path] == hash {
			continue
		}
		hashes[path] = hash
		changed = append(changed, path)
	}
	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)

	select {
	case w.changes <- changed:
		// Hashes are committed only once the batch is delivered.
		for path, hash := range hashes {
			w.hashes[path] = hash
		}
	case <-ctx.Done():
	default:
		w.logger.Warn("Change channel full, retrying batch", "files", len(changed))
		w.pendingMu.Lock()
		for _, path := range changed {
			w.pending[path] = true
		}
		w.pendingMu.Unlock()
	}
}

func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
