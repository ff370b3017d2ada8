package dataset

import (
	"context"
	"path/filepath"
	"sync"

	"evdash/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates cached file sources when their files change on disk
type Watcher struct {
	fs     *fsnotify.Watcher
	cache  *Cache
	logger *zap.Logger

	mu   sync.Mutex
	keys map[string][]string // cleaned file path -> cache keys
	dirs map[string]bool
}

// NewWatcher creates a watcher bound to cache
func NewWatcher(cache *Cache, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:     fsw,
		cache:  cache,
		logger: logging.OrNop(logger),
		keys:   make(map[string][]string),
		dirs:   make(map[string]bool),
	}, nil
}

// Watch tracks every file of src. Parent directories are watched so that
// editors replacing files by rename are still noticed.
func (w *Watcher) Watch(src *FileSource) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range src.Paths() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		abs = filepath.Clean(abs)
		w.keys[abs] = append(w.keys[abs], src.Key())

		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
		w.logger.Info("watching directory", zap.String("dir", dir))
	}
	return nil
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.handle(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(name string) {
	w.mu.Lock()
	keys := w.keys[filepath.Clean(name)]
	w.mu.Unlock()

	for _, key := range keys {
		w.logger.Info("file changed, dropping cached dataset", zap.String("file", name), zap.String("key", key))
		w.cache.Invalidate(key)
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fs.Close()
}
