package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type cacheEntry struct {
	ds      *Dataset
	size    int64
	modTime time.Time
}

// Loader loads datasets through a small LRU cache keyed by absolute path.
// Entries are revalidated against size and mtime; with watching enabled a
// write, rename or removal of the file evicts its entry right away.
type Loader struct {
	opts    Options
	cache   *lru.Cache[string, cacheEntry]
	watcher *fsnotify.Watcher
	log     *zap.Logger
	done    chan struct{}
}

// NewLoader creates a cached loader holding at most size datasets.
func NewLoader(opts Options, size int, watch bool, log *zap.Logger) (*Loader, error) {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	l := &Loader{opts: opts, cache: c, log: log, done: make(chan struct{})}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		l.watcher = w
		go l.watch()
	}
	return l, nil
}

// Load returns the dataset at path, parsing it only when the cached copy is
// missing or stale.
func (l *Loader) Load(path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if e, ok := l.cache.Get(abs); ok && e.size == fi.Size() && e.modTime.Equal(fi.ModTime()) {
		l.log.Debug("dataset cache hit", zap.String("path", abs))
		return e.ds, nil
	}

	ds, err := Load(abs, l.opts)
	if err != nil {
		return nil, err
	}
	l.cache.Add(abs, cacheEntry{ds: ds, size: fi.Size(), modTime: fi.ModTime()})
	if l.watcher != nil {
		if err := l.watcher.Add(abs); err != nil {
			l.log.Warn("cannot watch dataset", zap.String("path", abs), zap.Error(err))
		}
	}
	l.log.Info("dataset loaded",
		zap.String("path", abs),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", len(ds.Columns())),
		zap.Uint64("fingerprint", ds.Fingerprint),
	)
	return ds, nil
}

// Cached reports whether path currently has a cache entry.
func (l *Loader) Cached(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return l.cache.Contains(abs)
}

func (l *Loader) Len() int { return l.cache.Len() }

// Close stops the watcher.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	close(l.done)
	return l.watcher.Close()
}

func (l *Loader) watch() {
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(ev.Name)
			if l.cache.Remove(name) {
				l.log.Info("dataset changed on disk, evicted", zap.String("path", name), zap.String("op", ev.Op.String()))
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("dataset watcher", zap.Error(err))
		}
	}
}
