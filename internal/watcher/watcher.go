// Package watcher reloads the draw history and config profiles when their
// files change on disk.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloadFunc is called once per settled change. key is the name the path was
// registered under (e.g. "history", "config").
type ReloadFunc func(key string) error

// FileWatcher watches individual files by watching their parent directories,
// so atomic replace-by-rename saves are seen as well.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]string // abs path -> key
	onReload ReloadFunc
	log      *logrus.Entry

	mu       sync.Mutex
	debounce time.Duration
	pending  map[string]pendingFire // key -> trailing-edge timer
	seq      uint64
	stable   time.Duration          // size poll interval before reload; 0 disables
	stopped  bool

	// wg covers the event loop and every scheduled fire

	stopCh chan struct{}
	wg     sync.WaitGroup
}

type pendingFire struct {
	timer *time.Timer
	id    uint64
}

// New creates a watcher. files maps paths to reload keys.
func New(files map[string]string, onReload ReloadFunc, log *logrus.Entry) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs := make(map[string]string, len(files))
	for p, key := range files {
		ap, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		abs[ap] = key
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileWatcher{
		watcher:  w,
		files:    abs,
		onReload: onReload,
		log:      log.WithField("component", "watcher"),
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]pendingFire),
		stable:   200 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetDebounce sets the quiet period a file must stay unchanged before reload.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	fw.debounce = d
	fw.mu.Unlock()
}

// SetStableInterval sets the size poll interval used to wait for writers to finish.
func (fw *FileWatcher) SetStableInterval(d time.Duration) {
	fw.mu.Lock()
	fw.stable = d
	fw.mu.Unlock()
}

// Start begins watching. Parent directories must exist.
func (fw *FileWatcher) Start() error {
	dirs := map[string]struct{}{}
	for p := range fw.files {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.watcher.Add(d); err != nil {
			return err
		}
		fw.log.WithField("dir", d).Info("watching directory")
	}

	fw.wg.Add(1)
	go fw.run()
	return nil
}

// Stop stops watching, cancels pending reloads and waits for a reload
// that is already running. No ReloadFunc call starts after Stop returns.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return
	}
	fw.stopped = true
	for k, p := range fw.pending {
		if p.timer.Stop() {
			fw.wg.Done()
		}
		delete(fw.pending, k)
	}
	fw.mu.Unlock()

	close(fw.stopCh)
	_ = fw.watcher.Close()
	fw.wg.Wait()
	fw.log.Info("stopped")
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.stopCh:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.WithError(err).Warn("watch error")
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	key, ok := fw.files[path]
	if !ok {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return
	}
	if p, ok := fw.pending[key]; ok && p.timer.Stop() {
		p.timer.Reset(fw.debounce)
		return
	}
	// no timer, or its fire is already running: schedule a new one
	fw.seq++
	id := fw.seq
	fw.wg.Add(1)
	fw.pending[key] = pendingFire{
		timer: time.AfterFunc(fw.debounce, func() { fw.fire(key, path, id) }),
		id:    id,
	}
}

func (fw *FileWatcher) fire(key, path string, id uint64) {
	defer fw.wg.Done()

	fw.mu.Lock()
	if p, ok := fw.pending[key]; ok && p.id == id {
		delete(fw.pending, key)
	}
	stopped, interval := fw.stopped, fw.stable
	fw.mu.Unlock()
	if stopped {
		return
	}

	log := fw.log.WithFields(logrus.Fields{"key": key, "path": path})
	if interval > 0 {
		if err := waitForFileStable(path, interval, fw.stopCh); err != nil {
			log.WithError(err).Warn("file not stable, skipping reload")
			return
		}
	}
	if err := fw.onReload(key); err != nil {
		log.WithError(err).Error("reload failed")
		return
	}
	log.Info("reloaded")
}

// waitForFileStable waits until the file size stops changing.
func waitForFileStable(path string, interval time.Duration, stop <-chan struct{}) error {
	const (
		stableRequired = 2
		maxWait        = 30 * time.Second
	)
	deadline := time.Now().Add(maxWait)
	var lastSize int64 = -1
	stableCount := 0
	var lastErr error

	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			lastErr = err
			stableCount, lastSize = 0, -1
		case info.Size() == lastSize:
			stableCount++
			if stableCount >= stableRequired {
				return nil
			}
		default:
			stableCount = 0
			lastSize = info.Size()
		}
		select {
		case <-stop:
			return os.ErrClosed
		case <-time.After(interval):
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return nil // proceed anyway after max wait
}
