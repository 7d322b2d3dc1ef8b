package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/okian/formmatch/pkg/logger"
	"github.com/okian/formmatch/pkg/metrics"
)

// watcher keeps a parsed snapshot of a file and refreshes it when the file
// changes. A failed reload keeps the last good snapshot.
type watcher struct {
	path     string
	load     func() ([]template.Template, error)
	log      logger.Logger
	debounce time.Duration

	mu        sync.RWMutex
	templates []template.Template
	loaded    bool
	err       error

	timerMu sync.Mutex
	timer   *time.Timer

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

func newWatcher(ctx context.Context, path string, debounce time.Duration, log logger.Logger, load func() ([]template.Template, error)) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, unavailable("watch", err)
	}
	// Watch the directory: editors and atomic writers replace the file.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, unavailable("watch", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		path:     path,
		load:     load,
		log:      log,
		debounce: debounce,
		fs:       fw,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	w.swap(ctx, "initial")

	go w.loop(ctx)
	return w, nil
}

// current returns the snapshot, or the load error if no load has succeeded.
func (w *watcher) current() ([]template.Template, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return nil, w.err
	}
	return append([]template.Template(nil), w.templates...), nil
}

func (w *watcher) reload(ctx context.Context) {
	w.swap(ctx, "reload")
}

func (w *watcher) swap(ctx context.Context, reason string) {
	tpls, err := w.load()

	w.mu.Lock()
	if err != nil {
		w.err = err
	} else {
		w.templates = tpls
		w.loaded = true
		w.err = nil
	}
	w.mu.Unlock()

	if err != nil {
		metrics.RecordStoreReload("error")
		w.log.Error(ctx, "template file load failed",
			logger.String("path", w.path),
			logger.String("reason", reason),
			logger.Error(err),
		)
		return
	}
	metrics.RecordStoreReload("ok")
	w.log.Info(ctx, "template file loaded",
		logger.String("path", w.path),
		logger.String("reason", reason),
		logger.Int("templates", len(tpls)),
	)
}

func (w *watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(ctx)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, "file watcher error", logger.String("path", w.path), logger.Error(err))
		}
	}
}

func (w *watcher) schedule(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload(ctx)
	})
}

func (w *watcher) close() error {
	w.cancel()
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	err := w.fs.Close()
	<-w.done
	return err
}
