package script

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gogpu/flock"
)

// watcher turns file events for one script into reload requests. The
// directory is watched rather than the file because editors often
// replace files on save.
type watcher struct {
	fs     *fsnotify.Watcher
	name   string
	reload chan struct{}
	done   chan struct{}
}

// Watch starts watching the loaded script file. The next Update after a
// change reloads the script.
func (h *Host) Watch() error {
	if h.path == "" {
		return ErrNotLoaded
	}
	if h.watch != nil {
		return nil
	}
	w, err := newWatcher(h.path)
	if err != nil {
		return err
	}
	h.watch = w
	return nil
}

func newWatcher(path string) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("script: watch: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("script: watch: %w", err)
	}

	w := &watcher{
		fs:     fs,
		name:   abs,
		reload: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.request()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			flock.Logger().Warn("script: watch error", "err", err)
		}
	}
}

// request queues a reload; repeated events before the next frame
// collapse into one.
func (w *watcher) request() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

// pending reports and clears a queued reload.
func (w *watcher) pending() bool {
	select {
	case <-w.reload:
		return true
	default:
		return false
	}
}

func (w *watcher) close() error {
	close(w.done)
	return w.fs.Close()
}
