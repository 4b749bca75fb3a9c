package location

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FsWatcher abstracts filesystem event monitoring. Satisfied by
// fsnotifyWrapper, which adapts *fsnotify.Watcher.
type FsWatcher interface {
	Add(name string) error
	Remove(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

// fsnotifyWrapper adapts *fsnotify.Watcher to FsWatcher. fsnotify exposes
// Events and Errors as public fields, not methods.
type fsnotifyWrapper struct {
	w *fsnotify.Watcher
}

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Remove(name string) error      { return fw.w.Remove(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

// Watcher recursively watches a folder tree and translates raw fsnotify
// events into WatchEvent values with paths relative to root.
type Watcher struct {
	root    string
	logger  *slog.Logger
	watcher FsWatcher
	events  chan WatchEvent
	done    chan struct{}
}

// NewWatcher creates a Watcher rooted at root. logger may be nil.
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &IOError{Op: "watch", Path: root, Err: err}
	}

	watcher := &Watcher{
		root:    filepath.Clean(root),
		logger:  logger,
		watcher: &fsnotifyWrapper{w: w},
		events:  make(chan WatchEvent, 256),
		done:    make(chan struct{}),
	}

	if err := watcher.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}

	return watcher, nil
}

// addTree recursively Adds every directory under root to the underlying
// watcher; fsnotify only watches the directories it is explicitly told
// about, not their descendants.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("watcher: walk entry failed", "path", p, "error", err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if err := w.watcher.Add(p); err != nil {
			return &IOError{Op: "watch_add", Path: p, Err: err}
		}

		return nil
	})
}

// Events returns the channel of translated watch events.
func (w *Watcher) Events() <-chan WatchEvent { return w.events }

// Run drains the underlying fsnotify channels until ctx is canceled or
// Close is called, translating each event and forwarding it (non-blocking;
// a full channel drops the event and logs a warning).
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events():
			if !ok {
				return
			}

			w.handleRawEvent(ev)
		case err, ok := <-w.watcher.Errors():
			if !ok {
				return
			}

			w.logger.Warn("watcher: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleRawEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}

	rel = normalizePath(rel)

	out := WatchEvent{Path: rel}

	switch {
	case ev.Op&fsnotify.Create != 0:
		out.Kind = WatchCreate

		if info, statErr := os.Lstat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := w.watcher.Add(ev.Name); addErr != nil {
				w.logger.Warn("watcher: add new directory failed", "path", ev.Name, "error", addErr)
			}
		}

	case ev.Op&fsnotify.Write != 0:
		out.Kind = WatchModifyData

	case ev.Op&fsnotify.Remove != 0:
		out.Kind = WatchRemove
		out.SubKind = RemoveAny

	case ev.Op&fsnotify.Rename != 0:
		out.Kind = WatchRemove
		out.SubKind = RemoveAny

	default:
		out.Kind = WatchOther
	}

	select {
	case w.events <- out:
	default:
		w.logger.Warn("watcher: event channel full, dropping event", "path", rel)
	}
}

// Close stops Run and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
