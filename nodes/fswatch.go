package nodes

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// WatchSource emits filesystem events for a set of watched paths. The
// fsnotify watcher's own buffering keeps Poll non-blocking.
type WatchSource struct {
	paths   []string
	watcher *fsnotify.Watcher
}

// NewWatchSource watches the given paths once the engine initializes
// the node.
func NewWatchSource(paths ...string) *WatchSource {
	return &WatchSource{paths: paths}
}

func (s *WatchSource) Init() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, p := range s.paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return err
		}
	}
	s.watcher = w
	return nil
}

func (s *WatchSource) Poll(ctx context.Context) (fsnotify.Event, bool, error) {
	select {
	case ev, ok := <-s.watcher.Events:
		if !ok {
			return fsnotify.Event{}, false, nil
		}
		return ev, true, nil
	case err, ok := <-s.watcher.Errors:
		if !ok {
			return fsnotify.Event{}, false, nil
		}
		return fsnotify.Event{}, false, err
	default:
		return fsnotify.Event{}, false, nil
	}
}

func (s *WatchSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
