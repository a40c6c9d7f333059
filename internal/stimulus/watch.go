package stimulus

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"predlab/internal/logging"
)

// Watcher reloads the stimulus list when its file changes. It exists for
// the setup window before a run starts, so an operator can edit the list
// and see counts update; callers stop it at start time.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *logging.Logger

	fsWatcher *fsnotify.Watcher
	lists     chan *List

	mu      sync.Mutex
	pending *time.Timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches the stimulus file at path. Reloads are debounced so a
// burst of editor writes produces one reload.
func NewWatcher(path string, debounce time.Duration, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	// Watch the directory: editors replace files rather than write them
	// in place, which drops a watch on the file itself.
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		path:      abs,
		debounce:  debounce,
		log:       log.WithComponent("stimulus"),
		fsWatcher: fsWatcher,
		lists:     make(chan *List, 1),
		done:      make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Lists returns the channel of reloaded lists. The channel is closed by
// Close, ending the consumer's receive loop.
func (w *Watcher) Lists() <-chan *List {
	return w.lists
}

// Close stops watching and closes the Lists channel. Idempotent: both the
// run-start path and window shutdown may call it.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsWatcher.Close()
	w.wg.Wait()

	// Taking the mutex again serializes against a reload that was already
	// past its closed check; sends happen under the same lock.
	w.mu.Lock()
	close(w.lists)
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("stimulus watch error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	list, err := Load(w.path)
	if err != nil {
		w.log.Warn("stimulus reload failed", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.log.Info("stimulus list reloaded",
		"path", w.path,
		"sentences", len(list.Sentences),
		"opportunities", list.Opportunities())

	select {
	case w.lists <- list:
	default:
		// Consumer hasn't drained the previous reload; replace it.
		select {
		case <-w.lists:
		default:
		}
		select {
		case w.lists <- list:
		default:
		}
	}
}
