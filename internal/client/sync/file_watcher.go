package sync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	eventBufferSize        = 64
	defaultDebounceTimeout = 50 * time.Millisecond

	// notify never blocks on this channel, events that do not fit are lost
	rawEventBufferSize = 1024
)

// FilterCallback is a function that returns true if the event should be filtered
type FilterCallback func(path string) bool

// FileWatcher watches a single directory, non recursively, and emits one
// Event per path after a burst of raw events settles. Settled paths queue up
// until the consumer takes them; none are dropped while the watcher runs.
type FileWatcher struct {
	watchDir  string
	events    chan Event
	rawEvents chan notify.EventInfo
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	// debouncing
	pendingEvents   map[string]notify.EventInfo
	eventTimers     map[string]*time.Timer
	debounceMu      sync.Mutex
	debounceTimeout time.Duration
	closed          bool
	// settled paths, in the order they settled
	ready    []string
	readySet map[string]bool
	wake     chan struct{}
	// raw event filtering
	ignoreCallback FilterCallback
	callbackMu     sync.RWMutex
}

func NewFileWatcher(watchDir string) *FileWatcher {
	return &FileWatcher{
		watchDir:        filepath.Clean(watchDir),
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
		pendingEvents:   make(map[string]notify.EventInfo),
		eventTimers:     make(map[string]*time.Timer),
		debounceTimeout: defaultDebounceTimeout,
		readySet:        make(map[string]bool),
		wake:            make(chan struct{}, 1),
	}
}

// SetDebounceTimeout sets the debounce timeout for events
func (fw *FileWatcher) SetDebounceTimeout(timeout time.Duration) {
	fw.debounceTimeout = timeout
}

// FilterPaths sets a callback that drops raw events before debouncing.
// The callback should return true if the event should be ignored.
func (fw *FileWatcher) FilterPaths(callback FilterCallback) {
	fw.callbackMu.Lock()
	defer fw.callbackMu.Unlock()
	fw.ignoreCallback = callback
}

func (fw *FileWatcher) Start(ctx context.Context) error {
	slog.Info("file watcher start", "dir", fw.watchDir)

	fw.rawEvents = make(chan notify.EventInfo, rawEventBufferSize)
	fw.events = make(chan Event, eventBufferSize)

	// no "/..." suffix, sub directories are not watched
	if err := notify.Watch(fw.watchDir, fw.rawEvents, notify.Create, notify.Write, notify.Remove, notify.Rename); err != nil {
		return err
	}

	fw.wg.Add(2)
	go fw.filterEvents(ctx)
	go fw.sendEvents()

	return nil
}

func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		slog.Info("file watcher stopping")
		close(fw.done)
		if fw.rawEvents != nil {
			notify.Stop(fw.rawEvents)
		}
		fw.wg.Wait()
		slog.Info("file watcher stopped")
	})
}

// Events is closed once the watcher stops
func (fw *FileWatcher) Events() <-chan Event {
	return fw.events
}

func (fw *FileWatcher) filterEvents(ctx context.Context) {
	defer func() {
		// timers that still fire see closed and do nothing
		fw.debounceMu.Lock()
		for path, timer := range fw.eventTimers {
			timer.Stop()
			delete(fw.eventTimers, path)
		}
		fw.closed = true
		fw.debounceMu.Unlock()

		close(fw.stopped)
		fw.wg.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.rawEvents:
			if !ok {
				return
			}

			path := event.Path()
			if filepath.Dir(path) != fw.watchDir {
				continue
			}

			fw.callbackMu.RLock()
			ignore := fw.ignoreCallback
			fw.callbackMu.RUnlock()
			if ignore != nil && ignore(path) {
				continue
			}

			// writes arrive in bursts until the file is completely written
			fw.debounceEvent(event)
		}
	}
}

// debounceEvent keeps only the latest raw event per path
func (fw *FileWatcher) debounceEvent(event notify.EventInfo) {
	path := event.Path()

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.eventTimers[path]; exists {
		timer.Stop()
	}

	fw.pendingEvents[path] = event
	fw.eventTimers[path] = time.AfterFunc(fw.debounceTimeout, func() {
		fw.settle(path)
	})
}

// settle queues path for delivery once its burst is over
func (fw *FileWatcher) settle(path string) {
	fw.debounceMu.Lock()
	if fw.closed {
		fw.debounceMu.Unlock()
		return
	}
	delete(fw.eventTimers, path)
	if !fw.readySet[path] {
		fw.readySet[path] = true
		fw.ready = append(fw.ready, path)
	}
	fw.debounceMu.Unlock()

	select {
	case fw.wake <- struct{}{}:
	default:
	}
}

// nextReady pops the oldest settled path with its latest raw event
func (fw *FileWatcher) nextReady() (notify.EventInfo, bool) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	for len(fw.ready) > 0 {
		path := fw.ready[0]
		fw.ready[0] = ""
		fw.ready = fw.ready[1:]
		delete(fw.readySet, path)

		// already delivered with a newer event of the same burst
		raw, exists := fw.pendingEvents[path]
		if !exists {
			continue
		}
		delete(fw.pendingEvents, path)
		return raw, true
	}
	return nil, false
}

// sendEvents is the only writer of fw.events. It blocks while the consumer
// is busy and closes fw.events once the watcher stops.
func (fw *FileWatcher) sendEvents() {
	defer func() {
		close(fw.events)
		fw.wg.Done()
	}()

	for {
		raw, ok := fw.nextReady()
		if !ok {
			select {
			case <-fw.wake:
				continue
			case <-fw.stopped:
				return
			}
		}

		event := toEvent(raw)
		if event == nil {
			continue
		}

		select {
		case fw.events <- event:
			slog.Debug("file watcher", "event", raw.Event(), "path", raw.Path())
		case <-fw.stopped:
			return
		}
	}
}

// toEvent maps a raw event, nil for paths that are not regular files
func toEvent(raw notify.EventInfo) Event {
	path := raw.Path()

	switch raw.Event() {
	case notify.Create, notify.Write:
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if raw.Event() == notify.Create {
			return Created{Path: path}
		}
		return Modified{Path: path}
	case notify.Remove:
		return Deleted{Path: path}
	default:
		return Other{Path: path, Op: raw.Event().String()}
	}
}
