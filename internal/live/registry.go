// Package live fans course file changes out to connected viewers.
//
// A Registry keeps one polling watcher per file path, shared by every
// subscriber of that path. The watcher is stopped as soon as the last
// subscriber leaves.
package live

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/learnchat/internal/logger"
)

const subscriberBuffer = 8

// Subscription is one viewer of a watched file. C receives the full JSON
// document on subscribe and after every change.
type Subscription struct {
	ID   string
	Path string
	C    <-chan []byte

	ch   chan []byte
	seen fileState
}

type fileState struct {
	exists  bool
	modTime int64
	size    int64
}

type watch struct {
	path string
	subs map[*Subscription]struct{}
	last fileState
	stop chan struct{}
}

// Registry maps file paths to their subscribers and watchers.
type Registry struct {
	mu       sync.Mutex
	watches  map[string]*watch
	interval time.Duration
	logger   *logger.Logger
	wg       sync.WaitGroup
	closed   bool
}

// NewRegistry creates a registry polling files every interval.
func NewRegistry(interval time.Duration, log *logger.Logger) *Registry {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		watches:  make(map[string]*watch),
		interval: interval,
		logger:   log.With("component", "live"),
	}
}

// Subscribe registers a viewer of path. The current contents are queued on
// the subscription before it is returned. After Close the subscription comes
// back with its channel already closed.
func (r *Registry) Subscribe(path string) *Subscription {
	state := statFile(path)
	payload := Snapshot(path)

	ch := make(chan []byte, subscriberBuffer)
	sub := &Subscription{
		ID:   uuid.New().String(),
		Path: path,
		C:    ch,
		ch:   ch,
		seen: state,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		close(sub.ch)
		return sub
	}
	sub.ch <- payload

	w, ok := r.watches[path]
	if !ok {
		w = &watch{
			path: path,
			subs: make(map[*Subscription]struct{}),
			last: state,
			stop: make(chan struct{}),
		}
		r.watches[path] = w
		r.wg.Add(1)
		go r.poll(w)
		r.logger.Debug("watch started", "path", path)
	}
	w.subs[sub] = struct{}{}
	r.logger.Debug("subscriber added", "path", path, "subscriberID", sub.ID, "subscribers", len(w.subs))
	return sub
}

// Unsubscribe removes a viewer and closes its channel. The watcher of the
// path is stopped when no subscribers remain.
func (r *Registry) Unsubscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.watches[sub.Path]
	if !ok {
		return
	}
	if _, ok := w.subs[sub]; !ok {
		return
	}
	delete(w.subs, sub)
	close(sub.ch)
	r.logger.Debug("subscriber removed", "path", sub.Path, "subscriberID", sub.ID, "subscribers", len(w.subs))

	if len(w.subs) == 0 {
		close(w.stop)
		delete(r.watches, sub.Path)
		r.logger.Debug("watch stopped", "path", sub.Path)
	}
}

// WatchCount returns the number of watched paths.
func (r *Registry) WatchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// SubscriberCount returns the number of subscribers of path.
func (r *Registry) SubscriberCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.watches[path]; ok {
		return len(w.subs)
	}
	return 0
}

// Close stops every watcher and closes every subscription.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	for path, w := range r.watches {
		for sub := range w.subs {
			close(sub.ch)
		}
		close(w.stop)
		delete(r.watches, path)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Registry) poll(w *watch) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			r.check(w)
		}
	}
}

func (r *Registry) check(w *watch) {
	state := statFile(w.path)

	r.mu.Lock()
	changed := state != w.last
	r.mu.Unlock()
	if !changed {
		return
	}

	payload := Snapshot(w.path)

	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-w.stop:
		return
	default:
	}
	w.last = state
	for sub := range w.subs {
		if sub.seen == state {
			continue
		}
		select {
		case sub.ch <- payload:
			sub.seen = state
		default:
			r.logger.Warn("dropping course update; subscriber buffer full", "path", w.path, "subscriberID", sub.ID)
		}
	}
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, modTime: info.ModTime().UnixNano(), size: info.Size()}
}

// Snapshot reads path and returns its contents as compact JSON, or an
// {"error": ...} object when the file cannot be read or parsed.
func Snapshot(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errorPayload("course file not found")
		}
		return errorPayload(err.Error())
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return errorPayload("invalid course JSON: " + err.Error())
	}
	return buf.Bytes()
}

func errorPayload(msg string) []byte {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return out
}
