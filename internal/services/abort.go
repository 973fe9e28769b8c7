package services

import (
	"context"
	"sync"
)

// AbortRegistry tracks the cancel function of each caller's in-flight chat
// stream so the abort endpoint can stop it. Keys identify callers (client id
// header or peer address), never individual requests, so one caller can
// never cancel another caller's stream.
type AbortRegistry struct {
	mu     sync.Mutex
	nextID uint64
	active map[string]registeredStream
}

type registeredStream struct {
	id     uint64
	cancel context.CancelFunc
}

func NewAbortRegistry() *AbortRegistry {
	return &AbortRegistry{active: make(map[string]registeredStream)}
}

// Register records cancel as the caller's current stream, displacing any
// previous registration under the same key. The returned release func removes
// the entry; it is a no-op once a newer stream has taken the slot.
func (r *AbortRegistry) Register(key string, cancel context.CancelFunc) (release func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.active[key] = registeredStream{id: id, cancel: cancel}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.active[key]; ok && cur.id == id {
			delete(r.active, key)
		}
	}
}

// Abort cancels the caller's current stream. It reports whether a stream was
// registered; aborting an idle caller is not an error.
func (r *AbortRegistry) Abort(key string) bool {
	r.mu.Lock()
	cur, ok := r.active[key]
	if ok {
		delete(r.active, key)
	}
	r.mu.Unlock()

	if ok {
		cur.cancel()
	}
	return ok
}
