package service

import (
	"sync"

	"mines_wager/internal/domain"
	"mines_wager/internal/metrics"
)

type entry struct {
	mu      sync.Mutex
	session *domain.Session
	removed bool
}

// Registry holds one live session per player. The map lock only guards
// lookup, insert and delete; each entry has its own lock that callers hold
// for the whole handling of an event.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Handle is a locked registry entry. Unlock must be called exactly once.
type Handle struct {
	r  *Registry
	id string
	e  *entry
}

// Lock returns the live session for playerID with its lock held
func (r *Registry) Lock(playerID string) (*Handle, error) {
	r.mu.RLock()
	e, ok := r.entries[playerID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUndefinedUser
	}

	e.mu.Lock()
	if e.removed || e.session == nil {
		e.mu.Unlock()
		return nil, ErrUndefinedUser
	}
	return &Handle{r: r, id: playerID, e: e}, nil
}

// LockOrCreate locks the entry for playerID, inserting an empty one when the
// player has no session. Session() is nil on a fresh entry until Set is
// called; an entry left empty is dropped on Unlock.
func (r *Registry) LockOrCreate(playerID string) *Handle {
	for {
		r.mu.Lock()
		e, ok := r.entries[playerID]
		if !ok {
			e = &entry{}
			r.entries[playerID] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			// lost a race with Remove, the map no longer points here
			e.mu.Unlock()
			continue
		}
		return &Handle{r: r, id: playerID, e: e}
	}
}

func (h *Handle) Session() *domain.Session {
	return h.e.session
}

func (h *Handle) Set(s *domain.Session) {
	if h.e.session == nil {
		metrics.ActiveSessions.Inc()
	}
	h.e.session = s
}

// Remove tombstones the entry so waiters on its lock see ErrUndefinedUser
func (h *Handle) Remove() {
	if h.e.removed {
		return
	}
	if h.e.session != nil {
		metrics.ActiveSessions.Dec()
	}
	h.e.removed = true
	h.e.session = nil

	h.r.mu.Lock()
	if cur, ok := h.r.entries[h.id]; ok && cur == h.e {
		delete(h.r.entries, h.id)
	}
	h.r.mu.Unlock()
}

func (h *Handle) Unlock() {
	if h.e.session == nil && !h.e.removed {
		h.Remove()
	}
	h.e.mu.Unlock()
}

// IDs returns a snapshot of the player ids currently registered
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
