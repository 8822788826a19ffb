package session

import (
	"sync"
	"time"

	"github.com/wuwenbin0122/flexchat/internal/conversation"
)

type entry struct {
	conv     *conversation.Conversation
	lastSeen time.Time
}

// Registry owns one conversation per session id. Conversations are never
// shared between sessions and disappear together with their session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Get returns the conversation for id, creating an empty one on first use.
func (r *Registry) Get(id string) *conversation.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		e = &entry{conv: conversation.New()}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	return e.conv
}

// Reset discards the conversation held by id. The next Get starts empty.
func (r *Registry) Reset(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Prune drops sessions idle for longer than olderThan and reports how many
// were removed.
func (r *Registry) Prune(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-olderThan)
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
