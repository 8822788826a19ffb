package conversation

import (
	"sync"

	"github.com/wuwenbin0122/flexchat/internal/models"
)

// Conversation is the ordered, append-only history of one session.
type Conversation struct {
	mu    sync.RWMutex
	turns []models.Turn
}

// New returns an empty conversation.
func New() *Conversation {
	return &Conversation{turns: make([]models.Turn, 0, 8)}
}

// Append adds turn to the end of the history. Any role and any content,
// including empty content, is accepted.
func (c *Conversation) Append(turn models.Turn) {
	c.mu.Lock()
	c.turns = append(c.turns, turn)
	c.mu.Unlock()
}

// Snapshot returns a copy of the history in insertion order. The copy is not
// affected by later appends.
func (c *Conversation) Snapshot() []models.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}
