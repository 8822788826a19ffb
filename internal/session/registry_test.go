package session

import (
	"testing"
	"time"

	"github.com/wuwenbin0122/flexchat/internal/models"
)

func TestRegistryIsolatesSessions(t *testing.T) {
	reg := NewRegistry()

	alice := reg.Get("alice")
	bob := reg.Get("bob")
	if alice == bob {
		t.Fatalf("expected distinct conversations per session")
	}

	alice.Append(models.UserTurn("hi"))
	if bob.Len() != 0 {
		t.Fatalf("expected bob's conversation to stay empty, got %d turns", bob.Len())
	}
	if reg.Get("alice") != alice {
		t.Fatalf("expected the same conversation on repeated Get")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Len())
	}
}

func TestRegistryReset(t *testing.T) {
	reg := NewRegistry()
	reg.Get("alice").Append(models.UserTurn("hi"))
	reg.Get("bob").Append(models.UserTurn("hey"))

	reg.Reset("alice")

	if got := reg.Get("alice").Len(); got != 0 {
		t.Fatalf("expected fresh conversation after reset, got %d turns", got)
	}
	if got := reg.Get("bob").Len(); got != 1 {
		t.Fatalf("expected bob untouched, got %d turns", got)
	}
}

func TestRegistryPrune(t *testing.T) {
	reg := NewRegistry()
	current := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return current }

	reg.Get("stale")
	current = current.Add(2 * time.Hour)
	reg.Get("fresh")

	if removed := reg.Prune(time.Hour); removed != 1 {
		t.Fatalf("expected 1 pruned session, got %d", removed)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", reg.Len())
	}

	reg.mu.Lock()
	_, ok := reg.sessions["fresh"]
	reg.mu.Unlock()
	if !ok {
		t.Fatalf("expected fresh session to survive pruning")
	}
}
