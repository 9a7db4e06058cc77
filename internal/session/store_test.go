package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adaptive-routing/banditsim/internal/api"
	"github.com/adaptive-routing/banditsim/internal/engine"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(api.DefaultSimParams(), zerolog.Nop())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	return eng
}

func TestCreateAndGet(t *testing.T) {
	store, err := NewStore(4, 0)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	sess := store.Create(newTestEngine(t))
	if sess.ID == "" {
		t.Fatal("Expected non-empty session id")
	}

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("Expected to find session")
	}
	if got.ID != sess.ID {
		t.Errorf("Got session %s, want %s", got.ID, sess.ID)
	}

	if _, ok := store.Get("unknown"); ok {
		t.Error("Expected miss for unknown id")
	}

	hits, misses, _ := store.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestLRUEviction(t *testing.T) {
	store, err := NewStore(2, 0)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	first := store.Create(newTestEngine(t))
	store.Create(newTestEngine(t))
	store.Create(newTestEngine(t))

	if store.Len() != 2 {
		t.Errorf("Expected 2 sessions after eviction, got %d", store.Len())
	}
	if _, ok := store.Get(first.ID); ok {
		t.Error("Expected oldest session to be evicted")
	}
	if _, _, evicted := store.Stats(); evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}
}

func TestTTLExpiry(t *testing.T) {
	store, err := NewStore(4, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	sess := store.Create(newTestEngine(t))
	if _, ok := store.Get(sess.ID); !ok {
		t.Fatal("Expected fresh session to be found")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := store.Get(sess.ID); ok {
		t.Error("Expected session to expire")
	}
}

func TestDoSerializesEngineAccess(t *testing.T) {
	store, err := NewStore(4, 0)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	sess := store.Create(newTestEngine(t))

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				_ = sess.Do(func(e *engine.Engine) error {
					e.Step()
					return nil
				})
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	var iterations int
	_ = sess.Do(func(e *engine.Engine) error {
		iterations = e.CurrentIteration()
		return nil
	})
	if iterations != 100 {
		t.Errorf("Expected 100 iterations, got %d", iterations)
	}
}
