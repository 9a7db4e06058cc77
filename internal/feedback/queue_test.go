package feedback

import (
	"testing"

	"github.com/adaptive-routing/banditsim/internal/api"
)

func TestDrainDueEmpty(t *testing.T) {
	q := NewQueue()
	if got := q.DrainDue(10); got != nil {
		t.Errorf("Expected nil from empty queue, got %v", got)
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got len %d", q.Len())
	}
}

func TestDrainDuePrefixOnly(t *testing.T) {
	q := NewQueue()
	for i := 1; i <= 4; i++ {
		q.Enqueue(Pending{
			DueAt:      i,
			Tx:         api.Transaction{ID: int64(i), Label: 1},
			Prediction: 1,
			Model:      "Model A",
		})
	}

	due := q.DrainDue(2)
	if len(due) != 2 {
		t.Fatalf("Expected 2 due items, got %d", len(due))
	}
	for _, item := range due {
		if item.DueAt > 2 {
			t.Errorf("Drained item not yet due: due_at=%d", item.DueAt)
		}
	}
	// FIFO order preserved.
	if due[0].Tx.ID != 1 || due[1].Tx.ID != 2 {
		t.Errorf("Items out of enqueue order: %d, %d", due[0].Tx.ID, due[1].Tx.ID)
	}

	if q.Len() != 2 {
		t.Errorf("Expected 2 remaining items, got %d", q.Len())
	}

	// Nothing further is due at the same iteration.
	if got := q.DrainDue(2); got != nil {
		t.Errorf("Expected nil on second drain, got %v", got)
	}
}

func TestDrainDueBoundary(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Pending{DueAt: 5})

	if got := q.DrainDue(4); got != nil {
		t.Errorf("Item drained before due: %v", got)
	}
	if got := q.DrainDue(5); len(got) != 1 {
		t.Errorf("Expected item due exactly at its due iteration, got %v", got)
	}
}

func TestDrainDueAll(t *testing.T) {
	q := NewQueue()
	for i := 1; i <= 3; i++ {
		q.Enqueue(Pending{DueAt: i, Tx: api.Transaction{ID: int64(i)}})
	}

	due := q.DrainDue(100)
	if len(due) != 3 {
		t.Fatalf("Expected all 3 items, got %d", len(due))
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after full drain, got %d", q.Len())
	}
}
