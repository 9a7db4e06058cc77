package feedback

import "github.com/adaptive-routing/banditsim/internal/api"

// Pending is one in-flight prediction awaiting delayed ground truth.
type Pending struct {
	DueAt      int
	Tx         api.Transaction
	Prediction int
	Model      string
}

// Queue holds pending feedback in FIFO order. Because the feedback delay is
// constant within a run, due iterations are non-decreasing in enqueue order,
// so draining is a simple prefix scan rather than a priority structure.
type Queue struct {
	items []Pending
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends one pending item.
func (q *Queue) Enqueue(p Pending) {
	q.items = append(q.items, p)
}

// DrainDue removes and returns, in enqueue order, every front item whose due
// iteration has been reached. It stops at the first not-yet-due item.
func (q *Queue) DrainDue(currentIteration int) []Pending {
	n := 0
	for n < len(q.items) && q.items[n].DueAt <= currentIteration {
		n++
	}
	if n == 0 {
		return nil
	}
	due := append([]Pending(nil), q.items[:n]...)
	q.items = q.items[n:]
	return due
}

// Len returns the number of in-flight items.
func (q *Queue) Len() int {
	return len(q.items)
}
