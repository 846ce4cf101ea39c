package cart

import "sync"

// lineQueue serializes operations per line id in the order they were issued.
// Each caller takes a ticket; the line is served strictly in ticket order.
type lineQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	lines map[string]*tickets
}

type tickets struct {
	next    uint64
	serving uint64
}

func newLineQueue() *lineQueue {
	q := &lineQueue{lines: make(map[string]*tickets)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// acquire blocks until every earlier caller for lineID has released, and
// returns the release func.
func (q *lineQueue) acquire(lineID string) func() {
	q.mu.Lock()
	t, ok := q.lines[lineID]
	if !ok {
		t = &tickets{}
		q.lines[lineID] = t
	}
	ticket := t.next
	t.next++
	for t.serving != ticket {
		q.cond.Wait()
	}
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			t.serving++
			if t.serving == t.next {
				delete(q.lines, lineID)
			}
			q.mu.Unlock()
			q.cond.Broadcast()
		})
	}
}

// pending reports whether any operation on lineID is queued or running.
func (q *lineQueue) pending(lineID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.lines[lineID]
	return ok
}
