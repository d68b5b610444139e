package attempt

import "sync"

// Navigator tracks which question is on screen. It never touches answers
// or time.
type Navigator struct {
	mu      sync.Mutex
	current int
	total   int
}

// NewNavigator starts at the first of total questions.
func NewNavigator(total int) *Navigator {
	return &Navigator{total: total}
}

// Current returns the index on screen.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Total returns the number of questions.
func (n *Navigator) Total() int {
	return n.total
}

// GoTo jumps to index. Out-of-range indexes leave the position unchanged
// and report false.
func (n *Navigator) GoTo(index int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if index < 0 || index >= n.total {
		return false
	}
	n.current = index
	return true
}

// Next moves forward by one, stopping at the last question.
func (n *Navigator) Next() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current+1 >= n.total {
		return false
	}
	n.current++
	return true
}

// Previous moves back by one, stopping at the first question.
func (n *Navigator) Previous() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == 0 {
		return false
	}
	n.current--
	return true
}

// IsFirst reports whether the first question is on screen.
func (n *Navigator) IsFirst() bool { return n.Current() == 0 }

// IsLast reports whether the last question is on screen.
func (n *Navigator) IsLast() bool { return n.total == 0 || n.Current() == n.total-1 }
