// Package queue is the FIFO hand-off between the chat listener (producer) and
// the grant-serving HTTP surface (consumer, polled by the frontend). Entries
// are usernames; the same user may appear twice if they trigger twice before
// being served.
package queue

import (
	"sync"

	"github.com/onnwee/casebox/telemetry"
)

// Pending is an unbounded FIFO of usernames awaiting a grant.
type Pending struct {
	mu    sync.Mutex
	users []string
}

// NewPending returns an empty queue.
func NewPending() *Pending {
	return &Pending{}
}

// Push appends a username.
func (p *Pending) Push(username string) {
	p.mu.Lock()
	p.users = append(p.users, username)
	n := len(p.users)
	p.mu.Unlock()
	telemetry.SetQueueDepth(n)
}

// Pop removes and returns the oldest username, or ok=false when empty.
func (p *Pending) Pop() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.users) == 0 {
		return "", false
	}
	user := p.users[0]
	p.users = p.users[1:]
	telemetry.SetQueueDepth(len(p.users))
	return user, true
}

// Len returns the current depth.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}
