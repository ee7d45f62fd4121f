package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of a successful checkout, delivered to whichever
// view of the contract is waiting for it.
type Result struct {
	SessionID     uuid.UUID `json:"session_id"`
	OptionID      string    `json:"option_id"`
	TransactionID string    `json:"transaction_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Mailbox keeps at most one pending Result per user. A published result is
// handed to exactly one reader and removed when read.
type Mailbox struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]Result
	waiters map[uuid.UUID][]chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		slots:   make(map[uuid.UUID]Result),
		waiters: make(map[uuid.UUID][]chan struct{}),
	}
}

// Publish stores res as the pending result of userID, replacing any unread
// one, and wakes the readers waiting for it.
func (m *Mailbox) Publish(userID uuid.UUID, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[userID] = res
	for _, ch := range m.waiters[userID] {
		close(ch)
	}
	delete(m.waiters, userID)
}

// Take returns and clears the pending result of userID.
func (m *Mailbox) Take(userID uuid.UUID) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeLocked(userID)
}

func (m *Mailbox) takeLocked(userID uuid.UUID) (Result, bool) {
	res, ok := m.slots[userID]
	if ok {
		delete(m.slots, userID)
	}
	return res, ok
}

// Wait blocks until a result for userID is available or ctx ends. When
// several readers wait on the same user only one receives the result.
func (m *Mailbox) Wait(ctx context.Context, userID uuid.UUID) (Result, error) {
	for {
		m.mu.Lock()
		if res, ok := m.takeLocked(userID); ok {
			m.mu.Unlock()
			return res, nil
		}
		ch := make(chan struct{})
		m.waiters[userID] = append(m.waiters[userID], ch)
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			m.forget(userID, ch)
			return Result{}, ctx.Err()
		}
	}
}

func (m *Mailbox) forget(userID uuid.UUID, ch chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	waiters := m.waiters[userID]
	for i, w := range waiters {
		if w == ch {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(m.waiters, userID)
		return
	}
	m.waiters[userID] = waiters
}
