package flowrepo

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL is how long a started sign-in may take to come back
const DefaultTTL = 10 * time.Minute

var ErrStateNotFound = errors.New("state not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Entries older than the TTL are treated as missing and dropped on the next write.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
	ttl    time.Duration
	now    func() time.Time
}

// NewInMemoryRepo creates a new in-memory flow state repository
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryRepo{
		states: make(map[string]*FlowState),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Upsert stores or updates a flow state
func (r *InMemoryRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeLocked()
	copied := *flow
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = r.now()
	}
	r.states[state] = &copied
	return nil
}

// Get retrieves a flow state by state parameter
func (r *InMemoryRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, exists := r.states[state]
	if !exists || r.expired(flow) {
		return nil, ErrStateNotFound
	}
	copied := *flow
	return &copied, nil
}

// Delete removes a flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

// Len returns the number of stored states, expired ones included
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

func (r *InMemoryRepo) expired(flow *FlowState) bool {
	return r.now().Sub(flow.CreatedAt) > r.ttl
}

func (r *InMemoryRepo) purgeLocked() {
	for state, flow := range r.states {
		if r.expired(flow) {
			delete(r.states, state)
		}
	}
}
