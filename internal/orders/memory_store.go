package orders

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Repository. Mutations on one order are serialized by a
// per-order lock; the map itself is guarded separately so readers never wait on a mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[string]Order
	locks   map[string]*sync.Mutex
	nowFunc func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  map[string]Order{},
		locks:   map[string]*sync.Mutex{},
		nowFunc: time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.OrderID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, o.OrderID)
	}
	s.orders[o.OrderID] = o.Clone()
	s.locks[o.OrderID] = &sync.Mutex{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	return o.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, orderID string, fn Mutation) (Order, error) {
	s.mu.RLock()
	lock, ok := s.locks[orderID]
	s.mu.RUnlock()
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	stored, ok := s.orders[orderID]
	s.mu.RUnlock()
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	current := stored.Clone()

	working := current.Clone()
	changed, err := fn(&working)
	if err != nil {
		return current, err
	}
	if !changed {
		return current, nil
	}
	working.OrderID = current.OrderID
	working.CreatedAt = current.CreatedAt
	working.UpdatedAt = nextUpdatedAt(current.UpdatedAt, s.nowFunc())
	working.Version = current.Version + 1

	s.mu.Lock()
	s.orders[orderID] = working.Clone()
	s.mu.Unlock()
	return working, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Match(o) {
			out = append(out, o.Clone())
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// replace stores o as-is, creating the entry when absent. It waits for any running
// Update on the same order.
func (s *MemoryStore) replace(o Order) {
	s.mu.Lock()
	lock, ok := s.locks[o.OrderID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[o.OrderID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	s.mu.Lock()
	s.orders[o.OrderID] = o.Clone()
	s.mu.Unlock()
}

func (s *MemoryStore) remove(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
	delete(s.locks, orderID)
}

// nextUpdatedAt keeps updated_at strictly advancing even when the clock does not.
func nextUpdatedAt(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
