package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a process-local Keeper used when no idempotency table is configured.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]IdempotencyRecord
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttlWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   map[string]IdempotencyRecord{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (s *MemoryStore) CreateIfNotExists(_ context.Context, key, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc().UTC()
	if rec, ok := s.records[key]; ok && !s.expired(rec, now) {
		return false, nil
	}
	s.records[key] = IdempotencyRecord{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		OrderID:        orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || s.expired(rec, s.nowFunc()) {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) MarkDone(_ context.Context, key, responseBody string, responseStatus int) error {
	return s.settle(key, func(rec *IdempotencyRecord) {
		rec.Status = StatusDone
		rec.ResponseBody = responseBody
		rec.ResponseStatus = responseStatus
	})
}

func (s *MemoryStore) MarkFailed(_ context.Context, key, note string) error {
	return s.settle(key, func(rec *IdempotencyRecord) {
		rec.Status = StatusFailed
		rec.Note = note
	})
}

func (s *MemoryStore) settle(key string, fn func(*IdempotencyRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return fmt.Errorf("idempotency key %q not found", key)
	}
	fn(&rec)
	rec.UpdatedAt = s.nowFunc().UTC()
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) expired(rec IdempotencyRecord, now time.Time) bool {
	return rec.ExpiresAt > 0 && rec.ExpiresAt < now.Unix()
}
