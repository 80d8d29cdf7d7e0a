package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Metric names emitted by MirroredStore.
const (
	MetricMirrorWriteDropped  = "MirrorWriteDropped"
	MetricMirrorWriteConflict = "MirrorWriteConflict"
	MetricMirrorReadFallback  = "MirrorReadFallback"
)

// DefaultMirrorTimeout bounds each mirror call.
const DefaultMirrorTimeout = 2 * time.Second

// Mirror is the durable side of a MirroredStore.
type Mirror interface {
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// Save fails with ErrConflict when the mirror already holds o.Version or later.
	Save(ctx context.Context, o Order) error
}

// Counter records operational events (CloudWatch in production).
type Counter interface {
	Incr(ctx context.Context, name string)
}

// MirroredStore keeps an in-process MemoryStore and copies every committed write to a
// Mirror shared with other processes. Before each mutation the local copy is brought up
// to the mirror's version; a write the mirror rejects as stale is re-run on the newer
// copy and ends in ErrConflict when it keeps losing. An unreachable mirror is tolerated:
// writes are dropped after one retry and reads fall back to memory, so a read after a
// dropped write may be stale.
type MirroredStore struct {
	local    *MemoryStore
	mirror   Mirror
	timeout  time.Duration
	attempts int
	metrics  Counter
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMirroredStore wires local and mirror. metrics may be nil.
func NewMirroredStore(local *MemoryStore, mirror Mirror, timeout time.Duration, metrics Counter, logger *slog.Logger) *MirroredStore {
	if timeout <= 0 {
		timeout = DefaultMirrorTimeout
	}
	return &MirroredStore{
		local:    local,
		mirror:   mirror,
		timeout:  timeout,
		attempts: DefaultUpdateAttempts,
		metrics:  metrics,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *MirroredStore) Create(ctx context.Context, o Order) error {
	unlock := s.lock(o.OrderID)
	defer unlock()

	if err := s.local.Create(ctx, o); err != nil {
		return err
	}
	if err := s.writeThrough(ctx, o); err != nil {
		if m, getErr := s.mirrorGet(ctx, o.OrderID); getErr == nil && sameRevision(m, o) {
			return nil
		}
		s.local.remove(o.OrderID)
		return fmt.Errorf("%w: %s", ErrDuplicateID, o.OrderID)
	}
	return nil
}

func (s *MirroredStore) Get(ctx context.Context, orderID string) (Order, error) {
	o, err := s.mirrorGet(ctx, orderID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.fallback(ctx, "get", err)
	}
	return s.local.Get(ctx, orderID)
}

// Update runs fn against the freshest copy available. Mutations on one order are
// serialized within the process; other processes are detected through Save conflicts.
func (s *MirroredStore) Update(ctx context.Context, orderID string, fn Mutation) (Order, error) {
	unlock := s.lock(orderID)
	defer unlock()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		s.refresh(ctx, orderID)
		before, err := s.local.Get(ctx, orderID)
		if err != nil {
			return Order{}, err
		}

		var changed bool
		o, err := s.local.Update(ctx, orderID, func(o *Order) (bool, error) {
			c, err := fn(o)
			changed = c
			return c, err
		})
		if err != nil || !changed {
			return o, err
		}

		if err := s.writeThrough(ctx, o); err == nil {
			return o, nil
		}

		// another process committed this version first
		s.count(ctx, MetricMirrorWriteConflict)
		m, err := s.mirrorGet(ctx, orderID)
		switch {
		case err != nil:
			s.local.replace(before)
			return Order{}, fmt.Errorf("%w: order %s, mirror unreadable after a rejected write: %v", ErrConflict, orderID, err)
		case sameRevision(m, o):
			// an earlier attempt landed before timing out
			return o, nil
		}
		s.logger.Warn("mirror holds a newer order, retrying", "order_id", orderID, "local_version", o.Version, "mirror_version", m.Version, "attempt", attempt)
		s.local.replace(m)
	}
	return Order{}, fmt.Errorf("%w: order %s after %d attempts", ErrConflict, orderID, s.attempts)
}

func (s *MirroredStore) List(ctx context.Context, f Filter) ([]Order, error) {
	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	list, err := s.mirror.List(mctx, f)
	cancel()
	if err == nil {
		return list, nil
	}
	s.fallback(ctx, "list", err)
	return s.local.List(ctx, f)
}

// refresh loads the mirror's copy into memory when it is newer than the local one,
// including orders this process has never seen. The mirror wins a tie between two
// diverged copies of the same version.
func (s *MirroredStore) refresh(ctx context.Context, orderID string) {
	m, err := s.mirrorGet(ctx, orderID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.fallback(ctx, "refresh", err)
		}
		return
	}
	cur, err := s.local.Get(ctx, orderID)
	if err != nil || m.Version > cur.Version || (m.Version == cur.Version && !sameRevision(m, cur)) {
		s.local.replace(m)
	}
}

// writeThrough tries the mirror twice, then drops the write. Only ErrConflict is returned.
func (s *MirroredStore) writeThrough(ctx context.Context, o Order) error {
	base := context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		mctx, cancel := context.WithTimeout(base, s.timeout)
		err = s.mirror.Save(mctx, o)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrConflict) {
			s.logger.Warn("mirror rejected stale write", "order_id", o.OrderID, "version", o.Version, "error", err)
			return err
		}
		s.logger.Warn("mirror write failed", "order_id", o.OrderID, "version", o.Version, "attempt", attempt, "error", err)
	}
	s.logger.Error("mirror write dropped", "order_id", o.OrderID, "version", o.Version, "error", err)
	s.count(base, MetricMirrorWriteDropped)
	return nil
}

func (s *MirroredStore) mirrorGet(ctx context.Context, orderID string) (Order, error) {
	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.mirror.Get(mctx, orderID)
}

func (s *MirroredStore) lock(orderID string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[orderID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *MirroredStore) fallback(ctx context.Context, op string, err error) {
	s.logger.Warn("mirror read failed, using in-process copy", "op", op, "error", err)
	s.count(context.WithoutCancel(ctx), MetricMirrorReadFallback)
}

func (s *MirroredStore) count(ctx context.Context, name string) {
	if s.metrics == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	s.metrics.Incr(mctx, name)
}

func sameRevision(a, b Order) bool {
	return a.Version == b.Version && a.UpdatedAt.Equal(b.UpdatedAt)
}
