// Package memory is a process-local storage backend with the same unit of
// work and row-lock semantics as the PostgreSQL repositories: writes are
// staged per transaction and applied on commit, and per-key locks are held
// until the transaction ends. It backs STORAGE_DRIVER=memory and the
// use-case tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

var (
	errLockTimeout = errors.New("lock wait timeout exceeded")
	errNoTx        = errors.New("row lock requested outside a unit of work")
)

type ledgerKey struct {
	branchID  int64
	productID int64
}

type Store struct {
	mu          sync.RWMutex
	inventories map[ledgerKey]model.Inventory
	movements   []model.InventoryMovement
	orders      map[int64]model.Order
	products    map[int64]model.Product

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	lockTimeout time.Duration

	inventorySeq atomic.Int64
	movementSeq  atomic.Int64
	orderSeq     atomic.Int64
	lineSeq      atomic.Int64
}

// NewStore returns an empty store. lockTimeout bounds each row-lock wait;
// zero means wait until the context is done.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		inventories: make(map[ledgerKey]model.Inventory),
		orders:      make(map[int64]model.Order),
		products:    make(map[int64]model.Product),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

type txKey struct{}

type tx struct {
	held        []string
	holds       map[string]bool
	inventories map[ledgerKey]model.Inventory
	movements   []model.InventoryMovement
	orders      map[int64]model.Order
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// WithinTransaction runs fn with staged writes; they become visible only if
// fn returns nil. Locks taken inside fn are released on every exit path.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	t := &tx{
		holds:       make(map[string]bool),
		inventories: make(map[ledgerKey]model.Inventory),
		orders:      make(map[int64]model.Order),
	}
	defer s.releaseAll(t)

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	s.commit(t)
	return nil
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, inv := range t.inventories {
		s.inventories[k] = inv
	}
	s.movements = append(s.movements, t.movements...)
	for id, o := range t.orders {
		s.orders[id] = o
	}
}

func (s *Store) lockChan(name string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[name]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[name] = ch
	}
	return ch
}

// acquire takes the exclusive lock called name for t. Re-acquiring a lock t
// already holds is a no-op.
func (s *Store) acquire(ctx context.Context, t *tx, name string) error {
	if t.holds[name] {
		return nil
	}
	ch := s.lockChan(name)

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		t.holds[name] = true
		t.held = append(t.held, name)
		return nil
	case <-ctx.Done():
		return apperror.ConcurrencyTimeout(ctx.Err())
	case <-timeout:
		return apperror.ConcurrencyTimeout(fmt.Errorf("%s: %w", name, errLockTimeout))
	}
}

func (s *Store) releaseAll(t *tx) {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-s.lockChan(t.held[i])
	}
	t.held = nil
}

func inventoryLockName(k ledgerKey) string {
	return fmt.Sprintf("inventory:%d:%d", k.branchID, k.productID)
}

func orderLockName(id int64) string {
	return fmt.Sprintf("order:%d", id)
}
