// Package admissiontest provides an in-memory transactional store for testing
// code built on the admission service.
package admissiontest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/uow"
)

// Operations that can be made to fail with MemStore.Fail.
const (
	OpVenueExists = "venue_exists"
	OpLockVenue   = "lock_venue"
	OpCapacity    = "capacity"
	OpOverlap     = "overlap"
	OpInsert      = "insert"
	OpCommit      = "commit"
)

type venue struct {
	active  bool
	deleted bool
}

// MemStore implements admission.Store and admission.Transactor. Transactions
// run concurrently; LockVenue holds a per-venue lock until commit or rollback,
// and inserts become visible only on commit.
type MemStore struct {
	mu           sync.Mutex
	venueLocks   map[int64]chan struct{}
	afterOverlap func(ctx context.Context)
	venues       map[int64]venue
	tables       []domain.Table
	reservations []domain.Reservation
	users        map[string]domain.UserProfile
	failures     map[string]error
	nextID       int64

	began     int
	committed int
	rolled    int
}

func NewMemStore() *MemStore {
	return &MemStore{
		venues:     make(map[int64]venue),
		venueLocks: make(map[int64]chan struct{}),
		users:      make(map[string]domain.UserProfile),
		failures:   make(map[string]error),
	}
}

// AddVenue registers an active venue with tables of the given capacities.
func (m *MemStore) AddVenue(id int64, capacities ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.venues[id] = venue{active: true}
	for i, c := range capacities {
		m.tables = append(m.tables, domain.Table{
			ID:          int64(len(m.tables) + 1),
			VenueID:     id,
			TableNumber: i + 1,
			Capacity:    c,
			Status:      domain.TableAvailable,
			IsActive:    true,
		})
	}
}

func (m *MemStore) AddInactiveTable(venueID int64, capacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables = append(m.tables, domain.Table{
		ID:       int64(len(m.tables) + 1),
		VenueID:  venueID,
		Capacity: capacity,
		Status:   domain.TableAvailable,
	})
}

func (m *MemStore) SetVenueFlags(id int64, active, deleted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.venues[id] = venue{active: active, deleted: deleted}
}

// AddReservation stores an already admitted reservation and returns its ID.
func (m *MemStore) AddReservation(venueID int64, guests int, at time.Time, status domain.ReservationStatus) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.reservations = append(m.reservations, domain.Reservation{
		ID:              m.nextID,
		VenueID:         venueID,
		GuestsCount:     guests,
		ReservationTime: &at,
		Status:          status,
	})

	return m.nextID
}

func (m *MemStore) AddUser(p domain.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[p.ID] = p
}

// Fail makes every later call of op return err. A nil err clears it.
func (m *MemStore) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// AfterOverlapRead makes every in-transaction occupancy read call fn before
// returning. Tests use it to widen the gap between read and insert or to
// cancel a running transaction.
func (m *MemStore) AfterOverlapRead(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.afterOverlap = fn
}

func (m *MemStore) Reservations() []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Reservation, len(m.reservations))
	copy(out, m.reservations)
	return out
}

// Stats returns how many transactions were begun, committed and rolled back.
func (m *MemStore) Stats() (began, committed, rolledBack int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.began, m.committed, m.rolled
}

func (m *MemStore) LookupUserProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) VenueExistsActive(ctx context.Context, venueID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, OpVenueExists); err != nil {
		return false, err
	}

	v, ok := m.venues[venueID]
	return ok && v.active && !v.deleted, nil
}

func (m *MemStore) SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, OpCapacity); err != nil {
		return 0, err
	}

	return m.capacity(venueID), nil
}

func (m *MemStore) SumOverlappingGuests(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, OpOverlap); err != nil {
		return 0, err
	}

	return overlapping(m.reservations, venueID, from, to, statuses), nil
}

// Do runs fn as one transaction.
func (m *MemStore) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx admission.Tx, after func(uow.AfterCommit)) error,
) error {
	m.mu.Lock()
	m.began++
	m.mu.Unlock()

	tx := &memTx{store: m}
	defer tx.unlock()
	var hooks []uow.AfterCommit

	if err := fn(ctx, tx, func(h uow.AfterCommit) { hooks = append(hooks, h) }); err != nil {
		m.rollback()
		return err
	}

	m.mu.Lock()
	err := m.check(ctx, OpCommit)
	if err == nil {
		m.reservations = append(m.reservations, tx.staged...)
		m.committed++
	}
	m.mu.Unlock()

	if err != nil {
		m.rollback()
		return fmt.Errorf("commit: %w", err)
	}

	tx.unlock()

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

func (m *MemStore) rollback() {
	m.mu.Lock()
	m.rolled++
	m.mu.Unlock()
}

// check must be called with mu held.
func (m *MemStore) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.failures[op]
}

// venueLock returns the lock channel for venueID, creating it on first use.
func (m *MemStore) venueLock(venueID int64) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.venueLocks[venueID]
	if !ok {
		l = make(chan struct{}, 1)
		m.venueLocks[venueID] = l
	}
	return l
}

// capacity must be called with mu held.
func (m *MemStore) capacity(venueID int64) int {
	total := 0
	for _, t := range m.tables {
		if t.VenueID == venueID && t.IsActive {
			total += t.Capacity
		}
	}
	return total
}

func overlapping(
	reservations []domain.Reservation,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) int {
	total := 0
	for _, r := range reservations {
		if r.VenueID != venueID || r.ReservationTime == nil {
			continue
		}
		if !r.ReservationTime.After(from) || !r.ReservationTime.Before(to) {
			continue
		}
		for _, s := range statuses {
			if r.Status == s {
				total += r.GuestsCount
				break
			}
		}
	}
	return total
}

type memTx struct {
	store  *MemStore
	staged []domain.Reservation
	held   []chan struct{}
}

// LockVenue blocks until no other transaction holds venueID, like a row lock
// taken with SELECT ... FOR UPDATE.
func (t *memTx) LockVenue(ctx context.Context, venueID int64) error {
	m := t.store

	m.mu.Lock()
	err := m.check(ctx, OpLockVenue)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	l := m.venueLock(venueID)
	select {
	case l <- struct{}{}:
		t.held = append(t.held, l)
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.venues[venueID]
	if !ok || !v.active || v.deleted {
		return repository.ErrNotFound
	}
	return nil
}

func (t *memTx) SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error) {
	return t.store.SumActiveTableCapacity(ctx, venueID)
}

func (t *memTx) SumOverlappingGuests(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) (int, error) {
	committed, err := t.store.SumOverlappingGuests(ctx, venueID, from, to, statuses)
	if err != nil {
		return 0, err
	}

	t.store.mu.Lock()
	hook := t.store.afterOverlap
	t.store.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	return committed + overlapping(t.staged, venueID, from, to, statuses), nil
}

func (t *memTx) InsertReservation(ctx context.Context, res *domain.Reservation) (int64, error) {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(ctx, OpInsert); err != nil {
		return 0, err
	}

	m.nextID++
	row := *res
	row.ID = m.nextID
	t.staged = append(t.staged, row)

	return row.ID, nil
}

func (t *memTx) unlock() {
	for _, l := range t.held {
		<-l
	}
	t.held = nil
}
