package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	redisrepo "github.com/kirinyoku/reserveme/internal/repository/redis"
	"github.com/kirinyoku/reserveme/internal/service/admin"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/service/admission/admissiontest"
	"github.com/kirinyoku/reserveme/internal/service/reservations"
	"github.com/kirinyoku/reserveme/internal/service/reviews"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var evening = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)

type venueReaderStub struct {
	venue        *domain.VenueSummary
	availability *domain.VenueAvailability
	listings     []domain.VenueListing
	types        []domain.VenueType
	gotAt        time.Time
}

func (s *venueReaderStub) ListVenues(context.Context) ([]domain.VenueListing, error) {
	return s.listings, nil
}

func (s *venueReaderStub) ListVenueTypes(context.Context) ([]domain.VenueType, error) {
	return s.types, nil
}

func (s *venueReaderStub) GetVenue(context.Context, int64) (*domain.VenueSummary, error) {
	return s.venue, nil
}

func (s *venueReaderStub) ListTables(context.Context, int64, bool) ([]domain.Table, error) {
	return []domain.Table{}, nil
}

func (s *venueReaderStub) Availability(_ context.Context, _ int64, at time.Time) (*domain.VenueAvailability, error) {
	s.gotAt = at
	return s.availability, nil
}

type reservationManagerMock struct {
	mock.Mock
}

func (m *reservationManagerMock) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *reservationManagerMock) ListByVenue(ctx context.Context, venueID int64, from, to time.Time, limit, offset int) ([]domain.Reservation, error) {
	args := m.Called(ctx, venueID, from, to, limit, offset)
	out, _ := args.Get(0).([]domain.Reservation)
	return out, args.Error(1)
}

func (m *reservationManagerMock) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ClientReservation, error) {
	args := m.Called(ctx, userID, limit, offset)
	out, _ := args.Get(0).([]domain.ClientReservation)
	return out, args.Error(1)
}

type venueAdminMock struct {
	mock.Mock
}

func (m *venueAdminMock) CreateVenue(ctx context.Context, name string, description *string, venueTypeID *int64) (int64, error) {
	args := m.Called(ctx, name, description, venueTypeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *venueAdminMock) CreateTable(ctx context.Context, venueID int64, tableNumber, capacity int) (*domain.Table, error) {
	args := m.Called(ctx, venueID, tableNumber, capacity)
	t, _ := args.Get(0).(*domain.Table)
	return t, args.Error(1)
}

func (m *venueAdminMock) SetTableActive(ctx context.Context, tableID int64, active bool) error {
	return m.Called(ctx, tableID, active).Error(0)
}

func (m *venueAdminMock) SetVenueActive(ctx context.Context, venueID int64, active bool) error {
	return m.Called(ctx, venueID, active).Error(0)
}

func (m *venueAdminMock) DeleteVenue(ctx context.Context, venueID int64) error {
	return m.Called(ctx, venueID).Error(0)
}

func (m *venueAdminMock) AssignStaffVenue(ctx context.Context, userID string, venueID *int64) error {
	return m.Called(ctx, userID, venueID).Error(0)
}

type reviewBoardMock struct {
	mock.Mock
}

func (m *reviewBoardMock) List(ctx context.Context, venueID int64) ([]domain.Review, error) {
	args := m.Called(ctx, venueID)
	out, _ := args.Get(0).([]domain.Review)
	return out, args.Error(1)
}

func (m *reviewBoardMock) Create(ctx context.Context, venueID int64, userID *string, rating *int, comment *string) (*domain.Review, error) {
	args := m.Called(ctx, venueID, userID, rating, comment)
	rv, _ := args.Get(0).(*domain.Review)
	return rv, args.Error(1)
}

// memIdempotency mirrors the Redis store's LOCK/RES states in memory.
type memIdempotency struct {
	mu   sync.Mutex
	vals map[string]string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{vals: make(map[string]string)}
}

func (m *memIdempotency) GetResult(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	if !ok || !strings.HasPrefix(v, "RES:") {
		return "", false, nil
	}
	return strings.TrimPrefix(v, "RES:"), true, nil
}

func (m *memIdempotency) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vals[key]; ok {
		return "", false, nil
	}
	m.vals[key] = "LOCK:t"
	return "t", true, nil
}

func (m *memIdempotency) SaveResult(_ context.Context, key, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = "RES:" + payload
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals[key] == "LOCK:"+token {
		delete(m.vals, key)
	}
	return nil
}

// limiterStub rejects the scopes listed in deny and records every scope asked.
type limiterStub struct {
	deny       map[string]bool
	retryAfter time.Duration
	err        error

	mu     sync.Mutex
	scopes []string
}

func (l *limiterStub) Allow(_ context.Context, scope, _ string) (redisrepo.RateDecision, error) {
	l.mu.Lock()
	l.scopes = append(l.scopes, scope)
	l.mu.Unlock()

	if l.err != nil {
		return redisrepo.RateDecision{}, l.err
	}
	if l.deny[scope] {
		return redisrepo.RateDecision{Limit: 5, RetryAfter: l.retryAfter}, nil
	}
	return redisrepo.RateDecision{Allowed: true, Limit: 5, Remaining: 4}, nil
}

func (l *limiterStub) asked() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.scopes...)
}

type testEnv struct {
	store   *admissiontest.MemStore
	venues  *venueReaderStub
	res     *reservationManagerMock
	admin   *venueAdminMock
	reviews *reviewBoardMock
	router  *gin.Engine
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		store:   admissiontest.NewMemStore(),
		venues:  &venueReaderStub{},
		res:     &reservationManagerMock{},
		admin:   &venueAdminMock{},
		reviews: &reviewBoardMock{},
	}

	d := Deps{
		Admission:    admission.New(env.store, env.store, admission.Config{}, admission.WithLogger(logger)),
		Venues:       env.venues,
		Reservations: env.res,
		Admin:        env.admin,
		Reviews:      env.reviews,
		Idempotency:  newMemIdempotency(),
		Logger:       logger,
		Now:          func() time.Time { return evening },
	}
	if mutate != nil {
		mutate(&d)
	}

	env.router = NewRouter(d)

	return env
}

func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func reservationBody(venueID int64, guests int, at *time.Time) map[string]any {
	body := map[string]any{"venue_id": venueID, "guests_count": guests}
	if at != nil {
		body["reservation_time"] = at.Format(time.RFC3339)
	}
	return body
}

func TestCreateReservation_Admitted(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.AddVenue(1, 4, 4)

	at := evening.Add(time.Hour)
	w := env.do(http.MethodPost, "/reservations", reservationBody(1, 4, &at))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ReservationID)

	rows := env.store.Reservations()
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ReservationPending, rows[0].Status)
}

func TestCreateReservation_ErrorMapping(t *testing.T) {
	at := evening.Add(time.Hour)

	tests := []struct {
		name      string
		setup     func(*admissiontest.MemStore)
		body      map[string]any
		wantCode  int
		wantKind  string
		wantField string
		wantSeats *int
	}{
		{
			name: "capacity exceeded",
			setup: func(s *admissiontest.MemStore) {
				s.AddVenue(1, 6)
				s.AddReservation(1, 4, evening, domain.ReservationInProgress)
			},
			body:      reservationBody(1, 3, &at),
			wantCode:  http.StatusConflict,
			wantKind:  "capacity_exceeded",
			wantSeats: ptr(2),
		},
		{
			name:      "missing time",
			setup:     func(s *admissiontest.MemStore) { s.AddVenue(1, 6) },
			body:      reservationBody(1, 3, nil),
			wantCode:  http.StatusBadRequest,
			wantKind:  "validation",
			wantField: "reservation_time",
		},
		{
			name:      "zero guests",
			setup:     func(s *admissiontest.MemStore) { s.AddVenue(1, 6) },
			body:      reservationBody(1, 0, &at),
			wantCode:  http.StatusBadRequest,
			wantKind:  "validation",
			wantField: "guests_count",
		},
		{
			name:     "unknown venue",
			setup:    func(*admissiontest.MemStore) {},
			body:     reservationBody(5, 2, &at),
			wantCode: http.StatusNotFound,
			wantKind: "venue_unavailable",
		},
		{
			name: "no active tables",
			setup: func(s *admissiontest.MemStore) {
				s.AddVenue(1)
				s.AddInactiveTable(1, 8)
			},
			body:     reservationBody(1, 2, &at),
			wantCode: http.StatusConflict,
			wantKind: "no_capacity_configured",
		},
		{
			name: "unknown user",
			setup: func(s *admissiontest.MemStore) {
				s.AddVenue(1, 6)
				s.Fail(admissiontest.OpInsert, repository.ErrNotFound)
			},
			body: func() map[string]any {
				b := reservationBody(1, 2, &at)
				b["user_id"] = "ghost"
				return b
			}(),
			wantCode:  http.StatusBadRequest,
			wantKind:  "validation",
			wantField: "user_id",
		},
		{
			name: "store failure",
			setup: func(s *admissiontest.MemStore) {
				s.AddVenue(1, 6)
				s.Fail(admissiontest.OpInsert, errors.New("disk full"))
			},
			body:     reservationBody(1, 2, &at),
			wantCode: http.StatusInternalServerError,
			wantKind: "transaction_failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			tt.setup(env.store)

			w := env.do(http.MethodPost, "/reservations", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			got := decodeError(t, w)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantField, got.Field)
			assert.Equal(t, tt.wantSeats, got.AvailableSeats)
		})
	}
}

func TestCreateReservation_BadJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"venue_id":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReservation_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.AddVenue(1, 10)

	at := evening.Add(time.Hour)
	body := reservationBody(1, 2, &at)

	first := env.do(http.MethodPost, "/reservations", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(http.MethodPost, "/reservations", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "abc", second.Header().Get("Idempotency-Key"))

	assert.Len(t, env.store.Reservations(), 1)
}

func TestCreateReservation_FailureReleasesIdempotencyKey(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.AddVenue(1, 2)

	at := evening.Add(time.Hour)

	w := env.do(http.MethodPost, "/reservations", reservationBody(1, 3, &at), "Idempotency-Key", "k")
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/reservations", reservationBody(1, 2, &at), "Idempotency-Key", "k")
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateReservation_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Limiter = &limiterStub{deny: map[string]bool{ScopeReservations: true}, retryAfter: 1500 * time.Millisecond}
	})
	env.store.AddVenue(1, 10)

	at := evening.Add(time.Hour)
	w := env.do(http.MethodPost, "/reservations", reservationBody(1, 2, &at))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, env.store.Reservations())
}

func TestCreateReservation_LimiterFailureLetsRequestThrough(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Limiter = &limiterStub{err: errors.New("redis down")}
	})
	env.store.AddVenue(1, 10)

	at := evening.Add(time.Hour)
	w := env.do(http.MethodPost, "/reservations", reservationBody(1, 2, &at))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	env.res.On("UpdateStatus", mock.Anything, int64(7), domain.ReservationApproved).Return(nil).Once()
	env.res.On("UpdateStatus", mock.Anything, int64(8), domain.ReservationApproved).
		Return(fmt.Errorf("op:%w", reservations.TransitionError{From: domain.ReservationCompleted, To: domain.ReservationApproved})).Once()
	env.res.On("UpdateStatus", mock.Anything, int64(9), domain.ReservationApproved).
		Return(fmt.Errorf("op:%w", reservations.ErrReservationNotFound)).Once()

	w := env.do(http.MethodPut, "/reservations/7/status", map[string]any{"status": 1})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPut, "/reservations/8/status", map[string]any{"status": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, w).Kind)

	w = env.do(http.MethodPut, "/reservations/9/status", map[string]any{"status": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/reservations/9/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/reservations/x/status", map[string]any{"status": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.res.AssertExpectations(t)
}

func TestGetVenue_ETag(t *testing.T) {
	env := newTestEnv(t, nil)
	env.venues.venue = &domain.VenueSummary{
		Venue:         domain.Venue{ID: 1, Name: "Harbour Grill", IsActive: true},
		ActiveTables:  2,
		TotalCapacity: 8,
	}

	w := env.do(http.MethodGet, "/venues/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	w = env.do(http.MethodGet, "/venues/1", nil, "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestGetAvailability(t *testing.T) {
	env := newTestEnv(t, nil)
	env.venues.availability = &domain.VenueAvailability{VenueID: 1, Capacity: 8, Occupied: 3, Available: 5}

	w := env.do(http.MethodGet, "/venues/1/availability?at=2025-06-14T19:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC), env.venues.gotAt.UTC())

	w = env.do(http.MethodGet, "/venues/1/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, evening, env.venues.gotAt)

	w = env.do(http.MethodGet, "/venues/1/availability?at=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListVenueReservations(t *testing.T) {
	env := newTestEnv(t, nil)

	from := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	env.res.On("ListByVenue", mock.Anything, int64(3), mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(from)
	}), time.Time{}, 20, 40).Return([]domain.Reservation{{ID: 1, VenueID: 3}}, nil).Once()

	w := env.do(http.MethodGet, "/venues/3/reservations?from=2025-06-14T00:00:00Z&limit=20&offset=40", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []domain.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 1)

	w = env.do(http.MethodGet, "/venues/3/reservations?to=never", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.res.AssertExpectations(t)
}

func TestListUserReservations(t *testing.T) {
	env := newTestEnv(t, nil)

	env.res.On("ListByUser", mock.Anything, "u-1", 0, 0).
		Return([]domain.ClientReservation{{VenueName: "Harbour Grill"}}, nil).Once()

	w := env.do(http.MethodGet, "/users/u-1/reservations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Harbour Grill")
	env.res.AssertExpectations(t)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	env.admin.On("CreateVenue", mock.Anything, "Harbour Grill", (*string)(nil), (*int64)(nil)).Return(int64(4), nil).Once()
	env.admin.On("CreateTable", mock.Anything, int64(4), 1, 4).
		Return(&domain.Table{ID: 10, VenueID: 4, TableNumber: 1, Capacity: 4, IsActive: true}, nil).Once()
	env.admin.On("CreateTable", mock.Anything, int64(4), 1, 6).
		Return(nil, fmt.Errorf("op:%w", admin.ErrTableConflict)).Once()
	env.admin.On("CreateTable", mock.Anything, int64(4), 2, -1).
		Return(nil, fmt.Errorf("service.admin.CreateTable:%w", admin.ErrInvalidCapacity)).Once()
	env.admin.On("SetTableActive", mock.Anything, int64(10), false).Return(nil).Once()
	env.admin.On("SetVenueActive", mock.Anything, int64(4), false).Return(nil).Once()
	env.admin.On("DeleteVenue", mock.Anything, int64(5)).Return(fmt.Errorf("op:%w", admin.ErrVenueNotFound)).Once()

	w := env.do(http.MethodPost, "/admin/venues", map[string]any{"name": "Harbour Grill"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"venue_id":4}`, w.Body.String())

	w = env.do(http.MethodPost, "/admin/venues", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/admin/venues/4/tables", map[string]any{"table_number": 1, "capacity": 4})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/admin/venues/4/tables", map[string]any{"table_number": 1, "capacity": 6})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPost, "/admin/venues/4/tables", map[string]any{"table_number": 2, "capacity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, admin.ErrInvalidCapacity.Error(), decodeError(t, w).Error)

	w = env.do(http.MethodPatch, "/admin/tables/10", map[string]any{"is_active": false})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPatch, "/admin/venues/4", map[string]any{"is_active": false})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, "/admin/venues/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.admin.AssertExpectations(t)
}

func TestUnknownErrorIs500(t *testing.T) {
	env := newTestEnv(t, nil)
	env.res.On("ListByUser", mock.Anything, "u-2", 0, 0).Return(nil, errors.New("boom")).Once()

	w := env.do(http.MethodGet, "/users/u-2/reservations", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decodeError(t, w).Error)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEtagMatches(t *testing.T) {
	tag := `W/"abc"`

	assert.True(t, etagMatches(`W/"abc"`, tag))
	assert.True(t, etagMatches(`"abc"`, tag))
	assert.True(t, etagMatches(`"x", W/"abc"`, tag))
	assert.True(t, etagMatches(`*`, tag))
	assert.False(t, etagMatches(``, tag))
	assert.False(t, etagMatches(`"abd"`, tag))
}

func ptr[T any](v T) *T { return &v }

func TestRateLimit_ScopesPerRouteGroup(t *testing.T) {
	limiter := &limiterStub{deny: map[string]bool{ScopeAdmin: true}, retryAfter: time.Second}
	env := newTestEnv(t, func(d *Deps) { d.Limiter = limiter })
	env.store.AddVenue(1, 10)

	at := evening.Add(time.Hour)
	w := env.do(http.MethodPost, "/reservations", reservationBody(1, 2, &at))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	w = env.do(http.MethodDelete, "/admin/venues/1", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decodeError(t, w).Kind)
	env.admin.AssertNotCalled(t, "DeleteVenue", mock.Anything, mock.Anything)

	// Reads are not limited.
	env.venues.venue = &domain.VenueSummary{Venue: domain.Venue{ID: 1}}
	w = env.do(http.MethodGet, "/venues/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{ScopeReservations, ScopeAdmin}, limiter.asked())
}

func TestListVenues(t *testing.T) {
	env := newTestEnv(t, nil)
	rating := 4.5
	env.venues.listings = []domain.VenueListing{{
		Venue:             domain.Venue{ID: 1, Name: "Harbour Grill", IsActive: true},
		ReviewCount:       2,
		AvgRating:         &rating,
		TotalReservations: 7,
	}}

	w := env.do(http.MethodGet, "/venues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))

	var got []domain.VenueListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Harbour Grill", got[0].Name)
	assert.Equal(t, 4.5, *got[0].AvgRating)
	assert.Equal(t, 7, got[0].TotalReservations)
}

func TestListVenueTypes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.venues.types = []domain.VenueType{{ID: 1, Name: "Bistro"}, {ID: 2, Name: "Cafe"}}

	w := env.do(http.MethodGet, "/venue-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Bistro"},{"id":2,"name":"Cafe"}]`, w.Body.String())
}

func TestListReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	env.reviews.On("List", mock.Anything, int64(3)).Return([]domain.Review{
		{ID: 9, VenueID: 3, ReviewerName: domain.AnonymousReviewer, CreatedAt: evening},
	}, nil)

	w := env.do(http.MethodGet, "/venues/3/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []domain.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, domain.AnonymousReviewer, got[0].ReviewerName)
	env.reviews.AssertExpectations(t)
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t, nil)
	rating := 5
	comment := "great view"
	user := "u1"
	env.reviews.On("Create", mock.Anything, int64(3), &user, &rating, &comment).
		Return(&domain.Review{ID: 1, VenueID: 3, UserID: &user, Rating: &rating, Comment: &comment, CreatedAt: evening}, nil)

	w := env.do(http.MethodPost, "/venues/3/reviews", map[string]any{
		"user_id": "u1", "rating": 5, "comment": "great view",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var got domain.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
	env.reviews.AssertExpectations(t)
}

func TestCreateReview_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		field  string
	}{
		{"bad rating", reviews.ErrInvalidRating, http.StatusBadRequest, "rating"},
		{"long comment", reviews.ErrCommentTooLong, http.StatusBadRequest, "comment"},
		{"empty", reviews.ErrEmptyReview, http.StatusBadRequest, ""},
		{"unknown user", reviews.ErrUserNotFound, http.StatusBadRequest, "user_id"},
		{"unknown venue", reviews.ErrVenueNotFound, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.reviews.On("Create", mock.Anything, int64(3), mock.Anything, mock.Anything, mock.Anything).
				Return(nil, fmt.Errorf("service.reviews.Create:%w", tt.err))

			w := env.do(http.MethodPost, "/venues/3/reviews", map[string]any{"rating": 9})
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.field, decodeError(t, w).Field)
		})
	}
}

func TestCreateReview_RateLimited(t *testing.T) {
	limiter := &limiterStub{deny: map[string]bool{ScopeReviews: true}, retryAfter: time.Second}
	env := newTestEnv(t, func(d *Deps) { d.Limiter = limiter })

	w := env.do(http.MethodPost, "/venues/3/reviews", map[string]any{"rating": 4})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	env.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{ScopeReviews}, limiter.asked())
}

func TestAssignStaffVenue(t *testing.T) {
	venue := int64(4)

	t.Run("assign", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.admin.On("AssignStaffVenue", mock.Anything, "waiter-1", &venue).Return(nil)

		w := env.do(http.MethodPut, "/admin/users/waiter-1/venue", map[string]any{"venue_id": 4})
		assert.Equal(t, http.StatusNoContent, w.Code)
		env.admin.AssertExpectations(t)
	})

	t.Run("unassign", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.admin.On("AssignStaffVenue", mock.Anything, "waiter-1", (*int64)(nil)).Return(nil)

		w := env.do(http.MethodPut, "/admin/users/waiter-1/venue", map[string]any{"venue_id": nil})
		assert.Equal(t, http.StatusNoContent, w.Code)
		env.admin.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.admin.On("AssignStaffVenue", mock.Anything, "ghost", &venue).
			Return(fmt.Errorf("service.admin.AssignStaffVenue:%w", admin.ErrUserNotFound))

		w := env.do(http.MethodPut, "/admin/users/ghost/venue", map[string]any{"venue_id": 4})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "user not found", decodeError(t, w).Error)
	})

	t.Run("unknown venue", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.admin.On("AssignStaffVenue", mock.Anything, "waiter-1", &venue).
			Return(fmt.Errorf("service.admin.AssignStaffVenue:%w", admin.ErrVenueNotFound))

		w := env.do(http.MethodPut, "/admin/users/waiter-1/venue", map[string]any{"venue_id": 4})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "venue not found", decodeError(t, w).Error)
	})
}
