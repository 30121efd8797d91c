package admission_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/service/admission/admissiontest"
)

var evening = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 6, 14, hour, minute, 0, 0, time.UTC)
	return &t
}

func ptr[T any](v T) *T { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(store *admissiontest.MemStore, opts ...admission.Option) *admission.Service {
	opts = append([]admission.Option{admission.WithLogger(quietLogger())}, opts...)
	return admission.New(store, store, admission.Config{}, opts...)
}

type userDirectoryMock struct {
	mock.Mock
}

func (m *userDirectoryMock) LookupUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.UserProfile)
	return p, args.Error(1)
}

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) ObserveAdmission(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type notifier struct {
	mu     sync.Mutex
	venues []int64
}

func (n *notifier) VenueChanged(_ context.Context, venueID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.venues = append(n.venues, venueID)
}

func TestAdmit_FitsInsideWindow(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4, 4)
	store.AddReservation(1, 3, evening, domain.ReservationApproved)

	svc := newService(store)

	id, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     4,
		ReservationTime: at(19, 0),
		Status:          domain.ReservationPending,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	rows := store.Reservations()
	require.Len(t, rows, 2)
	assert.Equal(t, id, rows[1].ID)
	assert.Equal(t, 4, rows[1].GuestsCount)
	assert.Equal(t, domain.ReservationPending, rows[1].Status)
}

func TestAdmit_CapacityExceededReportsAvailableSeats(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 6)
	store.AddReservation(1, 4, evening, domain.ReservationInProgress)

	svc := newService(store)

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     3,
		ReservationTime: at(19, 0),
	})
	require.ErrorIs(t, err, admission.ErrCapacityExceeded)

	var capErr admission.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.AvailableSeats)
	assert.Equal(t, 3, capErr.Requested)

	assert.Len(t, store.Reservations(), 1)
}

func TestAdmit_ReleasedStatusesDoNotHoldSeats(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 5)
	store.AddReservation(1, 5, evening, domain.ReservationDeclined)
	store.AddReservation(1, 5, evening.Add(30*time.Minute), domain.ReservationCompleted)

	svc := newService(store)

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     5,
		ReservationTime: at(18, 15),
	})
	require.NoError(t, err)
}

func TestAdmit_NoActiveTables(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1)
	store.AddInactiveTable(1, 10)

	svc := newService(store)

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     1,
		ReservationTime: at(19, 0),
	})
	require.ErrorIs(t, err, admission.ErrNoCapacityConfigured)
	assert.NotErrorIs(t, err, admission.ErrCapacityExceeded)
}

func TestAdmit_ValidationFailsBeforeTransaction(t *testing.T) {
	tests := []struct {
		name  string
		req   admission.Request
		field string
		want  error
	}{
		{
			name:  "missing time",
			req:   admission.Request{VenueID: 1, GuestsCount: 2},
			field: "reservation_time",
			want:  admission.ErrMissingTime,
		},
		{
			name:  "zero guests",
			req:   admission.Request{VenueID: 1, GuestsCount: 0, ReservationTime: at(19, 0)},
			field: "guests_count",
			want:  admission.ErrInvalidGuestCount,
		},
		{
			name:  "negative guests",
			req:   admission.Request{VenueID: 1, GuestsCount: -3, ReservationTime: at(19, 0)},
			field: "guests_count",
			want:  admission.ErrInvalidGuestCount,
		},
		{
			name:  "unknown status",
			req:   admission.Request{VenueID: 1, GuestsCount: 2, ReservationTime: at(19, 0), Status: 9},
			field: "status",
			want:  admission.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := admissiontest.NewMemStore()
			store.AddVenue(1, 10)

			_, err := newService(store).Admit(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)

			var valErr admission.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)

			began, _, _ := store.Stats()
			assert.Zero(t, began)
		})
	}
}

// slowReads keeps each transaction between its occupancy read and its insert
// long enough for a concurrent admission to interleave without the venue lock.
func slowReads(store *admissiontest.MemStore, d time.Duration) {
	store.AfterOverlapRead(func(context.Context) { time.Sleep(d) })
}

func TestAdmit_ConcurrentRequestsAdmitOnlyOne(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 6)
	slowReads(store, 20*time.Millisecond)

	svc := newService(store)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)

	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Admit(context.Background(), admission.Request{
				VenueID:         1,
				GuestsCount:     4,
				ReservationTime: at(19, 0),
			})
		}()
	}

	close(start)
	wg.Wait()

	var admitted, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, admission.ErrCapacityExceeded):
			rejected++
			var capErr admission.CapacityExceededError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, 2, capErr.AvailableSeats)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, rejected)
	assert.Len(t, store.Reservations(), 1)
}

func TestAdmit_ConcurrentLoadNeverOverbooks(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4, 6)
	slowReads(store, 2*time.Millisecond)

	svc := newService(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Admit(context.Background(), admission.Request{
				VenueID:         1,
				GuestsCount:     1 + i%3,
				ReservationTime: at(19, i),
			})
		}()
	}
	wg.Wait()

	total := 0
	for _, r := range store.Reservations() {
		total += r.GuestsCount
	}
	assert.LessOrEqual(t, total, 10)
}

func TestAdmit_WindowBoundsAreExclusive(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4)
	store.AddReservation(1, 4, evening.Add(-120*time.Minute), domain.ReservationApproved)
	store.AddReservation(1, 4, evening.Add(120*time.Minute), domain.ReservationPending)

	svc := newService(store)

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     4,
		ReservationTime: &evening,
	})
	require.NoError(t, err)

	_, err = svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     1,
		ReservationTime: at(19, 59),
	})
	require.ErrorIs(t, err, admission.ErrCapacityExceeded)
}

func TestAdmit_PartyLargerThanVenue(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4)

	_, err := newService(store).Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     5,
		ReservationTime: at(19, 0),
	})

	var capErr admission.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Zero(t, capErr.AvailableSeats)
}

func TestAdmit_OverProvisionedVenueReportsZero(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4)
	store.AddReservation(1, 6, evening, domain.ReservationApproved)

	_, err := newService(store).Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     1,
		ReservationTime: at(18, 30),
	})

	var capErr admission.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Zero(t, capErr.AvailableSeats)
}

func TestAdmit_VenueUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*admissiontest.MemStore)
		venueID int64
	}{
		{name: "missing", setup: func(*admissiontest.MemStore) {}, venueID: 7},
		{name: "inactive", setup: func(s *admissiontest.MemStore) { s.SetVenueFlags(1, false, false) }, venueID: 1},
		{name: "deleted", setup: func(s *admissiontest.MemStore) { s.SetVenueFlags(1, true, true) }, venueID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := admissiontest.NewMemStore()
			store.AddVenue(1, 10)
			tt.setup(store)

			_, err := newService(store).Admit(context.Background(), admission.Request{
				VenueID:         tt.venueID,
				GuestsCount:     2,
				ReservationTime: at(19, 0),
			})
			require.ErrorIs(t, err, admission.ErrVenueUnavailable)

			began, _, _ := store.Stats()
			assert.Zero(t, began)
		})
	}
}

func TestAdmit_StoreFailureIsTransactionFailure(t *testing.T) {
	boom := errors.New("connection reset")

	for _, op := range []string{
		admissiontest.OpLockVenue,
		admissiontest.OpCapacity,
		admissiontest.OpOverlap,
		admissiontest.OpInsert,
		admissiontest.OpCommit,
	} {
		t.Run(op, func(t *testing.T) {
			store := admissiontest.NewMemStore()
			store.AddVenue(1, 10)
			store.Fail(op, boom)

			_, err := newService(store).Admit(context.Background(), admission.Request{
				VenueID:         1,
				GuestsCount:     2,
				ReservationTime: at(19, 0),
			})
			require.ErrorIs(t, err, admission.ErrTransactionFailure)
			require.ErrorIs(t, err, boom)
			assert.NotErrorIs(t, err, admission.ErrCapacityExceeded)

			assert.Empty(t, store.Reservations())

			_, committed, rolledBack := store.Stats()
			assert.Zero(t, committed)
			assert.Equal(t, 1, rolledBack)
		})
	}
}

func TestAdmit_CancelledContextPersistsNothing(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(store).Admit(ctx, admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Reservations())
}

func TestAdmit_UnknownUserIsValidationError(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)
	store.Fail(admissiontest.OpInsert, fmt.Errorf("postgres.ReservationRepo.Insert:%w", repository.ErrNotFound))

	_, err := newService(store).Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
		UserID:          ptr("ghost"),
	})

	var valErr admission.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "user_id", valErr.Field)
	require.ErrorIs(t, err, admission.ErrUnknownUser)
	assert.NotErrorIs(t, err, admission.ErrTransactionFailure)

	_, _, rolledBack := store.Stats()
	assert.Equal(t, 1, rolledBack)
	assert.Empty(t, store.Reservations())
}

func TestAdmit_CancelInsideTransactionRollsBack(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.AfterOverlapRead(func(context.Context) { cancel() })

	n := &notifier{}
	_, err := newService(store, admission.WithNotifier(n)).Admit(ctx, admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
	})
	require.ErrorIs(t, err, admission.ErrTransactionFailure)
	require.ErrorIs(t, err, context.Canceled)

	began, committed, rolledBack := store.Stats()
	assert.Equal(t, 1, began)
	assert.Zero(t, committed)
	assert.Equal(t, 1, rolledBack)
	assert.Empty(t, store.Reservations())
	assert.Empty(t, n.venues)
}

func TestAdmit_LockWaitRespectsCancellation(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.AfterOverlapRead(func(context.Context) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	svc := newService(store)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Admit(context.Background(), admission.Request{
			VenueID:         1,
			GuestsCount:     2,
			ReservationTime: at(19, 0),
		})
		done <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Admit(ctx, admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 30),
	})
	require.ErrorIs(t, err, admission.ErrTransactionFailure)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, store.Reservations(), 1)
}

func TestAdmit_BackfillsContactFromProfile(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	users := &userDirectoryMock{}
	users.On("LookupUserProfile", mock.Anything, "u-1").Return(&domain.UserProfile{
		ID:        "u-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+100",
	}, nil).Once()

	svc := newService(store, admission.WithUserDirectory(users))

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
		UserID:          ptr("u-1"),
		ContactPhone:    ptr("+200"),
	})
	require.NoError(t, err)

	rows := store.Reservations()
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada Lovelace", *rows[0].ContactName)
	assert.Equal(t, "+200", *rows[0].ContactPhone)
	assert.Equal(t, "ada@example.com", *rows[0].ContactEmail)

	users.AssertExpectations(t)
}

func TestAdmit_BackfillFailureIsIgnored(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	users := &userDirectoryMock{}
	users.On("LookupUserProfile", mock.Anything, "u-1").Return(nil, errors.New("directory down")).Once()

	svc := newService(store, admission.WithUserDirectory(users))

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
		UserID:          ptr("u-1"),
	})
	require.NoError(t, err)

	rows := store.Reservations()
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ContactName)
	assert.Nil(t, rows[0].ContactEmail)
	users.AssertExpectations(t)
}

func TestAdmit_CompleteContactSkipsLookup(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 10)

	users := &userDirectoryMock{}
	svc := newService(store, admission.WithUserDirectory(users))

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     2,
		ReservationTime: at(19, 0),
		UserID:          ptr("u-1"),
		ContactName:     ptr("Grace"),
		ContactPhone:    ptr("+300"),
		ContactEmail:    ptr("grace@example.com"),
	})
	require.NoError(t, err)
	users.AssertNotCalled(t, "LookupUserProfile", mock.Anything, mock.Anything)
}

func TestAdmit_TableNumberIsNotChecked(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 2, 2)

	_, err := newService(store).Admit(context.Background(), admission.Request{
		VenueID:         1,
		TableNumber:     ptr(42),
		GuestsCount:     4,
		ReservationTime: at(19, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, *store.Reservations()[0].TableNumber)
}

func TestAdmit_RecordsOutcomesAndNotifies(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4)

	rec := &recorder{}
	n := &notifier{}
	svc := newService(store, admission.WithRecorder(rec), admission.WithNotifier(n))

	ctx := context.Background()

	_, err := svc.Admit(ctx, admission.Request{VenueID: 1, GuestsCount: 4, ReservationTime: at(19, 0)})
	require.NoError(t, err)

	_, err = svc.Admit(ctx, admission.Request{VenueID: 1, GuestsCount: 1, ReservationTime: at(19, 0)})
	require.Error(t, err)

	_, err = svc.Admit(ctx, admission.Request{VenueID: 1, GuestsCount: 1})
	require.Error(t, err)

	_, err = svc.Admit(ctx, admission.Request{VenueID: 2, GuestsCount: 1, ReservationTime: at(19, 0)})
	require.Error(t, err)

	assert.Equal(t, []string{
		admission.OutcomeAdmitted,
		admission.OutcomeCapacityExceeded,
		admission.OutcomeInvalid,
		admission.OutcomeVenueUnavailable,
	}, rec.outcomes)
	assert.Equal(t, []int64{1}, n.venues)
}

func TestAdmit_CustomWindow(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4)
	store.AddReservation(1, 4, evening, domain.ReservationApproved)

	svc := admission.New(store, store, admission.Config{Window: 30 * time.Minute},
		admission.WithLogger(quietLogger()))

	_, err := svc.Admit(context.Background(), admission.Request{
		VenueID:         1,
		GuestsCount:     4,
		ReservationTime: at(18, 30),
	})
	require.NoError(t, err)
}

func TestAvailability(t *testing.T) {
	store := admissiontest.NewMemStore()
	store.AddVenue(1, 4, 4)
	store.AddReservation(1, 3, evening, domain.ReservationApproved)
	store.AddReservation(1, 2, evening, domain.ReservationDeclined)

	svc := newService(store)

	got, err := svc.Availability(context.Background(), 1, *at(19, 0))
	require.NoError(t, err)

	assert.Equal(t, 8, got.Capacity)
	assert.Equal(t, 3, got.Occupied)
	assert.Equal(t, 5, got.Available)
	assert.Equal(t, *at(17, 0), got.WindowStart)
	assert.Equal(t, *at(21, 0), got.WindowEnd)

	_, err = svc.Availability(context.Background(), 9, *at(19, 0))
	require.ErrorIs(t, err, admission.ErrVenueUnavailable)
}

func TestWindow(t *testing.T) {
	from, to := admission.Window(evening, admission.DefaultWindow)
	assert.Equal(t, evening.Add(-2*time.Hour), from)
	assert.Equal(t, evening.Add(2*time.Hour), to)
}
