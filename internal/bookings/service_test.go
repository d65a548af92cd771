package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/internal/availability"
	"github.com/richxcame/bus-booking/internal/fares"
	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/internal/history"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
)

// store backs both the fake repository and the fake checker so a created
// booking's seats immediately count as occupied for the next request
type store struct {
	bookings map[uuid.UUID]*Booking
}

func newStore() *store {
	return &store{bookings: make(map[uuid.UUID]*Booking)}
}

type fakeRepo struct{ s *store }

func (f *fakeRepo) Create(_ context.Context, b *Booking) error {
	for _, existing := range f.s.bookings {
		if !existing.Status.Active() || existing.BusID != b.BusID {
			continue
		}
		for _, seat := range b.OutboundSeats {
			if existing.DepartureAt.Equal(b.DepartureAt) {
				for _, taken := range existing.OutboundSeats {
					if seat == taken {
						return common.NewConflictError(common.CodeSeatConflict,
							"one or more seats were booked by a concurrent request", nil)
					}
				}
			}
		}
	}
	copied := *b
	f.s.bookings[b.ID] = &copied
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := f.s.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepo) GetByReference(_ context.Context, ref string) (*Booking, error) {
	for _, b := range f.s.bookings {
		if b.Reference == ref {
			copied := *b
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*Booking, int64, error) {
	var out []*Booking
	for _, b := range f.s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	if b, ok := f.s.bookings[id]; ok {
		b.Status = status
	}
	return nil
}

func (f *fakeRepo) UpdateTotalFare(_ context.Context, id uuid.UUID, fare float64) error {
	if b, ok := f.s.bookings[id]; ok {
		b.TotalFare = fare
	}
	return nil
}

type fakeChecker struct {
	s           *store
	hiringHolds []availability.Window
}

func (f *fakeChecker) CheckSeats(_ context.Context, busID uuid.UUID, departureAt time.Time, seats []string, _ *uuid.UUID) (*availability.Result, error) {
	result := &availability.Result{Available: true}
	for _, b := range f.s.bookings {
		if b.BusID != busID || !b.Status.Active() || !b.DepartureAt.Equal(departureAt) {
			continue
		}
		for _, seat := range seats {
			for _, taken := range b.OutboundSeats {
				if seat == taken {
					result.ConflictingSeats = append(result.ConflictingSeats, seat)
					result.ConflictingReservations = append(result.ConflictingReservations,
						availability.ConflictRef{Type: "booking", ID: b.ID, Reference: b.Reference})
				}
			}
		}
	}
	result.Available = len(result.ConflictingSeats) == 0
	return result, nil
}

func (f *fakeChecker) CheckBusForBooking(_ context.Context, _ uuid.UUID, departureAt time.Time) (*availability.Result, error) {
	for _, w := range f.hiringHolds {
		if w.Contains(departureAt) {
			return &availability.Result{
				Available: false,
				ConflictingReservations: []availability.ConflictRef{
					{Type: "hiring", ID: uuid.New(), Reference: "HR-HOLD"},
				},
			}, nil
		}
	}
	return &availability.Result{Available: true}, nil
}

type fakeSeatHolder struct{}

func (fakeSeatHolder) HoldSeats(context.Context, uuid.UUID, time.Time, []string, string) error {
	return nil
}
func (fakeSeatHolder) ReleaseSeats(context.Context, uuid.UUID, time.Time, []string, string) {}

type fakeFleet struct {
	buses  map[uuid.UUID]*fleet.Bus
	routes map[uuid.UUID]*fleet.Route
}

func (f *fakeFleet) GetBus(_ context.Context, id uuid.UUID) (*fleet.Bus, error) {
	if b, ok := f.buses[id]; ok {
		return b, nil
	}
	return nil, common.NewNotFoundError("bus not found", nil)
}

func (f *fakeFleet) GetRoute(_ context.Context, id uuid.UUID) (*fleet.Route, error) {
	if r, ok := f.routes[id]; ok {
		return r, nil
	}
	return nil, common.NewNotFoundError("route not found", nil)
}

type fakeLedger struct {
	ledgers map[uuid.UUID]*ledger.Ledger
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{ledgers: make(map[uuid.UUID]*ledger.Ledger)}
}

func (f *fakeLedger) get(id uuid.UUID) *ledger.Ledger {
	l, ok := f.ledgers[id]
	if !ok {
		l = &ledger.Ledger{}
		f.ledgers[id] = l
	}
	return l
}

func (f *fakeLedger) Get(_ context.Context, _ ledger.ReservationType, id uuid.UUID, totalDue float64) (*ledger.Ledger, ledger.Summary, error) {
	l := f.get(id)
	return l, l.Summarize(totalDue), nil
}

func (f *fakeLedger) RecordPayment(_ context.Context, _ ledger.ReservationType, id uuid.UUID, totalDue float64, p ledger.Payment) (ledger.Summary, error) {
	l := f.get(id)
	if err := l.AddPayment(p, totalDue); err != nil {
		return ledger.Summary{}, err
	}
	return l.Summarize(totalDue), nil
}

func (f *fakeLedger) RecordRefund(_ context.Context, _ ledger.ReservationType, id uuid.UUID, totalDue float64, rf ledger.Refund) (ledger.Summary, error) {
	l := f.get(id)
	if err := l.AddRefund(rf); err != nil {
		return ledger.Summary{}, err
	}
	return l.Summarize(totalDue), nil
}

type fakeHistory struct {
	entries []*history.Entry
}

func (f *fakeHistory) Append(_ context.Context, e *history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) List(_ context.Context, _ string, id uuid.UUID) ([]*history.Entry, error) {
	var out []*history.Entry
	for _, e := range f.entries {
		if e.ReservationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	confirmed []uuid.UUID
	cancelled []uuid.UUID
	refunded  []uuid.UUID
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, _, id uuid.UUID, _ map[string]any) {
	f.confirmed = append(f.confirmed, id)
}
func (f *fakeNotifier) BookingCancelled(_ context.Context, _, id uuid.UUID, _ map[string]any) {
	f.cancelled = append(f.cancelled, id)
}
func (f *fakeNotifier) RefundProcessed(_ context.Context, _, id uuid.UUID, _ map[string]any) {
	f.refunded = append(f.refunded, id)
}

type testEnv struct {
	svc      *Service
	store    *store
	checker  *fakeChecker
	fleet    *fakeFleet
	ledger   *fakeLedger
	history  *fakeHistory
	notifier *fakeNotifier
	routeID  uuid.UUID
	busID    uuid.UUID
}

func newTestEnv() *testEnv {
	s := newStore()
	busID := uuid.New()
	routeID := uuid.New()

	env := &testEnv{
		store:   s,
		checker: &fakeChecker{s: s},
		fleet: &fakeFleet{
			buses: map[uuid.UUID]*fleet.Bus{
				busID: {ID: busID, Capacity: 4, Status: fleet.BusStatusActive},
			},
			routes: map[uuid.UUID]*fleet.Route{
				routeID: {
					ID: routeID, Source: "Lagos", Destination: "Abuja", BaseFare: 1000,
					OperatingDays: []time.Weekday{
						time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
						time.Thursday, time.Friday, time.Saturday,
					},
					DepartureTime: "12:00", ArrivalTime: "18:00",
					BusID: busID, IsActive: true,
				},
			},
		},
		ledger:   newFakeLedger(),
		history:  &fakeHistory{},
		notifier: &fakeNotifier{},
		routeID:  routeID,
		busID:    busID,
	}
	env.svc = NewService(
		&fakeRepo{s: s}, env.fleet, env.checker, fakeSeatHolder{},
		fares.NewCalculator(nil), env.ledger, env.history, env.notifier,
	)
	return env
}

// Tuesday, off-peak at the route's 12:00 departure
var departureDate = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

func validRequest(routeID uuid.UUID) *CreateBookingRequest {
	return &CreateBookingRequest{
		RouteID:       routeID,
		Type:          TypeOneWay,
		DepartureDate: departureDate,
		Passengers: []Passenger{
			{Name: "Ada Obi", Age: 34, Type: fares.PassengerAdult, SeatNumber: "A1"},
			{Name: "Emeka Obi", Age: 8, Type: fares.PassengerChild, SeatNumber: "A2"},
		},
		Seats: []string{"A1", "A2"},
	}
}

func TestCreate_PendingWithComputedFare(t *testing.T) {
	env := newTestEnv()

	b, err := env.svc.Create(context.Background(), uuid.New(), validRequest(env.routeID))

	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	// adult 1000 + child 500 at an off-peak weekday departure
	assert.Equal(t, 1500.0, b.TotalFare)
	assert.Equal(t, time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC), b.DepartureAt)
	assert.NotEmpty(t, b.Reference)
	require.Len(t, env.history.entries, 1)
}

func TestCreate_SecondBookingForSameSeatRejected(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Create(context.Background(), uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	req := validRequest(env.routeID)
	req.Passengers = []Passenger{{Name: "Tunde Alabi", Age: 40, Type: fares.PassengerAdult, SeatNumber: "A1"}}
	req.Seats = []string{"A1"}

	_, err = env.svc.Create(context.Background(), uuid.New(), req)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeSeatConflict))
}

func TestCreate_DifferentDepartureSameSeatAllowed(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Create(context.Background(), uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	req := validRequest(env.routeID)
	req.DepartureDate = departureDate.Add(24 * time.Hour)

	_, err = env.svc.Create(context.Background(), uuid.New(), req)

	assert.NoError(t, err, "the same seat on a different departure is a different resource")
}

func TestCreate_HiredOutBusRejected(t *testing.T) {
	env := newTestEnv()
	env.checker.hiringHolds = []availability.Window{{
		Start: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}}

	_, err := env.svc.Create(context.Background(), uuid.New(), validRequest(env.routeID))

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeBusUnavailable))
}

func TestCreate_ValidationFailures(t *testing.T) {
	env := newTestEnv()

	t.Run("seat passenger mismatch", func(t *testing.T) {
		req := validRequest(env.routeID)
		req.Seats = []string{"A1", "A3"}
		_, err := env.svc.Create(context.Background(), uuid.New(), req)
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeValidation))
	})

	t.Run("round trip without return date", func(t *testing.T) {
		req := validRequest(env.routeID)
		req.Type = TypeRoundTrip
		req.ReturnSeats = []string{"B1", "B2"}
		_, err := env.svc.Create(context.Background(), uuid.New(), req)
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeValidation))
	})

	t.Run("exceeds capacity", func(t *testing.T) {
		req := validRequest(env.routeID)
		req.Passengers = []Passenger{
			{Name: "P1", Age: 30, Type: fares.PassengerAdult, SeatNumber: "A1"},
			{Name: "P2", Age: 30, Type: fares.PassengerAdult, SeatNumber: "A2"},
			{Name: "P3", Age: 30, Type: fares.PassengerAdult, SeatNumber: "A3"},
			{Name: "P4", Age: 30, Type: fares.PassengerAdult, SeatNumber: "A4"},
			{Name: "P5", Age: 30, Type: fares.PassengerAdult, SeatNumber: "B1"},
		}
		req.Seats = []string{"A1", "A2", "A3", "A4", "B1"}
		_, err := env.svc.Create(context.Background(), uuid.New(), req)
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.CodeValidation))
	})
}

func TestCreate_RoundTripChecksBothLegs(t *testing.T) {
	env := newTestEnv()

	req := validRequest(env.routeID)
	req.Type = TypeRoundTrip
	returnDate := departureDate.Add(48 * time.Hour)
	req.ReturnDate = &returnDate
	req.Passengers[0].ReturnSeatNumber = "B1"
	req.Passengers[1].ReturnSeatNumber = "B2"
	req.ReturnSeats = []string{"B1", "B2"}

	b, err := env.svc.Create(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	require.NotNil(t, b.ReturnAt)
	// round trip doubles per-passenger fares: (1000 + 500) * 2
	assert.Equal(t, 3000.0, b.TotalFare)
}

func TestApplyPayment_FullPaymentConfirms(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.svc.Create(ctx, uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	b, summary, err := env.svc.ApplyPayment(ctx, b.ID, ledger.Payment{
		Amount: 1500, Currency: "NGN", Method: "card", TransactionRef: "tx-1",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, ledger.PaymentStatusPaid, summary.PaymentStatus)
	assert.Contains(t, env.notifier.confirmed, b.ID)
}

func TestApplyPayment_PartialPaymentStaysPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.svc.Create(ctx, uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	b, summary, err := env.svc.ApplyPayment(ctx, b.ID, ledger.Payment{
		Amount: 700, TransactionRef: "tx-1",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, ledger.PaymentStatusPartiallyPaid, summary.PaymentStatus)
	assert.Empty(t, env.notifier.confirmed)
}

func TestApplyPayment_OverpaymentRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.svc.Create(ctx, uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	_, _, err = env.svc.ApplyPayment(ctx, b.ID, ledger.Payment{
		Amount: 2000, TransactionRef: "tx-1",
	})

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeAmountExceedsBalance))
}

func TestCancel_RefundedWellBeforeDeparture(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()

	req := validRequest(env.routeID)
	// departure far enough out that the 100% tier applies
	req.DepartureDate = time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(24 * time.Hour)
	b, err := env.svc.Create(ctx, user, req)
	require.NoError(t, err)
	_, _, err = env.svc.ApplyPayment(ctx, b.ID, ledger.Payment{Amount: b.TotalFare, TransactionRef: "tx-1"})
	require.NoError(t, err)

	b, quote, err := env.svc.Cancel(ctx, b.ID, user, false, "change of plans")

	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, b.Status)
	assert.Equal(t, 100.0, quote.RefundPercentage)
	assert.Equal(t, b.TotalFare, quote.RefundAmount)
	assert.Contains(t, env.notifier.cancelled, b.ID)
	assert.Contains(t, env.notifier.refunded, b.ID)
}

func TestCancel_UserTooLateAdminOverrides(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()

	// pin the departure to exactly 6 hours from now
	target := time.Now().UTC().Add(6 * time.Hour)
	env.fleet.routes[env.routeID].DepartureTime = target.Format("15:04")
	req := validRequest(env.routeID)
	req.DepartureDate = target
	b, err := env.svc.Create(ctx, user, req)
	require.NoError(t, err)
	_, _, err = env.svc.ApplyPayment(ctx, b.ID, ledger.Payment{Amount: b.TotalFare, TransactionRef: "tx-1"})
	require.NoError(t, err)

	_, _, err = env.svc.Cancel(ctx, b.ID, user, false, "too late")
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeTooLateToCancel))

	b, quote, err := env.svc.Cancel(ctx, b.ID, uuid.New(), true, "admin exception")
	require.NoError(t, err)
	assert.Equal(t, 50.0, quote.RefundPercentage)
	assert.True(t, quote.AdminOverride)
	assert.Equal(t, StatusRefunded, b.Status)
}

func TestCancel_NothingPaidLandsOnCancelled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()

	req := validRequest(env.routeID)
	req.DepartureDate = time.Now().UTC().Add(10 * 24 * time.Hour)
	b, err := env.svc.Create(ctx, user, req)
	require.NoError(t, err)

	b, quote, err := env.svc.Cancel(ctx, b.ID, user, false, "never paid")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, 0.0, quote.RefundAmount)
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	admin := uuid.New()

	b, err := env.svc.Create(ctx, uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)

	b, err = env.svc.MarkCompleted(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)

	_, err = env.svc.MarkNoShow(ctx, b.ID, admin)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInvalidTransition))

	_, _, err = env.svc.Cancel(ctx, b.ID, admin, true, "oops")
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInvalidTransition))
}

func TestRecalculateFare_UsesCurrentRouteFare(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	b, err := env.svc.Create(ctx, uuid.New(), validRequest(env.routeID))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, b.TotalFare)

	env.fleet.routes[env.routeID].BaseFare = 2000

	b, err = env.svc.RecalculateFare(ctx, b.ID, uuid.New())

	require.NoError(t, err)
	// adult 2000 + child 1000
	assert.Equal(t, 3000.0, b.TotalFare)
}
