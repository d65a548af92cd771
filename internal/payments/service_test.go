package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/internal/bookings"
	"github.com/richxcame/bus-booking/internal/hiring"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
)

type fakeGateway struct {
	initResult   *InitializeResult
	initErr      error
	verifyResult *VerifyResult
	verifyErr    error
	initCalls    int
	verifyCalls  int
}

func (f *fakeGateway) Initialize(_ context.Context, _ string, _ int64, _ map[string]any) (*InitializeResult, error) {
	f.initCalls++
	return f.initResult, f.initErr
}

func (f *fakeGateway) Verify(_ context.Context, _ string) (*VerifyResult, error) {
	f.verifyCalls++
	return f.verifyResult, f.verifyErr
}

// fakeBookingService holds one booking and a real in-memory ledger so the
// payment flow exercises the actual derivation rules
type fakeBookingService struct {
	booking *bookings.Booking
	ledger  *ledger.Ledger
}

func (f *fakeBookingService) Get(_ context.Context, _ uuid.UUID) (*bookings.Booking, error) {
	return f.booking, nil
}

func (f *fakeBookingService) GetLedger(_ context.Context, _ uuid.UUID) (*ledger.Ledger, ledger.Summary, error) {
	return f.ledger, f.ledger.Summarize(f.booking.TotalFare), nil
}

func (f *fakeBookingService) ApplyPayment(_ context.Context, _ uuid.UUID, p ledger.Payment) (*bookings.Booking, ledger.Summary, error) {
	if err := f.ledger.AddPayment(p, f.booking.TotalFare); err != nil {
		return nil, ledger.Summary{}, err
	}
	summary := f.ledger.Summarize(f.booking.TotalFare)
	if summary.PaymentStatus == ledger.PaymentStatusPaid {
		f.booking.Status = bookings.StatusConfirmed
	}
	return f.booking, summary, nil
}

type nilHiringService struct{}

func (nilHiringService) Get(context.Context, uuid.UUID) (*hiring.Hiring, error) {
	return nil, common.NewNotFoundError("hiring not found", nil)
}
func (nilHiringService) GetLedger(context.Context, uuid.UUID) (*ledger.Ledger, ledger.Summary, error) {
	return nil, ledger.Summary{}, common.NewNotFoundError("hiring not found", nil)
}
func (nilHiringService) ApplyPayment(context.Context, uuid.UUID, ledger.Payment) (*hiring.Hiring, ledger.Summary, error) {
	return nil, ledger.Summary{}, common.NewNotFoundError("hiring not found", nil)
}

type fakeNotifier struct {
	successful int
	failed     int
}

func (f *fakeNotifier) PaymentSuccessful(context.Context, uuid.UUID, uuid.UUID, map[string]any) {
	f.successful++
}
func (f *fakeNotifier) PaymentFailed(context.Context, uuid.UUID, uuid.UUID, map[string]any) {
	f.failed++
}

func newBookingFixture(totalFare float64) *fakeBookingService {
	return &fakeBookingService{
		booking: &bookings.Booking{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Status:    bookings.StatusPending,
			TotalFare: totalFare,
		},
		ledger: &ledger.Ledger{},
	}
}

func TestInitialize_DefaultsToRemainingBalance(t *testing.T) {
	gateway := &fakeGateway{initResult: &InitializeResult{
		AuthorizationURL: "https://pay.example/abc",
		Reference:        "ps-ref-1",
	}}
	bookingSvc := newBookingFixture(1500)
	svc := NewService(gateway, bookingSvc, nilHiringService{}, &fakeNotifier{})

	resp, err := svc.Initialize(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ada@example.com", 0)

	require.NoError(t, err)
	assert.Equal(t, 1500.0, resp.Amount)
	assert.Equal(t, "ps-ref-1", resp.Reference)
	assert.Equal(t, "https://pay.example/abc", resp.AuthorizationURL)
}

func TestInitialize_RejectsSettledReservation(t *testing.T) {
	gateway := &fakeGateway{}
	bookingSvc := newBookingFixture(1000)
	require.NoError(t, bookingSvc.ledger.AddPayment(ledger.Payment{Amount: 1000, TransactionRef: "tx-0"}, 1000))
	svc := NewService(gateway, bookingSvc, nilHiringService{}, &fakeNotifier{})

	_, err := svc.Initialize(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ada@example.com", 0)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInvalidAmount))
	assert.Zero(t, gateway.initCalls)
}

func TestInitialize_RejectsOverpayment(t *testing.T) {
	gateway := &fakeGateway{}
	bookingSvc := newBookingFixture(1000)
	svc := NewService(gateway, bookingSvc, nilHiringService{}, &fakeNotifier{})

	_, err := svc.Initialize(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ada@example.com", 1500)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeAmountExceedsBalance))
}

func TestVerifyAndRecord_SuccessConvertsMinorUnits(t *testing.T) {
	gateway := &fakeGateway{verifyResult: &VerifyResult{
		Success:     true,
		AmountMinor: 150000,
		Currency:    "NGN",
		Channel:     "card",
		PaidAt:      time.Now().UTC(),
	}}
	bookingSvc := newBookingFixture(1500)
	notifier := &fakeNotifier{}
	svc := NewService(gateway, bookingSvc, nilHiringService{}, notifier)

	summary, err := svc.VerifyAndRecord(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ps-ref-1", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 1500.0, summary.TotalPaid)
	assert.Equal(t, ledger.PaymentStatusPaid, summary.PaymentStatus)
	assert.Equal(t, bookings.StatusConfirmed, bookingSvc.booking.Status)
	assert.Equal(t, 1, notifier.successful)
}

func TestVerifyAndRecord_DeclinedDistinctFromGatewayDown(t *testing.T) {
	bookingSvc := newBookingFixture(1500)
	notifier := &fakeNotifier{}

	declined := &fakeGateway{verifyResult: &VerifyResult{Success: false}}
	svc := NewService(declined, bookingSvc, nilHiringService{}, notifier)
	_, err := svc.VerifyAndRecord(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ps-ref-1", uuid.New())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodePaymentDeclined))
	assert.Equal(t, 1, notifier.failed)

	down := &fakeGateway{verifyErr: common.NewBadGatewayError("payment gateway unreachable", nil)}
	svc = NewService(down, bookingSvc, nilHiringService{}, notifier)
	_, err = svc.VerifyAndRecord(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ps-ref-1", uuid.New())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeGatewayUnavailable))

	assert.Equal(t, 0.0, bookingSvc.ledger.TotalPaid(), "no partial mutation on failure")
}

func TestVerifyAndRecord_RetriedReferenceIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{verifyResult: &VerifyResult{
		Success:     true,
		AmountMinor: 150000,
		Currency:    "NGN",
		Channel:     "card",
	}}
	bookingSvc := newBookingFixture(1500)
	notifier := &fakeNotifier{}
	svc := NewService(gateway, bookingSvc, nilHiringService{}, notifier)

	first, err := svc.VerifyAndRecord(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ps-ref-1", uuid.New())
	require.NoError(t, err)

	second, err := svc.VerifyAndRecord(context.Background(), ledger.ReservationBooking, bookingSvc.booking.ID, "ps-ref-1", uuid.New())
	require.NoError(t, err)

	assert.Equal(t, first, second, "a retried verification must not change the ledger")
	assert.Len(t, bookingSvc.ledger.Payments, 1)
	assert.Equal(t, 1, notifier.successful, "no duplicate success event")
}
