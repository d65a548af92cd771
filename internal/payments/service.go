package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/internal/bookings"
	"github.com/richxcame/bus-booking/internal/hiring"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
)

var (
	paymentsInitialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_initialized_total",
		Help: "Number of payment attempts initialized with the gateway",
	})
	paymentsVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_verified_total",
		Help: "Number of gateway verifications by outcome",
	}, []string{"outcome"})
)

// BookingService is the slice of the bookings API payments needs
type BookingService interface {
	Get(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
	GetLedger(ctx context.Context, bookingID uuid.UUID) (*ledger.Ledger, ledger.Summary, error)
	ApplyPayment(ctx context.Context, bookingID uuid.UUID, p ledger.Payment) (*bookings.Booking, ledger.Summary, error)
}

// HiringService is the slice of the hiring API payments needs
type HiringService interface {
	Get(ctx context.Context, hiringID uuid.UUID) (*hiring.Hiring, error)
	GetLedger(ctx context.Context, hiringID uuid.UUID) (*ledger.Ledger, ledger.Summary, error)
	ApplyPayment(ctx context.Context, hiringID uuid.UUID, p ledger.Payment) (*hiring.Hiring, ledger.Summary, error)
}

// Notifier emits payment outcome events
type Notifier interface {
	PaymentSuccessful(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any)
	PaymentFailed(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any)
}

// Service drives the pay-then-verify flow: it initializes a gateway charge
// for a reservation's remaining balance and, on callback, verifies the
// reference and records the payment in the reservation's ledger. The ledger
// append is keyed by the gateway reference, so a retried verification after
// a timeout can never record the money twice.
type Service struct {
	gateway  Gateway
	bookings BookingService
	hirings  HiringService
	notifier Notifier
}

// NewService creates a new payments service
func NewService(gateway Gateway, bookingSvc BookingService, hiringSvc HiringService, notifier Notifier) *Service {
	return &Service{
		gateway:  gateway,
		bookings: bookingSvc,
		hirings:  hiringSvc,
		notifier: notifier,
	}
}

// InitializeResponse is returned to the caller to complete payment
type InitializeResponse struct {
	AuthorizationURL string  `json:"authorization_url"`
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// Initialize starts a gateway charge for the reservation's remaining balance
func (s *Service) Initialize(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, email string, amount float64) (*InitializeResponse, error) {
	_, summary, err := s.reservationLedger(ctx, resType, resID)
	if err != nil {
		return nil, err
	}

	if amount <= 0 {
		amount = summary.RemainingBalance
	}
	if amount <= 0 {
		return nil, common.NewUnprocessableError(common.CodeInvalidAmount, "reservation has no outstanding balance")
	}
	if amount > summary.RemainingBalance {
		return nil, common.NewUnprocessableError(common.CodeAmountExceedsBalance,
			"amount exceeds the reservation's remaining balance")
	}

	result, err := s.gateway.Initialize(ctx, email, common.MajorToMinor(amount), map[string]any{
		"reservation_type": string(resType),
		"reservation_id":   resID.String(),
	})
	if err != nil {
		return nil, err
	}
	paymentsInitialized.Inc()

	logger.WithContext(ctx).Info("Payment initialized",
		zap.String("reservation_type", string(resType)),
		zap.String("reservation_id", resID.String()),
		zap.String("gateway_reference", result.Reference),
		zap.Float64("amount", amount))

	return &InitializeResponse{
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
		Amount:           amount,
		RemainingBalance: summary.RemainingBalance,
	}, nil
}

// VerifyAndRecord verifies a gateway reference and records the payment in
// the reservation's ledger. Verifying an already-recorded reference is a
// no-op that returns the current summary.
func (s *Service) VerifyAndRecord(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, reference string, actor uuid.UUID) (ledger.Summary, error) {
	userID, err := s.reservationOwner(ctx, resType, resID)
	if err != nil {
		return ledger.Summary{}, err
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		// gateway unreachable: the reservation stays as it was
		return ledger.Summary{}, err
	}

	if !result.Success {
		paymentsVerified.WithLabelValues("declined").Inc()
		s.notifier.PaymentFailed(ctx, userID, resID, map[string]any{
			"gateway_reference": reference,
		})
		return ledger.Summary{}, common.NewUnprocessableError(common.CodePaymentDeclined,
			"payment was declined by the gateway")
	}

	payment := ledger.Payment{
		Amount:         common.MinorToMajor(result.AmountMinor),
		Currency:       result.Currency,
		Method:         result.Channel,
		TransactionRef: reference,
		ProcessedBy:    actor,
	}

	summary, err := s.applyPayment(ctx, resType, resID, payment)
	if err != nil {
		if common.IsCode(err, common.CodeDuplicateTransaction) {
			// a retried verification after a timeout: already recorded
			paymentsVerified.WithLabelValues("duplicate").Inc()
			logger.WithContext(ctx).Info("Payment reference already recorded",
				zap.String("gateway_reference", reference))
			_, current, lerr := s.reservationLedger(ctx, resType, resID)
			return current, lerr
		}
		return ledger.Summary{}, err
	}
	paymentsVerified.WithLabelValues("success").Inc()

	s.notifier.PaymentSuccessful(ctx, userID, resID, map[string]any{
		"gateway_reference": reference,
		"amount":            payment.Amount,
		"payment_status":    string(summary.PaymentStatus),
	})

	return summary, nil
}

func (s *Service) reservationLedger(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID) (*ledger.Ledger, ledger.Summary, error) {
	switch resType {
	case ledger.ReservationBooking:
		return s.bookings.GetLedger(ctx, resID)
	case ledger.ReservationHiring:
		return s.hirings.GetLedger(ctx, resID)
	default:
		return nil, ledger.Summary{}, common.NewBadRequestError("unknown reservation type: "+string(resType), nil)
	}
}

func (s *Service) reservationOwner(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID) (uuid.UUID, error) {
	switch resType {
	case ledger.ReservationBooking:
		b, err := s.bookings.Get(ctx, resID)
		if err != nil {
			return uuid.Nil, err
		}
		return b.UserID, nil
	case ledger.ReservationHiring:
		h, err := s.hirings.Get(ctx, resID)
		if err != nil {
			return uuid.Nil, err
		}
		return h.UserID, nil
	default:
		return uuid.Nil, common.NewBadRequestError("unknown reservation type: "+string(resType), nil)
	}
}

func (s *Service) applyPayment(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, p ledger.Payment) (ledger.Summary, error) {
	switch resType {
	case ledger.ReservationBooking:
		_, summary, err := s.bookings.ApplyPayment(ctx, resID, p)
		return summary, err
	case ledger.ReservationHiring:
		_, summary, err := s.hirings.ApplyPayment(ctx, resID, p)
		return summary, err
	default:
		return ledger.Summary{}, common.NewBadRequestError("unknown reservation type: "+string(resType), nil)
	}
}
