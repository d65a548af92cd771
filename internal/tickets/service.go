package tickets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/internal/bookings"
	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// RepositoryInterface abstracts verification persistence for testing
type RepositoryInterface interface {
	Append(ctx context.Context, v *Verification) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Verification, error)
}

// BookingService is the slice of the bookings API ticketing needs
type BookingService interface {
	GetByReference(ctx context.Context, reference string) (*bookings.Booking, error)
	GetLedger(ctx context.Context, bookingID uuid.UUID) (*ledger.Ledger, ledger.Summary, error)
}

// FleetService resolves routes for the ticket projection
type FleetService interface {
	GetRoute(ctx context.Context, routeID uuid.UUID) (*fleet.Route, error)
}

// Service exposes booking data for ticket issuance and records boarding
// verification callbacks
type Service struct {
	repo     RepositoryInterface
	bookings BookingService
	fleet    FleetService
}

// NewService creates a new tickets service
func NewService(repo RepositoryInterface, bookingSvc BookingService, fleetSvc FleetService) *Service {
	return &Service{repo: repo, bookings: bookingSvc, fleet: fleetSvc}
}

// IssueData builds the ticket projection for a paid booking. The booking
// must be confirmed with its ledger fully settled.
func (s *Service) IssueData(ctx context.Context, reference string) (*TicketData, error) {
	b, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	_, summary, err := s.bookings.GetLedger(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if summary.PaymentStatus != ledger.PaymentStatusPaid {
		return nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			"tickets are only issued for fully paid bookings")
	}

	route, err := s.fleet.GetRoute(ctx, b.RouteID)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"reference":    b.Reference,
		"departure_at": b.DepartureAt,
		"seats":        b.OutboundSeats,
	})

	return &TicketData{
		BookingID:   b.ID,
		Reference:   b.Reference,
		Source:      route.Source,
		Destination: route.Destination,
		DepartureAt: b.DepartureAt,
		ReturnAt:    b.ReturnAt,
		Passengers:  b.Passengers,
		Seats:       b.OutboundSeats,
		ReturnSeats: b.ReturnSeats,
		TotalFare:   b.TotalFare,
		Payload:     base64.StdEncoding.EncodeToString(payload),
	}, nil
}

// Verify records a boarding scan for the ticket with the given reference.
// Every scan appends a record regardless of outcome; the history is never
// rewritten.
func (s *Service) Verify(ctx context.Context, reference string, verifiedBy uuid.UUID, notes string) (*Verification, error) {
	result := ResultValid
	var bookingID uuid.UUID

	b, err := s.bookings.GetByReference(ctx, reference)
	switch {
	case err != nil && common.IsCode(err, common.CodeNotFound):
		result = ResultInvalid
	case err != nil:
		return nil, err
	default:
		bookingID = b.ID
		if b.Status != bookings.StatusConfirmed {
			result = ResultNotPaid
		} else {
			prior, err := s.repo.ListByBooking(ctx, b.ID)
			if err != nil {
				return nil, common.NewInternalError("failed to load verification history", err)
			}
			for _, v := range prior {
				if v.Result == ResultValid {
					result = ResultAlreadyUsed
					break
				}
			}
		}
	}

	v := &Verification{
		ID:         uuid.New(),
		BookingID:  bookingID,
		Reference:  reference,
		Result:     result,
		VerifiedBy: verifiedBy,
		VerifiedAt: time.Now().UTC(),
		Notes:      notes,
	}
	if err := s.repo.Append(ctx, v); err != nil {
		return nil, common.NewInternalError("failed to record verification", err)
	}

	logger.WithContext(ctx).Info("Ticket verified",
		zap.String("reference", reference),
		zap.String("result", string(result)),
		zap.String("verified_by", verifiedBy.String()))

	return v, nil
}

// History returns all verification records for a booking
func (s *Service) History(ctx context.Context, bookingID uuid.UUID) ([]*Verification, error) {
	verifications, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, common.NewInternalError("failed to load verification history", err)
	}
	return verifications, nil
}
