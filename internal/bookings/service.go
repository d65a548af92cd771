package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/internal/availability"
	"github.com/richxcame/bus-booking/internal/cancellation"
	"github.com/richxcame/bus-booking/internal/fares"
	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/internal/history"
	"github.com/richxcame/bus-booking/internal/ledger"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// RepositoryInterface abstracts booking persistence for testing
type RepositoryInterface interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, int64, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status Status) error
	UpdateTotalFare(ctx context.Context, bookingID uuid.UUID, totalFare float64) error
}

// FleetService resolves routes and buses
type FleetService interface {
	GetBus(ctx context.Context, busID uuid.UUID) (*fleet.Bus, error)
	GetRoute(ctx context.Context, routeID uuid.UUID) (*fleet.Route, error)
}

// AvailabilityChecker answers seat and bus conflict queries
type AvailabilityChecker interface {
	CheckSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, exclude *uuid.UUID) (*availability.Result, error)
	CheckBusForBooking(ctx context.Context, busID uuid.UUID, departureAt time.Time) (*availability.Result, error)
}

// SeatHolder places short-lived holds on seats while the insert is in flight
type SeatHolder interface {
	HoldSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, owner string) error
	ReleaseSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, owner string)
}

// LedgerService records money movements against the booking
type LedgerService interface {
	Get(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64) (*ledger.Ledger, ledger.Summary, error)
	RecordPayment(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64, p ledger.Payment) (ledger.Summary, error)
	RecordRefund(ctx context.Context, resType ledger.ReservationType, resID uuid.UUID, totalDue float64, rf ledger.Refund) (ledger.Summary, error)
}

// Notifier emits reservation events
type Notifier interface {
	BookingConfirmed(ctx context.Context, userID, bookingID uuid.UUID, payload map[string]any)
	BookingCancelled(ctx context.Context, userID, bookingID uuid.UUID, payload map[string]any)
	RefundProcessed(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any)
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusRefunded, StatusCompleted, StatusNoShow},
	StatusConfirmed: {StatusCancelled, StatusRefunded, StatusCompleted, StatusNoShow},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Service handles booking business logic
type Service struct {
	repo     RepositoryInterface
	fleet    FleetService
	checker  AvailabilityChecker
	seats    SeatHolder
	fares    *fares.Calculator
	ledger   LedgerService
	history  history.RepositoryInterface
	notifier Notifier
}

// NewService creates a new bookings service
func NewService(
	repo RepositoryInterface,
	fleetSvc FleetService,
	checker AvailabilityChecker,
	seats SeatHolder,
	calculator *fares.Calculator,
	ledgerSvc LedgerService,
	historyRepo history.RepositoryInterface,
	notifier Notifier,
) *Service {
	return &Service{
		repo:     repo,
		fleet:    fleetSvc,
		checker:  checker,
		seats:    seats,
		fares:    calculator,
		ledger:   ledgerSvc,
		history:  historyRepo,
		notifier: notifier,
	}
}

// Create validates a booking request, checks availability for every leg,
// prices it and persists it in Pending with its seats held
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateBookingRequest) (*Booking, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	route, err := s.fleet.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}
	if !route.IsActive {
		return nil, common.NewBadRequestError("route is no longer on sale", nil)
	}
	if !route.OperatesOn(req.DepartureDate.UTC().Weekday()) {
		return nil, common.NewBadRequestError("route does not operate on the requested departure day", nil)
	}

	bus, err := s.fleet.GetBus(ctx, route.BusID)
	if err != nil {
		return nil, err
	}
	if !bus.Status.Assignable() {
		return nil, common.NewConflictError(common.CodeBusUnavailable,
			"bus is not in service",
			map[string]string{"bus_id": bus.ID.String(), "status": string(bus.Status)})
	}

	passengerSeats := make([]string, 0, len(req.Passengers))
	passengerTypes := make([]fares.PassengerType, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengerSeats = append(passengerSeats, p.SeatNumber)
		passengerTypes = append(passengerTypes, p.Type)
	}
	if err := availability.ValidateSeatSelection(req.Seats, passengerSeats, bus.Capacity); err != nil {
		return nil, err
	}

	departureAt := route.DepartureAt(req.DepartureDate)
	var returnAt *time.Time
	if req.Type == TypeRoundTrip {
		returnSeats := make([]string, 0, len(req.Passengers))
		for _, p := range req.Passengers {
			returnSeats = append(returnSeats, p.ReturnSeatNumber)
		}
		if err := availability.ValidateSeatSelection(req.ReturnSeats, returnSeats, bus.Capacity); err != nil {
			return nil, err
		}
		at := route.DepartureAt(*req.ReturnDate)
		returnAt = &at
	}

	if err := s.checkLeg(ctx, bus.ID, departureAt, req.Seats); err != nil {
		return nil, err
	}
	if returnAt != nil {
		if err := s.checkLeg(ctx, bus.ID, *returnAt, req.ReturnSeats); err != nil {
			return nil, err
		}
	}

	totalFare, err := s.fares.TotalFare(route, passengerTypes, fares.Options{
		DepartureAt:  departureAt,
		IsHoliday:    req.IsHoliday,
		RoundTrip:    req.Type == TypeRoundTrip,
		PromoPercent: req.PromoPercent,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &Booking{
		ID:            uuid.New(),
		Reference:     common.GenerateReference("BK"),
		UserID:        userID,
		RouteID:       route.ID,
		BusID:         bus.ID,
		Type:          req.Type,
		Status:        StatusPending,
		Passengers:    req.Passengers,
		DepartureAt:   departureAt,
		ReturnAt:      returnAt,
		OutboundSeats: req.Seats,
		ReturnSeats:   req.ReturnSeats,
		IsHoliday:     req.IsHoliday,
		PromoPercent:  req.PromoPercent,
		TotalFare:     totalFare,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	owner := b.ID.String()
	if err := s.seats.HoldSeats(ctx, bus.ID, departureAt, req.Seats, owner); err != nil {
		return nil, err
	}
	defer s.seats.ReleaseSeats(ctx, bus.ID, departureAt, req.Seats, owner)
	if returnAt != nil {
		if err := s.seats.HoldSeats(ctx, bus.ID, *returnAt, req.ReturnSeats, owner); err != nil {
			return nil, err
		}
		defer s.seats.ReleaseSeats(ctx, bus.ID, *returnAt, req.ReturnSeats, owner)
	}

	if err := s.repo.Create(ctx, b); err != nil {
		if common.IsCode(err, common.CodeSeatConflict) {
			return nil, err
		}
		return nil, common.NewInternalError("failed to create booking", err)
	}
	s.appendHistory(ctx, b.ID, StatusPending, userID, "booking created")

	logger.WithContext(ctx).Info("Booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("reference", b.Reference),
		zap.Int("passengers", len(b.Passengers)),
		zap.Float64("total_fare", b.TotalFare))

	return b, nil
}

func (s *Service) checkLeg(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string) error {
	busResult, err := s.checker.CheckBusForBooking(ctx, busID, departureAt)
	if err != nil {
		return err
	}
	if !busResult.Available {
		return common.NewConflictError(common.CodeBusUnavailable,
			"bus is hired out over the requested departure", conflictDetails(busResult))
	}

	seatResult, err := s.checker.CheckSeats(ctx, busID, departureAt, seats, nil)
	if err != nil {
		return err
	}
	if !seatResult.Available {
		return common.NewConflictError(common.CodeSeatConflict,
			"seats are already taken: "+strings.Join(seatResult.ConflictingSeats, ", "),
			conflictDetails(seatResult))
	}
	return nil
}

// Get fetches a booking by id
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		if IsNotFound(err) {
			return nil, common.NewNotFoundError("booking not found", err)
		}
		return nil, common.NewInternalError("failed to get booking", err)
	}
	return b, nil
}

// GetByReference fetches a booking by reference
func (s *Service) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	b, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if IsNotFound(err) {
			return nil, common.NewNotFoundError("booking not found", err)
		}
		return nil, common.NewInternalError("failed to get booking", err)
	}
	return b, nil
}

// ListByUser lists a user's bookings
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, int64, error) {
	bookings, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list bookings", err)
	}
	return bookings, total, nil
}

// ApplyPayment records a payment against the booking's ledger. A pending
// booking auto-advances to confirmed once fully paid.
func (s *Service) ApplyPayment(ctx context.Context, bookingID uuid.UUID, p ledger.Payment) (*Booking, ledger.Summary, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	if !b.Status.Active() {
		return nil, ledger.Summary{}, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot record payment on a %s booking", b.Status))
	}

	summary, err := s.ledger.RecordPayment(ctx, ledger.ReservationBooking, bookingID, b.TotalFare, p)
	if err != nil {
		return nil, ledger.Summary{}, err
	}

	if summary.PaymentStatus == ledger.PaymentStatusPaid && b.Status == StatusPending {
		b, err = s.transition(ctx, bookingID, StatusConfirmed, p.ProcessedBy, "fully paid")
		if err != nil {
			return nil, summary, err
		}
		s.notifier.BookingConfirmed(ctx, b.UserID, b.ID, map[string]any{
			"reference":  b.Reference,
			"total_fare": b.TotalFare,
		})
	}

	return b, summary, nil
}

// Cancel cancels an active booking. The refund is computed from the tiered
// schedule, recorded through the ledger, and the status lands on refunded or
// cancelled in the same logical operation.
func (s *Service) Cancel(ctx context.Context, bookingID, actor uuid.UUID, isAdmin bool, reason string) (*Booking, *cancellation.Quote, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !b.Status.Active() {
		return nil, nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot cancel a %s booking", b.Status))
	}

	_, summary, err := s.ledger.Get(ctx, ledger.ReservationBooking, bookingID, b.TotalFare)
	if err != nil {
		return nil, nil, err
	}

	quote, err := cancellation.QuoteBookingRefund(b.DepartureAt, time.Now().UTC(), summary.TotalPaid, isAdmin)
	if err != nil {
		return nil, nil, err
	}

	finalStatus := StatusCancelled
	if quote.RefundAmount > 0 {
		if _, err := s.ledger.RecordRefund(ctx, ledger.ReservationBooking, bookingID, b.TotalFare, ledger.Refund{
			Amount:         quote.RefundAmount,
			Reason:         reason,
			TransactionRef: common.GenerateReference("RF"),
		}); err != nil {
			return nil, nil, err
		}
		finalStatus = StatusRefunded
	}

	b, err = s.transition(ctx, bookingID, finalStatus, actor, reason)
	if err != nil {
		return nil, nil, err
	}

	s.notifier.BookingCancelled(ctx, b.UserID, b.ID, map[string]any{
		"reference":         b.Reference,
		"refund_amount":     quote.RefundAmount,
		"refund_percentage": quote.RefundPercentage,
	})
	if quote.RefundAmount > 0 {
		s.notifier.RefundProcessed(ctx, b.UserID, b.ID, map[string]any{
			"reference":     b.Reference,
			"refund_amount": quote.RefundAmount,
		})
	}

	return b, &quote, nil
}

// MarkCompleted records that the trip was taken (operational action)
func (s *Service) MarkCompleted(ctx context.Context, bookingID, actor uuid.UUID) (*Booking, error) {
	return s.guardedTransition(ctx, bookingID, StatusCompleted, actor, "trip completed")
}

// MarkNoShow records that the passengers did not board (operational action)
func (s *Service) MarkNoShow(ctx context.Context, bookingID, actor uuid.UUID) (*Booking, error) {
	return s.guardedTransition(ctx, bookingID, StatusNoShow, actor, "passengers did not board")
}

func (s *Service) guardedTransition(ctx context.Context, bookingID uuid.UUID, to Status, actor uuid.UUID, notes string) (*Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, to) {
		return nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot transition booking from %s to %s", b.Status, to))
	}
	return s.transition(ctx, bookingID, to, actor, notes)
}

// RecalculateFare reprices the booking from its stored inputs against the
// route's current base fare (admin operation)
func (s *Service) RecalculateFare(ctx context.Context, bookingID, actor uuid.UUID) (*Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.Active() {
		return nil, common.NewUnprocessableError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot reprice a %s booking", b.Status))
	}

	route, err := s.fleet.GetRoute(ctx, b.RouteID)
	if err != nil {
		return nil, err
	}

	passengerTypes := make([]fares.PassengerType, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		passengerTypes = append(passengerTypes, p.Type)
	}
	totalFare, err := s.fares.TotalFare(route, passengerTypes, fares.Options{
		DepartureAt:  b.DepartureAt,
		IsHoliday:    b.IsHoliday,
		RoundTrip:    b.Type == TypeRoundTrip,
		PromoPercent: b.PromoPercent,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTotalFare(ctx, bookingID, totalFare); err != nil {
		return nil, common.NewInternalError("failed to update booking fare", err)
	}

	logger.WithContext(ctx).Info("Booking fare recalculated",
		zap.String("booking_id", bookingID.String()),
		zap.String("actor", actor.String()),
		zap.Float64("old_fare", b.TotalFare),
		zap.Float64("new_fare", totalFare))

	b.TotalFare = totalFare
	return b, nil
}

// StatusHistory returns the audit trail for a booking
func (s *Service) StatusHistory(ctx context.Context, bookingID uuid.UUID) ([]*history.Entry, error) {
	entries, err := s.history.List(ctx, string(ledger.ReservationBooking), bookingID)
	if err != nil {
		return nil, common.NewInternalError("failed to load status history", err)
	}
	return entries, nil
}

// GetLedger returns the booking's ledger entries and derived summary
func (s *Service) GetLedger(ctx context.Context, bookingID uuid.UUID) (*ledger.Ledger, ledger.Summary, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	return s.ledger.Get(ctx, ledger.ReservationBooking, bookingID, b.TotalFare)
}

func (s *Service) transition(ctx context.Context, bookingID uuid.UUID, to Status, actor uuid.UUID, notes string) (*Booking, error) {
	b, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, bookingID, to); err != nil {
		return nil, common.NewInternalError("failed to update booking status", err)
	}
	s.appendHistory(ctx, bookingID, to, actor, notes)

	logger.WithContext(ctx).Info("Booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("from", string(b.Status)),
		zap.String("to", string(to)))

	b.Status = to
	return b, nil
}

func (s *Service) appendHistory(ctx context.Context, bookingID uuid.UUID, status Status, actor uuid.UUID, notes string) {
	if err := s.history.Append(ctx, &history.Entry{
		ReservationType: string(ledger.ReservationBooking),
		ReservationID:   bookingID,
		Status:          string(status),
		Actor:           actor,
		Notes:           notes,
	}); err != nil {
		logger.WithContext(ctx).Warn("Failed to append status history",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
	}
}

func validateRequest(req *CreateBookingRequest) error {
	fields := map[string]string{}

	if req.Type == TypeRoundTrip {
		if req.ReturnDate == nil {
			fields["return_date"] = "return_date is required for round trips"
		} else if !req.ReturnDate.After(req.DepartureDate) {
			fields["return_date"] = "return_date must be after departure_date"
		}
		if len(req.ReturnSeats) == 0 {
			fields["return_seats"] = "return_seats are required for round trips"
		}
	} else {
		if req.ReturnDate != nil {
			fields["return_date"] = "return_date is only valid for round trips"
		}
		if len(req.ReturnSeats) > 0 {
			fields["return_seats"] = "return_seats are only valid for round trips"
		}
	}

	if len(req.Seats) != len(req.Passengers) {
		fields["seats"] = "seat count must match passenger count"
	}

	if len(fields) > 0 {
		return common.NewValidationError("invalid booking request", fields)
	}
	return nil
}

func conflictDetails(result *availability.Result) map[string]string {
	details := make(map[string]string, len(result.ConflictingReservations))
	for _, ref := range result.ConflictingReservations {
		details[ref.ID.String()] = ref.Type + " " + ref.Reference
	}
	return details
}
