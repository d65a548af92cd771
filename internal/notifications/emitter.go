package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/pkg/eventbus"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// Subjects published by the platform. Downstream consumers (email, SMS,
// push workers) subscribe to these.
const (
	SubjectBookingConfirmed  = "bookings.confirmed"
	SubjectBookingCancelled  = "bookings.cancelled"
	SubjectHiringConfirmed   = "hirings.confirmed"
	SubjectHiringCancelled   = "hirings.cancelled"
	SubjectPaymentSuccessful = "payments.successful"
	SubjectPaymentFailed     = "payments.failed"
	SubjectRefundProcessed   = "payments.refunded"
)

// event is the payload published for every notification
type event struct {
	UserID        uuid.UUID      `json:"user_id"`
	ReservationID uuid.UUID      `json:"reservation_id"`
	Details       map[string]any `json:"details,omitempty"`
}

// Emitter publishes reservation lifecycle events on the event bus. Delivery
// is fire-and-forget: a publish failure is logged and never blocks or fails
// the operation that triggered it.
type Emitter struct {
	bus *eventbus.Bus
}

// NewEmitter creates a new notifications emitter
func NewEmitter(bus *eventbus.Bus) *Emitter {
	return &Emitter{bus: bus}
}

func (e *Emitter) emit(ctx context.Context, subject string, userID, reservationID uuid.UUID, details map[string]any) {
	if e == nil || e.bus == nil {
		return
	}
	err := e.bus.Publish(ctx, subject, event{
		UserID:        userID,
		ReservationID: reservationID,
		Details:       details,
	})
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to publish notification",
			zap.String("subject", subject),
			zap.String("reservation_id", reservationID.String()),
			zap.Error(err))
	}
}

// BookingConfirmed announces that a booking reached confirmed status
func (e *Emitter) BookingConfirmed(ctx context.Context, userID, bookingID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectBookingConfirmed, userID, bookingID, payload)
}

// BookingCancelled announces that a booking was cancelled
func (e *Emitter) BookingCancelled(ctx context.Context, userID, bookingID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectBookingCancelled, userID, bookingID, payload)
}

// HiringConfirmed announces that a hiring reached confirmed status
func (e *Emitter) HiringConfirmed(ctx context.Context, userID, hiringID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectHiringConfirmed, userID, hiringID, payload)
}

// HiringCancelled announces that a hiring was cancelled
func (e *Emitter) HiringCancelled(ctx context.Context, userID, hiringID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectHiringCancelled, userID, hiringID, payload)
}

// PaymentSuccessful announces a verified gateway payment
func (e *Emitter) PaymentSuccessful(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectPaymentSuccessful, userID, reservationID, payload)
}

// PaymentFailed announces a declined gateway payment
func (e *Emitter) PaymentFailed(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectPaymentFailed, userID, reservationID, payload)
}

// RefundProcessed announces a refund credited back to the customer
func (e *Emitter) RefundProcessed(ctx context.Context, userID, reservationID uuid.UUID, payload map[string]any) {
	e.emit(ctx, SubjectRefundProcessed, userID, reservationID, payload)
}
