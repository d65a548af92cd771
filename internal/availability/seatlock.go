package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
	"github.com/richxcame/bus-booking/pkg/redis"
)

const seatHoldTTL = 2 * time.Minute

// SeatLocker places short-lived holds on seats while a booking request is in
// flight. It is a fast-path guard against two requests racing for the same
// seat between the availability check and the insert; the partial unique
// index on booking_seats remains the final arbiter.
type SeatLocker struct {
	redis *redis.Client
}

// NewSeatLocker creates a new seat locker
func NewSeatLocker(client *redis.Client) *SeatLocker {
	return &SeatLocker{redis: client}
}

func seatKey(busID uuid.UUID, departureAt time.Time, seat string) string {
	return fmt.Sprintf("seathold:%s:%d:%s", busID, departureAt.UTC().Unix(), seat)
}

// HoldSeats acquires a hold on every requested seat. If any seat is already
// held by another request, all holds taken so far are released and the call
// fails with a seat conflict listing the contested seats.
func (l *SeatLocker) HoldSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, owner string) error {
	var held []string
	for _, seat := range seats {
		ok, err := l.redis.AcquireLock(ctx, seatKey(busID, departureAt, seat), owner, seatHoldTTL)
		if err != nil {
			l.release(ctx, busID, departureAt, held, owner)
			return common.NewInternalError("failed to acquire seat hold", err)
		}
		if !ok {
			l.release(ctx, busID, departureAt, held, owner)
			return common.NewConflictError(common.CodeSeatConflict,
				"seat is being booked by another request",
				map[string]string{"seat_number": seat})
		}
		held = append(held, seat)
	}
	return nil
}

// ReleaseSeats drops the holds owned by this request. Safe to call after a
// successful insert or on any failure path.
func (l *SeatLocker) ReleaseSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, owner string) {
	l.release(ctx, busID, departureAt, seats, owner)
}

func (l *SeatLocker) release(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, owner string) {
	for _, seat := range seats {
		if err := l.redis.ReleaseLock(ctx, seatKey(busID, departureAt, seat), owner); err != nil {
			logger.WithContext(ctx).Warn("Failed to release seat hold",
				zap.String("bus_id", busID.String()),
				zap.String("seat_number", seat),
				zap.Error(err))
		}
	}
}
