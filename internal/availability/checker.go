package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/pkg/common"
)

// RepositoryInterface abstracts the conflict queries the checker needs.
// Implementations must return only reservations in active states: Pending,
// Confirmed or In Progress for hirings; Pending or Confirmed for bookings.
type RepositoryInterface interface {
	ActiveHiringsOverlapping(ctx context.Context, busID uuid.UUID, window Window, exclude *uuid.UUID) ([]HiringHold, error)
	ActiveBookingsInWindow(ctx context.Context, busID uuid.UUID, window Window, exclude *uuid.UUID) ([]BookingHold, error)
	OccupiedSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, exclude *uuid.UUID) ([]SeatOccupancy, error)
}

// Checker answers whether a bus or a set of seats is free for a new
// reservation. Its answer is advisory: the database uniqueness constraints
// remain the authority when two requests race past the check.
type Checker struct {
	repo RepositoryInterface
}

// NewChecker creates a new availability checker
func NewChecker(repo RepositoryInterface) *Checker {
	return &Checker{repo: repo}
}

// ValidateSeatSelection checks a seat request against itself and the bus
// capacity before any conflict query runs. The requested seat list must be
// duplicate-free, must not exceed capacity, and must be set-equal to the
// seats assigned across the passenger list.
func ValidateSeatSelection(seats, passengerSeats []string, capacity int) error {
	fields := map[string]string{}

	seen := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if seen[seat] {
			fields["seats"] = fmt.Sprintf("duplicate seat number %q in request", seat)
			break
		}
		seen[seat] = true
	}

	if len(seats) > capacity {
		fields["seats"] = fmt.Sprintf("requested %d seats but bus capacity is %d", len(seats), capacity)
	}

	if !sameSeatSet(seats, passengerSeats) {
		fields["passengers"] = "passenger seat assignments must match the selected seats exactly"
	}

	if len(fields) > 0 {
		return common.NewValidationError("invalid seat selection", fields)
	}
	return nil
}

// CheckSeats determines whether every requested seat is free on the given
// bus at the exact departure timestamp. Occupied seats are the union of
// passenger seats across all other active bookings on that departure.
func (c *Checker) CheckSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, seats []string, exclude *uuid.UUID) (*Result, error) {
	occupied, err := c.repo.OccupiedSeats(ctx, busID, departureAt.UTC(), exclude)
	if err != nil {
		return nil, common.NewInternalError("failed to query occupied seats", err)
	}

	taken := make(map[string]SeatOccupancy, len(occupied))
	for _, o := range occupied {
		taken[o.SeatNumber] = o
	}

	result := &Result{Available: true}
	conflictRefs := make(map[uuid.UUID]ConflictRef)
	for _, seat := range seats {
		if o, ok := taken[seat]; ok {
			result.ConflictingSeats = append(result.ConflictingSeats, seat)
			conflictRefs[o.BookingID] = ConflictRef{Type: "booking", ID: o.BookingID, Reference: o.Reference}
		}
	}

	if len(result.ConflictingSeats) > 0 {
		result.Available = false
		sort.Strings(result.ConflictingSeats)
		for _, ref := range conflictRefs {
			result.ConflictingReservations = append(result.ConflictingReservations, ref)
		}
	}
	return result, nil
}

// CheckBusWindow determines whether a bus is free for exclusive hire over
// the given half-open window. Both other hirings and seat bookings on the
// bus count as conflicts.
func (c *Checker) CheckBusWindow(ctx context.Context, busID uuid.UUID, window Window, exclude *uuid.UUID) (*Result, error) {
	if !window.Start.Before(window.End) {
		return nil, common.NewBadRequestError("window end must be after start", nil)
	}

	hirings, err := c.repo.ActiveHiringsOverlapping(ctx, busID, window, exclude)
	if err != nil {
		return nil, common.NewInternalError("failed to query overlapping hirings", err)
	}
	bookings, err := c.repo.ActiveBookingsInWindow(ctx, busID, window, exclude)
	if err != nil {
		return nil, common.NewInternalError("failed to query bookings in window", err)
	}

	result := &Result{Available: true}
	for _, h := range hirings {
		result.ConflictingReservations = append(result.ConflictingReservations,
			ConflictRef{Type: "hiring", ID: h.HiringID, Reference: h.Reference})
	}
	for _, b := range bookings {
		result.ConflictingReservations = append(result.ConflictingReservations,
			ConflictRef{Type: "booking", ID: b.BookingID, Reference: b.Reference})
	}

	result.Available = len(result.ConflictingReservations) == 0
	return result, nil
}

// CheckBusForBooking determines whether any active hiring holds the bus at
// the booking's departure instant
func (c *Checker) CheckBusForBooking(ctx context.Context, busID uuid.UUID, departureAt time.Time) (*Result, error) {
	instant := departureAt.UTC()
	window := Window{Start: instant, End: instant.Add(time.Second)}

	hirings, err := c.repo.ActiveHiringsOverlapping(ctx, busID, window, nil)
	if err != nil {
		return nil, common.NewInternalError("failed to query overlapping hirings", err)
	}

	result := &Result{Available: true}
	for _, h := range hirings {
		result.ConflictingReservations = append(result.ConflictingReservations,
			ConflictRef{Type: "hiring", ID: h.HiringID, Reference: h.Reference})
	}
	result.Available = len(result.ConflictingReservations) == 0
	return result, nil
}

func sameSeatSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}
