package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the conflict queries against bookings and hirings tables
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new availability repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ActiveHiringsOverlapping lists active hirings on the bus whose [start,end)
// window intersects the given one
func (r *Repository) ActiveHiringsOverlapping(ctx context.Context, busID uuid.UUID, window Window, exclude *uuid.UUID) ([]HiringHold, error) {
	query := `
		SELECT id, reference, start_date, end_date
		FROM hirings
		WHERE bus_id = $1
		  AND status IN ('pending', 'approved', 'confirmed', 'in_progress')
		  AND start_date < $3
		  AND $2 < end_date
		  AND ($4::uuid IS NULL OR id != $4)
	`
	rows, err := r.db.Query(ctx, query, busID, window.Start, window.End, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []HiringHold
	for rows.Next() {
		var h HiringHold
		if err := rows.Scan(&h.HiringID, &h.Reference, &h.Window.Start, &h.Window.End); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// ActiveBookingsInWindow lists active bookings on the bus whose departure
// instant falls inside the window
func (r *Repository) ActiveBookingsInWindow(ctx context.Context, busID uuid.UUID, window Window, exclude *uuid.UUID) ([]BookingHold, error) {
	query := `
		SELECT id, reference, departure_at
		FROM bookings
		WHERE bus_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND departure_at >= $2
		  AND departure_at < $3
		  AND ($4::uuid IS NULL OR id != $4)
	`
	rows, err := r.db.Query(ctx, query, busID, window.Start, window.End, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []BookingHold
	for rows.Next() {
		var b BookingHold
		if err := rows.Scan(&b.BookingID, &b.Reference, &b.DepartureAt); err != nil {
			return nil, err
		}
		holds = append(holds, b)
	}
	return holds, rows.Err()
}

// OccupiedSeats lists seats held by other active bookings on the bus at the
// exact departure timestamp
func (r *Repository) OccupiedSeats(ctx context.Context, busID uuid.UUID, departureAt time.Time, exclude *uuid.UUID) ([]SeatOccupancy, error) {
	query := `
		SELECT s.seat_number, s.booking_id, b.reference
		FROM booking_seats s
		JOIN bookings b ON b.id = s.booking_id
		WHERE s.bus_id = $1
		  AND s.departure_at = $2
		  AND s.active = true
		  AND b.status IN ('pending', 'confirmed')
		  AND ($3::uuid IS NULL OR s.booking_id != $3)
	`
	rows, err := r.db.Query(ctx, query, busID, departureAt, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occupied []SeatOccupancy
	for rows.Next() {
		var o SeatOccupancy
		if err := rows.Scan(&o.SeatNumber, &o.BookingID, &o.Reference); err != nil {
			return nil, err
		}
		occupied = append(occupied, o)
	}
	return occupied, rows.Err()
}
