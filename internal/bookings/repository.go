package bookings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richxcame/bus-booking/pkg/common"
)

const uniqueViolation = "23505"

// Repository handles booking database operations. The booking insert and its
// seat rows share one transaction; the partial unique index on
// (bus_id, departure_at, seat_number) WHERE active turns a racing duplicate
// seat into a rejected insert instead of a double-booking.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new bookings repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `
	id, reference, user_id, route_id, bus_id, type, status, passengers,
	departure_at, return_at, outbound_seats, return_seats, is_holiday,
	promo_percent, total_fare, created_at, updated_at
`

// Create inserts the booking and one seat row per held seat atomically
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	passengersJSON, _ := json.Marshal(b.Passengers)
	outboundJSON, _ := json.Marshal(b.OutboundSeats)
	returnJSON, _ := json.Marshal(b.ReturnSeats)

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = tx.Exec(ctx, query,
		b.ID, b.Reference, b.UserID, b.RouteID, b.BusID, b.Type, b.Status, passengersJSON,
		b.DepartureAt, b.ReturnAt, outboundJSON, returnJSON, b.IsHoliday,
		b.PromoPercent, b.TotalFare, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapSeatConflict(err)
	}

	seatInsert := `
		INSERT INTO booking_seats (id, booking_id, bus_id, departure_at, seat_number, leg, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`
	for _, seat := range b.OutboundSeats {
		if _, err := tx.Exec(ctx, seatInsert, uuid.New(), b.ID, b.BusID, b.DepartureAt, seat, "outbound"); err != nil {
			return mapSeatConflict(err)
		}
	}
	if b.ReturnAt != nil {
		for _, seat := range b.ReturnSeats {
			if _, err := tx.Exec(ctx, seatInsert, uuid.New(), b.ID, b.BusID, *b.ReturnAt, seat, "return"); err != nil {
				return mapSeatConflict(err)
			}
		}
	}

	return tx.Commit(ctx)
}

func scanBooking(row interface{ Scan(dest ...any) error }) (*Booking, error) {
	var b Booking
	var passengersJSON, outboundJSON, returnJSON []byte
	err := row.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.RouteID, &b.BusID, &b.Type, &b.Status, &passengersJSON,
		&b.DepartureAt, &b.ReturnAt, &outboundJSON, &returnJSON, &b.IsHoliday,
		&b.PromoPercent, &b.TotalFare, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(passengersJSON, &b.Passengers)
	_ = json.Unmarshal(outboundJSON, &b.OutboundSeats)
	_ = json.Unmarshal(returnJSON, &b.ReturnSeats)
	return &b, nil
}

// Get fetches a booking by id
func (r *Repository) Get(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// GetByReference fetches a booking by its human-readable reference
func (r *Repository) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	return scanBooking(r.db.QueryRow(ctx, query, reference))
}

// ListByUser lists a user's bookings, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, int64, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// UpdateStatus moves a booking to a new status. When the new status releases
// the seats, their rows are deactivated in the same transaction so the
// partial unique index frees them for rebooking.
func (r *Repository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status Status) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, bookingID,
	); err != nil {
		return err
	}

	if !status.Active() {
		if _, err := tx.Exec(ctx,
			`UPDATE booking_seats SET active = false WHERE booking_id = $1`,
			bookingID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateTotalFare stores a recalculated fare
func (r *Repository) UpdateTotalFare(ctx context.Context, bookingID uuid.UUID, totalFare float64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE bookings SET total_fare = $1, updated_at = NOW() WHERE id = $2`,
		totalFare, bookingID,
	)
	return err
}

func mapSeatConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.NewConflictError(common.CodeSeatConflict,
			"one or more seats were booked by a concurrent request", nil)
	}
	return err
}

// IsNotFound reports whether the repository error means the row is missing
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
