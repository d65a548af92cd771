package tickets

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores verification records, append-only
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new tickets repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append inserts a verification record
func (r *Repository) Append(ctx context.Context, v *Verification) error {
	query := `
		INSERT INTO ticket_verifications (id, booking_id, reference, result, verified_by, verified_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		v.ID, v.BookingID, v.Reference, v.Result, v.VerifiedBy, v.VerifiedAt, v.Notes,
	)
	return err
}

// ListByBooking returns all verification records for a booking in order
func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Verification, error) {
	query := `
		SELECT id, booking_id, reference, result, verified_by, verified_at, notes
		FROM ticket_verifications
		WHERE booking_id = $1
		ORDER BY verified_at ASC
	`
	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var verifications []*Verification
	for rows.Next() {
		var v Verification
		if err := rows.Scan(&v.ID, &v.BookingID, &v.Reference, &v.Result, &v.VerifiedBy, &v.VerifiedAt, &v.Notes); err != nil {
			return nil, err
		}
		verifications = append(verifications, &v)
	}
	return verifications, rows.Err()
}
