package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audit record of a reservation status change. The history is
// append-only; rows are never updated or deleted.
type Entry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ReservationType string    `json:"reservation_type" db:"reservation_type"`
	ReservationID   uuid.UUID `json:"reservation_id" db:"reservation_id"`
	Status          string    `json:"status" db:"status"`
	Actor           uuid.UUID `json:"actor" db:"actor"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// RepositoryInterface abstracts history persistence for testing
type RepositoryInterface interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, reservationType string, reservationID uuid.UUID) ([]*Entry, error)
}

// Repository stores status history rows
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new history repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append inserts an audit entry
func (r *Repository) Append(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO status_history (id, reservation_type, reservation_id, status, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.ReservationType, entry.ReservationID, entry.Status,
		entry.Actor, entry.Notes, entry.CreatedAt,
	)
	return err
}

// List returns the audit trail for a reservation in chronological order
func (r *Repository) List(ctx context.Context, reservationType string, reservationID uuid.UUID) ([]*Entry, error) {
	query := `
		SELECT id, reservation_type, reservation_id, status, actor, notes, created_at
		FROM status_history
		WHERE reservation_type = $1 AND reservation_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, reservationType, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.ReservationType, &e.ReservationID, &e.Status,
			&e.Actor, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
