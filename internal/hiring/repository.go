package hiring

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles hiring database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new hiring repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const hiringColumns = `
	id, reference, user_id, bus_id, route_id, status, purpose, passenger_count,
	start_location, end_location, start_date, end_date, trip_type, return_date,
	rate_type, base_rate, estimated_distance, route_price_multiplier,
	driver_allowance, overtime_rate, additional_charges, total_cost, deposit,
	cancellation_policy, created_at, updated_at
`

// Create inserts a hiring contract
func (r *Repository) Create(ctx context.Context, h *Hiring) error {
	chargesJSON, _ := json.Marshal(h.AdditionalCharges)

	query := `
		INSERT INTO hirings (` + hiringColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`
	_, err := r.db.Exec(ctx, query,
		h.ID, h.Reference, h.UserID, h.BusID, h.RouteID, h.Status, h.Purpose, h.PassengerCount,
		h.StartLocation, h.EndLocation, h.StartDate, h.EndDate, h.TripType, h.ReturnDate,
		h.RateType, h.BaseRate, h.EstimatedDistance, h.RoutePriceMultiplier,
		h.DriverAllowance, h.OvertimeRate, chargesJSON, h.TotalCost, h.Deposit,
		h.Policy, h.CreatedAt, h.UpdatedAt,
	)
	return err
}

func scanHiring(row interface{ Scan(dest ...any) error }) (*Hiring, error) {
	var h Hiring
	var chargesJSON []byte
	err := row.Scan(
		&h.ID, &h.Reference, &h.UserID, &h.BusID, &h.RouteID, &h.Status, &h.Purpose, &h.PassengerCount,
		&h.StartLocation, &h.EndLocation, &h.StartDate, &h.EndDate, &h.TripType, &h.ReturnDate,
		&h.RateType, &h.BaseRate, &h.EstimatedDistance, &h.RoutePriceMultiplier,
		&h.DriverAllowance, &h.OvertimeRate, &chargesJSON, &h.TotalCost, &h.Deposit,
		&h.Policy, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(chargesJSON, &h.AdditionalCharges)
	return &h, nil
}

// Get fetches a hiring by id
func (r *Repository) Get(ctx context.Context, hiringID uuid.UUID) (*Hiring, error) {
	query := `SELECT ` + hiringColumns + ` FROM hirings WHERE id = $1`
	return scanHiring(r.db.QueryRow(ctx, query, hiringID))
}

// ListByUser lists a user's hirings, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Hiring, int64, error) {
	query := `
		SELECT ` + hiringColumns + `
		FROM hirings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hirings []*Hiring
	for rows.Next() {
		h, err := scanHiring(rows)
		if err != nil {
			return nil, 0, err
		}
		hirings = append(hirings, h)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM hirings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return hirings, total, nil
}

// ListByStatus lists hirings in a given status, oldest first, for review queues
func (r *Repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Hiring, int64, error) {
	query := `
		SELECT ` + hiringColumns + `
		FROM hirings
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var hirings []*Hiring
	for rows.Next() {
		h, err := scanHiring(rows)
		if err != nil {
			return nil, 0, err
		}
		hirings = append(hirings, h)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM hirings WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	return hirings, total, nil
}

// UpdateStatus moves a hiring to a new status
func (r *Repository) UpdateStatus(ctx context.Context, hiringID uuid.UUID, status Status) error {
	query := `UPDATE hirings SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, hiringID)
	return err
}
