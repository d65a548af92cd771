package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richxcame/bus-booking/pkg/common"
)

const uniqueViolation = "23505"

// Repository handles ledger database operations. Payments and refunds live in
// separate append-only tables sharing a unique index on
// (reservation_type, reservation_id, transaction_ref), so a concurrent
// duplicate append surfaces as a constraint violation rather than a
// double-recorded transaction.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new ledger repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load fetches the full ledger for a reservation
func (r *Repository) Load(ctx context.Context, resType ReservationType, resID uuid.UUID) (*Ledger, error) {
	ledger := &Ledger{}

	payQuery := `
		SELECT id, reservation_type, reservation_id, amount, currency, method,
			transaction_ref, status, processed_by, created_at
		FROM ledger_payments
		WHERE reservation_type = $1 AND reservation_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, payQuery, resType, resID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.ReservationType, &p.ReservationID, &p.Amount, &p.Currency,
			&p.Method, &p.TransactionRef, &p.Status, &p.ProcessedBy, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		ledger.Payments = append(ledger.Payments, p)
	}

	refundQuery := `
		SELECT id, reservation_type, reservation_id, amount, reason,
			transaction_ref, status, created_at
		FROM ledger_refunds
		WHERE reservation_type = $1 AND reservation_id = $2
		ORDER BY created_at ASC
	`
	refundRows, err := r.db.Query(ctx, refundQuery, resType, resID)
	if err != nil {
		return nil, err
	}
	defer refundRows.Close()
	for refundRows.Next() {
		var rf Refund
		if err := refundRows.Scan(
			&rf.ID, &rf.ReservationType, &rf.ReservationID, &rf.Amount, &rf.Reason,
			&rf.TransactionRef, &rf.Status, &rf.CreatedAt,
		); err != nil {
			return nil, err
		}
		ledger.Refunds = append(ledger.Refunds, rf)
	}

	return ledger, nil
}

// InsertPayment appends a payment row
func (r *Repository) InsertPayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO ledger_payments (
			id, reservation_type, reservation_id, amount, currency, method,
			transaction_ref, status, processed_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.ReservationType, p.ReservationID, p.Amount, p.Currency, p.Method,
		p.TransactionRef, p.Status, p.ProcessedBy, p.CreatedAt,
	)
	return mapDuplicate(err, p.TransactionRef)
}

// InsertRefund appends a refund row
func (r *Repository) InsertRefund(ctx context.Context, rf *Refund) error {
	query := `
		INSERT INTO ledger_refunds (
			id, reservation_type, reservation_id, amount, reason,
			transaction_ref, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		rf.ID, rf.ReservationType, rf.ReservationID, rf.Amount, rf.Reason,
		rf.TransactionRef, rf.Status, rf.CreatedAt,
	)
	return mapDuplicate(err, rf.TransactionRef)
}

func mapDuplicate(err error, ref string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.NewConflictError(common.CodeDuplicateTransaction,
			"transaction reference already recorded",
			map[string]string{"transaction_ref": ref})
	}
	return err
}
