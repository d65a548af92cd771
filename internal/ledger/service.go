package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/logger"
)

// RepositoryInterface abstracts ledger persistence for testing
type RepositoryInterface interface {
	Load(ctx context.Context, resType ReservationType, resID uuid.UUID) (*Ledger, error)
	InsertPayment(ctx context.Context, p *Payment) error
	InsertRefund(ctx context.Context, rf *Refund) error
}

// Service records payments and refunds and derives settlement state. The
// in-memory checks guard the happy path; the database unique index on the
// transaction reference is the authority under concurrent appends.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new ledger service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// Get loads the ledger and its derived summary for a reservation
func (s *Service) Get(ctx context.Context, resType ReservationType, resID uuid.UUID, totalDue float64) (*Ledger, Summary, error) {
	l, err := s.repo.Load(ctx, resType, resID)
	if err != nil {
		return nil, Summary{}, common.NewInternalError("failed to load ledger", err)
	}
	return l, l.Summarize(totalDue), nil
}

// RecordPayment validates and appends a payment entry, then returns the
// recomputed summary. A duplicate transaction reference leaves the ledger
// unchanged and fails with a conflict.
func (s *Service) RecordPayment(ctx context.Context, resType ReservationType, resID uuid.UUID, totalDue float64, p Payment) (Summary, error) {
	l, err := s.repo.Load(ctx, resType, resID)
	if err != nil {
		return Summary{}, common.NewInternalError("failed to load ledger", err)
	}

	p.ID = uuid.New()
	p.ReservationType = resType
	p.ReservationID = resID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if err := l.AddPayment(p, totalDue); err != nil {
		return Summary{}, err
	}
	if err := s.repo.InsertPayment(ctx, &l.Payments[len(l.Payments)-1]); err != nil {
		if common.IsCode(err, common.CodeDuplicateTransaction) {
			return Summary{}, err
		}
		return Summary{}, common.NewInternalError("failed to record payment", err)
	}

	summary := l.Summarize(totalDue)
	logger.WithContext(ctx).Info("Payment recorded",
		zap.String("reservation_type", string(resType)),
		zap.String("reservation_id", resID.String()),
		zap.String("transaction_ref", p.TransactionRef),
		zap.Float64("amount", p.Amount),
		zap.String("payment_status", string(summary.PaymentStatus)))

	return summary, nil
}

// RecordRefund validates and appends a refund entry, then returns the
// recomputed summary
func (s *Service) RecordRefund(ctx context.Context, resType ReservationType, resID uuid.UUID, totalDue float64, rf Refund) (Summary, error) {
	l, err := s.repo.Load(ctx, resType, resID)
	if err != nil {
		return Summary{}, common.NewInternalError("failed to load ledger", err)
	}

	rf.ID = uuid.New()
	rf.ReservationType = resType
	rf.ReservationID = resID
	if rf.CreatedAt.IsZero() {
		rf.CreatedAt = time.Now().UTC()
	}

	if err := l.AddRefund(rf); err != nil {
		return Summary{}, err
	}
	if err := s.repo.InsertRefund(ctx, &l.Refunds[len(l.Refunds)-1]); err != nil {
		if common.IsCode(err, common.CodeDuplicateTransaction) {
			return Summary{}, err
		}
		return Summary{}, common.NewInternalError("failed to record refund", err)
	}

	summary := l.Summarize(totalDue)
	logger.WithContext(ctx).Info("Refund recorded",
		zap.String("reservation_type", string(resType)),
		zap.String("reservation_id", resID.String()),
		zap.String("transaction_ref", rf.TransactionRef),
		zap.Float64("amount", rf.Amount),
		zap.String("payment_status", string(summary.PaymentStatus)))

	return summary, nil
}
