package ledger

import (
	"fmt"

	"github.com/richxcame/bus-booking/pkg/common"
)

// Ledger is the in-memory projection of a reservation's payment and refund
// entries. Entries are append-only; totals and status are always recomputed
// from the full entry lists rather than cached incrementally.
type Ledger struct {
	Payments []Payment
	Refunds  []Refund
}

// TotalPaid sums all completed payment amounts
func (l *Ledger) TotalPaid() float64 {
	var total float64
	for _, p := range l.Payments {
		if p.Status == EntryStatusCompleted {
			total += p.Amount
		}
	}
	return total
}

// TotalRefunded sums all completed refund amounts
func (l *Ledger) TotalRefunded() float64 {
	var total float64
	for _, r := range l.Refunds {
		if r.Status == EntryStatusCompleted {
			total += r.Amount
		}
	}
	return total
}

// HasTransaction reports whether any entry in this ledger already carries the
// given transaction reference
func (l *Ledger) HasTransaction(ref string) bool {
	for _, p := range l.Payments {
		if p.TransactionRef == ref {
			return true
		}
	}
	for _, r := range l.Refunds {
		if r.TransactionRef == ref {
			return true
		}
	}
	return false
}

// ValidatePaymentAmount rejects non-positive amounts and amounts that would
// take the ledger past the total due. Runs before any entry is appended.
func (l *Ledger) ValidatePaymentAmount(amount, totalDue float64) error {
	if amount <= 0 {
		return common.NewUnprocessableError(common.CodeInvalidAmount, "payment amount must be greater than zero")
	}
	remaining := totalDue - l.TotalPaid()
	if amount > remaining {
		return common.NewUnprocessableError(common.CodeAmountExceedsBalance,
			fmt.Sprintf("payment of %.2f exceeds remaining balance of %.2f", amount, remaining))
	}
	return nil
}

// AddPayment appends a payment entry after duplicate and amount checks
func (l *Ledger) AddPayment(p Payment, totalDue float64) error {
	if l.HasTransaction(p.TransactionRef) {
		return common.NewConflictError(common.CodeDuplicateTransaction,
			"transaction reference already recorded",
			map[string]string{"transaction_ref": p.TransactionRef})
	}
	if err := l.ValidatePaymentAmount(p.Amount, totalDue); err != nil {
		return err
	}
	p.Status = EntryStatusCompleted
	l.Payments = append(l.Payments, p)
	return nil
}

// AddRefund appends a refund entry after duplicate and amount checks
func (l *Ledger) AddRefund(r Refund) error {
	if r.Amount <= 0 {
		return common.NewUnprocessableError(common.CodeInvalidAmount, "refund amount must be greater than zero")
	}
	if l.HasTransaction(r.TransactionRef) {
		return common.NewConflictError(common.CodeDuplicateTransaction,
			"transaction reference already recorded",
			map[string]string{"transaction_ref": r.TransactionRef})
	}
	r.Status = EntryStatusCompleted
	l.Refunds = append(l.Refunds, r)
	return nil
}

// DeriveStatus computes the payment status from the ledger totals against the
// amount due. Branches are evaluated in order and the first match wins.
func (l *Ledger) DeriveStatus(totalDue float64) PaymentStatus {
	paid := l.TotalPaid()
	refunded := l.TotalRefunded()

	switch {
	case paid >= totalDue && refunded == 0:
		return PaymentStatusPaid
	case paid > 0 && paid < totalDue:
		return PaymentStatusPartiallyPaid
	case refunded > 0 && refunded < paid:
		return PaymentStatusPartiallyRefunded
	case refunded >= paid && paid > 0:
		return PaymentStatusRefunded
	default:
		return PaymentStatusPending
	}
}

// Summarize builds the derived view for a given amount due
func (l *Ledger) Summarize(totalDue float64) Summary {
	paid := l.TotalPaid()
	remaining := totalDue - paid
	if remaining < 0 {
		remaining = 0
	}
	return Summary{
		TotalPaid:        common.RoundMoney(paid),
		TotalRefunded:    common.RoundMoney(l.TotalRefunded()),
		RemainingBalance: common.RoundMoney(remaining),
		PaymentStatus:    l.DeriveStatus(totalDue),
	}
}
