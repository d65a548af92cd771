package ledger

import (
	"time"

	"github.com/google/uuid"
)

// ReservationType identifies which kind of reservation a ledger belongs to
type ReservationType string

const (
	ReservationBooking ReservationType = "booking"
	ReservationHiring  ReservationType = "hiring"
)

// PaymentStatus is the derived settlement state of a reservation's ledger
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPartiallyPaid     PaymentStatus = "partially_paid"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// EntryStatus is the status of a recorded ledger entry. Only completed
// payments are ever appended; failed gateway attempts never reach the ledger.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
)

// Payment is an append-only record of money received for a reservation
type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ReservationType ReservationType `json:"reservation_type" db:"reservation_type"`
	ReservationID   uuid.UUID       `json:"reservation_id" db:"reservation_id"`
	Amount          float64         `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Method          string          `json:"method" db:"method"`
	TransactionRef  string          `json:"transaction_ref" db:"transaction_ref"`
	Status          EntryStatus     `json:"status" db:"status"`
	ProcessedBy     uuid.UUID       `json:"processed_by" db:"processed_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Refund is an append-only record of money returned for a reservation
type Refund struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ReservationType ReservationType `json:"reservation_type" db:"reservation_type"`
	ReservationID   uuid.UUID       `json:"reservation_id" db:"reservation_id"`
	Amount          float64         `json:"amount" db:"amount"`
	Reason          string          `json:"reason" db:"reason"`
	TransactionRef  string          `json:"transaction_ref" db:"transaction_ref"`
	Status          EntryStatus     `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Summary is the derived view returned after every ledger mutation
type Summary struct {
	TotalPaid        float64       `json:"total_paid"`
	TotalRefunded    float64       `json:"total_refunded"`
	RemainingBalance float64       `json:"remaining_balance"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
}
