package tickets

import (
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/internal/bookings"
)

// VerificationResult is the outcome of scanning a ticket at boarding
type VerificationResult string

const (
	ResultValid       VerificationResult = "valid"
	ResultInvalid     VerificationResult = "invalid"
	ResultNotPaid     VerificationResult = "not_paid"
	ResultAlreadyUsed VerificationResult = "already_used"
)

// Verification is one append-only record of a boarding check
type Verification struct {
	ID         uuid.UUID          `json:"id" db:"id"`
	BookingID  uuid.UUID          `json:"booking_id" db:"booking_id"`
	Reference  string             `json:"reference" db:"reference"`
	Result     VerificationResult `json:"result" db:"result"`
	VerifiedBy uuid.UUID          `json:"verified_by" db:"verified_by"`
	VerifiedAt time.Time          `json:"verified_at" db:"verified_at"`
	Notes      string             `json:"notes,omitempty" db:"notes"`
}

// TicketData is the projection of a paid booking that the external ticketing
// collaborator renders into an artifact. Payload is the encoded verification
// payload embedded in the ticket.
type TicketData struct {
	BookingID   uuid.UUID            `json:"booking_id"`
	Reference   string               `json:"reference"`
	Source      string               `json:"source"`
	Destination string               `json:"destination"`
	DepartureAt time.Time            `json:"departure_at"`
	ReturnAt    *time.Time           `json:"return_at,omitempty"`
	Passengers  []bookings.Passenger `json:"passengers"`
	Seats       []string             `json:"seats"`
	ReturnSeats []string             `json:"return_seats,omitempty"`
	TotalFare   float64              `json:"total_fare"`
	Payload     string               `json:"payload"`
}

// VerifyTicketRequest is the conductor's scan callback
type VerifyTicketRequest struct {
	Notes string `json:"notes"`
}
