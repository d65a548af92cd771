package availability

import (
	"time"

	"github.com/google/uuid"
)

// Window is a half-open time interval [Start, End)
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open windows intersect:
// [s1,e1) and [s2,e2) conflict iff s1 < e2 and s2 < e1.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether the instant t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ConflictRef identifies a reservation that blocks the requested resource
type ConflictRef struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
}

// Result carries the outcome of an availability check. On conflict it lists
// the specific seats and reservations involved so the caller can act without
// a second round-trip.
type Result struct {
	Available               bool          `json:"available"`
	ConflictingSeats        []string      `json:"conflicting_seats,omitempty"`
	ConflictingReservations []ConflictRef `json:"conflicting_reservations,omitempty"`
}

// SeatOccupancy is one seat held by an active booking at a departure
type SeatOccupancy struct {
	SeatNumber string
	BookingID  uuid.UUID
	Reference  string
}

// HiringHold is an active hiring occupying a bus over a window
type HiringHold struct {
	HiringID  uuid.UUID
	Reference string
	Window    Window
}

// BookingHold is an active booking occupying a bus at a departure instant
type BookingHold struct {
	BookingID   uuid.UUID
	Reference   string
	DepartureAt time.Time
}
