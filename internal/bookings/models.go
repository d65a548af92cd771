package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/internal/fares"
)

// Status is the lifecycle state of a booking
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
	StatusRefunded  Status = "refunded"
)

// Active reports whether the booking still occupies its seats
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// BookingType distinguishes one-way from round-trip bookings
type BookingType string

const (
	TypeOneWay    BookingType = "one_way"
	TypeRoundTrip BookingType = "round_trip"
)

// Passenger is one traveller on a booking with their assigned seats
type Passenger struct {
	Name             string              `json:"name" binding:"required"`
	Age              int                 `json:"age" binding:"required,min=0"`
	Type             fares.PassengerType `json:"type" binding:"required,oneof=adult child senior"`
	SeatNumber       string              `json:"seat_number" binding:"required,seatnumber"`
	ReturnSeatNumber string              `json:"return_seat_number,omitempty" binding:"omitempty,seatnumber"`
}

// Booking is a per-seat reservation on a scheduled route run
type Booking struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	Reference     string      `json:"reference" db:"reference"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	RouteID       uuid.UUID   `json:"route_id" db:"route_id"`
	BusID         uuid.UUID   `json:"bus_id" db:"bus_id"`
	Type          BookingType `json:"type" db:"type"`
	Status        Status      `json:"status" db:"status"`
	Passengers    []Passenger `json:"passengers" db:"passengers"`
	DepartureAt   time.Time   `json:"departure_at" db:"departure_at"`
	ReturnAt      *time.Time  `json:"return_at,omitempty" db:"return_at"`
	OutboundSeats []string    `json:"outbound_seats" db:"outbound_seats"`
	ReturnSeats   []string    `json:"return_seats,omitempty" db:"return_seats"`
	IsHoliday     bool        `json:"is_holiday" db:"is_holiday"`
	PromoPercent  float64     `json:"promo_percent,omitempty" db:"promo_percent"`
	TotalFare     float64     `json:"total_fare" db:"total_fare"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest is the payload for booking seats on a route
type CreateBookingRequest struct {
	RouteID       uuid.UUID   `json:"route_id" binding:"required"`
	Type          BookingType `json:"type" binding:"required,oneof=one_way round_trip"`
	DepartureDate time.Time   `json:"departure_date" binding:"required"`
	ReturnDate    *time.Time  `json:"return_date,omitempty"`
	Passengers    []Passenger `json:"passengers" binding:"required,min=1,dive"`
	Seats         []string    `json:"seats" binding:"required,min=1"`
	ReturnSeats   []string    `json:"return_seats,omitempty"`
	IsHoliday     bool        `json:"is_holiday"`
	PromoPercent  float64     `json:"promo_percent" binding:"omitempty,gte=0,lte=100"`
}

// CancelBookingRequest carries the cancellation reason
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}
