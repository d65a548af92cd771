package hiring

import (
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/bus-booking/internal/cancellation"
)

// Status is the lifecycle state of a hiring contract
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Active reports whether the hiring still holds its bus for availability
// purposes
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusApproved, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// RateType selects the pricing formula for a hiring
type RateType string

const (
	RatePerDay       RateType = "per_day"
	RatePerHour      RateType = "per_hour"
	RatePerKilometer RateType = "per_kilometer"
	RateFixed        RateType = "fixed"
	RateRouteBased   RateType = "route_based"
)

// Valid reports whether the rate type is one of the known pricing modes
func (r RateType) Valid() bool {
	switch r {
	case RatePerDay, RatePerHour, RatePerKilometer, RateFixed, RateRouteBased:
		return true
	}
	return false
}

// TripType distinguishes one-way from round-trip hirings
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
)

// Charge is an itemized extra added to the hire cost
type Charge struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

// Hiring is a whole-bus charter contract
type Hiring struct {
	ID                   uuid.UUID           `json:"id" db:"id"`
	Reference            string              `json:"reference" db:"reference"`
	UserID               uuid.UUID           `json:"user_id" db:"user_id"`
	BusID                uuid.UUID           `json:"bus_id" db:"bus_id"`
	RouteID              *uuid.UUID          `json:"route_id,omitempty" db:"route_id"`
	Status               Status              `json:"status" db:"status"`
	Purpose              string              `json:"purpose" db:"purpose"`
	PassengerCount       int                 `json:"passenger_count" db:"passenger_count"`
	StartLocation        string              `json:"start_location" db:"start_location"`
	EndLocation          string              `json:"end_location" db:"end_location"`
	StartDate            time.Time           `json:"start_date" db:"start_date"`
	EndDate              time.Time           `json:"end_date" db:"end_date"`
	TripType             TripType            `json:"trip_type" db:"trip_type"`
	ReturnDate           *time.Time          `json:"return_date,omitempty" db:"return_date"`
	RateType             RateType            `json:"rate_type" db:"rate_type"`
	BaseRate             float64             `json:"base_rate" db:"base_rate"`
	EstimatedDistance    float64             `json:"estimated_distance" db:"estimated_distance"`
	RoutePriceMultiplier float64             `json:"route_price_multiplier" db:"route_price_multiplier"`
	DriverAllowance      float64             `json:"driver_allowance" db:"driver_allowance"`
	OvertimeRate         float64             `json:"overtime_rate" db:"overtime_rate"`
	AdditionalCharges    []Charge            `json:"additional_charges,omitempty" db:"additional_charges"`
	TotalCost            float64             `json:"total_cost" db:"total_cost"`
	Deposit              float64             `json:"deposit" db:"deposit"`
	Policy               cancellation.Policy `json:"cancellation_policy" db:"cancellation_policy"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" db:"updated_at"`
}

// CreateHiringRequest is the payload for requesting a bus hire
type CreateHiringRequest struct {
	BusID                uuid.UUID  `json:"bus_id" binding:"required"`
	RouteID              *uuid.UUID `json:"route_id,omitempty"`
	Purpose              string     `json:"purpose" binding:"required"`
	PassengerCount       int        `json:"passenger_count" binding:"required,min=1"`
	StartLocation        string     `json:"start_location"`
	EndLocation          string     `json:"end_location"`
	StartDate            time.Time  `json:"start_date" binding:"required"`
	EndDate              time.Time  `json:"end_date" binding:"required"`
	TripType             TripType   `json:"trip_type" binding:"required,oneof=one_way round_trip"`
	ReturnDate           *time.Time `json:"return_date,omitempty"`
	RateType             RateType   `json:"rate_type" binding:"required,oneof=per_day per_hour per_kilometer fixed route_based"`
	BaseRate             float64    `json:"base_rate" binding:"omitempty,gte=0"`
	EstimatedDistance    float64    `json:"estimated_distance" binding:"omitempty,gt=0"`
	RoutePriceMultiplier float64    `json:"route_price_multiplier" binding:"omitempty,gte=1"`
	DriverAllowance      float64    `json:"driver_allowance" binding:"omitempty,gte=0"`
	OvertimeRate         float64    `json:"overtime_rate" binding:"omitempty,gte=0"`
	AdditionalCharges    []Charge   `json:"additional_charges,omitempty"`
	Deposit              float64    `json:"deposit" binding:"omitempty,gte=0"`
	Policy               string     `json:"cancellation_policy" binding:"omitempty,oneof=standard flexible strict"`
}

// DecisionRequest approves or rejects a pending hiring
type DecisionRequest struct {
	Notes string `json:"notes"`
}

// CancelHiringRequest carries the cancellation reason
type CancelHiringRequest struct {
	Reason string `json:"reason" binding:"required"`
}
