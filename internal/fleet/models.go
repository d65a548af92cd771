package fleet

import (
	"time"

	"github.com/google/uuid"
)

// BusStatus represents the operational status of a bus
type BusStatus string

const (
	BusStatusActive      BusStatus = "active"
	BusStatusMaintenance BusStatus = "maintenance"
	BusStatusRepair      BusStatus = "repair"
	BusStatusRetired     BusStatus = "retired"
)

// Assignable reports whether a bus may take new routes, bookings or hirings.
func (s BusStatus) Assignable() bool {
	return s == BusStatusActive
}

// Bus represents a vehicle in the fleet
type Bus struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Model       string    `json:"model" db:"model"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Status      BusStatus `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Route represents a scheduled service between two locations
type Route struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Source        string         `json:"source" db:"source"`
	Destination   string         `json:"destination" db:"destination"`
	BaseFare      float64        `json:"base_fare" db:"base_fare"`
	OperatingDays []time.Weekday `json:"operating_days"`
	DepartureTime string         `json:"departure_time" db:"departure_time"` // "08:30" in 24h format
	ArrivalTime   string         `json:"arrival_time" db:"arrival_time"`
	DistanceKM    float64        `json:"distance_km" db:"distance_km"`
	BusID         uuid.UUID      `json:"bus_id" db:"bus_id"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// OperatesOn reports whether the route runs on the given weekday.
func (r *Route) OperatesOn(day time.Weekday) bool {
	for _, d := range r.OperatingDays {
		if d == day {
			return true
		}
	}
	return false
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// CreateBusRequest represents a request to register a bus
type CreateBusRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Model       string `json:"model"`
	Capacity    int    `json:"capacity" binding:"required,gt=0"`
}

// UpdateBusStatusRequest represents a bus status change
type UpdateBusStatusRequest struct {
	Status BusStatus `json:"status" binding:"required,oneof=active maintenance repair retired"`
}

// CreateRouteRequest represents a request to create a route
type CreateRouteRequest struct {
	Source        string    `json:"source" binding:"required"`
	Destination   string    `json:"destination" binding:"required"`
	BaseFare      float64   `json:"base_fare" binding:"gte=0"`
	OperatingDays []int     `json:"operating_days" binding:"required,min=1"`
	DepartureTime string    `json:"departure_time" binding:"required"` // "08:30"
	ArrivalTime   string    `json:"arrival_time" binding:"required"`
	DistanceKM    float64   `json:"distance_km" binding:"gte=0"`
	BusID         uuid.UUID `json:"bus_id" binding:"required"`
}

// UpdateRouteFareRequest represents an admin fare adjustment
type UpdateRouteFareRequest struct {
	BaseFare float64 `json:"base_fare" binding:"gte=0"`
}
